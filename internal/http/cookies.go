package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/target/lab-portal/internal/adapters/rolecookie"
	"github.com/target/lab-portal/internal/domain/access"
)

// Short-lived cookies carrying the OAuth round trip.
const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	postLoginCookie     = "post_login_redirect"
	oauthCookieLifetime = 10 * time.Minute
)

// CookieConfig holds attributes shared by every cookie the portal sets.
type CookieConfig struct {
	Domain string
	// Secure forces the Secure attribute, as in production. Requests over TLS
	// (directly or behind a proxy) get it regardless.
	Secure bool
}

func (c CookieConfig) secure(r *http.Request) bool {
	return c.Secure || r.TLS != nil || isForwardedHTTPS(r)
}

// set writes an HttpOnly, SameSite=Lax cookie scoped to the whole site.
func (c CookieConfig) set(w http.ResponseWriter, r *http.Request, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

// clear expires a cookie, mirroring the attributes used by set.
func (c CookieConfig) clear(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.secure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}

func (c CookieConfig) setActiveRole(w http.ResponseWriter, r *http.Request, value string) {
	c.set(w, r, access.CookieName, value, rolecookie.DefaultMaxAge)
}

// isForwardedHTTPS handles comma-separated X-Forwarded-Proto values.
func isForwardedHTTPS(r *http.Request) bool {
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
