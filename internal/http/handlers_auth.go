package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/target/lab-portal/internal/domain/access"
	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/ports"
	"github.com/target/lab-portal/internal/service"
)

// AuthServiceInterface defines the auth operations the handlers depend on.
type AuthServiceInterface interface {
	SSOEnabled() bool
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*domainauth.Session, error)
	LoginWithPassword(ctx context.Context, email, password string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
	SwitchActiveRole(ctx context.Context, sess *domainauth.Session, target string) (domainauth.Role, error)
}

// Auth error codes passed to /auth/error.
const (
	authErrInvalidCredentials = "invalid_credentials"
	authErrNoRoles            = "no_roles"
	authErrLoginFailed        = "login_failed"
	authErrInvalidState       = "invalid_state"
)

var authErrorMessages = map[string]string{
	authErrInvalidCredentials: "The email or password is incorrect.",
	authErrNoRoles:            "Your account has no portal access. Contact an administrator.",
	authErrLoginFailed:        "Sign-in could not be completed. Please try again.",
	authErrInvalidState:       "The sign-in request expired or was tampered with. Please try again.",
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc     AuthServiceInterface
	Codec   ports.ActiveRoleCodec
	Cookies CookieConfig
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// LoginPage starts the provider flow in SSO modes, or describes the
// credentials form otherwise.
// GET /auth/login?callbackUrl=<path>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	callback := safeRedirectPath(r.URL.Query().Get(access.CallbackParam))

	if !h.Svc.SSOEnabled() {
		WriteJSON(w, http.StatusOK, map[string]any{
			"page":        "login",
			"method":      "credentials",
			"action":      "/api/auth/login",
			"callbackUrl": callback,
			"csrf_token":  GetCSRFToken(r),
		})
		return
	}

	result, err := h.Svc.BeginLogin(r.Context(), callback)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		redirectToAuthError(w, r, authErrLoginFailed)
		return
	}

	ttl := oauthCookieLifetime
	h.Cookies.set(w, r, oauthStateCookie, result.State, ttl)
	h.Cookies.set(w, r, oauthNonceCookie, result.Nonce, ttl)
	h.Cookies.set(w, r, postLoginCookie, callback, ttl)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes the provider flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	nonce := cookieValue(r, oauthNonceCookie)
	if code == "" || state == "" || nonce == "" || cookieValue(r, oauthStateCookie) != state {
		redirectToAuthError(w, r, authErrInvalidState)
		return
	}

	sess, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{Code: code, State: state, Nonce: nonce})
	h.Cookies.clear(w, r, oauthStateCookie)
	h.Cookies.clear(w, r, oauthNonceCookie)
	if err != nil {
		h.logger().WarnContext(r.Context(), "login completion failed", "error", err)
		redirectToAuthError(w, r, loginErrorCode(err))
		return
	}

	callback := safeRedirectPath(cookieValue(r, postLoginCookie))
	h.Cookies.clear(w, r, postLoginCookie)
	h.startSession(w, r, sess)
	http.Redirect(w, r, callback, http.StatusSeeOther)
}

type passwordLoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl"`
}

// PasswordLogin verifies local credentials from a form or JSON body.
// POST /api/auth/login.
func (h *AuthHandlers) PasswordLogin(w http.ResponseWriter, r *http.Request) {
	asJSON := wantsJSON(r)
	var req passwordLoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		req = passwordLoginRequest{
			Email:       r.FormValue("email"),
			Password:    r.FormValue("password"),
			CallbackURL: r.FormValue(access.CallbackParam),
		}
	}

	sess, err := h.Svc.LoginWithPassword(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		code := loginErrorCode(err)
		if code == authErrLoginFailed {
			h.logger().ErrorContext(r.Context(), "password login failed", "error", err)
		}
		if asJSON {
			status := http.StatusUnauthorized
			if code == authErrLoginFailed {
				status = http.StatusInternalServerError
			}
			WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: errors.New(authErrorMessages[code])})
			return
		}
		redirectToAuthError(w, r, code)
		return
	}

	h.startSession(w, r, sess)
	callback := safeRedirectPath(req.CallbackURL)
	if asJSON {
		WriteJSON(w, http.StatusOK, map[string]any{"redirect_to": callback, "user": sessionUser(sess)})
		return
	}
	http.Redirect(w, r, callback, http.StatusSeeOther)
}

// Logout deletes the session and clears the session and active role cookies.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if id := cookieValue(r, service.SessionCookieName); id != "" {
		if err := h.Svc.Logout(r.Context(), id); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	h.Cookies.clear(w, r, service.SessionCookieName)
	h.Cookies.clear(w, r, access.CookieName)

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out", "redirect_to": "/"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Status reports the current session and active role.
// GET /api/auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	body := map[string]any{
		"authenticated": true,
		"user":          sessionUser(sess),
		"expires_at":    sess.ExpiresAt,
	}
	if role, ok := ActiveRoleFromContext(r.Context()); ok {
		body["active_role"] = role
	}
	WriteJSON(w, http.StatusOK, body)
}

// SwitchActiveRole persists a new active role and sends the user to its portal.
// POST /api/auth/active-role.
func (h *AuthHandlers) SwitchActiveRole(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	if sess == nil {
		writeAuthRequired(w)
		return
	}

	var target string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Role string `json:"role"`
		}
		if !DecodeJSON(w, r, &body) {
			return
		}
		target = body.Role
	} else {
		target = r.FormValue("role")
	}

	role, err := h.Svc.SwitchActiveRole(r.Context(), sess, target)
	if err != nil {
		if errors.Is(err, access.ErrRoleNotAssigned) {
			WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "role_not_assigned", Err: err})
			return
		}
		writeServiceError(w, r, h.logger(), err)
		return
	}

	value, err := h.Codec.Encode(sess.UserID, role, time.Now())
	if err != nil {
		writeServiceError(w, r, h.logger(), err)
		return
	}
	h.Cookies.setActiveRole(w, r, value)

	portal := domainauth.PortalPath(role)
	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]any{"active_role": role, "redirect_to": portal})
		return
	}
	http.Redirect(w, r, portal, http.StatusSeeOther)
}

// ErrorPage describes a sign-in failure. It stays reachable while logged in.
// GET /auth/error?error=<code>.
func (h *AuthHandlers) ErrorPage(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("error")
	msg, ok := authErrorMessages[code]
	if !ok {
		code, msg = authErrLoginFailed, authErrorMessages[authErrLoginFailed]
	}
	WriteJSON(w, http.StatusOK, map[string]string{"page": "auth-error", "error": code, "message": msg})
}

// startSession sets the session cookie. Any active role cookie left by a
// previous user is cleared so the router initializes a fresh one.
func (h *AuthHandlers) startSession(w http.ResponseWriter, r *http.Request, sess *domainauth.Session) {
	h.Cookies.set(w, r, service.SessionCookieName, sess.ID, time.Until(sess.ExpiresAt))
	h.Cookies.clear(w, r, access.CookieName)
}

func loginErrorCode(err error) string {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return authErrInvalidCredentials
	case errors.Is(err, service.ErrNoRoles):
		return authErrNoRoles
	default:
		return authErrLoginFailed
	}
}

func redirectToAuthError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, access.AuthErrorPath+"?"+url.Values{"error": {code}}.Encode(), http.StatusSeeOther)
}

func sessionUser(s *domainauth.Session) map[string]any {
	return map[string]any{
		"id":         s.UserID,
		"email":      s.Email,
		"first_name": s.FirstName,
		"last_name":  s.LastName,
		"roles":      s.Roles,
	}
}
