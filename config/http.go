package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the public base URL of the portal (e.g., "https://lab.example.com").
	// Used for absolute links in staff notifications.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for session and active role cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// SecureCookies forces the Secure attribute. Always on outside development.
	SecureCookies bool `env:"APP_SECURE_COOKIES" envDefault:"false"`

	// StaticDir serves /static/ from disk when set.
	StaticDir string `env:"HTTP_STATIC_DIR" envDefault:""`

	// TrustProxy keys rate limits by X-Forwarded-For.
	TrustProxy bool `env:"HTTP_TRUST_PROXY" envDefault:"false"`

	// ContactRateLimitRPS throttles the contact form and password login per client.
	// Zero disables throttling.
	ContactRateLimitRPS   float64 `env:"CONTACT_RATE_LIMIT_RPS"   envDefault:"0.2"`
	ContactRateLimitBurst int     `env:"CONTACT_RATE_LIMIT_BURST" envDefault:"5"`

	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"    envDefault:"30s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.BaseURL = strings.TrimRight(strings.TrimSpace(h.BaseURL), "/")
	if h.ContactRateLimitRPS < 0 {
		h.ContactRateLimitRPS = 0
	}
	if h.ContactRateLimitBurst < 1 {
		h.ContactRateLimitBurst = 1
	}
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 30 * time.Second
	}
}
