package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestAppConfig_Defaults(t *testing.T) {
	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Auth.Mode != AuthModeCredentials {
		t.Fatalf("expected credentials mode by default, got %q", cfg.Auth.Mode)
	}
	if cfg.Cache.Backend != CacheBackendMemory {
		t.Fatalf("expected memory cache by default, got %q", cfg.Cache.Backend)
	}
	if cfg.Cache.SweepInterval != 5*time.Minute {
		t.Fatalf("expected 5m sweep interval, got %v", cfg.Cache.SweepInterval)
	}
	if cfg.Cache.RoleTTL != time.Minute || cfg.Cache.ContentTTL != 5*time.Minute {
		t.Fatalf("unexpected cache TTLs: role=%v content=%v", cfg.Cache.RoleTTL, cfg.Cache.ContentTTL)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTP.Addr)
	}
	if !cfg.HTTP.SecureCookies {
		t.Fatal("expected secure cookies outside development")
	}
}

func TestAppConfig_ParseAuthEnv(t *testing.T) {
	t.Setenv("AUTH_MODE", "OAuth")
	t.Setenv("ADMIN_GROUP", "cn=lab-admins,ou=groups,dc=example,dc=org")
	t.Setenv("ENGINEER_GROUP", "cn=lab-engineers,ou=groups,dc=example,dc=org")
	t.Setenv("ACTIVE_ROLE_SECRET", strings.Repeat("s", 32))
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("OAUTH_CLIENT_ID", "app-client")
	t.Setenv("OAUTH_CLIENT_SECRET", "super-secret")
	t.Setenv("OAUTH_REDIRECT_URL", "https://lab.example.com/auth/callback")
	t.Setenv("OAUTH_DISCOVERY_URL", "https://login.example.com/.well-known/openid-configuration")
	t.Setenv("OAUTH_SCOPE", "openid profile email")
	t.Setenv("DEV_AUTH_USER_ID", "dev-user")
	t.Setenv("DEV_AUTH_EMAIL", "dev@example.com")
	t.Setenv("DEV_AUTH_GROUPS", "admins;devs")

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	expected := AuthConfig{
		Mode: AuthModeOAuth,
		OAuth: OAuthConfig{
			ClientID:     "app-client",
			ClientSecret: "super-secret",
			RedirectURL:  "https://lab.example.com/auth/callback",
			Scope:        "openid profile email",
			DiscoveryURL: "https://login.example.com/.well-known/openid-configuration",
			GroupsClaim:  "groups",
		},
		DevAuth: DevAuthConfig{
			UserID:    "dev-user",
			Email:     "dev@example.com",
			FirstName: "Dev",
			LastName:  "User",
			Groups:    []string{"admins", "devs"},
		},
		AdminGroup:       "cn=lab-admins,ou=groups,dc=example,dc=org",
		EngineerGroup:    "cn=lab-engineers,ou=groups,dc=example,dc=org",
		ActiveRoleSecret: strings.Repeat("s", 32),
		SessionTTL:       2 * time.Hour,
	}

	if !reflect.DeepEqual(cfg.Auth, expected) {
		t.Fatalf("unexpected auth configuration:\nexpected: %#v\ngot:      %#v", expected, cfg.Auth)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestAuthMode_UnmarshalText(t *testing.T) {
	var m AuthMode
	if err := m.UnmarshalText([]byte("saml")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if err := m.UnmarshalText([]byte(" Credentials ")); err != nil || m != AuthModeCredentials {
		t.Fatalf("expected credentials mode, got %q (err=%v)", m, err)
	}
}

func TestAuthConfig_Validate(t *testing.T) {
	secret := strings.Repeat("k", MinActiveRoleSecretLen)
	tests := []struct {
		name    string
		cfg     AuthConfig
		isDev   bool
		wantErr string
	}{
		{name: "credentials ok", cfg: AuthConfig{Mode: AuthModeCredentials, ActiveRoleSecret: secret}},
		{name: "missing secret", cfg: AuthConfig{Mode: AuthModeCredentials}, wantErr: "ACTIVE_ROLE_SECRET is required"},
		{name: "missing secret in dev", cfg: AuthConfig{Mode: AuthModeCredentials}, isDev: true},
		{name: "short secret", cfg: AuthConfig{Mode: AuthModeCredentials, ActiveRoleSecret: "short"}, isDev: true, wantErr: "at least 32 bytes"},
		{name: "oauth incomplete", cfg: AuthConfig{Mode: AuthModeOAuth, ActiveRoleSecret: secret}, wantErr: "AUTH_MODE=oauth requires"},
		{name: "mock outside dev", cfg: AuthConfig{Mode: AuthModeMock, ActiveRoleSecret: secret}, wantErr: "only allowed in development"},
		{name: "mock in dev", cfg: AuthConfig{Mode: AuthModeMock}, isDev: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.isDev)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCacheConfig_Sanitize(t *testing.T) {
	cfg := CacheConfig{Backend: " REDIS ", SweepInterval: -1, RoleTTL: 0, ContentTTL: -time.Second}
	cfg.Sanitize()

	if cfg.Backend != CacheBackendRedis {
		t.Fatalf("expected redis backend, got %q", cfg.Backend)
	}
	if cfg.SweepInterval != 5*time.Minute || cfg.RoleTTL != time.Minute || cfg.ContentTTL != 5*time.Minute {
		t.Fatalf("expected defaults, got %+v", cfg)
	}

	cfg = CacheConfig{Backend: "memcached"}
	cfg.Sanitize()
	if cfg.Backend != CacheBackendMemory {
		t.Fatalf("expected unknown backends to fall back to memory, got %q", cfg.Backend)
	}
}

func TestAppConfig_ValidateRedisCache(t *testing.T) {
	cfg := AppConfig{
		IsDev: true,
		Cache: CacheConfig{Backend: CacheBackendRedis},
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "CACHE_BACKEND=redis") {
		t.Fatalf("expected redis cache error, got %v", err)
	}
	cfg.Redis.URI = "localhost:6379"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppConfig_DevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{}
	cfg.Sanitize()
	if !cfg.IsDev {
		t.Fatal("expected NODE_ENV=development to enable dev mode")
	}
	if cfg.HTTP.SecureCookies {
		t.Fatal("dev mode should not force secure cookies")
	}
}

func TestHTTPConfig_Sanitize(t *testing.T) {
	cfg := HTTPConfig{BaseURL: " https://lab.example.com/ ", ContactRateLimitRPS: -2}
	cfg.Sanitize()

	if cfg.BaseURL != "https://lab.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.BaseURL)
	}
	if cfg.ContactRateLimitRPS != 0 || cfg.ContactRateLimitBurst != 1 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.ContactRateLimitRPS, cfg.ContactRateLimitBurst)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("expected default shutdown timeout, got %v", cfg.ShutdownTimeout)
	}
}

func TestMailConfig(t *testing.T) {
	cfg := MailConfig{Host: " smtp.example.com ", From: "portal@example.com", To: []string{" ", "staff@example.com "}}
	cfg.Sanitize()

	if !reflect.DeepEqual(cfg.To, []string{"staff@example.com"}) {
		t.Fatalf("unexpected recipients %#v", cfg.To)
	}
	if !cfg.Enabled() {
		t.Fatal("expected mail to be enabled")
	}
	if (&MailConfig{Host: "smtp.example.com"}).Enabled() {
		t.Fatal("expected mail without sender to be disabled")
	}
}

func TestObservabilityMetricsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " ",
	}

	cfg.Sanitize()

	if cfg.Enabled {
		t.Fatalf("expected enabled to be false when address is empty")
	}

	cfg = ObservabilityMetricsConfig{
		Enabled:       true,
		StatsdAddress: " statsd:1234 ",
	}

	cfg.Sanitize()

	if !cfg.IsEnabled() {
		t.Fatalf("expected metrics to remain enabled")
	}
	if cfg.StatsdAddress != "statsd:1234" {
		t.Fatalf("expected address to be trimmed, got %q", cfg.StatsdAddress)
	}
	if cfg.Tags["service"] != "lab-portal" {
		t.Fatalf("expected default service tag, got %v", cfg.Tags)
	}

	cfg = ObservabilityMetricsConfig{StatsdAddress: "statsd:1234", Tags: map[string]string{"service": "portal-canary", "env": "stage"}}
	cfg.Sanitize()
	if cfg.Tags["service"] != "portal-canary" || cfg.Tags["env"] != "stage" {
		t.Fatalf("expected configured tags to survive, got %v", cfg.Tags)
	}
}

func TestObservabilityNotificationsConfig_Sanitize(t *testing.T) {
	cfg := ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    0,
		RetryLimit: -1,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: " ",
			Channel:    "  ",
			Username:   "",
		},
	}

	cfg.Sanitize()

	if cfg.Timeout <= 0 {
		t.Fatalf("expected timeout to fall back to default, got %v", cfg.Timeout)
	}
	if cfg.RetryLimit < 0 {
		t.Fatalf("expected retry limit to be clamped to >= 0, got %d", cfg.RetryLimit)
	}
	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled without a webhook url")
	}
	if cfg.Slack.Username != "lab-portal" {
		t.Fatalf("expected slack username default, got %q", cfg.Slack.Username)
	}

	// Disabled top-level should disable child sinks.
	cfg = ObservabilityNotificationsConfig{
		Enabled: false,
		Slack: SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: "https://hooks.slack.com/services/test",
		},
	}
	cfg.Sanitize()

	if cfg.Slack.Enabled {
		t.Fatal("expected slack to be disabled when top-level notifications disabled")
	}
}
