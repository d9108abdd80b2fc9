package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeCredentials verifies email and password against the user store.
	AuthModeCredentials AuthMode = "credentials"
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// MinActiveRoleSecretLen is the shortest accepted HS256 signing secret.
const MinActiveRoleSecretLen = 32

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "credentials", "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: credentials, oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
	GroupsClaim  string `env:"GROUPS_CLAIM"  envDefault:"groups"`
}

// Complete reports whether the provider can be built.
func (o OAuthConfig) Complete() bool {
	return o.DiscoveryURL != "" && o.ClientID != "" && o.ClientSecret != ""
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID    string   `env:"USER_ID"    envDefault:"dev-user"`
	Email     string   `env:"EMAIL"      envDefault:"dev@example.com"`
	FirstName string   `env:"FIRST_NAME" envDefault:"Dev"`
	LastName  string   `env:"LAST_NAME"  envDefault:"User"`
	Groups    []string `env:"GROUPS"     envDefault:"lab-admins;lab-engineers" envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"credentials"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroup and EngineerGroup map IdP groups onto portal roles.
	AdminGroup    string `env:"ADMIN_GROUP"    envDefault:"lab-admins"`
	EngineerGroup string `env:"ENGINEER_GROUP" envDefault:"lab-engineers"`

	// ActiveRoleSecret signs the active_role cookie.
	ActiveRoleSecret string `env:"ACTIVE_ROLE_SECRET"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"8h"`

	// BcryptCost of zero uses the library default.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"0"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.Mode == "" {
		a.Mode = AuthModeCredentials
	}
	a.AdminGroup = strings.TrimSpace(a.AdminGroup)
	a.EngineerGroup = strings.TrimSpace(a.EngineerGroup)
	a.ActiveRoleSecret = strings.TrimSpace(a.ActiveRoleSecret)
	if a.SessionTTL <= 0 {
		a.SessionTTL = 8 * time.Hour
	}
	if a.BcryptCost < 0 {
		a.BcryptCost = 0
	}
}

// Validate enforces the settings each mode needs. Development mode may run
// without an active role secret; the server then generates one per process.
func (a *AuthConfig) Validate(isDev bool) error {
	var errs []error
	switch {
	case a.ActiveRoleSecret == "" && !isDev:
		errs = append(errs, errors.New("ACTIVE_ROLE_SECRET is required"))
	case a.ActiveRoleSecret != "" && len(a.ActiveRoleSecret) < MinActiveRoleSecretLen:
		errs = append(errs, fmt.Errorf("ACTIVE_ROLE_SECRET must be at least %d bytes", MinActiveRoleSecretLen))
	}
	if a.Mode == AuthModeOAuth && !a.OAuth.Complete() {
		errs = append(errs, errors.New("AUTH_MODE=oauth requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET"))
	}
	if a.Mode == AuthModeMock && !isDev {
		errs = append(errs, errors.New("AUTH_MODE=mock is only allowed in development"))
	}
	return errors.Join(errs...)
}
