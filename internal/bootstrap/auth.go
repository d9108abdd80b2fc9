package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/lab-portal/config"
	"github.com/target/lab-portal/internal/adapters/authroles"
	"github.com/target/lab-portal/internal/adapters/devauth"
	"github.com/target/lab-portal/internal/adapters/oidc"
	"github.com/target/lab-portal/internal/adapters/passwords"
	redisadapter "github.com/target/lab-portal/internal/adapters/redis"
	"github.com/target/lab-portal/internal/core"
	"github.com/target/lab-portal/internal/observability/statsd"
	"github.com/target/lab-portal/internal/ports"
	"github.com/target/lab-portal/internal/service"
)

// sessionKeyPrefix namespaces session keys in Redis.
const sessionKeyPrefix = "session:"

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Users       core.UserRepository
	// Roles is the cached Role Store; it also receives invalidations.
	Roles   *core.CachedRoleStore
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// BuildAuthService creates the auth service for the configured mode.
// Credentials mode runs without an identity provider.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, errors.New("auth requires a redis client for sessions")
	}
	if cfg.Users == nil || cfg.Roles == nil {
		return nil, errors.New("auth requires user and role stores")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		provider ports.AuthProvider
		err      error
	)
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		provider, err = devauth.NewProvider(devauth.Config{
			UserID:    cfg.Auth.DevAuth.UserID,
			Email:     cfg.Auth.DevAuth.Email,
			FirstName: cfg.Auth.DevAuth.FirstName,
			LastName:  cfg.Auth.DevAuth.LastName,
			Groups:    cfg.Auth.DevAuth.Groups,
		})
		if err != nil {
			return nil, fmt.Errorf("dev auth provider: %w", err)
		}
		logger.Warn("mock authentication enabled; every login signs in the dev user",
			"email", cfg.Auth.DevAuth.Email)
	case config.AuthModeOAuth:
		provider, err = buildOIDCProvider(cfg.Auth.OAuth)
		if err != nil {
			return nil, err
		}
	case config.AuthModeCredentials:
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}

	logger.Info("auth configured", "mode", cfg.Auth.Mode, "session_ttl", cfg.Auth.SessionTTL)

	return service.NewAuthService(service.AuthServiceOptions{
		Provider: provider,
		Sessions: redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, sessionKeyPrefix),
		Mapper: authroles.StaticRoleMapper{
			AdminGroup:    cfg.Auth.AdminGroup,
			EngineerGroup: cfg.Auth.EngineerGroup,
		},
		Users:      cfg.Users,
		Roles:      cfg.Roles,
		RoleCache:  cfg.Roles,
		Passwords:  passwords.Bcrypt{Cost: cfg.Auth.BcryptCost},
		SessionTTL: cfg.Auth.SessionTTL,
		Logger:     logger.With("component", "auth"),
		Metrics:    cfg.Metrics,
	}), nil
}

func buildOIDCProvider(oauth config.OAuthConfig) (*oidc.Provider, error) {
	if !oauth.Complete() {
		return nil, errors.New("AUTH_MODE=oauth requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET")
	}
	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		LogoutURL:    oauth.LogoutURL,
		GroupsClaim:  oauth.GroupsClaim,
	})
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}
	return prov, nil
}
