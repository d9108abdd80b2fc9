// Package config declares the portal's environment-driven configuration.
package config

import (
	"errors"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Authentication and active role cookie configuration
//   - database.go: Database, Redis and cache configuration
//   - http.go: HTTP server configuration
//   - media.go: Media host and mail configuration
//   - observability.go: Metrics and notification fan-out
type AppConfig struct {
	// IsDev controls development mode behavior.
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	Auth AuthConfig

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	HTTP HTTPConfig

	Media MediaConfig
	Mail  MailConfig

	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectDevMode()

	c.Auth.Sanitize()
	c.Cache.Sanitize()
	c.HTTP.Sanitize()
	c.Media.Sanitize()
	c.Mail.Sanitize()
	c.Observability.Sanitize()

	// Production cookies always carry Secure.
	if !c.IsDev {
		c.HTTP.SecureCookies = true
	}
}

// Validate reports settings the server cannot start without.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Auth.Validate(c.IsDev); err != nil {
		errs = append(errs, err)
	}
	if c.Cache.Backend == CacheBackendRedis && c.Redis.URI == "" && !c.Redis.UseSentinel && !c.Redis.UseCluster {
		errs = append(errs, errors.New("CACHE_BACKEND=redis requires REDIS_URI, sentinel or cluster settings"))
	}
	return errors.Join(errs...)
}

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
