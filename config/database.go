package config

import (
	"strings"
	"time"
)

// DBConfig contains PostgreSQL database configuration.
type DBConfig struct {
	Host     string `env:"HOST"                    envDefault:"localhost"`
	Port     int    `env:"PORT"                    envDefault:"5432"`
	User     string `env:"USER"                    envDefault:"labportal"`
	Password string `env:"PASSWORD"                envDefault:"labportal"`
	Name     string `env:"NAME"                    envDefault:"labportal"`
	SSLMode  string `env:"SSL_MODE"                envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
	// RunMigrationsOnStart controls whether the application automatically applies migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`

	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"     envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"     envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"  envDefault:"5m"`
}

// RedisConfig contains Redis configuration.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	ClusterNodes       []string `env:"CLUSTER_NODES"        envDefault:""`
	UseCluster         bool     `env:"USE_CLUSTER"          envDefault:"false"`
	// DB selects the logical database for direct and sentinel clients.
	DB int `env:"DB" envDefault:"0"`
}

// CacheBackend selects the ephemeral cache implementation.
type CacheBackend string

const (
	// CacheBackendMemory keeps entries in process; each replica has its own view.
	CacheBackendMemory CacheBackend = "memory"
	// CacheBackendRedis shares entries across replicas.
	CacheBackendRedis CacheBackend = "redis"
)

// CacheConfig contains ephemeral cache configuration.
type CacheConfig struct {
	Backend CacheBackend `env:"CACHE_BACKEND" envDefault:"memory"`

	// SweepInterval is how often the memory backend evicts expired entries.
	SweepInterval time.Duration `env:"CACHE_SWEEP_INTERVAL" envDefault:"5m"`

	// RoleTTL bounds how long role changes take to reach the role switcher.
	RoleTTL time.Duration `env:"CACHE_ROLE_TTL" envDefault:"1m"`

	// ContentTTL is the TTL for cached public listings.
	ContentTTL time.Duration `env:"CACHE_CONTENT_TTL" envDefault:"5m"`

	// KeyPrefix namespaces Redis keys; cache-flush only removes this prefix.
	KeyPrefix string `env:"CACHE_KEY_PREFIX" envDefault:"labportal:cache:"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	switch CacheBackend(strings.ToLower(strings.TrimSpace(string(c.Backend)))) {
	case CacheBackendRedis:
		c.Backend = CacheBackendRedis
	default:
		c.Backend = CacheBackendMemory
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
	if c.RoleTTL <= 0 {
		c.RoleTTL = time.Minute
	}
	if c.ContentTTL <= 0 {
		c.ContentTTL = 5 * time.Minute
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "labportal:cache:"
	}
}
