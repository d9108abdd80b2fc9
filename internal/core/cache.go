package core

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/observability/metrics"
	"github.com/target/lab-portal/internal/observability/statsd"
	"github.com/target/lab-portal/internal/ports"
)

// CacheRepository defines the interface for caching operations. The in-process
// memory cache and Redis both implement it, so callers never know which is wired.
// Entries are advisory: a miss must always be recoverable from the source of truth.
type CacheRepository interface {
	// Set stores a value with the given TTL. A TTL of 0 never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns nil, nil on miss or after expiry.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)

	Exists(ctx context.Context, key string) (bool, error)

	// SetTTL updates the TTL for an existing key and reports whether it existed.
	SetTTL(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// SetIfNotExists sets key only when absent and reports whether it was set.
	SetIfNotExists(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context) error

	Health(ctx context.Context) error
}

const roleKeyPrefix = "roles:"

// RoleKey is the cache key holding a user's ordered roles.
func RoleKey(userID string) string { return roleKeyPrefix + userID }

var _ ports.RoleStore = (*CachedRoleStore)(nil)

// CachedRoleStore decorates a RoleStore with the ephemeral cache. Cache failures
// are logged and bypassed; only the underlying store's errors are returned.
type CachedRoleStore struct {
	cache  CacheRepository
	store  ports.RoleStore
	ttl     time.Duration
	logger  *slog.Logger
	metrics statsd.Sink
}

// CachedRoleStoreOptions bundles dependencies for NewCachedRoleStore.
type CachedRoleStoreOptions struct {
	Cache  CacheRepository
	Store  ports.RoleStore
	TTL    time.Duration
	Logger *slog.Logger
	// Metrics receives cache.lookup hit/miss counts. Optional.
	Metrics statsd.Sink
}

// NewCachedRoleStore creates a CachedRoleStore. A zero TTL defaults to one minute.
func NewCachedRoleStore(opts CachedRoleStoreOptions) *CachedRoleStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedRoleStore{
		cache:   opts.Cache,
		store:   opts.Store,
		ttl:     ttl,
		logger:  logger.With("component", "role_cache"),
		metrics: opts.Metrics,
	}
}

func (s *CachedRoleStore) RolesForUser(ctx context.Context, userID string) ([]domainauth.Role, error) {
	key := RoleKey(userID)
	cached, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "role cache read failed", "user_id", userID, "error", err)
	} else if len(cached) > 0 {
		if roles := domainauth.ParseRoles(string(cached)); len(roles) > 0 {
			metrics.EmitCacheLookup(s.metrics, "roles", true)
			return roles, nil
		}
	}
	metrics.EmitCacheLookup(s.metrics, "roles", false)

	roles, err := s.store.RolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(roles) > 0 {
		if setErr := s.cache.Set(ctx, key, []byte(joinRoles(roles)), s.ttl); setErr != nil {
			s.logger.WarnContext(ctx, "role cache write failed", "user_id", userID, "error", setErr)
		}
	}
	return roles, nil
}

// Invalidate drops the cached roles for userID.
func (s *CachedRoleStore) Invalidate(ctx context.Context, userID string) {
	if _, err := s.cache.Delete(ctx, RoleKey(userID)); err != nil {
		s.logger.WarnContext(ctx, "role cache invalidate failed", "user_id", userID, "error", err)
	}
}

func joinRoles(roles []domainauth.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

// GetOrLoadJSON returns the cached JSON value at key, or calls load and caches its
// result. Cache failures degrade to calling load.
func GetOrLoadJSON[T any](
	ctx context.Context,
	cache CacheRepository,
	key string,
	ttl time.Duration,
	load func(context.Context) (T, error),
) (T, error) {
	if cache != nil {
		if b, err := cache.Get(ctx, key); err == nil && len(b) > 0 {
			var v T
			if jsonErr := json.Unmarshal(b, &v); jsonErr == nil {
				return v, nil
			}
		}
	}
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if cache != nil {
		if b, jsonErr := json.Marshal(v); jsonErr == nil {
			_ = cache.Set(ctx, key, b, ttl)
		}
	}
	return v, nil
}
