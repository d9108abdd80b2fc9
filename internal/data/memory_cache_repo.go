package data

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultSweepInterval is how often MemoryCacheRepo evicts expired entries.
const DefaultSweepInterval = 5 * time.Minute

var errCacheClosed = errors.New("cache closed")

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryCacheRepo is a process-local TTL cache implementing core.CacheRepository.
// Expired entries are never returned, whether or not the sweeper has run yet.
type MemoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   TimeProvider

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	closed    bool
}

// MemoryCacheOptions configures NewMemoryCacheRepo.
type MemoryCacheOptions struct {
	// SweepInterval defaults to DefaultSweepInterval. A negative value disables the sweeper.
	SweepInterval time.Duration
	TimeProvider  TimeProvider
}

// NewMemoryCacheRepo creates a MemoryCacheRepo and starts its sweeper.
// Call Close to stop the sweeper.
func NewMemoryCacheRepo(opts MemoryCacheOptions) *MemoryCacheRepo {
	clock := opts.TimeProvider
	if clock == nil {
		clock = &RealTimeProvider{}
	}
	r := &MemoryCacheRepo{
		entries: make(map[string]memoryEntry),
		clock:   clock,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	interval := opts.SweepInterval
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	if interval < 0 {
		close(r.done)
		return r
	}
	go r.sweepLoop(interval)
	return r
}

func (r *MemoryCacheRepo) sweepLoop(interval time.Duration) {
	defer close(r.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Sweep evicts all expired entries and returns how many were removed.
func (r *MemoryCacheRepo) Sweep() int {
	now := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, e := range r.entries {
		if e.expired(now) {
			delete(r.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (r *MemoryCacheRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *MemoryCacheRepo) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return r.clock.Now().Add(ttl)
}

// lookup returns a live entry, dropping it if expired. Caller holds mu.
func (r *MemoryCacheRepo) lookup(key string) (memoryEntry, bool) {
	e, ok := r.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if e.expired(r.clock.Now()) {
		delete(r.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (r *MemoryCacheRepo) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("key cannot be empty")
	}
	v := make([]byte, len(value))
	copy(v, value)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = memoryEntry{value: v, expiresAt: r.expiry(ttl)}
	return nil
}

func (r *MemoryCacheRepo) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.lookup(key)
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (r *MemoryCacheRepo) Delete(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.lookup(key)
	delete(r.entries, key)
	return ok, nil
}

func (r *MemoryCacheRepo) Exists(_ context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.lookup(key)
	return ok, nil
}

func (r *MemoryCacheRepo) SetTTL(_ context.Context, key string, ttl time.Duration) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.lookup(key)
	if !ok {
		return false, nil
	}
	e.expiresAt = r.expiry(ttl)
	r.entries[key] = e
	return true, nil
}

func (r *MemoryCacheRepo) SetIfNotExists(
	_ context.Context,
	key string,
	value []byte,
	ttl time.Duration,
) (bool, error) {
	if key == "" {
		return false, errors.New("key cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.lookup(key); ok {
		return false, nil
	}
	v := make([]byte, len(value))
	copy(v, value)
	r.entries[key] = memoryEntry{value: v, expiresAt: r.expiry(ttl)}
	return true, nil
}

// Clear removes every entry.
func (r *MemoryCacheRepo) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.entries)
	return nil
}

// Health reports an error once the cache has been closed.
func (r *MemoryCacheRepo) Health(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errCacheClosed
	}
	return nil
}

// Close stops the sweeper and waits for it to exit. Stored entries remain readable.
func (r *MemoryCacheRepo) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		r.mu.Unlock()
		close(r.stop)
	})
	<-r.done
	return nil
}
