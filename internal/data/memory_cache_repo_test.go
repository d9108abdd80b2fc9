package data

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/lab-portal/internal/core"
)

var _ core.CacheRepository = (*MemoryCacheRepo)(nil)

func newTestMemoryCache(t *testing.T) (*MemoryCacheRepo, *FixedTimeProvider) {
	t.Helper()
	clock := NewFixedTimeProvider(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	repo := NewMemoryCacheRepo(MemoryCacheOptions{SweepInterval: -1, TimeProvider: clock})
	t.Cleanup(func() { _ = repo.Close() })
	return repo, clock
}

func TestMemoryCacheRepo_SetGetDelete(t *testing.T) {
	repo, _ := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	// Returned slices are copies.
	got[0] = 'x'
	again, _ := repo.Get(ctx, "k")
	assert.Equal(t, []byte("v"), again)

	deleted, err := repo.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "k")
	require.NoError(t, err)
	assert.False(t, deleted)

	miss, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestMemoryCacheRepo_EmptyKey(t *testing.T) {
	repo, _ := newTestMemoryCache(t)
	ctx := context.Background()

	require.Error(t, repo.Set(ctx, "", nil, 0))
	_, err := repo.Get(ctx, "")
	require.Error(t, err)
	_, err = repo.Delete(ctx, "")
	require.Error(t, err)
	_, err = repo.Exists(ctx, "")
	require.Error(t, err)
	_, err = repo.SetTTL(ctx, "", time.Second)
	require.Error(t, err)
	_, err = repo.SetIfNotExists(ctx, "", nil, time.Second)
	require.Error(t, err)
}

func TestMemoryCacheRepo_ExpiryWithoutSweep(t *testing.T) {
	repo, clock := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "short", []byte("a"), time.Second))
	require.NoError(t, repo.Set(ctx, "forever", []byte("b"), 0))

	clock.AddTime(999 * time.Millisecond)
	ok, err := repo.Exists(ctx, "short")
	require.NoError(t, err)
	assert.True(t, ok)

	clock.AddTime(time.Millisecond)
	got, err := repo.Get(ctx, "short")
	require.NoError(t, err)
	assert.Nil(t, got, "entry must miss at its expiry instant")

	clock.AddTime(24 * time.Hour)
	got, err = repo.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), got)
}

func TestMemoryCacheRepo_Sweep(t *testing.T) {
	repo, clock := newTestMemoryCache(t)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, repo.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Duration(i+1)*time.Minute))
	}
	require.NoError(t, repo.Set(ctx, "keep", []byte("v"), 0))
	assert.Equal(t, 6, repo.Len())

	clock.AddTime(3 * time.Minute)
	assert.Equal(t, 3, repo.Sweep())
	assert.Equal(t, 3, repo.Len())
	assert.Equal(t, 0, repo.Sweep())
}

func TestMemoryCacheRepo_SetTTL(t *testing.T) {
	repo, clock := newTestMemoryCache(t)
	ctx := context.Background()

	ok, err := repo.SetTTL(ctx, "missing", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Second))
	ok, err = repo.SetTTL(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	clock.AddTime(time.Minute)
	exists, _ := repo.Exists(ctx, "k")
	assert.True(t, exists)
}

func TestMemoryCacheRepo_SetIfNotExists(t *testing.T) {
	repo, clock := newTestMemoryCache(t)
	ctx := context.Background()

	set, err := repo.SetIfNotExists(ctx, "lock", []byte("a"), time.Second)
	require.NoError(t, err)
	assert.True(t, set)

	set, err = repo.SetIfNotExists(ctx, "lock", []byte("b"), time.Second)
	require.NoError(t, err)
	assert.False(t, set)

	clock.AddTime(2 * time.Second)
	set, err = repo.SetIfNotExists(ctx, "lock", []byte("c"), time.Second)
	require.NoError(t, err)
	assert.True(t, set)

	got, _ := repo.Get(ctx, "lock")
	assert.Equal(t, []byte("c"), got)
}

func TestMemoryCacheRepo_Clear(t *testing.T) {
	repo, _ := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, repo.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, repo.Clear(ctx))
	assert.Equal(t, 0, repo.Len())

	got, _ := repo.Get(ctx, "a")
	assert.Nil(t, got)
}

func TestMemoryCacheRepo_BackgroundSweepAndClose(t *testing.T) {
	repo := NewMemoryCacheRepo(MemoryCacheOptions{SweepInterval: 10 * time.Millisecond})
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), time.Millisecond))
	require.Eventually(t, func() bool { return repo.Len() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, repo.Health(ctx))
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())
	require.Error(t, repo.Health(ctx))

	// Still usable after the sweeper stops.
	require.NoError(t, repo.Set(ctx, "after", []byte("v"), 0))
	got, _ := repo.Get(ctx, "after")
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryCacheRepo_Concurrent(t *testing.T) {
	repo, _ := newTestMemoryCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%4)
			for range 100 {
				_ = repo.Set(ctx, key, []byte("v"), time.Minute)
				_, _ = repo.Get(ctx, key)
				_, _ = repo.SetIfNotExists(ctx, key, []byte("w"), time.Minute)
				_, _ = repo.Delete(ctx, key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, repo.Len(), 4)
}
