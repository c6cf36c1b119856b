package activity

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx)
	require.False(t, ok, "empty cache must miss")

	id := uuid.New()
	ts := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	cache.Set(ctx, map[uuid.UUID]time.Time{id: ts})

	got, ok := cache.Get(ctx)
	require.True(t, ok)
	assert.True(t, got[id].Equal(ts))
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	cache.Set(ctx, map[uuid.UUID]time.Time{uuid.New(): time.Now()})
	cache.Invalidate(ctx)

	_, ok := cache.Get(ctx)
	assert.False(t, ok, "invalidated cache must miss")
}

func TestCacheExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := NewCache(client, time.Second)
	ctx := context.Background()

	cache.Set(ctx, map[uuid.UUID]time.Time{uuid.New(): time.Now()})
	mr.FastForward(2 * time.Second)

	_, ok := cache.Get(ctx)
	assert.False(t, ok, "expired cache must miss")
}

func TestNilCacheIsNoop(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	_, ok := cache.Get(ctx)
	assert.False(t, ok)
	cache.Set(ctx, map[uuid.UUID]time.Time{})
	cache.Invalidate(ctx)
}
