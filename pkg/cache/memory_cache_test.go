// pkg/cache/memory_cache_test.go

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	require.NoError(t, mc.Set(ctx, "db-creds", []byte("payload"), time.Minute))

	value, ok, err := mc.Get(ctx, "db-creds")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), value)
}

func TestMemoryCacheMiss(t *testing.T) {
	_, ok, err := NewMemoryCache().Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheNeverServesPastTTL(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()

	clock := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	mc.now = func() time.Time { return clock }

	require.NoError(t, mc.Set(ctx, "db-creds", []byte("payload"), 5*time.Minute))

	clock = clock.Add(5*time.Minute - time.Second)
	_, ok, err := mc.Get(ctx, "db-creds")
	require.NoError(t, err)
	assert.True(t, ok, "entry within ttl must be served")

	clock = clock.Add(time.Second)
	_, ok, err = mc.Get(ctx, "db-creds")
	require.NoError(t, err)
	assert.False(t, ok, "entry at ttl must not be served")
}

func TestMemoryCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	require.NoError(t, mc.Set(ctx, "db-creds", []byte("payload"), time.Minute))

	require.NoError(t, mc.Invalidate(ctx, "db-creds"))

	_, ok, err := mc.Get(ctx, "db-creds")
	require.NoError(t, err)
	assert.False(t, ok)

	// Invalidating an absent key is fine.
	require.NoError(t, mc.Invalidate(ctx, "db-creds"))
}

func TestMemoryCacheInvalidatePattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	require.NoError(t, mc.Set(ctx, "svc-a-token", []byte("1"), time.Minute))
	require.NoError(t, mc.Set(ctx, "svc-a-key", []byte("2"), time.Minute))
	require.NoError(t, mc.Set(ctx, "svc-b-token", []byte("3"), time.Minute))

	require.NoError(t, mc.InvalidatePattern(ctx, "svc-a-"))

	_, ok, _ := mc.Get(ctx, "svc-a-token")
	assert.False(t, ok)
	_, ok, _ = mc.Get(ctx, "svc-a-key")
	assert.False(t, ok)
	_, ok, _ = mc.Get(ctx, "svc-b-token")
	assert.True(t, ok)
}

func TestMemoryCacheGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	require.NoError(t, mc.Set(ctx, "k", []byte("original"), time.Minute))

	value, ok, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	value[0] = 'X'

	again, ok, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("original"), again)
}
