package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	_ Service = (*MemoryCache)(nil)
	_ Service = (*RedisCache)(nil)
	_ Service = (*LayeredCache)(nil)
)

type point struct {
	X int `json:"x"`
}

func TestMemoryCacheStoresStringsAndJSON(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := t.Context()

	require.NoError(t, mc.Set(ctx, "s", "plain", time.Minute))
	require.NoError(t, mc.Set(ctx, "p", point{X: 7}, time.Minute))

	var s string
	require.NoError(t, mc.Get(ctx, "s", &s))
	require.Equal(t, "plain", s)

	var p point
	require.NoError(t, mc.Get(ctx, "p", &p))
	require.Equal(t, 7, p.X)

	require.NoError(t, mc.Delete(ctx, "p", "missing"))
	require.ErrorIs(t, mc.Get(ctx, "p", &p), ErrCacheMiss)
	require.Equal(t, 1, mc.Len())
}

func TestMemoryCacheExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mc := NewMemoryCache()
	defer mc.Close()
	mc.now = func() time.Time { return now }
	ctx := t.Context()

	require.NoError(t, mc.Set(ctx, "short", "v", time.Second))
	require.NoError(t, mc.Set(ctx, "long", "v", time.Hour))

	now = now.Add(2 * time.Second)
	var s string
	require.ErrorIs(t, mc.Get(ctx, "short", &s), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "long", &s))

	now = now.Add(2 * time.Hour)
	mc.purgeExpired()
	require.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := t.Context()

	require.NoError(t, mc.Set(ctx, "a", "1", time.Minute))
	require.NoError(t, mc.Set(ctx, "b", "2", time.Minute))

	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	require.NoError(t, mc.Set(ctx, "c", "3", time.Minute))

	require.Equal(t, 2, mc.Len())
	require.ErrorIs(t, mc.Get(ctx, "b", &s), ErrCacheMiss)
	require.NoError(t, mc.Get(ctx, "a", &s))
	require.NoError(t, mc.Get(ctx, "c", &s))
}

func TestLayeredCacheFillsL1(t *testing.T) {
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2, WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()
	ctx := t.Context()

	require.NoError(t, l2.Set(ctx, "k", point{X: 3}, time.Minute))

	var p point
	require.NoError(t, lc.Get(ctx, "k", &p))
	require.Equal(t, 3, p.X)

	// Served from L1 after the backing entry is gone.
	require.NoError(t, l2.Delete(ctx, "k"))
	p = point{}
	require.NoError(t, lc.Get(ctx, "k", &p))
	require.Equal(t, 3, p.X)

	require.NoError(t, lc.Delete(ctx, "k"))
	require.ErrorIs(t, lc.Get(ctx, "k", &p), ErrCacheMiss)
}

func TestLayeredCacheWritesThrough(t *testing.T) {
	l2 := NewMemoryCache()
	lc := NewLayeredCache(l2)
	defer lc.Close()
	ctx := t.Context()

	require.NoError(t, lc.Set(ctx, "k", point{X: 9}, time.Minute))

	var p point
	require.NoError(t, l2.Get(ctx, "k", &p))
	require.Equal(t, 9, p.X)
	require.Equal(t, time.Second, lc.memoryTTL(time.Minute))
	require.Equal(t, 500*time.Millisecond, lc.memoryTTL(500*time.Millisecond))
}

func TestKey(t *testing.T) {
	require.Equal(t, "candles:EastMoney:600000.SH.STOCK:1d:100", Key("candles", "EastMoney", "600000.SH.STOCK", "1d", 100))
	require.Equal(t, "quote", Key("quote"))
}
