package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID     string    `json:"id"`
	Values []float64 `json:"values"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "entry:cpi", sample{ID: "cpi", Values: []float64{1.5, 2.1}}, time.Minute))
	var got sample
	require.NoError(t, mc.Get(ctx, "entry:cpi", &got))
	assert.Equal(t, "cpi", got.ID)
	assert.Equal(t, []float64{1.5, 2.1}, got.Values)

	require.NoError(t, mc.Set(ctx, "chart:cpi", []byte{0x89, 'P', 'N', 'G'}, time.Minute))
	var png []byte
	require.NoError(t, mc.Get(ctx, "chart:cpi", &png))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png)

	require.NoError(t, mc.Set(ctx, "s", "plain", time.Minute))
	var s string
	require.NoError(t, mc.Get(ctx, "s", &s))
	assert.Equal(t, "plain", s)
}

func TestMemoryCacheStoresCopies(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	v := sample{ID: "a", Values: []float64{1}}
	require.NoError(t, mc.Set(ctx, "k", v, time.Minute))
	v.Values[0] = 99

	var got sample
	require.NoError(t, mc.Get(ctx, "k", &got))
	assert.Equal(t, 1.0, got.Values[0])
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var s string
	assert.ErrorIs(t, mc.Get(ctx, "k", &s), ErrCacheMiss)
	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", "1", time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", "2", time.Minute))
	time.Sleep(time.Millisecond)

	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "c", "3", time.Minute))

	assert.NoError(t, mc.Get(ctx, "a", &s))
	assert.ErrorIs(t, mc.Get(ctx, "b", &s), ErrCacheMiss)
	assert.NoError(t, mc.Get(ctx, "c", &s))
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	for _, k := range []string{"entry:a", "entry:b", "chart:a"} {
		require.NoError(t, mc.Set(ctx, k, "x", time.Minute))
	}
	require.NoError(t, mc.DeleteByPattern(ctx, BuildPattern("entry")))

	ok, _ := mc.Exists(ctx, "entry:a", "entry:b")
	assert.False(t, ok)
	ok, _ = mc.Exists(ctx, "chart:a")
	assert.True(t, ok)
}

func TestMemoryCacheLock(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache()
	defer mc.Close()

	ok, err := mc.TryLock(ctx, "refresh:lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = mc.TryLock(ctx, "refresh:lock", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mc.Unlock(ctx, "refresh:lock"))
	ok, _ = mc.TryLock(ctx, "refresh:lock", time.Minute)
	assert.True(t, ok)
}

func TestLayeredCacheReadsThrough(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	lc := NewLayeredCache(remote, WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()

	require.NoError(t, remote.Set(ctx, "entry:cpi", sample{ID: "cpi"}, time.Hour))

	var got sample
	require.NoError(t, lc.Get(ctx, "entry:cpi", &got))
	assert.Equal(t, "cpi", got.ID)

	// served from L1 after the remote copy is gone
	require.NoError(t, remote.Delete(ctx, "entry:cpi"))
	got = sample{}
	require.NoError(t, lc.Get(ctx, "entry:cpi", &got))
	assert.Equal(t, "cpi", got.ID)

	require.NoError(t, lc.Delete(ctx, "entry:cpi"))
	assert.ErrorIs(t, lc.Get(ctx, "entry:cpi", &got), ErrCacheMiss)
}

func TestGenerateKeyWithParams(t *testing.T) {
	assert.Equal(t, "chart:cpi:800", GenerateKeyWithParams("chart", "cpi", 800))
	assert.Equal(t, "entry:cpi", GenerateKey("entry", "cpi"))
}
