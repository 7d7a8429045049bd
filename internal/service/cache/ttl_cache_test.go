package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC)
	c := NewTTLCache(4)
	c.now = func() time.Time { return now }

	require.NoError(t, c.SetBytes(ctx, "chart:cpi", []byte("png"), time.Minute))
	b, ok, err := c.GetBytes(ctx, "chart:cpi")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("png"), b)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.GetBytes(ctx, "chart:cpi")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestTTLCacheBounded(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache(2)

	require.NoError(t, c.SetBytes(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.SetBytes(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, c.SetBytes(ctx, "c", []byte("3"), time.Hour))

	assert.Equal(t, 2, c.Len())
	_, ok, _ := c.GetBytes(ctx, "a")
	assert.False(t, ok, "entry closest to expiry is evicted")
}

func TestTTLCacheCopiesInput(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache(0)
	in := []byte("abc")
	require.NoError(t, c.SetBytes(ctx, "k", in, 0))
	in[0] = 'x'

	b, ok, _ := c.GetBytes(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(b))
}
