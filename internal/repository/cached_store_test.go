package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"EconDash/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedEntryStoreServesFromCache(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	mc := cache.NewMemoryCache()
	defer mc.Close()
	s := NewCachedEntryStore(fs, mc, time.Minute, nil)

	require.NoError(t, s.Save(ctx, sampleEntry("cpi", 1, 2)))

	// the file is gone but the cached copy still answers
	require.NoError(t, os.Remove(filepath.Join(fs.Dir(), "entries", "cpi.json")))
	got, err := s.Load(ctx, "cpi")
	require.NoError(t, err)
	assert.Len(t, got.Observations, 2)

	require.NoError(t, s.Invalidate(ctx))
	_, err = s.Load(ctx, "cpi")
	assert.Error(t, err)
}

func TestCachedEntryStoreDeleteEvicts(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	mc := cache.NewMemoryCache()
	defer mc.Close()
	s := NewCachedEntryStore(fs, mc, time.Minute, nil)

	require.NoError(t, s.Save(ctx, sampleEntry("cpi", 1)))
	_, err = s.Load(ctx, "cpi")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "cpi"))
	ok, _ := mc.Exists(ctx, cache.GenerateKey("entry", "cpi"))
	assert.False(t, ok)
}
