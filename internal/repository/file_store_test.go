package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"EconDash/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntry(id string, values ...float64) *models.CacheEntry {
	obs := make([]models.Observation, len(values))
	for i, v := range values {
		obs[i] = models.Observation{Date: time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC), Value: v}
	}
	return &models.CacheEntry{
		Indicator: id, Label: id, Source: "cso",
		Observations: obs,
		FetchedAt:    time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC),
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	e := sampleEntry("cpi", 2.1, 1.9)
	e.Error = &models.EntryError{Kind: models.KindFetch, Message: "timeout", Stale: true}
	require.NoError(t, s.Save(ctx, e))

	_, err = os.Stat(filepath.Join(dir, "entries", "cpi.json"))
	require.NoError(t, err)

	got, err := s.Load(ctx, "cpi")
	require.NoError(t, err)
	assert.Equal(t, e.Observations, got.Observations)
	assert.True(t, got.FetchedAt.Equal(e.FetchedAt))
	require.NotNil(t, got.Error)
	assert.True(t, got.Error.Stale)

	size, err := s.Size(ctx, "cpi")
	require.NoError(t, err)
	assert.Positive(t, size)
}

func TestFileStoreOverwriteKeepsOneEntry(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, sampleEntry("cpi", 1)))
	require.NoError(t, s.Save(ctx, sampleEntry("cpi", 1, 2)))
	require.NoError(t, s.Save(ctx, sampleEntry("eur_gbp", 0.85)))

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "cpi", list[0].Indicator)
	assert.Len(t, list[0].Observations, 2)

	files, _ := filepath.Glob(filepath.Join(s.Dir(), "entries", ".*"))
	assert.Empty(t, files, "no temp files left behind")
}

func TestFileStoreMissingAndDelete(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load(ctx, "cpi")
	assert.ErrorIs(t, err, models.ErrEntryNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "cpi"), models.ErrEntryNotFound)

	require.NoError(t, s.Save(ctx, sampleEntry("cpi", 1)))
	require.NoError(t, s.Delete(ctx, "cpi"))
	_, err = s.Load(ctx, "cpi")
	assert.ErrorIs(t, err, models.ErrEntryNotFound)

	_, err = s.Load(ctx, "../etc/passwd")
	assert.Error(t, err)
}

func TestFileStoreSummary(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	_, err = s.LoadSummary(ctx)
	assert.ErrorIs(t, err, models.ErrEntryNotFound)

	sum := models.NewRunSummary(models.RunOptions{Force: true, Trigger: "cli"}, time.Now())
	sum.Outcomes = append(sum.Outcomes, models.Outcome{Indicator: "cpi", Status: models.StatusUpdated})
	sum.Finish(time.Now())
	require.NoError(t, s.SaveSummary(ctx, sum))

	b, err := os.ReadFile(filepath.Join(dir, "last_update.json"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status": "success"`)

	got, err := s.LoadSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, sum.RunID, got.RunID)
	assert.True(t, got.Force)
}
