package usecase

import (
	"testing"
	"time"

	"EconDash/internal/domain/models"
	"EconDash/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(inds ...config.IndicatorConfig) *config.Config {
	cfg := config.Default()
	cfg.Indicators = inds
	cfg.Charts.Groups = []config.ChartGroup{{Name: "pmi", Indicators: []string{"services_pmi"}, Monthly: true}}
	return cfg
}

func TestCatalogDatesUndatedFallbackPoints(t *testing.T) {
	cfg := testConfig(config.IndicatorConfig{
		ID: "services_pmi", Label: "Services PMI", Source: "pmi", Key: "services", Scale: 1, Frequency: "monthly",
		Fallback: []config.PointConfig{{Value: 53.5}, {Value: 56.7}, {Value: 54.8}},
	})
	now := time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC)

	c, err := NewCatalog(cfg, now)
	require.NoError(t, err)

	ind, ok := c.Get("services_pmi")
	require.True(t, ok)
	require.Len(t, ind.Fallback, 3)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ind.Fallback[0].Date)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ind.Fallback[2].Date)
	assert.Equal(t, 54.8, ind.Fallback[2].Value)
	assert.Equal(t, 6*time.Hour, ind.MaxAge)
}

func TestCatalogFallbackFrequencyOverride(t *testing.T) {
	cfg := testConfig(config.IndicatorConfig{
		ID: "ireland_10y", Label: "Ireland 10Y", Source: "bonds", Key: "ireland", Scale: 1, Frequency: "daily",
		FallbackFrequency: "monthly",
		Fallback:          []config.PointConfig{{Value: 2.9}, {Date: "2023-06", Value: 3.1}, {Value: 3.0}},
	})
	c, err := NewCatalog(cfg, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	ind, _ := c.Get("ireland_10y")
	require.Len(t, ind.Fallback, 3)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), ind.Fallback[0].Date)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), ind.Fallback[1].Date)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ind.Fallback[2].Date)
}

func TestCatalogRejectsBadFallbackDate(t *testing.T) {
	cfg := testConfig(config.IndicatorConfig{
		ID: "x", Label: "X", Source: "static", Scale: 1, Frequency: "monthly",
		Fallback: []config.PointConfig{{Date: "someday", Value: 1}},
	})
	_, err := NewCatalog(cfg, time.Now())
	assert.Error(t, err)
}

func TestCatalogSelect(t *testing.T) {
	cfg := config.Default()
	c, err := NewCatalog(cfg, time.Now())
	require.NoError(t, err)
	require.Len(t, c.All(), len(cfg.Indicators))

	got, err := c.Select([]string{"eur_usd", "cpi"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "cpi", got[0].ID, "configuration order wins over request order")
	assert.Equal(t, "eur_usd", got[1].ID)

	_, err = c.Select([]string{"cpi", "gold"})
	assert.ErrorIs(t, err, models.ErrUnknownIndicator)

	g, ok := c.Group("pmi")
	require.True(t, ok)
	assert.True(t, g.Monthly)
	_, ok = c.Group("nope")
	assert.False(t, ok)
}
