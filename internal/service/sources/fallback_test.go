package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"EconDash/internal/domain/models"
	"EconDash/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Name() string { return "ecb" }

func (m *mockSource) Fetch(ctx context.Context, ind models.Indicator) ([]models.Observation, error) {
	args := m.Called(ctx, ind)
	obs, _ := args.Get(0).([]models.Observation)
	return obs, args.Error(1)
}

type countingMetrics struct {
	metrics.Nop
	fallbacks []string
}

func (c *countingMetrics) RecordFallback(indicator string) {
	c.fallbacks = append(c.fallbacks, indicator)
}

func fallbackIndicator() models.Indicator {
	return models.Indicator{
		ID: "eur_gbp", Source: "ecb", Key: "EXR.D.GBP.EUR.SP00.A",
		Fallback: []models.Observation{
			{Date: date(2024, time.February, 1), Value: 0.85},
			{Date: date(2024, time.January, 1), Value: 0.86},
		},
	}
}

func TestFallbackPassesThroughSuccess(t *testing.T) {
	ind := fallbackIndicator()
	primary := &mockSource{}
	primary.On("Fetch", mock.Anything, ind).Return([]models.Observation{{Date: date(2024, 3, 1), Value: 0.9}}, nil).Once()
	m := &countingMetrics{}

	obs, err := WithFallback(primary, NewStatic(), nil, m).Fetch(context.Background(), ind)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Empty(t, obs[0].Meta[models.MetaOrigin])
	assert.Empty(t, m.fallbacks)
	primary.AssertExpectations(t)
}

func TestFallbackServesStaticPointsOnFailure(t *testing.T) {
	ind := fallbackIndicator()
	primary := &mockSource{}
	primary.On("Fetch", mock.Anything, ind).Return(nil, &models.FetchError{Source: "ecb", Indicator: ind.ID, Err: errors.New("timeout")})
	m := &countingMetrics{}

	obs, err := WithFallback(primary, NewStatic(), nil, m).Fetch(context.Background(), ind)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, date(2024, time.January, 1), obs[0].Date)
	for _, o := range obs {
		assert.Equal(t, models.OriginFallback, o.Meta[models.MetaOrigin])
	}
	assert.Equal(t, []string{"eur_gbp"}, m.fallbacks)

	entry := models.NewEntry(ind, obs, time.Now())
	assert.True(t, entry.Fallback)
}

func TestFallbackWithoutPointsReturnsPrimaryError(t *testing.T) {
	ind := fallbackIndicator()
	ind.Fallback = nil
	cause := &models.ParseError{Source: "ecb", Indicator: ind.ID, Err: errors.New("bad csv")}
	primary := &mockSource{}
	primary.On("Fetch", mock.Anything, ind).Return(nil, cause)

	_, err := WithFallback(primary, NewStatic(), nil, nil).Fetch(context.Background(), ind)
	assert.Same(t, cause, err)
}

type bareSource struct{}

func (bareSource) Name() string { return "manual" }

func (bareSource) Fetch(context.Context, models.Indicator) ([]models.Observation, error) {
	return []models.Observation{{Date: date(2024, time.March, 1), Value: 1.1}}, nil
}

func TestFallbackTagsObservationsWithoutMeta(t *testing.T) {
	ind := fallbackIndicator()
	primary := &mockSource{}
	primary.On("Fetch", mock.Anything, ind).Return(nil, errors.New("down"))

	var obs []models.Observation
	require.NotPanics(t, func() {
		var err error
		obs, err = WithFallback(primary, bareSource{}, nil, nil).Fetch(context.Background(), ind)
		require.NoError(t, err)
	})
	require.Len(t, obs, 1)
	assert.Equal(t, models.OriginFallback, obs[0].Meta[models.MetaOrigin])
}

func TestRegistryFallbackForWrapsOnlyIndicatorsWithFallback(t *testing.T) {
	primary := &mockSource{}
	static := NewStatic()
	reg := NewRegistry(nil, nil, primary, static)

	src, err := reg.For(fallbackIndicator())
	require.NoError(t, err)
	assert.Same(t, primary, src, "For never substitutes static points")

	src, err = reg.FallbackFor(fallbackIndicator())
	require.NoError(t, err)
	_, wrapped := src.(*fallbackSource)
	assert.True(t, wrapped)

	plain := fallbackIndicator()
	plain.Fallback = nil
	src, err = reg.FallbackFor(plain)
	require.NoError(t, err)
	assert.Same(t, primary, src)

	src, err = reg.FallbackFor(models.Indicator{ID: "sentiment", Source: "static", Fallback: fallbackIndicator().Fallback})
	require.NoError(t, err)
	assert.Same(t, static, src)

	_, err = reg.For(models.Indicator{ID: "x", Source: "bloomberg"})
	assert.ErrorIs(t, err, models.ErrUnknownIndicator)
	_, err = reg.FallbackFor(models.Indicator{ID: "x", Source: "bloomberg"})
	assert.ErrorIs(t, err, models.ErrUnknownIndicator)
}
