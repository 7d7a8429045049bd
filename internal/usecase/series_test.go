package usecase

import (
	"testing"
	"time"

	"EconDash/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPctChange(t *testing.T) {
	v, ok := PctChange(110, 100)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	v, ok = PctChange(2730, 2841)
	require.True(t, ok)
	assert.Equal(t, -3.91, v)

	_, ok = PctChange(5, 0)
	assert.False(t, ok)

	assert.Equal(t, 0.1, Change(2.9, 2.8))
}

func TestWoWUsesValueAWeekBack(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	obs := dailyObs(start, 100, 101, 102, 103, 104, 105, 106, 110)

	v, ok := WoW(obs)
	require.True(t, ok)
	assert.Equal(t, 10.0, v)

	_, ok = WoW(obs[:3])
	assert.False(t, ok, "no observation a week older than the latest")
}

func TestYoY(t *testing.T) {
	obs := append(monthObs(2023, 2.0, 2.0, 4.0), monthObs(2024, 5.0, 5.0, 5.0)...)
	v, ok := YoY(obs)
	require.True(t, ok)
	assert.Equal(t, 25.0, v)

	_, ok = YoY(monthObs(2024, 1, 2, 3))
	assert.False(t, ok)
}

func TestMonthlyMeans(t *testing.T) {
	obs := append(
		dailyObs(time.Date(2024, 1, 30, 0, 0, 0, 0, time.UTC), 1.08, 1.10),
		dailyObs(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 1.07, 1.08, 1.09)...,
	)
	means := MonthlyMeans(obs)
	require.Len(t, means, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), means[0].Date)
	assert.Equal(t, 1.09, means[0].Value)
	assert.Equal(t, 1.08, means[1].Value)
}

func TestSpreadSharedDatesOnly(t *testing.T) {
	ie := monthObs(2024, 3.0, 2.9, 3.1)
	de := monthObs(2024, 2.4, 2.35)
	sp := Spread(ie, de)
	require.Len(t, sp, 2)
	assert.Equal(t, 0.6, sp[0].Value)
	assert.Equal(t, 0.55, sp[1].Value)
}

func TestSinceAndMinMax(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	obs := dailyObs(start, 80, 70, 90, 85)

	recent := Since(obs, start.AddDate(0, 0, 1))
	require.Len(t, recent, 3)
	lo, hi, ok := MinMax(recent)
	require.True(t, ok)
	assert.Equal(t, 70.0, lo)
	assert.Equal(t, 90.0, hi)

	_, _, ok = MinMax(nil)
	assert.False(t, ok)
}

func TestTones(t *testing.T) {
	tests := []struct {
		name string
		tone func(float64) models.Tone
		in   float64
		want models.Tone
	}{
		{"pmi strong", PMITone, 55, models.ToneGood},
		{"pmi expansion", PMITone, 50, models.ToneMild},
		{"pmi contraction", PMITone, 49.9, models.ToneBad},
		{"pmi deep contraction", PMITone, 44.9, models.ToneSevere},
		{"sentiment high", SentimentTone, 65, models.ToneGood},
		{"sentiment middling", SentimentTone, 60, models.ToneNeutral},
		{"sentiment low", SentimentTone, 54.9, models.ToneBad},
		{"inflation on target", InflationTone, 2.0, models.ToneGood},
		{"inflation elevated", InflationTone, 3.0, models.ToneNeutral},
		{"inflation high", InflationTone, 4.1, models.ToneBad},
		{"inflation low", InflationTone, 0.8, models.ToneBad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tone(tt.in))
		})
	}
}

func TestNumberFormatting(t *testing.T) {
	assert.Equal(t, "999", thousands(999))
	assert.Equal(t, "1,000", thousands(1000))
	assert.Equal(t, "185,400", thousands(185400))
	assert.Equal(t, "-1,234,567", thousands(-1234567))
	assert.Equal(t, "+2.50", signed(2.5, 2))
	assert.Equal(t, "-0.3", signed(-0.3, 1))
}
