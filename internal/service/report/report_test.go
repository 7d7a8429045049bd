package report

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"EconDash/internal/domain/models"
	rcache "EconDash/internal/service/cache"
	"EconDash/internal/service/charts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDashboard struct {
	d     *models.Dashboard
	calls int
}

func (s *stubDashboard) Dashboard(context.Context) (*models.Dashboard, error) {
	s.calls++
	return s.d, nil
}

type stubCharts struct {
	png       []byte
	requested []string
}

func (s *stubCharts) Group(_ context.Context, name string, _ charts.Options) ([]byte, error) {
	s.requested = append(s.requested, name)
	if name != "pmi" {
		return nil, charts.ErrNoData
	}
	return s.png, nil
}

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleDashboard() *models.Dashboard {
	v := 56.0
	return &models.Dashboard{
		Title:      "Economic Indicators",
		ReportDate: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		LastRun:    &models.RunSummary{UpdatedAt: time.Date(2024, 3, 16, 6, 2, 0, 0, time.UTC), Status: models.RunSuccess},
		KeyMetrics: []models.KeyMetric{
			{Name: "Consumer Price Index", Value: "2.3%", Period: "Feb 2024"},
			{Name: "EUR/GBP", Value: "£0.856", Change: "+0.12%"},
		},
		Commentary: []string{"The Euro was trading at £0.856 against Sterling."},
		Heatmap: models.Heatmap{
			Months: []string{"Mar-24", "Feb-24"},
			Rows: []models.HeatmapRow{{
				Indicator: "manufacturing_pmi", Label: "Manufacturing PMI",
				Cells: []models.HeatmapCell{{Value: &v, Text: "56.0", Tone: models.ToneGood}, {Text: ""}},
			}},
		},
	}
}

func TestGenerateReport(t *testing.T) {
	cs := &stubCharts{png: tinyPNG(t)}
	g := NewGenerator(&stubDashboard{d: sampleDashboard()}, cs, nil, time.Minute, "Economic Policy Unit", []string{"pmi", "fx"}, nil)

	pdf, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
	assert.Equal(t, []string{"pmi", "fx"}, cs.requested)
}

func TestGenerateReportCached(t *testing.T) {
	dash := &stubDashboard{d: sampleDashboard()}
	cs := &stubCharts{png: tinyPNG(t)}
	g := NewGenerator(dash, cs, rcache.NewTTLCache(4), time.Minute, "", []string{"pmi"}, nil)

	first, err := g.Generate(context.Background())
	require.NoError(t, err)
	second, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, cs.requested, 1, "second report comes from the cache")
}

func TestGenerateEmptyDashboard(t *testing.T) {
	d := &models.Dashboard{Title: "Economic Indicators", ReportDate: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)}
	g := NewGenerator(&stubDashboard{d: d}, &stubCharts{}, nil, time.Minute, "", nil, nil)

	pdf, err := g.Generate(context.Background())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))
}
