package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"EconDash/internal/domain/models"
	"EconDash/internal/service/charts"
	"EconDash/internal/service/ratelimit"
	"EconDash/pkg/cache"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type stubDash struct {
	views   map[string]models.IndicatorView
	history []models.Observation
	cleared []string
}

func (s *stubDash) Dashboard(context.Context) (*models.Dashboard, error) {
	v := 2.3
	return &models.Dashboard{
		Title:      "Weekly Economic Indicators",
		ReportDate: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		KeyMetrics: []models.KeyMetric{{Name: "Inflation (CPI)", Value: "2.3%", Period: "Feb-24"}},
		Commentary: []string{"Inflation eased to 2.3% in Feb-24."},
		Heatmap: models.Heatmap{
			Months: []string{"Feb-24"},
			Rows:   []models.HeatmapRow{{Indicator: "cpi", Label: "CPI", Cells: []models.HeatmapCell{{Value: &v, Text: "2.3", Tone: models.ToneGood}}}},
		},
		Indicators: []models.IndicatorView{s.views["cpi"]},
	}, nil
}

func (s *stubDash) Indicators(context.Context) ([]models.IndicatorView, error) {
	return []models.IndicatorView{s.views["cpi"]}, nil
}

func (s *stubDash) Indicator(_ context.Context, id string) (*models.IndicatorView, error) {
	v, ok := s.views[id]
	if !ok {
		return nil, models.ErrUnknownIndicator
	}
	return &v, nil
}

func (s *stubDash) History(context.Context, string, time.Time, time.Time, int) ([]models.Observation, error) {
	return s.history, nil
}

func (s *stubDash) Status(context.Context) (*models.StatusReport, error) {
	return &models.StatusReport{Entries: []models.SourceStatus{{Indicator: "cpi", Label: "CPI", Source: "cso", Present: true, Observations: 2}}}, nil
}

func (s *stubDash) Clear(_ context.Context, id string) error {
	if _, ok := s.views[id]; !ok {
		return models.ErrUnknownIndicator
	}
	s.cleared = append(s.cleared, id)
	return nil
}

type stubRunner struct {
	mu    sync.Mutex
	calls []models.RunOptions
	err   error
}

func (r *stubRunner) Run(_ context.Context, opts models.RunOptions) (*models.RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, opts)
	if r.err != nil {
		return nil, r.err
	}
	s := models.NewRunSummary(opts, time.Now())
	s.Outcomes = append(s.Outcomes, models.Outcome{Indicator: "cpi", Status: models.StatusUpdated, Observations: 2})
	s.Finish(time.Now())
	return s, nil
}

type stubCharts struct{}

func (stubCharts) Indicator(_ context.Context, id string, _ charts.Options) ([]byte, error) {
	if id == "empty" {
		return nil, charts.ErrNoData
	}
	return pngBytes, nil
}

func (stubCharts) Group(_ context.Context, name string, _ charts.Options) ([]byte, error) {
	if name != "pmi" {
		return nil, charts.ErrUnknownGroup
	}
	return pngBytes, nil
}

type stubReport struct{}

func (stubReport) Generate(context.Context) ([]byte, error) {
	return []byte("%PDF-1.3"), nil
}

type fixture struct {
	e      *echo.Echo
	dash   *stubDash
	runner *stubRunner
	locks  *cache.MemoryCache
}

func newFixture(t *testing.T, limiter *ratelimit.Limiter) *fixture {
	t.Helper()
	cpi := 2.3
	dash := &stubDash{views: map[string]models.IndicatorView{
		"cpi": {
			ID: "cpi", Label: "CPI", Unit: "%", Source: "cso", Available: true,
			Latest: &models.Observation{Date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), Value: cpi},
		},
	}}
	runner := &stubRunner{}
	locks := cache.NewMemoryCache()
	t.Cleanup(func() { _ = locks.Close() })

	h := NewDashboardHandler(dash, runner, stubCharts{}, stubReport{}, nil, locks, limiter, time.Minute, nil)
	e := echo.New()
	h.RegisterRoutes(e)
	return &fixture{e: e, dash: dash, runner: runner, locks: locks}
}

func (f *fixture) do(method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListIndicators(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/api/indicators", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["total"])
}

func TestGetIndicatorErrors(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/indicators/cpi", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/indicators/gdp", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/indicators/Bad-ID", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClearIndicator(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodDelete, "/api/indicators/cpi", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"cpi"}, f.dash.cleared)
}

func TestHistoryValidatesBounds(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/api/indicators/cpi/history?from=2024-03&to=2024-01", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/indicators/cpi/history?from=someday", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/indicators/cpi/history?from=2024M01", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, []interface{}{}, data["rows"])
}

func TestRefreshAPI(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodPost, "/api/refresh", echo.MIMEApplicationJSON, `{"force":true,"only":["cpi"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "success", data["status"])

	require.Len(t, f.runner.calls, 1)
	assert.Equal(t, models.RunOptions{Force: true, Only: []string{"cpi"}, Trigger: "api"}, f.runner.calls[0])
}

func TestRefreshConflictWhileLocked(t *testing.T) {
	f := newFixture(t, nil)
	ok, err := f.locks.TryLock(context.Background(), refreshLockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	rec := f.do(http.MethodPost, "/api/refresh", echo.MIMEApplicationJSON, `{}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, f.runner.calls)
}

func TestRefreshReleasesLock(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 2; i++ {
		rec := f.do(http.MethodPost, "/api/refresh", echo.MIMEApplicationJSON, `{}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Len(t, f.runner.calls, 2)
}

func TestRefreshRateLimited(t *testing.T) {
	f := newFixture(t, ratelimit.New(1, 0.5))

	rec := f.do(http.MethodPost, "/api/refresh", echo.MIMEApplicationJSON, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPost, "/api/refresh", echo.MIMEApplicationJSON, `{}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Len(t, f.runner.calls, 1)
}

func TestRefreshFormRedirects(t *testing.T) {
	f := newFixture(t, nil)
	form := url.Values{"force": {"true"}}
	rec := f.do(http.MethodPost, "/refresh", echo.MIMEApplicationForm, form.Encode())

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?run=success", rec.Header().Get(echo.HeaderLocation))
	require.Len(t, f.runner.calls, 1)
	assert.True(t, f.runner.calls[0].Force)
	assert.Equal(t, "web", f.runner.calls[0].Trigger)
}

func TestRefreshFormReportsFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.runner.err = models.ErrRefreshInProgress

	rec := f.do(http.MethodPost, "/refresh", echo.MIMEApplicationForm, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderLocation), "/?error="))
}

func TestIndexRendersDashboard(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/?run=partial", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Weekly Economic Indicators")
	assert.Contains(t, body, "Week ending 16 Mar 2024")
	assert.Contains(t, body, "Inflation eased to 2.3% in Feb-24.")
	assert.Contains(t, body, `class="tone-good"`)
	assert.Contains(t, body, "Update finished: partial")
	assert.Contains(t, body, `class="flash failed"`)
}

func TestChartEndpoints(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(http.MethodGet, "/charts/cpi?width=640&height=320", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, pngBytes, rec.Body.Bytes())

	rec = f.do(http.MethodGet, "/charts/empty", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/charts/cpi?width=10", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/charts/group/pmi", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/charts/group/rates", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/report.pdf", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "economic-indicators.pdf")
}

func TestAppErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrUnknownIndicator, http.StatusNotFound},
		{models.ErrEntryNotFound, http.StatusNotFound},
		{models.ErrRefreshInProgress, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, appError(tt.err).Status, tt.err.Error())
	}
}
