package metrics

import (
	"sync"
	"time"

	"EconDash/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetches     *prometheus.CounterVec
	fetchTime   *prometheus.HistogramVec
	refreshes   *prometheus.CounterVec
	fallbacks   *prometheus.CounterVec
	lastValue   *prometheus.GaugeVec
	entryAge    *prometheus.GaugeVec
	runs        *prometheus.CounterVec
	lastRun     prometheus.Gauge
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

var (
	defaultRecorder *Recorder
	defaultOnce     sync.Once
)

// New returns the process-wide Prometheus recorder. Collectors register with
// the default registry once; later calls share them.
func New() *Recorder {
	defaultOnce.Do(func() {
		defaultRecorder = newRecorder(promauto.With(prometheus.DefaultRegisterer))
	})
	return defaultRecorder
}

// NewWithRegistry builds a recorder on its own registry. Used by tests.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	return newRecorder(promauto.With(reg))
}

func newRecorder(f promauto.Factory) *Recorder {
	return &Recorder{
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econdash_source_fetches_total",
				Help: "Adapter fetches by source, indicator and result",
			},
			[]string{"source", "indicator", "result"},
		),
		fetchTime: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "econdash_source_fetch_seconds",
				Help:    "Adapter fetch duration",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"source"},
		),
		refreshes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econdash_refresh_outcomes_total",
				Help: "Cache refresh outcomes by indicator and status",
			},
			[]string{"indicator", "status"},
		),
		fallbacks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econdash_fallback_engaged_total",
				Help: "Times static fallback data replaced a failed source",
			},
			[]string{"indicator"},
		),
		lastValue: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "econdash_indicator_last_value",
				Help: "Latest observed value per indicator",
			},
			[]string{"indicator"},
		),
		entryAge: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "econdash_indicator_age_seconds",
				Help: "Seconds since the indicator was last fetched successfully",
			},
			[]string{"indicator"},
		),
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econdash_update_runs_total",
				Help: "Completed update runs by status",
			},
			[]string{"status"},
		),
		lastRun: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "econdash_last_run_timestamp_seconds",
				Help: "Unix time of the last completed update run",
			},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "econdash_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "econdash_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one adapter call.
func (r *Recorder) RecordFetch(source, indicator string, ok bool, seconds float64) {
	result := "ok"
	if !ok {
		result = "error"
	}
	r.fetches.WithLabelValues(source, indicator, result).Inc()
	r.fetchTime.WithLabelValues(source).Observe(seconds)
}

// RecordRefresh records a GetOrRefresh outcome.
func (r *Recorder) RecordRefresh(indicator string, status models.RefreshStatus) {
	r.refreshes.WithLabelValues(indicator, string(status)).Inc()
}

// RecordFallback records that static data was served in place of a source.
func (r *Recorder) RecordFallback(indicator string) {
	r.fallbacks.WithLabelValues(indicator).Inc()
}

// RecordEntry publishes the latest value and age of an entry.
func (r *Recorder) RecordEntry(indicator string, latest float64, age time.Duration) {
	r.lastValue.WithLabelValues(indicator).Set(latest)
	r.entryAge.WithLabelValues(indicator).Set(age.Seconds())
}

// RecordRun records a completed run.
func (r *Recorder) RecordRun(status models.RunStatus, at time.Time) {
	r.runs.WithLabelValues(string(status)).Inc()
	r.lastRun.Set(float64(at.Unix()))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordFetch(string, string, bool, float64)  {}
func (Nop) RecordRefresh(string, models.RefreshStatus) {}
func (Nop) RecordFallback(string)                      {}
func (Nop) RecordEntry(string, float64, time.Duration) {}
func (Nop) RecordRun(models.RunStatus, time.Time)      {}
func (Nop) RecordError(string)                         {}
func (Nop) RecordLatency(string, float64)              {}
