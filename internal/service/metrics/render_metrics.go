package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	RenderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "econdash",
			Subsystem: "render",
			Name:      "latency_seconds",
			Help:      "Time spent rendering charts and reports",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"artifact"},
	)

	RenderErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "econdash",
			Subsystem: "render",
			Name:      "errors_total",
			Help:      "Failed chart and report renders",
		},
		[]string{"artifact"},
	)

	RenderCacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "econdash",
			Subsystem: "render",
			Name:      "cache_hits_total",
			Help:      "Artifacts served from the render cache",
		},
		[]string{"artifact"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(RenderLatency, RenderErrors, RenderCacheHits)
	})
}
