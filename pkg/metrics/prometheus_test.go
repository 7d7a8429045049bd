package metrics

import (
	"testing"
	"time"

	"EconDash/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	t.Fatalf("unsupported metric type")
	return 0
}

func TestRecorderCounts(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordFetch("ecb", "eur_usd", true, 0.2)
	r.RecordFetch("ecb", "eur_usd", false, 0.1)
	r.RecordRefresh("eur_usd", models.StatusUpdated)
	r.RecordFallback("manufacturing_pmi")
	r.RecordEntry("eur_usd", 1.08, 90*time.Second)
	r.RecordRun(models.RunPartial, time.Unix(1700000000, 0))

	assert.Equal(t, 1.0, value(t, r.fetches.WithLabelValues("ecb", "eur_usd", "ok")))
	assert.Equal(t, 1.0, value(t, r.fetches.WithLabelValues("ecb", "eur_usd", "error")))
	assert.Equal(t, 1.0, value(t, r.refreshes.WithLabelValues("eur_usd", "updated")))
	assert.Equal(t, 1.0, value(t, r.fallbacks.WithLabelValues("manufacturing_pmi")))
	assert.Equal(t, 1.08, value(t, r.lastValue.WithLabelValues("eur_usd")))
	assert.Equal(t, 90.0, value(t, r.entryAge.WithLabelValues("eur_usd")))
	assert.Equal(t, 1700000000.0, value(t, r.lastRun))
}

func TestNewIsShared(t *testing.T) {
	assert.Same(t, New(), New())
}
