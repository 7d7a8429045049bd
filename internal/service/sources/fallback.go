package sources

import (
	"context"

	"EconDash/internal/domain/models"
	drepo "EconDash/internal/domain/repository"
	applogger "EconDash/pkg/logger"
	"EconDash/pkg/metrics"
)

// fallbackSource serves static points when the primary adapter fails.
type fallbackSource struct {
	primary  drepo.Source
	fallback drepo.Source
	log      *applogger.Logger
	metrics  drepo.Metrics
}

// WithFallback decorates primary so that a failed fetch is replaced by the
// indicator's static points. Every substitution is logged at warn level and
// counted, and the returned observations carry Meta origin=fallback so the
// entry is flagged. When the fallback itself fails the primary error is
// returned.
func WithFallback(primary, fallback drepo.Source, l *applogger.Logger, m drepo.Metrics) drepo.Source {
	if l == nil {
		l = applogger.Nop()
	}
	if m == nil {
		m = metrics.Nop{}
	}
	return &fallbackSource{primary: primary, fallback: fallback, log: l, metrics: m}
}

func (f *fallbackSource) Name() string { return f.primary.Name() }

func (f *fallbackSource) Fetch(ctx context.Context, ind models.Indicator) ([]models.Observation, error) {
	obs, err := f.primary.Fetch(ctx, ind)
	if err == nil {
		return obs, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	static, ferr := f.fallback.Fetch(ctx, ind)
	if ferr != nil || len(static) == 0 {
		return nil, err
	}

	f.log.Warn("source fallback engaged",
		applogger.String("indicator", ind.ID),
		applogger.String("source", f.primary.Name()),
		applogger.String("kind", string(models.KindOf(err))),
		applogger.Error(err),
	)
	f.metrics.RecordFallback(ind.ID)

	for i := range static {
		if static[i].Meta == nil {
			static[i].Meta = map[string]string{}
		}
		static[i].Meta[models.MetaOrigin] = models.OriginFallback
	}
	return static, nil
}
