// Package sources holds one adapter per data provider. Every adapter returns
// observations sorted by date, or a *models.FetchError / *models.ParseError.
package sources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"EconDash/internal/domain/models"
	drepo "EconDash/internal/domain/repository"
	xhttp "EconDash/pkg/http"
	applogger "EconDash/pkg/logger"
)

// Getter is the part of the HTTP client the adapters use.
type Getter interface {
	GetBody(ctx context.Context, rawURL string, query map[string][]string, headers map[string]string) ([]byte, error)
}

var _ Getter = (*xhttp.Client)(nil)

func fetchError(source string, ind models.Indicator, err error) error {
	fe := &models.FetchError{Source: source, Indicator: ind.ID, Err: err}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		fe.StatusCode = se.StatusCode
	}
	return fe
}

func parseError(source string, ind models.Indicator, format string, args ...interface{}) error {
	return &models.ParseError{Source: source, Indicator: ind.ID, Err: fmt.Errorf(format, args...)}
}

func scaled(ind models.Indicator, v float64) float64 {
	if ind.Scale == 0 || ind.Scale == 1 {
		return v
	}
	return v * ind.Scale
}

func today(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Registry maps source names to adapters.
type Registry struct {
	sources  map[string]drepo.Source
	fallback drepo.Source
	log      *applogger.Logger
	metrics  drepo.Metrics
}

// NewRegistry indexes adapters by their Name. The static adapter, when
// present, also serves as fallback for indicators that configure points.
func NewRegistry(l *applogger.Logger, m drepo.Metrics, srcs ...drepo.Source) *Registry {
	r := &Registry{
		sources: make(map[string]drepo.Source, len(srcs)),
		log:     l,
		metrics: m,
	}
	for _, s := range srcs {
		r.sources[s.Name()] = s
	}
	r.fallback = r.sources[models.SourceStatic]
	return r
}

// For returns the adapter serving ind.
func (r *Registry) For(ind models.Indicator) (drepo.Source, error) {
	s, ok := r.sources[ind.Source]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter for source %q", models.ErrUnknownIndicator, ind.Source)
	}
	return s, nil
}

// FallbackFor is For with the primary adapter wrapped by WithFallback when
// ind has static points configured. Callers use it only when no earlier data
// exists for ind.
func (r *Registry) FallbackFor(ind models.Indicator) (drepo.Source, error) {
	s, err := r.For(ind)
	if err != nil {
		return nil, err
	}
	if ind.Source != models.SourceStatic && ind.HasFallback() && r.fallback != nil {
		return WithFallback(s, r.fallback, r.log, r.metrics), nil
	}
	return s, nil
}

// Names lists the registered sources.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.sources))
	for name := range r.sources {
		out = append(out, name)
	}
	return out
}
