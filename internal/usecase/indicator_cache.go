package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"EconDash/internal/domain/models"
	domrepo "EconDash/internal/domain/repository"
	applogger "EconDash/pkg/logger"
	"EconDash/pkg/metrics"
)

// accumulateLimit bounds series that grow one scrape at a time.
const accumulateLimit = 1000

// SourceResolver picks the adapter for an indicator.
type SourceResolver interface {
	For(ind models.Indicator) (domrepo.Source, error)
}

// FallbackResolver is implemented by resolvers that can substitute an
// indicator's static points for a failed fetch.
type FallbackResolver interface {
	FallbackFor(ind models.Indicator) (domrepo.Source, error)
}

// IndicatorCache is the read-through cache in front of the source adapters.
type IndicatorCache struct {
	store   domrepo.EntryStore
	sources SourceResolver
	history domrepo.HistoryRepository
	metrics domrepo.Metrics
	l       *applogger.Logger
	now     func() time.Time
}

func NewIndicatorCache(store domrepo.EntryStore, sources SourceResolver, history domrepo.HistoryRepository, m domrepo.Metrics, l *applogger.Logger) *IndicatorCache {
	if m == nil {
		m = metrics.Nop{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &IndicatorCache{store: store, sources: sources, history: history, metrics: m, l: l, now: time.Now}
}

// GetOrRefresh returns the entry for ind, fetching it when it is missing,
// older than maxAge, or force is set. maxAge <= 0 uses the indicator's own
// freshness window.
//
// Adapter failures never escape. With a prior entry the old data is returned
// with an error annotation (StatusStaleKept); without one an empty entry
// carrying the error is returned and nothing is persisted (StatusFailed).
// Static fallback points are only served when there is no prior entry, and
// they are never merged into an accumulated series.
func (c *IndicatorCache) GetOrRefresh(ctx context.Context, ind models.Indicator, maxAge time.Duration, force bool) (*models.CacheEntry, models.RefreshStatus) {
	if maxAge <= 0 {
		maxAge = ind.MaxAge
	}
	now := c.now()

	prior, err := c.store.Load(ctx, ind.ID)
	if err != nil {
		if !errors.Is(err, models.ErrEntryNotFound) {
			c.l.Warn("entry unreadable, refetching",
				applogger.String("indicator", ind.ID),
				applogger.Error(err),
			)
		}
		prior = nil
	}

	if !force && !prior.IsEmpty() && prior.Age(now) <= maxAge {
		c.metrics.RecordRefresh(ind.ID, models.StatusFresh)
		return prior, models.StatusFresh
	}

	obs, err := c.fetch(ctx, ind, prior.IsEmpty())
	if err != nil {
		return c.failed(ctx, ind, prior, err, now)
	}

	if ind.Accumulate && !prior.IsEmpty() {
		obs = models.MergeObservations(models.WithoutFallback(prior.Observations), obs, accumulateLimit)
	}
	entry := models.NewEntry(ind, obs, now)
	if err := c.store.Save(ctx, entry); err != nil {
		c.metrics.RecordError("store")
		c.l.Error("entry save failed",
			applogger.String("indicator", ind.ID),
			applogger.Error(err),
		)
	}

	// fallback points are placeholders, they do not belong in the archive
	if !entry.Fallback && c.history != nil {
		if _, err := c.history.Append(ctx, ind.ID, obs); err != nil {
			c.metrics.RecordError("history")
			c.l.Warn("history append failed",
				applogger.String("indicator", ind.ID),
				applogger.Error(err),
			)
		}
	}

	if latest, ok := entry.Latest(); ok {
		c.metrics.RecordEntry(ind.ID, latest.Value, 0)
	}
	c.metrics.RecordRefresh(ind.ID, models.StatusUpdated)
	c.l.Debug("indicator updated",
		applogger.String("indicator", ind.ID),
		applogger.Int("observations", len(entry.Observations)),
		applogger.Bool("fallback", entry.Fallback),
	)
	return entry, models.StatusUpdated
}

func (c *IndicatorCache) fetch(ctx context.Context, ind models.Indicator, allowFallback bool) (obs []models.Observation, err error) {
	resolve := c.sources.For
	if fr, ok := c.sources.(FallbackResolver); ok && allowFallback {
		resolve = fr.FallbackFor
	}
	src, err := resolve(ind)
	if err != nil {
		return nil, &models.FetchError{Source: ind.Source, Indicator: ind.ID, Err: err}
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			obs, err = nil, &models.ParseError{Source: src.Name(), Indicator: ind.ID, Err: fmt.Errorf("adapter panic: %v", r)}
		}
		c.metrics.RecordFetch(src.Name(), ind.ID, err == nil, time.Since(start).Seconds())
	}()

	obs, err = src.Fetch(ctx, ind)
	if err == nil && len(obs) == 0 {
		err = &models.ParseError{Source: src.Name(), Indicator: ind.ID, Err: models.ErrNoObservations}
	}
	return obs, err
}

func (c *IndicatorCache) failed(ctx context.Context, ind models.Indicator, prior *models.CacheEntry, cause error, now time.Time) (*models.CacheEntry, models.RefreshStatus) {
	annotation := &models.EntryError{
		Kind:    models.KindOf(cause),
		Message: cause.Error(),
		At:      now.UTC(),
	}
	c.metrics.RecordError(string(annotation.Kind))

	if prior.IsEmpty() {
		c.l.Error("indicator unavailable",
			applogger.String("indicator", ind.ID),
			applogger.String("kind", string(annotation.Kind)),
			applogger.Error(cause),
		)
		c.metrics.RecordRefresh(ind.ID, models.StatusFailed)
		return &models.CacheEntry{
			Indicator:    ind.ID,
			Label:        ind.Label,
			Unit:         ind.Unit,
			Source:       ind.Source,
			Frequency:    ind.Frequency,
			Observations: []models.Observation{},
			Error:        annotation,
		}, models.StatusFailed
	}

	annotation.Stale = true
	entry := prior.Clone()
	entry.Error = annotation
	if err := c.store.Save(ctx, entry); err != nil {
		c.metrics.RecordError("store")
		c.l.Error("entry annotation save failed",
			applogger.String("indicator", ind.ID),
			applogger.Error(err),
		)
	}

	warning := &models.StaleDataWarning{Indicator: ind.ID, Age: prior.Age(now), Cause: cause}
	c.l.Warn(warning.Error(),
		applogger.String("indicator", ind.ID),
		applogger.String("kind", string(annotation.Kind)),
		applogger.Duration("age", warning.Age),
	)
	if latest, ok := entry.Latest(); ok {
		c.metrics.RecordEntry(ind.ID, latest.Value, warning.Age)
	}
	c.metrics.RecordRefresh(ind.ID, models.StatusStaleKept)
	return entry, models.StatusStaleKept
}
