package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"EconDash/internal/domain/models"
	domrepo "EconDash/internal/domain/repository"
	applogger "EconDash/pkg/logger"
	"EconDash/pkg/metrics"
)

const sinkTimeout = 15 * time.Second

// Refresher is the cache operation the updater drives.
type Refresher interface {
	GetOrRefresh(ctx context.Context, ind models.Indicator, maxAge time.Duration, force bool) (*models.CacheEntry, models.RefreshStatus)
}

// Updater runs every configured indicator through the cache, one at a time,
// and records the outcome in last_update.json.
type Updater struct {
	catalog   *Catalog
	cache     Refresher
	store     domrepo.EntryStore
	publisher domrepo.EventPublisher
	notifier  domrepo.Notifier
	metrics   domrepo.Metrics
	l         *applogger.Logger

	mu        sync.Mutex
	running   sync.Mutex
	listeners []domrepo.RunListener
	now       func() time.Time
}

func NewUpdater(catalog *Catalog, cache Refresher, store domrepo.EntryStore, publisher domrepo.EventPublisher, notifier domrepo.Notifier, m domrepo.Metrics, l *applogger.Logger) *Updater {
	if m == nil {
		m = metrics.Nop{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Updater{
		catalog:   catalog,
		cache:     cache,
		store:     store,
		publisher: publisher,
		notifier:  notifier,
		metrics:   m,
		l:         l,
		now:       time.Now,
	}
}

// AddListener registers a callback for completed runs.
func (u *Updater) AddListener(l domrepo.RunListener) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.listeners = append(u.listeners, l)
}

// Run refreshes the selected indicators sequentially. One indicator failing
// never stops the others. The returned error is non-nil only when the run
// could not start or its summary could not be written; the summary is
// returned in the latter case too.
func (u *Updater) Run(ctx context.Context, opts models.RunOptions) (*models.RunSummary, error) {
	inds, err := u.catalog.Select(opts.Only)
	if err != nil {
		return nil, err
	}
	if !u.running.TryLock() {
		return nil, models.ErrRefreshInProgress
	}
	defer u.running.Unlock()

	summary := models.NewRunSummary(opts, u.now())
	log := u.l.With("updater")
	log.Info("update run started",
		applogger.String("run_id", summary.RunID.String()),
		applogger.Bool("force", opts.Force),
		applogger.String("trigger", opts.Trigger),
		applogger.Int("indicators", len(inds)),
	)

	for _, ind := range inds {
		start := time.Now()
		entry, status := u.cache.GetOrRefresh(ctx, ind, 0, opts.Force)

		o := models.Outcome{
			Indicator:  ind.ID,
			Status:     status,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if entry != nil {
			o.Observations = len(entry.Observations)
			o.Fallback = entry.Fallback
			if entry.Error != nil && status != models.StatusFresh && status != models.StatusUpdated {
				o.Error = entry.Error.Message
			}
		}
		summary.Outcomes = append(summary.Outcomes, o)

		fields := []applogger.Field{
			applogger.String("indicator", o.Indicator),
			applogger.String("status", string(o.Status)),
			applogger.Int("observations", o.Observations),
			applogger.Int64("duration_ms", o.DurationMs),
		}
		if o.Error != "" {
			log.Warn("indicator refresh", append(fields, applogger.String("error", o.Error))...)
		} else {
			log.Info("indicator refresh", fields...)
		}
	}

	summary.Finish(u.now())
	u.metrics.RecordRun(summary.Status, summary.UpdatedAt)
	u.metrics.RecordLatency("update_run", summary.UpdatedAt.Sub(summary.StartedAt).Seconds())
	log.Info("update run finished",
		applogger.String("run_id", summary.RunID.String()),
		applogger.String("status", string(summary.Status)),
		applogger.Int("updated", summary.Count(models.StatusUpdated)),
		applogger.Int("fresh", summary.Count(models.StatusFresh)),
		applogger.Int("stale", summary.Count(models.StatusStaleKept)),
		applogger.Int("failed", summary.Count(models.StatusFailed)),
	)

	var saveErr error
	if err := u.store.SaveSummary(ctx, summary); err != nil {
		u.metrics.RecordError("store")
		saveErr = fmt.Errorf("write run summary: %w", err)
		log.Error("run summary not written", applogger.Error(err))
	}

	u.announce(summary, log)
	return summary, saveErr
}

// announce pushes the summary to the configured sinks. Sink failures are
// logged only; they run on a fresh context so a cancelled run still reports.
func (u *Updater) announce(s *models.RunSummary, log *applogger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
	defer cancel()

	if u.publisher != nil {
		if err := u.publisher.PublishSummary(ctx, s); err != nil {
			u.metrics.RecordError("publish")
			log.Warn("run summary publish failed", applogger.Error(err))
		}
	}
	if u.notifier != nil {
		if err := u.notifier.Notify(ctx, s); err != nil {
			u.metrics.RecordError("notify")
			log.Warn("run notification failed", applogger.Error(err))
		}
	}

	u.mu.Lock()
	listeners := append([]domrepo.RunListener(nil), u.listeners...)
	u.mu.Unlock()
	for _, l := range listeners {
		l.OnRunComplete(s)
	}
}
