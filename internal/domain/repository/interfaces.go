package repository

import (
	"context"
	"time"

	"EconDash/internal/domain/models"
)

// Source fetches observations for an indicator from one provider.
// Implementations return *models.FetchError or *models.ParseError on failure.
type Source interface {
	Name() string
	Fetch(ctx context.Context, ind models.Indicator) ([]models.Observation, error)
}

// EntryStore persists one CacheEntry per indicator plus the last run summary.
type EntryStore interface {
	Load(ctx context.Context, id string) (*models.CacheEntry, error)
	Save(ctx context.Context, entry *models.CacheEntry) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.CacheEntry, error)
	Size(ctx context.Context, id string) (int64, error)
	SaveSummary(ctx context.Context, s *models.RunSummary) error
	LoadSummary(ctx context.Context) (*models.RunSummary, error)
}

// HistoryRepository archives every observation ever fetched, one row per
// indicator and date.
type HistoryRepository interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, indicator string, obs []models.Observation) (int, error)
	Range(ctx context.Context, indicator string, from, to time.Time, limit int) ([]models.Observation, error)
	Close() error
}

// EventPublisher ships run results to an event bus.
type EventPublisher interface {
	PublishOutcome(ctx context.Context, runID string, o models.Outcome) error
	PublishSummary(ctx context.Context, s *models.RunSummary) error
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
	Close() error
}

// Notifier tells humans about a finished run.
type Notifier interface {
	Notify(ctx context.Context, s *models.RunSummary) error
}

// RunListener is called after every completed run.
type RunListener interface {
	OnRunComplete(s *models.RunSummary)
}

// Metrics records operational counters.
type Metrics interface {
	RecordFetch(source, indicator string, ok bool, seconds float64)
	RecordRefresh(indicator string, status models.RefreshStatus)
	RecordFallback(indicator string)
	RecordEntry(indicator string, latest float64, age time.Duration)
	RecordRun(status models.RunStatus, at time.Time)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
