package repository

import (
	"context"
	"time"

	"EconDash/internal/domain/models"
)

// NopPublisher is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishOutcome(context.Context, string, models.Outcome) error { return nil }
func (NopPublisher) PublishSummary(context.Context, *models.RunSummary) error     { return nil }
func (NopPublisher) PublishMessage(context.Context, string, interface{}) error    { return nil }
func (NopPublisher) Close() error                                                 { return nil }

// NopNotifier is used when Telegram is disabled.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *models.RunSummary) error { return nil }

// NopHistory is used when the history archive is disabled.
type NopHistory struct{}

func (NopHistory) Init(context.Context) error { return nil }

func (NopHistory) Append(context.Context, string, []models.Observation) (int, error) { return 0, nil }

func (NopHistory) Range(context.Context, string, time.Time, time.Time, int) ([]models.Observation, error) {
	return nil, models.ErrHistoryUnavailable
}

func (NopHistory) Close() error { return nil }
