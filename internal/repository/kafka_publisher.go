package repository

import (
	"context"
	"time"

	"EconDash/internal/domain/models"
	domrepo "EconDash/internal/domain/repository"
	pkgkafka "EconDash/pkg/kafka"
)

// Event types, sent as the "event" record header.
const (
	EventOutcome = "indicator.outcome"
	EventSummary = "run.summary"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaEventPublisher ships run results to Kafka. Outcomes are keyed by
// indicator so one partition sees every update of a series in order.
type KafkaEventPublisher struct {
	producer batchProducer
	topic    string
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

// NewKafkaEventPublisher creates Kafka publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

type outcomeEvent struct {
	RunID string `json:"run_id"`
	models.Outcome
	At time.Time `json:"at"`
}

func (p *KafkaEventPublisher) PublishOutcome(ctx context.Context, runID string, o models.Outcome) error {
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{{
		Key:     []byte(o.Indicator),
		Value:   outcomeEvent{RunID: runID, Outcome: o, At: time.Now().UTC()},
		Headers: map[string]string{"event": EventOutcome},
	}})
}

// PublishSummary sends the summary followed by one outcome record per
// indicator in a single write.
func (p *KafkaEventPublisher) PublishSummary(ctx context.Context, s *models.RunSummary) error {
	runID := s.RunID.String()
	msgs := make([]pkgkafka.Message, 0, len(s.Outcomes)+1)
	msgs = append(msgs, pkgkafka.Message{
		Key:     []byte(runID),
		Value:   s,
		Headers: map[string]string{"event": EventSummary},
	})
	for _, o := range s.Outcomes {
		msgs = append(msgs, pkgkafka.Message{
			Key:     []byte(o.Indicator),
			Value:   outcomeEvent{RunID: runID, Outcome: o, At: s.UpdatedAt},
			Headers: map[string]string{"event": EventOutcome},
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

// PublishMessage sends an arbitrary payload, used by the log collector.
func (p *KafkaEventPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	if topic == "" {
		topic = p.topic
	}
	return p.producer.PublishBatch(ctx, topic, []pkgkafka.Message{{Value: payload}})
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
