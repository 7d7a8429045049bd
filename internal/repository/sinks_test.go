package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"EconDash/internal/domain/models"
	pkgkafka "EconDash/pkg/kafka"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	topic string
	msgs  []pkgkafka.Message
	err   error
}

func (f *fakeProducer) PublishBatch(_ context.Context, topic string, messages []pkgkafka.Message) error {
	f.topic = topic
	f.msgs = append(f.msgs, messages...)
	return f.err
}

func (f *fakeProducer) Close() error { return nil }

func partialSummary() *models.RunSummary {
	start := time.Date(2024, 3, 16, 6, 0, 0, 0, time.UTC)
	s := models.NewRunSummary(models.RunOptions{Trigger: "schedule"}, start)
	s.Outcomes = []models.Outcome{
		{Indicator: "cpi", Status: models.StatusUpdated, Observations: 24},
		{Indicator: "ireland_10y", Status: models.StatusStaleKept, Error: "bonds fetch ireland_10y: status 503 <html>"},
		{Indicator: "services_pmi", Status: models.StatusUpdated, Fallback: true},
	}
	s.Finish(start.Add(42 * time.Second))
	return s
}

func TestKafkaEventPublisherSummary(t *testing.T) {
	fp := &fakeProducer{}
	p := &KafkaEventPublisher{producer: fp, topic: "econdash.runs"}
	s := partialSummary()

	require.NoError(t, p.PublishSummary(context.Background(), s))
	assert.Equal(t, "econdash.runs", fp.topic)
	require.Len(t, fp.msgs, 4)
	assert.Equal(t, EventSummary, fp.msgs[0].Headers["event"])
	assert.Equal(t, []byte(s.RunID.String()), fp.msgs[0].Key)
	assert.Equal(t, []byte("cpi"), fp.msgs[1].Key)

	b, err := json.Marshal(fp.msgs[2].Value)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"stale-kept"`)
	assert.Contains(t, string(b), s.RunID.String())
}

func TestKafkaEventPublisherMessageTopic(t *testing.T) {
	fp := &fakeProducer{err: errors.New("broker down")}
	p := &KafkaEventPublisher{producer: fp, topic: "econdash.runs"}

	assert.Error(t, p.PublishMessage(context.Background(), "econdash.logs", map[string]int{"n": 1}))
	assert.Equal(t, "econdash.logs", fp.topic)
}

type fakeSender struct {
	sent []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramNotifierFailuresOnly(t *testing.T) {
	fs := &fakeSender{}
	n := newTelegramNotifier(fs, -100, "failures", "Weekly Economic Indicators")

	ok := partialSummary()
	ok.Outcomes = ok.Outcomes[:1]
	ok.Finish(ok.UpdatedAt)
	require.NoError(t, n.Notify(context.Background(), ok))
	assert.Empty(t, fs.sent)

	require.NoError(t, n.Notify(context.Background(), partialSummary()))
	require.Len(t, fs.sent, 1)
	msg := fs.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, int64(-100), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "PARTIAL")
	assert.Contains(t, msg.Text, "&lt;html&gt;")
	assert.Contains(t, msg.Text, "fallback data: services_pmi")
}

func TestFormatSummaryCounts(t *testing.T) {
	text := FormatSummary("EconDash", partialSummary())
	assert.Contains(t, text, "updated 2, fresh 0, stale 1, failed 0")
	assert.Contains(t, text, "42s")
}
