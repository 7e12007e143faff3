package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ETFScraper/internal/domain/models"
	pkgkafka "ETFScraper/pkg/kafka"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaEventPublisherKeysBySymbol(t *testing.T) {
	w := &memWriter{}
	pub := NewKafkaEventPublisher(pkgkafka.NewProducerWithWriter(w, "none"), "etf.holdings.fetched")

	ev := models.FetchEvent{
		Type:      models.FetchEventType,
		Symbol:    "SPY",
		Status:    models.StatusOK,
		Holdings:  503,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, pub.PublishFetch(t.Context(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "etf.holdings.fetched", msg.Topic)
	assert.Equal(t, []byte("SPY"), msg.Key)

	var got models.FetchEvent
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev, got)

	require.NoError(t, pub.Close())
	assert.True(t, w.closed)
}

func TestKafkaEventPublisherPropagatesError(t *testing.T) {
	w := &memWriter{err: errors.New("no leader")}
	pub := NewKafkaEventPublisher(pkgkafka.NewProducerWithWriter(w, "none"), "t")

	err := pub.PublishFetch(t.Context(), models.FetchEvent{Symbol: "QQQ"})
	assert.ErrorContains(t, err, "no leader")
}

func TestNoopEventPublisher(t *testing.T) {
	var pub NoopEventPublisher
	assert.NoError(t, pub.PublishFetch(t.Context(), models.FetchEvent{}))
	assert.NoError(t, pub.Close())
}
