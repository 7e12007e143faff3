package repository

import (
	"context"

	"ETFScraper/internal/domain/models"
	"ETFScraper/internal/domain/repository"
)

// MessagePublisher is the subset of pkg/kafka.Producer used here.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher for Kafka. Events are keyed
// by symbol so one fund's events stay ordered within a partition.
type KafkaEventPublisher struct {
	producer MessagePublisher
	topic    string
}

// NewKafkaEventPublisher creates a Kafka event publisher.
func NewKafkaEventPublisher(producer MessagePublisher, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishFetch(ctx context.Context, ev models.FetchEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopEventPublisher drops every event. Used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishFetch(context.Context, models.FetchEvent) error { return nil }

func (NoopEventPublisher) Close() error { return nil }
