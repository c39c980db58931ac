// Package repository holds the storage and messaging adapters for resolution events.
package repository

import (
	"context"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
	pkgkafka "StockInsight/pkg/kafka"
)

type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value any) error
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaEventPublisher implements EventPublisher. Events are keyed by ticker.
type KafkaEventPublisher struct {
	producer producer
	topic    string
}

var _ repository.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(p *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, e models.ResolutionEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Ticker), e)
}

func (p *KafkaEventPublisher) PublishBatch(ctx context.Context, events []models.ResolutionEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{Key: []byte(e.Ticker), Value: e}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
