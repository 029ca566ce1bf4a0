package repository

import (
	"context"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/domain/repository"
)

// MessageWriter is the part of the Kafka producer the publisher needs.
type MessageWriter interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher implements EventPublisher for Kafka. Events are keyed by
// kind so one kind stays on one partition.
type KafkaPublisher struct {
	producer MessageWriter
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer MessageWriter, topic string) repository.EventPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e *models.AnalysisEvent) error {
	if e == nil {
		return nil
	}
	return p.producer.Publish(ctx, p.topic, []byte(e.Kind), e)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.AnalysisEvent) error { return nil }
func (NopPublisher) Close() error                                         { return nil }
