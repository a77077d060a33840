package repository

import (
	"context"

	domrepo "SignalFusion/internal/domain/repository"
)

var _ domrepo.Publisher = (*KafkaPublisher)(nil)

// Producer is the part of pkg/kafka.Producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher sends JSON messages to one topic, keyed for per-asset
// ordering.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	return p.producer.Publish(ctx, p.topic, []byte(key), value)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops every message. Used when Kafka is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (NopPublisher) Close() error { return nil }
