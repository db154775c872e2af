package repository

import (
	"context"

	"PaperDesk/internal/domain/repository"
	pkgkafka "PaperDesk/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher over the Kafka producer.
// Events key by account id so one account's stream stays ordered within a
// partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a Kafka event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, key string, event interface{}) error {
	return p.producer.Publish(ctx, p.topic, []byte(key), event)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
