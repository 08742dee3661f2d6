package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для outbox.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
	}
}

// Publish отправляет событие с ключом агрегата, чтобы события заказа попадали в одну партицию.
func (p *OutboxTopicPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return fmt.Errorf("kafka outbox publisher is not initialized")
	}

	msg, err := NewProducerMessage(p.topic, event, time.Now().UTC())
	if err != nil {
		return err
	}
	return p.producer.Send(ctx, msg)
}

// Topic возвращает topic, в который пишет паблишер.
func (p *OutboxTopicPublisher) Topic() string {
	return p.topic
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
