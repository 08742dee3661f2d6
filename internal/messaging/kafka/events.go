package kafka

import (
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/messaging"
)

// Topics для Kafka.
const (
	TopicOrderEvents     = "delivery.order.events"
	TopicDeadLetterQueue = "delivery.order.events.dlq"
)

// Заголовки сообщения, по которым потребители фильтруют события без разбора тела.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOutboxID      = "x-outbox-id"
)

func eventHeaders(event domain.OutboxMessage) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte(HeaderEventType), Value: []byte(event.EventType)},
		{Key: []byte(HeaderAggregateType), Value: []byte(event.AggregateType)},
		{Key: []byte(HeaderOutboxID), Value: []byte(event.ID)},
	}
}

// NewProducerMessage упаковывает outbox-сообщение в конверт и Kafka-сообщение
// с ключом агрегата и служебными заголовками.
func NewProducerMessage(topic string, event domain.OutboxMessage, now time.Time) (*sarama.ProducerMessage, error) {
	body, err := messaging.NewEnvelope(event, now).Encode()
	if err != nil {
		return nil, err
	}

	return &sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(messaging.RoutingKey(event)),
		Value:     sarama.ByteEncoder(body),
		Headers:   eventHeaders(event),
		Timestamp: now,
	}, nil
}
