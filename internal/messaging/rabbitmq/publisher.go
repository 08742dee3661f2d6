// Package rabbitmq публикует outbox-сообщения в topic exchange RabbitMQ.
package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/messaging"
)

// DefaultExchange — exchange для событий заказов.
const DefaultExchange = "delivery.events"

// channel — подмножество *amqp.Channel, которое нужно паблишеру.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher реализует domain.OutboxPublisher поверх AMQP.
type Publisher struct {
	conn          *amqp.Connection
	ch            channel
	exchange      string
	routingPrefix string
	logger        *log.Entry
}

// Dial открывает соединение, канал и объявляет durable topic exchange.
func Dial(url, exchange string, logger *log.Entry) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	publisher, err := newPublisher(ch, exchange, logger)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	publisher.conn = conn
	return publisher, nil
}

func newPublisher(ch channel, exchange string, logger *log.Entry) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = log.WithField("component", "rabbitmq-publisher")
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// WithRoutingPrefix возвращает паблишер на том же канале, который добавляет
// префикс к routing key. Используется для DLQ ("dlq.order.placed").
func (p *Publisher) WithRoutingPrefix(prefix string) *Publisher {
	clone := *p
	clone.conn = nil
	clone.routingPrefix = prefix
	return &clone
}

// Publish отправляет событие с routing key, равным типу события.
func (p *Publisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	publishing, err := buildPublishing(event, time.Now().UTC())
	if err != nil {
		return err
	}

	routingKey := p.routingPrefix + event.EventType
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, publishing); err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"exchange":    p.exchange,
			"routing_key": routingKey,
			"outbox_id":   event.ID,
		}).Error("failed to publish message to rabbitmq")
		return fmt.Errorf("publish to rabbitmq: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"exchange":    p.exchange,
		"routing_key": routingKey,
		"size":        len(publishing.Body),
	}).Debug("message published to rabbitmq")
	return nil
}

// Close закрывает канал и соединение.
func (p *Publisher) Close() error {
	var firstErr error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil {
			firstErr = fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return firstErr
}

func buildPublishing(event domain.OutboxMessage, now time.Time) (amqp.Publishing, error) {
	body, err := messaging.NewEnvelope(event, now).Encode()
	if err != nil {
		return amqp.Publishing{}, err
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.EventType,
		Timestamp:    now,
		Headers: amqp.Table{
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID,
		},
		Body: body,
	}, nil
}

var _ domain.OutboxPublisher = (*Publisher)(nil)
