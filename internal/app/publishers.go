package app

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/delivery/internal/messaging/rabbitmq"
)

const (
	kafkaClientID   = "delivery-service"
	rabbitDLQPrefix = "dlq."
)

// outboxPublishers — основной и DLQ-публикаторы выбранного брокера.
type outboxPublishers struct {
	main  domain.OutboxPublisher
	dlq   domain.OutboxPublisher
	close func()
}

// initOutboxPublishers подключается к брокеру. Для OutboxBrokerNone возвращает nil.
func initOutboxPublishers(cfg Config, logger *log.Entry) (*outboxPublishers, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.OutboxBroker)) {
	case "", OutboxBrokerNone:
		return nil, nil
	case OutboxBrokerKafka:
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, kafkaClientID)
		if err != nil {
			return nil, fmt.Errorf("create kafka producer: %w", err)
		}
		logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")

		publishers := &outboxPublishers{
			main: kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
			close: func() {
				if err := producer.Close(); err != nil {
					logger.WithError(err).Warn("failed to close kafka producer")
					return
				}
				logger.Info("kafka producer closed")
			},
		}
		if cfg.KafkaDLQTopic != "" {
			publishers.dlq = kafka.NewOutboxPublisher(producer, cfg.KafkaDLQTopic)
		}
		return publishers, nil
	case OutboxBrokerRabbitMQ:
		publisher, err := rabbitmq.Dial(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger.WithField("component", "rabbitmq-publisher"))
		if err != nil {
			return nil, fmt.Errorf("connect rabbitmq: %w", err)
		}
		logger.WithField("exchange", cfg.RabbitMQExchange).Info("rabbitmq publisher initialized")

		return &outboxPublishers{
			main: publisher,
			dlq:  publisher.WithRoutingPrefix(rabbitDLQPrefix),
			close: func() {
				if err := publisher.Close(); err != nil {
					logger.WithError(err).Warn("failed to close rabbitmq publisher")
					return
				}
				logger.Info("rabbitmq publisher closed")
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported outbox broker %q", cfg.OutboxBroker)
	}
}
