package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/delivery/internal/messaging/rabbitmq"
)

const (
	// StorageDriverMemory хранит данные в памяти процесса.
	StorageDriverMemory = "memory"
	// StorageDriverPostgres хранит данные в PostgreSQL.
	StorageDriverPostgres = "postgres"

	// OutboxBrokerNone отключает публикацию событий.
	OutboxBrokerNone = "none"
	// OutboxBrokerKafka публикует события в Kafka.
	OutboxBrokerKafka = "kafka"
	// OutboxBrokerRabbitMQ публикует события в RabbitMQ.
	OutboxBrokerRabbitMQ = "rabbitmq"
)

// Config описывает настройки запуска сервиса.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	OutboxBroker       string
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaDLQTopic      string
	RabbitMQURL        string
	RabbitMQExchange   string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int

	OTelEndpoint       string
	TraceSampleRatio   float64
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		GRPCAddr:    ":50051",
		MetricsAddr: ":9090",

		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,

		OutboxBroker:       OutboxBrokerNone,
		KafkaTopic:         kafka.TopicOrderEvents,
		KafkaDLQTopic:      kafka.TopicDeadLetterQueue,
		RabbitMQExchange:   rabbitmq.DefaultExchange,
		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxRetryDelay:   100 * time.Millisecond,

		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  time.Hour,
		IdempotencyCleanupBatchSize: 500,

		TraceSampleRatio:   1,
		CORSAllowedOrigins: []string{"*"},
		ShutdownTimeout:    5 * time.Second,
	}
}

// Validate проверяет согласованность настроек хранилища и брокера.
func (c Config) Validate() error {
	switch strings.ToLower(c.StorageDriver) {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("postgres storage requires DSN")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}

	switch strings.ToLower(c.OutboxBroker) {
	case OutboxBrokerNone, "":
	case OutboxBrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka outbox broker requires at least one broker address")
		}
		if c.KafkaTopic == "" {
			return fmt.Errorf("kafka outbox broker requires topic")
		}
	case OutboxBrokerRabbitMQ:
		if strings.TrimSpace(c.RabbitMQURL) == "" {
			return fmt.Errorf("rabbitmq outbox broker requires URL")
		}
	default:
		return fmt.Errorf("unsupported outbox broker %q", c.OutboxBroker)
	}
	return nil
}
