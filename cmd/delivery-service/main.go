package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/app"
	"github.com/vladislavdragonenkov/delivery/internal/version"
)

const (
	envHTTPAddr                    = "DELIVERY_HTTP_ADDR"
	envGRPCAddr                    = "DELIVERY_GRPC_ADDR"
	envMetricsAddr                 = "DELIVERY_METRICS_ADDR"
	envStorageDriver               = "DELIVERY_STORAGE_DRIVER"
	envPostgresDSN                 = "DELIVERY_POSTGRES_DSN"
	envPostgresAutoMigrate         = "DELIVERY_POSTGRES_AUTO_MIGRATE"
	envOutboxBroker                = "DELIVERY_OUTBOX_BROKER"
	envKafkaBrokers                = "DELIVERY_KAFKA_BROKERS"
	envKafkaTopic                  = "DELIVERY_KAFKA_TOPIC"
	envRabbitMQURL                 = "DELIVERY_RABBITMQ_URL"
	envRabbitMQExchange            = "DELIVERY_RABBITMQ_EXCHANGE"
	envOutboxPollInterval          = "DELIVERY_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize             = "DELIVERY_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts           = "DELIVERY_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay            = "DELIVERY_OUTBOX_RETRY_DELAY"
	envIdempotencyTTL              = "DELIVERY_IDEMPOTENCY_TTL"
	envIdempotencyCleanupInterval  = "DELIVERY_IDEMPOTENCY_CLEANUP_INTERVAL"
	envIdempotencyCleanupBatchSize = "DELIVERY_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	envOTelEndpoint                = "DELIVERY_OTEL_ENDPOINT"
	envCORSAllowedOrigins          = "DELIVERY_CORS_ALLOWED_ORIGINS"
	envLogLevel                    = "DELIVERY_LOG_LEVEL"
)

type envLookup func(key string) (string, bool)

// setupLogger настраивает формат и уровень логирования.
func setupLogger(lookup envLookup) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	raw, ok := lookup(envLogLevel)
	if !ok || strings.TrimSpace(raw) == "" {
		return
	}
	level, err := log.ParseLevel(strings.TrimSpace(raw))
	if err != nil {
		log.WithError(err).Warnf("invalid %s, using info", envLogLevel)
		return
	}
	log.SetLevel(level)
}

// loadDotEnv подхватывает .env, если файл есть. Уже заданные переменные не перезаписываются.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// readConfigFromEnv собирает app.Config из переменных окружения.
// Некорректные значения заменяются значениями по умолчанию и возвращаются как предупреждения.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("invalid %s=%q: %v", key, raw, err))
	}

	readString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	readList := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = splitList(v)
		}
	}
	readBool := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseBool(v)
		if err != nil {
			warn(key, v, err)
			return
		}
		*dst = parsed
	}
	readInt := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0")
		if err != nil {
			warn(key, v, err)
			return
		}
		*dst = parsed
	}
	readDuration := func(key string, dst *time.Duration, valid func(time.Duration) bool, rule string) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseDuration(v, valid, rule)
		if err != nil {
			warn(key, v, err)
			return
		}
		*dst = parsed
	}
	positive := func(d time.Duration) bool { return d > 0 }
	nonNegative := func(d time.Duration) bool { return d >= 0 }

	readString(envHTTPAddr, &cfg.HTTPAddr)
	readString(envGRPCAddr, &cfg.GRPCAddr)
	readString(envMetricsAddr, &cfg.MetricsAddr)

	readString(envStorageDriver, &cfg.StorageDriver)
	cfg.StorageDriver = strings.ToLower(cfg.StorageDriver)
	readString(envPostgresDSN, &cfg.PostgresDSN)
	readBool(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)

	readString(envOutboxBroker, &cfg.OutboxBroker)
	cfg.OutboxBroker = strings.ToLower(cfg.OutboxBroker)
	readList(envKafkaBrokers, &cfg.KafkaBrokers)
	readString(envKafkaTopic, &cfg.KafkaTopic)
	readString(envRabbitMQURL, &cfg.RabbitMQURL)
	readString(envRabbitMQExchange, &cfg.RabbitMQExchange)
	readDuration(envOutboxPollInterval, &cfg.OutboxPollInterval, positive, "must be > 0")
	readInt(envOutboxBatchSize, &cfg.OutboxBatchSize)
	readInt(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts)
	readDuration(envOutboxRetryDelay, &cfg.OutboxRetryDelay, nonNegative, "must be >= 0")

	readDuration(envIdempotencyTTL, &cfg.IdempotencyTTL, positive, "must be > 0")
	readDuration(envIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval, positive, "must be > 0")
	readInt(envIdempotencyCleanupBatchSize, &cfg.IdempotencyCleanupBatchSize)

	readString(envOTelEndpoint, &cfg.OTelEndpoint)
	readList(envCORSAllowedOrigins, &cfg.CORSAllowedOrigins)

	return cfg, warnings
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean value")
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, errors.New(rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if !valid(value) {
		return 0, errors.New(rule)
	}
	return value, nil
}

func main() {
	if err := loadDotEnv(".env"); err != nil {
		log.WithError(err).Warn("failed to load .env file")
	}
	setupLogger(os.LookupEnv)

	cfg, warnings := readConfigFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		log.Warn(warning)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	build := version.Get()
	log.WithFields(log.Fields{
		"http_addr":      cfg.HTTPAddr,
		"grpc_addr":      cfg.GRPCAddr,
		"metrics_addr":   cfg.MetricsAddr,
		"storage_driver": cfg.StorageDriver,
		"outbox_broker":  cfg.OutboxBroker,
		"version":        build.Version,
		"commit":         build.Commit,
		"build_date":     build.Date,
	}).Info("starting delivery service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("delivery service exited with error")
	}
}
