// Package app собирает сервис доставки: хранилище, HTTP API, gRPC health,
// метрики, outbox и фоновые воркеры.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	healthcheck "github.com/vladislavdragonenkov/delivery/internal/health"
	"github.com/vladislavdragonenkov/delivery/internal/metrics"
	"github.com/vladislavdragonenkov/delivery/internal/service/catalog"
	"github.com/vladislavdragonenkov/delivery/internal/service/idempotency"
	"github.com/vladislavdragonenkov/delivery/internal/service/ordering"
	"github.com/vladislavdragonenkov/delivery/internal/service/outbox"
	"github.com/vladislavdragonenkov/delivery/internal/tracing"
	"github.com/vladislavdragonenkov/delivery/internal/transport/httpapi"
	"github.com/vladislavdragonenkov/delivery/internal/version"
)

const serviceName = "delivery-service"

// registry — реестр метрик, из которого одновременно отдаётся /metrics.
type registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

type defaultRegistry struct {
	prometheus.Registerer
	prometheus.Gatherer
}

// Run запускает сервис и блокируется до отмены ctx или ошибки одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	return run(ctx, cfg, defaultRegistry{
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	})
}

func run(ctx context.Context, cfg Config, reg registry) error {
	logger := log.WithField("component", "app")

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	build := version.Get()
	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: build.Version,
		Endpoint:       cfg.OTelEndpoint,
		SampleRatio:    cfg.TraceSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.WithError(err).Warn("failed to flush traces")
		}
	}()

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	publishers, err := initOutboxPublishers(cfg, logger)
	if err != nil {
		return err
	}
	if publishers != nil {
		defer publishers.close()
	}

	orderOptions := []ordering.Option{
		ordering.WithLogger(log.WithField("component", "ordering")),
		ordering.WithMetrics(metrics.NewOrderMetricsWithRegisterer(reg)),
	}
	if publishers != nil {
		orderOptions = append(orderOptions, ordering.WithOutbox(deps.outbox))
	}
	orderService := ordering.NewService(deps.restaurants, deps.foods, deps.orders, orderOptions...)
	catalogService := catalog.NewService(deps.restaurants, deps.foods, log.WithField("component", "catalog"))
	guard := idempotency.NewGuard(deps.idempotency, cfg.IdempotencyTTL, log.WithField("component", "idempotency"))

	router := httpapi.NewRouter(orderService, catalogService,
		httpapi.WithLogger(log.WithField("component", "http")),
		httpapi.WithIdempotencyGuard(guard),
		httpapi.WithAllowedOrigins(cfg.CORSAllowedOrigins),
	)

	workersCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	workersDone := startWorkers(workersCtx, cfg, deps, publishers, reg)

	healthHandler := healthcheck.NewHandler(build.Version)
	if deps.store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", deps.store.Ping))
	}

	grpcServer, grpcHealth := newGRPCServer(reg, logger)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	errCh := make(chan error, 3)
	go func() {
		logger.WithField("addr", cfg.GRPCAddr).Info("grpc server listening")
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errCh <- err
		}
	}()

	metricsServer := newMetricsServer(cfg.MetricsAddr, reg, healthHandler)
	serveHTTP(metricsServer, "metrics", logger, errCh)

	apiServer := newAPIServer(cfg.HTTPAddr, router)
	serveHTTP(apiServer, "api", logger, errCh)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		runErr = ctx.Err()
	case runErr = <-errCh:
		logger.WithError(runErr).Error("server failed, shutting down")
	}

	shutdownHTTP(apiServer, cfg.ShutdownTimeout, logger)
	stopGRPC(grpcServer, grpcHealth, cfg.ShutdownTimeout, logger)
	shutdownHTTP(metricsServer, cfg.ShutdownTimeout, logger)
	stopWorkers()
	<-workersDone

	logger.Info("delivery service stopped")
	return runErr
}

// startWorkers запускает outbox- и cleanup-воркеры; канал закрывается после их остановки.
func startWorkers(ctx context.Context, cfg Config, deps *runtimeDependencies, publishers *outboxPublishers, reg prometheus.Registerer) <-chan struct{} {
	var wg sync.WaitGroup

	if publishers != nil {
		options := []outbox.Option{
			outbox.WithLogger(log.WithField("component", "outbox-worker")),
			outbox.WithRegisterer(reg),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		}
		if publishers.dlq != nil {
			options = append(options, outbox.WithDLQPublisher(publishers.dlq))
		}
		worker := outbox.NewWorker(deps.outbox, publishers.main, options...)

		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	}

	cleanup := idempotency.NewCleanupWorker(deps.idempotency,
		idempotency.WithLogger(log.WithField("component", "idempotency-cleanup-worker")),
		idempotency.WithRegisterer(reg),
		idempotency.WithInterval(cfg.IdempotencyCleanupInterval),
		idempotency.WithBatchSize(cfg.IdempotencyCleanupBatchSize),
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanup.Run(ctx)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}
