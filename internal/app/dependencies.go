package app

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/storage/memory"
	"github.com/vladislavdragonenkov/delivery/internal/storage/postgres"
)

// runtimeDependencies — репозитории выбранного хранилища.
type runtimeDependencies struct {
	restaurants domain.RestaurantRepository
	foods       domain.FoodRepository
	orders      domain.OrderRepository
	outbox      domain.OutboxRepository
	idempotency domain.IdempotencyRepository
	store       *postgres.Store
}

// close освобождает соединения с базой, если они открывались.
func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil || d.store == nil {
		return
	}
	if err := d.store.Close(); err != nil {
		logger.WithError(err).Warn("failed to close postgres store")
	}
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.StorageDriver)) {
	case "", StorageDriverMemory:
		logger.Info("using in-memory storage")
		return &runtimeDependencies{
			restaurants: memory.NewRestaurantRepository(),
			foods:       memory.NewFoodRepository(),
			orders:      memory.NewOrderRepository(),
			outbox:      memory.NewOutboxRepository(),
			idempotency: memory.NewIdempotencyRepository(),
		}, nil
	case StorageDriverPostgres:
		return initPostgresDependencies(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

func initPostgresDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	dsn := strings.TrimSpace(cfg.PostgresDSN)
	if dsn == "" {
		return nil, fmt.Errorf("postgres storage requires DSN")
	}

	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}

	if cfg.PostgresAutoMigrate {
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres migrations applied")
	}

	logger.Info("using postgres storage")
	return &runtimeDependencies{
		restaurants: postgres.NewRestaurantRepository(store),
		foods:       postgres.NewFoodRepository(store),
		orders:      postgres.NewOrderRepository(store),
		outbox:      postgres.NewOutboxRepository(store),
		idempotency: postgres.NewIdempotencyRepository(store),
		store:       store,
	}, nil
}
