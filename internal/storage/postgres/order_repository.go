package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

// Create сохраняет заказ и его позиции в одной транзакции.
func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	orderQuery, orderArgs, err := psql.Insert("orders").
		Columns("restaurant_id", "created_at").
		Values(order.RestaurantID, order.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return domain.Order{}, fmt.Errorf("build insert order: %w", err)
	}

	err = withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, orderQuery, orderArgs...).Scan(&order.ID); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrRestaurantNotFound
			}
			return fmt.Errorf("insert order: %w", err)
		}

		if len(order.Lines) == 0 {
			return nil
		}

		lines := psql.Insert("order_lines").Columns("order_id", "position", "food_id", "quantity")
		for i, line := range order.Lines {
			lines = lines.Values(order.ID, i, line.FoodID, line.Quantity)
		}
		linesQuery, linesArgs, err := lines.ToSql()
		if err != nil {
			return fmt.Errorf("build insert order lines: %w", err)
		}
		if _, err := tx.ExecContext(ctx, linesQuery, linesArgs...); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrFoodNotFound
			}
			return fmt.Errorf("insert order lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	order.CreatedAt = order.CreatedAt.UTC()
	order.Lines = append([]domain.OrderLine(nil), order.Lines...)
	return order, nil
}

// ListAll читает заказы и позиции в одной read-only транзакции,
// чтобы оба запроса видели один снимок.
func (r *orderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	ordersQuery, _, err := psql.Select("id", "restaurant_id", "created_at").
		From("orders").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list orders: %w", err)
	}
	linesQuery, _, err := psql.Select("order_id", "food_id", "quantity").
		From("order_lines").
		OrderBy("order_id", "position").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list order lines: %w", err)
	}

	orders := make([]domain.Order, 0)
	err = withTx(ctx, r.db, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, func(tx *sql.Tx) error {
		index := make(map[int64]int)

		rows, err := tx.QueryContext(ctx, ordersQuery)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		for rows.Next() {
			var order domain.Order
			if err := rows.Scan(&order.ID, &order.RestaurantID, &order.CreatedAt); err != nil {
				rows.Close()
				return fmt.Errorf("scan order: %w", err)
			}
			order.CreatedAt = order.CreatedAt.UTC()
			order.Lines = make([]domain.OrderLine, 0)
			index[order.ID] = len(orders)
			orders = append(orders, order)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate orders: %w", err)
		}

		lineRows, err := tx.QueryContext(ctx, linesQuery)
		if err != nil {
			return fmt.Errorf("list order lines: %w", err)
		}
		defer lineRows.Close()
		for lineRows.Next() {
			var (
				orderID int64
				line    domain.OrderLine
			)
			if err := lineRows.Scan(&orderID, &line.FoodID, &line.Quantity); err != nil {
				return fmt.Errorf("scan order line: %w", err)
			}
			if i, ok := index[orderID]; ok {
				orders[i].Lines = append(orders[i].Lines, line)
			}
		}
		if err := lineRows.Err(); err != nil {
			return fmt.Errorf("iterate order lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
