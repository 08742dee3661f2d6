package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

var restaurantColumns = []string{"id", "name", "delivery_fee", "min_order_price", "created_at"}

type restaurantRepository struct {
	db *sql.DB
}

// NewRestaurantRepository создаёт PostgreSQL-реализацию RestaurantRepository.
func NewRestaurantRepository(store *Store) domain.RestaurantRepository {
	return &restaurantRepository{db: store.DB()}
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant domain.Restaurant) (domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args, err := psql.Insert("restaurants").
		Columns("name", "delivery_fee", "min_order_price").
		Values(restaurant.Name, restaurant.DeliveryFee, restaurant.MinOrderPrice).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("build insert restaurant: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&restaurant.ID, &restaurant.CreatedAt); err != nil {
		return domain.Restaurant{}, fmt.Errorf("insert restaurant: %w", err)
	}
	restaurant.CreatedAt = restaurant.CreatedAt.UTC()
	return restaurant, nil
}

func (r *restaurantRepository) FindByID(ctx context.Context, id int64) (domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args, err := psql.Select(restaurantColumns...).
		From("restaurants").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("build select restaurant: %w", err)
	}

	restaurant, err := scanRestaurant(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Restaurant{}, domain.ErrRestaurantNotFound
		}
		return domain.Restaurant{}, fmt.Errorf("select restaurant %d: %w", id, err)
	}
	return restaurant, nil
}

func (r *restaurantRepository) List(ctx context.Context) ([]domain.Restaurant, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args, err := psql.Select(restaurantColumns...).
		From("restaurants").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list restaurants: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Restaurant, 0)
	for rows.Next() {
		restaurant, err := scanRestaurant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan restaurant: %w", err)
		}
		result = append(result, restaurant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate restaurants: %w", err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(row rowScanner) (domain.Restaurant, error) {
	var restaurant domain.Restaurant
	if err := row.Scan(
		&restaurant.ID,
		&restaurant.Name,
		&restaurant.DeliveryFee,
		&restaurant.MinOrderPrice,
		&restaurant.CreatedAt,
	); err != nil {
		return domain.Restaurant{}, err
	}
	restaurant.CreatedAt = restaurant.CreatedAt.UTC()
	return restaurant, nil
}

var _ domain.RestaurantRepository = (*restaurantRepository)(nil)
