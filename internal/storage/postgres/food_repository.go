package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

var foodColumns = []string{"id", "restaurant_id", "name", "price", "created_at"}

type foodRepository struct {
	db *sql.DB
}

// NewFoodRepository создаёт PostgreSQL-реализацию FoodRepository.
func NewFoodRepository(store *Store) domain.FoodRepository {
	return &foodRepository{db: store.DB()}
}

// CreateBatch вставляет блюда в одной транзакции.
func (r *foodRepository) CreateBatch(ctx context.Context, foods []domain.Food) ([]domain.Food, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	created := make([]domain.Food, 0, len(foods))
	err := withTx(ctx, r.db, nil, func(tx *sql.Tx) error {
		for _, food := range foods {
			query, args, err := psql.Insert("foods").
				Columns("restaurant_id", "name", "price").
				Values(food.RestaurantID, food.Name, food.Price).
				Suffix("RETURNING id, created_at").
				ToSql()
			if err != nil {
				return fmt.Errorf("build insert food: %w", err)
			}

			if err := tx.QueryRowContext(ctx, query, args...).Scan(&food.ID, &food.CreatedAt); err != nil {
				switch {
				case isUniqueViolation(err):
					return fmt.Errorf("%w: %q", domain.ErrFoodNameDuplicate, food.Name)
				case isForeignKeyViolation(err):
					return domain.ErrRestaurantNotFound
				default:
					return fmt.Errorf("insert food: %w", err)
				}
			}
			food.CreatedAt = food.CreatedAt.UTC()
			created = append(created, food)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *foodRepository) FindByID(ctx context.Context, id int64) (domain.Food, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args, err := psql.Select(foodColumns...).
		From("foods").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return domain.Food{}, fmt.Errorf("build select food: %w", err)
	}

	food, err := scanFood(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Food{}, domain.ErrFoodNotFound
		}
		return domain.Food{}, fmt.Errorf("select food %d: %w", id, err)
	}
	return food, nil
}

func (r *foodRepository) ListByRestaurant(ctx context.Context, restaurantID int64) ([]domain.Food, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	query, args, err := psql.Select(foodColumns...).
		From("foods").
		Where("restaurant_id = ?", restaurantID).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list foods: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Food, 0)
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		result = append(result, food)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foods: %w", err)
	}
	return result, nil
}

func scanFood(row rowScanner) (domain.Food, error) {
	var food domain.Food
	if err := row.Scan(&food.ID, &food.RestaurantID, &food.Name, &food.Price, &food.CreatedAt); err != nil {
		return domain.Food{}, err
	}
	food.CreatedAt = food.CreatedAt.UTC()
	return food, nil
}

var _ domain.FoodRepository = (*foodRepository)(nil)
