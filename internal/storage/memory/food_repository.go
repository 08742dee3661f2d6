package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// foodRepositoryInMemory хранит блюда и индекс блюд по ресторану.
type foodRepositoryInMemory struct {
	mu           sync.RWMutex
	nextID       int64
	items        map[int64]domain.Food
	byRestaurant map[int64][]int64
}

// NewFoodRepository возвращает in-memory репозиторий блюд.
func NewFoodRepository() domain.FoodRepository {
	return &foodRepositoryInMemory{
		items:        make(map[int64]domain.Food),
		byRestaurant: make(map[int64][]int64),
	}
}

// CreateBatch сохраняет блюда под одной блокировкой, частичной записи не бывает.
// Имя блюда уникально в пределах ресторана, как и в postgres.
func (r *foodRepositoryInMemory) CreateBatch(_ context.Context, foods []domain.Food) ([]domain.Food, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	taken := make(map[foodKey]struct{}, len(foods))
	for _, food := range foods {
		key := foodKey{restaurantID: food.RestaurantID, name: food.Name}
		if _, dup := taken[key]; dup || r.nameTaken(key) {
			return nil, fmt.Errorf("%w: %q", domain.ErrFoodNameDuplicate, food.Name)
		}
		taken[key] = struct{}{}
	}

	now := time.Now().UTC()
	result := make([]domain.Food, 0, len(foods))
	for _, food := range foods {
		r.nextID++
		food.ID = r.nextID
		if food.CreatedAt.IsZero() {
			food.CreatedAt = now
		}
		r.items[food.ID] = food
		r.byRestaurant[food.RestaurantID] = append(r.byRestaurant[food.RestaurantID], food.ID)
		result = append(result, food)
	}
	return result, nil
}

type foodKey struct {
	restaurantID int64
	name         string
}

func (r *foodRepositoryInMemory) nameTaken(key foodKey) bool {
	for _, id := range r.byRestaurant[key.restaurantID] {
		if r.items[id].Name == key.name {
			return true
		}
	}
	return false
}

func (r *foodRepositoryInMemory) FindByID(_ context.Context, id int64) (domain.Food, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	food, ok := r.items[id]
	if !ok {
		return domain.Food{}, domain.ErrFoodNotFound
	}
	return food, nil
}

func (r *foodRepositoryInMemory) ListByRestaurant(_ context.Context, restaurantID int64) ([]domain.Food, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.byRestaurant[restaurantID]
	result := make([]domain.Food, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.items[id])
	}
	return result, nil
}

var _ domain.FoodRepository = (*foodRepositoryInMemory)(nil)
