package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// restaurantRepositoryInMemory хранит рестораны в памяти в порядке создания.
type restaurantRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	items  map[int64]domain.Restaurant
}

// NewRestaurantRepository возвращает in-memory репозиторий ресторанов.
func NewRestaurantRepository() domain.RestaurantRepository {
	return &restaurantRepositoryInMemory{
		items: make(map[int64]domain.Restaurant),
	}
}

// Create присваивает ресторану следующий ID и сохраняет его.
func (r *restaurantRepositoryInMemory) Create(_ context.Context, restaurant domain.Restaurant) (domain.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	restaurant.ID = r.nextID
	if restaurant.CreatedAt.IsZero() {
		restaurant.CreatedAt = time.Now().UTC()
	}
	r.items[restaurant.ID] = restaurant
	r.order = append(r.order, restaurant.ID)
	return restaurant, nil
}

func (r *restaurantRepositoryInMemory) FindByID(_ context.Context, id int64) (domain.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	restaurant, ok := r.items[id]
	if !ok {
		return domain.Restaurant{}, domain.ErrRestaurantNotFound
	}
	return restaurant, nil
}

func (r *restaurantRepositoryInMemory) List(_ context.Context) ([]domain.Restaurant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Restaurant, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.items[id])
	}
	return result, nil
}

var _ domain.RestaurantRepository = (*restaurantRepositoryInMemory)(nil)
