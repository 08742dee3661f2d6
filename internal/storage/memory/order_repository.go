package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// orderRepositoryInMemory — append-only хранилище заказов в памяти.
type orderRepositoryInMemory struct {
	mu     sync.RWMutex
	nextID int64
	items  []domain.Order
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{}
}

// Create добавляет заказ в конец списка и присваивает ему ID.
func (r *orderRepositoryInMemory) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	order.ID = r.nextID
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	// Копируем позиции, чтобы вызывающий код не мог изменить сохранённый заказ.
	order.Lines = append([]domain.OrderLine(nil), order.Lines...)
	r.items = append(r.items, order)
	return cloneOrder(order), nil
}

// ListAll возвращает заказы в порядке вставки.
func (r *orderRepositoryInMemory) ListAll(_ context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		result = append(result, cloneOrder(order))
	}
	return result, nil
}

func cloneOrder(src domain.Order) domain.Order {
	dst := src
	dst.Lines = append([]domain.OrderLine(nil), src.Lines...)
	return dst
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
