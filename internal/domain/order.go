package domain

import "time"

const (
	// MinLineQuantity — минимальное количество одного блюда в заказе.
	MinLineQuantity = 1
	// MaxLineQuantity — максимальное количество одного блюда в заказе.
	MaxLineQuantity = 100
)

// OrderLineRequest — одна запрошенная позиция: блюдо и количество.
type OrderLineRequest struct {
	FoodID   int64
	Quantity int
}

// PlaceOrderRequest — запрос на оформление заказа в ресторане.
type PlaceOrderRequest struct {
	RestaurantID int64
	Foods        []OrderLineRequest
}

// QuantityInRange проверяет инвариант количества позиции.
func (r OrderLineRequest) QuantityInRange() bool {
	return r.Quantity >= MinLineQuantity && r.Quantity <= MaxLineQuantity
}

// OrderLine — сохранённая позиция заказа. Цена не хранится и всегда
// пересчитывается по текущей цене блюда.
type OrderLine struct {
	FoodID   int64
	Quantity int
}

// Order — агрегат заказа; после создания не изменяется.
type Order struct {
	ID           int64
	RestaurantID int64
	Lines        []OrderLine
	CreatedAt    time.Time
}

// LineSummary — рассчитанная позиция в ответе.
type LineSummary struct {
	Name     string
	Quantity int
	Price    int64
}

// OrderSummary — расчёт стоимости заказа, который отдаётся клиенту. Не сохраняется.
type OrderSummary struct {
	OrderID        int64
	RestaurantName string
	DeliveryFee    int64
	Foods          []LineSummary
	TotalPrice     int64
}

// LinePrice возвращает стоимость позиции по цене блюда.
func LinePrice(food Food, quantity int) int64 {
	return food.Price * int64(quantity)
}
