package domain

import "time"

// Restaurant — ресторан из каталога; для движка заказов доступен только на чтение.
type Restaurant struct {
	ID            int64
	Name          string
	DeliveryFee   int64
	MinOrderPrice int64
	CreatedAt     time.Time
}

// Food — блюдо ресторана с текущей ценой за единицу.
type Food struct {
	ID           int64
	RestaurantID int64
	Name         string
	Price        int64
	CreatedAt    time.Time
}
