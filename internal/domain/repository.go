package domain

import "context"

// RestaurantRepository описывает хранилище ресторанов.
type RestaurantRepository interface {
	// Create сохраняет ресторан и возвращает его с присвоенным ID.
	Create(ctx context.Context, restaurant Restaurant) (Restaurant, error)
	// FindByID возвращает ресторан или ErrRestaurantNotFound.
	FindByID(ctx context.Context, id int64) (Restaurant, error)
	// List возвращает все рестораны в порядке создания.
	List(ctx context.Context) ([]Restaurant, error)
}

// FoodRepository описывает хранилище блюд.
type FoodRepository interface {
	// CreateBatch атомарно сохраняет блюда одного ресторана.
	CreateBatch(ctx context.Context, foods []Food) ([]Food, error)
	// FindByID возвращает блюдо или ErrFoodNotFound.
	FindByID(ctx context.Context, id int64) (Food, error)
	// ListByRestaurant возвращает блюда ресторана в порядке создания.
	ListByRestaurant(ctx context.Context, restaurantID int64) ([]Food, error)
}

// OrderRepository описывает хранилище заказов: только добавление и чтение.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями и возвращает его с присвоенным ID.
	Create(ctx context.Context, order Order) (Order, error)
	// ListAll возвращает все заказы в порядке, который определяет хранилище.
	ListAll(ctx context.Context) ([]Order, error)
}
