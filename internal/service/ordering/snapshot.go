package ordering

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

// catalogSnapshot кэширует рестораны и блюда в пределах одного вызова ListOrders,
// чтобы все заказы считались по одним и тем же ценам.
type catalogSnapshot struct {
	restaurantRepo domain.RestaurantRepository
	foodRepo       domain.FoodRepository
	restaurants    map[int64]domain.Restaurant
	foods          map[int64]domain.Food
}

func newCatalogSnapshot(restaurants domain.RestaurantRepository, foods domain.FoodRepository) *catalogSnapshot {
	return &catalogSnapshot{
		restaurantRepo: restaurants,
		foodRepo:       foods,
		restaurants:    make(map[int64]domain.Restaurant),
		foods:          make(map[int64]domain.Food),
	}
}

func (c *catalogSnapshot) restaurant(ctx context.Context, id int64) (domain.Restaurant, error) {
	if restaurant, ok := c.restaurants[id]; ok {
		return restaurant, nil
	}
	restaurant, err := c.restaurantRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("load restaurant %d: %w", id, err)
	}
	c.restaurants[id] = restaurant
	return restaurant, nil
}

func (c *catalogSnapshot) food(ctx context.Context, id int64) (domain.Food, error) {
	if food, ok := c.foods[id]; ok {
		return food, nil
	}
	food, err := c.foodRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Food{}, fmt.Errorf("load food %d: %w", id, err)
	}
	c.foods[id] = food
	return food, nil
}
