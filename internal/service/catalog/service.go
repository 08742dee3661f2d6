// Package catalog управляет ресторанами и их меню.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
)

const (
	minOrderPriceLower = 1000
	minOrderPriceUpper = 100000
	minOrderPriceStep  = 100

	deliveryFeeLower = 0
	deliveryFeeUpper = 10000
	deliveryFeeStep  = 500

	foodPriceLower = 100
	foodPriceUpper = 1000000
	foodPriceStep  = 100
)

// RestaurantInput — данные для регистрации ресторана.
type RestaurantInput struct {
	Name          string
	MinOrderPrice int64
	DeliveryFee   int64
}

// FoodInput — данные для регистрации блюда.
type FoodInput struct {
	Name  string
	Price int64
}

// Service регистрирует рестораны и блюда, которые читает сервис заказов.
type Service struct {
	restaurants domain.RestaurantRepository
	foods       domain.FoodRepository
	logger      *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(restaurants domain.RestaurantRepository, foods domain.FoodRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog")
	}
	return &Service{
		restaurants: restaurants,
		foods:       foods,
		logger:      logger,
	}
}

// RegisterRestaurant проверяет и сохраняет ресторан.
func (s *Service) RegisterRestaurant(ctx context.Context, input RestaurantInput) (domain.Restaurant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return domain.Restaurant{}, domain.ErrRestaurantNameRequired
	}
	if !inSteppedRange(input.MinOrderPrice, minOrderPriceLower, minOrderPriceUpper, minOrderPriceStep) {
		return domain.Restaurant{}, domain.ErrMinOrderPriceInvalid
	}
	if !inSteppedRange(input.DeliveryFee, deliveryFeeLower, deliveryFeeUpper, deliveryFeeStep) {
		return domain.Restaurant{}, domain.ErrDeliveryFeeInvalid
	}

	restaurant, err := s.restaurants.Create(ctx, domain.Restaurant{
		Name:          name,
		MinOrderPrice: input.MinOrderPrice,
		DeliveryFee:   input.DeliveryFee,
	})
	if err != nil {
		s.logger.WithError(err).Error("failed to create restaurant")
		return domain.Restaurant{}, fmt.Errorf("create restaurant: %w", err)
	}

	s.logger.WithField("restaurant_id", restaurant.ID).Info("restaurant registered")
	return restaurant, nil
}

// ListRestaurants возвращает рестораны в порядке регистрации.
func (s *Service) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	restaurants, err := s.restaurants.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return restaurants, nil
}

// RegisterFoods добавляет блюда в меню ресторана. Либо сохраняются все блюда, либо ни одно.
func (s *Service) RegisterFoods(ctx context.Context, restaurantID int64, inputs []FoodInput) ([]domain.Food, error) {
	if len(inputs) == 0 {
		return nil, domain.ErrFoodsRequired
	}

	if _, err := s.findRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}

	existing, err := s.foods.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	names := make(map[string]struct{}, len(existing)+len(inputs))
	for _, food := range existing {
		names[food.Name] = struct{}{}
	}

	foods := make([]domain.Food, 0, len(inputs))
	for _, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, domain.ErrFoodNameRequired
		}
		if !inSteppedRange(input.Price, foodPriceLower, foodPriceUpper, foodPriceStep) {
			return nil, domain.ErrFoodPriceInvalid
		}
		if _, dup := names[name]; dup {
			return nil, fmt.Errorf("%w: %q", domain.ErrFoodNameDuplicate, name)
		}
		names[name] = struct{}{}

		foods = append(foods, domain.Food{
			RestaurantID: restaurantID,
			Name:         name,
			Price:        input.Price,
		})
	}

	created, err := s.foods.CreateBatch(ctx, foods)
	if err != nil {
		s.logger.WithError(err).WithField("restaurant_id", restaurantID).Error("failed to create foods")
		return nil, fmt.Errorf("create foods: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"restaurant_id": restaurantID,
		"count":         len(created),
	}).Info("foods registered")
	return created, nil
}

// ListFoods возвращает меню ресторана.
func (s *Service) ListFoods(ctx context.Context, restaurantID int64) ([]domain.Food, error) {
	if _, err := s.findRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}

	foods, err := s.foods.ListByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list foods: %w", err)
	}
	return foods, nil
}

func (s *Service) findRestaurant(ctx context.Context, id int64) (domain.Restaurant, error) {
	restaurant, err := s.restaurants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Restaurant{}, err
		}
		return domain.Restaurant{}, fmt.Errorf("load restaurant %d: %w", id, err)
	}
	return restaurant, nil
}

func inSteppedRange(value, lower, upper, step int64) bool {
	return value >= lower && value <= upper && value%step == 0
}
