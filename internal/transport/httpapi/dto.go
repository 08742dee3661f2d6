package httpapi

import (
	"time"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/service/catalog"
)

type orderLineRequest struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

type placeOrderRequest struct {
	RestaurantID int64              `json:"restaurantId"`
	Foods        []orderLineRequest `json:"foods"`
}

func (r placeOrderRequest) toDomain() domain.PlaceOrderRequest {
	lines := make([]domain.OrderLineRequest, 0, len(r.Foods))
	for _, food := range r.Foods {
		lines = append(lines, domain.OrderLineRequest{FoodID: food.ID, Quantity: food.Quantity})
	}
	return domain.PlaceOrderRequest{RestaurantID: r.RestaurantID, Foods: lines}
}

type lineSummaryResponse struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

type orderSummaryResponse struct {
	RestaurantName string                `json:"restaurantName"`
	DeliveryFee    int64                 `json:"deliveryFee"`
	Foods          []lineSummaryResponse `json:"foods"`
	TotalPrice     int64                 `json:"totalPrice"`
}

func newOrderSummaryResponse(summary domain.OrderSummary) orderSummaryResponse {
	foods := make([]lineSummaryResponse, 0, len(summary.Foods))
	for _, line := range summary.Foods {
		foods = append(foods, lineSummaryResponse{Name: line.Name, Quantity: line.Quantity, Price: line.Price})
	}
	return orderSummaryResponse{
		RestaurantName: summary.RestaurantName,
		DeliveryFee:    summary.DeliveryFee,
		Foods:          foods,
		TotalPrice:     summary.TotalPrice,
	}
}

type restaurantRequest struct {
	Name          string `json:"name"`
	MinOrderPrice int64  `json:"minOrderPrice"`
	DeliveryFee   int64  `json:"deliveryFee"`
}

func (r restaurantRequest) toInput() catalog.RestaurantInput {
	return catalog.RestaurantInput{Name: r.Name, MinOrderPrice: r.MinOrderPrice, DeliveryFee: r.DeliveryFee}
}

type restaurantResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	MinOrderPrice int64     `json:"minOrderPrice"`
	DeliveryFee   int64     `json:"deliveryFee"`
	CreatedAt     time.Time `json:"createdAt"`
}

func newRestaurantResponse(r domain.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:            r.ID,
		Name:          r.Name,
		MinOrderPrice: r.MinOrderPrice,
		DeliveryFee:   r.DeliveryFee,
		CreatedAt:     r.CreatedAt,
	}
}

type foodRequest struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

type registerFoodsRequest struct {
	Foods []foodRequest `json:"foods"`
}

func (r registerFoodsRequest) toInputs() []catalog.FoodInput {
	inputs := make([]catalog.FoodInput, 0, len(r.Foods))
	for _, food := range r.Foods {
		inputs = append(inputs, catalog.FoodInput{Name: food.Name, Price: food.Price})
	}
	return inputs
}

type foodResponse struct {
	ID           int64     `json:"id"`
	RestaurantID int64     `json:"restaurantId"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
	CreatedAt    time.Time `json:"createdAt"`
}

func newFoodResponses(foods []domain.Food) []foodResponse {
	result := make([]foodResponse, 0, len(foods))
	for _, f := range foods {
		result = append(result, foodResponse{
			ID:           f.ID,
			RestaurantID: f.RestaurantID,
			Name:         f.Name,
			Price:        f.Price,
			CreatedAt:    f.CreatedAt,
		})
	}
	return result
}
