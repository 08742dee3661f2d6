package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/service/catalog"
	"github.com/vladislavdragonenkov/delivery/internal/storage/memory"
)

func newService() *catalog.Service {
	return catalog.NewService(memory.NewRestaurantRepository(), memory.NewFoodRepository(), nil)
}

func TestRegisterRestaurant(t *testing.T) {
	svc := newService()

	restaurant, err := svc.RegisterRestaurant(context.Background(), catalog.RestaurantInput{
		Name:          "  Kim's  ",
		MinOrderPrice: 15000,
		DeliveryFee:   3000,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), restaurant.ID)
	require.Equal(t, "Kim's", restaurant.Name)
	require.Equal(t, int64(15000), restaurant.MinOrderPrice)
	require.Equal(t, int64(3000), restaurant.DeliveryFee)

	listed, err := svc.ListRestaurants(context.Background())
	require.NoError(t, err)
	require.Equal(t, []domain.Restaurant{restaurant}, listed)
}

func TestRegisterRestaurant_Validation(t *testing.T) {
	tests := []struct {
		name    string
		input   catalog.RestaurantInput
		wantErr error
	}{
		{"empty name", catalog.RestaurantInput{Name: " ", MinOrderPrice: 1000}, domain.ErrRestaurantNameRequired},
		{"min order too low", catalog.RestaurantInput{Name: "a", MinOrderPrice: 900}, domain.ErrMinOrderPriceInvalid},
		{"min order too high", catalog.RestaurantInput{Name: "a", MinOrderPrice: 100100}, domain.ErrMinOrderPriceInvalid},
		{"min order off step", catalog.RestaurantInput{Name: "a", MinOrderPrice: 1050}, domain.ErrMinOrderPriceInvalid},
		{"negative fee", catalog.RestaurantInput{Name: "a", MinOrderPrice: 1000, DeliveryFee: -500}, domain.ErrDeliveryFeeInvalid},
		{"fee too high", catalog.RestaurantInput{Name: "a", MinOrderPrice: 1000, DeliveryFee: 10500}, domain.ErrDeliveryFeeInvalid},
		{"fee off step", catalog.RestaurantInput{Name: "a", MinOrderPrice: 1000, DeliveryFee: 700}, domain.ErrDeliveryFeeInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newService().RegisterRestaurant(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, domain.ErrInvalidArgument)
		})
	}
}

func TestRegisterRestaurant_BoundsAccepted(t *testing.T) {
	svc := newService()

	_, err := svc.RegisterRestaurant(context.Background(), catalog.RestaurantInput{Name: "low", MinOrderPrice: 1000, DeliveryFee: 0})
	require.NoError(t, err)
	_, err = svc.RegisterRestaurant(context.Background(), catalog.RestaurantInput{Name: "high", MinOrderPrice: 100000, DeliveryFee: 10000})
	require.NoError(t, err)
}

func TestRegisterFoods(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	restaurant, err := svc.RegisterRestaurant(ctx, catalog.RestaurantInput{Name: "Kim's", MinOrderPrice: 15000, DeliveryFee: 3000})
	require.NoError(t, err)

	foods, err := svc.RegisterFoods(ctx, restaurant.ID, []catalog.FoodInput{
		{Name: "Bibimbap", Price: 9000},
		{Name: "Kimchi", Price: 2000},
	})
	require.NoError(t, err)
	require.Len(t, foods, 2)
	require.Equal(t, restaurant.ID, foods[0].RestaurantID)
	require.NotZero(t, foods[0].ID)

	listed, err := svc.ListFoods(ctx, restaurant.ID)
	require.NoError(t, err)
	require.Equal(t, foods, listed)
}

func TestRegisterFoods_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		inputs  []catalog.FoodInput
		wantErr error
	}{
		{"no foods", nil, domain.ErrFoodsRequired},
		{"empty name", []catalog.FoodInput{{Name: "", Price: 1000}}, domain.ErrFoodNameRequired},
		{"price too low", []catalog.FoodInput{{Name: "a", Price: 0}}, domain.ErrFoodPriceInvalid},
		{"price too high", []catalog.FoodInput{{Name: "a", Price: 1000100}}, domain.ErrFoodPriceInvalid},
		{"price off step", []catalog.FoodInput{{Name: "a", Price: 150}}, domain.ErrFoodPriceInvalid},
		{"duplicate in batch", []catalog.FoodInput{{Name: "a", Price: 100}, {Name: "a", Price: 200}}, domain.ErrFoodNameDuplicate},
		{"duplicate of existing", []catalog.FoodInput{{Name: "Bibimbap", Price: 100}}, domain.ErrFoodNameDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService()
			restaurant, err := svc.RegisterRestaurant(ctx, catalog.RestaurantInput{Name: "Kim's", MinOrderPrice: 15000})
			require.NoError(t, err)
			_, err = svc.RegisterFoods(ctx, restaurant.ID, []catalog.FoodInput{{Name: "Bibimbap", Price: 9000}})
			require.NoError(t, err)

			_, err = svc.RegisterFoods(ctx, restaurant.ID, tt.inputs)
			require.ErrorIs(t, err, tt.wantErr)
			require.ErrorIs(t, err, domain.ErrInvalidArgument)

			listed, err := svc.ListFoods(ctx, restaurant.ID)
			require.NoError(t, err)
			require.Len(t, listed, 1, "failed batch must not be partially stored")
		})
	}
}

func TestRegisterFoods_SameNameInOtherRestaurant(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	first, err := svc.RegisterRestaurant(ctx, catalog.RestaurantInput{Name: "A", MinOrderPrice: 1000})
	require.NoError(t, err)
	second, err := svc.RegisterRestaurant(ctx, catalog.RestaurantInput{Name: "B", MinOrderPrice: 1000})
	require.NoError(t, err)

	_, err = svc.RegisterFoods(ctx, first.ID, []catalog.FoodInput{{Name: "Soup", Price: 500}})
	require.NoError(t, err)
	_, err = svc.RegisterFoods(ctx, second.ID, []catalog.FoodInput{{Name: "Soup", Price: 700}})
	require.NoError(t, err)
}

func TestUnknownRestaurant(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.RegisterFoods(ctx, 42, []catalog.FoodInput{{Name: "Soup", Price: 500}})
	require.ErrorIs(t, err, domain.ErrRestaurantNotFound)

	_, err = svc.ListFoods(ctx, 42)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
