// Package ordering реализует оформление заказа и расчёт его стоимости.
//
// Сервис не хранит состояния между вызовами: рестораны, блюда и заказы
// читаются из репозиториев, а цены каждый раз пересчитываются по текущим данным.
package ordering

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/metrics"
	"github.com/vladislavdragonenkov/delivery/internal/tracing"
)

// Options задаёт необязательные зависимости сервиса.
type Options struct {
	Logger  *log.Entry
	Outbox  domain.OutboxRepository
	Metrics *metrics.OrderMetrics
	Tracer  trace.Tracer
}

// Option настраивает Service.
type Option func(*Options)

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithOutbox включает публикацию события order.placed через outbox.
func WithOutbox(repo domain.OutboxRepository) Option {
	return func(opts *Options) {
		opts.Outbox = repo
	}
}

// WithMetrics задаёт Prometheus-метрики заказов.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(opts *Options) {
		opts.Metrics = m
	}
}

// WithTracer задаёт tracer для span'ов операций.
func WithTracer(tracer trace.Tracer) Option {
	return func(opts *Options) {
		opts.Tracer = tracer
	}
}

// Service оформляет заказы и пересчитывает их стоимость.
type Service struct {
	restaurants domain.RestaurantRepository
	foods       domain.FoodRepository
	orders      domain.OrderRepository
	outbox      domain.OutboxRepository
	metrics     *metrics.OrderMetrics
	tracer      trace.Tracer
	logger      *log.Entry
}

// NewService создаёт сервис заказов.
func NewService(
	restaurants domain.RestaurantRepository,
	foods domain.FoodRepository,
	orders domain.OrderRepository,
	options ...Option,
) *Service {
	var opts Options
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "ordering")
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracing.InstrumentationName)
	}

	return &Service{
		restaurants: restaurants,
		foods:       foods,
		orders:      orders,
		outbox:      opts.Outbox,
		metrics:     opts.Metrics,
		tracer:      tracer,
		logger:      logger,
	}
}

// PlaceOrder проверяет запрос, сохраняет заказ и возвращает его расчёт.
// При любой ошибке заказ не сохраняется.
func (s *Service) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.OrderSummary, error) {
	ctx, span := s.tracer.Start(ctx, "ordering.PlaceOrder", trace.WithAttributes(
		attribute.Int64("restaurant.id", req.RestaurantID),
		attribute.Int("order.lines", len(req.Foods)),
	))
	defer span.End()

	started := time.Now()
	summary, err := s.placeOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.RecordOrderRejected(rejectReason(err), time.Since(started))
		return domain.OrderSummary{}, err
	}

	span.SetAttributes(
		attribute.Int64("order.id", summary.OrderID),
		attribute.Int64("order.total_price", summary.TotalPrice),
	)
	s.metrics.RecordOrderPlaced(summary.TotalPrice, time.Since(started))
	return summary, nil
}

func (s *Service) placeOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.OrderSummary, error) {
	logger := s.logger.WithField("restaurant_id", req.RestaurantID)

	restaurant, err := s.restaurants.FindByID(ctx, req.RestaurantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("order rejected: restaurant not found")
			return domain.OrderSummary{}, err
		}
		logger.WithError(err).Error("failed to load restaurant")
		return domain.OrderSummary{}, fmt.Errorf("load restaurant %d: %w", req.RestaurantID, err)
	}

	lines := make([]domain.OrderLine, 0, len(req.Foods))
	summaries := make([]domain.LineSummary, 0, len(req.Foods))
	var totalFoodPrice int64

	for _, item := range req.Foods {
		if !item.QuantityInRange() {
			logger.WithFields(log.Fields{
				"food_id":  item.FoodID,
				"quantity": item.Quantity,
			}).Info("order rejected: quantity out of range")
			return domain.OrderSummary{}, domain.ErrQuantityOutOfRange
		}

		food, err := s.foods.FindByID(ctx, item.FoodID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.WithField("food_id", item.FoodID).Info("order rejected: food not found")
				return domain.OrderSummary{}, fmt.Errorf("%w: food_id=%d", err, item.FoodID)
			}
			logger.WithError(err).WithField("food_id", item.FoodID).Error("failed to load food")
			return domain.OrderSummary{}, fmt.Errorf("load food %d: %w", item.FoodID, err)
		}

		linePrice := domain.LinePrice(food, item.Quantity)
		totalFoodPrice += linePrice

		lines = append(lines, domain.OrderLine{FoodID: food.ID, Quantity: item.Quantity})
		summaries = append(summaries, domain.LineSummary{
			Name:     food.Name,
			Quantity: item.Quantity,
			Price:    linePrice,
		})
	}

	if totalFoodPrice < restaurant.MinOrderPrice {
		logger.WithFields(log.Fields{
			"total_food_price": totalFoodPrice,
			"min_order_price":  restaurant.MinOrderPrice,
		}).Info("order rejected: below minimum order price")
		return domain.OrderSummary{}, domain.ErrBelowMinOrderPrice
	}

	order, err := s.orders.Create(ctx, domain.Order{
		RestaurantID: restaurant.ID,
		Lines:        lines,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		logger.WithError(err).Error("failed to persist order")
		return domain.OrderSummary{}, fmt.Errorf("persist order: %w", err)
	}

	summary := domain.OrderSummary{
		OrderID:        order.ID,
		RestaurantName: restaurant.Name,
		DeliveryFee:    restaurant.DeliveryFee,
		Foods:          summaries,
		TotalPrice:     totalFoodPrice + restaurant.DeliveryFee,
	}

	s.enqueueOrderPlaced(ctx, order, summary)

	logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"total_price": summary.TotalPrice,
	}).Info("order placed")

	return summary, nil
}

// ListOrders пересчитывает все сохранённые заказы по текущим ценам.
// Порядок результата совпадает с порядком хранилища.
func (s *Service) ListOrders(ctx context.Context) ([]domain.OrderSummary, error) {
	ctx, span := s.tracer.Start(ctx, "ordering.ListOrders")
	defer span.End()

	s.metrics.RecordOrdersListed()

	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		s.logger.WithError(err).Error("failed to list orders")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("list orders: %w", err)
	}

	resolver := newCatalogSnapshot(s.restaurants, s.foods)
	result := make([]domain.OrderSummary, 0, len(orders))
	for _, order := range orders {
		summary, err := s.summarize(ctx, resolver, order)
		if err != nil {
			s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to summarize order")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		result = append(result, summary)
	}

	span.SetAttributes(attribute.Int("orders.count", len(result)))
	return result, nil
}

func (s *Service) summarize(ctx context.Context, snapshot *catalogSnapshot, order domain.Order) (domain.OrderSummary, error) {
	restaurant, err := snapshot.restaurant(ctx, order.RestaurantID)
	if err != nil {
		return domain.OrderSummary{}, fmt.Errorf("order %d: %w", order.ID, err)
	}

	summaries := make([]domain.LineSummary, 0, len(order.Lines))
	var totalFoodPrice int64
	for _, line := range order.Lines {
		food, err := snapshot.food(ctx, line.FoodID)
		if err != nil {
			return domain.OrderSummary{}, fmt.Errorf("order %d: %w", order.ID, err)
		}
		linePrice := domain.LinePrice(food, line.Quantity)
		totalFoodPrice += linePrice
		summaries = append(summaries, domain.LineSummary{
			Name:     food.Name,
			Quantity: line.Quantity,
			Price:    linePrice,
		})
	}

	return domain.OrderSummary{
		OrderID:        order.ID,
		RestaurantName: restaurant.Name,
		DeliveryFee:    restaurant.DeliveryFee,
		Foods:          summaries,
		TotalPrice:     totalFoodPrice + restaurant.DeliveryFee,
	}, nil
}

// OrderPlacedEvent — payload события order.placed.
type OrderPlacedEvent struct {
	OrderID        int64             `json:"orderId"`
	RestaurantID   int64             `json:"restaurantId"`
	RestaurantName string            `json:"restaurantName"`
	DeliveryFee    int64             `json:"deliveryFee"`
	Foods          []OrderPlacedLine `json:"foods"`
	TotalPrice     int64             `json:"totalPrice"`
	PlacedAt       time.Time         `json:"placedAt"`
}

// OrderPlacedLine — позиция в событии order.placed.
type OrderPlacedLine struct {
	FoodID   int64  `json:"foodId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// Заказ уже сохранён, поэтому ошибка outbox только логируется.
func (s *Service) enqueueOrderPlaced(ctx context.Context, order domain.Order, summary domain.OrderSummary) {
	if s.outbox == nil {
		return
	}

	event := OrderPlacedEvent{
		OrderID:        order.ID,
		RestaurantID:   order.RestaurantID,
		RestaurantName: summary.RestaurantName,
		DeliveryFee:    summary.DeliveryFee,
		Foods:          make([]OrderPlacedLine, 0, len(summary.Foods)),
		TotalPrice:     summary.TotalPrice,
		PlacedAt:       order.CreatedAt,
	}
	for i, line := range summary.Foods {
		event.Foods = append(event.Foods, OrderPlacedLine{
			FoodID:   order.Lines[i].FoodID,
			Name:     line.Name,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to encode order.placed event")
		s.metrics.RecordOutboxEnqueueFailure()
		return
	}

	_, err = s.outbox.Enqueue(ctx, domain.OutboxMessage{
		ID:            uuid.NewString(),
		AggregateType: domain.AggregateTypeOrder,
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     domain.EventTypeOrderPlaced,
		Payload:       payload,
	})
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to enqueue order.placed event")
		s.metrics.RecordOutboxEnqueueFailure()
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrRestaurantNotFound):
		return metrics.RejectReasonRestaurantNotFound
	case errors.Is(err, domain.ErrFoodNotFound):
		return metrics.RejectReasonFoodNotFound
	case errors.Is(err, domain.ErrQuantityOutOfRange):
		return metrics.RejectReasonQuantity
	case errors.Is(err, domain.ErrBelowMinOrderPrice):
		return metrics.RejectReasonMinOrderPrice
	case errors.Is(err, domain.ErrInvalidArgument):
		return metrics.RejectReasonInvalid
	default:
		return metrics.RejectReasonStorage
	}
}
