// Package httpapi публикует движок заказов и каталог по HTTP/JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vladislavdragonenkov/delivery/internal/domain"
	"github.com/vladislavdragonenkov/delivery/internal/service/catalog"
	"github.com/vladislavdragonenkov/delivery/internal/service/idempotency"
)

// OrderService — операции движка заказов, которые нужны транспорту.
type OrderService interface {
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.OrderSummary, error)
	ListOrders(ctx context.Context) ([]domain.OrderSummary, error)
}

// CatalogService — операции каталога ресторанов и блюд.
type CatalogService interface {
	RegisterRestaurant(ctx context.Context, input catalog.RestaurantInput) (domain.Restaurant, error)
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	RegisterFoods(ctx context.Context, restaurantID int64, inputs []catalog.FoodInput) ([]domain.Food, error)
	ListFoods(ctx context.Context, restaurantID int64) ([]domain.Food, error)
}

// Options настраивает роутер.
type Options struct {
	Logger         *log.Entry
	Guard          *idempotency.Guard
	TracerProvider trace.TracerProvider
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// Option изменяет Options.
type Option func(*Options)

// WithLogger задаёт логгер запросов.
func WithLogger(logger *log.Entry) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithIdempotencyGuard включает обработку заголовка Idempotency-Key для POST /api/orders.
func WithIdempotencyGuard(guard *idempotency.Guard) Option {
	return func(o *Options) {
		o.Guard = guard
	}
}

// WithTracerProvider задаёт провайдер трассировки для HTTP-спанов.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *Options) {
		o.TracerProvider = provider
	}
}

// WithAllowedOrigins задаёт список origin для CORS.
func WithAllowedOrigins(origins []string) Option {
	return func(o *Options) {
		o.AllowedOrigins = origins
	}
}

// WithRequestTimeout ограничивает время обработки запроса.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout > 0 {
			o.RequestTimeout = timeout
		}
	}
}

type handler struct {
	orders  OrderService
	catalog CatalogService
	guard   *idempotency.Guard
	logger  *log.Entry
}

// NewRouter собирает chi-роутер с middleware и маршрутами /api.
func NewRouter(orders OrderService, catalogService CatalogService, options ...Option) http.Handler {
	opts := Options{
		AllowedOrigins: []string{"*"},
		RequestTimeout: 15 * time.Second,
	}
	for _, option := range options {
		option(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = log.WithField("component", "http")
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}

	h := &handler{
		orders:  orders,
		catalog: catalogService,
		guard:   opts.Guard,
		logger:  opts.Logger,
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(opts.Logger))
	router.Use(middleware.Recoverer)
	router.Use(traceRequests(opts.TracerProvider))
	router.Use(middleware.Timeout(opts.RequestTimeout))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", idempotencyKeyHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/orders", h.listOrders)
		r.Post("/orders", h.placeOrder)

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", h.listRestaurants)
			r.Post("/", h.registerRestaurant)
			r.Get("/{restaurantId}/foods", h.listFoods)
			r.Post("/{restaurantId}/foods", h.registerFoods)
		})
	})

	return router
}
