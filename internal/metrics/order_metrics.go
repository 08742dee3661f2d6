package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Причины отказа в оформлении заказа (значения label reason).
const (
	RejectReasonRestaurantNotFound = "restaurant_not_found"
	RejectReasonFoodNotFound       = "food_not_found"
	RejectReasonQuantity           = "quantity_out_of_range"
	RejectReasonMinOrderPrice      = "below_min_order_price"
	RejectReasonInvalid            = "invalid_argument"
	RejectReasonStorage            = "storage_error"
)

// OrderMetrics содержит метрики оформления и чтения заказов.
type OrderMetrics struct {
	ordersPlaced   prometheus.Counter
	ordersRejected *prometheus.CounterVec
	placeDuration  prometheus.Histogram
	orderTotal     prometheus.Histogram
	ordersListed   prometheus.Counter
	outboxFailures prometheus.Counter
}

// NewOrderMetrics регистрирует метрики в DefaultRegisterer.
func NewOrderMetrics() *OrderMetrics {
	return NewOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewOrderMetricsWithRegisterer регистрирует метрики в переданном реестре.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersPlaced: registerCounter(registerer, prometheus.CounterOpts{
			Name: "delivery_orders_placed_total",
			Help: "Total number of orders placed successfully",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "delivery_orders_rejected_total",
			Help: "Total number of rejected order placements grouped by reason",
		}, []string{"reason"}),
		placeDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "delivery_order_place_duration_seconds",
			Help:    "Duration of order placement in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}),
		orderTotal: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "delivery_order_total_price",
			Help:    "Total price of placed orders including delivery fee",
			Buckets: prometheus.ExponentialBuckets(5000, 2, 8),
		}),
		ordersListed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "delivery_order_list_requests_total",
			Help: "Total number of order list requests",
		}),
		outboxFailures: registerCounter(registerer, prometheus.CounterOpts{
			Name: "delivery_order_outbox_enqueue_failures_total",
			Help: "Total number of order.placed events that could not be enqueued",
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordOrderPlaced фиксирует успешный заказ, его итоговую сумму и длительность.
func (m *OrderMetrics) RecordOrderPlaced(totalPrice int64, duration time.Duration) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderTotal.Observe(float64(totalPrice))
	m.placeDuration.Observe(duration.Seconds())
}

// RecordOrderRejected увеличивает счётчик отказов с указанной причиной.
func (m *OrderMetrics) RecordOrderRejected(reason string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ordersRejected.WithLabelValues(reason).Inc()
	m.placeDuration.Observe(duration.Seconds())
}

// RecordOrdersListed увеличивает счётчик запросов списка заказов.
func (m *OrderMetrics) RecordOrdersListed() {
	if m == nil {
		return
	}
	m.ordersListed.Inc()
}

// RecordOutboxEnqueueFailure фиксирует событие, не попавшее в outbox.
func (m *OrderMetrics) RecordOutboxEnqueueFailure() {
	if m == nil {
		return
	}
	m.outboxFailures.Inc()
}
