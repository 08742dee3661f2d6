// Package tracing настраивает OpenTelemetry TracerProvider для сервиса.
package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InstrumentationName — имя tracer'а, которым пользуются пакеты сервиса.
const InstrumentationName = "github.com/vladislavdragonenkov/delivery"

// Config описывает параметры экспорта трасс.
type Config struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint — адрес OTLP/gRPC коллектора (host:port). Пустое значение отключает экспорт.
	Endpoint    string
	SampleRatio float64
}

// ShutdownFunc сбрасывает буферы экспортёра и освобождает ресурсы.
type ShutdownFunc func(ctx context.Context) error

// Init регистрирует глобальный TracerProvider и propagator.
// Без Endpoint остаётся no-op provider, но propagator всё равно настраивается,
// чтобы traceparent пробрасывался дальше.
func Init(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp trace exporter: %w", err)
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "delivery-service"
	}
	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	attrs := []attribute.KeyValue{attribute.String("service.name", serviceName)}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attrs...)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
