package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthcheck "github.com/vladislavdragonenkov/delivery/internal/health"
)

func TestMetricsServer_Endpoints(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "delivery_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := newMetricsServer(":0", reg, healthcheck.NewHandler("test"))

	tests := []struct {
		path     string
		wantCode int
		contains string
	}{
		{path: "/metrics", wantCode: http.StatusOK, contains: "delivery_test_total 1"},
		{path: "/healthz", wantCode: http.StatusOK, contains: `"status":"healthy"`},
		{path: "/livez", wantCode: http.StatusOK, contains: "ok"},
		{path: "/readyz", wantCode: http.StatusOK, contains: "ready"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.wantCode, rec.Code)
			require.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestNewGRPCServer_HealthServing(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	logger := log.WithField("test", "grpc")
	grpcServer, healthServer := newGRPCServer(reg, logger)

	// Повторная регистрация метрик в том же реестре не ломает сборку сервера.
	second, _ := newGRPCServer(reg, logger)
	second.Stop()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(func() { stopGRPC(grpcServer, healthServer, time.Second, logger) })

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
