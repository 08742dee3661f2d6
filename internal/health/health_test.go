package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func healthy(context.Context) error { return nil }

func TestHealthHandler(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("postgres", NewSimpleChecker("postgres", healthy))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, StatusHealthy, response.Status)
	require.Equal(t, "v1.0.0", response.Version)
	require.Len(t, response.Checks, 1)
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("postgres", NewSimpleChecker("postgres", func(context.Context) error {
		return errors.New("connection refused")
	}))
	handler.RegisterChecker("noop", NewSimpleChecker("noop", healthy))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var response Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Equal(t, StatusUnhealthy, response.Status)
	require.Equal(t, "connection refused", response.Checks["postgres"].Message)
	require.Equal(t, StatusHealthy, response.Checks["noop"].Status)
}

type degradedChecker struct{}

func (degradedChecker) Check(context.Context) Check {
	return Check{Name: "broker", Status: StatusDegraded}
}

func TestHandler_RunDegraded(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("broker", degradedChecker{})
	handler.RegisterChecker("postgres", NewSimpleChecker("postgres", healthy))

	status, checks := handler.Run(context.Background())
	require.Equal(t, StatusDegraded, status)
	require.Len(t, checks, 2)
}

func TestHandler_RunPassesDeadline(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("postgres", NewSimpleChecker("postgres", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("missing deadline")
		}
		return nil
	}))

	status, _ := handler.Run(context.Background())
	require.Equal(t, StatusHealthy, status)
}

func TestProbes(t *testing.T) {
	handler := NewHandler("dev")
	mux := http.NewServeMux()
	handler.Register(mux)

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{path: "/livez", wantCode: http.StatusOK, wantBody: "ok"},
		{path: "/readyz", wantCode: http.StatusOK, wantBody: "ready"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.wantCode, w.Code)
			require.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestReadinessHandler_NotReady(t *testing.T) {
	handler := NewHandler("v1.0.0")
	handler.RegisterChecker("postgres", NewSimpleChecker("postgres", func(context.Context) error {
		return errors.New("not ready")
	}))

	w := httptest.NewRecorder()
	handler.ReadinessHandler(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "not ready", w.Body.String())
}

func TestSimpleChecker(t *testing.T) {
	checker := NewSimpleChecker("slow", func(context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})

	check := checker.Check(context.Background())
	require.Equal(t, StatusHealthy, check.Status)
	require.GreaterOrEqual(t, check.DurationMs, int64(10))
}
