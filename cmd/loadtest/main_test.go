package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeOrdersServer struct {
	mu         sync.Mutex
	keys       map[string]int
	bodies     []orderRequest
	listCalls  int
	placeCode  int
	listCode   int
	missingKey int
}

func newFakeOrdersServer() *fakeOrdersServer {
	return &fakeOrdersServer{keys: make(map[string]int), placeCode: http.StatusCreated, listCode: http.StatusOK}
}

func (s *fakeOrdersServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.URL.Path != ordersPath {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req orderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.bodies = append(s.bodies, req)
		if key := r.Header.Get(idempotencyHeader); key != "" {
			s.keys[key]++
		} else {
			s.missingKey++
		}
		w.WriteHeader(s.placeCode)
		_, _ = w.Write([]byte(`{"totalPrice":1}`))
	case http.MethodGet:
		s.listCalls++
		w.WriteHeader(s.listCode)
		_, _ = w.Write([]byte(`[]`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func testConfig(baseURL string) config {
	return config{
		baseURL:      baseURL,
		total:        20,
		concurrency:  4,
		timeout:      time.Second,
		mode:         modePlace,
		restaurantID: 7,
		foodIDs:      []int64{1, 2},
		quantity:     3,
		idempotency:  true,
	}
}

func TestParseMode(t *testing.T) {
	mode, err := parseMode(" place-list ")
	require.NoError(t, err)
	require.Equal(t, modePlaceList, mode)

	_, err = parseMode("create-pay")
	require.Error(t, err)
}

func TestParseFoodIDs(t *testing.T) {
	ids, err := parseFoodIDs(" 1, ,3 ")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3}, ids)

	for _, raw := range []string{"", " , ", "x", "0", "-4"} {
		_, err := parseFoodIDs(raw)
		require.Error(t, err, raw)
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := parseConfig(nil)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.baseURL)
	require.Equal(t, 400, cfg.total)
	require.False(t, cfg.totalSet)
	require.Equal(t, modePlace, cfg.mode)
	require.Equal(t, []int64{1}, cfg.foodIDs)
	require.True(t, cfg.idempotency)

	cfg, err = parseConfig([]string{
		"-addr", "http://api:8080/",
		"-total", "10",
		"-duration", "1m",
		"-mode", "place-list",
		"-restaurant-id", "3",
		"-foods", "4,5",
		"-quantity", "2",
		"-idempotency=false",
	})
	require.NoError(t, err)
	require.Equal(t, "http://api:8080", cfg.baseURL)
	require.True(t, cfg.totalSet)
	require.Equal(t, time.Minute, cfg.duration)
	require.Equal(t, modePlaceList, cfg.mode)
	require.Equal(t, int64(3), cfg.restaurantID)
	require.Equal(t, []int64{4, 5}, cfg.foodIDs)
	require.Equal(t, 2, cfg.quantity)
	require.False(t, cfg.idempotency)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := [][]string{
		{"-addr", " "},
		{"-duration", "-1s"},
		{"-total", "0"},
		{"-duration", "1s", "-total", "0"},
		{"-concurrency", "0"},
		{"-timeout", "0s"},
		{"-mode", "unknown"},
		{"-restaurant-id", "0"},
		{"-foods", "a"},
		{"-quantity", "0"},
		{"-bogus"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := parseConfig(args)
			require.Error(t, err)
		})
	}
}

func TestDispatchJobs(t *testing.T) {
	collect := func(ctx context.Context, cfg config) []int {
		jobs := make(chan int, 4)
		go dispatchJobs(ctx, jobs, cfg)
		var got []int
		for id := range jobs {
			got = append(got, id)
		}
		return got
	}

	require.Equal(t, []int{0, 1, 2}, collect(context.Background(), config{total: 3}))
	require.Len(t, collect(context.Background(), config{total: 5, totalSet: true, duration: time.Minute}), 5)
	require.NotEmpty(t, collect(context.Background(), config{duration: 20 * time.Millisecond}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := make(chan int, 4)
	dispatchJobs(ctx, jobs, config{total: 1000})
	count := 0
	for range jobs {
		count++
	}
	require.LessOrEqual(t, count, 4)
}

func TestOrderBody(t *testing.T) {
	var req orderRequest
	require.NoError(t, json.Unmarshal(orderBody(testConfig("")), &req))
	require.Equal(t, int64(7), req.RestaurantID)
	require.Equal(t, []orderLine{{ID: 1, Quantity: 3}, {ID: 2, Quantity: 3}}, req.Foods)
}

func TestRun_PlaceMode(t *testing.T) {
	fake := newFakeOrdersServer()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	result := run(context.Background(), testConfig(srv.URL), srv.Client())
	require.Equal(t, int64(20), result.TotalScenarios)
	require.Equal(t, int64(20), result.SuccessScenarios)
	require.Zero(t, result.FailedScenarios)
	require.Equal(t, int64(20), result.Methods[placeOrderName].Codes["201"])
	require.NotContains(t, result.Methods, listOrdersName)

	require.Len(t, fake.keys, 20)
	require.Zero(t, fake.missingKey)
	require.Zero(t, fake.listCalls)
	require.Equal(t, int64(7), fake.bodies[0].RestaurantID)
}

func TestRun_PlaceListModeWithoutIdempotency(t *testing.T) {
	fake := newFakeOrdersServer()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.mode = modePlaceList
	cfg.idempotency = false
	cfg.total = 6

	result := run(context.Background(), cfg, srv.Client())
	require.Equal(t, int64(6), result.SuccessScenarios)
	require.Equal(t, int64(6), result.Methods[listOrdersName].Calls)
	require.Equal(t, 6, fake.missingKey)
	require.Equal(t, 6, fake.listCalls)
}

func TestRun_RecordsFailures(t *testing.T) {
	fake := newFakeOrdersServer()
	fake.placeCode = http.StatusBadRequest
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.mode = modePlaceList
	cfg.total = 5

	result := run(context.Background(), cfg, srv.Client())
	require.Equal(t, int64(5), result.FailedScenarios)
	require.InDelta(t, 1.0, result.ErrorRate, 0.0001)
	require.Equal(t, int64(5), result.Methods[placeOrderName].Codes["400"])
	require.Zero(t, fake.listCalls)
}

func TestRun_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	cfg := testConfig(baseURL)
	cfg.total = 2

	result := run(context.Background(), cfg, &http.Client{Timeout: time.Second})
	require.Equal(t, int64(2), result.FailedScenarios)
	require.Equal(t, int64(2), result.Methods[placeOrderName].Codes["transport_error"])
}

func TestUtilityFunctions(t *testing.T) {
	require.Zero(t, percentile(nil, 50))
	require.Equal(t, 5.0, percentile([]float64{5}, 99))
	require.InDelta(t, 2.5, percentile([]float64{1, 2, 3, 4}, 50), 0.0001)

	summary := buildLatencySummary([]float64{3, 1, 2})
	require.Equal(t, 1.0, summary.Min)
	require.Equal(t, 3.0, summary.Max)
	require.Equal(t, 2.0, summary.Avg)
	require.Equal(t, latencySummary{}, buildLatencySummary(nil))

	require.Zero(t, ratio(1, 0))
	require.Equal(t, 0.25, ratio(1, 4))

	require.Equal(t, "count:3", runTarget(config{total: 3}))
	require.Equal(t, "duration:1s", runTarget(config{duration: time.Second}))
	require.Equal(t, "duration:1s,max-total:3", runTarget(config{duration: time.Second, total: 3, totalSet: true}))

	require.Equal(t, "transport_error", codeLabel(0))
	require.Equal(t, "201", codeLabel(201))
}

func TestWriteJSONReport(t *testing.T) {
	require.Error(t, writeJSONReport(".", report{}))
	require.Error(t, writeJSONReport("../outside.json", report{}))

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, writeJSONReport("report.json", report{TotalScenarios: 3}))

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)

	var decoded report
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, int64(3), decoded.TotalScenarios)
}

func TestPrintReport(t *testing.T) {
	col := newCollector()
	col.record(scenarioName, 2*time.Millisecond, http.StatusCreated, true)
	col.record(placeOrderName, time.Millisecond, http.StatusCreated, true)
	col.record(listOrdersName, time.Millisecond, http.StatusInternalServerError, false)

	var out bytes.Buffer
	printReport(&out, col.buildReport(time.Now(), time.Second), config{mode: modePlaceList, total: 1})

	text := out.String()
	require.Contains(t, text, "Load test summary")
	require.Contains(t, text, "mode=place-list run=count:1 total=1 success=1 failed=0")
	require.Contains(t, text, "ListOrders: calls=1 success=0 failed=1")
	require.Contains(t, text, "PlaceOrder: calls=1 success=1 failed=0")
	require.NotContains(t, text, "scenario:")
}
