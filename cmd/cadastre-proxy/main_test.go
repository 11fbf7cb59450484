package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/cadastre-client/internal/testutil"
	"github.com/Sternrassler/cadastre-client/pkg/cache"
	"github.com/Sternrassler/cadastre-client/pkg/client"
	"github.com/Sternrassler/cadastre-client/pkg/feature"
	"github.com/Sternrassler/cadastre-client/pkg/pagination"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Redis container not available: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		redisC.Terminate(ctx)
	}

	return redisClient, cleanup
}

// newTestServer wires a server against a mock VWorld.
func newTestServer(t *testing.T, mock *testutil.MockVWorld, preloaded pagination.Preloaded) *server {
	t.Helper()

	cfg := client.DefaultConfig("test-key", "localhost")
	cfg.BaseURL = mock.URL()
	cfg.RequestsPerSecond = 0
	vworld, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create VWorld client: %v", err)
	}

	collectorCfg := pagination.DefaultConfig()
	collectorCfg.PageSize = 10
	collectorCfg.PageDelay = 0
	collectorCfg.Preloaded = preloaded

	return &server{
		collector: pagination.NewCollector(vworld, collectorCfg),
		timeout:   5 * time.Second,
	}
}

func get(t *testing.T, h http.Handler, path string) *http.Response {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w.Result()
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestReadyEndpoint_WithoutRedis(t *testing.T) {
	s := &server{}

	resp := get(t, s.routes(), "/ready")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
}

func TestReadyEndpoint(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	s := &server{redis: redisClient}
	handler := s.routes()

	t.Run("ready", func(t *testing.T) {
		resp := get(t, handler, "/ready")
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected status 200, got %d", resp.StatusCode)
		}
		if string(body) != "OK" {
			t.Errorf("Expected body 'OK', got %s", string(body))
		}
	})

	t.Run("not_ready_redis_down", func(t *testing.T) {
		// Close Redis to simulate failure
		redisClient.Close()

		resp := get(t, handler, "/ready")
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", resp.StatusCode)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	resp := get(t, (&server{}).routes(), "/metrics")
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	bodyStr := string(body)
	if !strings.Contains(bodyStr, "# HELP") || !strings.Contains(bodyStr, "# TYPE") {
		t.Error("Expected Prometheus format metrics output")
	}
	if !strings.Contains(bodyStr, "cadastre_region_duration_seconds") {
		t.Error("Expected metrics output to contain cadastre_region_duration_seconds")
	}
}

func TestRegionEndpoint_Collected(t *testing.T) {
	mock := testutil.NewMockVWorld()
	defer mock.Close()
	mock.SetRegion("11110101", 25)

	resp := get(t, newTestServer(t, mock, nil).routes(), "/regions/11110101")
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("Content-Type = %q, want application/geo+json", ct)
	}
	if got := resp.Header.Get("X-Region-Pages"); got != "3" {
		t.Errorf("X-Region-Pages = %q, want 3", got)
	}
	if got := resp.Header.Get("X-Region-Source"); got != "vworld" {
		t.Errorf("X-Region-Source = %q, want vworld", got)
	}

	collection, err := feature.DecodeCollection(body)
	if err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if collection.Len() != 25 {
		t.Errorf("features = %d, want 25", collection.Len())
	}

	props := collection.Features[0].Properties
	if _, ok := props[feature.PropertyArea]; !ok {
		t.Errorf("properties = %v, want %s", props, feature.PropertyArea)
	}
	if props["pnu"] != "1111010100000000000" {
		t.Errorf("pnu = %v, want 1111010100000000000", props["pnu"])
	}
}

func TestRegionEndpoint_WithoutMeasurements(t *testing.T) {
	mock := testutil.NewMockVWorld()
	defer mock.Close()
	mock.SetRegion("11110101", 1)

	resp := get(t, newTestServer(t, mock, nil).routes(), "/regions/11110101?measure=false")
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if strings.Contains(string(body), feature.PropertyPerimeter) {
		t.Errorf("body contains %s with measure=false", feature.PropertyPerimeter)
	}
}

func TestRegionEndpoint_Errors(t *testing.T) {
	mock := testutil.NewMockVWorld()
	defer mock.Close()
	mock.SetError("22220202", "INCORRECT_KEY", "Invalid key")

	handler := newTestServer(t, mock, nil).routes()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantError  string
	}{
		{name: "empty region", path: "/regions/99999999", wantStatus: http.StatusNotFound, wantError: "no parcels found"},
		{name: "api error", path: "/regions/22220202", wantStatus: http.StatusBadGateway, wantError: "Invalid key"},
		{name: "non-numeric query", path: "/regions/abc", wantStatus: http.StatusBadRequest, wantError: "digits"},
		{name: "query too long", path: "/regions/12345678901234567890", wantStatus: http.StatusBadRequest, wantError: "digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, handler, tt.path)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var body errorResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if !strings.Contains(body.Error, tt.wantError) {
				t.Errorf("error = %q, want containing %q", body.Error, tt.wantError)
			}
		})
	}
}

func TestRegionEndpoint_Preloaded(t *testing.T) {
	mock := testutil.NewMockVWorld()
	defer mock.Close()

	ds := feature.NewCollection([]feature.Feature{{ID: "bundled"}})
	handler := newTestServer(t, mock, pagination.StaticDatasets{"4113510900": ds}).routes()

	resp := get(t, handler, "/regions/4113510900")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Region-Source"); got != "preloaded" {
		t.Errorf("X-Region-Source = %q, want preloaded", got)
	}
	if mock.RequestCount() != 0 {
		t.Errorf("VWorld requests = %d, want 0", mock.RequestCount())
	}
}

func TestSummaryEndpoint(t *testing.T) {
	mock := testutil.NewMockVWorld()
	defer mock.Close()
	mock.SetRegion("11110101", 3)

	resp := get(t, newTestServer(t, mock, nil).routes(), "/regions/11110101/summary")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var summary regionSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if summary.Features != 3 || len(summary.Measurements) != 3 {
		t.Errorf("summary = %+v, want 3 features", summary)
	}
	if summary.Total.Area <= 0 || summary.Total.Perimeter <= 0 {
		t.Errorf("Total = %+v, want positive", summary.Total)
	}
	if summary.Measurements[0].ID != "LP_PA_CBND_BUBUN.11110101.0" {
		t.Errorf("first ID = %q, want LP_PA_CBND_BUBUN.11110101.0", summary.Measurements[0].ID)
	}
}

func TestRegionEndpoint_CachesCollectedRegions(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	mock := testutil.NewMockVWorld()
	defer mock.Close()
	mock.SetRegion("11110101", 12)

	manager := cache.NewManager(redisClient, client.DefaultLayer, time.Hour)
	s := newTestServer(t, mock, manager)
	s.cache = manager
	s.redis = redisClient
	handler := s.routes()

	first := get(t, handler, "/regions/11110101")
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first request status = %d", first.StatusCode)
	}
	requests := mock.RequestCount()

	second := get(t, handler, "/regions/11110101")
	if second.StatusCode != http.StatusOK {
		t.Fatalf("second request status = %d", second.StatusCode)
	}
	if got := second.Header.Get("X-Region-Source"); got != "preloaded" {
		t.Errorf("X-Region-Source = %q, want preloaded", got)
	}
	if mock.RequestCount() != requests {
		t.Errorf("VWorld requests = %d after cached request, want %d", mock.RequestCount(), requests)
	}
}

func TestLoadConfig(t *testing.T) {
	opts := Options{
		ConfigFile: "does-not-exist.yaml",
		APIKey:     "flag-key",
		RedisAddr:  "redis:6379",
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.API.Key != "flag-key" {
		t.Errorf("API.Key = %q, want flag-key", cfg.API.Key)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr = %q, want redis:6379", cfg.Redis.Addr)
	}

	if _, err := loadConfig(Options{ConfigFile: "does-not-exist.yaml"}); err == nil {
		t.Error("loadConfig() without API key should fail validation")
	}
}
