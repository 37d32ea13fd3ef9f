package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/custbalance/internal/adapter/http/handler"
	apimiddleware "github.com/iho/custbalance/internal/adapter/http/middleware"
	"github.com/iho/custbalance/internal/domain"
	"github.com/iho/custbalance/internal/infrastructure/metrics"
	"github.com/iho/custbalance/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/customers/outstanding", nil)
		req.RemoteAddr = "1.2.3.4:1234"
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send(); code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", code)
	}
	if code := send(); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", code)
	}

	// Health checks are never throttled.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "1.2.3.4:1234"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to bypass rate limiting, got %d", rec.Code)
	}
}

func TestNewRouter_IdempotencyAppliesToEntryCreation(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"customer_id":"c-1","type":"invoice","total":"10"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.reserved != 1 || store.completed != 1 {
		t.Fatalf("expected reserve and complete, got %+v", store)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/entries/e-1/post", nil)
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-456")
	router.ServeHTTP(httptest.NewRecorder(), req)

	if store.reserved != 1 {
		t.Fatalf("expected posting to bypass the idempotency store")
	}
}

func TestNewRouter_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = metrics.New(reg)
		cfg.Gatherer = reg
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/customers/c-1/balance", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `custbalance_http_requests_total{method="GET",path="/api/v1/customers/:id/balance",status="200"} 1`) {
		t.Fatalf("expected request counter in output:\n%s", rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/entries/",
		"GET /api/v1/entries/{id}",
		"POST /api/v1/entries/{id}/complete",
		"POST /api/v1/entries/{id}/post",
		"GET /api/v1/customers/outstanding",
		"GET /api/v1/customers/{id}/balance",
		"GET /api/v1/customers/{id}/entries/open",
		"POST /api/v1/customers/{id}/recalculate",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	svc := stubService{}

	cfg := RouterConfig{
		HealthHandler:   handler.NewHealthHandler(),
		EntryHandler:    handler.NewEntryHandler(svc, svc),
		CustomerHandler: handler.NewCustomerHandler(svc, svc, svc),
		Logger:          zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubService struct{}

func (stubService) CreateEntry(ctx context.Context, input usecase.CreateEntryInput) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: "e-1", CustomerID: input.CustomerID, Type: input.Type, Total: input.Total}, nil
}

func (stubService) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: id}, nil
}

func (stubService) CompleteEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: entryID, Status: domain.StatusCompleted}, nil
}

func (stubService) PostEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	return &domain.LedgerEntry{ID: entryID, Status: domain.StatusPosted}, nil
}

func (stubService) CustomersWithOpenEntries(ctx context.Context) ([]string, error) {
	return []string{"c-1"}, nil
}

func (stubService) GetBalance(ctx context.Context, customerID string) (*domain.CustomerBalance, error) {
	return &domain.CustomerBalance{CustomerID: customerID, Outstanding: decimal.Zero}, nil
}

func (stubService) ListOpenEntries(ctx context.Context, customerID string) ([]domain.LedgerEntry, error) {
	return nil, nil
}

func (stubService) RecalculateCustomer(ctx context.Context, customerID string) (*usecase.RecalculationResult, int, error) {
	return &usecase.RecalculationResult{CustomerID: customerID}, 0, nil
}

type stubIdempotencyStore struct {
	reserved  int
	completed int
}

func (s *stubIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, *usecase.IdempotentResponse, error) {
	s.reserved++
	return true, nil, nil
}

func (s *stubIdempotencyStore) Complete(ctx context.Context, key string, resp usecase.IdempotentResponse, ttl time.Duration) error {
	s.completed++
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
