package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/custbalance/internal/adapter/http/handler"
	"github.com/iho/custbalance/internal/adapter/http/middleware"
	"github.com/iho/custbalance/internal/infrastructure/metrics"
	"github.com/iho/custbalance/internal/usecase"
)

// RouterConfig holds dependencies for the router. Metrics, Gatherer,
// RateLimiter and IdempotencyStore are optional.
type RouterConfig struct {
	EntryHandler     *handler.EntryHandler
	CustomerHandler  *handler.CustomerHandler
	HealthHandler    *handler.HealthHandler
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	Gatherer         prometheus.Gatherer
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Entries
		r.Route("/entries", func(r chi.Router) {
			if cfg.IdempotencyStore != nil {
				idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
				r.With(idempotency.Wrap).Post("/", cfg.EntryHandler.Create)
			} else {
				r.Post("/", cfg.EntryHandler.Create)
			}
			r.Get("/{id}", cfg.EntryHandler.Get)
			r.Post("/{id}/complete", cfg.EntryHandler.Complete)
			r.Post("/{id}/post", cfg.EntryHandler.Post)
		})

		// Customers
		r.Route("/customers", func(r chi.Router) {
			r.Get("/outstanding", cfg.CustomerHandler.Outstanding)
			r.Get("/{id}/balance", cfg.CustomerHandler.Balance)
			r.Get("/{id}/entries/open", cfg.CustomerHandler.OpenEntries)
			r.Post("/{id}/recalculate", cfg.CustomerHandler.Recalculate)
		})
	})

	return r
}
