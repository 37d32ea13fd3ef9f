package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/custbalance/internal/adapter/http"
	"github.com/iho/custbalance/internal/adapter/http/handler"
	"github.com/iho/custbalance/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/custbalance/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/custbalance/internal/adapter/repository/redis"
	"github.com/iho/custbalance/internal/infrastructure/config"
	"github.com/iho/custbalance/internal/infrastructure/logger"
	"github.com/iho/custbalance/internal/infrastructure/metrics"
	"github.com/iho/custbalance/internal/infrastructure/postgres"
	"github.com/iho/custbalance/internal/infrastructure/redis"
	"github.com/iho/custbalance/internal/usecase"
)

const rateLimiterIdle = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	routerCfg := buildRouterConfig(cfg, log, pool, redisClient, metrics.New(reg))
	routerCfg.Gatherer = reg

	if routerCfg.RateLimiter != nil {
		go cleanupRateLimiter(ctx, routerCfg.RateLimiter)
	}

	server := newHTTPServer(cfg, httpAdapter.NewRouter(routerCfg))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Bool("balance_rules", cfg.BalanceRulesEnabled).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// buildRouterConfig wires repositories, use cases and handlers.
func buildRouterConfig(
	cfg *config.Config,
	log zerolog.Logger,
	pool *pgxpool.Pool,
	redisClient *goredis.Client,
	m *metrics.Metrics,
) httpAdapter.RouterConfig {
	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	customerRepo := postgresRepo.NewCustomerRepository(pool)
	retrier := postgresRepo.NewRetrier(retryConfig(cfg), log)
	idGen := postgresRepo.NewULIDGenerator()
	locker := redisRepo.NewCustomerLock(redisClient, cfg.CustomerLockTTL, cfg.CustomerLockWait)

	// Use cases
	recalculateUC := usecase.NewRecalculateUseCase(entryRepo, retrier, m, log)
	outstandingUC := usecase.NewOutstandingUseCase(entryRepo, customerRepo)
	entryUC := usecase.NewEntryUseCase(entryRepo, customerRepo, idGen)
	postingUC := usecase.NewPostingUseCase(usecase.PostingConfig{
		TxManager:    txManager,
		EntryRepo:    entryRepo,
		Recalculator: recalculateUC,
		Locker:       locker,
		RulesEnabled: cfg.BalanceRulesEnabled,
		Logger:       log,
	})
	batchUC := usecase.NewBatchUseCase(usecase.BatchConfig{
		CustomerRepo: customerRepo,
		EntryRepo:    entryRepo,
		Recalculator: recalculateUC,
		Outstanding:  outstandingUC,
		Locker:       locker,
		Retrier:      retrier,
		Metrics:      m,
		Workers:      cfg.BatchWorkers,
		Logger:       log,
	})

	healthHandler := handler.NewHealthHandler().
		AddCheck("postgres", pool.Ping).
		AddCheck("redis", func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })

	routerCfg := httpAdapter.RouterConfig{
		EntryHandler:     handler.NewEntryHandler(entryUC, postingUC),
		CustomerHandler:  handler.NewCustomerHandler(outstandingUC, entryUC, batchUC),
		HealthHandler:    healthHandler,
		Logger:           log,
		Metrics:          m,
		IdempotencyStore: redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:   cfg.IdempotencyTTL,
	}
	if cfg.HTTPRateLimit > 0 {
		routerCfg.RateLimiter = middleware.NewRateLimiter(cfg.HTTPRateLimit, cfg.HTTPRateBurst)
	}

	return routerCfg
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
}

func cleanupRateLimiter(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(rateLimiterIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(rateLimiterIdle)
		}
	}
}

func retryConfig(cfg *config.Config) postgresRepo.RetryConfig {
	return postgresRepo.RetryConfig{
		MaxRetries:      cfg.SaveRetryMax,
		InitialInterval: cfg.SaveRetryInitialInterval,
		MaxInterval:     cfg.SaveRetryMaxInterval,
		MaxElapsedTime:  cfg.SaveRetryMaxElapsed,
	}
}
