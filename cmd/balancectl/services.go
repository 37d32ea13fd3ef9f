package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	postgresRepo "github.com/iho/custbalance/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/custbalance/internal/adapter/repository/redis"
	"github.com/iho/custbalance/internal/domain"
	"github.com/iho/custbalance/internal/infrastructure/config"
	"github.com/iho/custbalance/internal/infrastructure/metrics"
	"github.com/iho/custbalance/internal/infrastructure/postgres"
	"github.com/iho/custbalance/internal/infrastructure/redis"
	"github.com/iho/custbalance/internal/usecase"
)

type batchRunner interface {
	Run(ctx context.Context, input usecase.BatchInput) (*usecase.BatchReport, error)
}

type balanceReader interface {
	CustomersWithOpenEntries(ctx context.Context) ([]string, error)
	GetBalance(ctx context.Context, customerID string) (*domain.CustomerBalance, error)
}

// services are the use cases subcommands run against.
type services struct {
	batch    batchRunner
	balances balanceReader
	close    func()
}

type serviceFactory func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*services, error)

// openServices connects to Postgres and Redis and wires the use cases.
func openServices(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*services, error) {
	if cfg.MigrateOnStart {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	entryRepo := postgresRepo.NewEntryRepository(pool)
	customerRepo := postgresRepo.NewCustomerRepository(pool)
	retrier := postgresRepo.NewRetrier(postgresRepo.RetryConfig{
		MaxRetries:      cfg.SaveRetryMax,
		InitialInterval: cfg.SaveRetryInitialInterval,
		MaxInterval:     cfg.SaveRetryMaxInterval,
		MaxElapsedTime:  cfg.SaveRetryMaxElapsed,
	}, logger)
	locker := redisRepo.NewCustomerLock(redisClient, cfg.CustomerLockTTL, cfg.CustomerLockWait)
	m := metrics.New(prometheus.NewRegistry())

	recalculateUC := usecase.NewRecalculateUseCase(entryRepo, retrier, m, logger)
	outstandingUC := usecase.NewOutstandingUseCase(entryRepo, customerRepo)
	batchUC := usecase.NewBatchUseCase(usecase.BatchConfig{
		CustomerRepo: customerRepo,
		EntryRepo:    entryRepo,
		Recalculator: recalculateUC,
		Outstanding:  outstandingUC,
		Locker:       locker,
		Retrier:      retrier,
		Metrics:      m,
		Workers:      cfg.BatchWorkers,
		Logger:       logger,
	})

	return &services{
		batch:    batchUC,
		balances: outstandingUC,
		close: func() {
			_ = redisClient.Close()
			pool.Close()
		},
	}, nil
}
