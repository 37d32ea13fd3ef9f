package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/custbalance/internal/domain"
)

// BatchUseCase re-drives balance allocation across many customers, for
// example after a bulk import. Posted entries missing from the open balance
// are linked first, then each customer is recalculated.
type BatchUseCase struct {
	customerRepo CustomerRepository
	entryRepo    EntryRepository
	recalculator *RecalculateUseCase
	outstanding  *OutstandingUseCase
	locker       Locker
	retrier      Retrier
	metrics      BalanceMetrics
	workers      int
	logger       zerolog.Logger
}

// BatchConfig holds dependencies for BatchUseCase.
type BatchConfig struct {
	CustomerRepo CustomerRepository
	EntryRepo    EntryRepository
	Recalculator *RecalculateUseCase
	Outstanding  *OutstandingUseCase
	Locker       Locker
	Retrier      Retrier
	Metrics      BalanceMetrics
	Workers      int
	Logger       zerolog.Logger
}

// NewBatchUseCase creates a new BatchUseCase.
func NewBatchUseCase(cfg BatchConfig) *BatchUseCase {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultBatchWorkers
	}
	if cfg.Locker == nil {
		cfg.Locker = noLock{}
	}
	if cfg.Retrier == nil {
		cfg.Retrier = noRetry{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}

	return &BatchUseCase{
		customerRepo: cfg.CustomerRepo,
		entryRepo:    cfg.EntryRepo,
		recalculator: cfg.Recalculator,
		outstanding:  cfg.Outstanding,
		locker:       cfg.Locker,
		retrier:      cfg.Retrier,
		metrics:      cfg.Metrics,
		workers:      cfg.Workers,
		logger:       cfg.Logger,
	}
}

// BatchInput selects the customers to process.
type BatchInput struct {
	// NamePattern filters customers by name; "*" matches any run of characters.
	NamePattern string
	// OnlyOutstanding restricts the run to customers with open entries.
	OnlyOutstanding bool
}

// BatchReport summarises a batch run.
type BatchReport struct {
	Customers int
	Processed int
	Succeeded int
	Failed    int
	Examined  int
	Updated   int
	Linked    int
	Results   []*RecalculationResult
	Duration  time.Duration
}

type customerOutcome struct {
	result *RecalculationResult
	linked int
	err    error
}

// Run processes every selected customer and keeps going past per-customer
// failures. Cancelling ctx stops the run between customers; a customer
// already started is always finished. The partial report is returned
// together with ctx.Err() in that case.
func (uc *BatchUseCase) Run(ctx context.Context, input BatchInput) (*BatchReport, error) {
	start := time.Now()

	customerIDs, err := uc.selectCustomers(ctx, input)
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Int("customers", len(customerIDs)).
		Str("filter", input.NamePattern).
		Int("workers", uc.workers).
		Msg("balance batch started")

	outcomes := make([]*customerOutcome, len(customerIDs))

	g := new(errgroup.Group)
	g.SetLimit(uc.workers)

	for i, customerID := range customerIDs {
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = uc.processCustomer(ctx, customerID)
			return nil
		})
	}
	_ = g.Wait()

	report := &BatchReport{Customers: len(customerIDs)}
	for _, outcome := range outcomes {
		if outcome == nil {
			continue
		}

		report.Processed++
		report.Linked += outcome.linked

		if outcome.result != nil {
			report.Results = append(report.Results, outcome.result)
			report.Examined += outcome.result.Examined
			report.Updated += outcome.result.Updated
		}

		if outcome.err != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	report.Duration = time.Since(start)

	uc.logger.Info().
		Int("customers", report.Customers).
		Int("processed", report.Processed).
		Int("failed", report.Failed).
		Int("examined", report.Examined).
		Int("updated", report.Updated).
		Dur("duration", report.Duration).
		Msg("balance batch finished")

	return report, ctx.Err()
}

// RecalculateCustomer links and recalculates a single customer under its
// lock. It returns the recalculation result and the number of entries linked.
func (uc *BatchUseCase) RecalculateCustomer(ctx context.Context, customerID string) (*RecalculationResult, int, error) {
	if _, err := uc.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, 0, err
	}

	outcome := uc.processCustomer(ctx, customerID)
	return outcome.result, outcome.linked, outcome.err
}

func (uc *BatchUseCase) selectCustomers(ctx context.Context, input BatchInput) ([]string, error) {
	pattern, err := domain.CustomerNamePattern(input.NamePattern)
	if err != nil {
		return nil, err
	}

	customers, err := uc.customerRepo.List(ctx, pattern)
	if err != nil {
		return nil, err
	}

	var outstanding map[string]struct{}
	if input.OnlyOutstanding {
		ids, err := uc.outstanding.CustomersWithOpenEntries(ctx)
		if err != nil {
			return nil, err
		}

		outstanding = make(map[string]struct{}, len(ids))
		for _, id := range ids {
			outstanding[id] = struct{}{}
		}
	}

	ids := make([]string, 0, len(customers))
	for _, c := range customers {
		if outstanding != nil {
			if _, ok := outstanding[c.ID]; !ok {
				continue
			}
		}
		ids = append(ids, c.ID)
	}

	return ids, nil
}

func (uc *BatchUseCase) processCustomer(ctx context.Context, customerID string) *customerOutcome {
	log := uc.logger.With().Str("customer_id", customerID).Logger()
	outcome := &customerOutcome{}

	unlock, err := uc.locker.Lock(ctx, customerLockKey(customerID))
	if err != nil {
		outcome.err = err
		uc.metrics.BatchCustomerProcessed(OutcomeFailure)
		log.Error().Err(err).Msg("failed to lock customer")
		return outcome
	}

	// Once locked, the customer is finished even if the run is cancelled.
	ctx = context.WithoutCancel(ctx)
	defer func() {
		if err := unlock(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to release customer lock")
		}
	}()

	outcome.linked, err = uc.linkUnlinked(ctx, customerID)
	if err != nil {
		outcome.err = err
		uc.metrics.BatchCustomerProcessed(OutcomeFailure)
		log.Error().Err(err).Int("linked", outcome.linked).Msg("failed to link posted entries")
		return outcome
	}

	outcome.result, outcome.err = uc.recalculator.Recalculate(ctx, customerID)
	if outcome.err != nil {
		uc.metrics.BatchCustomerProcessed(OutcomeFailure)
		log.Error().Err(outcome.err).Msg("failed to recalculate balance")
		return outcome
	}

	uc.metrics.BatchCustomerProcessed(OutcomeSuccess)
	log.Info().
		Int("examined", outcome.result.Examined).
		Int("updated", outcome.result.Updated).
		Int("linked", outcome.linked).
		Msg("customer balance processed")

	return outcome
}

// linkUnlinked adds posted entries that still have an unallocated amount to
// the open balance, as the posting hook would have done.
func (uc *BatchUseCase) linkUnlinked(ctx context.Context, customerID string) (int, error) {
	entries, err := uc.entryRepo.FindUnlinkedEntries(ctx, nil, customerID)
	if err != nil {
		return 0, &domain.PersistenceError{Op: "find unlinked entries", Err: err}
	}

	linked := 0
	var errs []error
	for _, e := range entries {
		if err := domain.OnEntryPosted(&e); err != nil {
			errs = append(errs, err)
			continue
		}
		if !e.InOpenBalance {
			continue
		}

		err := uc.retrier.Retry(ctx, func() error {
			return uc.entryRepo.SaveAllocation(ctx, nil, e)
		})
		if err != nil {
			errs = append(errs, &domain.PersistenceError{Op: "link entry", EntryID: e.ID, Err: err})
			continue
		}
		linked++
	}

	return linked, errors.Join(errs...)
}
