package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/custbalance/internal/domain"
)

// RecalculateUseCase recomputes the allocation of one customer's open balance.
//
// Callers must serialise recalculation per customer; different customers may
// be recalculated concurrently.
type RecalculateUseCase struct {
	entryRepo EntryRepository
	retrier   Retrier
	metrics   BalanceMetrics
	logger    zerolog.Logger
}

// NewRecalculateUseCase creates a new RecalculateUseCase. A nil retrier or
// metrics recorder disables that concern.
func NewRecalculateUseCase(
	entryRepo EntryRepository,
	retrier Retrier,
	metrics BalanceMetrics,
	logger zerolog.Logger,
) *RecalculateUseCase {
	if retrier == nil {
		retrier = noRetry{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &RecalculateUseCase{
		entryRepo: entryRepo,
		retrier:   retrier,
		metrics:   metrics,
		logger:    logger,
	}
}

// RecalculationResult reports what one recalculation did.
type RecalculationResult struct {
	CustomerID string
	Examined   int
	Updated    int
	Closed     int
	Skipped    int
	Ignored    int
	Failed     int
	Moved      decimal.Decimal
}

// Recalculate allocates a customer's open credits against open debits and
// saves the entries that changed, each in its own statement. Every save is
// attempted; failures are returned joined once all saves have been tried.
func (uc *RecalculateUseCase) Recalculate(ctx context.Context, customerID string) (*RecalculationResult, error) {
	return uc.recalculate(ctx, nil, customerID)
}

// RecalculateTx is Recalculate inside the caller's transaction.
func (uc *RecalculateUseCase) RecalculateTx(ctx context.Context, tx Transaction, customerID string) (*RecalculationResult, error) {
	return uc.recalculate(ctx, tx, customerID)
}

func (uc *RecalculateUseCase) recalculate(ctx context.Context, tx Transaction, customerID string) (*RecalculationResult, error) {
	start := time.Now()
	log := uc.logger.With().Str("customer_id", customerID).Logger()

	entries, err := uc.entryRepo.FindOpenEntries(ctx, tx, customerID)
	if err != nil {
		uc.metrics.RecalculationCompleted(OutcomeFailure, time.Since(start), 0, decimal.Zero)
		return nil, &domain.PersistenceError{Op: "find open entries", Err: err}
	}

	allocation := domain.Allocate(entries)
	result := &RecalculationResult{
		CustomerID: customerID,
		Examined:   len(entries),
		Skipped:    len(allocation.Skipped),
		Ignored:    allocation.Ignored,
		Moved:      allocation.Moved,
	}

	if allocation.Ignored > 0 {
		log.Warn().
			Int("ignored", allocation.Ignored).
			Msg("open balance holds entries that cannot be allocated")
	}

	updates := make([]domain.LedgerEntry, 0, len(allocation.Dirty)+len(allocation.Skipped))
	updates = append(updates, allocation.Dirty...)

	for _, e := range allocation.Skipped {
		uc.metrics.InvariantViolation()
		log.Warn().
			Err(domain.ErrInvariantViolation).
			Str("entry_id", e.ID).
			Str("total", e.Total.String()).
			Str("allocated", e.Allocated.String()).
			Msg("removing closed entry from open balance")

		e.InOpenBalance = false
		updates = append(updates, e)
	}

	var errs []error
	for _, e := range updates {
		if err := uc.save(ctx, tx, e); err != nil {
			result.Failed++
			log.Error().Err(err).Str("entry_id", e.ID).Msg("failed to save allocation")
			errs = append(errs, &domain.PersistenceError{Op: "save allocation", EntryID: e.ID, Err: err})
			continue
		}

		result.Updated++
		if !e.InOpenBalance {
			result.Closed++
		}
	}

	outcome := OutcomeSuccess
	if len(errs) > 0 {
		outcome = OutcomePartial
	}
	uc.metrics.RecalculationCompleted(outcome, time.Since(start), result.Updated, result.Moved)

	log.Debug().
		Int("examined", result.Examined).
		Int("updated", result.Updated).
		Int("closed", result.Closed).
		Int("ignored", result.Ignored).
		Int("failed", result.Failed).
		Str("moved", result.Moved.String()).
		Msg("balance recalculated")

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}

	return result, nil
}

func (uc *RecalculateUseCase) save(ctx context.Context, tx Transaction, entry domain.LedgerEntry) error {
	// A failed statement aborts the caller's transaction, so only
	// autocommit saves are retried.
	if tx != nil {
		return uc.entryRepo.SaveAllocation(ctx, tx, entry)
	}

	return uc.retrier.Retry(ctx, func() error {
		return uc.entryRepo.SaveAllocation(ctx, nil, entry)
	})
}
