package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/custbalance/internal/domain"
)

// PostingUseCase posts ledger entries. Posting and the recalculation it
// triggers share one transaction, so a failed recalculation rolls the
// posting back as well.
type PostingUseCase struct {
	txManager    TransactionManager
	entryRepo    EntryRepository
	recalculator *RecalculateUseCase
	locker       Locker
	rulesEnabled bool
	now          Clock
	logger       zerolog.Logger
}

// PostingConfig holds dependencies for PostingUseCase.
type PostingConfig struct {
	TxManager    TransactionManager
	EntryRepo    EntryRepository
	Recalculator *RecalculateUseCase
	Locker       Locker
	// RulesEnabled turns on open balance membership and recalculation on post.
	// Disable it while a batch regeneration is running.
	RulesEnabled bool
	Clock        Clock
	Logger       zerolog.Logger
}

// NewPostingUseCase creates a new PostingUseCase.
func NewPostingUseCase(cfg PostingConfig) *PostingUseCase {
	if cfg.Locker == nil {
		cfg.Locker = noLock{}
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}

	return &PostingUseCase{
		txManager:    cfg.TxManager,
		entryRepo:    cfg.EntryRepo,
		recalculator: cfg.Recalculator,
		locker:       cfg.Locker,
		rulesEnabled: cfg.RulesEnabled,
		now:          cfg.Clock,
		logger:       cfg.Logger,
	}
}

// PostEntry transitions an entry to posted, adds it to the open balance and
// reallocates the customer's balance.
func (uc *PostingUseCase) PostEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	// 1. Resolve the owning customer before taking its lock
	current, err := uc.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	if current.CustomerID == "" {
		return nil, domain.ErrMissingCustomer
	}

	// 2. Serialise with other work on this customer's ledger
	unlock, err := uc.locker.Lock(ctx, customerLockKey(current.CustomerID))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			uc.logger.Warn().Err(err).Str("customer_id", current.CustomerID).Msg("failed to release customer lock")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 3. Begin transaction
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	// 4. Status transition and pre-save hook
	if err := domain.NewEntryLifecycle(entry).Post(ctx, uc.now()); err != nil {
		return nil, err
	}

	if uc.rulesEnabled {
		if err := domain.OnEntryPosted(entry); err != nil {
			return nil, err
		}
	}

	if err := uc.entryRepo.UpdateStatus(ctx, tx, entry); err != nil {
		return nil, err
	}

	// 5. Post-save recalculation
	if uc.rulesEnabled && entry.InOpenBalance {
		result, err := uc.recalculator.RecalculateTx(ctx, tx, entry.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("recalculate balance for customer %s: %w", entry.CustomerID, err)
		}

		uc.logger.Info().
			Str("entry_id", entry.ID).
			Str("customer_id", entry.CustomerID).
			Int("updated", result.Updated).
			Str("moved", result.Moved.String()).
			Msg("entry posted")
	}

	// 6. Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	// Reflect the allocation the recalculation may have applied.
	if uc.rulesEnabled && entry.InOpenBalance {
		refreshed, err := uc.entryRepo.GetByID(ctx, entryID)
		if err == nil {
			return refreshed, nil
		}
		uc.logger.Warn().Err(err).Str("entry_id", entryID).Msg("failed to reload posted entry")
	}

	return entry, nil
}

// CompleteEntry marks an in-progress entry completed. Completed entries are
// not yet part of the customer's balance, so no lock or recalculation is
// needed.
func (uc *PostingUseCase) CompleteEntry(ctx context.Context, entryID string) (*domain.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.entryRepo.GetByIDForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}

	if err := domain.NewEntryLifecycle(entry).Complete(ctx); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.UpdateStatus(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("customer_id", entry.CustomerID).
		Msg("entry completed")

	return entry, nil
}
