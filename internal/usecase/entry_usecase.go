package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/custbalance/internal/domain"
)

// EntryUseCase accepts ledger entries from billing and serves entry lookups.
type EntryUseCase struct {
	entryRepo    EntryRepository
	customerRepo CustomerRepository
	idGen        IDGenerator
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(entryRepo EntryRepository, customerRepo CustomerRepository, idGen IDGenerator) *EntryUseCase {
	return &EntryUseCase{
		entryRepo:    entryRepo,
		customerRepo: customerRepo,
		idGen:        idGen,
	}
}

// CreateEntryInput represents input for creating a ledger entry.
type CreateEntryInput struct {
	CustomerID string
	Type       domain.EntryType
	Total      decimal.Decimal
	// Allocated is non-zero for entries whose total is already settled elsewhere.
	Allocated decimal.Decimal
}

// CreateEntry stores a new in-progress entry. It joins the open balance
// only once posted.
func (uc *EntryUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.LedgerEntry, error) {
	now := time.Now().UTC()

	entry := &domain.LedgerEntry{
		ID:         uc.idGen.Generate(),
		CustomerID: input.CustomerID,
		Type:       input.Type,
		Status:     domain.StatusInProgress,
		Total:      input.Total,
		Allocated:  input.Allocated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := entry.ValidateNew(); err != nil {
		return nil, err
	}

	if _, err := uc.customerRepo.GetByID(ctx, input.CustomerID); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.Create(ctx, nil, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// GetEntry retrieves an entry by ID.
func (uc *EntryUseCase) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// ListOpenEntries lists a customer's open balance entries, oldest first.
func (uc *EntryUseCase) ListOpenEntries(ctx context.Context, customerID string) ([]domain.LedgerEntry, error) {
	if _, err := uc.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.FindOpenEntries(ctx, nil, customerID)
	if err != nil {
		return nil, err
	}

	sortByPostedAt(entries)
	return entries, nil
}
