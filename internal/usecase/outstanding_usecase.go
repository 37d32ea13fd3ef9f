package usecase

import (
	"context"
	"sort"

	"github.com/iho/custbalance/internal/domain"
)

// OutstandingUseCase answers read-only questions about open balances.
// Store errors are returned as they are.
type OutstandingUseCase struct {
	entryRepo    EntryRepository
	customerRepo CustomerRepository
}

// NewOutstandingUseCase creates a new OutstandingUseCase.
func NewOutstandingUseCase(entryRepo EntryRepository, customerRepo CustomerRepository) *OutstandingUseCase {
	return &OutstandingUseCase{
		entryRepo:    entryRepo,
		customerRepo: customerRepo,
	}
}

// CustomersWithOpenEntries returns the distinct, sorted IDs of customers
// with at least one open balance entry.
func (uc *OutstandingUseCase) CustomersWithOpenEntries(ctx context.Context) ([]string, error) {
	ids, err := uc.entryRepo.FindCustomersWithOpenEntries(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	sort.Strings(unique)
	return unique, nil
}

// GetBalance summarises the outstanding balance of a customer.
func (uc *OutstandingUseCase) GetBalance(ctx context.Context, customerID string) (*domain.CustomerBalance, error) {
	if _, err := uc.customerRepo.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	entries, err := uc.entryRepo.FindOpenEntries(ctx, nil, customerID)
	if err != nil {
		return nil, err
	}

	return domain.SummariseBalance(customerID, entries), nil
}

func sortByPostedAt(entries []domain.LedgerEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].PostedAt.Equal(entries[j].PostedAt) {
			return entries[i].PostedAt.Before(entries[j].PostedAt)
		}
		return entries[i].ID < entries[j].ID
	})
}
