package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/custbalance/internal/domain"
	"github.com/iho/custbalance/internal/infrastructure/postgres/generated"
	"github.com/iho/custbalance/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepositoryWithDB(pool)
}

func newEntryRepositoryWithDB(db generated.DBTX) *EntryRepository {
	return &EntryRepository{queries: generated.New(db)}
}

// Create inserts a new ledger entry.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	_, err := queriesFor(r.queries, tx).CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
		ID:            entry.ID,
		CustomerID:    entry.CustomerID,
		EntryType:     string(entry.Type),
		Status:        string(entry.Status),
		Total:         decimalToNumeric(entry.Total),
		Allocated:     decimalToNumeric(entry.Allocated),
		InOpenBalance: entry.InOpenBalance,
		PostedAt:      nullableTimestamptz(entry.PostedAt),
		CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
		UpdatedAt:     timeToPgTimestamptz(entry.UpdatedAt),
	})

	return err
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	row, err := r.queries.GetLedgerEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	entry := rowToLedgerEntry(row)
	return &entry, nil
}

// GetByIDForUpdate retrieves an entry by ID with a FOR UPDATE lock.
func (r *EntryRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	row, err := queriesFor(r.queries, tx).GetLedgerEntryByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	entry := rowToLedgerEntry(row)
	return &entry, nil
}

// UpdateStatus persists the status, posting time and open balance flag.
func (r *EntryRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	entry.UpdatedAt = time.Now().UTC()

	n, err := queriesFor(r.queries, tx).UpdateLedgerEntryStatus(ctx, generated.UpdateLedgerEntryStatusParams{
		ID:            entry.ID,
		Status:        string(entry.Status),
		PostedAt:      nullableTimestamptz(entry.PostedAt),
		InOpenBalance: entry.InOpenBalance,
		UpdatedAt:     timeToPgTimestamptz(entry.UpdatedAt),
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// FindOpenEntries retrieves the posted entries of a customer in the open
// balance. The rows stay locked until tx ends.
func (r *EntryRepository) FindOpenEntries(ctx context.Context, tx usecase.Transaction, customerID string) ([]domain.LedgerEntry, error) {
	rows, err := queriesFor(r.queries, tx).GetOpenLedgerEntriesByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return rowsToLedgerEntries(rows), nil
}

// FindUnlinkedEntries retrieves posted entries with an unallocated amount
// that are missing from the open balance.
func (r *EntryRepository) FindUnlinkedEntries(ctx context.Context, tx usecase.Transaction, customerID string) ([]domain.LedgerEntry, error) {
	rows, err := queriesFor(r.queries, tx).GetUnlinkedLedgerEntriesByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return rowsToLedgerEntries(rows), nil
}

// SaveAllocation persists the allocated amount and open balance flag.
func (r *EntryRepository) SaveAllocation(ctx context.Context, tx usecase.Transaction, entry domain.LedgerEntry) error {
	n, err := queriesFor(r.queries, tx).UpdateLedgerEntryAllocation(ctx, generated.UpdateLedgerEntryAllocationParams{
		ID:            entry.ID,
		Allocated:     decimalToNumeric(entry.Allocated),
		InOpenBalance: entry.InOpenBalance,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}

	return nil
}

// FindCustomersWithOpenEntries lists the distinct customers with open entries.
func (r *EntryRepository) FindCustomersWithOpenEntries(ctx context.Context) ([]string, error) {
	return r.queries.ListCustomersWithOpenEntries(ctx)
}

func rowsToLedgerEntries(rows []generated.LedgerEntry) []domain.LedgerEntry {
	entries := make([]domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToLedgerEntry(row))
	}

	return entries
}

func rowToLedgerEntry(row generated.LedgerEntry) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:            row.ID,
		CustomerID:    row.CustomerID,
		Type:          domain.EntryType(row.EntryType),
		Status:        domain.EntryStatus(row.Status),
		Total:         numericToDecimal(row.Total),
		Allocated:     numericToDecimal(row.Allocated),
		InOpenBalance: row.InOpenBalance,
		PostedAt:      timestamptzToTime(row.PostedAt),
		CreatedAt:     timestamptzToTime(row.CreatedAt),
		UpdatedAt:     timestamptzToTime(row.UpdatedAt),
	}
}
