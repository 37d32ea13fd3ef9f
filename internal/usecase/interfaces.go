package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/custbalance/internal/domain"
)

// EntryRepository defines data access for ledger entries.
// A nil Transaction runs the statement on its own connection.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerEntry, error)
	UpdateStatus(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	// FindOpenEntries returns the posted entries of a customer flagged open, in no particular order.
	FindOpenEntries(ctx context.Context, tx Transaction, customerID string) ([]domain.LedgerEntry, error)
	// FindUnlinkedEntries returns posted entries with an unallocated amount that are not flagged open.
	FindUnlinkedEntries(ctx context.Context, tx Transaction, customerID string) ([]domain.LedgerEntry, error)
	// SaveAllocation persists the allocated amount and the open balance flag.
	SaveAllocation(ctx context.Context, tx Transaction, entry domain.LedgerEntry) error
	FindCustomersWithOpenEntries(ctx context.Context) ([]string, error)
}

// CustomerRepository defines data access for customers.
type CustomerRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	// List returns customers whose name matches an ILIKE pattern, ordered by name.
	List(ctx context.Context, namePattern string) ([]*domain.Customer, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient store failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Locker serialises work on a single customer's ledger.
type Locker interface {
	// Lock blocks until the key is held or the wait expires with domain.ErrCustomerLocked.
	Lock(ctx context.Context, key string) (unlock func(context.Context) error, err error)
}

// IdempotentResponse is a completed response kept for replay.
type IdempotentResponse struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// Reserve claims key. When the key is taken it returns false with the
	// stored response, or a nil response while the first request is running.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, *IdempotentResponse, error)
	// Complete stores the final response for key.
	Complete(ctx context.Context, key string, resp IdempotentResponse, ttl time.Duration) error
	// Release drops a reservation so the request can be retried.
	Release(ctx context.Context, key string) error
}

// BalanceMetrics records allocation activity.
type BalanceMetrics interface {
	RecalculationCompleted(outcome string, duration time.Duration, updated int, moved decimal.Decimal)
	InvariantViolation()
	BatchCustomerProcessed(outcome string)
}

// Clock returns the current time.
type Clock func() time.Time
