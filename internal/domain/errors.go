package domain

import (
	"errors"
	"fmt"
)

var (
	// Entry errors
	ErrEntryNotFound           = errors.New("ledger entry not found")
	ErrMissingCustomer         = errors.New("ledger entry has no customer")
	ErrInvalidAmount           = errors.New("amount must not be negative")
	ErrInvalidEntryType        = errors.New("unknown ledger entry type")
	ErrAllocationOutOfRange    = errors.New("allocated amount must be between zero and the entry total")
	ErrInvalidStatusTransition = errors.New("invalid ledger entry status transition")

	// Balance errors
	ErrInvariantViolation = errors.New("open balance entry is already fully allocated")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCustomerLocked     = errors.New("customer ledger is locked by another operation")
	ErrBalanceRulesActive = errors.New("balance rules are active")
)

// PersistenceError reports a failed read or write against the entry store.
// Allocation is idempotent, so the operation is always safe to retry.
type PersistenceError struct {
	Op      string
	EntryID string
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.EntryID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s entry %s: %v", e.Op, e.EntryID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
