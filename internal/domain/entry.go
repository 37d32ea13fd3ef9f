package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies an entry as increasing or decreasing what a customer owes.
type EntryKind string

const (
	KindDebit  EntryKind = "debit"
	KindCredit EntryKind = "credit"
)

// EntryType is the billing document type behind a ledger entry.
type EntryType string

const (
	// Debits
	TypeInvoice         EntryType = "invoice"
	TypeCounterSale     EntryType = "counter_sale"
	TypeRefund          EntryType = "refund"
	TypeDebitAdjustment EntryType = "debit_adjustment"
	TypeInitialBalance  EntryType = "initial_balance"

	// Credits
	TypePayment          EntryType = "payment"
	TypeCreditNote       EntryType = "credit_note"
	TypeCreditAdjustment EntryType = "credit_adjustment"
	TypeBadDebt          EntryType = "bad_debt"
)

var entryKinds = map[EntryType]EntryKind{
	TypeInvoice:          KindDebit,
	TypeCounterSale:      KindDebit,
	TypeRefund:           KindDebit,
	TypeDebitAdjustment:  KindDebit,
	TypeInitialBalance:   KindDebit,
	TypePayment:          KindCredit,
	TypeCreditNote:       KindCredit,
	TypeCreditAdjustment: KindCredit,
	TypeBadDebt:          KindCredit,
}

// Kind returns the kind of the entry type, or "" for unknown types.
func (t EntryType) Kind() EntryKind {
	return entryKinds[t]
}

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	_, ok := entryKinds[t]
	return ok
}

// EntryStatus is the workflow status of a ledger entry.
type EntryStatus string

const (
	StatusInProgress EntryStatus = "in_progress"
	StatusCompleted  EntryStatus = "completed"
	StatusPosted     EntryStatus = "posted"
)

// LedgerEntry is a single financial transaction in a customer's account.
type LedgerEntry struct {
	PostedAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ID            string
	CustomerID    string
	Type          EntryType
	Status        EntryStatus
	Total         decimal.Decimal
	Allocated     decimal.Decimal
	InOpenBalance bool
}

// Kind returns whether the entry is a debit or a credit.
func (e LedgerEntry) Kind() EntryKind {
	return e.Type.Kind()
}

// IsPosted reports whether the entry participates in balance calculation.
func (e LedgerEntry) IsPosted() bool {
	return e.Status == StatusPosted
}

// Unallocated returns the part of the total not yet matched against other entries.
func (e LedgerEntry) Unallocated() decimal.Decimal {
	return e.Total.Sub(e.Allocated)
}

// IsOpen reports whether the entry still has an unallocated amount.
func (e LedgerEntry) IsOpen() bool {
	return e.Allocated.LessThan(e.Total)
}

// IsFullyAllocated reports whether the whole total has been allocated.
func (e LedgerEntry) IsFullyAllocated() bool {
	return e.Allocated.Equal(e.Total)
}

// ValidateNew checks an entry handed over by billing before it is stored.
func (e LedgerEntry) ValidateNew() error {
	if e.CustomerID == "" {
		return ErrMissingCustomer
	}

	if !e.Type.Valid() {
		return ErrInvalidEntryType
	}

	if err := ValidateAmount(e.Total); err != nil {
		return err
	}

	if e.Allocated.IsNegative() || e.Allocated.GreaterThan(e.Total) {
		return ErrAllocationOutOfRange
	}

	return nil
}
