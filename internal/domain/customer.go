package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Customer owns a ledger.
type Customer struct {
	CreatedAt time.Time
	ID        string
	Name      string
}

// CustomerBalance summarises a customer's open entries.
type CustomerBalance struct {
	CustomerID         string
	Outstanding        decimal.Decimal
	UnallocatedDebits  decimal.Decimal
	UnallocatedCredits decimal.Decimal
	OpenEntries        int
}

// SummariseBalance computes the outstanding balance over open entries.
// A negative Outstanding means the customer is in credit.
func SummariseBalance(customerID string, entries []LedgerEntry) *CustomerBalance {
	b := &CustomerBalance{
		CustomerID:         customerID,
		UnallocatedDebits:  decimal.Zero,
		UnallocatedCredits: decimal.Zero,
	}

	for _, e := range entries {
		if !e.IsPosted() || !e.IsOpen() {
			continue
		}

		b.OpenEntries++
		switch e.Kind() {
		case KindDebit:
			b.UnallocatedDebits = b.UnallocatedDebits.Add(e.Unallocated())
		case KindCredit:
			b.UnallocatedCredits = b.UnallocatedCredits.Add(e.Unallocated())
		}
	}

	b.Outstanding = b.UnallocatedDebits.Sub(b.UnallocatedCredits)
	return b
}
