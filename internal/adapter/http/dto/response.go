package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/custbalance/internal/domain"
	"github.com/iho/custbalance/internal/usecase"
)

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID            string          `json:"id"`
	CustomerID    string          `json:"customer_id"`
	Type          string          `json:"type"`
	Kind          string          `json:"kind"`
	Status        string          `json:"status"`
	Total         decimal.Decimal `json:"total"`
	Allocated     decimal.Decimal `json:"allocated"`
	Unallocated   decimal.Decimal `json:"unallocated"`
	InOpenBalance bool            `json:"in_open_balance"`
	PostedAt      *time.Time      `json:"posted_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	resp := &EntryResponse{
		ID:            e.ID,
		CustomerID:    e.CustomerID,
		Type:          string(e.Type),
		Kind:          string(e.Kind()),
		Status:        string(e.Status),
		Total:         e.Total,
		Allocated:     e.Allocated,
		Unallocated:   e.Unallocated(),
		InOpenBalance: e.InOpenBalance,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
	if !e.PostedAt.IsZero() {
		postedAt := e.PostedAt
		resp.PostedAt = &postedAt
	}
	return resp
}

// EntriesResponse is a list of entries.
type EntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
}

// EntriesFromDomain converts a slice of domain entries.
func EntriesFromDomain(entries []domain.LedgerEntry) *EntriesResponse {
	resp := &EntriesResponse{Entries: make([]*EntryResponse, len(entries))}
	for i := range entries {
		resp.Entries[i] = EntryFromDomain(&entries[i])
	}
	return resp
}

// BalanceResponse summarises a customer's open balance. A negative
// outstanding amount means the customer is in credit.
type BalanceResponse struct {
	CustomerID         string          `json:"customer_id"`
	Outstanding        decimal.Decimal `json:"outstanding"`
	UnallocatedDebits  decimal.Decimal `json:"unallocated_debits"`
	UnallocatedCredits decimal.Decimal `json:"unallocated_credits"`
	OpenEntries        int             `json:"open_entries"`
}

// BalanceFromDomain converts a balance summary.
func BalanceFromDomain(b *domain.CustomerBalance) *BalanceResponse {
	return &BalanceResponse{
		CustomerID:         b.CustomerID,
		Outstanding:        b.Outstanding,
		UnallocatedDebits:  b.UnallocatedDebits,
		UnallocatedCredits: b.UnallocatedCredits,
		OpenEntries:        b.OpenEntries,
	}
}

// RecalculationResponse reports the outcome of a recalculation.
type RecalculationResponse struct {
	CustomerID string          `json:"customer_id"`
	Examined   int             `json:"examined"`
	Updated    int             `json:"updated"`
	Closed     int             `json:"closed"`
	Skipped    int             `json:"skipped"`
	Ignored    int             `json:"ignored"`
	Linked     int             `json:"linked"`
	Moved      decimal.Decimal `json:"moved"`
}

// RecalculationFromResult converts a recalculation result. Linked entries
// are reported apart from Updated; an entry can be linked and then
// reallocated in the same run.
func RecalculationFromResult(r *usecase.RecalculationResult, linked int) *RecalculationResponse {
	return &RecalculationResponse{
		CustomerID: r.CustomerID,
		Examined:   r.Examined,
		Updated:    r.Updated,
		Closed:     r.Closed,
		Skipped:    r.Skipped,
		Ignored:    r.Ignored,
		Linked:     linked,
		Moved:      r.Moved,
	}
}

// OutstandingResponse lists customers with open balance entries.
type OutstandingResponse struct {
	CustomerIDs []string `json:"customer_ids"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
