package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/custbalance/internal/domain"
	"github.com/iho/custbalance/internal/usecase"
)

// CreateEntryRequest represents a ledger entry handed over by billing.
// Amounts are decimal strings so no precision is lost in JSON.
type CreateEntryRequest struct {
	CustomerID string `json:"customer_id"`
	Type       string `json:"type"`
	Total      string `json:"total"`
	Allocated  string `json:"allocated,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput() (usecase.CreateEntryInput, error) {
	total, err := parseAmount("total", r.Total)
	if err != nil {
		return usecase.CreateEntryInput{}, err
	}

	allocated := decimal.Zero
	if r.Allocated != "" {
		allocated, err = parseAmount("allocated", r.Allocated)
		if err != nil {
			return usecase.CreateEntryInput{}, err
		}
	}

	return usecase.CreateEntryInput{
		CustomerID: r.CustomerID,
		Type:       domain.EntryType(r.Type),
		Total:      total,
		Allocated:  allocated,
	}, nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", domain.ErrInvalidAmount, field, value)
	}
	return d, nil
}
