package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge         = errors.New("amount exceeds maximum allowed")
	ErrInvalidCustomerPattern = errors.New("invalid customer name pattern")
)

// Validation constants
const (
	MaxEntryAmount           = "1000000000000" // 1 trillion
	MaxCustomerPatternLength = 255
	MaxDecimalPlaces         = 2
)

// ValidateAmount validates an entry total. Zero totals are allowed.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	maxAmount, _ := decimal.NewFromString(MaxEntryAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEntryAmount)
	}

	if !amount.Equal(amount.Round(MaxDecimalPlaces)) {
		return fmt.Errorf("%w: at most %d decimal places", ErrInvalidAmount, MaxDecimalPlaces)
	}

	return nil
}

// CustomerNamePattern converts a "*" wildcard customer name filter into a
// SQL ILIKE pattern. An empty filter matches every customer.
func CustomerNamePattern(filter string) (string, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return "%", nil
	}

	if len(filter) > MaxCustomerPatternLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidCustomerPattern, MaxCustomerPatternLength)
	}

	replacer := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`, "*", "%")
	return replacer.Replace(filter), nil
}
