package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	for _, valid := range []decimal.Decimal{decimal.Zero, decimal.NewFromFloat(100.25), decimal.RequireFromString("12.500")} {
		if err := ValidateAmount(valid); err != nil {
			t.Fatalf("expected %s to be valid, got %v", valid, err)
		}
	}

	if err := ValidateAmount(decimal.NewFromInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	if err := ValidateAmount(decimal.RequireFromString("0.001")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for sub-cent amount, got %v", err)
	}

	tooLarge := decimal.RequireFromString(MaxEntryAmount).Add(decimal.NewFromInt(1))
	if err := ValidateAmount(tooLarge); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestCustomerNamePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filter string
		want   string
	}{
		{"", "%"},
		{"  ", "%"},
		{"Smith*", "Smith%"},
		{"*son", "%son"},
		{"O'Brien", "O'Brien"},
		{"100%_off*", `100\%\_off%`},
	}

	for _, tt := range tests {
		got, err := CustomerNamePattern(tt.filter)
		if err != nil {
			t.Fatalf("CustomerNamePattern(%q) returned error: %v", tt.filter, err)
		}
		if got != tt.want {
			t.Fatalf("CustomerNamePattern(%q) = %q, want %q", tt.filter, got, tt.want)
		}
	}

	if _, err := CustomerNamePattern(strings.Repeat("a", MaxCustomerPatternLength+1)); !errors.Is(err, ErrInvalidCustomerPattern) {
		t.Fatalf("expected ErrInvalidCustomerPattern, got %v", err)
	}
}
