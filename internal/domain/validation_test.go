package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	ptr := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	tests := []struct {
		name    string
		amount  *decimal.Decimal
		wantErr bool
	}{
		{"positive", ptr("50.00"), false},
		{"negative", ptr("-200.00"), false},
		{"zero", ptr("0"), false},
		{"missing", nil, true},
		{"too large", ptr("1000000000000.01"), true},
		{"too large negative", ptr("-1000000000001"), true},
		{"too many decimals", ptr("0.000000001"), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(tt.amount)
			if tt.wantErr && !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("expected ErrInvalidAmount, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	d, err := ParseAmount(" -25.50 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("-25.5")) {
		t.Fatalf("expected -25.5, got %s", d)
	}

	for _, bad := range []string{"", "abc", "1,000"} {
		if _, err := ParseAmount(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount for %q, got %v", bad, err)
		}
	}
}

func TestValidateKind(t *testing.T) {
	t.Parallel()

	if err := ValidateKind("deposit"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ValidateKind("   "); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}

	if err := ValidateKind(strings.Repeat("k", MaxKindLength+1)); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind for long kind, got %v", err)
	}
}

func TestValidateDate(t *testing.T) {
	t.Parallel()

	if err := ValidateDate(time.Time{}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	if err := ValidateDate(time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateAccountNumber(t *testing.T) {
	t.Parallel()

	if err := ValidateAccountNumber("225487-01"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ValidateAccountNumber(strings.Repeat("1", MaxAccountNumberLength+1)); !errors.Is(err, ErrInvalidAccountNumber) {
		t.Fatalf("expected ErrInvalidAccountNumber, got %v", err)
	}

	if err := ValidateAccountNumber("12 34"); !errors.Is(err, ErrInvalidAccountNumber) {
		t.Fatalf("expected ErrInvalidAccountNumber for whitespace, got %v", err)
	}
}

func TestValidateRange(t *testing.T) {
	t.Parallel()

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)

	if err := ValidateRange(from, to); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ValidateRange(from, from); err != nil {
		t.Fatalf("single instant window should be valid, got %v", err)
	}

	if err := ValidateRange(to, from); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}

	if err := ValidateRange(time.Time{}, to); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for zero from, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset, err := ValidatePagination(0, -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 50 || offset != 0 {
		t.Fatalf("expected defaults 50/0, got %d/%d", limit, offset)
	}

	limit, _, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Fatalf("expected limit capped to 1000, got %d", limit)
	}
}
