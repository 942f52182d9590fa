package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidDate           = errors.New("invalid transaction date")
	ErrInvalidKind           = errors.New("invalid transaction kind")
	ErrInvalidAccountNumber  = errors.New("invalid account number")
	ErrInvalidAccountType    = errors.New("invalid account type")
	ErrInvalidInitialBalance = errors.New("invalid initial balance")
	ErrInvalidOwner          = errors.New("invalid owner id")
)

// Validation constants
const (
	MaxAccountNumberLength = 32
	MaxAccountTypeLength   = 50
	MaxKindLength          = 50
	MaxOwnerIDLength       = 64
	MaxAmount              = "1000000000000" // 1 trillion
	MaxAmountScale         = 8
)

var maxAmount = decimal.RequireFromString(MaxAmount)

// ValidateAmount validates a signed transaction amount.
func ValidateAmount(amount *decimal.Decimal) error {
	if amount == nil {
		return fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}

	if amount.Abs().GreaterThan(maxAmount) {
		return fmt.Errorf("%w: magnitude exceeds %s", ErrInvalidAmount, MaxAmount)
	}

	if -amount.Exponent() > MaxAmountScale {
		return fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, MaxAmountScale)
	}

	return nil
}

// ParseAmount parses a signed decimal amount from its string form.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q is not a decimal", ErrInvalidAmount, s)
	}

	if err := ValidateAmount(&d); err != nil {
		return decimal.Zero, err
	}

	return d, nil
}

// ValidateDate validates a transaction date.
func ValidateDate(date time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidDate)
	}

	return nil
}

// ValidateKind validates a transaction kind label such as "deposit".
func ValidateKind(kind string) error {
	kind = strings.TrimSpace(kind)

	if kind == "" {
		return fmt.Errorf("%w: kind cannot be empty", ErrInvalidKind)
	}

	if len(kind) > MaxKindLength {
		return fmt.Errorf("%w: kind exceeds %d characters", ErrInvalidKind, MaxKindLength)
	}

	return nil
}

// ValidateAccountNumber validates an account number.
func ValidateAccountNumber(number string) error {
	number = strings.TrimSpace(number)

	if number == "" {
		return fmt.Errorf("%w: account number cannot be empty", ErrInvalidAccountNumber)
	}

	if len(number) > MaxAccountNumberLength {
		return fmt.Errorf("%w: account number exceeds %d characters", ErrInvalidAccountNumber, MaxAccountNumberLength)
	}

	for _, r := range number {
		if !(r >= '0' && r <= '9') && !(r >= 'A' && r <= 'Z') && !(r >= 'a' && r <= 'z') && r != '-' {
			return fmt.Errorf("%w: only letters, digits and '-' are allowed", ErrInvalidAccountNumber)
		}
	}

	return nil
}

// ValidateAccountType validates an account type label such as "savings".
func ValidateAccountType(accountType string) error {
	accountType = strings.TrimSpace(accountType)

	if accountType == "" {
		return fmt.Errorf("%w: account type cannot be empty", ErrInvalidAccountType)
	}

	if len(accountType) > MaxAccountTypeLength {
		return fmt.Errorf("%w: account type exceeds %d characters", ErrInvalidAccountType, MaxAccountTypeLength)
	}

	return nil
}

// ValidateOwnerID validates the opaque owner reference.
func ValidateOwnerID(ownerID string) error {
	ownerID = strings.TrimSpace(ownerID)

	if ownerID == "" {
		return fmt.Errorf("%w: owner id is required", ErrInvalidOwner)
	}

	if len(ownerID) > MaxOwnerIDLength {
		return fmt.Errorf("%w: owner id exceeds %d characters", ErrInvalidOwner, MaxOwnerIDLength)
	}

	return nil
}

// ValidateInitialBalance validates an account's opening balance.
func ValidateInitialBalance(balance decimal.Decimal) error {
	if balance.IsNegative() {
		return fmt.Errorf("%w: initial balance cannot be negative", ErrInvalidInitialBalance)
	}

	if balance.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: initial balance exceeds %s", ErrInvalidInitialBalance, MaxAmount)
	}

	return nil
}

// ValidateRange validates a closed date window.
func ValidateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: from and to are required", ErrInvalidRange)
	}

	if from.After(to) {
		return ErrInvalidRange
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
