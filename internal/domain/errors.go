package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrDuplicateAccountNumber = errors.New("account number already exists")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInsufficientBalance = errors.New("insufficient balance")

	// Report errors
	ErrOwnerNotFound = errors.New("owner not found")
	ErrInvalidRange  = errors.New("invalid date range: from is after to")

	// Collaborator errors
	ErrUpstreamFailure = errors.New("upstream service failure")
)

// InsufficientBalanceError describes the first point in a chain where the
// running balance went below zero.
type InsufficientBalanceError struct {
	AccountID     string
	TransactionID string
	Date          time.Time
	Balance       decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	if e.TransactionID == "" {
		return fmt.Sprintf("insufficient balance: account %s would reach %s at %s",
			e.AccountID, e.Balance.String(), e.Date.Format(time.RFC3339))
	}

	return fmt.Sprintf("insufficient balance: account %s would reach %s at transaction %s (%s)",
		e.AccountID, e.Balance.String(), e.TransactionID, e.Date.Format(time.RFC3339))
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// IsNotFound reports whether err means a referenced resource is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsClientError reports whether err is caused by caller input. Such errors
// need different input to succeed and must not be retried as-is.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrInvalidAccountNumber) ||
		errors.Is(err, ErrInvalidAccountType) ||
		errors.Is(err, ErrInvalidInitialBalance) ||
		errors.Is(err, ErrInvalidOwner) ||
		errors.Is(err, ErrDuplicateAccountNumber) ||
		errors.Is(err, ErrOwnerNotFound)
}
