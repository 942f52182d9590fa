package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a ledger account whose transactions form a balance chain.
type Account struct {
	ID             string
	AccountNumber  string
	AccountType    string
	OwnerID        string
	InitialBalance decimal.Decimal
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the caller-editable fields of an account.
func (a *Account) Validate() error {
	if err := ValidateAccountNumber(a.AccountNumber); err != nil {
		return err
	}

	if err := ValidateAccountType(a.AccountType); err != nil {
		return err
	}

	if err := ValidateOwnerID(a.OwnerID); err != nil {
		return err
	}

	return ValidateInitialBalance(a.InitialBalance)
}

