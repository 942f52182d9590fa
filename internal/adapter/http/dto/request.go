package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	AccountNumber  string          `json:"account_number"`
	AccountType    string          `json:"account_type"`
	OwnerID        string          `json:"owner_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Active         *bool           `json:"active,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		AccountNumber:  r.AccountNumber,
		AccountType:    r.AccountType,
		OwnerID:        r.OwnerID,
		InitialBalance: r.InitialBalance,
		Active:         r.Active,
	}
}

// UpdateAccountRequest replaces every editable field of an account.
type UpdateAccountRequest struct {
	AccountNumber  string          `json:"account_number"`
	AccountType    string          `json:"account_type"`
	OwnerID        string          `json:"owner_id"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	// Active defaults to true when omitted.
	Active *bool `json:"active,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateAccountRequest) ToUseCaseInput(id string) usecase.UpdateAccountInput {
	active := true
	if r.Active != nil {
		active = *r.Active
	}

	return usecase.UpdateAccountInput{
		ID:             id,
		AccountNumber:  r.AccountNumber,
		AccountType:    r.AccountType,
		OwnerID:        r.OwnerID,
		InitialBalance: r.InitialBalance,
		Active:         active,
	}
}

// TransactionRequest is the body for recording or editing a transaction.
// Balance is accepted for compatibility with existing clients and ignored:
// balances are always computed by the ledger.
type TransactionRequest struct {
	Date    Timestamp        `json:"date"`
	Kind    string           `json:"kind"`
	Amount  *decimal.Decimal `json:"amount"`
	Balance *decimal.Decimal `json:"balance,omitempty"`
}

// ToAppendInput converts to use case input for accountID.
func (r *TransactionRequest) ToAppendInput(accountID string) usecase.AppendTransactionInput {
	return usecase.AppendTransactionInput{
		AccountID: accountID,
		Date:      r.Date.Time,
		Kind:      r.Kind,
		Amount:    r.Amount,
	}
}

// ToUpdateInput converts to use case input for transactionID.
func (r *TransactionRequest) ToUpdateInput(transactionID string) usecase.UpdateTransactionInput {
	return usecase.UpdateTransactionInput{
		TransactionID: transactionID,
		Date:          r.Date.Time,
		Kind:          r.Kind,
		Amount:        r.Amount,
	}
}
