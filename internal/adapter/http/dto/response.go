package dto

import (
	"time"

	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string    `json:"id"`
	AccountNumber  string    `json:"account_number"`
	AccountType    string    `json:"account_type"`
	OwnerID        string    `json:"owner_id"`
	InitialBalance string    `json:"initial_balance"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		AccountNumber:  a.AccountNumber,
		AccountType:    a.AccountType,
		OwnerID:        a.OwnerID,
		InitialBalance: a.InitialBalance.String(),
		Active:         a.Active,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Date      Timestamp `json:"date"`
	Kind      string    `json:"kind"`
	Amount    string    `json:"amount"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransactionFromDomain converts domain transaction to response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:        t.ID,
		AccountID: t.AccountID,
		Date:      Timestamp{t.Date},
		Kind:      t.Kind,
		Amount:    t.Amount.String(),
		Balance:   t.Balance.String(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// ListTransactionsResponse represents a chain listing.
type ListTransactionsResponse struct {
	AccountID    string                 `json:"account_id"`
	Transactions []*TransactionResponse `json:"transactions"`
}

// BalanceResponse is the balance of an account at a point in time.
type BalanceResponse struct {
	AccountID string    `json:"account_id"`
	At        Timestamp `json:"at"`
	Balance   string    `json:"balance"`
}

// WindowResponse lists the transactions of an account within a date window.
type WindowResponse struct {
	AccountID    string                 `json:"account_id"`
	From         Timestamp              `json:"from"`
	To           Timestamp              `json:"to"`
	Transactions []*TransactionResponse `json:"transactions"`
}

// AccountStatementResponse is one account within a report.
type AccountStatementResponse struct {
	Account      *AccountResponse       `json:"account"`
	Balance      string                 `json:"balance"`
	Transactions []*TransactionResponse `json:"transactions"`
}

// ReportResponse is an owner statement.
type ReportResponse struct {
	OwnerID     string                      `json:"owner_id"`
	From        Timestamp                   `json:"from"`
	To          Timestamp                   `json:"to"`
	Accounts    []*AccountStatementResponse `json:"accounts"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// ReportFromDomain converts a domain report to response.
func ReportFromDomain(r *domain.Report) *ReportResponse {
	accounts := make([]*AccountStatementResponse, len(r.Accounts))
	for i, s := range r.Accounts {
		accounts[i] = &AccountStatementResponse{
			Account:      AccountFromDomain(s.Account),
			Balance:      s.Balance.String(),
			Transactions: TransactionsFromDomain(s.Transactions),
		}
	}

	return &ReportResponse{
		OwnerID:     r.OwnerID,
		From:        Timestamp{r.From},
		To:          Timestamp{r.To},
		Accounts:    accounts,
		GeneratedAt: r.GeneratedAt,
	}
}

// ChainMismatchResponse describes the first inconsistent transaction.
type ChainMismatchResponse struct {
	TransactionID string `json:"transaction_id"`
	Position      int    `json:"position"`
	Recorded      string `json:"recorded"`
	Expected      string `json:"expected"`
}

// ChainVerificationResponse is the result of verifying an account chain.
type ChainVerificationResponse struct {
	AccountID         string                 `json:"account_id"`
	Transactions      int                    `json:"transactions"`
	RecordedBalance   string                 `json:"recorded_balance"`
	CalculatedBalance string                 `json:"calculated_balance"`
	IsConsistent      bool                   `json:"is_consistent"`
	Mismatch          *ChainMismatchResponse `json:"mismatch,omitempty"`
	CheckedAt         time.Time              `json:"checked_at"`
}

// ChainVerificationFromUseCase converts a verification result to response.
func ChainVerificationFromUseCase(v *usecase.ChainVerification) *ChainVerificationResponse {
	resp := &ChainVerificationResponse{
		AccountID:         v.AccountID,
		Transactions:      v.Transactions,
		RecordedBalance:   v.RecordedBalance.String(),
		CalculatedBalance: v.CalculatedBalance.String(),
		IsConsistent:      v.IsConsistent,
		CheckedAt:         v.CheckedAt,
	}

	if m := v.Mismatch; m != nil {
		resp.Mismatch = &ChainMismatchResponse{
			TransactionID: m.TransactionID,
			Position:      m.Position,
			Recorded:      m.Recorded.String(),
			Expected:      m.Expected.String(),
		}
	}

	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
