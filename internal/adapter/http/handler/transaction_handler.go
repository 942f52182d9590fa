package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/balanceledger/internal/adapter/http/dto"
	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	Append(ctx context.Context, input usecase.AppendTransactionInput) (*domain.Transaction, error)
	Recompute(ctx context.Context, input usecase.UpdateTransactionInput) (*domain.Transaction, error)
	Delete(ctx context.Context, transactionID string) error
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error)
}

// TransactionHandler handles transaction-related HTTP requests.
type TransactionHandler struct {
	transactionUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionUC: transactionUC}
}

// Append records a transaction on the account in the URL.
func (h *TransactionHandler) Append(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	transaction, err := h.transactionUC.Append(r.Context(), req.ToAppendInput(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, r, "failed to record transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(transaction))
}

// ListByAccount returns the chain of an account in order.
func (h *TransactionHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	transactions, err := h.transactionUC.ListByAccount(r.Context(), accountID)
	if err != nil {
		respondError(w, r, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListTransactionsResponse{
		AccountID:    accountID,
		Transactions: dto.TransactionsFromDomain(transactions),
	})
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.transactionUC.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// Update edits a transaction and recomputes the chain.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	transaction, err := h.transactionUC.Recompute(r.Context(), req.ToUpdateInput(chi.URLParam(r, "id")))
	if err != nil {
		respondError(w, r, "failed to update transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// Delete removes a transaction and recomputes the chain.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.transactionUC.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, "failed to delete transaction", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
