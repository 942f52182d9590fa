package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/adapter/http/dto"
	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/usecase"
)

// ReportService defines the behavior needed by ReportHandler.
type ReportService interface {
	BalanceAsOf(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error)
	Window(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error)
	GenerateReport(ctx context.Context, input usecase.GenerateReportInput) (*domain.Report, error)
}

// ReportHandler serves point-in-time balances, windows and owner reports.
type ReportHandler struct {
	reportUC ReportService
	now      func() time.Time
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC ReportService) *ReportHandler {
	return &ReportHandler{reportUC: reportUC, now: time.Now}
}

// Balance returns the balance of an account at ?at=, or now when omitted.
func (h *ReportHandler) Balance(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	at, err := parseTimeQuery(r, "at", h.now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid at", err.Error())
		return
	}

	balance, err := h.reportUC.BalanceAsOf(r.Context(), accountID, at)
	if err != nil {
		respondError(w, r, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		AccountID: accountID,
		At:        dto.Timestamp{Time: at},
		Balance:   balance.String(),
	})
}

// Window returns the transactions of an account dated within ?from= and ?to=.
func (h *ReportHandler) Window(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")

	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}

	transactions, err := h.reportUC.Window(r.Context(), accountID, from, to)
	if err != nil {
		respondError(w, r, "failed to get window", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WindowResponse{
		AccountID:    accountID,
		From:         dto.Timestamp{Time: from},
		To:           dto.Timestamp{Time: to},
		Transactions: dto.TransactionsFromDomain(transactions),
	})
}

// Report builds the statement of an owner. The owner is read from owner_id
// or, for older clients, clientId.
func (h *ReportHandler) Report(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}

	report, err := h.reportUC.GenerateReport(r.Context(), usecase.GenerateReportInput{
		OwnerID: firstQuery(r, "owner_id", "clientId"),
		From:    from,
		To:      to,
	})
	if err != nil {
		respondError(w, r, "failed to generate report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReportFromDomain(report))
}

func parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, err := parseTimeQuery(r, "from", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid from", err.Error())
		return time.Time{}, time.Time{}, false
	}

	to, err := parseTimeQuery(r, "to", time.Time{})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid to", err.Error())
		return time.Time{}, time.Time{}, false
	}

	return from, to, true
}
