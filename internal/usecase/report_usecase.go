package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

// ReportUseCase answers historical questions about account chains.
// It never writes.
type ReportUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	owners          OwnerDirectory
	metrics         MetricsRecorder
}

// NewReportUseCase creates a new ReportUseCase.
func NewReportUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	owners OwnerDirectory,
	metrics MetricsRecorder,
) *ReportUseCase {
	return &ReportUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		owners:          owners,
		metrics:         metricsOrNoop(metrics),
	}
}

// GenerateReportInput represents input for an owner statement.
type GenerateReportInput struct {
	OwnerID string
	From    time.Time
	To      time.Time
}

// BalanceAsOf returns the balance of the account right after the last
// transaction dated at or before at, or its initial balance if there is none.
func (uc *ReportUseCase) BalanceAsOf(ctx context.Context, accountID string, at time.Time) (decimal.Decimal, error) {
	if err := domain.ValidateDate(at); err != nil {
		return decimal.Zero, err
	}

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return uc.balanceAsOf(ctx, nil, account, at)
}

// Window returns the transactions of an account dated within [from, to],
// both ends inclusive, in chain order.
func (uc *ReportUseCase) Window(ctx context.Context, accountID string, from, to time.Time) ([]*domain.Transaction, error) {
	if err := domain.ValidateRange(from, to); err != nil {
		return nil, err
	}

	exists, err := uc.accountRepo.Exists(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, domain.ErrAccountNotFound
	}

	return uc.transactionRepo.InRange(ctx, nil, accountID, from.UTC(), to.UTC())
}

// GenerateReport builds the statement of every account of an owner for the
// window. All reads come from one consistent snapshot of the store.
func (uc *ReportUseCase) GenerateReport(ctx context.Context, input GenerateReportInput) (*domain.Report, error) {
	start := time.Now()

	ownerID := strings.TrimSpace(input.OwnerID)
	if err := domain.ValidateOwnerID(ownerID); err != nil {
		return nil, err
	}

	if err := domain.ValidateRange(input.From, input.To); err != nil {
		return nil, err
	}

	from, to := input.From.UTC(), input.To.UTC()

	exists, err := uc.owners.Exists(ctx, ownerID)
	if err != nil {
		if !errors.Is(err, domain.ErrUpstreamFailure) {
			err = fmt.Errorf("%w: %w", domain.ErrUpstreamFailure, err)
		}

		zerolog.Ctx(ctx).Warn().Err(err).Str("owner_id", ownerID).Msg("owner lookup failed")

		return nil, err
	}

	if !exists {
		return nil, domain.ErrOwnerNotFound
	}

	tx, err := uc.txManager.BeginSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	accounts, err := uc.accountRepo.ListByOwner(ctx, tx, ownerID)
	if err != nil {
		return nil, err
	}

	report := &domain.Report{
		OwnerID:  ownerID,
		From:     from,
		To:       to,
		Accounts: make([]*domain.AccountStatement, 0, len(accounts)),
	}

	for _, account := range accounts {
		balance, err := uc.balanceAsOf(ctx, tx, account, to)
		if err != nil {
			return nil, fmt.Errorf("balance of account %s: %w", account.ID, err)
		}

		window, err := uc.transactionRepo.InRange(ctx, tx, account.ID, from, to)
		if err != nil {
			return nil, fmt.Errorf("window of account %s: %w", account.ID, err)
		}

		report.Accounts = append(report.Accounts, &domain.AccountStatement{
			Account:      account,
			Balance:      balance,
			Transactions: window,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	report.GeneratedAt = time.Now().UTC()
	uc.metrics.ReportGenerated(len(report.Accounts), time.Since(start))

	return report, nil
}

func (uc *ReportUseCase) balanceAsOf(ctx context.Context, tx Transaction, account *domain.Account, at time.Time) (decimal.Decimal, error) {
	last, err := uc.transactionRepo.LastAtOrBefore(ctx, tx, account.ID, at.UTC())
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return account.InitialBalance, nil
	}

	if err != nil {
		return decimal.Zero, err
	}

	return last.Balance, nil
}
