package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

const reconciliationPageSize = 1000

// ReconciliationUseCase checks stored balances against a replay of each chain.
type ReconciliationUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

// ChainVerification is the result of checking one account chain.
type ChainVerification struct {
	AccountID         string
	Transactions      int
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Mismatch          *domain.ChainMismatch
	IsConsistent      bool
	CheckedAt         time.Time
}

// ReconciliationReport summarizes a check of every account.
type ReconciliationReport struct {
	TotalAccounts      int
	ConsistentAccounts int
	Discrepancies      []*ChainVerification
	CheckedAt          time.Time
}

// VerifyChain replays the chain of an account from its initial balance and
// reports the first transaction whose stored balance disagrees.
func (uc *ReconciliationUseCase) VerifyChain(ctx context.Context, accountID string) (*ChainVerification, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	tx, err := uc.txManager.BeginSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	chain, err := loadChain(ctx, uc.transactionRepo, tx, account.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result := &ChainVerification{
		AccountID:         account.ID,
		Transactions:      len(chain),
		RecordedBalance:   account.InitialBalance,
		CalculatedBalance: account.InitialBalance,
		CheckedAt:         time.Now().UTC(),
	}

	if tail := chain.Tail(); tail != nil {
		result.RecordedBalance = tail.Balance
	}

	for _, t := range chain {
		result.CalculatedBalance = result.CalculatedBalance.Add(t.Amount)
	}

	result.Mismatch = chain.Verify(account.InitialBalance)
	result.IsConsistent = result.Mismatch == nil

	if !result.IsConsistent {
		zerolog.Ctx(ctx).Warn().
			Str("account_id", account.ID).
			Str("transaction_id", result.Mismatch.TransactionID).
			Str("recorded", result.Mismatch.Recorded.String()).
			Str("expected", result.Mismatch.Expected.String()).
			Msg("balance chain mismatch")
	}

	return result, nil
}

// VerifyAllChains checks every account and collects the inconsistent ones.
func (uc *ReconciliationUseCase) VerifyAllChains(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		Discrepancies: make([]*ChainVerification, 0),
	}

	for offset := 0; ; offset += reconciliationPageSize {
		accounts, err := uc.accountRepo.List(ctx, reconciliationPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.VerifyChain(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to verify account %s: %w", account.ID, err)
			}

			report.TotalAccounts++
			if result.IsConsistent {
				report.ConsistentAccounts++
			} else {
				report.Discrepancies = append(report.Discrepancies, result)
			}
		}

		if len(accounts) < reconciliationPageSize {
			break
		}
	}

	report.CheckedAt = time.Now().UTC()

	return report, nil
}
