package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	idGen           IDGenerator
	metrics         MetricsRecorder
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	idGen IDGenerator,
	metrics MetricsRecorder,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		idGen:           idGen,
		metrics:         metricsOrNoop(metrics),
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	AccountNumber  string
	AccountType    string
	OwnerID        string
	InitialBalance decimal.Decimal
	// Active defaults to true when nil.
	Active *bool
}

// UpdateAccountInput replaces every editable field of an account.
type UpdateAccountInput struct {
	ID             string
	AccountNumber  string
	AccountType    string
	OwnerID        string
	InitialBalance decimal.Decimal
	Active         bool
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit   int
	Offset  int
	OwnerID string
}

// CreateAccount creates a new account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	now := time.Now().UTC()

	active := true
	if input.Active != nil {
		active = *input.Active
	}

	account := &domain.Account{
		AccountNumber:  strings.TrimSpace(input.AccountNumber),
		AccountType:    strings.TrimSpace(input.AccountType),
		OwnerID:        strings.TrimSpace(input.OwnerID),
		InitialBalance: input.InitialBalance,
		Active:         active,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := account.Validate(); err != nil {
		return nil, err
	}

	account.ID = uc.idGen.Generate()

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccounts lists accounts with pagination, or every account of one owner.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if owner := strings.TrimSpace(input.OwnerID); owner != "" {
		return uc.accountRepo.ListByOwner(ctx, nil, owner)
	}

	limit, offset, err := domain.ValidatePagination(input.Limit, input.Offset)
	if err != nil {
		return nil, err
	}

	return uc.accountRepo.List(ctx, limit, offset)
}

// UpdateAccount replaces an account. Changing the initial balance shifts
// every balance of the chain, so the chain is replayed under the account
// lock and the update is rejected if any balance would become negative.
func (uc *AccountUseCase) UpdateAccount(ctx context.Context, input UpdateAccountInput) (*domain.Account, error) {
	updated := &domain.Account{
		ID:             input.ID,
		AccountNumber:  strings.TrimSpace(input.AccountNumber),
		AccountType:    strings.TrimSpace(input.AccountType),
		OwnerID:        strings.TrimSpace(input.OwnerID),
		InitialBalance: input.InitialBalance,
		Active:         input.Active,
	}

	if err := updated.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = now

	if !current.InitialBalance.Equal(updated.InitialBalance) {
		chain, err := loadChain(ctx, uc.transactionRepo, tx, current.ID)
		if err != nil {
			return nil, err
		}

		before := snapshot(chain)

		if err := chain.Replay(current.ID, updated.InitialBalance); err != nil {
			uc.metrics.BalanceRejected(OpRebaseAccount)
			return nil, err
		}

		if err := persistChain(ctx, uc.transactionRepo, tx, chain, before, now); err != nil {
			return nil, err
		}

		uc.metrics.ChainReplayed(OpRebaseAccount, len(chain))
	}

	if err := uc.accountRepo.Update(ctx, tx, updated); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteAccount removes an account together with its transactions.
func (uc *AccountUseCase) DeleteAccount(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
		return err
	}

	if err := uc.accountRepo.Delete(ctx, tx, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
