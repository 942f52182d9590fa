package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

// TransactionUseCase keeps the balance chain of every account consistent.
// All mutations of one account are serialized by the account row lock.
type TransactionUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	transactionRepo TransactionRepository
	idGen           IDGenerator
	metrics         MetricsRecorder
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	idGen IDGenerator,
	metrics MetricsRecorder,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
		idGen:           idGen,
		metrics:         metricsOrNoop(metrics),
	}
}

// AppendTransactionInput represents input for recording a new transaction.
type AppendTransactionInput struct {
	AccountID string
	Date      time.Time
	Kind      string
	Amount    *decimal.Decimal
}

// UpdateTransactionInput replaces the editable fields of a transaction.
type UpdateTransactionInput struct {
	TransactionID string
	Date          time.Time
	Kind          string
	Amount        *decimal.Decimal
}

func validateTransactionFields(date time.Time, kind string, amount *decimal.Decimal) error {
	if err := domain.ValidateAmount(amount); err != nil {
		return err
	}

	if err := domain.ValidateDate(date); err != nil {
		return err
	}

	return domain.ValidateKind(kind)
}

// Append records a transaction and derives its balance from the chain tail.
// A transaction dated before the tail is inserted into the chain and every
// later balance is recomputed.
func (uc *TransactionUseCase) Append(ctx context.Context, input AppendTransactionInput) (*domain.Transaction, error) {
	// 0. Validate inputs before starting transaction
	if err := validateTransactionFields(input.Date, input.Kind, input.Amount); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 1. Begin transaction and lock the account
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	transaction := &domain.Transaction{
		ID:        uc.idGen.Generate(),
		AccountID: account.ID,
		Date:      input.Date.UTC(),
		Kind:      strings.TrimSpace(input.Kind),
		Amount:    *input.Amount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// 2. Read the tail under the lock
	tail, err := uc.transactionRepo.LastByAccount(ctx, tx, account.ID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		tail, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	backdated := tail != nil && domain.CompareChain(transaction, tail) < 0
	replayed := 0
	if backdated {
		replayed, err = uc.insertIntoChain(ctx, tx, account, transaction)
		if err != nil {
			return nil, err
		}
	} else {
		previous := account.InitialBalance
		if tail != nil {
			previous = tail.Balance
		}

		balance, err := domain.NextBalance(account.ID, previous, transaction)
		if err != nil {
			uc.reject(ctx, OpAppend, err)
			return nil, err
		}
		transaction.Balance = balance

		if err := uc.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return nil, err
		}
	}

	// 3. Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.TransactionAppended(backdated)
	if backdated {
		uc.metrics.ChainReplayed(OpAppend, replayed)
	}

	return transaction, nil
}

// insertIntoChain places a back-dated transaction and persists the replayed
// chain. It returns the chain length.
func (uc *TransactionUseCase) insertIntoChain(ctx context.Context, tx Transaction, account *domain.Account, transaction *domain.Transaction) (int, error) {
	chain, err := uc.loadChain(ctx, tx, account.ID)
	if err != nil {
		return 0, err
	}

	before := snapshot(chain)
	chain = append(chain, transaction)
	chain.Sort()

	if err := chain.Replay(account.ID, account.InitialBalance); err != nil {
		uc.reject(ctx, OpAppend, err)
		return 0, err
	}

	if err := uc.persistChain(ctx, tx, chain, before, transaction.CreatedAt); err != nil {
		return 0, err
	}

	return len(chain), nil
}

// Recompute replaces the fields of a transaction, reorders the chain of its
// account and recomputes every balance from the account's initial balance.
// The edit is rejected without changes if any balance would become negative.
func (uc *TransactionUseCase) Recompute(ctx context.Context, input UpdateTransactionInput) (*domain.Transaction, error) {
	if err := validateTransactionFields(input.Date, input.Kind, input.Amount); err != nil {
		return nil, err
	}

	existing, err := uc.transactionRepo.GetByID(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, existing.AccountID)
	if err != nil {
		return nil, err
	}

	// The chain is read again under the lock; the row may be gone by now.
	chain, err := uc.loadChain(ctx, tx, account.ID)
	if err != nil {
		return nil, err
	}

	idx := chain.Index(input.TransactionID)
	if idx < 0 {
		return nil, domain.ErrTransactionNotFound
	}

	before := snapshot(chain)
	now := time.Now().UTC()

	target := chain[idx]
	target.Date = input.Date.UTC()
	target.Kind = strings.TrimSpace(input.Kind)
	target.Amount = *input.Amount
	target.Balance = decimal.Zero

	chain.Sort()

	if err := chain.Replay(account.ID, account.InitialBalance); err != nil {
		uc.reject(ctx, OpRecompute, err)
		return nil, err
	}

	if err := uc.persistChain(ctx, tx, chain, before, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.metrics.ChainReplayed(OpRecompute, len(chain))

	return target, nil
}

// Delete removes a transaction and recomputes the balances that follow it.
func (uc *TransactionUseCase) Delete(ctx context.Context, transactionID string) error {
	existing, err := uc.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, existing.AccountID)
	if err != nil {
		return err
	}

	chain, err := uc.loadChain(ctx, tx, account.ID)
	if err != nil {
		return err
	}

	idx := chain.Index(transactionID)
	if idx < 0 {
		return domain.ErrTransactionNotFound
	}

	before := snapshot(chain)
	chain = append(chain[:idx], chain[idx+1:]...)

	if err := chain.Replay(account.ID, account.InitialBalance); err != nil {
		uc.reject(ctx, OpDelete, err)
		return err
	}

	if err := uc.transactionRepo.Delete(ctx, tx, transactionID); err != nil {
		return err
	}

	if err := uc.persistChain(ctx, tx, chain, before, time.Now().UTC()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	uc.metrics.ChainReplayed(OpDelete, len(chain))

	return nil
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// ListByAccount returns the whole chain of an account in chain order.
func (uc *TransactionUseCase) ListByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	exists, err := uc.accountRepo.Exists(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, domain.ErrAccountNotFound
	}

	return uc.transactionRepo.ListByAccount(ctx, nil, accountID)
}

func (uc *TransactionUseCase) loadChain(ctx context.Context, tx Transaction, accountID string) (domain.Chain, error) {
	return loadChain(ctx, uc.transactionRepo, tx, accountID)
}

func (uc *TransactionUseCase) persistChain(ctx context.Context, tx Transaction, chain domain.Chain, before map[string]*domain.Transaction, now time.Time) error {
	return persistChain(ctx, uc.transactionRepo, tx, chain, before, now)
}

func (uc *TransactionUseCase) reject(ctx context.Context, op string, err error) {
	uc.metrics.BalanceRejected(op)

	zerolog.Ctx(ctx).Debug().
		Err(err).
		Str("operation", op).
		Msg("balance chain mutation rejected")
}

func loadChain(ctx context.Context, repo TransactionRepository, tx Transaction, accountID string) (domain.Chain, error) {
	transactions, err := repo.ListByAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	chain := domain.Chain(transactions)
	chain.Sort()

	return chain, nil
}

func snapshot(chain domain.Chain) map[string]*domain.Transaction {
	before := make(map[string]*domain.Transaction, len(chain))
	for _, t := range chain {
		before[t.ID] = t.Clone()
	}

	return before
}

// persistChain writes new rows and every row whose fields or balance differ
// from the state captured before the replay.
func persistChain(
	ctx context.Context,
	repo TransactionRepository,
	tx Transaction,
	chain domain.Chain,
	before map[string]*domain.Transaction,
	now time.Time,
) error {
	for _, t := range chain {
		old, ok := before[t.ID]
		if !ok {
			if err := repo.Create(ctx, tx, t); err != nil {
				return err
			}
			continue
		}

		if sameTransaction(old, t) {
			continue
		}

		t.UpdatedAt = now
		if err := repo.Update(ctx, tx, t); err != nil {
			return err
		}
	}

	return nil
}

func sameTransaction(a, b *domain.Transaction) bool {
	return a.Date.Equal(b.Date) &&
		a.Kind == b.Kind &&
		a.Amount.Equal(b.Amount) &&
		a.Balance.Equal(b.Balance)
}
