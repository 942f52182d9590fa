package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/infrastructure/postgres/generated"
	"github.com/iho/balanceledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{
		queries: generated.New(db),
	}
}

// Create inserts a transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	err := queriesFor(tx, r.queries).CreateTransaction(ctx, generated.CreateTransactionParams{
		ID:        transaction.ID,
		AccountID: transaction.AccountID,
		Date:      timeToPgTimestamptz(transaction.Date),
		Kind:      transaction.Kind,
		Amount:    decimalToNumeric(transaction.Amount),
		Balance:   decimalToNumeric(transaction.Balance),
		CreatedAt: timeToPgTimestamptz(transaction.CreatedAt),
		UpdatedAt: timeToPgTimestamptz(transaction.UpdatedAt),
	})

	return mapTransactionWriteError(err)
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row), nil
}

// ListByAccount returns the chain of an account ordered by date, then id.
func (r *TransactionRepository) ListByAccount(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.Transaction, error) {
	rows, err := queriesFor(tx, r.queries).ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

// LastByAccount returns the tail of the chain.
func (r *TransactionRepository) LastByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (*domain.Transaction, error) {
	row, err := queriesFor(tx, r.queries).GetLastTransaction(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row), nil
}

// LastAtOrBefore returns the last transaction in chain order dated at or before at.
func (r *TransactionRepository) LastAtOrBefore(ctx context.Context, tx usecase.Transaction, accountID string, at time.Time) (*domain.Transaction, error) {
	row, err := queriesFor(tx, r.queries).GetLastTransactionAtOrBefore(ctx, generated.GetLastTransactionAtOrBeforeParams{
		AccountID: accountID,
		Date:      timeToPgTimestamptz(at),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToTransaction(row), nil
}

// InRange returns the transactions dated within [from, to] in chain order.
func (r *TransactionRepository) InRange(ctx context.Context, tx usecase.Transaction, accountID string, from, to time.Time) ([]*domain.Transaction, error) {
	rows, err := queriesFor(tx, r.queries).ListTransactionsInRange(ctx, generated.ListTransactionsInRangeParams{
		AccountID: accountID,
		Date:      timeToPgTimestamptz(from),
		Date_2:    timeToPgTimestamptz(to),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows), nil
}

// Update replaces the mutable fields and the derived balance of a transaction.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	affected, err := queriesFor(tx, r.queries).UpdateTransaction(ctx, generated.UpdateTransactionParams{
		ID:        transaction.ID,
		Date:      timeToPgTimestamptz(transaction.Date),
		Kind:      transaction.Kind,
		Amount:    decimalToNumeric(transaction.Amount),
		Balance:   decimalToNumeric(transaction.Balance),
		UpdatedAt: timeToPgTimestamptz(transaction.UpdatedAt),
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// Delete removes a transaction.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	affected, err := queriesFor(tx, r.queries).DeleteTransaction(ctx, id)
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}
