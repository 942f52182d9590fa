package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/infrastructure/postgres/generated"
	"github.com/iho/balanceledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{
		queries: generated.New(db),
	}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.queries.CreateAccount(ctx, generated.CreateAccountParams{
		ID:             account.ID,
		AccountNumber:  account.AccountNumber,
		AccountType:    account.AccountType,
		OwnerID:        account.OwnerID,
		InitialBalance: decimalToNumeric(account.InitialBalance),
		Active:         account.Active,
		CreatedAt:      timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(account.UpdatedAt),
	})

	return mapAccountWriteError(err)
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// GetByIDForUpdate retrieves an account by ID with a FOR UPDATE lock.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()
	queries := generated.New(pgxTx)

	row, err := queries.GetAccountByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// Exists reports whether an account exists.
func (r *AccountRepository) Exists(ctx context.Context, id string) (bool, error) {
	return r.queries.AccountExists(ctx, id)
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// ListByOwner lists every account of an owner.
func (r *AccountRepository) ListByOwner(ctx context.Context, tx usecase.Transaction, ownerID string) ([]*domain.Account, error) {
	rows, err := queriesFor(tx, r.queries).ListAccountsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

// Update replaces an account.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	affected, err := queriesFor(tx, r.queries).UpdateAccount(ctx, generated.UpdateAccountParams{
		ID:             account.ID,
		AccountNumber:  account.AccountNumber,
		AccountType:    account.AccountType,
		OwnerID:        account.OwnerID,
		InitialBalance: decimalToNumeric(account.InitialBalance),
		Active:         account.Active,
		UpdatedAt:      timeToPgTimestamptz(account.UpdatedAt),
	})
	if err != nil {
		return mapAccountWriteError(err)
	}

	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Delete removes an account. Its transactions are removed by ON DELETE CASCADE.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	affected, err := queriesFor(tx, r.queries).DeleteAccount(ctx, id)
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}
