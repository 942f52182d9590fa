package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/infrastructure/postgres/generated"
	"github.com/iho/balanceledger/internal/usecase"
)

// PostgreSQL error codes mapped to domain errors.
const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"

	accountNumberConstraint = "accounts_account_number_key"
)

// queriesFor binds queries to tx, or to the pool when tx is nil.
func queriesFor(tx usecase.Transaction, pool *generated.Queries) *generated.Queries {
	if tx == nil {
		return pool
	}

	return generated.New(tx.(*Tx).PgxTx())
}

func mapAccountWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == accountNumberConstraint {
		return domain.ErrDuplicateAccountNumber
	}

	return err
}

func mapTransactionWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgErrForeignKeyViolation {
		return domain.ErrAccountNotFound
	}

	return err
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:             row.ID,
		AccountNumber:  row.AccountNumber,
		AccountType:    row.AccountType,
		OwnerID:        row.OwnerID,
		InitialBalance: numericToDecimal(row.InitialBalance),
		Active:         row.Active,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

func rowToTransaction(row generated.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:        row.ID,
		AccountID: row.AccountID,
		Date:      row.Date.Time.UTC(),
		Kind:      row.Kind,
		Amount:    numericToDecimal(row.Amount),
		Balance:   numericToDecimal(row.Balance),
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

func rowsToTransactions(rows []generated.Transaction) []*domain.Transaction {
	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, rowToTransaction(row))
	}

	return transactions
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
