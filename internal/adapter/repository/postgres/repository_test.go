package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

var (
	accountColumns     = []string{"id", "account_number", "account_type", "owner_id", "initial_balance", "active", "created_at", "updated_at"}
	transactionColumns = []string{"id", "account_id", "date", "kind", "amount", "balance", "created_at", "updated_at"}
	testDate           = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
)

func queryName(name string) string {
	return regexp.QuoteMeta("-- name: " + name + " ")
}

func transactionRow(rows *pgxmock.Rows, id, amount, balance string) *pgxmock.Rows {
	ts := timeToPgTimestamptz(testDate)
	return rows.AddRow(
		id, "acc-1", ts, "deposit",
		decimalToNumeric(decimal.RequireFromString(amount)),
		decimalToNumeric(decimal.RequireFromString(balance)),
		ts, ts,
	)
}

func TestAccountRepositoryGetByID(t *testing.T) {
	mockPool := newMockPool(t)
	ts := timeToPgTimestamptz(testDate)

	mockPool.ExpectQuery(queryName("GetAccountByID")).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(
			"acc-1", "478758", "savings", "client-1",
			decimalToNumeric(decimal.RequireFromString("100.50")), true, ts, ts,
		))

	repo := NewAccountRepository(mockPool)
	acc, err := repo.GetByID(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if acc.AccountNumber != "478758" || acc.InitialBalance.String() != "100.5" || !acc.Active {
		t.Fatalf("unexpected account: %+v", acc)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryGetByIDNotFound(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery(queryName("GetAccountByID")).WillReturnError(pgx.ErrNoRows)

	repo := NewAccountRepository(mockPool)
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountRepositoryCreateDuplicateNumber(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectQuery(queryName("CreateAccount")).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: accountNumberConstraint})

	repo := NewAccountRepository(mockPool)
	err := repo.Create(context.Background(), &domain.Account{ID: "acc-2", AccountNumber: "478758"})
	if !errors.Is(err, domain.ErrDuplicateAccountNumber) {
		t.Fatalf("expected ErrDuplicateAccountNumber, got %v", err)
	}
}

func TestAccountRepositoryForUpdateUsesTransaction(t *testing.T) {
	mockPool := newMockPool(t)
	ts := timeToPgTimestamptz(testDate)

	mockPool.ExpectBegin()
	mockPool.ExpectQuery(queryName("GetAccountByIDForUpdate")).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(
			"acc-1", "478758", "savings", "client-1",
			decimalToNumeric(decimal.Zero), true, ts, ts,
		))
	mockPool.ExpectExec(queryName("DeleteAccount")).
		WithArgs("acc-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mockPool.ExpectCommit()

	ctx := context.Background()
	tx, err := newTxManagerWithPool(mockPool).Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	repo := NewAccountRepository(mockPool)
	if _, err := repo.GetByIDForUpdate(ctx, tx, "acc-1"); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if err := repo.Delete(ctx, tx, "acc-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	assertExpectations(t, mockPool)
}

func TestAccountRepositoryUpdateMissing(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectExec(queryName("UpdateAccount")).WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewAccountRepository(mockPool)
	err := repo.Update(context.Background(), nil, &domain.Account{ID: "missing"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestTransactionRepositoryListByAccount(t *testing.T) {
	mockPool := newMockPool(t)

	rows := pgxmock.NewRows(transactionColumns)
	transactionRow(rows, "tx-1", "50", "150")
	transactionRow(rows, "tx-2", "-20", "130")

	mockPool.ExpectQuery(queryName("ListTransactionsByAccount")).
		WithArgs("acc-1").
		WillReturnRows(rows)

	repo := NewTransactionRepository(mockPool)
	chain, err := repo.ListByAccount(context.Background(), nil, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(chain) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(chain))
	}
	if chain[1].Balance.String() != "130" || !chain[1].Date.Equal(testDate) {
		t.Fatalf("unexpected tail: %+v", chain[1])
	}

	assertExpectations(t, mockPool)
}

func TestTransactionRepositoryLastAtOrBefore(t *testing.T) {
	tests := []struct {
		name    string
		rows    *pgxmock.Rows
		err     error
		wantID  string
		wantErr error
	}{
		{
			name:   "found",
			rows:   transactionRow(pgxmock.NewRows(transactionColumns), "tx-1", "50", "150"),
			wantID: "tx-1",
		},
		{
			name:    "nothing at or before",
			err:     pgx.ErrNoRows,
			wantErr: domain.ErrTransactionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPool := newMockPool(t)
			exp := mockPool.ExpectQuery(queryName("GetLastTransactionAtOrBefore")).
				WithArgs("acc-1", timeToPgTimestamptz(testDate))
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnRows(tt.rows)
			}

			repo := NewTransactionRepository(mockPool)
			got, err := repo.LastAtOrBefore(context.Background(), nil, "acc-1", testDate)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != tt.wantID {
				t.Fatalf("expected %s, got %s", tt.wantID, got.ID)
			}
		})
	}
}

func TestTransactionRepositoryCreateUnknownAccount(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectExec(queryName("CreateTransaction")).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation})

	repo := NewTransactionRepository(mockPool)
	err := repo.Create(context.Background(), nil, &domain.Transaction{ID: "tx-1", AccountID: "missing"})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestTransactionRepositoryDeleteMissing(t *testing.T) {
	mockPool := newMockPool(t)
	mockPool.ExpectExec(queryName("DeleteTransaction")).
		WithArgs("tx-9").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewTransactionRepository(mockPool)
	if err := repo.Delete(context.Background(), nil, "tx-9"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestULIDGeneratorIsMonotonic(t *testing.T) {
	gen := NewULIDGenerator()

	prev := gen.Generate()
	for i := 0; i < 1000; i++ {
		next := gen.Generate()
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		prev = next
	}
}
