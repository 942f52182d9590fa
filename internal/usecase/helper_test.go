package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/balanceledger/internal/adapter/repository/memory"
	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/usecase"
)

var (
	d1 = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	d2 = time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	d3 = time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC)
)

type ownerFunc func(ctx context.Context, ownerID string) (bool, error)

func (f ownerFunc) Exists(ctx context.Context, ownerID string) (bool, error) {
	return f(ctx, ownerID)
}

func knownOwners(ids ...string) ownerFunc {
	return func(_ context.Context, ownerID string) (bool, error) {
		for _, id := range ids {
			if id == ownerID {
				return true, nil
			}
		}
		return false, nil
	}
}

type ledger struct {
	txManager    *memory.TxManager
	accounts     *memory.AccountRepository
	transactions *memory.TransactionRepository

	accountUC   *usecase.AccountUseCase
	txUC        *usecase.TransactionUseCase
	reportUC    *usecase.ReportUseCase
	reconcileUC *usecase.ReconciliationUseCase
}

func newLedger(t *testing.T, owners usecase.OwnerDirectory) *ledger {
	t.Helper()

	if owners == nil {
		owners = knownOwners("client-1")
	}

	store := memory.NewStore()
	l := &ledger{
		txManager:    memory.NewTxManager(store),
		accounts:     memory.NewAccountRepository(store),
		transactions: memory.NewTransactionRepository(store),
	}

	accountIDs := memory.NewSequenceGenerator("acc-")
	txIDs := memory.NewSequenceGenerator("tx-")

	l.accountUC = usecase.NewAccountUseCase(l.txManager, l.accounts, l.transactions, accountIDs, nil)
	l.txUC = usecase.NewTransactionUseCase(l.txManager, l.accounts, l.transactions, txIDs, nil)
	l.reportUC = usecase.NewReportUseCase(l.txManager, l.accounts, l.transactions, owners, nil)
	l.reconcileUC = usecase.NewReconciliationUseCase(l.txManager, l.accounts, l.transactions)

	return l
}

func (l *ledger) openAccount(t *testing.T, number, owner, initial string) *domain.Account {
	t.Helper()

	acc, err := l.accountUC.CreateAccount(context.Background(), usecase.CreateAccountInput{
		AccountNumber:  number,
		AccountType:    "savings",
		OwnerID:        owner,
		InitialBalance: decimal.RequireFromString(initial),
	})
	require.NoError(t, err)

	return acc
}

func (l *ledger) append(t *testing.T, accountID string, date time.Time, amount string) *domain.Transaction {
	t.Helper()

	tr, err := l.txUC.Append(context.Background(), appendInput(accountID, date, amount))
	require.NoError(t, err)

	return tr
}

func (l *ledger) balances(t *testing.T, accountID string) []string {
	t.Helper()

	chain, err := l.txUC.ListByAccount(context.Background(), accountID)
	require.NoError(t, err)

	out := make([]string, len(chain))
	for i, tr := range chain {
		out[i] = tr.Balance.StringFixed(2)
	}

	return out
}

// requireChainConsistent checks that every stored balance equals the
// initial balance plus the running sum and that none is negative.
func (l *ledger) requireChainConsistent(t *testing.T, accountID string) {
	t.Helper()

	result, err := l.reconcileUC.VerifyChain(context.Background(), accountID)
	require.NoError(t, err)
	require.Truef(t, result.IsConsistent, "chain mismatch: %+v", result.Mismatch)
}

func amountPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func appendInput(accountID string, date time.Time, amount string) usecase.AppendTransactionInput {
	return usecase.AppendTransactionInput{
		AccountID: accountID,
		Date:      date,
		Kind:      "deposit",
		Amount:    amountPtr(amount),
	}
}

func editInput(id string, date time.Time, amount string) usecase.UpdateTransactionInput {
	return usecase.UpdateTransactionInput{
		TransactionID: id,
		Date:          date,
		Kind:          "withdrawal",
		Amount:        amountPtr(amount),
	}
}
