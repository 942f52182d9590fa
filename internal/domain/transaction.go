package domain

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a dated movement on a single account.
// Balance is always derived by the ledger; it is never taken from a caller.
type Transaction struct {
	ID        string
	AccountID string
	Date      time.Time
	Kind      string
	Amount    decimal.Decimal
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a copy that can be edited without touching the original.
func (t *Transaction) Clone() *Transaction {
	c := *t
	return &c
}

// CompareChain orders transactions by date, then by id for equal dates.
func CompareChain(a, b *Transaction) int {
	if c := a.Date.Compare(b.Date); c != 0 {
		return c
	}

	return strings.Compare(a.ID, b.ID)
}

// Chain is the ordered list of transactions of one account.
type Chain []*Transaction

// Sort orders the chain in place.
func (c Chain) Sort() {
	slices.SortFunc(c, CompareChain)
}

// Tail returns the last transaction of a sorted chain, or nil if empty.
func (c Chain) Tail() *Transaction {
	if len(c) == 0 {
		return nil
	}

	return c[len(c)-1]
}

// Index returns the position of the transaction with the given id, or -1.
func (c Chain) Index(id string) int {
	return slices.IndexFunc(c, func(t *Transaction) bool { return t.ID == id })
}

// Replay recomputes every balance of a sorted chain starting at opening.
// If any running balance is negative it returns an *InsufficientBalanceError
// and leaves all balances untouched.
func (c Chain) Replay(accountID string, opening decimal.Decimal) error {
	balances := make([]decimal.Decimal, len(c))
	running := opening

	for i, t := range c {
		running = running.Add(t.Amount)
		if running.IsNegative() {
			return &InsufficientBalanceError{
				AccountID:     accountID,
				TransactionID: t.ID,
				Date:          t.Date,
				Balance:       running,
			}
		}
		balances[i] = running
	}

	for i, t := range c {
		t.Balance = balances[i]
	}

	return nil
}

// ChainMismatch describes a stored balance that disagrees with the replayed one.
type ChainMismatch struct {
	TransactionID string
	Position      int
	Recorded      decimal.Decimal
	Expected      decimal.Decimal
}

// Verify walks a sorted chain and returns the first transaction whose stored
// balance differs from opening plus the running sum of amounts, or nil.
func (c Chain) Verify(opening decimal.Decimal) *ChainMismatch {
	running := opening

	for i, t := range c {
		running = running.Add(t.Amount)
		if !t.Balance.Equal(running) || t.Balance.IsNegative() {
			return &ChainMismatch{
				TransactionID: t.ID,
				Position:      i,
				Recorded:      t.Balance,
				Expected:      running,
			}
		}
	}

	return nil
}

// NextBalance computes the balance of a transaction appended after previous.
func NextBalance(accountID string, previous decimal.Decimal, tx *Transaction) (decimal.Decimal, error) {
	next := previous.Add(tx.Amount)
	if next.IsNegative() {
		return decimal.Zero, &InsufficientBalanceError{
			AccountID: accountID,
			Date:      tx.Date,
			Balance:   next,
		}
	}

	return next, nil
}
