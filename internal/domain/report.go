package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatement is the state of one account within a report window.
// Balance is the account balance at the end of the window.
type AccountStatement struct {
	Account      *Account
	Balance      decimal.Decimal
	Transactions []*Transaction
}

// Report is the account statement of an owner for a date window.
type Report struct {
	OwnerID     string
	From        time.Time
	To          time.Time
	Accounts    []*AccountStatement
	GeneratedAt time.Time
}
