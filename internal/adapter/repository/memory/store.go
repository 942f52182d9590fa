// Package memory keeps accounts and transactions in process memory.
// It honours the same locking and snapshot contracts as the Postgres stores
// and is used for local runs and engine tests.
package memory

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/usecase"
)

var (
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("memory: transaction already finished")
	// ErrForeignTx is returned when a transaction from another store is passed in.
	ErrForeignTx = errors.New("memory: transaction does not belong to this store")
	// ErrReadOnlyTx is returned on writes inside a snapshot transaction.
	ErrReadOnlyTx = errors.New("memory: write in read-only transaction")
)

// Store holds committed state. Writes made inside a Tx stay private to it
// until Commit.
type Store struct {
	mu    sync.RWMutex
	state *state
	locks *accountLocks
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		state: newState(),
		locks: newAccountLocks(),
	}
}

// read runs fn against the view of tx: committed state for a nil tx,
// the frozen copy for a snapshot tx, committed state plus pending writes otherwise.
func (s *Store) read(tx usecase.Transaction, fn func(r reader) error) error {
	if tx == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()

		return fn(s.state)
	}

	t, err := s.own(tx)
	if err != nil {
		return err
	}

	if t.snapshot != nil {
		return fn(t.snapshot)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&overlay{base: s.state, pending: t.pending})
}

// write runs fn against the pending writes of tx.
func (s *Store) write(tx usecase.Transaction, fn func(view *overlay, p *pending) error) error {
	t, err := s.own(tx)
	if err != nil {
		return err
	}

	if t.snapshot != nil {
		return ErrReadOnlyTx
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(&overlay{base: s.state, pending: t.pending}, t.pending)
}

func (s *Store) own(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, ErrForeignTx
	}

	if t.done {
		return nil, ErrTxDone
	}

	return t, nil
}

// commit applies pending writes atomically.
func (s *Store) commit(p *pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := &overlay{base: s.state, pending: p}
	for id, a := range p.accounts {
		if a == nil {
			continue
		}
		if other := view.accountByNumber(a.AccountNumber); other != nil && other.ID != id {
			return domain.ErrDuplicateAccountNumber
		}
	}

	for id, a := range p.accounts {
		if a == nil {
			delete(s.state.accounts, id)
			continue
		}
		s.state.accounts[id] = a
	}

	for id, t := range p.transactions {
		if t == nil {
			delete(s.state.transactions, id)
			continue
		}
		s.state.transactions[id] = t
	}

	return nil
}

type state struct {
	accounts     map[string]*domain.Account
	transactions map[string]*domain.Transaction
}

func newState() *state {
	return &state{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, a := range s.accounts {
		acc := *a
		c.accounts[id] = &acc
	}
	for id, t := range s.transactions {
		c.transactions[id] = t.Clone()
	}

	return c
}

// reader is the read side shared by committed state and transaction views.
// Returned pointers are internal and must be copied before leaving the package.
type reader interface {
	account(id string) *domain.Account
	accountList() []*domain.Account
	transaction(id string) *domain.Transaction
	transactionsOf(accountID string) []*domain.Transaction
}

func (s *state) account(id string) *domain.Account {
	return s.accounts[id]
}

func (s *state) accountList() []*domain.Account {
	out := make([]*domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}

	return out
}

func (s *state) transaction(id string) *domain.Transaction {
	return s.transactions[id]
}

func (s *state) transactionsOf(accountID string) []*domain.Transaction {
	var out []*domain.Transaction
	for _, t := range s.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}

	return out
}

// pending holds the uncommitted writes of a transaction. A nil value marks a delete.
type pending struct {
	accounts     map[string]*domain.Account
	transactions map[string]*domain.Transaction
}

func newPending() *pending {
	return &pending{
		accounts:     make(map[string]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
	}
}

type overlay struct {
	base    *state
	pending *pending
}

func (o *overlay) account(id string) *domain.Account {
	if a, ok := o.pending.accounts[id]; ok {
		return a
	}

	return o.base.account(id)
}

func (o *overlay) accountList() []*domain.Account {
	var out []*domain.Account
	for id, a := range o.base.accounts {
		if _, ok := o.pending.accounts[id]; !ok {
			out = append(out, a)
		}
	}
	for _, a := range o.pending.accounts {
		if a != nil {
			out = append(out, a)
		}
	}

	return out
}

func (o *overlay) accountByNumber(number string) *domain.Account {
	for _, a := range o.accountList() {
		if a.AccountNumber == number {
			return a
		}
	}

	return nil
}

func (o *overlay) transaction(id string) *domain.Transaction {
	if t, ok := o.pending.transactions[id]; ok {
		return t
	}

	return o.base.transaction(id)
}

func (o *overlay) transactionsOf(accountID string) []*domain.Transaction {
	var out []*domain.Transaction
	for _, t := range o.base.transactionsOf(accountID) {
		if _, ok := o.pending.transactions[t.ID]; !ok {
			out = append(out, t)
		}
	}
	for _, t := range o.pending.transactions {
		if t != nil && t.AccountID == accountID {
			out = append(out, t)
		}
	}

	return out
}

// chainOf returns copies of the transactions of an account in chain order.
func chainOf(r reader, accountID string) domain.Chain {
	src := r.transactionsOf(accountID)

	chain := make(domain.Chain, 0, len(src))
	for _, t := range src {
		chain = append(chain, t.Clone())
	}
	chain.Sort()

	return chain
}

func sortAccounts(accounts []*domain.Account) {
	slices.SortFunc(accounts, func(a, b *domain.Account) int {
		return strings.Compare(a.ID, b.ID)
	})
}

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

// accountLocks serializes transactions per account id.
type accountLocks struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

type accountLock struct {
	ch   chan struct{}
	refs int
}

func newAccountLocks() *accountLocks {
	return &accountLocks{locks: make(map[string]*accountLock)}
}

func (l *accountLocks) acquire(ctx context.Context, id string) error {
	l.mu.Lock()
	al, ok := l.locks[id]
	if !ok {
		al = &accountLock{ch: make(chan struct{}, 1)}
		l.locks[id] = al
	}
	al.refs++
	l.mu.Unlock()

	select {
	case al.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.mu.Lock()
		l.unref(id, al)
		l.mu.Unlock()

		return ctx.Err()
	}
}

func (l *accountLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	al, ok := l.locks[id]
	if !ok {
		return
	}

	<-al.ch
	l.unref(id, al)
}

func (l *accountLocks) unref(id string, al *accountLock) {
	al.refs--
	if al.refs == 0 {
		delete(l.locks, id)
	}
}
