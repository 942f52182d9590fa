package memory

import (
	"context"

	"github.com/iho/balanceledger/internal/usecase"
)

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a read-write transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{store: m.store, pending: newPending()}, nil
}

// BeginSnapshot starts a read-only transaction over a copy of the committed state.
func (m *TxManager) BeginSnapshot(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.store.mu.RLock()
	snap := m.store.state.clone()
	m.store.mu.RUnlock()

	return &Tx{store: m.store, snapshot: snap}, nil
}

// Tx is a memory store transaction. It is not safe for concurrent use.
type Tx struct {
	store    *Store
	pending  *pending
	snapshot *state
	held     []string
	done     bool
}

// Commit applies the pending writes and releases held account locks.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}

	t.done = true
	defer t.release()

	if t.snapshot != nil {
		return nil
	}

	return t.store.commit(t.pending)
}

// Rollback discards pending writes. It is a no-op on a finished transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.done = true
	t.release()

	return nil
}

func (t *Tx) lock(ctx context.Context, accountID string) error {
	for _, id := range t.held {
		if id == accountID {
			return nil
		}
	}

	if err := t.store.locks.acquire(ctx, accountID); err != nil {
		return err
	}

	t.held = append(t.held, accountID)

	return nil
}

func (t *Tx) release() {
	for _, id := range t.held {
		t.store.locks.release(id)
	}

	t.held = nil
}
