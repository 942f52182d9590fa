package memory

import (
	"context"
	"time"

	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	store *Store
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

// Create inserts a transaction inside tx.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	return r.store.write(tx, func(view *overlay, p *pending) error {
		if view.account(transaction.AccountID) == nil {
			return domain.ErrAccountNotFound
		}

		p.transactions[transaction.ID] = transaction.Clone()

		return nil
	})
}

// GetByID retrieves a committed transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	var transaction *domain.Transaction

	err := r.store.read(nil, func(rd reader) error {
		t := rd.transaction(id)
		if t == nil {
			return domain.ErrTransactionNotFound
		}
		transaction = t.Clone()

		return nil
	})

	return transaction, err
}

// ListByAccount returns the chain of an account in chain order.
func (r *TransactionRepository) ListByAccount(ctx context.Context, tx usecase.Transaction, accountID string) ([]*domain.Transaction, error) {
	var chain domain.Chain

	err := r.store.read(tx, func(rd reader) error {
		chain = chainOf(rd, accountID)
		return nil
	})

	return chain, err
}

// LastByAccount returns the tail of the chain.
func (r *TransactionRepository) LastByAccount(ctx context.Context, tx usecase.Transaction, accountID string) (*domain.Transaction, error) {
	var last *domain.Transaction

	err := r.store.read(tx, func(rd reader) error {
		last = chainOf(rd, accountID).Tail()
		if last == nil {
			return domain.ErrTransactionNotFound
		}

		return nil
	})

	return last, err
}

// LastAtOrBefore returns the last transaction in chain order dated at or before at.
func (r *TransactionRepository) LastAtOrBefore(ctx context.Context, tx usecase.Transaction, accountID string, at time.Time) (*domain.Transaction, error) {
	var last *domain.Transaction

	err := r.store.read(tx, func(rd reader) error {
		for _, t := range chainOf(rd, accountID) {
			if t.Date.After(at) {
				break
			}
			last = t
		}

		if last == nil {
			return domain.ErrTransactionNotFound
		}

		return nil
	})

	return last, err
}

// InRange returns the transactions dated within [from, to] in chain order.
func (r *TransactionRepository) InRange(ctx context.Context, tx usecase.Transaction, accountID string, from, to time.Time) ([]*domain.Transaction, error) {
	var window []*domain.Transaction

	err := r.store.read(tx, func(rd reader) error {
		for _, t := range chainOf(rd, accountID) {
			if t.Date.Before(from) || t.Date.After(to) {
				continue
			}
			window = append(window, t)
		}

		return nil
	})

	return window, err
}

// Update replaces a transaction inside tx.
func (r *TransactionRepository) Update(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	return r.store.write(tx, func(view *overlay, p *pending) error {
		if view.transaction(transaction.ID) == nil {
			return domain.ErrTransactionNotFound
		}

		p.transactions[transaction.ID] = transaction.Clone()

		return nil
	})
}

// Delete removes a transaction inside tx.
func (r *TransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	return r.store.write(tx, func(view *overlay, p *pending) error {
		if view.transaction(id) == nil {
			return domain.ErrTransactionNotFound
		}

		p.transactions[id] = nil

		return nil
	})
}
