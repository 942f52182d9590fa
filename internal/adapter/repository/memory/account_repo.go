package memory

import (
	"context"
	"errors"

	"github.com/iho/balanceledger/internal/domain"
	"github.com/iho/balanceledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create stores a new account outside of any transaction.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, a := range r.store.state.accounts {
		if a.AccountNumber == account.AccountNumber {
			return domain.ErrDuplicateAccountNumber
		}
	}

	r.store.state.accounts[account.ID] = cloneAccount(account)

	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.get(nil, id)
}

// GetByIDForUpdate waits for the account lock, then loads the account.
// The lock is held until tx commits or rolls back.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	t, err := r.store.own(tx)
	if err != nil {
		return nil, err
	}

	if err := t.lock(ctx, id); err != nil {
		return nil, err
	}

	return r.get(tx, id)
}

func (r *AccountRepository) get(tx usecase.Transaction, id string) (*domain.Account, error) {
	var account *domain.Account

	err := r.store.read(tx, func(rd reader) error {
		a := rd.account(id)
		if a == nil {
			return domain.ErrAccountNotFound
		}
		account = cloneAccount(a)

		return nil
	})

	return account, err
}

// Exists reports whether an account with the given id exists.
func (r *AccountRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.GetByID(ctx, id)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return false, nil
	}

	return err == nil, err
}

// List lists accounts ordered by id.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	var accounts []*domain.Account

	err := r.store.read(nil, func(rd reader) error {
		all := rd.accountList()
		sortAccounts(all)

		if offset >= len(all) {
			return nil
		}

		end := min(offset+limit, len(all))
		for _, a := range all[offset:end] {
			accounts = append(accounts, cloneAccount(a))
		}

		return nil
	})

	return accounts, err
}

// ListByOwner lists every account of an owner ordered by id.
func (r *AccountRepository) ListByOwner(ctx context.Context, tx usecase.Transaction, ownerID string) ([]*domain.Account, error) {
	var accounts []*domain.Account

	err := r.store.read(tx, func(rd reader) error {
		for _, a := range rd.accountList() {
			if a.OwnerID == ownerID {
				accounts = append(accounts, cloneAccount(a))
			}
		}
		sortAccounts(accounts)

		return nil
	})

	return accounts, err
}

// Update replaces an account inside tx.
func (r *AccountRepository) Update(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	return r.store.write(tx, func(view *overlay, p *pending) error {
		if view.account(account.ID) == nil {
			return domain.ErrAccountNotFound
		}

		if other := view.accountByNumber(account.AccountNumber); other != nil && other.ID != account.ID {
			return domain.ErrDuplicateAccountNumber
		}

		p.accounts[account.ID] = cloneAccount(account)

		return nil
	})
}

// Delete removes an account and its transactions inside tx.
func (r *AccountRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	return r.store.write(tx, func(view *overlay, p *pending) error {
		if view.account(id) == nil {
			return domain.ErrAccountNotFound
		}

		for _, t := range view.transactionsOf(id) {
			p.transactions[t.ID] = nil
		}
		p.accounts[id] = nil

		return nil
	})
}
