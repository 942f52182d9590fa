package usecase

import (
	"context"
	"time"

	"github.com/iho/balanceledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	// GetByIDForUpdate loads the account and holds its lock until tx ends.
	// All chain mutations of an account are serialized through this lock.
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	ListByOwner(ctx context.Context, tx Transaction, ownerID string) ([]*domain.Account, error)
	Update(ctx context.Context, tx Transaction, account *domain.Account) error
	Delete(ctx context.Context, tx Transaction, id string) error
}

// TransactionRepository defines data access for ledger transactions.
// Read methods accept a nil tx to read outside of any store transaction.
// Every returned sequence is in chain order (date asc, id asc).
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListByAccount(ctx context.Context, tx Transaction, accountID string) ([]*domain.Transaction, error)
	// LastByAccount returns domain.ErrTransactionNotFound for an empty chain.
	LastByAccount(ctx context.Context, tx Transaction, accountID string) (*domain.Transaction, error)
	// LastAtOrBefore returns domain.ErrTransactionNotFound if nothing is dated at or before at.
	LastAtOrBefore(ctx context.Context, tx Transaction, accountID string, at time.Time) (*domain.Transaction, error)
	InRange(ctx context.Context, tx Transaction, accountID string, from, to time.Time) ([]*domain.Transaction, error)
	Update(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	Delete(ctx context.Context, tx Transaction, id string) error
}

// OwnerDirectory answers whether an account owner is known to the client service.
// A failure to answer must be returned as an error, never as false.
type OwnerDirectory interface {
	Exists(ctx context.Context, ownerID string) (bool, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
	// BeginSnapshot starts a read-only transaction that sees a single
	// consistent snapshot of the store.
	BeginSnapshot(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs. Later calls must return
// lexically greater IDs so that the id tie-break follows creation order.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	// Get returns ErrCacheMiss when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not complete so it can be retried.
	Release(ctx context.Context, key string) error
}

// MetricsRecorder receives ledger events for instrumentation.
type MetricsRecorder interface {
	TransactionAppended(backdated bool)
	ChainReplayed(operation string, length int)
	BalanceRejected(operation string)
	ReportGenerated(accounts int, duration time.Duration)
}
