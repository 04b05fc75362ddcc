package usecase

import (
	"context"
	"iter"
	"time"

	"github.com/iho/switchledger/internal/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mock_interfaces.go -package=mocks

// AccountRepository defines data access for accounts.
// A nil Transaction runs the call outside any unit of work.
type AccountRepository interface {
	// NextID reserves the ID the next Create will use, so the account can be
	// signed before it is stored.
	NextID(ctx context.Context, tx Transaction) (int64, error)
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, tx Transaction, id int64) (*domain.Account, error)
	GetByCode(ctx context.Context, tx Transaction, code string) (*domain.Account, error)
	// Save persists account only if the stored revision equals expectedRevision.
	// On success account.Revision is expectedRevision+1.
	Save(ctx context.Context, tx Transaction, account *domain.Account, expectedRevision int64) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// MovementRepository defines data access for the append-only movement log.
type MovementRepository interface {
	Append(ctx context.Context, tx Transaction, movement *domain.Movement) error
	GetByReference(ctx context.Context, tx Transaction, accountID int64, reference string) (*domain.Movement, error)
	// ListByAccount yields the account's movements oldest first. Each range
	// over the returned sequence re-reads the store.
	ListByAccount(ctx context.Context, accountID int64) iter.Seq2[*domain.Movement, error]
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier runs an operation until it succeeds, fails permanently or the
// retry bound is reached.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Signer computes integrity signatures over account state.
type Signer interface {
	Sign(account *domain.Account) string
	Verify(account *domain.Account) bool
}

// MetricsRecorder receives engine outcomes.
type MetricsRecorder interface {
	ObserveMovement(kind domain.MovementKind, outcome string, duration time.Duration)
	AccountCreated()
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not complete successfully.
	Release(ctx context.Context, key string) error
}
