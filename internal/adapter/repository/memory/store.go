// Package memory provides an in-process implementation of the account store,
// the movement log and the unit of work. It backs STORAGE_DRIVER=memory and
// the concurrency tests.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/usecase"
)

var errTxDone = errors.New("memory: transaction already committed or rolled back")

type referenceKey struct {
	accountID int64
	reference string
}

// Store holds committed state. All access goes through mu.
type Store struct {
	mu         sync.Mutex
	lastID     int64
	accounts   map[int64]*domain.Account
	codes      map[string]int64
	movements  map[int64][]*domain.Movement
	references map[referenceKey]*domain.Movement
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[int64]*domain.Account),
		codes:      make(map[string]int64),
		movements:  make(map[int64][]*domain.Movement),
		references: make(map[referenceKey]*domain.Movement),
	}
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *AccountRepository {
	return &AccountRepository{store: s}
}

// Movements returns the movement log view of the store.
func (s *Store) Movements() *MovementRepository {
	return &MovementRepository{store: s}
}

// Begin starts a staged transaction. Nothing it writes is visible to other
// readers until Commit.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:    s,
		accounts: make(map[int64]*stagedAccount),
		codes:    make(map[string]int64),
	}, nil
}

type stagedAccount struct {
	account          *domain.Account
	created          bool
	expectedRevision int64
	saved            bool
}

// Tx is a staged unit of work over a Store.
type Tx struct {
	store     *Store
	done      bool
	accounts  map[int64]*stagedAccount
	codes     map[string]int64
	movements []*domain.Movement
}

// Commit re-validates every staged write against committed state and applies
// them atomically.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true

	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, staged := range t.accounts {
		if err := s.checkStagedLocked(staged); err != nil {
			return err
		}
	}

	for i, m := range t.movements {
		if err := s.checkMovementLocked(m); err != nil {
			return err
		}
		for _, other := range t.movements[:i] {
			if other.AccountID == m.AccountID && m.Reference != "" && other.Reference == m.Reference {
				return duplicateReference(m)
			}
		}
	}

	for _, staged := range t.accounts {
		s.putAccountLocked(staged.account)
	}
	for _, m := range t.movements {
		s.appendLocked(m)
	}

	return nil
}

// Rollback discards staged writes. Rolling back a finished transaction is a
// no-op.
func (t *Tx) Rollback(context.Context) error {
	t.done = true
	t.accounts = nil
	t.codes = nil
	t.movements = nil
	return nil
}

func (s *Store) checkStagedLocked(staged *stagedAccount) error {
	a := staged.account
	if staged.created {
		if _, taken := s.codes[a.Code]; taken {
			return fmt.Errorf("%w: code %s", domain.ErrAccountConflict, a.Code)
		}
		return nil
	}

	if !staged.saved {
		return nil
	}

	current, ok := s.accounts[a.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if current.Revision != staged.expectedRevision {
		return fmt.Errorf("%w: account %d revision %d", domain.ErrConcurrencyConflict, a.ID, staged.expectedRevision)
	}
	return nil
}

func (s *Store) checkMovementLocked(m *domain.Movement) error {
	if m.Reference != "" {
		if _, exists := s.references[referenceKey{m.AccountID, m.Reference}]; exists {
			return duplicateReference(m)
		}
	}

	for _, existing := range s.movements[m.AccountID] {
		if existing.AccountRevision == m.AccountRevision {
			return fmt.Errorf("%w: account %d already has a movement at revision %d",
				domain.ErrConcurrencyConflict, m.AccountID, m.AccountRevision)
		}
	}
	return nil
}

func (s *Store) putAccountLocked(a *domain.Account) {
	stored := *a
	s.accounts[a.ID] = &stored
	s.codes[a.Code] = a.ID
}

func (s *Store) appendLocked(m *domain.Movement) {
	stored := *m
	s.movements[m.AccountID] = append(s.movements[m.AccountID], &stored)
	if m.Reference != "" {
		s.references[referenceKey{m.AccountID, m.Reference}] = &stored
	}
}

func (s *Store) nextIDLocked() int64 {
	s.lastID++
	return s.lastID
}

func duplicateReference(m *domain.Movement) error {
	return fmt.Errorf("%w: account %d reference %q", domain.ErrDuplicateReference, m.AccountID, m.Reference)
}

// asTx returns the staged transaction behind tx, or nil for autocommit.
func asTx(tx usecase.Transaction) (*Tx, error) {
	if tx == nil {
		return nil, nil
	}

	t, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("memory: foreign transaction type %T", tx)
	}
	if t.done {
		return nil, errTxDone
	}
	return t, nil
}
