package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository over a Store.
type AccountRepository struct {
	store *Store
}

// NextID reserves an account ID.
func (r *AccountRepository) NextID(ctx context.Context, _ usecase.Transaction) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.nextIDLocked(), nil
}

// Create stages the account, or inserts it directly when tx is nil. An
// account without an ID gets the next one.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.codes[account.Code]; taken {
		return fmt.Errorf("%w: code %s", domain.ErrAccountConflict, account.Code)
	}

	if account.ID == 0 {
		account.ID = s.nextIDLocked()
	} else if _, taken := s.accounts[account.ID]; taken {
		return fmt.Errorf("%w: id %d", domain.ErrAccountConflict, account.ID)
	}

	if t == nil {
		s.putAccountLocked(account)
		return nil
	}

	if _, taken := t.codes[account.Code]; taken {
		return fmt.Errorf("%w: code %s", domain.ErrAccountConflict, account.Code)
	}

	staged := *account
	t.accounts[account.ID] = &stagedAccount{account: &staged, created: true}
	t.codes[account.Code] = account.ID
	return nil
}

// GetByID retrieves an account, preferring the transaction's staged copy.
func (r *AccountRepository) GetByID(_ context.Context, tx usecase.Transaction, id int64) (*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if t != nil {
		if staged, ok := t.accounts[id]; ok {
			account := *staged.account
			return &account, nil
		}
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	account := *stored
	return &account, nil
}

// GetByCode retrieves an account by code.
func (r *AccountRepository) GetByCode(ctx context.Context, tx usecase.Transaction, code string) (*domain.Account, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if t != nil {
		if id, ok := t.codes[code]; ok {
			return r.GetByID(ctx, tx, id)
		}
	}

	r.store.mu.Lock()
	id, ok := r.store.codes[code]
	r.store.mu.Unlock()

	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.GetByID(ctx, tx, id)
}

// Save compare-and-swaps the account revision. Inside a transaction the
// check runs now and again at commit.
func (r *AccountRepository) Save(_ context.Context, tx usecase.Transaction, account *domain.Account, expectedRevision int64) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	if t != nil {
		if staged, ok := t.accounts[account.ID]; ok {
			if staged.account.Revision != expectedRevision {
				return fmt.Errorf("%w: account %d revision %d", domain.ErrConcurrencyConflict, account.ID, expectedRevision)
			}
			account.Revision = expectedRevision + 1
			updated := *account
			staged.account = &updated
			if !staged.created && !staged.saved {
				staged.saved = true
				staged.expectedRevision = expectedRevision
			}
			return nil
		}
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.accounts[account.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if current.Revision != expectedRevision {
		return fmt.Errorf("%w: account %d revision %d", domain.ErrConcurrencyConflict, account.ID, expectedRevision)
	}

	account.Revision = expectedRevision + 1

	if t == nil {
		s.putAccountLocked(account)
		return nil
	}

	updated := *account
	t.accounts[account.ID] = &stagedAccount{
		account:          &updated,
		expectedRevision: expectedRevision,
		saved:            true,
	}
	return nil
}

// List returns committed accounts ordered by ID.
func (r *AccountRepository) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]int64, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if offset >= len(ids) {
		return []*domain.Account{}, nil
	}
	ids = ids[offset:]
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		account := *s.accounts[id]
		accounts = append(accounts, &account)
	}
	return accounts, nil
}
