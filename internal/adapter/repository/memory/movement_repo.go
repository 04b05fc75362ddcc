package memory

import (
	"context"
	"iter"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/usecase"
)

// MovementRepository implements usecase.MovementRepository over a Store.
type MovementRepository struct {
	store *Store
}

// Append stages a movement, or appends it directly when tx is nil.
func (r *MovementRepository) Append(_ context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	t, err := asTx(tx)
	if err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMovementLocked(movement); err != nil {
		return err
	}

	if t == nil {
		s.appendLocked(movement)
		return nil
	}

	for _, staged := range t.movements {
		if staged.AccountID == movement.AccountID && movement.Reference != "" && staged.Reference == movement.Reference {
			return duplicateReference(movement)
		}
	}

	staged := *movement
	t.movements = append(t.movements, &staged)
	return nil
}

// GetByReference looks the reference up in the transaction's staged
// movements first, then in committed state.
func (r *MovementRepository) GetByReference(_ context.Context, tx usecase.Transaction, accountID int64, reference string) (*domain.Movement, error) {
	t, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if t != nil {
		for _, staged := range t.movements {
			if staged.AccountID == accountID && staged.Reference == reference {
				m := *staged
				return &m, nil
			}
		}
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.references[referenceKey{accountID, reference}]
	if !ok {
		return nil, domain.ErrMovementNotFound
	}

	m := *stored
	return &m, nil
}

// ListByAccount yields committed movements in the order they were applied.
// Each range takes a fresh snapshot.
func (r *MovementRepository) ListByAccount(ctx context.Context, accountID int64) iter.Seq2[*domain.Movement, error] {
	return func(yield func(*domain.Movement, error) bool) {
		s := r.store
		s.mu.Lock()
		snapshot := make([]domain.Movement, len(s.movements[accountID]))
		for i, m := range s.movements[accountID] {
			snapshot[i] = *m
		}
		s.mu.Unlock()

		for i := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(&snapshot[i], nil) {
				return
			}
		}
	}
}
