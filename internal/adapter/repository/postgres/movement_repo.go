package postgres

import (
	"context"
	"errors"
	"iter"

	"github.com/jackc/pgx/v5"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/infrastructure/postgres/generated"
	"github.com/iho/switchledger/internal/usecase"
)

const defaultMovementPageSize = 256

// MovementRepository implements usecase.MovementRepository.
type MovementRepository struct {
	pool     Pool
	pageSize int
}

// NewMovementRepository creates a new MovementRepository.
func NewMovementRepository(pool Pool) *MovementRepository {
	return &MovementRepository{pool: pool, pageSize: defaultMovementPageSize}
}

// Append inserts a movement. A reference already used on the account yields
// domain.ErrDuplicateReference; the surrounding transaction is then aborted.
func (r *MovementRepository) Append(ctx context.Context, tx usecase.Transaction, movement *domain.Movement) error {
	err := queries(r.pool, tx).CreateMovement(ctx, generated.CreateMovementParams{
		ID:              movement.ID,
		AccountID:       movement.AccountID,
		Kind:            string(movement.Kind),
		Amount:          decimalToNumeric(movement.Amount),
		Reference:       movement.Reference,
		BalanceAfter:    decimalToNumeric(movement.BalanceAfter),
		AccountRevision: movement.AccountRevision,
		CreatedAt:       timeToPgTimestamptz(movement.CreatedAt),
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

// GetByReference retrieves the movement recorded under reference.
func (r *MovementRepository) GetByReference(ctx context.Context, tx usecase.Transaction, accountID int64, reference string) (*domain.Movement, error) {
	row, err := queries(r.pool, tx).GetMovementByReference(ctx, generated.GetMovementByReferenceParams{
		AccountID: accountID,
		Reference: reference,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMovementNotFound
		}
		return nil, err
	}

	return rowToMovement(row), nil
}

// ListByAccount pages through the account's movements in revision order.
// Pages are fetched as the sequence is consumed.
func (r *MovementRepository) ListByAccount(ctx context.Context, accountID int64) iter.Seq2[*domain.Movement, error] {
	return func(yield func(*domain.Movement, error) bool) {
		q := generated.New(r.pool)
		after := int64(-1)

		for {
			rows, err := q.ListMovementsByAccountAfter(ctx, generated.ListMovementsByAccountAfterParams{
				AccountID:       accountID,
				AccountRevision: after,
				Limit:           int32(r.pageSize),
			})
			if err != nil {
				yield(nil, err)
				return
			}

			for _, row := range rows {
				if !yield(rowToMovement(row), nil) {
					return
				}
			}

			if len(rows) < r.pageSize {
				return
			}
			after = rows[len(rows)-1].AccountRevision
		}
	}
}

func rowToMovement(row generated.Movement) *domain.Movement {
	return &domain.Movement{
		ID:              row.ID,
		AccountID:       row.AccountID,
		Kind:            domain.MovementKind(row.Kind),
		Amount:          numericToDecimal(row.Amount),
		Reference:       row.Reference,
		BalanceAfter:    numericToDecimal(row.BalanceAfter),
		AccountRevision: row.AccountRevision,
		CreatedAt:       row.CreatedAt.Time,
	}
}
