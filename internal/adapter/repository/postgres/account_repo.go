package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/infrastructure/postgres/generated"
	"github.com/iho/switchledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// NextID reserves an account ID from the accounts sequence.
func (r *AccountRepository) NextID(ctx context.Context, tx usecase.Transaction) (int64, error) {
	return queries(r.pool, tx).NextAccountID(ctx)
}

// Create inserts account. An account without an ID gets one reserved first.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	if account.ID == 0 {
		id, err := r.NextID(ctx, tx)
		if err != nil {
			return err
		}
		account.ID = id
	}

	err := queries(r.pool, tx).CreateAccount(ctx, generated.CreateAccountParams{
		ID:              account.ID,
		Code:            account.Code,
		HolderReference: account.HolderReference,
		Balance:         decimalToNumeric(account.Balance),
		Revision:        account.Revision,
		Signature:       account.Signature,
		CreatedAt:       timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:       timeToPgTimestamptz(account.UpdatedAt),
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, tx usecase.Transaction, id int64) (*domain.Account, error) {
	row, err := queries(r.pool, tx).GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}

	return rowToAccount(row), nil
}

// GetByCode retrieves an account by its code.
func (r *AccountRepository) GetByCode(ctx context.Context, tx usecase.Transaction, code string) (*domain.Account, error) {
	row, err := queries(r.pool, tx).GetAccountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account %q: %w", code, err)
	}

	return rowToAccount(row), nil
}

// Save writes balance and signature if the stored revision still equals
// expectedRevision. Zero affected rows means another writer won.
func (r *AccountRepository) Save(ctx context.Context, tx usecase.Transaction, account *domain.Account, expectedRevision int64) error {
	affected, err := queries(r.pool, tx).UpdateAccountIfRevision(ctx, generated.UpdateAccountIfRevisionParams{
		ID:        account.ID,
		Revision:  expectedRevision,
		Balance:   decimalToNumeric(account.Balance),
		Signature: account.Signature,
		UpdatedAt: timeToPgTimestamptz(account.UpdatedAt),
	})
	if err != nil {
		return translateError(err)
	}

	if affected == 0 {
		return fmt.Errorf("%w: account %d revision %d", domain.ErrConcurrencyConflict, account.ID, expectedRevision)
	}

	account.Revision = expectedRevision + 1
	return nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := generated.New(r.pool).ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		accounts = append(accounts, rowToAccount(row))
	}

	return accounts, nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:              row.ID,
		Code:            row.Code,
		HolderReference: row.HolderReference,
		Balance:         numericToDecimal(row.Balance),
		Revision:        row.Revision,
		Signature:       row.Signature,
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}
