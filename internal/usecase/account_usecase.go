package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/switchledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	movementRepo MovementRepository
	idGen        IDGenerator
	signer       Signer
	metrics      MetricsRecorder
}

// NewAccountUseCase creates a new AccountUseCase. signer and metrics may be nil.
func NewAccountUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	movementRepo MovementRepository,
	idGen IDGenerator,
	signer Signer,
	metrics MetricsRecorder,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:    txManager,
		accountRepo:  accountRepo,
		movementRepo: movementRepo,
		idGen:        idGen,
		signer:       signer,
		metrics:      metrics,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Code            string
	HolderReference string
	InitialBalance  decimal.Decimal
}

// CreateAccount creates a new account. A non-zero initial balance is recorded
// as an opening CREDIT movement in the same transaction.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	code := domain.NormalizeCode(input.Code)
	if err := domain.ValidateAccountCode(code); err != nil {
		return nil, err
	}

	holder := strings.TrimSpace(input.HolderReference)
	if err := domain.ValidateHolderReference(holder); err != nil {
		return nil, err
	}

	opening, err := domain.NormalizeOpeningBalance(input.InitialBalance)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, storageFailure(err)
	}
	defer tx.Rollback(ctx)

	// The signature covers the ID, so it is reserved before the insert.
	id, err := uc.accountRepo.NextID(ctx, tx)
	if err != nil {
		return nil, storageFailure(err)
	}

	account := &domain.Account{
		ID:              id,
		Code:            code,
		HolderReference: holder,
		Balance:         opening,
		Revision:        0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if uc.signer != nil {
		account.Signature = uc.signer.Sign(account)
	}

	if err := uc.accountRepo.Create(ctx, tx, account); err != nil {
		if errors.Is(err, domain.ErrAccountConflict) {
			return nil, err
		}
		return nil, storageFailure(err)
	}

	if opening.IsPositive() {
		err := uc.movementRepo.Append(ctx, tx, &domain.Movement{
			ID:              uc.idGen.Generate(),
			AccountID:       account.ID,
			Kind:            domain.MovementKindCredit,
			Amount:          opening,
			Reference:       domain.OpeningReference,
			BalanceAfter:    opening,
			AccountRevision: account.Revision,
			CreatedAt:       now,
		})
		if err != nil {
			return nil, storageFailure(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if errors.Is(err, domain.ErrAccountConflict) {
			return nil, err
		}
		return nil, storageFailure(err)
	}

	if uc.metrics != nil {
		uc.metrics.AccountCreated()
	}

	return account, nil
}

// GetAccount retrieves an account by ID or code.
func (uc *AccountUseCase) GetAccount(ctx context.Context, key domain.AccountKey) (*domain.Account, error) {
	return loadAccount(ctx, uc.accountRepo, nil, key)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	accounts, err := uc.accountRepo.List(ctx, input.Limit, input.Offset)
	if err != nil {
		return nil, storageFailure(err)
	}
	return accounts, nil
}

// ListMovementsInput represents input for listing an account's movements.
type ListMovementsInput struct {
	Key   domain.AccountKey
	Limit int
}

// ListMovements returns up to Limit movements of an account, oldest first.
func (uc *AccountUseCase) ListMovements(ctx context.Context, input ListMovementsInput) ([]*domain.Movement, error) {
	if input.Limit <= 0 {
		input.Limit = 100
	}
	if input.Limit > 1000 {
		input.Limit = 1000
	}

	account, err := loadAccount(ctx, uc.accountRepo, nil, input.Key)
	if err != nil {
		return nil, err
	}

	movements := make([]*domain.Movement, 0, min(input.Limit, 64))
	for m, err := range uc.movementRepo.ListByAccount(ctx, account.ID) {
		if err != nil {
			return nil, fmt.Errorf("list movements for account %d: %w", account.ID, storageFailure(err))
		}

		movements = append(movements, m)
		if len(movements) == input.Limit {
			break
		}
	}

	return movements, nil
}
