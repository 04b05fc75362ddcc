package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/switchledger/internal/domain"
)

// MovementUseCase is the balance-mutation engine. It applies DEBIT and CREDIT
// movements under optimistic concurrency and writes the balance and the
// movement record in one unit of work.
type MovementUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	movementRepo MovementRepository
	retrier      Retrier
	idGen        IDGenerator
	signer       Signer
	metrics      MetricsRecorder
	logger       zerolog.Logger
	timeout      time.Duration
	now          func() time.Time
}

// MovementUseCaseConfig holds MovementUseCase dependencies.
// Signer and Metrics are optional.
type MovementUseCaseConfig struct {
	TxManager    TransactionManager
	AccountRepo  AccountRepository
	MovementRepo MovementRepository
	Retrier      Retrier
	IDGen        IDGenerator
	Signer       Signer
	Metrics      MetricsRecorder
	Logger       zerolog.Logger
	Timeout      time.Duration // Default bound for a single call
}

// NewMovementUseCase creates a new MovementUseCase.
func NewMovementUseCase(cfg MovementUseCaseConfig) *MovementUseCase {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultMovementTimeout
	}

	return &MovementUseCase{
		txManager:    cfg.TxManager,
		accountRepo:  cfg.AccountRepo,
		movementRepo: cfg.MovementRepo,
		retrier:      cfg.Retrier,
		idGen:        cfg.IDGen,
		signer:       cfg.Signer,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		timeout:      cfg.Timeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ApplyMovementInput represents a single debit or credit instruction.
type ApplyMovementInput struct {
	Key       domain.AccountKey
	Kind      domain.MovementKind
	Amount    decimal.Decimal
	Reference string        // Optional idempotency reference
	Timeout   time.Duration // Zero uses the configured default
}

// MovementResult is the outcome of a successful ApplyMovement call.
type MovementResult struct {
	Account  *domain.Account
	Movement *domain.Movement
	// Replayed is true when the reference had already been applied and the
	// previously computed state was returned without writing.
	Replayed bool
}

// ApplyMovement validates and applies a movement. Failures are returned as
// domain errors: ErrInvalidAmount, ErrInvalidMovementKind, ErrAccountNotFound,
// ErrInsufficientFunds, ErrIntegrityViolation, ErrBusy, ErrTimeout or
// ErrStorageFailure.
func (uc *MovementUseCase) ApplyMovement(ctx context.Context, input ApplyMovementInput) (result *MovementResult, err error) {
	start := time.Now()
	defer func() {
		uc.observe(input.Kind, result, err, time.Since(start))
	}()

	amount, err := domain.NormalizeAmount(input.Amount)
	if err != nil {
		return nil, err
	}

	if !input.Kind.IsValid() {
		return nil, domain.ErrInvalidMovementKind
	}

	if err := domain.ValidateReference(input.Reference); err != nil {
		return nil, err
	}

	timeout := input.Timeout
	if timeout <= 0 {
		timeout = uc.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	attempts := 0
	err = uc.retrier.Retry(ctx, func() error {
		attempts++
		if attempts > 1 {
			uc.logger.Debug().
				Str("account", input.Key.String()).
				Int("attempt", attempts).
				Msg("retrying movement after revision conflict")
		}

		var attemptErr error
		result, attemptErr = uc.attempt(ctx, input.Key, input.Kind, amount, input.Reference)

		return attemptErr
	})
	if err != nil {
		return nil, classify(ctx, err)
	}

	return result, nil
}

// attempt runs one read-compute-write cycle inside its own unit of work.
func (uc *MovementUseCase) attempt(
	ctx context.Context,
	key domain.AccountKey,
	kind domain.MovementKind,
	amount decimal.Decimal,
	reference string,
) (*MovementResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, storageFailure(err)
	}
	defer tx.Rollback(ctx)

	account, err := loadAccount(ctx, uc.accountRepo, tx, key)
	if err != nil {
		return nil, err
	}

	if uc.signer != nil && !uc.signer.Verify(account) {
		return nil, domain.ErrIntegrityViolation
	}

	if reference != "" {
		prior, err := uc.movementRepo.GetByReference(ctx, tx, account.ID, reference)
		switch {
		case err == nil:
			return uc.replay(account, prior), nil
		case !errors.Is(err, domain.ErrMovementNotFound):
			return nil, storageFailure(err)
		}
	}

	newBalance, err := account.Apply(kind, amount)
	if err != nil {
		return nil, err
	}

	expectedRevision := account.Revision
	updated := *account
	updated.Balance = newBalance
	updated.Revision = expectedRevision + 1
	updated.UpdatedAt = uc.now()
	updated.Signature = uc.sign(&updated)

	if err := uc.accountRepo.Save(ctx, tx, &updated, expectedRevision); err != nil {
		if errors.Is(err, domain.ErrConcurrencyConflict) || errors.Is(err, domain.ErrInvalidAmount) {
			return nil, err
		}
		return nil, storageFailure(err)
	}

	movement := &domain.Movement{
		ID:              uc.idGen.Generate(),
		AccountID:       updated.ID,
		Kind:            kind,
		Amount:          amount,
		Reference:       reference,
		BalanceAfter:    updated.Balance,
		AccountRevision: updated.Revision,
		CreatedAt:       updated.UpdatedAt,
	}

	if err := uc.movementRepo.Append(ctx, tx, movement); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			_ = tx.Rollback(ctx)
			return uc.replayCommitted(ctx, account, reference)
		}
		return nil, storageFailure(err)
	}

	if err := tx.Commit(ctx); err != nil {
		switch {
		case errors.Is(err, domain.ErrConcurrencyConflict):
			return nil, err
		case errors.Is(err, domain.ErrDuplicateReference):
			return uc.replayCommitted(ctx, account, reference)
		default:
			return nil, storageFailure(err)
		}
	}

	return &MovementResult{Account: &updated, Movement: movement}, nil
}

// replayCommitted re-reads the movement that won a reference race.
func (uc *MovementUseCase) replayCommitted(ctx context.Context, account *domain.Account, reference string) (*MovementResult, error) {
	prior, err := uc.movementRepo.GetByReference(ctx, nil, account.ID, reference)
	if err != nil {
		if errors.Is(err, domain.ErrMovementNotFound) {
			// The winner rolled back after all; start over.
			return nil, domain.ErrConcurrencyConflict
		}
		return nil, storageFailure(err)
	}

	return uc.replay(account, prior), nil
}

// replay rebuilds the account state a prior movement produced.
func (uc *MovementUseCase) replay(account *domain.Account, prior *domain.Movement) *MovementResult {
	state := *account
	state.Balance = prior.BalanceAfter
	state.Revision = prior.AccountRevision
	state.UpdatedAt = prior.CreatedAt
	state.Signature = uc.sign(&state)

	return &MovementResult{Account: &state, Movement: prior, Replayed: true}
}

func (uc *MovementUseCase) sign(account *domain.Account) string {
	if uc.signer == nil {
		return ""
	}
	return uc.signer.Sign(account)
}

func (uc *MovementUseCase) observe(kind domain.MovementKind, result *MovementResult, err error, d time.Duration) {
	if uc.metrics == nil {
		return
	}

	outcome := OutcomeCommitted
	switch {
	case err == nil && result != nil && result.Replayed:
		outcome = OutcomeReplayed
	case err == nil:
	case errors.Is(err, domain.ErrBusy):
		outcome = OutcomeBusy
	case errors.Is(err, domain.ErrTimeout):
		outcome = OutcomeTimeout
	case errors.Is(err, domain.ErrStorageFailure):
		outcome = OutcomeFailed
	default:
		outcome = OutcomeRejected
	}

	uc.metrics.ObserveMovement(kind, outcome, d)
}

// loadAccount resolves an account key within tx.
func loadAccount(ctx context.Context, repo AccountRepository, tx Transaction, key domain.AccountKey) (*domain.Account, error) {
	var (
		account *domain.Account
		err     error
	)

	if key.IsCode() {
		account, err = repo.GetByCode(ctx, tx, key.Code)
	} else {
		account, err = repo.GetByID(ctx, tx, key.ID)
	}

	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, storageFailure(err)
	}

	return account, nil
}

func storageFailure(err error) error {
	if errors.Is(err, domain.ErrStorageFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
}

// classify maps the error that ended the retry loop to the caller-facing taxonomy.
func classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrIntegrityViolation),
		errors.Is(err, domain.ErrBusy):
		return err
	case ctx.Err() != nil,
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	case errors.Is(err, domain.ErrConcurrencyConflict):
		return fmt.Errorf("%w: %w", domain.ErrBusy, err)
	default:
		return storageFailure(err)
	}
}
