package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/switchledger/internal/domain"
)

// Config tunes a Retrier. Zero values fall back to defaults.
type Config struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// MaxElapsedTime of zero leaves the caller's context as the only time bound.
	MaxElapsedTime time.Duration
	Logger         zerolog.Logger
	// OnRetry is called before every retry.
	OnRetry func(err error, attempt int)
}

// Retrier implements usecase.Retrier with exponential backoff. Revision
// conflicts and PostgreSQL deadlock/serialization failures are retried; every
// other error ends the loop immediately.
type Retrier struct {
	maxRetries      int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
	onRetry         func(err error, attempt int)
}

// NewRetrier creates a new Retrier with default settings.
func NewRetrier() *Retrier {
	return NewRetrierWithConfig(Config{Logger: zerolog.Nop()})
}

// NewRetrierWithConfig creates a Retrier from cfg.
func NewRetrierWithConfig(cfg Config) *Retrier {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 10
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 5 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 200 * time.Millisecond
	}

	return &Retrier{
		maxRetries:      cfg.MaxRetries,
		initialInterval: cfg.InitialInterval,
		maxInterval:     cfg.MaxInterval,
		maxElapsedTime:  cfg.MaxElapsedTime,
		logger:          cfg.Logger,
		onRetry:         cfg.OnRetry,
	}
}

// Retry executes operation until it succeeds or fails permanently. Running
// out of retries on a retryable error yields domain.ErrBusy; a done context
// yields the context error.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	attempts := 0
	retryCount := 0
	exhausted := false

	err := backoff.Retry(func() error {
		attempts++
		err := operation()
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}

		retryCount++
		if retryCount > r.maxRetries {
			exhausted = true
			return backoff.Permanent(err)
		}

		r.logger.Debug().
			Err(err).
			Int("retry", retryCount).
			Msg("retryable storage conflict, retrying")

		if r.onRetry != nil {
			r.onRetry(err, retryCount)
		}

		return err
	}, backoff.WithContext(b, ctx))

	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil && !exhausted && IsRetryable(err) {
		return ctxErr
	}

	if IsRetryable(err) {
		return fmt.Errorf("%w after %d attempts: %w", domain.ErrBusy, attempts, err)
	}

	return err
}

// IsRetryable reports whether err is a transient write conflict.
func IsRetryable(err error) bool {
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.DeadlockDetected, pgerrcode.SerializationFailure:
			return true
		}
	}
	return false
}
