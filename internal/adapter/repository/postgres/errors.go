package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/switchledger/internal/domain"
)

const (
	constraintAccountCode       = "accounts_code_key"
	constraintMovementReference = "movements_account_reference_key"
	constraintMovementRevision  = "movements_account_revision_key"
)

// translateError maps PostgreSQL constraint and concurrency errors to domain
// errors, keeping the driver error in the chain.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case constraintAccountCode:
			return fmt.Errorf("%w: %w", domain.ErrAccountConflict, err)
		case constraintMovementReference:
			return fmt.Errorf("%w: %w", domain.ErrDuplicateReference, err)
		case constraintMovementRevision:
			return fmt.Errorf("%w: %w", domain.ErrConcurrencyConflict, err)
		}
	case pgerrcode.DeadlockDetected, pgerrcode.SerializationFailure:
		return fmt.Errorf("%w: %w", domain.ErrConcurrencyConflict, err)
	case pgerrcode.NumericValueOutOfRange:
		return fmt.Errorf("%w: %w", domain.ErrInvalidAmount, err)
	}

	return err
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp).Round(domain.MoneyScale)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
