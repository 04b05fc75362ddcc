package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MoneyScale               = 2
	MaxAccountCodeLength     = 34
	MaxHolderReferenceLength = 255
	MaxReferenceLength       = 128
)

// MaxAmount is the largest value a NUMERIC(19,2) balance column can hold.
var MaxAmount = decimal.RequireFromString("99999999999999999.99")

// NormalizeAmount validates a movement amount and returns it at MoneyScale.
// Zero, negative, sub-cent and out-of-range amounts are rejected.
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}

	if amount.GreaterThan(MaxAmount) {
		return decimal.Zero, fmt.Errorf("%w: %s exceeds %s", ErrInvalidAmount, amount, MaxAmount)
	}

	rounded := amount.Round(MoneyScale)
	if !rounded.Equal(amount) {
		return decimal.Zero, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, amount, MoneyScale)
	}

	return rounded, nil
}

// NormalizeOpeningBalance validates a seeded balance, which may be zero.
func NormalizeOpeningBalance(balance decimal.Decimal) (decimal.Decimal, error) {
	if balance.IsZero() {
		return decimal.Zero.Round(MoneyScale), nil
	}
	return NormalizeAmount(balance)
}

// NormalizeCode trims and upper-cases an account code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateAccountCode validates a normalized account code.
func ValidateAccountCode(code string) error {
	if code == "" {
		return fmt.Errorf("%w: code cannot be empty", ErrInvalidAccount)
	}

	if len(code) > MaxAccountCodeLength {
		return fmt.Errorf("%w: code exceeds %d characters", ErrInvalidAccount, MaxAccountCodeLength)
	}

	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '-' {
			return fmt.Errorf("%w: code may only contain letters, digits and '-'", ErrInvalidAccount)
		}
	}

	return nil
}

// ValidateHolderReference validates the account-holder reference.
func ValidateHolderReference(ref string) error {
	ref = strings.TrimSpace(ref)

	if ref == "" {
		return fmt.Errorf("%w: holder reference cannot be empty", ErrInvalidAccount)
	}

	if len(ref) > MaxHolderReferenceLength {
		return fmt.Errorf("%w: holder reference exceeds %d characters", ErrInvalidAccount, MaxHolderReferenceLength)
	}

	return nil
}

// ValidateReference validates an idempotency reference. Empty means no dedup.
// OpeningReference belongs to the seeded opening movement.
func ValidateReference(ref string) error {
	if ref == OpeningReference {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidReference, ref)
	}

	if len(ref) > MaxReferenceLength {
		return fmt.Errorf("%w: reference exceeds %d characters", ErrInvalidReference, MaxReferenceLength)
	}
	return nil
}
