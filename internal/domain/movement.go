package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind is the direction of a balance change.
type MovementKind string

const (
	MovementKindDebit  MovementKind = "DEBIT"
	MovementKindCredit MovementKind = "CREDIT"
)

// OpeningReference is the reference carried by the movement that records a
// seeded opening balance.
const OpeningReference = "opening"

// ParseMovementKind parses a case-insensitive movement kind.
func ParseMovementKind(s string) (MovementKind, error) {
	kind := MovementKind(strings.ToUpper(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", ErrInvalidMovementKind
	}
	return kind, nil
}

// IsValid reports whether k is DEBIT or CREDIT.
func (k MovementKind) IsValid() bool {
	return k == MovementKindDebit || k == MovementKindCredit
}

// Movement is an immutable record of one applied balance change.
type Movement struct {
	CreatedAt       time.Time
	ID              string
	AccountID       int64
	Kind            MovementKind
	Amount          decimal.Decimal
	Reference       string
	BalanceAfter    decimal.Decimal
	AccountRevision int64
}

// SignedAmount returns the amount with the sign of its effect on the balance.
func (m *Movement) SignedAmount() decimal.Decimal {
	if m.Kind == MovementKindDebit {
		return m.Amount.Neg()
	}
	return m.Amount
}
