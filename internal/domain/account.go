package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a non-negative, 2-decimal balance guarded by a revision counter.
type Account struct {
	ID              int64
	Code            string
	HolderReference string
	Balance         decimal.Decimal
	Revision        int64
	Signature       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.ApplyDebit(amount).IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount).Round(MoneyScale)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount).Round(MoneyScale)
}

// Apply returns the balance the account would hold after a movement of kind.
func (a *Account) Apply(kind MovementKind, amount decimal.Decimal) (decimal.Decimal, error) {
	switch kind {
	case MovementKindCredit:
		balance := a.ApplyCredit(amount)
		if balance.GreaterThan(MaxAmount) {
			return decimal.Zero, fmt.Errorf("%w: balance would exceed %s", ErrInvalidAmount, MaxAmount)
		}
		return balance, nil
	case MovementKindDebit:
		if err := a.ValidateDebit(amount); err != nil {
			return decimal.Zero, err
		}
		return a.ApplyDebit(amount), nil
	default:
		return decimal.Zero, ErrInvalidMovementKind
	}
}

// AccountKey addresses an account either by numeric ID or by code.
type AccountKey struct {
	ID   int64
	Code string
}

// KeyByID returns a key addressing the account with the given ID.
func KeyByID(id int64) AccountKey {
	return AccountKey{ID: id}
}

// KeyByCode returns a key addressing the account with the given code.
func KeyByCode(code string) AccountKey {
	return AccountKey{Code: NormalizeCode(code)}
}

// IsCode reports whether the key addresses the account by code.
func (k AccountKey) IsCode() bool {
	return k.Code != ""
}

func (k AccountKey) String() string {
	if k.IsCode() {
		return "code:" + k.Code
	}
	return "id:" + strconv.FormatInt(k.ID, 10)
}
