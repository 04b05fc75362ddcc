package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/usecase"
	"github.com/iho/switchledger/tests/testutil"
)

func TestSwitchScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	db.TruncateAll(ctx)
	ledger := db.NewLedger("integration-key", 10)

	account, err := ledger.Accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		Code:            "deutdeff",
		HolderReference: "client-1",
		InitialBalance:  decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "DEUTDEFF", account.Code)
	assert.Equal(t, int64(0), account.Revision)

	key := domain.KeyByCode("DEUTDEFF")

	debit, err := ledger.Movements.ApplyMovement(ctx, usecase.ApplyMovementInput{
		Key:       key,
		Kind:      domain.MovementKindDebit,
		Amount:    decimal.RequireFromString("30"),
		Reference: "instr-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "70.00", debit.Account.Balance.StringFixed(2))
	assert.Equal(t, int64(1), debit.Account.Revision)

	replay, err := ledger.Movements.ApplyMovement(ctx, usecase.ApplyMovementInput{
		Key:       key,
		Kind:      domain.MovementKindDebit,
		Amount:    decimal.RequireFromString("30"),
		Reference: "instr-1",
	})
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, debit.Movement.ID, replay.Movement.ID)
	assert.Equal(t, "70.00", replay.Account.Balance.StringFixed(2))

	_, err = ledger.Movements.ApplyMovement(ctx, usecase.ApplyMovementInput{
		Key:    key,
		Kind:   domain.MovementKindDebit,
		Amount: decimal.RequireFromString("80"),
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	credit, err := ledger.Movements.ApplyMovement(ctx, usecase.ApplyMovementInput{
		Key:    domain.KeyByID(account.ID),
		Kind:   domain.MovementKindCredit,
		Amount: decimal.RequireFromString("50"),
	})
	require.NoError(t, err)
	assert.Equal(t, "120.00", credit.Account.Balance.StringFixed(2))
	assert.Equal(t, int64(2), credit.Account.Revision)

	history, err := ledger.Accounts.ListMovements(ctx, usecase.ListMovementsInput{Key: key})
	require.NoError(t, err)
	require.Len(t, history, 3)

	sum := decimal.Zero
	for i, m := range history {
		assert.Equal(t, int64(i), m.AccountRevision)
		sum = sum.Add(m.SignedAmount())
	}
	assert.Equal(t, "opening", history[0].Reference)
	assert.True(t, sum.Equal(credit.Account.Balance), "balance %s != sum %s", credit.Account.Balance, sum)

	stored, err := ledger.Accounts.GetAccount(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "120.00", stored.Balance.StringFixed(2))
	assert.NotEmpty(t, stored.Signature)
}

func TestAccountConstraints(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	db.TruncateAll(ctx)
	ledger := db.NewLedger("", 3)

	_, err := ledger.Accounts.CreateAccount(ctx, usecase.CreateAccountInput{Code: "ACC-1", HolderReference: "h"})
	require.NoError(t, err)

	_, err = ledger.Accounts.CreateAccount(ctx, usecase.CreateAccountInput{Code: "acc-1", HolderReference: "other"})
	assert.ErrorIs(t, err, domain.ErrAccountConflict)

	_, err = ledger.Accounts.GetAccount(ctx, domain.KeyByID(999999))
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = ledger.Movements.ApplyMovement(ctx, usecase.ApplyMovementInput{
		Key:    domain.KeyByCode("missing"),
		Kind:   domain.MovementKindCredit,
		Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	accounts, err := ledger.Accounts.ListAccounts(ctx, usecase.ListAccountsInput{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, accounts, 1)
}

func TestMovementsAreImmutable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	db.TruncateAll(ctx)
	ledger := db.NewLedger("", 3)

	_, err := ledger.Accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		Code:            "IMMUTABLE",
		HolderReference: "h",
		InitialBalance:  decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	_, err = db.Pool.Exec(ctx, `UPDATE movements SET amount = 1`)
	require.Error(t, err)

	_, err = db.Pool.Exec(ctx, `DELETE FROM movements`)
	require.Error(t, err)
}

func TestTamperedBalanceIsDetected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	db.TruncateAll(ctx)
	ledger := db.NewLedger("integration-key", 3)

	account, err := ledger.Accounts.CreateAccount(ctx, usecase.CreateAccountInput{
		Code:            "TAMPER",
		HolderReference: "h",
		InitialBalance:  decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	_, err = db.Pool.Exec(ctx, `UPDATE accounts SET balance = 1000000 WHERE id = $1`, account.ID)
	require.NoError(t, err)

	_, err = ledger.Movements.ApplyMovement(ctx, usecase.ApplyMovementInput{
		Key:    domain.KeyByID(account.ID),
		Kind:   domain.MovementKindDebit,
		Amount: decimal.NewFromInt(500),
	})
	assert.True(t, errors.Is(err, domain.ErrIntegrityViolation), "got %v", err)
}
