package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/usecase"
)

func TestAccountFromDomainFormatsBalance(t *testing.T) {
	resp := AccountFromDomain(&domain.Account{
		ID:       1,
		Code:     "AAA",
		Balance:  decimal.RequireFromString("70"),
		Revision: 2,
	})

	if resp.Balance != "70.00" {
		t.Fatalf("expected balance 70.00, got %s", resp.Balance)
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(raw), `"balance":"70.00"`) {
		t.Fatalf("expected balance as string, got %s", raw)
	}
}

func TestMovementResultFromUseCase(t *testing.T) {
	now := time.Now().UTC()
	result := &usecase.MovementResult{
		Account: &domain.Account{ID: 1, Code: "AAA", Balance: decimal.RequireFromString("120"), Revision: 3},
		Movement: &domain.Movement{
			ID:              "m1",
			AccountID:       1,
			Kind:            domain.MovementKindCredit,
			Amount:          decimal.RequireFromString("50"),
			Reference:       "X",
			BalanceAfter:    decimal.RequireFromString("120"),
			AccountRevision: 3,
			CreatedAt:       now,
		},
		Replayed: true,
	}

	resp := MovementResultFromUseCase(result)

	if !resp.Replayed || resp.Account.Balance != "120.00" || resp.Movement.Amount != "50.00" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Movement.Kind != "CREDIT" || resp.Movement.BalanceAfter != "120.00" {
		t.Fatalf("unexpected movement %+v", resp.Movement)
	}
}

func TestMovementsFromDomainEmpty(t *testing.T) {
	raw, err := json.Marshal(ListMovementsResponse{Movements: MovementsFromDomain(nil)})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(raw) != `{"movements":[]}` {
		t.Fatalf("expected empty array, got %s", raw)
	}
}
