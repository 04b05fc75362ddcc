package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMovementKind(t *testing.T) {
	tests := []struct {
		input   string
		want    MovementKind
		wantErr bool
	}{
		{input: "DEBIT", want: MovementKindDebit},
		{input: "credit", want: MovementKindCredit},
		{input: " Debit ", want: MovementKindDebit},
		{input: "", wantErr: true},
		{input: "DEBITO", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMovementKind(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidMovementKind) {
					t.Fatalf("expected ErrInvalidMovementKind, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestMovement_SignedAmount(t *testing.T) {
	debit := &Movement{Kind: MovementKindDebit, Amount: decimal.NewFromInt(30)}
	if !debit.SignedAmount().Equal(decimal.NewFromInt(-30)) {
		t.Fatalf("expected -30, got %s", debit.SignedAmount())
	}

	credit := &Movement{Kind: MovementKindCredit, Amount: decimal.NewFromInt(30)}
	if !credit.SignedAmount().Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected 30, got %s", credit.SignedAmount())
	}
}
