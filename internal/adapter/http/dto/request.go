package dto

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Code            string           `json:"code"`
	HolderReference string           `json:"holder_reference"`
	InitialBalance  *decimal.Decimal `json:"initial_balance,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	input := usecase.CreateAccountInput{
		Code:            r.Code,
		HolderReference: r.HolderReference,
	}
	if r.InitialBalance != nil {
		input.InitialBalance = *r.InitialBalance
	}
	return input
}

// ApplyMovementRequest represents a debit or credit against an account
// addressed in the URL.
type ApplyMovementRequest struct {
	Kind      string          `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference,omitempty"`
}

// ToUseCaseInput converts to use case input for the account with key.
func (r *ApplyMovementRequest) ToUseCaseInput(key domain.AccountKey) (usecase.ApplyMovementInput, error) {
	kind, err := domain.ParseMovementKind(r.Kind)
	if err != nil {
		return usecase.ApplyMovementInput{}, err
	}

	return usecase.ApplyMovementInput{
		Key:       key,
		Kind:      kind,
		Amount:    r.Amount,
		Reference: strings.TrimSpace(r.Reference),
	}, nil
}

// SwitchInstructionRequest is the payment switch's movement instruction.
// InstructionID doubles as the idempotency reference.
type SwitchInstructionRequest struct {
	AccountCode   string          `json:"account_code"`
	InstructionID string          `json:"instruction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          string          `json:"kind"`
}

// ToUseCaseInput validates the instruction and converts it to use case input.
func (r *SwitchInstructionRequest) ToUseCaseInput() (usecase.ApplyMovementInput, error) {
	id, err := uuid.Parse(strings.TrimSpace(r.InstructionID))
	if err != nil {
		return usecase.ApplyMovementInput{}, domain.ErrInvalidReference
	}

	code := domain.NormalizeCode(r.AccountCode)
	if err := domain.ValidateAccountCode(code); err != nil {
		return usecase.ApplyMovementInput{}, err
	}

	kind, err := domain.ParseMovementKind(r.Kind)
	if err != nil {
		return usecase.ApplyMovementInput{}, err
	}

	return usecase.ApplyMovementInput{
		Key:       domain.KeyByCode(code),
		Kind:      kind,
		Amount:    r.Amount,
		Reference: id.String(),
	}, nil
}
