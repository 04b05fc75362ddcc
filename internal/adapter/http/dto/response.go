package dto

import (
	"time"

	"github.com/iho/switchledger/internal/domain"
	"github.com/iho/switchledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	HolderReference string    `json:"holder_reference"`
	Balance         string    `json:"balance"`
	Revision        int64     `json:"revision"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:              a.ID,
		Code:            a.Code,
		HolderReference: a.HolderReference,
		Balance:         a.Balance.StringFixed(domain.MoneyScale),
		Revision:        a.Revision,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// MovementResponse represents a movement in API responses.
type MovementResponse struct {
	ID              string    `json:"id"`
	AccountID       int64     `json:"account_id"`
	Kind            string    `json:"kind"`
	Amount          string    `json:"amount"`
	Reference       string    `json:"reference,omitempty"`
	BalanceAfter    string    `json:"balance_after"`
	AccountRevision int64     `json:"account_revision"`
	CreatedAt       time.Time `json:"created_at"`
}

// MovementFromDomain converts domain movement to response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	return &MovementResponse{
		ID:              m.ID,
		AccountID:       m.AccountID,
		Kind:            string(m.Kind),
		Amount:          m.Amount.StringFixed(domain.MoneyScale),
		Reference:       m.Reference,
		BalanceAfter:    m.BalanceAfter.StringFixed(domain.MoneyScale),
		AccountRevision: m.AccountRevision,
		CreatedAt:       m.CreatedAt,
	}
}

// MovementsFromDomain converts domain movements to responses.
func MovementsFromDomain(movements []*domain.Movement) []*MovementResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return result
}

// ListMovementsResponse represents an account's movement history.
type ListMovementsResponse struct {
	Movements []*MovementResponse `json:"movements"`
}

// MovementResultResponse is returned by the movement endpoints.
type MovementResultResponse struct {
	Account  *AccountResponse  `json:"account"`
	Movement *MovementResponse `json:"movement"`
	Replayed bool              `json:"replayed"`
}

// MovementResultFromUseCase converts an engine result to response.
func MovementResultFromUseCase(r *usecase.MovementResult) *MovementResultResponse {
	return &MovementResultResponse{
		Account:  AccountFromDomain(r.Account),
		Movement: MovementFromDomain(r.Movement),
		Replayed: r.Replayed,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
