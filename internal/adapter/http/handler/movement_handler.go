package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/switchledger/internal/adapter/http/dto"
	"github.com/iho/switchledger/internal/usecase"
)

// MovementService is the balance-mutation engine as seen by the handlers.
type MovementService interface {
	ApplyMovement(ctx context.Context, input usecase.ApplyMovementInput) (*usecase.MovementResult, error)
}

// MovementHandler applies debits and credits.
type MovementHandler struct {
	movementUC MovementService
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movementUC MovementService) *MovementHandler {
	return &MovementHandler{movementUC: movementUC}
}

// Apply applies a movement to the account in the URL. A new movement
// returns 201; a replayed reference returns 200 with the original result.
func (h *MovementHandler) Apply(w http.ResponseWriter, r *http.Request) {
	key, ok := accountIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid account ID", "")
		return
	}

	var req dto.ApplyMovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(key)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.movementUC.ApplyMovement(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}

	writeJSON(w, status, dto.MovementResultFromUseCase(result))
}
