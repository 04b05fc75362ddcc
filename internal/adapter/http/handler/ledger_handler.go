package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/switchledger/internal/adapter/http/dto"
)

// LedgerHandler serves the payment switch's instruction endpoint.
type LedgerHandler struct {
	movementUC MovementService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(movementUC MovementService) *LedgerHandler {
	return &LedgerHandler{movementUC: movementUC}
}

// ApplyInstruction applies a switch instruction. Retried instructions
// with the same instruction_id return the original result, always with 200.
func (h *LedgerHandler) ApplyInstruction(w http.ResponseWriter, r *http.Request) {
	var req dto.SwitchInstructionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	result, err := h.movementUC.ApplyMovement(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MovementResultFromUseCase(result))
}
