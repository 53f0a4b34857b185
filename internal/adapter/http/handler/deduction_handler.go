package handler

import (
	"context"
	"net/http"

	"github.com/nhangsach/depositledger/internal/adapter/http/dto"
	"github.com/nhangsach/depositledger/internal/usecase"
)

// DeductionService defines the behavior needed by DeductionHandler.
type DeductionService interface {
	Deduct(ctx context.Context, vendorOrderID string) (*usecase.DeductResult, error)
}

// DeductionHandler handles commission deduction requests.
type DeductionHandler struct {
	ledgerUC DeductionService
}

// NewDeductionHandler creates a new DeductionHandler.
func NewDeductionHandler(ledgerUC DeductionService) *DeductionHandler {
	return &DeductionHandler{ledgerUC: ledgerUC}
}

// Create deducts the commission of a delivered vendor order. A repeated call
// for the same order returns the original deduction with 200.
func (h *DeductionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.DeductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.ledgerUC.Deduct(r.Context(), req.VendorOrderID)
	if err != nil {
		writeDomainError(w, "failed to deduct commission", err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyApplied {
		status = http.StatusOK
	}

	writeJSON(w, status, dto.DeductionFromResult(result))
}
