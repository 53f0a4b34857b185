package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nhangsach/depositledger/internal/adapter/http/dto"
	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/usecase"
)

// FulfillmentService defines the behavior needed by VendorOrderHandler.
type FulfillmentService interface {
	UpdateStatus(ctx context.Context, vendorOrderID string, status domain.OrderStatus) (*usecase.StatusUpdateResult, error)
}

// VendorOrderHandler handles vendor order fulfillment requests.
type VendorOrderHandler struct {
	fulfillmentUC FulfillmentService
}

// NewVendorOrderHandler creates a new VendorOrderHandler.
func NewVendorOrderHandler(fulfillmentUC FulfillmentService) *VendorOrderHandler {
	return &VendorOrderHandler{fulfillmentUC: fulfillmentUC}
}

// UpdateStatus changes a vendor order's status. When a delivered order's
// deduction fails the status change stands; the response carries the order
// together with the deduction error.
func (h *VendorOrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.fulfillmentUC.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.ToStatus())
	if err != nil && (result == nil || result.Order == nil) {
		writeDomainError(w, "failed to update order status", err)
		return
	}

	resp := &dto.StatusUpdateResponse{
		Order:     dto.VendorOrderFromDomain(result.Order),
		Deduction: dto.DeductionFromResult(result.Deduction),
	}
	if err != nil {
		resp.Error = errorBody("order delivered but commission not deducted", err)
		if domain.KindOf(err) == domain.KindConcurrentConflict {
			w.Header().Set("Retry-After", "1")
		}
		writeJSON(w, mapDomainError(err), resp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
