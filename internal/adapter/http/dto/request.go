package dto

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/usecase"
)

// DeductRequest asks the ledger to charge a delivered vendor order's commission.
type DeductRequest struct {
	VendorOrderID string `json:"vendor_order_id"`
}

// DepositRequest tops up a vendor deposit. Amount is a decimal string.
type DepositRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description,omitempty"`
	ProcessedBy string `json:"processed_by,omitempty"`
	ProofURL    string `json:"proof_url,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DepositRequest) ToUseCaseInput(vendorID string) (usecase.DepositInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.DepositInput{}, err
	}

	return usecase.DepositInput{
		VendorID:    vendorID,
		Amount:      amount,
		Description: r.Description,
		ProcessedBy: r.ProcessedBy,
		ProofURL:    r.ProofURL,
	}, nil
}

// RefundRequest credits a vendor deposit for a returned order.
type RefundRequest struct {
	Amount      string `json:"amount"`
	OrderID     string `json:"order_id"`
	Description string `json:"description,omitempty"`
	ProcessedBy string `json:"processed_by,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *RefundRequest) ToUseCaseInput(vendorID string) (usecase.RefundInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.RefundInput{}, err
	}

	return usecase.RefundInput{
		VendorID:    vendorID,
		Amount:      amount,
		OrderID:     r.OrderID,
		Description: r.Description,
		ProcessedBy: r.ProcessedBy,
	}, nil
}

// UpdateStatusRequest moves a vendor order to a new fulfillment status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ToStatus returns the requested status, lower-cased.
func (r *UpdateStatusRequest) ToStatus() domain.OrderStatus {
	return domain.OrderStatus(strings.ToLower(strings.TrimSpace(r.Status)))
}

func parseAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", domain.ErrInvalidArgument)
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a decimal", domain.ErrInvalidArgument, s)
	}

	return amount, nil
}
