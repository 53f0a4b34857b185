package dto

import (
	"time"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/usecase"
)

// DeductionResponse is the outcome of a deduction.
type DeductionResponse struct {
	TransactionID  string `json:"transaction_id"`
	VendorID       string `json:"vendor_id"`
	OrderID        string `json:"order_id"`
	Amount         string `json:"amount"`
	BalanceAfter   string `json:"balance_after"`
	AlreadyApplied bool   `json:"already_applied"`
}

// DeductionFromResult converts a deduction result to response.
func DeductionFromResult(r *usecase.DeductResult) *DeductionResponse {
	if r == nil {
		return nil
	}

	return &DeductionResponse{
		TransactionID:  r.TransactionID,
		VendorID:       r.VendorID,
		OrderID:        r.OrderID,
		Amount:         r.Amount.String(),
		BalanceAfter:   r.BalanceAfter.String(),
		AlreadyApplied: r.AlreadyApplied,
	}
}

// TransactionResponse represents a deposit transaction in API responses.
type TransactionResponse struct {
	ID            string    `json:"id"`
	VendorID      string    `json:"vendor_id"`
	OrderID       string    `json:"order_id,omitempty"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	BalanceBefore string    `json:"balance_before"`
	BalanceAfter  string    `json:"balance_after"`
	Description   string    `json:"description"`
	ProcessedBy   string    `json:"processed_by,omitempty"`
	ProofURL      string    `json:"proof_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to response.
func TransactionFromDomain(t *domain.DepositTransaction) *TransactionResponse {
	return &TransactionResponse{
		ID:            t.ID,
		VendorID:      t.VendorID,
		OrderID:       t.OrderID,
		Type:          string(t.Type),
		Amount:        t.Amount.String(),
		BalanceBefore: t.BalanceBefore.String(),
		BalanceAfter:  t.BalanceAfter.String(),
		Description:   t.Description,
		ProcessedBy:   t.ProcessedBy,
		ProofURL:      t.ProofURL,
		CreatedAt:     t.CreatedAt,
	}
}

// TransactionListResponse is one page of a vendor's transaction history.
type TransactionListResponse struct {
	Transactions []*TransactionResponse `json:"transactions"`
	Limit        int                    `json:"limit"`
	Offset       int                    `json:"offset"`
}

// TransactionsFromDomain converts a page of transactions to response.
func TransactionsFromDomain(txs []*domain.DepositTransaction, limit, offset int) *TransactionListResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, t := range txs {
		result[i] = TransactionFromDomain(t)
	}
	return &TransactionListResponse{
		Transactions: result,
		Limit:        limit,
		Offset:       offset,
	}
}

// BalanceResponse is a vendor's current deposit position.
type BalanceResponse struct {
	VendorID       string `json:"vendor_id"`
	DepositBalance string `json:"deposit_balance"`
	DepositTotal   string `json:"deposit_total"`
	MinimumDeposit string `json:"minimum_deposit"`
	Status         string `json:"status"`
}

// BalanceFromUseCase converts a vendor balance to response.
func BalanceFromUseCase(b *usecase.VendorBalance) *BalanceResponse {
	return &BalanceResponse{
		VendorID:       b.VendorID,
		DepositBalance: b.DepositBalance.String(),
		DepositTotal:   b.DepositTotal.String(),
		MinimumDeposit: b.MinimumDeposit.String(),
		Status:         string(b.Status),
	}
}

// ReconciliationResponse compares the stored balance with the transaction sum.
type ReconciliationResponse struct {
	VendorID          string    `json:"vendor_id"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	IsReconciled      bool      `json:"is_reconciled"`
	LastChecked       time.Time `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		VendorID:          r.VendorID,
		RecordedBalance:   r.RecordedBalance.String(),
		CalculatedBalance: r.CalculatedBalance.String(),
		Difference:        r.Difference.String(),
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse summarises a run across all vendors.
type ReconciliationReportResponse struct {
	TotalVendors      int                       `json:"total_vendors"`
	ReconciledVendors int                       `json:"reconciled_vendors"`
	Discrepancies     []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt         time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromUseCase(d)
	}
	return &ReconciliationReportResponse{
		TotalVendors:      r.TotalVendors,
		ReconciledVendors: r.ReconciledVendors,
		Discrepancies:     discrepancies,
		CheckedAt:         r.CheckedAt,
	}
}

// VendorOrderResponse represents a vendor order in API responses.
type VendorOrderResponse struct {
	ID               string     `json:"id"`
	VendorID         string     `json:"vendor_id"`
	OrderID          string     `json:"order_id"`
	Status           string     `json:"status"`
	CommissionAmount string     `json:"commission_amount"`
	DepositDeducted  bool       `json:"deposit_deducted"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// VendorOrderFromDomain converts a domain vendor order to response.
func VendorOrderFromDomain(o *domain.VendorOrder) *VendorOrderResponse {
	return &VendorOrderResponse{
		ID:               o.ID,
		VendorID:         o.VendorID,
		OrderID:          o.OrderID,
		Status:           string(o.Status),
		CommissionAmount: o.CommissionAmount.String(),
		DepositDeducted:  o.DepositDeducted,
		DeliveredAt:      o.DeliveredAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// StatusUpdateResponse is a vendor order after a status change. Error is set
// when the order was delivered but the commission could not be deducted.
type StatusUpdateResponse struct {
	Order     *VendorOrderResponse `json:"order"`
	Deduction *DeductionResponse   `json:"deduction,omitempty"`
	Error     *ErrorResponse       `json:"error,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
}
