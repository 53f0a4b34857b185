package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nhangsach/depositledger/internal/adapter/http/dto"
	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/usecase"
)

// DepositService defines the ledger writes needed by VendorHandler.
type DepositService interface {
	Deposit(ctx context.Context, input usecase.DepositInput) (*domain.DepositTransaction, error)
	Refund(ctx context.Context, input usecase.RefundInput) (*domain.DepositTransaction, error)
}

// ReportingService defines the ledger reads needed by VendorHandler.
type ReportingService interface {
	GetBalance(ctx context.Context, vendorID string) (*usecase.VendorBalance, error)
	ListTransactions(ctx context.Context, input usecase.ListTransactionsInput) ([]*domain.DepositTransaction, error)
}

// ReconciliationService defines the balance audit needed by VendorHandler.
type ReconciliationService interface {
	ReconcileVendor(ctx context.Context, vendorID string) (*usecase.ReconciliationResult, error)
	ReconcileAll(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// VendorHandler handles vendor deposit HTTP requests.
type VendorHandler struct {
	ledgerUC    DepositService
	reportingUC ReportingService
	reconcileUC ReconciliationService
}

// NewVendorHandler creates a new VendorHandler.
func NewVendorHandler(ledgerUC DepositService, reportingUC ReportingService, reconcileUC ReconciliationService) *VendorHandler {
	return &VendorHandler{
		ledgerUC:    ledgerUC,
		reportingUC: reportingUC,
		reconcileUC: reconcileUC,
	}
}

// Deposit tops up a vendor's deposit.
func (h *VendorHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "id")

	var req dto.DepositRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(vendorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	tx, err := h.ledgerUC.Deposit(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to record deposit", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// Refund credits a vendor's deposit for a returned order.
func (h *VendorHandler) Refund(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "id")

	var req dto.RefundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(vendorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	tx, err := h.ledgerUC.Refund(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to record refund", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(tx))
}

// Balance returns a vendor's current deposit position.
func (h *VendorHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.reportingUC.GetBalance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromUseCase(balance))
}

// Transactions lists a vendor's deposit history, newest first.
func (h *VendorHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	limit, err := parseStrictIntQuery(r, "limit", 20)
	if err != nil {
		writeDomainError(w, "invalid pagination", err)
		return
	}
	offset, err := parseStrictIntQuery(r, "offset", 0)
	if err != nil {
		writeDomainError(w, "invalid pagination", err)
		return
	}

	txs, err := h.reportingUC.ListTransactions(r.Context(), usecase.ListTransactionsInput{
		VendorID: chi.URLParam(r, "id"),
		Type:     domain.TransactionType(r.URL.Query().Get("type")),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		writeDomainError(w, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(txs, limit, offset))
}

// Reconcile compares a vendor's balance with its transaction sum.
func (h *VendorHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconcileUC.ReconcileVendor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to reconcile vendor", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// ReconcileAll runs reconciliation over every vendor.
func (h *VendorHandler) ReconcileAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconcileUC.ReconcileAll(r.Context())
	if err != nil {
		writeDomainError(w, "failed to reconcile vendors", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromUseCase(report))
}
