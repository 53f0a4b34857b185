package usecase

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nhangsach/depositledger/internal/domain"
)

// ReportingUseCase serves read-only balance and history snapshots for dashboards.
// Results are for display only and may be stale as soon as they are returned.
type ReportingUseCase struct {
	vendorRepo VendorRepository
	txRepo     DepositTransactionRepository
}

// NewReportingUseCase creates a new ReportingUseCase.
func NewReportingUseCase(vendorRepo VendorRepository, txRepo DepositTransactionRepository) *ReportingUseCase {
	return &ReportingUseCase{
		vendorRepo: vendorRepo,
		txRepo:     txRepo,
	}
}

// VendorBalance is a snapshot of a vendor deposit.
type VendorBalance struct {
	VendorID       string
	DepositBalance decimal.Decimal
	DepositTotal   decimal.Decimal
	MinimumDeposit decimal.Decimal
	Status         domain.BalanceStatus
}

// GetBalance returns the current deposit balance of a vendor.
func (uc *ReportingUseCase) GetBalance(ctx context.Context, vendorID string) (*VendorBalance, error) {
	if err := domain.ValidateID(vendorID); err != nil {
		return nil, err
	}

	vendor, err := uc.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, storageErr(err)
	}

	return &VendorBalance{
		VendorID:       vendor.ID,
		DepositBalance: vendor.DepositBalance,
		DepositTotal:   vendor.DepositTotal,
		MinimumDeposit: vendor.MinimumDeposit,
		Status:         vendor.BalanceStatus(),
	}, nil
}

// ListTransactionsInput represents input for listing a vendor's deposit history.
type ListTransactionsInput struct {
	VendorID string
	Type     domain.TransactionType
	Limit    int
	Offset   int
}

// ListTransactions lists a vendor's deposit transactions, newest first.
func (uc *ReportingUseCase) ListTransactions(ctx context.Context, input ListTransactionsInput) ([]*domain.DepositTransaction, error) {
	if err := domain.ValidateID(input.VendorID); err != nil {
		return nil, err
	}
	if input.Type != "" && !input.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidTransactionType, input.Type)
	}

	if _, err := uc.vendorRepo.GetByID(ctx, input.VendorID); err != nil {
		return nil, storageErr(err)
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	txs, err := uc.txRepo.ListByVendor(ctx, input.VendorID, domain.TransactionFilter{
		Type:   input.Type,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, storageErr(err)
	}

	return txs, nil
}
