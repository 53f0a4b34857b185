package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/infrastructure/metrics"
)

const reconcilePageSize = 100

// ReconciliationUseCase checks that every stored balance equals the running
// sum of the vendor's transaction history.
type ReconciliationUseCase struct {
	vendorRepo VendorRepository
	txRepo     DepositTransactionRepository
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	vendorRepo VendorRepository,
	txRepo DepositTransactionRepository,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		vendorRepo: vendorRepo,
		txRepo:     txRepo,
		logger:     logger.With().Str("component", "reconciliation").Logger(),
		metrics:    metrics,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	VendorID          string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileVendor compares a vendor's stored balance with the sum of its transactions.
func (uc *ReconciliationUseCase) ReconcileVendor(ctx context.Context, vendorID string) (*ReconciliationResult, error) {
	if err := domain.ValidateID(vendorID); err != nil {
		return nil, err
	}

	vendor, err := uc.vendorRepo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, storageErr(err)
	}

	return uc.reconcile(ctx, vendor)
}

func (uc *ReconciliationUseCase) reconcile(ctx context.Context, vendor *domain.Vendor) (*ReconciliationResult, error) {
	sum, err := uc.txRepo.SumByVendor(ctx, vendor.ID)
	if err != nil {
		return nil, storageErr(err)
	}

	diff := vendor.DepositBalance.Sub(sum)
	result := &ReconciliationResult{
		VendorID:          vendor.ID,
		RecordedBalance:   vendor.DepositBalance,
		CalculatedBalance: sum,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		LastChecked:       time.Now().UTC(),
	}

	if uc.metrics != nil {
		uc.metrics.ReconciliationRuns.Inc()
	}

	if !result.IsReconciled {
		uc.logger.Error().
			Str("vendor_id", vendor.ID).
			Str("recorded", result.RecordedBalance.String()).
			Str("calculated", result.CalculatedBalance.String()).
			Str("difference", diff.String()).
			Msg("deposit balance does not match transaction history")

		if uc.metrics != nil {
			uc.metrics.ReconciliationDiscrepancies.Inc()
		}
	}

	return result, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalVendors      int
	ReconciledVendors int
	Discrepancies     []*ReconciliationResult
	CheckedAt         time.Time
}

// ReconcileAll reconciles every vendor, page by page.
func (uc *ReconciliationUseCase) ReconcileAll(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		Discrepancies: make([]*ReconciliationResult, 0),
	}

	for offset := 0; ; offset += reconcilePageSize {
		vendors, err := uc.vendorRepo.List(ctx, reconcilePageSize, offset)
		if err != nil {
			return nil, storageErr(err)
		}

		for _, vendor := range vendors {
			result, err := uc.reconcile(ctx, vendor)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile vendor %s: %w", vendor.ID, err)
			}

			report.TotalVendors++
			if result.IsReconciled {
				report.ReconciledVendors++
			} else {
				report.Discrepancies = append(report.Discrepancies, result)
			}
		}

		if len(vendors) < reconcilePageSize {
			break
		}
	}

	report.CheckedAt = time.Now().UTC()

	return report, nil
}
