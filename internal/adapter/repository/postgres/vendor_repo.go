package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/infrastructure/postgres/generated"
	"github.com/nhangsach/depositledger/internal/usecase"
)

// VendorRepository implements usecase.VendorRepository.
type VendorRepository struct {
	queries *generated.Queries
}

// NewVendorRepository creates a new VendorRepository.
func NewVendorRepository(db generated.DBTX) *VendorRepository {
	return &VendorRepository{
		queries: generated.New(db),
	}
}

// Create creates a new vendor.
func (r *VendorRepository) Create(ctx context.Context, vendor *domain.Vendor) error {
	minimum := vendor.MinimumDeposit
	if minimum.IsZero() {
		minimum = domain.DefaultMinimumDeposit
	}
	model := vendor.PaymentModel
	if model == "" {
		model = domain.PaymentModelDeposit
	}

	_, err := r.queries.CreateVendor(ctx, generated.CreateVendorParams{
		ID:             vendor.ID,
		Name:           vendor.Name,
		DepositBalance: decimalToNumeric(vendor.DepositBalance),
		DepositTotal:   decimalToNumeric(vendor.DepositTotal),
		MinimumDeposit: decimalToNumeric(minimum),
		PaymentModel:   string(model),
		Status:         vendor.Status,
		CreatedAt:      timeToPgTimestamptz(vendor.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(vendor.UpdatedAt),
	})

	return err
}

// GetByID retrieves a vendor by ID.
func (r *VendorRepository) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	return getVendor(ctx, r.queries, id)
}

// GetByIDTx retrieves a vendor inside a transaction.
func (r *VendorRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Vendor, error) {
	queries, err := txQueries(tx)
	if err != nil {
		return nil, err
	}

	return getVendor(ctx, queries, id)
}

// DeductBalance subtracts amount in one guarded statement. The row lock taken
// by the UPDATE serializes concurrent deductions for the same vendor.
func (r *VendorRepository) DeductBalance(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (usecase.BalanceChange, bool, error) {
	queries, err := txQueries(tx)
	if err != nil {
		return usecase.BalanceChange{}, false, err
	}

	row, err := queries.DeductVendorBalance(ctx, generated.DeductVendorBalanceParams{
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(at),
		ID:        id,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return usecase.BalanceChange{}, false, nil
		}
		return usecase.BalanceChange{}, false, mapPgError(err)
	}

	return usecase.BalanceChange{
		Before: numericToDecimal(row.BalanceBefore),
		After:  numericToDecimal(row.BalanceAfter),
	}, true, nil
}

// CreditBalance adds amount and optionally counts it towards the deposit total.
func (r *VendorRepository) CreditBalance(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, countAsDeposit bool, at time.Time) (usecase.BalanceChange, bool, error) {
	queries, err := txQueries(tx)
	if err != nil {
		return usecase.BalanceChange{}, false, err
	}

	row, err := queries.CreditVendorBalance(ctx, generated.CreditVendorBalanceParams{
		Amount:         decimalToNumeric(amount),
		CountAsDeposit: countAsDeposit,
		UpdatedAt:      timeToPgTimestamptz(at),
		ID:             id,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return usecase.BalanceChange{}, false, nil
		}
		return usecase.BalanceChange{}, false, mapPgError(err)
	}

	return usecase.BalanceChange{
		Before: numericToDecimal(row.BalanceBefore),
		After:  numericToDecimal(row.BalanceAfter),
	}, true, nil
}

// List lists vendors ordered by ID.
func (r *VendorRepository) List(ctx context.Context, limit, offset int) ([]*domain.Vendor, error) {
	rows, err := r.queries.ListVendors(ctx, generated.ListVendorsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	vendors := make([]*domain.Vendor, 0, len(rows))
	for _, row := range rows {
		vendors = append(vendors, rowToVendor(row))
	}

	return vendors, nil
}

func getVendor(ctx context.Context, queries *generated.Queries, id string) (*domain.Vendor, error) {
	row, err := queries.GetVendorByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVendorNotFound
		}

		return nil, err
	}

	return rowToVendor(row), nil
}

func rowToVendor(row generated.Vendor) *domain.Vendor {
	return &domain.Vendor{
		ID:             row.ID,
		Name:           row.Name,
		DepositBalance: numericToDecimal(row.DepositBalance),
		DepositTotal:   numericToDecimal(row.DepositTotal),
		MinimumDeposit: numericToDecimal(row.MinimumDeposit),
		PaymentModel:   domain.PaymentModel(row.PaymentModel),
		Status:         row.Status,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

func txQueries(tx usecase.Transaction) (*generated.Queries, error) {
	pgTx, ok := tx.(*Tx)
	if !ok {
		return nil, fmt.Errorf("postgres: unsupported transaction type %T", tx)
	}

	return generated.New(pgTx.PgxTx()), nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
