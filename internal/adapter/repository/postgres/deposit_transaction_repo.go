package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/infrastructure/postgres/generated"
	"github.com/nhangsach/depositledger/internal/usecase"
)

// DepositTransactionRepository implements usecase.DepositTransactionRepository.
// Rows are insert-only; the table rejects UPDATE and DELETE.
type DepositTransactionRepository struct {
	queries *generated.Queries
}

// NewDepositTransactionRepository creates a new DepositTransactionRepository.
func NewDepositTransactionRepository(db generated.DBTX) *DepositTransactionRepository {
	return &DepositTransactionRepository{
		queries: generated.New(db),
	}
}

// Create appends a transaction row.
func (r *DepositTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.DepositTransaction) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	err = queries.CreateDepositTransaction(ctx, generated.CreateDepositTransactionParams{
		ID:            t.ID,
		VendorID:      t.VendorID,
		OrderID:       textOrNull(t.OrderID),
		Type:          string(t.Type),
		Amount:        decimalToNumeric(t.Amount),
		BalanceBefore: decimalToNumeric(t.BalanceBefore),
		BalanceAfter:  decimalToNumeric(t.BalanceAfter),
		Description:   t.Description,
		ProcessedBy:   textOrNull(t.ProcessedBy),
		ProofUrl:      textOrNull(t.ProofURL),
		CreatedAt:     timeToPgTimestamptz(t.CreatedAt),
	})

	return mapPgError(err)
}

// GetDeductionByOrderTx looks up the deduction for an order inside a transaction.
func (r *DepositTransactionRepository) GetDeductionByOrderTx(ctx context.Context, tx usecase.Transaction, vendorID, orderID string) (*domain.DepositTransaction, error) {
	queries, err := txQueries(tx)
	if err != nil {
		return nil, err
	}

	return getDeduction(ctx, queries, vendorID, orderID)
}

// GetDeductionByOrder looks up the deduction for an order.
func (r *DepositTransactionRepository) GetDeductionByOrder(ctx context.Context, vendorID, orderID string) (*domain.DepositTransaction, error) {
	return getDeduction(ctx, r.queries, vendorID, orderID)
}

// ListByVendor lists a vendor's transactions, newest first.
func (r *DepositTransactionRepository) ListByVendor(ctx context.Context, vendorID string, filter domain.TransactionFilter) ([]*domain.DepositTransaction, error) {
	rows, err := r.queries.ListDepositTransactionsByVendor(ctx, generated.ListDepositTransactionsByVendorParams{
		VendorID: vendorID,
		Type:     string(filter.Type),
		Lim:      int32(filter.Limit),
		Off:      int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	txs := make([]*domain.DepositTransaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, rowToDepositTransaction(row))
	}

	return txs, nil
}

// SumByVendor returns the running sum of all amounts for a vendor.
func (r *DepositTransactionRepository) SumByVendor(ctx context.Context, vendorID string) (decimal.Decimal, error) {
	total, err := r.queries.SumDepositTransactionsByVendor(ctx, vendorID)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(total), nil
}

func getDeduction(ctx context.Context, queries *generated.Queries, vendorID, orderID string) (*domain.DepositTransaction, error) {
	row, err := queries.GetDeductionByOrder(ctx, generated.GetDeductionByOrderParams{
		VendorID: vendorID,
		OrderID:  textOrNull(orderID),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return rowToDepositTransaction(row), nil
}

func rowToDepositTransaction(row generated.DepositTransaction) *domain.DepositTransaction {
	return &domain.DepositTransaction{
		ID:            row.ID,
		VendorID:      row.VendorID,
		OrderID:       row.OrderID.String,
		Type:          domain.TransactionType(row.Type),
		Amount:        numericToDecimal(row.Amount),
		BalanceBefore: numericToDecimal(row.BalanceBefore),
		BalanceAfter:  numericToDecimal(row.BalanceAfter),
		Description:   row.Description,
		ProcessedBy:   row.ProcessedBy.String,
		ProofURL:      row.ProofUrl.String,
		CreatedAt:     row.CreatedAt.Time,
	}
}
