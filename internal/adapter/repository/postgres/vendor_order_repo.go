package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/infrastructure/postgres/generated"
	"github.com/nhangsach/depositledger/internal/usecase"
)

// VendorOrderRepository implements usecase.VendorOrderRepository.
type VendorOrderRepository struct {
	queries *generated.Queries
}

// NewVendorOrderRepository creates a new VendorOrderRepository.
func NewVendorOrderRepository(db generated.DBTX) *VendorOrderRepository {
	return &VendorOrderRepository{
		queries: generated.New(db),
	}
}

// Create creates a new vendor order.
func (r *VendorOrderRepository) Create(ctx context.Context, order *domain.VendorOrder) error {
	var deliveredAt pgtype.Timestamptz
	if order.DeliveredAt != nil {
		deliveredAt = pgtype.Timestamptz{Time: *order.DeliveredAt, Valid: true}
	}

	_, err := r.queries.CreateVendorOrder(ctx, generated.CreateVendorOrderParams{
		ID:               order.ID,
		VendorID:         order.VendorID,
		OrderID:          order.OrderID,
		Status:           string(order.Status),
		CommissionAmount: decimalToNumeric(order.CommissionAmount),
		DepositDeducted:  order.DepositDeducted,
		DeliveredAt:      deliveredAt,
		CreatedAt:        timeToPgTimestamptz(order.CreatedAt),
		UpdatedAt:        timeToPgTimestamptz(order.UpdatedAt),
	})

	return mapPgError(err)
}

// GetByID retrieves a vendor order by ID.
func (r *VendorOrderRepository) GetByID(ctx context.Context, id string) (*domain.VendorOrder, error) {
	return getVendorOrder(ctx, r.queries, id)
}

// GetByIDTx retrieves a vendor order inside a transaction.
func (r *VendorOrderRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.VendorOrder, error) {
	queries, err := txQueries(tx)
	if err != nil {
		return nil, err
	}

	return getVendorOrder(ctx, queries, id)
}

// UpdateStatus sets the fulfillment status, stamping delivered_at on delivery.
func (r *VendorOrderRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.OrderStatus, at time.Time) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	n, err := queries.UpdateVendorOrderStatus(ctx, generated.UpdateVendorOrderStatusParams{
		Status:    string(status),
		UpdatedAt: timeToPgTimestamptz(at),
		ID:        id,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrVendorOrderNotFound
	}

	return nil
}

// MarkDeducted claims the order for deduction. A concurrent claimer blocks on
// the row lock and, once the holder commits, updates zero rows.
func (r *VendorOrderRepository) MarkDeducted(ctx context.Context, tx usecase.Transaction, id string, at time.Time) (bool, error) {
	queries, err := txQueries(tx)
	if err != nil {
		return false, err
	}

	n, err := queries.MarkVendorOrderDeducted(ctx, generated.MarkVendorOrderDeductedParams{
		ID:        id,
		UpdatedAt: timeToPgTimestamptz(at),
	})
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func getVendorOrder(ctx context.Context, queries *generated.Queries, id string) (*domain.VendorOrder, error) {
	row, err := queries.GetVendorOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVendorOrderNotFound
		}

		return nil, err
	}

	return rowToVendorOrder(row), nil
}

func rowToVendorOrder(row generated.VendorOrder) *domain.VendorOrder {
	var deliveredAt *time.Time
	if row.DeliveredAt.Valid {
		t := row.DeliveredAt.Time
		deliveredAt = &t
	}

	return &domain.VendorOrder{
		ID:               row.ID,
		VendorID:         row.VendorID,
		OrderID:          row.OrderID,
		Status:           domain.OrderStatus(row.Status),
		CommissionAmount: numericToDecimal(row.CommissionAmount),
		DepositDeducted:  row.DepositDeducted,
		DeliveredAt:      deliveredAt,
		CreatedAt:        row.CreatedAt.Time,
		UpdatedAt:        row.UpdatedAt.Time,
	}
}
