package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nhangsach/depositledger/internal/domain"
)

// BalanceChange is the before/after pair returned by a conditional balance update.
type BalanceChange struct {
	Before decimal.Decimal
	After  decimal.Decimal
}

// VendorRepository defines data access for vendors and their deposit balance.
type VendorRepository interface {
	Create(ctx context.Context, vendor *domain.Vendor) error
	GetByID(ctx context.Context, id string) (*domain.Vendor, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.Vendor, error)
	// DeductBalance subtracts amount only if the current balance still covers it.
	// ok is false when the guard rejected the update.
	DeductBalance(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, at time.Time) (change BalanceChange, ok bool, err error)
	// CreditBalance adds amount. countAsDeposit also increases the cumulative deposit total.
	CreditBalance(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, countAsDeposit bool, at time.Time) (change BalanceChange, ok bool, err error)
	List(ctx context.Context, limit, offset int) ([]*domain.Vendor, error)
}

// VendorOrderRepository defines data access for vendor orders.
type VendorOrderRepository interface {
	Create(ctx context.Context, order *domain.VendorOrder) error
	GetByID(ctx context.Context, id string) (*domain.VendorOrder, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.VendorOrder, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.OrderStatus, at time.Time) error
	// MarkDeducted flips deposit_deducted from false to true. claimed is false if
	// another transaction already holds the claim.
	MarkDeducted(ctx context.Context, tx Transaction, id string, at time.Time) (claimed bool, err error)
}

// DepositTransactionRepository defines data access for the append-only deposit history.
type DepositTransactionRepository interface {
	Create(ctx context.Context, tx Transaction, t *domain.DepositTransaction) error
	GetDeductionByOrderTx(ctx context.Context, tx Transaction, vendorID, orderID string) (*domain.DepositTransaction, error)
	GetDeductionByOrder(ctx context.Context, vendorID, orderID string) (*domain.DepositTransaction, error)
	ListByVendor(ctx context.Context, vendorID string, filter domain.TransactionFilter) ([]*domain.DepositTransaction, error)
	SumByVendor(ctx context.Context, vendorID string) (decimal.Decimal, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
