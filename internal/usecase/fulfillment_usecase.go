package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/infrastructure/metrics"
)

// Deductor charges the commission of a delivered vendor order.
type Deductor interface {
	Deduct(ctx context.Context, vendorOrderID string) (*DeductResult, error)
}

// FulfillmentUseCase advances vendor orders through fulfillment and fires the
// deposit deduction when an order is delivered.
type FulfillmentUseCase struct {
	txManager       TransactionManager
	orderRepo       VendorOrderRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
	deductor        Deductor
	logger          zerolog.Logger
	metrics         *metrics.Metrics
	conflictRetries uint64
	retryInterval   time.Duration
}

// NewFulfillmentUseCase creates a new FulfillmentUseCase.
func NewFulfillmentUseCase(
	txManager TransactionManager,
	orderRepo VendorOrderRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	deductor Deductor,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *FulfillmentUseCase {
	return &FulfillmentUseCase{
		txManager:       txManager,
		orderRepo:       orderRepo,
		outboxRepo:      outboxRepo,
		idGen:           idGen,
		deductor:        deductor,
		logger:          logger.With().Str("component", "fulfillment").Logger(),
		metrics:         metrics,
		conflictRetries: 2,
		retryInterval:   50 * time.Millisecond,
	}
}

// StatusUpdateResult is the order after the status change plus the deduction
// triggered by a delivery, if any.
type StatusUpdateResult struct {
	Order     *domain.VendorOrder
	Deduction *DeductResult
}

// UpdateStatus moves a vendor order to status. Delivering an order (again)
// invokes Deduct. A failed deduction does not undo the status change; the
// error is returned next to the updated order.
func (uc *FulfillmentUseCase) UpdateStatus(ctx context.Context, vendorOrderID string, status domain.OrderStatus) (*StatusUpdateResult, error) {
	start := time.Now()
	result, err := uc.updateStatus(ctx, vendorOrderID, status)
	if uc.metrics != nil {
		uc.metrics.ObserveOperation(OpUpdateStatus, start, string(domain.KindOf(err)))
	}
	return result, err
}

func (uc *FulfillmentUseCase) updateStatus(ctx context.Context, vendorOrderID string, status domain.OrderStatus) (*StatusUpdateResult, error) {
	if err := domain.ValidateID(vendorOrderID); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidArgument, status)
	}

	order, err := uc.applyStatus(ctx, vendorOrderID, status)
	if err != nil {
		return nil, err
	}

	result := &StatusUpdateResult{Order: order}
	if status != domain.OrderStatusDelivered {
		return result, nil
	}

	deduction, err := uc.deductWithRetry(ctx, order.ID)
	if err != nil {
		uc.logger.Warn().
			Err(err).
			Str("vendor_order_id", order.ID).
			Str("vendor_id", order.VendorID).
			Str("kind", string(domain.KindOf(err))).
			Msg("order delivered but commission not deducted")
		return result, err
	}

	result.Deduction = deduction
	return result, nil
}

func (uc *FulfillmentUseCase) applyStatus(ctx context.Context, vendorOrderID string, status domain.OrderStatus) (*domain.VendorOrder, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, storageErr(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	order, err := uc.orderRepo.GetByIDTx(txCtx, tx, vendorOrderID)
	if err != nil {
		return nil, storageErr(err)
	}

	// Re-delivery is a retrigger of the deduction, not a transition.
	if order.Status == domain.OrderStatusDelivered && status == domain.OrderStatusDelivered {
		return order, nil
	}

	if !order.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, status)
	}

	now := time.Now().UTC()
	if err := uc.orderRepo.UpdateStatus(txCtx, tx, order.ID, status, now); err != nil {
		return nil, storageErr(err)
	}

	previous := order.Status
	order.Status = status
	order.UpdatedAt = now
	if status == domain.OrderStatusDelivered {
		order.DeliveredAt = &now
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   order.ID,
		AggregateType: domain.AggregateTypeVendorOrder,
		EventType:     domain.EventTypeOrderStatusChanged,
		Payload: map[string]any{
			"vendor_order_id": order.ID,
			"vendor_id":       order.VendorID,
			"order_id":        order.OrderID,
			"from":            string(previous),
			"to":              string(status),
		},
		CreatedAt: now,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, storageErr(err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, storageErr(err)
	}

	if uc.metrics != nil {
		uc.metrics.OrderTransitions.WithLabelValues(string(status)).Inc()
	}

	return order, nil
}

// deductWithRetry retries only ConcurrentConflict. Any other error is final.
func (uc *FulfillmentUseCase) deductWithRetry(ctx context.Context, vendorOrderID string) (*DeductResult, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = uc.retryInterval

	var result *DeductResult
	err := backoff.Retry(func() error {
		var err error
		result, err = uc.deductor.Deduct(ctx, vendorOrderID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrConcurrentConflict) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, uc.conflictRetries), ctx))
	if err != nil {
		return nil, err
	}

	return result, nil
}
