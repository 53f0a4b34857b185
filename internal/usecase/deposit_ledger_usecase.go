package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/infrastructure/metrics"
)

// DepositLedgerUseCase is the only writer of vendor deposit balances.
type DepositLedgerUseCase struct {
	txManager  TransactionManager
	vendorRepo VendorRepository
	orderRepo  VendorOrderRepository
	txRepo     DepositTransactionRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	retrier    Retrier
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewDepositLedgerUseCase creates a new DepositLedgerUseCase.
func NewDepositLedgerUseCase(
	txManager TransactionManager,
	vendorRepo VendorRepository,
	orderRepo VendorOrderRepository,
	txRepo DepositTransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *DepositLedgerUseCase {
	if retrier == nil {
		retrier = noRetry{}
	}

	return &DepositLedgerUseCase{
		txManager:  txManager,
		vendorRepo: vendorRepo,
		orderRepo:  orderRepo,
		txRepo:     txRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		retrier:    retrier,
		logger:     logger.With().Str("component", "deposit_ledger").Logger(),
		metrics:    metrics,
	}
}

// DeductResult is the outcome of a successful or replayed deduction.
type DeductResult struct {
	TransactionID  string
	VendorID       string
	OrderID        string
	Amount         decimal.Decimal
	BalanceAfter   decimal.Decimal
	AlreadyApplied bool
}

// DepositInput represents a deposit top-up.
type DepositInput struct {
	VendorID    string
	Amount      decimal.Decimal
	Description string
	ProcessedBy string
	ProofURL    string
}

// RefundInput represents a refund credited back to a vendor deposit.
type RefundInput struct {
	VendorID    string
	Amount      decimal.Decimal
	OrderID     string
	Description string
	ProcessedBy string
}

// Deduct charges the commission of a delivered vendor order against the
// vendor's deposit exactly once. Repeated calls return the recorded deduction.
func (uc *DepositLedgerUseCase) Deduct(ctx context.Context, vendorOrderID string) (*DeductResult, error) {
	start := time.Now()

	if err := domain.ValidateID(vendorOrderID); err != nil {
		uc.observe(OpDeduct, start, err)
		return nil, err
	}

	var result *DeductResult
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		result, err = uc.deduct(ctx, vendorOrderID)
		return err
	})
	uc.observe(OpDeduct, start, err)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		if result.AlreadyApplied {
			uc.metrics.DeductionsReplayed.Inc()
		} else {
			uc.metrics.LedgerAmount.WithLabelValues(OpDeduct).Observe(result.Amount.InexactFloat64())
			uc.metrics.VendorDepositBalance.WithLabelValues(result.VendorID).Set(result.BalanceAfter.InexactFloat64())
		}
	}

	return result, nil
}

func (uc *DepositLedgerUseCase) deduct(ctx context.Context, vendorOrderID string) (*DeductResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, storageErr(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// 1. Vendor order must exist
	order, err := uc.orderRepo.GetByIDTx(txCtx, tx, vendorOrderID)
	if err != nil {
		return nil, storageErr(err)
	}

	// 2. Only delivered orders are charged
	if err := order.ValidateForDeduction(); err != nil {
		return nil, fmt.Errorf("vendor order %s is %s: %w", order.ID, order.Status, err)
	}

	// 3. A recorded deduction for the same order is returned as is
	existing, err := uc.findDeduction(txCtx, tx, order)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return replayed(existing), nil
	}

	now := time.Now().UTC()

	// Claim the order. A concurrent caller blocks here until the winner
	// finishes, then sees the claim taken and picks up the winner's row.
	claimed, err := uc.orderRepo.MarkDeducted(txCtx, tx, order.ID, now)
	if err != nil {
		return nil, storageErr(err)
	}
	if !claimed {
		existing, err := uc.findDeduction(txCtx, tx, order)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return replayed(existing), nil
		}
		return nil, fmt.Errorf("%w: vendor order %s claimed without a recorded deduction",
			domain.ErrConcurrentConflict, order.ID)
	}

	// 4. Load vendor; the commission was fixed when the order was placed
	vendor, err := uc.vendorRepo.GetByIDTx(txCtx, tx, order.VendorID)
	if err != nil {
		return nil, storageErr(err)
	}
	commission := order.CommissionAmount

	// 5. Fast sufficiency check
	if !vendor.CanCover(commission) {
		uc.logger.Warn().
			Str("vendor_id", vendor.ID).
			Str("order_id", order.OrderID).
			Str("balance", vendor.DepositBalance.String()).
			Str("required", commission.String()).
			Msg("insufficient deposit balance for commission deduction")

		return nil, fmt.Errorf("%w: vendor %s has %s, order %s requires %s",
			domain.ErrInsufficientBalance, vendor.ID, vendor.DepositBalance, order.OrderID, commission)
	}

	// 6. Guarded decrement
	change, ok, err := uc.vendorRepo.DeductBalance(txCtx, tx, vendor.ID, commission, now)
	if err != nil {
		return nil, storageErr(err)
	}

	// 7. Balance moved between the check and the write
	if !ok {
		uc.logger.Warn().
			Str("vendor_id", vendor.ID).
			Str("order_id", order.OrderID).
			Str("balance", vendor.DepositBalance.String()).
			Str("required", commission.String()).
			Msg("deposit balance changed concurrently, deduction not applied")

		return nil, fmt.Errorf("%w: deposit balance of vendor %s changed during deduction",
			domain.ErrConcurrentConflict, vendor.ID)
	}

	// 8. Record the deduction in the same transaction
	record := &domain.DepositTransaction{
		ID:            uc.idGen.Generate(),
		VendorID:      vendor.ID,
		OrderID:       order.OrderID,
		Type:          domain.TransactionTypeDeduction,
		Amount:        commission.Neg(),
		BalanceBefore: change.Before,
		BalanceAfter:  change.After,
		Description:   domain.DeductionDescription(order.OrderID),
		ProcessedBy:   SystemActor,
		CreatedAt:     now,
	}
	if err := uc.append(txCtx, tx, record); err != nil {
		return nil, err
	}

	// 9. Commit
	if err := tx.Commit(txCtx); err != nil {
		return nil, storageErr(err)
	}

	uc.logger.Info().
		Str("vendor_id", vendor.ID).
		Str("order_id", order.OrderID).
		Str("transaction_id", record.ID).
		Str("balance_after", record.BalanceAfter.String()).
		Msg("commission deducted")

	return &DeductResult{
		TransactionID: record.ID,
		VendorID:      record.VendorID,
		OrderID:       record.OrderID,
		Amount:        commission,
		BalanceAfter:  record.BalanceAfter,
	}, nil
}

// Deposit tops up a vendor deposit.
func (uc *DepositLedgerUseCase) Deposit(ctx context.Context, input DepositInput) (*domain.DepositTransaction, error) {
	description := input.Description
	if description == "" {
		description = "Deposit top-up"
	}

	return uc.credit(ctx, OpDeposit, creditRequest{
		vendorID:    input.VendorID,
		amount:      input.Amount,
		txType:      domain.TransactionTypeDeposit,
		description: description,
		processedBy: input.ProcessedBy,
		proofURL:    input.ProofURL,
	})
}

// Refund credits an amount back to a vendor deposit against a shop order.
func (uc *DepositLedgerUseCase) Refund(ctx context.Context, input RefundInput) (*domain.DepositTransaction, error) {
	if err := domain.ValidateID(input.OrderID); err != nil {
		uc.observe(OpRefund, time.Now(), domain.ErrMissingOrderID)
		return nil, domain.ErrMissingOrderID
	}

	description := input.Description
	if description == "" {
		description = "Refund for order " + input.OrderID
	}

	return uc.credit(ctx, OpRefund, creditRequest{
		vendorID:    input.VendorID,
		amount:      input.Amount,
		orderID:     input.OrderID,
		txType:      domain.TransactionTypeRefund,
		description: description,
		processedBy: input.ProcessedBy,
	})
}

type creditRequest struct {
	vendorID    string
	amount      decimal.Decimal
	orderID     string
	txType      domain.TransactionType
	description string
	processedBy string
	proofURL    string
}

func (uc *DepositLedgerUseCase) credit(ctx context.Context, op string, req creditRequest) (*domain.DepositTransaction, error) {
	start := time.Now()

	if err := validateCredit(req); err != nil {
		uc.observe(op, start, err)
		return nil, err
	}
	if req.processedBy == "" {
		req.processedBy = SystemActor
	}

	var record *domain.DepositTransaction
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		record, err = uc.applyCredit(ctx, req)
		return err
	})
	uc.observe(op, start, err)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LedgerAmount.WithLabelValues(op).Observe(record.Amount.InexactFloat64())
		uc.metrics.VendorDepositBalance.WithLabelValues(record.VendorID).Set(record.BalanceAfter.InexactFloat64())
	}

	uc.logger.Info().
		Str("vendor_id", record.VendorID).
		Str("type", string(record.Type)).
		Str("transaction_id", record.ID).
		Str("amount", record.Amount.String()).
		Str("balance_after", record.BalanceAfter.String()).
		Msg("deposit credited")

	return record, nil
}

func (uc *DepositLedgerUseCase) applyCredit(ctx context.Context, req creditRequest) (*domain.DepositTransaction, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, storageErr(err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	vendor, err := uc.vendorRepo.GetByIDTx(txCtx, tx, req.vendorID)
	if err != nil {
		return nil, storageErr(err)
	}

	if req.txType == domain.TransactionTypeRefund && !vendor.AcceptsRefunds() {
		return nil, fmt.Errorf("vendor %s: %w", vendor.ID, domain.ErrRefundsNotAllowed)
	}

	now := time.Now().UTC()
	countAsDeposit := req.txType == domain.TransactionTypeDeposit

	change, ok, err := uc.vendorRepo.CreditBalance(txCtx, tx, vendor.ID, req.amount, countAsDeposit, now)
	if err != nil {
		return nil, storageErr(err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: vendor %s disappeared during credit", domain.ErrConcurrentConflict, vendor.ID)
	}

	record := &domain.DepositTransaction{
		ID:            uc.idGen.Generate(),
		VendorID:      vendor.ID,
		OrderID:       req.orderID,
		Type:          req.txType,
		Amount:        req.amount,
		BalanceBefore: change.Before,
		BalanceAfter:  change.After,
		Description:   req.description,
		ProcessedBy:   req.processedBy,
		ProofURL:      req.proofURL,
		CreatedAt:     now,
	}
	if err := uc.append(txCtx, tx, record); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, storageErr(err)
	}

	return record, nil
}

// append validates and inserts a transaction row together with its outbox event.
func (uc *DepositLedgerUseCase) append(ctx context.Context, tx Transaction, record *domain.DepositTransaction) error {
	if err := record.Validate(); err != nil {
		return err
	}

	if err := uc.txRepo.Create(ctx, tx, record); err != nil {
		return storageErr(err)
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   record.VendorID,
		AggregateType: domain.AggregateTypeVendor,
		EventType:     domain.EventTypeFor(record.Type),
		Payload:       domain.TransactionPayload(record),
		CreatedAt:     record.CreatedAt,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return storageErr(err)
	}

	return nil
}

func (uc *DepositLedgerUseCase) findDeduction(ctx context.Context, tx Transaction, order *domain.VendorOrder) (*domain.DepositTransaction, error) {
	existing, err := uc.txRepo.GetDeductionByOrderTx(ctx, tx, order.VendorID, order.OrderID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return existing, nil
}

func (uc *DepositLedgerUseCase) observe(op string, start time.Time, err error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.ObserveOperation(op, start, string(domain.KindOf(err)))
}

func replayed(t *domain.DepositTransaction) *DeductResult {
	return &DeductResult{
		TransactionID:  t.ID,
		VendorID:       t.VendorID,
		OrderID:        t.OrderID,
		Amount:         t.Amount.Neg(),
		BalanceAfter:   t.BalanceAfter,
		AlreadyApplied: true,
	}
}

func validateCredit(req creditRequest) error {
	if err := domain.ValidateID(req.vendorID); err != nil {
		return err
	}
	if err := domain.ValidateAmount(req.amount); err != nil {
		return err
	}
	return domain.ValidateDescription(req.description)
}

// storageErr tags infrastructure errors as StorageFailure, leaving ledger errors untouched.
func storageErr(err error) error {
	if err == nil || domain.IsLedgerError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStorageFailure, err)
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}
