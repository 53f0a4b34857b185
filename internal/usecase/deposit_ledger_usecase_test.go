package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/infrastructure/metrics"
	"github.com/nhangsach/depositledger/internal/usecase"
	"github.com/nhangsach/depositledger/internal/usecase/mocks"
)

type ledgerFixture struct {
	vendors *mocks.MockVendorRepository
	orders  *mocks.MockVendorOrderRepository
	txs     *mocks.MockDepositTransactionRepository
	outbox  *mocks.MockOutboxRepository
	txMgr   *mocks.MockTransactionManager
	retrier *mocks.MockRetrier
	uc      *usecase.DepositLedgerUseCase
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	f := &ledgerFixture{
		vendors: mocks.NewMockVendorRepository(),
		orders:  mocks.NewMockVendorOrderRepository(),
		txs:     mocks.NewMockDepositTransactionRepository(),
		outbox:  mocks.NewMockOutboxRepository(),
		txMgr:   mocks.NewMockTransactionManager(),
		retrier: mocks.NewMockRetrier(),
	}
	f.uc = usecase.NewDepositLedgerUseCase(
		f.txMgr, f.vendors, f.orders, f.txs, f.outbox,
		mocks.NewMockIDGenerator(), f.retrier, zerolog.Nop(),
		metrics.NewWithRegistry(prometheus.NewRegistry()),
	)
	return f
}

func (f *ledgerFixture) seedVendor(t *testing.T, id string, balance int64, model domain.PaymentModel) {
	t.Helper()
	err := f.vendors.Create(context.Background(), &domain.Vendor{
		ID:             id,
		Name:           "Vendor " + id,
		DepositBalance: decimal.NewFromInt(balance),
		DepositTotal:   decimal.NewFromInt(balance),
		MinimumDeposit: domain.DefaultMinimumDeposit,
		PaymentModel:   model,
		Status:         "active",
	})
	if err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
}

func (f *ledgerFixture) seedOrder(t *testing.T, id, vendorID, orderID string, status domain.OrderStatus, commission int64) {
	t.Helper()
	err := f.orders.Create(context.Background(), &domain.VendorOrder{
		ID:               id,
		VendorID:         vendorID,
		OrderID:          orderID,
		Status:           status,
		CommissionAmount: decimal.NewFromInt(commission),
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
}

func (f *ledgerFixture) balance(t *testing.T, vendorID string) decimal.Decimal {
	t.Helper()
	v, err := f.vendors.GetByID(context.Background(), vendorID)
	if err != nil {
		t.Fatalf("get vendor: %v", err)
	}
	return v.DepositBalance
}

func (f *ledgerFixture) deductions() []*domain.DepositTransaction {
	var out []*domain.DepositTransaction
	for _, tx := range f.txs.All() {
		if tx.Type == domain.TransactionTypeDeduction {
			out = append(out, tx)
		}
	}
	return out
}

func TestDepositLedgerUseCase_Deduct(t *testing.T) {
	tests := []struct {
		name        string
		balance     int64
		status      domain.OrderStatus
		commission  int64
		wantErr     error
		wantBalance int64
		wantRows    int
	}{
		{
			name:        "delivered order is charged",
			balance:     1_000_000,
			status:      domain.OrderStatusDelivered,
			commission:  250_000,
			wantBalance: 750_000,
			wantRows:    1,
		},
		{
			name:        "commission equal to balance leaves zero",
			balance:     500_000,
			status:      domain.OrderStatusDelivered,
			commission:  500_000,
			wantBalance: 0,
			wantRows:    1,
		},
		{
			name:        "commission one unit above balance",
			balance:     500_000,
			status:      domain.OrderStatusDelivered,
			commission:  500_001,
			wantErr:     domain.ErrInsufficientBalance,
			wantBalance: 500_000,
		},
		{
			name:        "shipped order",
			balance:     1_000_000,
			status:      domain.OrderStatusShipped,
			commission:  250_000,
			wantErr:     domain.ErrInvalidState,
			wantBalance: 1_000_000,
		},
		{
			name:        "cancelled order",
			balance:     1_000_000,
			status:      domain.OrderStatusCancelled,
			commission:  250_000,
			wantErr:     domain.ErrInvalidState,
			wantBalance: 1_000_000,
		},
		{
			name:        "zero commission is recorded",
			balance:     1_000_000,
			status:      domain.OrderStatusDelivered,
			commission:  0,
			wantBalance: 1_000_000,
			wantRows:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			f.seedVendor(t, "V1", tt.balance, domain.PaymentModelDeposit)
			f.seedOrder(t, "VO1", "V1", "ORD-1", tt.status, tt.commission)

			result, err := f.uc.Deduct(context.Background(), "VO1")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got := f.balance(t, "V1"); !got.Equal(decimal.NewFromInt(tt.wantBalance)) {
				t.Errorf("expected balance %d, got %s", tt.wantBalance, got)
			}
			if got := len(f.deductions()); got != tt.wantRows {
				t.Errorf("expected %d deduction rows, got %d", tt.wantRows, got)
			}

			if tt.wantErr != nil {
				order, _ := f.orders.GetByID(context.Background(), "VO1")
				if order.DepositDeducted {
					t.Error("failed deduction must not leave the order claimed")
				}
				if len(f.outbox.Events()) != 0 {
					t.Error("failed deduction must not leave outbox events")
				}
				return
			}

			if result.AlreadyApplied {
				t.Error("first deduction reported as replay")
			}
			if !result.BalanceAfter.Equal(decimal.NewFromInt(tt.wantBalance)) {
				t.Errorf("expected balance after %d, got %s", tt.wantBalance, result.BalanceAfter)
			}
		})
	}
}

func TestDepositLedgerUseCase_Deduct_RecordsTransaction(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedVendor(t, "V1", 1_000_000, domain.PaymentModelDeposit)
	f.seedOrder(t, "VO1", "V1", "ORD-1", domain.OrderStatusDelivered, 250_000)

	result, err := f.uc.Deduct(context.Background(), "VO1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := f.deductions()
	if len(rows) != 1 {
		t.Fatalf("expected one deduction row, got %d", len(rows))
	}
	row := rows[0]

	if row.ID != result.TransactionID {
		t.Errorf("result ID %s does not match row %s", result.TransactionID, row.ID)
	}
	if !row.Amount.Equal(decimal.NewFromInt(-250_000)) {
		t.Errorf("expected amount -250000, got %s", row.Amount)
	}
	if !row.BalanceBefore.Equal(decimal.NewFromInt(1_000_000)) || !row.BalanceAfter.Equal(decimal.NewFromInt(750_000)) {
		t.Errorf("expected 1000000 -> 750000, got %s -> %s", row.BalanceBefore, row.BalanceAfter)
	}
	if row.OrderID != "ORD-1" || row.Description != "Commission deduction for order ORD-1" {
		t.Errorf("unexpected order reference: %q %q", row.OrderID, row.Description)
	}

	order, _ := f.orders.GetByID(context.Background(), "VO1")
	if !order.DepositDeducted {
		t.Error("expected order to be marked deducted")
	}

	events := f.outbox.Events()
	if len(events) != 1 || events[0].EventType != domain.EventTypeDepositDeducted {
		t.Fatalf("expected one deposit.deducted event, got %+v", events)
	}
	if f.retrier.Calls != 1 {
		t.Errorf("expected deduction to run through the retrier once, got %d", f.retrier.Calls)
	}
}

func TestDepositLedgerUseCase_Deduct_Idempotent(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedVendor(t, "V1", 1_000_000, domain.PaymentModelDeposit)
	f.seedOrder(t, "VO1", "V1", "ORD-1", domain.OrderStatusDelivered, 250_000)

	first, err := f.uc.Deduct(context.Background(), "VO1")
	if err != nil {
		t.Fatalf("first deduct: %v", err)
	}

	for i := 0; i < 3; i++ {
		again, err := f.uc.Deduct(context.Background(), "VO1")
		if err != nil {
			t.Fatalf("repeat deduct: %v", err)
		}
		if again.TransactionID != first.TransactionID {
			t.Fatalf("expected transaction %s, got %s", first.TransactionID, again.TransactionID)
		}
		if !again.AlreadyApplied {
			t.Error("expected repeat to be flagged as already applied")
		}
		if !again.BalanceAfter.Equal(decimal.NewFromInt(750_000)) {
			t.Errorf("expected balance after 750000, got %s", again.BalanceAfter)
		}
	}

	if got := f.balance(t, "V1"); !got.Equal(decimal.NewFromInt(750_000)) {
		t.Errorf("expected balance 750000, got %s", got)
	}
	if got := len(f.deductions()); got != 1 {
		t.Errorf("expected a single deduction row, got %d", got)
	}
}

func TestDepositLedgerUseCase_Deduct_Concurrent(t *testing.T) {
	tests := []struct {
		name    string
		callers int
	}{
		{"two callers", 2},
		{"many callers", 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			f.seedVendor(t, "V1", 500_000, domain.PaymentModelDeposit)
			f.seedOrder(t, "VO1", "V1", "ORD-1", domain.OrderStatusDelivered, 500_000)

			var wg sync.WaitGroup
			results := make([]*usecase.DeductResult, tt.callers)
			errs := make([]error, tt.callers)

			for i := 0; i < tt.callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i], errs[i] = f.uc.Deduct(context.Background(), "VO1")
				}(i)
			}
			wg.Wait()

			applied := 0
			for i := 0; i < tt.callers; i++ {
				if errs[i] != nil {
					t.Fatalf("caller %d failed: %v", i, errs[i])
				}
				if results[i].TransactionID != results[0].TransactionID {
					t.Fatalf("callers saw different transactions: %s vs %s", results[i].TransactionID, results[0].TransactionID)
				}
				if !results[i].AlreadyApplied {
					applied++
				}
			}

			if applied != 1 {
				t.Errorf("expected exactly one caller to apply the deduction, got %d", applied)
			}
			if got := f.balance(t, "V1"); !got.IsZero() {
				t.Errorf("expected balance 0, got %s", got)
			}
			if got := len(f.deductions()); got != 1 {
				t.Errorf("expected one deduction row, got %d", got)
			}
		})
	}
}

func TestDepositLedgerUseCase_Deduct_ClaimLost(t *testing.T) {
	winner := &domain.DepositTransaction{
		ID:           "winner-tx",
		VendorID:     "V1",
		OrderID:      "ORD-1",
		Type:         domain.TransactionTypeDeduction,
		Amount:       decimal.NewFromInt(-500_000),
		BalanceAfter: decimal.Zero,
	}

	t.Run("winner row becomes visible after the claim", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.seedVendor(t, "V1", 500_000, domain.PaymentModelDeposit)
		f.seedOrder(t, "VO1", "V1", "ORD-1", domain.OrderStatusDelivered, 500_000)

		lookups := 0
		f.txs.GetDeductionByOrderTxFunc = func(ctx context.Context, tx usecase.Transaction, vendorID, orderID string) (*domain.DepositTransaction, error) {
			lookups++
			if lookups == 1 {
				return nil, domain.ErrTransactionNotFound
			}
			return winner, nil
		}
		f.orders.MarkDeductedFunc = func(ctx context.Context, tx usecase.Transaction, id string, at time.Time) (bool, error) {
			return false, nil
		}

		result, err := f.uc.Deduct(context.Background(), "VO1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.TransactionID != "winner-tx" || !result.AlreadyApplied {
			t.Fatalf("expected winner's transaction, got %+v", result)
		}
		if !result.Amount.Equal(decimal.NewFromInt(500_000)) {
			t.Errorf("expected commission 500000, got %s", result.Amount)
		}
		if got := f.balance(t, "V1"); !got.Equal(decimal.NewFromInt(500_000)) {
			t.Errorf("loser must not touch the balance, got %s", got)
		}
	})

	t.Run("claimed without a row", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.seedVendor(t, "V1", 500_000, domain.PaymentModelDeposit)
		f.seedOrder(t, "VO1", "V1", "ORD-1", domain.OrderStatusDelivered, 500_000)

		f.orders.MarkDeductedFunc = func(ctx context.Context, tx usecase.Transaction, id string, at time.Time) (bool, error) {
			return false, nil
		}

		_, err := f.uc.Deduct(context.Background(), "VO1")
		if !errors.Is(err, domain.ErrConcurrentConflict) {
			t.Fatalf("expected ConcurrentConflict, got %v", err)
		}
		if !domain.Retryable(err) {
			t.Error("conflict should be retryable")
		}
	})
}

func TestDepositLedgerUseCase_Deduct_ConditionalUpdateRejected(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedVendor(t, "V1", 1_000_000, domain.PaymentModelDeposit)
	f.seedOrder(t, "VO1", "V1", "ORD-1", domain.OrderStatusDelivered, 250_000)

	// Another order drained the balance between the check and the write.
	f.vendors.DeductBalanceFunc = func(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (usecase.BalanceChange, bool, error) {
		return usecase.BalanceChange{}, false, nil
	}

	_, err := f.uc.Deduct(context.Background(), "VO1")
	if !errors.Is(err, domain.ErrConcurrentConflict) {
		t.Fatalf("expected ConcurrentConflict, got %v", err)
	}
	if errors.Is(err, domain.ErrInsufficientBalance) {
		t.Error("race outcome must be distinct from insufficient balance")
	}
	if len(f.deductions()) != 0 {
		t.Error("no row may be written when the guard rejects the update")
	}

	order, _ := f.orders.GetByID(context.Background(), "VO1")
	if order.DepositDeducted {
		t.Error("claim must be rolled back")
	}
}

func TestDepositLedgerUseCase_Deduct_NotFound(t *testing.T) {
	t.Run("unknown vendor order", func(t *testing.T) {
		f := newLedgerFixture(t)

		_, err := f.uc.Deduct(context.Background(), "missing")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected NotFound, got %v", err)
		}
	})

	t.Run("unknown vendor", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.seedOrder(t, "VO1", "ghost", "ORD-1", domain.OrderStatusDelivered, 100)

		_, err := f.uc.Deduct(context.Background(), "VO1")
		if !errors.Is(err, domain.ErrVendorNotFound) {
			t.Fatalf("expected ErrVendorNotFound, got %v", err)
		}
	})
}

func TestDepositLedgerUseCase_Deduct_StorageFailure(t *testing.T) {
	connErr := errors.New("connection refused")

	tests := []struct {
		name  string
		setup func(f *ledgerFixture)
	}{
		{
			name: "begin fails",
			setup: func(f *ledgerFixture) {
				f.txMgr.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
					return nil, connErr
				}
			},
		},
		{
			name: "insert fails",
			setup: func(f *ledgerFixture) {
				f.txs.CreateFunc = func(ctx context.Context, tx usecase.Transaction, t *domain.DepositTransaction) error {
					return connErr
				}
			},
		},
		{
			name: "commit fails",
			setup: func(f *ledgerFixture) {
				f.txMgr.BeginFunc = func(ctx context.Context) (usecase.Transaction, error) {
					return &mocks.MockTransaction{
						CommitFunc: func(ctx context.Context) error { return connErr },
					}, nil
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			f.seedVendor(t, "V1", 1_000_000, domain.PaymentModelDeposit)
			f.seedOrder(t, "VO1", "V1", "ORD-1", domain.OrderStatusDelivered, 250_000)
			tt.setup(f)

			_, err := f.uc.Deduct(context.Background(), "VO1")
			if !errors.Is(err, domain.ErrStorageFailure) {
				t.Fatalf("expected StorageFailure, got %v", err)
			}
			if !errors.Is(err, connErr) {
				t.Errorf("expected the cause to stay visible, got %v", err)
			}
			if got := f.balance(t, "V1"); !got.Equal(decimal.NewFromInt(1_000_000)) {
				t.Errorf("expected balance unchanged, got %s", got)
			}
		})
	}
}

func TestDepositLedgerUseCase_Deduct_DuplicateInsert(t *testing.T) {
	f := newLedgerFixture(t)
	f.seedVendor(t, "V1", 1_000_000, domain.PaymentModelDeposit)
	f.seedOrder(t, "VO1", "V1", "ORD-1", domain.OrderStatusDelivered, 250_000)

	f.txs.CreateFunc = func(ctx context.Context, tx usecase.Transaction, t *domain.DepositTransaction) error {
		return domain.ErrDuplicateDeduction
	}

	_, err := f.uc.Deduct(context.Background(), "VO1")
	if !errors.Is(err, domain.ErrConcurrentConflict) {
		t.Fatalf("expected ConcurrentConflict, got %v", err)
	}
	if errors.Is(err, domain.ErrStorageFailure) {
		t.Error("duplicate must not be reported as storage failure")
	}
	if got := f.balance(t, "V1"); !got.Equal(decimal.NewFromInt(1_000_000)) {
		t.Errorf("expected balance restored, got %s", got)
	}
}

func TestDepositLedgerUseCase_Deposit(t *testing.T) {
	tests := []struct {
		name     string
		vendorID string
		amount   string
		wantErr  error
	}{
		{"valid top-up", "V1", "5000000", nil},
		{"fractional amount", "V1", "10.50", nil},
		{"zero amount", "V1", "0", domain.ErrInvalidAmount},
		{"negative amount", "V1", "-100", domain.ErrInvalidAmount},
		{"too many decimals", "V1", "1.001", domain.ErrAmountPrecision},
		{"unknown vendor", "ghost", "100", domain.ErrVendorNotFound},
		{"blank vendor", " ", "100", domain.ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture(t)
			f.seedVendor(t, "V1", 1_000_000, domain.PaymentModelDeposit)

			amount := decimal.RequireFromString(tt.amount)
			tx, err := f.uc.Deposit(context.Background(), usecase.DepositInput{
				VendorID:    tt.vendorID,
				Amount:      amount,
				ProcessedBy: "admin-1",
				ProofURL:    "https://files.example/receipt.png",
			})

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if got := f.balance(t, "V1"); !got.Equal(decimal.NewFromInt(1_000_000)) {
					t.Errorf("expected balance unchanged, got %s", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := decimal.NewFromInt(1_000_000).Add(amount)
			if !tx.BalanceAfter.Equal(want) || !f.balance(t, "V1").Equal(want) {
				t.Errorf("expected balance %s, got %s", want, tx.BalanceAfter)
			}
			if tx.Type != domain.TransactionTypeDeposit || tx.ProcessedBy != "admin-1" || tx.ProofURL == "" {
				t.Errorf("unexpected transaction: %+v", tx)
			}

			v, _ := f.vendors.GetByID(context.Background(), "V1")
			if !v.DepositTotal.Equal(want) {
				t.Errorf("expected deposit total %s, got %s", want, v.DepositTotal)
			}

			events := f.outbox.Events()
			if len(events) != 1 || events[0].EventType != domain.EventTypeDepositCredited {
				t.Errorf("expected one deposit.credited event, got %+v", events)
			}
		})
	}
}

func TestDepositLedgerUseCase_Refund(t *testing.T) {
	t.Run("credits the deposit", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.seedVendor(t, "V1", 750_000, domain.PaymentModelDeposit)

		tx, err := f.uc.Refund(context.Background(), usecase.RefundInput{
			VendorID: "V1",
			Amount:   decimal.NewFromInt(250_000),
			OrderID:  "ORD-1",
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tx.Type != domain.TransactionTypeRefund || tx.OrderID != "ORD-1" {
			t.Errorf("unexpected transaction: %+v", tx)
		}
		if !tx.BalanceAfter.Equal(decimal.NewFromInt(1_000_000)) {
			t.Errorf("expected 1000000, got %s", tx.BalanceAfter)
		}
		if tx.Description != "Refund for order ORD-1" || tx.ProcessedBy != usecase.SystemActor {
			t.Errorf("unexpected defaults: %q %q", tx.Description, tx.ProcessedBy)
		}

		v, _ := f.vendors.GetByID(context.Background(), "V1")
		if !v.DepositTotal.Equal(decimal.NewFromInt(750_000)) {
			t.Errorf("refund must not count as a top-up, total %s", v.DepositTotal)
		}
	})

	t.Run("order ID required", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.seedVendor(t, "V1", 750_000, domain.PaymentModelDeposit)

		_, err := f.uc.Refund(context.Background(), usecase.RefundInput{
			VendorID: "V1",
			Amount:   decimal.NewFromInt(1),
		})
		if !errors.Is(err, domain.ErrMissingOrderID) {
			t.Fatalf("expected ErrMissingOrderID, got %v", err)
		}
	})

	t.Run("upfront vendors reject refunds", func(t *testing.T) {
		f := newLedgerFixture(t)
		f.seedVendor(t, "V1", 750_000, domain.PaymentModelUpfront)

		_, err := f.uc.Refund(context.Background(), usecase.RefundInput{
			VendorID: "V1",
			Amount:   decimal.NewFromInt(1),
			OrderID:  "ORD-1",
		})
		if !errors.Is(err, domain.ErrRefundsNotAllowed) {
			t.Fatalf("expected ErrRefundsNotAllowed, got %v", err)
		}
		if domain.KindOf(err) != domain.KindInvalidState {
			t.Errorf("expected invalid_state, got %s", domain.KindOf(err))
		}
		if got := f.balance(t, "V1"); !got.Equal(decimal.NewFromInt(750_000)) {
			t.Errorf("expected balance unchanged, got %s", got)
		}
	})
}

func TestDepositLedgerUseCase_RunningSumInvariant(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	// Vendor starts empty so the history alone explains the balance.
	f.seedVendor(t, "V1", 0, domain.PaymentModelDeposit)
	f.seedOrder(t, "VO1", "V1", "ORD-1", domain.OrderStatusDelivered, 45_000)
	f.seedOrder(t, "VO2", "V1", "ORD-2", domain.OrderStatusDelivered, 78_000)
	f.seedOrder(t, "VO3", "V1", "ORD-3", domain.OrderStatusDelivered, 9_000_000)

	steps := []func() error{
		func() error {
			_, err := f.uc.Deposit(ctx, usecase.DepositInput{VendorID: "V1", Amount: decimal.NewFromInt(1_000_000)})
			return err
		},
		func() error { _, err := f.uc.Deduct(ctx, "VO1"); return err },
		func() error { _, err := f.uc.Deduct(ctx, "VO2"); return err },
		func() error { _, err := f.uc.Deduct(ctx, "VO1"); return err },
		func() error {
			_, err := f.uc.Refund(ctx, usecase.RefundInput{VendorID: "V1", Amount: decimal.NewFromInt(78_000), OrderID: "ORD-2"})
			return err
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	if _, err := f.uc.Deduct(ctx, "VO3"); !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected InsufficientBalance, got %v", err)
	}

	history := f.txs.All()
	if len(history) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(history))
	}

	balance := f.balance(t, "V1")
	if !domain.RunningBalance(history).Equal(balance) {
		t.Errorf("running sum %s does not match balance %s", domain.RunningBalance(history), balance)
	}
	if !balance.Equal(decimal.NewFromInt(955_000)) {
		t.Errorf("expected 955000, got %s", balance)
	}

	for i := 1; i < len(history); i++ {
		if !history[i].BalanceBefore.Equal(history[i-1].BalanceAfter) {
			t.Errorf("row %d does not chain from row %d", i, i-1)
		}
		if history[i].BalanceAfter.IsNegative() {
			t.Errorf("row %d has a negative balance", i)
		}
	}
}
