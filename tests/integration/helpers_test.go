package integration

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/nhangsach/depositledger/internal/adapter/repository/postgres"
	"github.com/nhangsach/depositledger/internal/usecase"
	"github.com/nhangsach/depositledger/tests/testutil"
)

type ledgerFixture struct {
	db          *testutil.TestDB
	vendorRepo  *postgres.VendorRepository
	orderRepo   *postgres.VendorOrderRepository
	txRepo      *postgres.DepositTransactionRepository
	outboxRepo  *postgres.OutboxRepository
	ledger      *usecase.DepositLedgerUseCase
	fulfillment *usecase.FulfillmentUseCase
	reporting   *usecase.ReportingUseCase
	reconcile   *usecase.ReconciliationUseCase
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := testutil.NewTestDB(t)
	t.Cleanup(db.Cleanup)

	pool := db.Pool
	f := &ledgerFixture{
		db:         db,
		vendorRepo: postgres.NewVendorRepository(pool),
		orderRepo:  postgres.NewVendorOrderRepository(pool),
		txRepo:     postgres.NewDepositTransactionRepository(pool),
		outboxRepo: postgres.NewOutboxRepository(pool),
	}

	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	logger := zerolog.Nop()

	f.ledger = usecase.NewDepositLedgerUseCase(txManager, f.vendorRepo, f.orderRepo, f.txRepo, f.outboxRepo, idGen, postgres.NewRetrier(logger), logger, nil)
	f.fulfillment = usecase.NewFulfillmentUseCase(txManager, f.orderRepo, f.outboxRepo, idGen, f.ledger, logger, nil)
	f.reporting = usecase.NewReportingUseCase(f.vendorRepo, f.txRepo)
	f.reconcile = usecase.NewReconciliationUseCase(f.vendorRepo, f.txRepo, logger, nil)

	return f
}
