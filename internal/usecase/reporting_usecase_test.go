package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/nhangsach/depositledger/internal/domain"
	"github.com/nhangsach/depositledger/internal/usecase"
	"github.com/nhangsach/depositledger/internal/usecase/gomocks"
)

func TestReportingUseCase_GetBalance(t *testing.T) {
	tests := []struct {
		name       string
		balance    int64
		wantStatus domain.BalanceStatus
	}{
		{"above minimum", 1_500_000, domain.BalanceStatusSufficient},
		{"between half and minimum", 600_000, domain.BalanceStatusLow},
		{"below half", 100_000, domain.BalanceStatusCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			vendorRepo := gomocks.NewMockVendorRepository(ctrl)
			vendorRepo.EXPECT().GetByID(gomock.Any(), "V1").Return(&domain.Vendor{
				ID:             "V1",
				DepositBalance: decimal.NewFromInt(tt.balance),
				DepositTotal:   decimal.NewFromInt(2_000_000),
				MinimumDeposit: decimal.NewFromInt(1_000_000),
			}, nil)

			uc := usecase.NewReportingUseCase(vendorRepo, gomocks.NewMockDepositTransactionRepository(ctrl))

			balance, err := uc.GetBalance(context.Background(), "V1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !balance.DepositBalance.Equal(decimal.NewFromInt(tt.balance)) {
				t.Errorf("expected balance %d, got %s", tt.balance, balance.DepositBalance)
			}
			if balance.Status != tt.wantStatus {
				t.Errorf("expected status %s, got %s", tt.wantStatus, balance.Status)
			}
		})
	}
}

func TestReportingUseCase_GetBalance_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vendorRepo := gomocks.NewMockVendorRepository(ctrl)
	vendorRepo.EXPECT().GetByID(gomock.Any(), "ghost").Return(nil, domain.ErrVendorNotFound)
	vendorRepo.EXPECT().GetByID(gomock.Any(), "V1").Return(nil, errors.New("pool closed"))

	uc := usecase.NewReportingUseCase(vendorRepo, gomocks.NewMockDepositTransactionRepository(ctrl))

	if _, err := uc.GetBalance(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
	if _, err := uc.GetBalance(context.Background(), "V1"); !errors.Is(err, domain.ErrStorageFailure) {
		t.Errorf("expected StorageFailure, got %v", err)
	}
	if _, err := uc.GetBalance(context.Background(), ""); !errors.Is(err, domain.ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
}

func TestReportingUseCase_ListTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vendorRepo := gomocks.NewMockVendorRepository(ctrl)
	vendorRepo.EXPECT().GetByID(gomock.Any(), "V1").Return(&domain.Vendor{ID: "V1"}, nil)

	txRepo := gomocks.NewMockDepositTransactionRepository(ctrl)
	txRepo.EXPECT().ListByVendor(gomock.Any(), "V1", domain.TransactionFilter{
		Type:   domain.TransactionTypeDeduction,
		Limit:  100,
		Offset: 0,
	}).Return([]*domain.DepositTransaction{
		{ID: "t2", VendorID: "V1", Type: domain.TransactionTypeDeduction, Amount: decimal.NewFromInt(-78_000)},
		{ID: "t1", VendorID: "V1", Type: domain.TransactionTypeDeduction, Amount: decimal.NewFromInt(-45_000)},
	}, nil)

	uc := usecase.NewReportingUseCase(vendorRepo, txRepo)

	txs, err := uc.ListTransactions(context.Background(), usecase.ListTransactionsInput{
		VendorID: "V1",
		Type:     domain.TransactionTypeDeduction,
		Limit:    1000,
		Offset:   -1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 || txs[0].ID != "t2" {
		t.Errorf("expected newest first, got %+v", txs)
	}
}

func TestReportingUseCase_ListTransactions_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	vendorRepo := gomocks.NewMockVendorRepository(ctrl)
	vendorRepo.EXPECT().GetByID(gomock.Any(), "ghost").Return(nil, domain.ErrVendorNotFound)

	uc := usecase.NewReportingUseCase(vendorRepo, gomocks.NewMockDepositTransactionRepository(ctrl))

	_, err := uc.ListTransactions(context.Background(), usecase.ListTransactionsInput{VendorID: "V1", Type: "bonus"})
	if !errors.Is(err, domain.ErrInvalidTransactionType) {
		t.Errorf("expected ErrInvalidTransactionType, got %v", err)
	}

	_, err = uc.ListTransactions(context.Background(), usecase.ListTransactionsInput{VendorID: "ghost"})
	if !errors.Is(err, domain.ErrVendorNotFound) {
		t.Errorf("expected ErrVendorNotFound, got %v", err)
	}
}
