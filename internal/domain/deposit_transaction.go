package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of deposit ledger mutation.
type TransactionType string

const (
	TransactionTypeDeposit   TransactionType = "deposit"
	TransactionTypeDeduction TransactionType = "deduction"
	TransactionTypeRefund    TransactionType = "refund"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeDeduction, TransactionTypeRefund:
		return true
	}
	return false
}

// DepositTransaction is an append-only record of one balance mutation.
// Amount is signed: deductions are negative.
type DepositTransaction struct {
	ID            string
	VendorID      string
	OrderID       string
	Type          TransactionType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Description   string
	ProcessedBy   string
	ProofURL      string
	CreatedAt     time.Time
}

// Validate checks the record is internally consistent before it is written.
func (t *DepositTransaction) Validate() error {
	if !t.Type.IsValid() {
		return ErrInvalidTransactionType
	}
	if !t.BalanceBefore.Add(t.Amount).Equal(t.BalanceAfter) {
		return fmt.Errorf("%w: balance_before %s + amount %s != balance_after %s",
			ErrInvalidArgument, t.BalanceBefore, t.Amount, t.BalanceAfter)
	}
	if t.BalanceAfter.IsNegative() {
		return ErrNegativeDepositBalance
	}
	if t.Type == TransactionTypeDeduction && t.Amount.IsPositive() {
		return fmt.Errorf("%w: deduction amount must not be positive", ErrInvalidArgument)
	}
	if t.Type != TransactionTypeDeduction && t.Amount.IsNegative() {
		return fmt.Errorf("%w: %s amount must not be negative", ErrInvalidArgument, t.Type)
	}
	return nil
}

// DeductionDescription is the description written for commission deductions.
func DeductionDescription(orderID string) string {
	return "Commission deduction for order " + orderID
}

// RunningBalance folds transactions (oldest first) into the balance they imply.
func RunningBalance(txs []*DepositTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total
}

// TransactionFilter narrows a vendor transaction listing. An empty Type lists all types.
type TransactionFilter struct {
	Type   TransactionType
	Limit  int
	Offset int
}
