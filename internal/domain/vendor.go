package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentModel is how a vendor settles commission with the shop.
type PaymentModel string

const (
	// PaymentModelDeposit vendors prepay a deposit that commission is deducted from.
	PaymentModelDeposit PaymentModel = "deposit"
	// PaymentModelUpfront vendors pay per order and cannot receive deposit refunds.
	PaymentModelUpfront PaymentModel = "upfront"
)

// BalanceStatus summarises a deposit balance against the vendor minimum.
type BalanceStatus string

const (
	BalanceStatusSufficient BalanceStatus = "sufficient"
	BalanceStatusLow        BalanceStatus = "low"
	BalanceStatusCritical   BalanceStatus = "critical"
)

// DefaultMinimumDeposit is the minimum deposit assigned at onboarding.
var DefaultMinimumDeposit = decimal.NewFromInt(1_000_000)

// Vendor is a consignment vendor holding a prepaid deposit.
type Vendor struct {
	ID             string
	Name           string
	DepositBalance decimal.Decimal
	DepositTotal   decimal.Decimal
	MinimumDeposit decimal.Decimal
	PaymentModel   PaymentModel
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanCover reports whether the deposit balance covers amount.
func (v *Vendor) CanCover(amount decimal.Decimal) bool {
	return v.DepositBalance.GreaterThanOrEqual(amount)
}

// AcceptsRefunds reports whether deposit refunds may be credited to the vendor.
func (v *Vendor) AcceptsRefunds() bool {
	return v.PaymentModel != PaymentModelUpfront
}

// BalanceStatus classifies the current balance. Below half of the minimum
// deposit is critical.
func (v *Vendor) BalanceStatus() BalanceStatus {
	minimum := v.MinimumDeposit
	if minimum.IsZero() {
		minimum = DefaultMinimumDeposit
	}

	switch {
	case v.DepositBalance.GreaterThanOrEqual(minimum):
		return BalanceStatusSufficient
	case v.DepositBalance.GreaterThanOrEqual(minimum.Div(decimal.NewFromInt(2))):
		return BalanceStatusLow
	default:
		return BalanceStatusCritical
	}
}
