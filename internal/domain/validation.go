package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge     = fmt.Errorf("%w: amount exceeds maximum allowed", ErrInvalidArgument)
	ErrAmountTooSmall     = fmt.Errorf("%w: amount below minimum allowed", ErrInvalidArgument)
	ErrAmountPrecision    = fmt.Errorf("%w: amount has more than 2 decimal places", ErrInvalidArgument)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long", ErrInvalidArgument)
	ErrInvalidID          = fmt.Errorf("%w: ID cannot be empty", ErrInvalidArgument)
)

// Validation constants
const (
	MaxLedgerAmount      = "1000000000000" // 1 trillion
	MinLedgerAmount      = "0.01"
	MaxDescriptionLength = 500
	AmountScale          = 2
)

var (
	maxLedgerAmount = decimal.RequireFromString(MaxLedgerAmount)
	minLedgerAmount = decimal.RequireFromString(MinLedgerAmount)
)

// ValidateAmount validates a deposit or refund amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if amount.LessThan(minLedgerAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinLedgerAmount)
	}

	if amount.GreaterThan(maxLedgerAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxLedgerAmount)
	}

	if !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrAmountPrecision
	}

	return nil
}

// ValidateID rejects blank identifiers.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidID
	}
	return nil
}

// ValidateDescription validates free-text descriptions.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrDescriptionTooLong, MaxDescriptionLength)
	}
	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 100
	const DefaultPageSize = 20

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
