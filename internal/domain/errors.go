package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the ledger wraps exactly one of these.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrInsufficientBalance = errors.New("insufficient deposit balance")
	ErrConcurrentConflict  = errors.New("concurrent conflict")
	ErrStorageFailure      = errors.New("storage failure")
	ErrInvalidArgument     = errors.New("invalid argument")
)

var (
	// Vendor errors
	ErrVendorNotFound         = fmt.Errorf("vendor %w", ErrNotFound)
	ErrRefundsNotAllowed      = fmt.Errorf("%w: refunds not allowed for upfront payment model", ErrInvalidState)
	ErrNegativeDepositBalance = fmt.Errorf("%w: deposit balance cannot go negative", ErrInvalidState)

	// Vendor order errors
	ErrVendorOrderNotFound = fmt.Errorf("vendor order %w", ErrNotFound)
	ErrOrderNotDelivered   = fmt.Errorf("%w: vendor order is not delivered", ErrInvalidState)
	ErrInvalidTransition   = fmt.Errorf("%w: status transition not allowed", ErrInvalidState)
	ErrNegativeCommission  = fmt.Errorf("%w: commission amount is negative", ErrInvalidState)

	// Transaction errors
	ErrTransactionNotFound    = fmt.Errorf("deposit transaction %w", ErrNotFound)
	ErrDuplicateDeduction     = fmt.Errorf("%w: deduction already recorded for order", ErrConcurrentConflict)
	ErrInvalidAmount          = fmt.Errorf("%w: amount must be positive", ErrInvalidArgument)
	ErrMissingOrderID         = fmt.Errorf("%w: order ID is required", ErrInvalidArgument)
	ErrInvalidTransactionType = fmt.Errorf("%w: unknown transaction type", ErrInvalidArgument)
)

// ErrorKind is a coarse classification used by transports and metrics.
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindNotFound            ErrorKind = "not_found"
	KindInvalidState        ErrorKind = "invalid_state"
	KindInsufficientBalance ErrorKind = "insufficient_balance"
	KindConcurrentConflict  ErrorKind = "concurrent_conflict"
	KindStorageFailure      ErrorKind = "storage_failure"
	KindInvalidArgument     ErrorKind = "invalid_argument"
	KindUnknown             ErrorKind = "unknown"
)

// KindOf returns the kind an error belongs to.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ErrConcurrentConflict):
		return KindConcurrentConflict
	case errors.Is(err, ErrInvalidArgument):
		return KindInvalidArgument
	case errors.Is(err, ErrStorageFailure):
		return KindStorageFailure
	default:
		return KindUnknown
	}
}

// IsLedgerError reports whether err already carries a ledger error kind.
func IsLedgerError(err error) bool {
	k := KindOf(err)
	return k != KindNone && k != KindUnknown
}

// Retryable reports whether a caller may retry the failed operation as is.
// InsufficientBalance is not retryable: it needs a deposit top-up first.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindConcurrentConflict, KindStorageFailure:
		return true
	default:
		return false
	}
}
