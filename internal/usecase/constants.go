package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// SystemActor is recorded as processed_by when no operator is given
	SystemActor = "system"

	// Operation labels for metrics and logs
	OpDeduct       = "deduct"
	OpDeposit      = "deposit"
	OpRefund       = "refund"
	OpUpdateStatus = "update_status"
)
