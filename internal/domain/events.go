package domain

import "time"

// Event types
const (
	EventTypeDepositCredited    = "deposit.credited"
	EventTypeDepositDeducted    = "deposit.deducted"
	EventTypeDepositRefunded    = "deposit.refunded"
	EventTypeOrderStatusChanged = "vendor_order.status_changed"
)

// Aggregate types
const (
	AggregateTypeVendor      = "vendor"
	AggregateTypeVendorOrder = "vendor_order"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EventTypeFor returns the outbox event type emitted for a transaction type.
func EventTypeFor(t TransactionType) string {
	switch t {
	case TransactionTypeDeduction:
		return EventTypeDepositDeducted
	case TransactionTypeRefund:
		return EventTypeDepositRefunded
	default:
		return EventTypeDepositCredited
	}
}

// TransactionPayload is the outbox payload for a deposit ledger mutation.
func TransactionPayload(t *DepositTransaction) map[string]any {
	payload := map[string]any{
		"transaction_id": t.ID,
		"vendor_id":      t.VendorID,
		"type":           string(t.Type),
		"amount":         t.Amount.String(),
		"balance_before": t.BalanceBefore.String(),
		"balance_after":  t.BalanceAfter.String(),
		"event_at":       t.CreatedAt.Format(time.RFC3339Nano),
	}
	if t.OrderID != "" {
		payload["order_id"] = t.OrderID
	}
	return payload
}
