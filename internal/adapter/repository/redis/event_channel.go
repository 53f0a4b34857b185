package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nhangsach/depositledger/internal/domain"
)

// EventMessage is the JSON envelope published for every outbox event.
type EventMessage struct {
	ID            string         `json:"id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// EventChannel publishes outbox events on a Redis pub/sub channel. Delivery
// to subscribers is at-least-once; consumers dedupe by event ID.
type EventChannel struct {
	client  *redis.Client
	channel string
}

// NewEventChannel creates a new EventChannel.
func NewEventChannel(client *redis.Client, channel string) *EventChannel {
	if channel == "" {
		channel = "depositledger.events"
	}
	return &EventChannel{
		client:  client,
		channel: channel,
	}
}

// Channel returns the pub/sub channel name.
func (c *EventChannel) Channel() string {
	return c.channel
}

// Publish sends event to the channel.
func (c *EventChannel) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	body, err := json.Marshal(EventMessage{
		ID:            event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		OccurredAt:    event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.ID, err)
	}

	return c.client.Publish(ctx, c.channel, body).Err()
}
