package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nhangsach/depositledger/internal/infrastructure/metrics"
)

// processingMarker holds an idempotency key while the first request is in flight.
const processingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client  *redis.Client
	prefix  string
	metrics *metrics.Metrics
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{
		client: client,
		prefix: "depositledger:idempotency:",
	}
}

// WithMetrics records Redis operations and failures.
func (s *IdempotencyStore) WithMetrics(m *metrics.Metrics) *IdempotencyStore {
	s.metrics = m
	return s
}

func (s *IdempotencyStore) observe(op string, err error) error {
	if s.metrics == nil {
		return err
	}
	s.metrics.RedisOperations.WithLabelValues(op).Inc()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.metrics.RedisErrors.WithLabelValues(op).Inc()
	}
	return err
}

// CheckAndSet reserves key, or returns the value already stored under it.
// With a nil response the key is reserved with a processing marker.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	var value any = processingMarker
	if response != nil {
		value = response
	}

	set, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	if err = s.observe("setnx", err); err != nil {
		return false, nil, err
	}
	if set {
		return false, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if err = s.observe("get", err); err != nil {
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET.
			return false, nil, nil
		}
		return false, nil, err
	}

	return true, existing, nil
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return s.observe("set", s.client.Set(ctx, s.prefix+key, response, ttl).Err())
}

// Release drops a reservation so a failed request can be retried with the same key.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.observe("del", s.client.Del(ctx, s.prefix+key).Err())
}

// IsProcessing reports whether a stored value is the in-flight marker.
func IsProcessing(value []byte) bool {
	return string(value) == processingMarker
}
