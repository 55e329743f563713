package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domain "github.com/re-trade/checkout-api/internal/entity"
	"github.com/re-trade/checkout-api/internal/usecase"
)

// RedisAttemptStore keeps live checkout attempts under a TTL so that
// retry-payment and reset can find them across requests. Expiry doubles as
// the implicit abandonment of stale attempts.
type RedisAttemptStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisAttemptStore(rdb *redis.Client, ttl time.Duration) *RedisAttemptStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisAttemptStore{rdb: rdb, ttl: ttl}
}

func attemptKey(id string) string { return "checkout:attempt:" + id }

func (s *RedisAttemptStore) Put(ctx context.Context, a *domain.CheckoutAttempt) error {
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	return s.rdb.Set(ctx, attemptKey(a.ID), raw, s.ttl).Err()
}

func (s *RedisAttemptStore) Get(ctx context.Context, id string) (*domain.CheckoutAttempt, error) {
	raw, err := s.rdb.Get(ctx, attemptKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var a domain.CheckoutAttempt
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return &a, nil
}

func (s *RedisAttemptStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, attemptKey(id)).Err()
}

var _ usecase.AttemptStore = (*RedisAttemptStore)(nil)
