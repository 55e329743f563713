package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/re-trade/checkout-api/internal/usecase"
)

// RedisOrderGuard is a SetNX lock ensuring at most one order creation per
// checkout attempt.
type RedisOrderGuard struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisOrderGuard(rdb *redis.Client, ttl time.Duration) *RedisOrderGuard {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisOrderGuard{rdb: rdb, ttl: ttl}
}

func (g *RedisOrderGuard) TryLock(ctx context.Context, scope, key string) (bool, error) {
	return g.rdb.SetNX(ctx, "guard:"+scope+":"+key, "1", g.ttl).Result()
}

func (g *RedisOrderGuard) Unlock(ctx context.Context, scope, key string) error {
	return g.rdb.Del(ctx, "guard:"+scope+":"+key).Err()
}

var _ usecase.OrderGuard = (*RedisOrderGuard)(nil)
