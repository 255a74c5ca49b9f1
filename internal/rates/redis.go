package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const redisKeyPrefix = "rates:"

// RedisCache keeps conversion rates as decimal strings under rates:<code>.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		DB:              0,
		PoolSize:        20,
		MinIdleConns:    2,
		ConnMaxIdleTime: 5 * time.Minute,
		DialTimeout:     500 * time.Millisecond,
		ReadTimeout:     300 * time.Millisecond,
		WriteTimeout:    300 * time.Millisecond,
		MaxRetries:      2,
	})
	return &RedisCache{client: client}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, code string) (rate decimal.Decimal, found bool, err error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return rate, false, nil
	}
	if err != nil {
		return rate, false, fmt.Errorf("failed to get cached rate: %w", err)
	}

	rate, err = decimal.NewFromString(raw)
	if err != nil {
		return rate, false, fmt.Errorf("failed to parse cached rate %q: %w", raw, err)
	}
	return rate, true, nil
}

func (c *RedisCache) Set(ctx context.Context, code string, rate decimal.Decimal, ttl time.Duration) error {
	err := c.client.Set(ctx, redisKeyPrefix+code, rate.String(), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache rate: %w", err)
	}
	return nil
}

// Invalidate drops cached entries for codes, used after reseeding.
func (c *RedisCache) Invalidate(ctx context.Context, codes ...string) error {
	if len(codes) == 0 {
		return nil
	}
	keys := make([]string, 0, len(codes))
	for _, code := range codes {
		keys = append(keys, redisKeyPrefix+code)
	}
	return c.client.Del(ctx, keys...).Err()
}
