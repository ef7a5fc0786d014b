package rateLimit

import (
	"context"
	"time"

	redisadapter "github.com/caioevelyn/giftregistry/internal/adapters/redis"
)

// RateLimiter is a fixed-window counter in Redis, shared across instances.
type RateLimiter struct {
	redis *redisadapter.Cache
}

func NewRateLimiter(redis *redisadapter.Cache) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow fails open: if Redis is unreachable the request proceeds, since
// losing rate limiting is cheaper than refusing every guest.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	fullKey := "rl:" + key

	pipe := rl.redis.Client().Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, period)

	if _, err := pipe.Exec(ctx); err != nil {
		return true
	}

	return incr.Val() <= int64(rate)
}
