// Package ratelimit throttles money-movement endpoints with a
// Redis-backed fixed window counter.
package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RedisLimiter is a distributed fixed-window rate limiter. It fails open:
// a Redis outage never blocks banking operations, it only loses limiting.
type RedisLimiter struct {
	client redis.UniversalClient
	limit  int
	window time.Duration
	logger *zap.Logger
}

// New connects to Redis and returns a limiter. An empty addr disables
// limiting entirely (the limiter allows everything).
func New(addr string, limit int, window time.Duration, logger *zap.Logger) *RedisLimiter {
	if addr == "" {
		return &RedisLimiter{limit: limit, window: window, logger: logger}
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisLimiter{client: client, limit: limit, window: window, logger: logger}
}

// Allow consumes one slot for the subject in the scope. It returns the
// seconds to wait when the limit is exhausted, zero when allowed.
func (r *RedisLimiter) Allow(ctx context.Context, scope, subject string) (int, error) {
	if r == nil || r.client == nil || r.limit <= 0 || r.window <= 0 {
		return 0, nil
	}

	scope = strings.TrimSpace(scope)
	subject = strings.TrimSpace(subject)
	if scope == "" || subject == "" {
		return 0, nil
	}

	windowMs := r.window.Milliseconds()
	if windowMs < 1000 {
		windowMs = 1000
	}

	key := fmt.Sprintf("bank:rate_limit:%s:%s", scope, subject)
	raw, err := fixedWindowScript.Run(ctx, r.client, []string{key}, windowMs).Result()
	if err != nil {
		// Fail open on Redis errors.
		r.logger.Warn("rate limiter unavailable", zap.Error(err))
		return 0, nil
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) != 2 {
		r.logger.Warn("rate limiter returned unexpected shape")
		return 0, nil
	}
	count, _ := values[0].(int64)
	ttlMs, _ := values[1].(int64)
	if ttlMs < 0 {
		ttlMs = windowMs
	}

	if count > int64(r.limit) {
		return int(math.Ceil(float64(ttlMs) / 1000.0)), nil
	}
	return 0, nil
}

// Close releases the Redis connection.
func (r *RedisLimiter) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
