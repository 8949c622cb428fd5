package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kursadbilgin/dining-desk/internal/ratelimit"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultGenerationsPerSec int64 = 10
	minWindowWait                  = 5 * time.Millisecond
	rateLimitKeyPrefix             = "ratelimit:generate:"
)

// windowScript counts one call in the current one-second window and reports
// whether it fits the budget.
var windowScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], 1)
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter shares a per-second generation budget across API replicas.
// Windows are aligned to wall-clock seconds so every replica agrees on them.
type RedisRateLimiter struct {
	client *goredis.Client
	budget int64
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRedisRateLimiter(client *goredis.Client, generationsPerSec int) (*RedisRateLimiter, error) {
	return newRedisRateLimiter(client, int64(generationsPerSec), time.Now, sleepWithContext)
}

func newRedisRateLimiter(
	client *goredis.Client,
	budget int64,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if budget <= 0 {
		budget = defaultGenerationsPerSec
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	return &RedisRateLimiter{
		client: client,
		budget: budget,
		now:    nowFn,
		sleep:  sleepFn,
	}, nil
}

// Allow spends one slot of the current window for model key.
func (r *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r == nil || r.client == nil {
		return false, fmt.Errorf("rate limiter is not initialized")
	}

	model := strings.ToLower(strings.TrimSpace(key))
	if model == "" {
		return false, fmt.Errorf("rate limit key is required")
	}

	windowKey := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, model, r.now().Unix())
	ok, err := windowScript.Run(ctx, r.client, []string{windowKey}, r.budget).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate rate limit for %q: %w", model, err)
	}
	return ok == 1, nil
}

// Wait blocks until a slot is granted, sleeping to the start of the next window
// after each rejection.
func (r *RedisRateLimiter) Wait(ctx context.Context, key string) error {
	for {
		allowed, err := r.Allow(ctx, key)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
		if err := r.sleep(ctx, r.untilNextWindow()); err != nil {
			return err
		}
	}
}

func (r *RedisRateLimiter) untilNextWindow() time.Duration {
	now := r.now()
	next := now.Truncate(time.Second).Add(time.Second)
	return max(next.Sub(now), minWindowWait)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
