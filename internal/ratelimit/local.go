package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const defaultLocalLimitPerSec = 10

var _ RateLimiter = (*Local)(nil)

// Local is an in-process token bucket per key, used when no Redis is configured.
type Local struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	limitPerSec int
}

func NewLocal(limitPerSec int) *Local {
	if limitPerSec <= 0 {
		limitPerSec = defaultLocalLimitPerSec
	}

	return &Local{
		limiters:    make(map[string]*rate.Limiter),
		limitPerSec: limitPerSec,
	}
}

func (l *Local) Allow(ctx context.Context, key string) (bool, error) {
	limiter, err := l.limiterFor(key)
	if err != nil {
		return false, err
	}
	return limiter.Allow(), nil
}

func (l *Local) Wait(ctx context.Context, key string) error {
	limiter, err := l.limiterFor(key)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return limiter.Wait(ctx)
}

func (l *Local) limiterFor(key string) (*rate.Limiter, error) {
	if l == nil {
		return nil, fmt.Errorf("rate limiter is not initialized")
	}

	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return nil, fmt.Errorf("rate limit key is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[normalized]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.limitPerSec), l.limitPerSec)
		l.limiters[normalized] = limiter
	}
	return limiter, nil
}
