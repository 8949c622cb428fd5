package ratelimit

import "context"

// RateLimiter controls outbound request throughput per key (usually a model name).
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Wait(ctx context.Context, key string) error
}
