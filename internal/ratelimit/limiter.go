package ratelimit

import "context"

// RateLimiter bounds how often a caller key (an IP address) may hit the
// public ingestion endpoint.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
