package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedisClient(t *testing.T) *goredis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	return goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

func TestIngestRateLimiterAllow(t *testing.T) {
	t.Parallel()

	rdb := newTestRedisClient(t)

	now := time.Unix(1_700_000_000, 0)
	limiter, err := newIngestRateLimiter(rdb, 2, func() time.Time { return now })
	if err != nil {
		t.Fatalf("newIngestRateLimiter() error = %v", err)
	}

	allowed, err := limiter.Allow(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Fatal("first call should be allowed")
	}

	allowed, err = limiter.Allow(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Fatal("second call should be allowed")
	}

	allowed, err = limiter.Allow(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Fatal("third call should be rejected by rate limit")
	}

	now = now.Add(time.Second)
	allowed, err = limiter.Allow(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Fatal("new second window should allow call")
	}
}

func TestIngestRateLimiterAllowPerCaller(t *testing.T) {
	t.Parallel()

	rdb := newTestRedisClient(t)

	now := time.Unix(1_700_000_100, 0)
	limiter, err := newIngestRateLimiter(rdb, 1, func() time.Time { return now })
	if err != nil {
		t.Fatalf("newIngestRateLimiter() error = %v", err)
	}

	allowed, err := limiter.Allow(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Fatal("first caller should be allowed")
	}

	allowed, err = limiter.Allow(context.Background(), "198.51.100.4")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Fatal("second caller has its own window")
	}

	allowed, err = limiter.Allow(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Fatal("first caller should now be limited")
	}
}

func TestIngestRateLimiterValidation(t *testing.T) {
	t.Parallel()

	if _, err := newIngestRateLimiter(nil, 1, nil); err == nil {
		t.Fatal("expected error for nil client")
	}

	rdb := newTestRedisClient(t)
	limiter, err := newIngestRateLimiter(rdb, 1, nil)
	if err != nil {
		t.Fatalf("newIngestRateLimiter() error = %v", err)
	}

	if _, err := limiter.Allow(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty caller key")
	}
}
