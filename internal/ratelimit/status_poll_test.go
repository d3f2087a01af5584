package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/almubaDev/apiTN/internal/config"
)

func TestDisabledLimiterIsNilAndAllowsAll(t *testing.T) {
	limiter, err := NewStatusPollLimiter(config.Config{})
	if err != nil {
		t.Fatalf("NewStatusPollLimiter: %v", err)
	}
	if limiter != nil {
		t.Fatalf("expected nil limiter when rate limiting is disabled, got %+v", limiter)
	}
	if limiter.Enabled() {
		t.Fatal("nil limiter must report disabled")
	}

	allowed, err := limiter.AllowIP(context.Background(), "203.0.113.7")
	if err != nil {
		t.Fatalf("AllowIP on nil limiter: %v", err)
	}
	if !allowed {
		t.Fatal("nil limiter must allow every request")
	}
}

func TestEnabledLimiterRequiresRedisAddr(t *testing.T) {
	cfg := config.Config{
		RateLimit: config.RateLimitConfig{
			Enabled:         true,
			RedisAddr:       "   ",
			StatusPollRate:  0.5,
			StatusPollBurst: 30,
		},
	}
	if _, err := NewStatusPollLimiter(cfg); err == nil {
		t.Fatal("expected error for missing redis addr")
	}
}

func TestEnabledLimiterRequiresPositiveRate(t *testing.T) {
	cfg := config.Config{
		RateLimit: config.RateLimitConfig{
			Enabled:   true,
			RedisAddr: "localhost:6379",
		},
	}
	if _, err := NewStatusPollLimiter(cfg); err == nil {
		t.Fatal("expected error for non-positive rate")
	}
}

func TestNilBucketRejectsWithError(t *testing.T) {
	var bucket *TokenBucket
	if _, err := bucket.Allow(context.Background(), "k", 1, 1); err == nil {
		t.Fatal("nil bucket must error instead of silently allowing")
	}
}

func TestBucketTTLCoversTwoRefills(t *testing.T) {
	if got := bucketTTL(0.5, 30); got != 120*time.Second {
		t.Fatalf("bucketTTL(0.5, 30) = %v, want 120s", got)
	}
	if got := bucketTTL(100, 1); got != time.Second {
		t.Fatalf("bucketTTL(100, 1) = %v, want 1s", got)
	}
}
