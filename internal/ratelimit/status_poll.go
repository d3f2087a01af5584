package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/almubaDev/apiTN/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyStatusPoll = "payments:status:ip:%s"

// StatusPollLimiter throttles payment status polling per client IP so an
// aggressive poller cannot hammer the platform status clients. A nil
// limiter (rate limiting disabled) allows everything.
type StatusPollLimiter struct {
	enabled bool

	bucket *TokenBucket

	rate  float64
	burst int
}

func NewStatusPollLimiter(cfg config.Config) (*StatusPollLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.StatusPollRate <= 0 || limitCfg.StatusPollBurst <= 0 {
		return nil, errors.New("status poll rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &StatusPollLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.StatusPollRate,
		burst:   limitCfg.StatusPollBurst,
	}, nil
}

func (l *StatusPollLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowIP reports whether the client at ip may poll now.
func (l *StatusPollLimiter) AllowIP(ctx context.Context, ip string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyStatusPoll, strings.TrimSpace(ip)), l.rate, l.burst)
}
