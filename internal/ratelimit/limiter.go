package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/talentlink/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyPattern = "talentlink:ratelimit:%s:%s"

// Policy names a limited action and its bucket shape.
type Policy struct {
	Name  string
	Rate  float64
	Burst int
}

// Limiter applies named policies on top of a Bucket.
type Limiter struct {
	enabled bool
	bucket  Bucket

	TokenValidate Policy
	EmailInvite   Policy
}

// NewLimiter uses the shared Redis bucket when a client is available and the
// in-process bucket otherwise.
func NewLimiter(cfg config.Config, client *redis.Client, log *zap.Logger) *Limiter {
	var bucket Bucket
	if client != nil {
		bucket = NewTokenBucket(client)
		log.Info("rate limiter backed by redis", zap.String("addr", cfg.RedisAddr))
	} else {
		bucket = NewLocalBucket()
		log.Info("rate limiter backed by process memory")
	}
	return NewWithBucket(cfg.RateLimit, bucket)
}

func NewWithBucket(cfg config.RateLimitConfig, bucket Bucket) *Limiter {
	return &Limiter{
		enabled:       cfg.Enabled && bucket != nil,
		bucket:        bucket,
		TokenValidate: Policy{Name: "token-validate", Rate: cfg.TokenValidateRate, Burst: cfg.TokenValidateBurst},
		EmailInvite:   Policy{Name: "email-invite", Rate: cfg.EmailInviteRate, Burst: cfg.EmailInviteBurst},
	}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.enabled
}

// Allow spends one token of policy for subject. A disabled limiter allows everything.
func (l *Limiter) Allow(ctx context.Context, policy Policy, subject string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true, Limit: policy.Burst, Remaining: policy.Burst}, nil
	}
	key := fmt.Sprintf(keyPattern, policy.Name, strings.TrimSpace(subject))
	return l.bucket.Allow(ctx, key, policy.Rate, policy.Burst)
}

// NewRedisClient returns nil when REDIS_ADDR is unset.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}
