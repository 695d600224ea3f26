package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var (
	ErrLockNotConfigured = errors.New("job lock: redis client not configured")
	ErrLockName          = errors.New("job lock: name is empty")
	ErrLockTTL           = errors.New("job lock: ttl must be positive")
)

// JobLock hands out leases on Redis keys so a scheduled job runs on one replica at a time.
type JobLock struct {
	client *redis.Client
}

// Lease is a held job lock. Only the holder's token can release it.
type Lease struct {
	lock  *JobLock
	key   string
	owner string
}

// NewJobLock returns nil without a client; the scheduler then runs jobs unguarded.
func NewJobLock(client *redis.Client) *JobLock {
	if client == nil {
		return nil
	}
	return &JobLock{client: client}
}

// Acquire claims key for ttl. A nil lease with a nil error means another replica holds it.
func (l *JobLock) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lease, error) {
	if l == nil || l.client == nil {
		return nil, ErrLockNotConfigured
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrLockName
	}
	if ttl <= 0 {
		return nil, ErrLockTTL
	}

	owner := uuid.NewString()
	claimed, err := l.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("job lock %s: %w", key, err)
	}
	if !claimed {
		return nil, nil
	}
	return &Lease{lock: l, key: key, owner: owner}, nil
}

// Release drops the key if it still carries this lease's owner token. An expired
// lease that another replica has since claimed is left alone.
func (le *Lease) Release(ctx context.Context) error {
	if le == nil || le.lock == nil {
		return nil
	}
	client := le.lock.client
	err := client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, le.key).Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		if current != le.owner {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, le.key)
			return nil
		})
		return err
	}, le.key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("job lock %s: release: %w", le.key, err)
	}
	return nil
}

func (le *Lease) Key() string {
	if le == nil {
		return ""
	}
	return le.key
}
