package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const localIdleTTL = 30 * time.Minute

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalBucket is the in-process fallback used when no Redis is configured.
// Limits are per replica.
type LocalBucket struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	now     func() time.Time
	sweepAt time.Time
}

func NewLocalBucket() *LocalBucket {
	return &LocalBucket{
		entries: make(map[string]*localEntry),
		now:     time.Now,
	}
}

func (b *LocalBucket) Allow(_ context.Context, key string, r float64, burst int) (*Result, error) {
	if err := validate(key, r, burst); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.sweep(now)

	entry, ok := b.entries[key]
	if !ok || entry.limiter.Limit() != rate.Limit(r) || entry.limiter.Burst() != burst {
		entry = &localEntry{limiter: rate.NewLimiter(rate.Limit(r), burst)}
		b.entries[key] = entry
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	return newResult(allowed, entry.limiter.TokensAt(now), r, burst), nil
}

// sweep drops idle limiters at most once per idle period.
func (b *LocalBucket) sweep(now time.Time) {
	if now.Before(b.sweepAt) {
		return
	}
	for key, entry := range b.entries {
		if now.Sub(entry.lastSeen) > localIdleTTL {
			delete(b.entries, key)
		}
	}
	b.sweepAt = now.Add(localIdleTTL)
}
