package inmem

import (
	"context"
	"math"
	"sync"
	"time"

	"webcore/internal/webapi"
)

// Buckets idle for longer than this are dropped by Sweep.
const idleBucketTTL = 10 * time.Minute

// RateLimiter is a token bucket limiter keyed by client. Each key starts
// with a full bucket of burst tokens refilled at rate tokens per second.
type RateLimiter struct {
	rate  float64
	burst float64
	clock func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	tokens  float64
	updated time.Time
}

// NewRateLimiter creates a limiter. A nil clock means time.Now.
// Non-positive rate or burst are raised to 1.
func NewRateLimiter(rate float64, burst int, clock func() time.Time) *RateLimiter {
	if clock == nil {
		clock = time.Now
	}
	if rate <= 0 {
		rate = 1
	}
	return &RateLimiter{
		rate:    rate,
		burst:   float64(max(burst, 1)),
		clock:   clock,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes one token from key's bucket if one is available.
func (rl *RateLimiter) Allow(key string) webapi.RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock()
	b := rl.refill(key, now)
	if b.tokens >= 1 {
		b.tokens--
		return webapi.RateLimitResult{Allowed: true}
	}

	wait := (1 - b.tokens) / rl.rate
	return webapi.RateLimitResult{RetryAfter: max(int(math.Ceil(wait)), 1)}
}

func (rl *RateLimiter) refill(key string, now time.Time) *bucket {
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.burst, updated: now}
		rl.buckets[key] = b
		return b
	}
	if elapsed := now.Sub(b.updated).Seconds(); elapsed > 0 {
		b.tokens = math.Min(rl.burst, b.tokens+elapsed*rl.rate)
	}
	b.updated = now
	return b
}

// Sweep drops buckets idle for longer than idleBucketTTL and returns how
// many were removed.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock()
	removed := 0
	for key, b := range rl.buckets {
		if now.Sub(b.updated) > idleBucketTTL {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (rl *RateLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// Len returns the number of tracked keys.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}
