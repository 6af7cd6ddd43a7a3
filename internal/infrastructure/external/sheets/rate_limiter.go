package sheets

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATE LIMITER - token bucket shared by every request of a client
// ══════════════════════════════════════════════════════════════════════════════

// RateLimiter spaces out requests to the web-app endpoint, which enforces a
// per-script execution quota.
type RateLimiter struct {
	mu sync.Mutex

	capacity    float64
	perSecond   float64
	tokens      float64
	refilledAt  time.Time
	minGap      time.Duration
	lastGrant   time.Time
	waitTimeout time.Duration
	penalty     time.Duration
	blockedTill time.Time
}

// RateLimiterConfig configures a RateLimiter.
type RateLimiterConfig struct {
	// RequestsPerSecond is the sustained rate.
	RequestsPerSecond float64

	// BurstSize is how many requests may go out back to back.
	BurstSize int

	// MinInterval is enforced between two requests even with tokens left.
	MinInterval time.Duration

	// WaitTimeout bounds how long Allow blocks.
	WaitTimeout time.Duration

	// RetryAfter is the pause applied after a 429 without Retry-After.
	RetryAfter time.Duration
}

// DefaultRateLimiterConfig allows a page load's core and page sheets to be
// fetched in one burst.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 4,
		BurstSize:         12,
		MinInterval:       25 * time.Millisecond,
		WaitTimeout:       20 * time.Second,
		RetryAfter:        30 * time.Second,
	}
}

// NewRateLimiter creates a limiter with a full bucket.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	now := time.Now()
	return &RateLimiter{
		capacity:    float64(cfg.BurstSize),
		perSecond:   cfg.RequestsPerSecond,
		tokens:      float64(cfg.BurstSize),
		refilledAt:  now,
		minGap:      cfg.MinInterval,
		lastGrant:   now.Add(-cfg.MinInterval),
		waitTimeout: cfg.WaitTimeout,
		penalty:     cfg.RetryAfter,
	}
}

// RateLimitError is returned when no token could be obtained in time, or
// when the remote answered 429.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("sheets rate limit: retry after %s", e.RetryAfter)
}

// RetryDelay lets the retrier wait out the Retry-After period.
func (e *RateLimitError) RetryDelay() time.Duration {
	return e.RetryAfter
}

// Allow blocks until a request may be sent, the context ends, or the wait
// would exceed the configured timeout.
func (rl *RateLimiter) Allow(ctx context.Context) error {
	deadline := time.Now().Add(rl.waitTimeout)
	for {
		wait, ok := rl.reserve()
		if ok {
			return nil
		}
		if time.Now().Add(wait).After(deadline) {
			return &RateLimitError{RetryAfter: wait}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (rl *RateLimiter) reserve() (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.refill(now)

	if now.Before(rl.blockedTill) {
		return rl.blockedTill.Sub(now), false
	}
	if gap := now.Sub(rl.lastGrant); gap < rl.minGap {
		return rl.minGap - gap, false
	}
	if rl.tokens < 1 {
		return time.Duration((1 - rl.tokens) / rl.perSecond * float64(time.Second)), false
	}

	rl.tokens--
	rl.lastGrant = now
	return 0, true
}

// refill must be called with mu held.
func (rl *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(rl.refilledAt).Seconds()
	if elapsed <= 0 {
		return
	}
	rl.tokens += elapsed * rl.perSecond
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.refilledAt = now
}

// RecordRateLimitHit empties the bucket and pauses all requests for
// retryAfter, or the configured default when zero.
func (rl *RateLimiter) RecordRateLimitHit(retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if retryAfter <= 0 {
		retryAfter = rl.penalty
	}
	rl.tokens = 0
	rl.blockedTill = time.Now().Add(retryAfter)
}

// RateLimiterStatus is a point-in-time view of the limiter.
type RateLimiterStatus struct {
	AvailableTokens float64
	MaxTokens       float64
	BlockedUntil    time.Time
}

// Status returns the limiter's current state.
func (rl *RateLimiter) Status() RateLimiterStatus {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill(time.Now())
	return RateLimiterStatus{
		AvailableTokens: rl.tokens,
		MaxTokens:       rl.capacity,
		BlockedUntil:    rl.blockedTill,
	}
}
