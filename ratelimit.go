package binpack

import (
	"sync"
	"time"
)

// RateLimiter is a token bucket applied by callers around packet sends and
// receives, independent of encode/decode. One limiter per logical sender or
// receiver, such as one per socket.
//
// Tokens refill proportionally to elapsed wall-clock time, rounded down, and
// never exceed the configured maximum. All methods are safe for concurrent
// use on one instance.
type RateLimiter struct {
	mu         sync.Mutex
	max        int
	window     time.Duration
	tokens     int
	lastRefill time.Time
	disabled   bool
	now        func() time.Time
}

// NewRateLimiter creates a limiter allowing maxRequests operations per
// window. The bucket starts full. Non-positive arguments are rejected with
// a ConfigError.
func NewRateLimiter(maxRequests int, window time.Duration) (*RateLimiter, error) {
	if maxRequests <= 0 {
		return nil, newConfigError("max requests", maxRequests)
	}
	if window <= 0 {
		return nil, newConfigError("window seconds", int(window/time.Second))
	}
	rl := &RateLimiter{
		max:    maxRequests,
		window: window,
		tokens: maxRequests,
		now:    time.Now,
	}
	rl.lastRefill = rl.now()
	return rl, nil
}

// SetClock overrides the time source (for testing). The refill timestamp is
// rebased onto the new clock; without that, the first refill would measure
// elapsed time against the construction-time wall clock.
func (rl *RateLimiter) SetClock(fn func() time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.now = fn
	rl.lastRefill = fn()
}

// refill adds floor(elapsed * max / window) tokens, capped at max.
// The refill timestamp only advances when whole tokens are added, so
// fractional elapsed time keeps accumulating instead of being discarded.
func (rl *RateLimiter) refill(now time.Time) {
	elapsed := now.Sub(rl.lastRefill)
	if elapsed <= 0 {
		return
	}
	added := int(int64(elapsed) * int64(rl.max) / int64(rl.window))
	if added <= 0 {
		return
	}
	rl.tokens += added
	if rl.tokens > rl.max {
		rl.tokens = rl.max
	}
	rl.lastRefill = now
}

// CheckLimit consumes one token for the named operation. When the bucket is
// depleted it returns a RateLimitError carrying the limit and window; the
// caller may wait and retry. A disabled limiter always succeeds without
// touching the bucket.
func (rl *RateLimiter) CheckLimit(operation string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.disabled {
		return nil
	}

	rl.refill(rl.now())
	if rl.tokens < 1 {
		emitRateLimited(operation, rl.max, rl.window)
		return newRateLimitError(operation, rl.max, rl.window)
	}
	rl.tokens--
	return nil
}

// TryOperation consumes one token and reports whether it succeeded.
// Same semantics as CheckLimit, without an error value.
func (rl *RateLimiter) TryOperation() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.disabled {
		return true
	}

	rl.refill(rl.now())
	if rl.tokens < 1 {
		return false
	}
	rl.tokens--
	return true
}

// Disable makes every check succeed without consuming tokens.
func (rl *RateLimiter) Disable() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.disabled = true
}

// Enable restores normal token accounting.
func (rl *RateLimiter) Enable() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.disabled = false
}

// Enabled reports whether the limiter is enforcing its limit.
func (rl *RateLimiter) Enabled() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return !rl.disabled
}

// Reset refills the bucket and restarts the refill clock.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.tokens = rl.max
	rl.lastRefill = rl.now()
}

// Tokens returns the current token count (for testing and metrics).
func (rl *RateLimiter) Tokens() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.tokens
}
