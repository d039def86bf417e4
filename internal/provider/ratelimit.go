package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket. Tokens replenish at the configured request
// rate up to the burst size, and every successful acquire spends one.
type RateLimiter struct {
	mu          sync.Mutex
	minInterval time.Duration
	burstSize   int
	tokens      int
	last        time.Time

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

func NewRateLimiter(requestsPerSecond float64, burstSize int) *RateLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	if burstSize < 1 {
		burstSize = 1
	}
	return &RateLimiter{
		minInterval: time.Duration(float64(time.Second) / requestsPerSecond),
		burstSize:   burstSize,
		tokens:      burstSize,
		last:        time.Now(),
		shutdown:    make(chan struct{}),
	}
}

// Acquire blocks until a token is available. It returns false when the
// limiter is shut down or the context is canceled before one frees up.
func (r *RateLimiter) Acquire(ctx context.Context) bool {
	for {
		select {
		case <-r.shutdown:
			return false
		case <-ctx.Done():
			return false
		default:
		}

		if r.TryAcquire() {
			return true
		}

		wait := r.WaitTime()
		if wait < time.Millisecond {
			wait = time.Millisecond
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-r.shutdown:
			timer.Stop()
			return false
		case <-ctx.Done():
			timer.Stop()
			return false
		}
	}
}

// TryAcquire takes a token without blocking. Returns false when the bucket
// is empty.
func (r *RateLimiter) TryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(r.last)

	newTokens := int(elapsed / r.minInterval)
	if newTokens > 0 {
		r.tokens = min(r.burstSize, r.tokens+newTokens)
		r.last = now
	}

	if r.tokens > 0 {
		r.tokens--
		return true
	}

	return false
}

// WaitTime returns how long until the next token becomes available. Zero
// means a TryAcquire would succeed now.
func (r *RateLimiter) WaitTime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tokens > 0 {
		return 0
	}

	elapsed := time.Since(r.last)
	remaining := r.minInterval - elapsed
	if remaining < 0 {
		return 0
	}

	return remaining
}

// SetRate changes the refill rate and burst size. Waiters observe the new
// rate on their next refill check.
func (r *RateLimiter) SetRate(requestsPerSecond float64, burstSize int) {
	if requestsPerSecond <= 0 || burstSize < 1 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.minInterval = time.Duration(float64(time.Second) / requestsPerSecond)
	r.burstSize = burstSize
	r.tokens = min(r.tokens, burstSize)
}

// Shutdown releases all blocked Acquire calls. Safe to call more than once.
func (r *RateLimiter) Shutdown() {
	r.shutdownOnce.Do(func() {
		close(r.shutdown)
	})
}
