// ------------------------------------------------------
// FuzzKit - API Rate Limiter
// Token bucket for inbound request throttling
// ------------------------------------------------------

package api

import (
	"sync"
	"time"
)

// RateLimiter implements a token-bucket limiter for inbound API
// requests. The mutex is held only while reading/writing token state.
type RateLimiter struct {
	mu        sync.Mutex
	tokens    int
	lastCheck time.Time
	rate      int
	burst     int
}

// NewRateLimiter creates a new rate limiter with the given per-second
// rate and burst values.
func NewRateLimiter(rate, burst int) *RateLimiter {
	if burst < 1 {
		burst = rate
	}
	return &RateLimiter{
		tokens:    burst,
		lastCheck: time.Now(),
		rate:      rate,
		burst:     burst,
	}
}

// Allow reports whether a request may proceed, consuming a token when
// it does. Unlike a client-side limiter there is no blocking wait:
// over-budget requests are rejected so the server stays responsive.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastCheck)
	rl.lastCheck = now

	tokensToAdd := int(elapsed.Seconds() * float64(rl.rate))
	rl.tokens = min(rl.burst, rl.tokens+tokensToAdd)

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}
