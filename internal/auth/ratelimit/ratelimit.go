// Package ratelimit enforces per-key request limits using a token-bucket
// algorithm, one golang.org/x/time/rate.Limiter per key, refilled at
// limit/window tokens per second with a burst equal to limit.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// Limiter tracks one golang.org/x/time/rate.Limiter per key.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	window  time.Duration
}

// New creates a rate limiter with the given refill window. Each key's
// bucket refills limit tokens per window, continuously, up to a burst of
// limit tokens.
func New(window time.Duration) *Limiter {
	l := &Limiter{
		entries: make(map[string]*entry),
		window:  window,
	}
	go l.cleanup()
	return l
}

// Allow checks whether key has remaining capacity for a request bounded by
// limit tokens per window, consuming one token on success. The limiter for
// a previously unseen key is created on first use; if limit later changes
// for the same key, the existing limiter keeps its original rate until the
// key is evicted by cleanup or Reset.
func (l *Limiter) Allow(key string, limit int) bool {
	l.mu.Lock()
	e, exists := l.entries[key]
	if !exists {
		ratePerSecond := rate.Limit(float64(limit) / l.window.Seconds())
		e = &entry{limiter: rate.NewLimiter(ratePerSecond, limit)}
		l.entries[key] = e
	}
	e.lastUsed = time.Now()
	limiter := e.limiter
	l.mu.Unlock()

	return limiter.Allow()
}

// Reset clears the rate-limit state for a specific key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, key)
}

// cleanup periodically removes stale entries to prevent memory leaks.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-2 * l.window)
		for key, e := range l.entries {
			if e.lastUsed.Before(cutoff) {
				delete(l.entries, key)
			}
		}
		l.mu.Unlock()
	}
}
