// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"sync"
	"time"
)

// Limiter enforces a minimum delay between consecutive calls.
// A zero or negative delay disables waiting.
// Safe for use from multiple goroutines, though the sync pipeline is
// sequential per document.
type Limiter struct {
	mu    sync.Mutex
	delay time.Duration
	last  time.Time

	// Calls counts how many times Wait has been invoked, for run summaries.
	calls int
}

// NewLimiter returns a Limiter with the given minimum inter-call delay.
func NewLimiter(delay time.Duration) *Limiter {
	return &Limiter{delay: delay}
}

// Wait blocks until at least the configured delay has passed since the
// previous call, or the context is cancelled.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	l.calls++
	var sleep time.Duration
	if l.delay > 0 && !l.last.IsZero() {
		if elapsed := time.Since(l.last); elapsed < l.delay {
			sleep = l.delay - elapsed
		}
	}
	l.last = time.Now().Add(sleep)
	l.mu.Unlock()

	if sleep <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sleep):
		return nil
	}
}

// Calls returns the number of rate-limited calls so far.
func (l *Limiter) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}
