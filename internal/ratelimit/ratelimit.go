// Package ratelimit implements a per-key sliding-window request limiter.
// State is in-memory and process-local; a restart resets all windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter counts requests per key inside a trailing window. Construct one in
// main and hand it to the middleware; there is no package-level state.
type Limiter struct {
	mu       sync.Mutex
	window   time.Duration
	max      int
	requests map[string][]time.Time

	now func() time.Time // swapped in tests
}

func NewLimiter(window time.Duration, max int) *Limiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if max <= 0 {
		max = 100
	}
	return &Limiter{
		window:   window,
		max:      max,
		requests: make(map[string][]time.Time),
		now:      time.Now,
	}
}

// Allow prunes expired timestamps for key, then checks the budget before
// recording. A request over budget is rejected and NOT recorded, so it cannot
// extend the caller's lockout.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	stamps := l.requests[key]
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.max {
		l.requests[key] = kept
		return false
	}

	l.requests[key] = append(kept, now)
	return true
}

// StartSweeper evicts keys whose every timestamp has expired, so idle clients
// do not pin memory forever. Runs until ctx is cancelled.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (l *Limiter) sweep() {
	cutoff := l.now().Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, stamps := range l.requests {
		live := false
		for _, ts := range stamps {
			if ts.After(cutoff) {
				live = true
				break
			}
		}
		if !live {
			delete(l.requests, key)
		}
	}
}
