// Package ratelimit counts requests per key in fixed windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether another request for key fits in the current
// window. When it does not, retryAfter is the time left in the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// Memory is a process-local fixed-window limiter.
type Memory struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	items map[string]*rateEntry
}

type rateEntry struct {
	count int
	reset time.Time
}

// NewMemory allows limit requests per key per window.
func NewMemory(limit int, window time.Duration) *Memory {
	return &Memory{
		limit:  limit,
		window: window,
		now:    time.Now,
		items:  make(map[string]*rateEntry),
	}
}

// Allow implements Limiter.
func (rl *Memory) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.items[key]
	if !ok || now.After(entry.reset) {
		rl.sweep(now)
		entry = &rateEntry{reset: now.Add(rl.window)}
		rl.items[key] = entry
	}
	entry.count++

	if entry.count > rl.limit {
		return false, entry.reset.Sub(now), nil
	}
	return true, 0, nil
}

// sweep drops expired windows. Called with mu held.
func (rl *Memory) sweep(now time.Time) {
	for k, e := range rl.items {
		if now.After(e.reset) {
			delete(rl.items, k)
		}
	}
}
