// Package ratelimit throttles signed mutations per signer with a sliding
// window. The in-memory store suits a single node; the Redis store is shared.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result describes one admission decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set only when not allowed
}

// Store admits or rejects one request for key.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// Memory keeps one sliding window of timestamps per key. Keys whose window
// has emptied are evicted, on their next request or by a sweep that runs at
// most once per window.
type Memory struct {
	mu        sync.Mutex
	windows   map[string]*memWindow
	lastSweep time.Time
	now       func() time.Time
}

type memWindow struct {
	stamps []time.Time
	span   time.Duration
}

func NewMemory() *Memory {
	return &Memory{windows: make(map[string]*memWindow), now: time.Now}
}

func (m *Memory) Allow(_ context.Context, key string, limit int, window time.Duration) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now, window)

	w, ok := m.windows[key]
	if !ok {
		w = &memWindow{}
		m.windows[key] = w
	}
	w.span = window
	w.stamps = trim(w.stamps, now.Add(-window))
	if len(w.stamps) >= limit {
		return denied(limit, w.stamps[0].Add(window), now), nil
	}
	w.stamps = append(w.stamps, now)
	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(w.stamps),
		ResetAt:   w.stamps[0].Add(window),
	}, nil
}

// sweep drops every key whose newest request has left its window.
func (m *Memory) sweep(now time.Time, every time.Duration) {
	if now.Sub(m.lastSweep) < every {
		return
	}
	m.lastSweep = now
	for key, w := range m.windows {
		if len(w.stamps) == 0 || !w.stamps[len(w.stamps)-1].After(now.Add(-w.span)) {
			delete(m.windows, key)
		}
	}
}

// Tracked reports how many keys currently hold a window.
func (m *Memory) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// trim drops timestamps at or before cutoff. stamps is sorted.
func trim(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}

func denied(limit int, resetAt, now time.Time) *Result {
	retry := int(resetAt.Sub(now).Round(time.Second) / time.Second)
	if retry < 1 {
		retry = 1
	}
	return &Result{Limit: limit, ResetAt: resetAt, RetryAfter: retry}
}
