package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryFixedWindow is a per-process fixed-window limiter. Each key gets a
// bucket whose window starts at the first request and lasts for the full
// window duration; once the window passes, the next request replaces the
// bucket rather than incrementing it.
//
// State lives only in this process. Multiple instances each enforce the
// limit independently, so the effective global limit under horizontal
// scaling is limit * instances. Buckets for inactive keys are never evicted.
type MemoryFixedWindow struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
	now     func() time.Time
}

type bucket struct {
	count   int
	resetAt time.Time
}

func NewMemoryFixedWindow(limit int, window time.Duration) *MemoryFixedWindow {
	return &MemoryFixedWindow{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (m *MemoryFixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	b, exists := m.buckets[key]
	if !exists || !now.Before(b.resetAt) {
		m.buckets[key] = &bucket{count: 1, resetAt: now.Add(m.window)}
		return m.limit >= 1, nil
	}

	if b.count >= m.limit {
		return false, nil
	}

	b.count++
	return true, nil
}

func (m *MemoryFixedWindow) Remaining(ctx context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, exists := m.buckets[key]
	if !exists || !m.now().Before(b.resetAt) {
		return m.limit, nil
	}

	remaining := m.limit - b.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (m *MemoryFixedWindow) Limit() int {
	return m.limit
}

func (m *MemoryFixedWindow) Window() time.Duration {
	return m.window
}

// Returns the time at which the key's current window rolls over
func (m *MemoryFixedWindow) Reset(ctx context.Context, key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	b, exists := m.buckets[key]
	if !exists || !now.Before(b.resetAt) {
		return now.Add(m.window), nil
	}
	return b.resetAt, nil
}
