package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryCounter is a fixed-window counter held in process memory. Scoped to
// one running process: under horizontal scaling every instance counts its
// own share, which under-counts globally. Deployments with more than one
// instance should use the redis-backed counter instead.
type MemoryCounter struct {
	capacity int
	window   time.Duration
	now      func() time.Time

	mu        sync.Mutex
	windows   map[string]*callerWindow
	lastSweep time.Time
}

type callerWindow struct {
	start time.Time
	count int
}

func NewMemoryCounter(capacity int, window time.Duration) *MemoryCounter {
	return &MemoryCounter{
		capacity: capacity,
		window:   window,
		now:      time.Now,
		windows:  make(map[string]*callerWindow),
	}
}

func (c *MemoryCounter) Allow(ctx context.Context, key string) (bool, int, error) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep(now)

	current, ok := c.windows[key]
	if !ok || now.Sub(current.start) >= c.window {
		c.windows[key] = &callerWindow{start: now, count: 1}
		return true, 0, nil
	}

	if current.count < c.capacity {
		current.count++
		return true, 0, nil
	}

	retryAfter := int(c.window.Seconds() - now.Sub(current.start).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	return false, retryAfter, nil
}

// sweep drops expired windows so the map does not grow with every distinct
// caller the process has ever seen. At most once per window length.
func (c *MemoryCounter) sweep(now time.Time) {
	if now.Sub(c.lastSweep) < c.window {
		return
	}
	c.lastSweep = now

	for key, current := range c.windows {
		if now.Sub(current.start) >= c.window {
			delete(c.windows, key)
		}
	}
}
