package ratelimit

import (
	"time"

	"github.com/linklens/worker/internal/storage"
)

// NewLimiter picks the shared Redis window when a Redis client is available,
// otherwise the process-local one.
func NewLimiter(redis *storage.RedisClient, limit int, window time.Duration) Limiter {
	if redis != nil {
		return NewRedisFixedWindow(redis, limit, window)
	}
	return NewMemoryFixedWindow(limit, window)
}
