package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/linklens/worker/internal/storage"
	"github.com/redis/go-redis/v9"
)

// RedisFixedWindow shares one fixed window across every worker instance
// pointed at the same Redis. Windows are aligned to wall-clock boundaries so
// all instances agree on the current window.
type RedisFixedWindow struct {
	redis  *storage.RedisClient
	limit  int
	window time.Duration
}

func NewRedisFixedWindow(redis *storage.RedisClient, limit int, window time.Duration) *RedisFixedWindow {
	return &RedisFixedWindow{
		redis:  redis,
		limit:  limit,
		window: window,
	}
}

func (r *RedisFixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	currentWindow := time.Now().Unix() / int64(r.window.Seconds())
	redisKey := fmt.Sprintf("ratelimit:user:%s:%d", key, currentWindow)

	count, err := r.redis.Incr(ctx, redisKey)
	if err != nil {
		return false, err
	}

	if count == 1 {
		r.redis.Expire(ctx, redisKey, r.window)
	}

	return count <= int64(r.limit), nil
}

func (r *RedisFixedWindow) Remaining(ctx context.Context, key string) (int, error) {
	currentWindow := time.Now().Unix() / int64(r.window.Seconds())
	redisKey := fmt.Sprintf("ratelimit:user:%s:%d", key, currentWindow)

	val, err := r.redis.Get(ctx, redisKey)
	if err == redis.Nil {
		return r.limit, nil
	}

	if err != nil {
		return 0, err
	}

	count, _ := strconv.Atoi(val)
	remaining := r.limit - count

	if remaining < 0 {
		remaining = 0
	}

	return remaining, nil
}

func (r *RedisFixedWindow) Limit() int {
	return r.limit
}

func (r *RedisFixedWindow) Window() time.Duration {
	return r.window
}

// Returns the time at which the limit resets
func (r *RedisFixedWindow) Reset(ctx context.Context, key string) (time.Time, error) {
	currentWindow := time.Now().Unix() / int64(r.window.Seconds())
	nextWindow := (currentWindow + 1) * int64(r.window.Seconds())
	return time.Unix(nextWindow, 0), nil
}
