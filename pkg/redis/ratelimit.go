package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter implements sliding window rate limiting using Redis.
// When Redis is disabled it falls back to an in-process token bucket per key.
// ⭐ SSOT: 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string

	mu     sync.Mutex
	locals map[string]*rate.Limiter
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // Unique identifier (e.g. "orders:42")
	Limit  int           // Maximum requests allowed
	Window time.Duration // Time window
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
		locals: make(map[string]*rate.Limiter),
	}
}

var slidingWindow = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, now .. '-' .. count)
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1}
	end
	return {0, 0}
`)

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	if !r.client.Enabled() {
		return r.allowLocal(cfg), 0, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
	now := time.Now().UnixMilli()
	windowStart := now - cfg.Window.Milliseconds()

	result, err := slidingWindow.Run(ctx, r.client.Redis(), []string{key},
		now,
		windowStart,
		cfg.Limit,
		cfg.Window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	allowed := result[0].(int64) == 1
	remaining := int(result[1].(int64))

	return allowed, remaining, nil
}

// allowLocal spreads cfg.Limit tokens evenly over cfg.Window with a burst of cfg.Limit
func (r *RateLimiter) allowLocal(cfg RateLimitConfig) bool {
	r.mu.Lock()
	limiter, ok := r.locals[cfg.Key]
	if !ok {
		every := cfg.Window / time.Duration(max(cfg.Limit, 1))
		limiter = rate.NewLimiter(rate.Every(every), cfg.Limit)
		r.locals[cfg.Key] = limiter
	}
	r.mu.Unlock()

	return limiter.Allow()
}

// PruneLocal drops in-process limiters whose bucket has refilled, so idle
// accounts do not accumulate. Returns the number removed.
func (r *RateLimiter) PruneLocal() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, limiter := range r.locals {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(r.locals, key)
			removed++
		}
	}
	return removed
}
