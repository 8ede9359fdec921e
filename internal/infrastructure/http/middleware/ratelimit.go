package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RedisLimiter is a Redis sorted-set sliding-window rate limiter, kept
// functionally identical to the teacher's RedisRateLimiter
// (ratelimit_simple.go) — ZREMRANGEBYSCORE to evict the window, ZCARD to
// count, ZADD to record, EXPIRE to bound the key's lifetime.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter returns a limiter allowing limit requests per window.
func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

// Allow reports whether key has room for one more request in the current
// window, recording the request as a side effect when it does.
func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now().Unix()
	windowStart := now - int64(r.window.Seconds())

	pipe := r.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.Expire(ctx, key, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return int(countCmd.Val()) < r.limit, nil
}

// LocalLimiter is a per-key in-memory token bucket, used in place of
// RedisLimiter when no Redis client is configured (a single-instance
// deployment, or a dev run of `dataflow serve`). Each key gets its own
// rate.Limiter, lazily created and never evicted within a run.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewLocalLimiter returns a limiter allowing r requests/second per key,
// with burst capacity b.
func NewLocalLimiter(r rate.Limit, b int) *LocalLimiter {
	return &LocalLimiter{limiters: make(map[string]*rate.Limiter), rate: r, burst: b}
}

func (l *LocalLimiter) forKey(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Allow reports whether key has a token available, consuming one if so.
func (l *LocalLimiter) Allow(key string) bool {
	return l.forKey(key).Allow()
}

// LocalRateLimit builds an echo middleware identical in shape to RateLimit
// but backed by LocalLimiter instead of Redis, for deployments that run
// without a shared cache.
func LocalRateLimit(requestsPerSecond float64, burst int) echo.MiddlewareFunc {
	limiter := NewLocalLimiter(rate.Limit(requestsPerSecond), burst)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/health" || c.Path() == "/metrics" {
				return next(c)
			}

			key := c.RealIP()
			if subject := c.Get("subject"); subject != nil {
				key = fmt.Sprintf("subject:%v", subject)
			}

			if !limiter.Allow(key) {
				return c.JSON(http.StatusTooManyRequests, ErrorResponse{
					Error:   "rate_limit_exceeded",
					Message: "too many requests, please slow down",
				})
			}
			return next(c)
		}
	}
}

// RateLimit builds an echo middleware enforcing limit requests per window,
// keyed by the authenticated subject set by JWT() or, absent one, the
// caller's IP. Requests to /health and /metrics are exempt, matching the
// teacher's RedisRateLimit.
func RateLimit(client *redis.Client, limit int, window time.Duration) echo.MiddlewareFunc {
	limiter := NewRedisLimiter(client, limit, window)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/health" || c.Path() == "/metrics" {
				return next(c)
			}

			key := fmt.Sprintf("ratelimit:ip:%s", c.RealIP())
			if subject := c.Get("subject"); subject != nil {
				key = fmt.Sprintf("ratelimit:subject:%v", subject)
			}

			allowed, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				// A rate-limiter outage degrades to allowing the request.
				return next(c)
			}
			if !allowed {
				c.Response().Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limit))
				return c.JSON(http.StatusTooManyRequests, ErrorResponse{
					Error:   "rate_limit_exceeded",
					Message: fmt.Sprintf("rate limit exceeded: maximum %d requests per %s", limit, window),
				})
			}
			return next(c)
		}
	}
}
