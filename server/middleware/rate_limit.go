package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	errs "github.com/hrygo/notegraph/server/internal/errors"
	"github.com/hrygo/notegraph/store/cache"
)

const (
	// DefaultRate is 10 requests per second per key.
	DefaultRate = rate.Limit(10)
	// DefaultBurst allows short bursts of 20 requests per key.
	DefaultBurst = 20
)

// RateLimiter keeps one token bucket per key. Buckets idle for longer than
// the cache TTL are dropped.
type RateLimiter struct {
	mu     sync.Mutex
	limit  rate.Limit
	burst  int
	limits *cache.Cache
}

// NewRateLimiter creates a new rate limiter with the default rate.
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithRate(DefaultRate, DefaultBurst)
}

// NewRateLimiterWithRate creates a rate limiter allowing limit events per second with burst.
func NewRateLimiterWithRate(limit rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		limit: limit,
		burst: burst,
		limits: cache.New(cache.Config{
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: time.Minute,
			MaxItems:        10000,
		}),
	}
}

// getLimiter gets or creates a limiter for the given key.
func (rl *RateLimiter) getLimiter(ctx context.Context, key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if cached, ok := rl.limits.Get(ctx, key); ok {
		limiter := cached.(*rate.Limiter)
		rl.limits.Set(ctx, key, limiter)
		return limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limits.Set(ctx, key, limiter)
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *RateLimiter) Allow(key string) bool {
	return rl.getLimiter(context.Background(), key).Allow()
}

// Close releases the bucket cache.
func (rl *RateLimiter) Close() {
	rl.limits.Close()
}

// Middleware rejects requests over the limit, keyed by client IP.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.Allow(c.RealIP()) {
				return errs.RateLimitExceeded("too many requests, slow down")
			}
			return next(c)
		}
	}
}
