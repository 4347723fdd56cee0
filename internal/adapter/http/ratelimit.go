package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per client IP. Idle buckets expire.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	buckets *cache.Cache
}

// NewRateLimiter allows rps requests per second per client with the given burst
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		buckets: cache.New(10*time.Minute, 20*time.Minute),
	}
}

// Allow consumes a token for key
func (rl *RateLimiter) Allow(key string) bool {
	if v, ok := rl.buckets.Get(key); ok {
		rl.buckets.SetDefault(key, v)
		return v.(*rate.Limiter).Allow()
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	if err := rl.buckets.Add(key, limiter, cache.DefaultExpiration); err != nil {
		// lost the race with another request from the same client
		if v, ok := rl.buckets.Get(key); ok {
			return v.(*rate.Limiter).Allow()
		}
	}
	return limiter.Allow()
}

// Middleware rejects clients over their budget with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	h := &BaseHandler{}
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.Header("Retry-After", strconv.Itoa(int(max(1, 1/float64(rl.limit)))))
			h.Error(c, ErrCodeRateLimited, "too many requests")
			return
		}
		c.Next()
	}
}
