package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizwizz-backend/internal/response"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(c *gin.Context) string

// ByClientIP charges requests to the caller's address.
func ByClientIP(c *gin.Context) string { return "ip:" + c.ClientIP() }

// ByIdentity charges authenticated requests to the user and falls back to
// the address when no identity is set.
func ByIdentity(c *gin.Context) string {
	if id, ok := GetIdentity(c); ok {
		return "user:" + strconv.Itoa(id.UserID)
	}
	return ByClientIP(c)
}

// RateLimiter is a per-key bucket that refills to rate every interval.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     int
	interval time.Duration
	now      func() time.Time
}

type bucket struct {
	tokens   int
	refilled time.Time
}

// NewRateLimiter allows rate requests per interval per key.
// The stale-bucket sweep stops when ctx is cancelled.
func NewRateLimiter(ctx context.Context, rate int, interval time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		interval: interval,
		now:      time.Now,
	}

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.sweep()
			}
		}
	}()

	return rl
}

// Middleware limits by client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return rl.MiddlewareBy(ByClientIP)
}

// MiddlewareBy limits by the bucket key returns.
func (rl *RateLimiter) MiddlewareBy(key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		wait, ok := rl.take(key(c))
		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
			response.AbortFail(c, http.StatusTooManyRequests, response.ErrRateLimitExceeded)
			return
		}
		c.Next()
	}
}

// take spends one token, or reports how long until the next refill.
func (rl *RateLimiter) take(key string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.rate, refilled: now}
		rl.buckets[key] = b
	}
	if periods := int(now.Sub(b.refilled) / rl.interval); periods > 0 {
		b.tokens = min(rl.rate, b.tokens+periods*rl.rate)
		b.refilled = b.refilled.Add(time.Duration(periods) * rl.interval)
	}

	if b.tokens <= 0 {
		return b.refilled.Add(rl.interval).Sub(now), false
	}
	b.tokens--
	return 0, true
}

// sweep forgets buckets that have been full for a while.
func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-3 * rl.interval)
	for key, b := range rl.buckets {
		if b.refilled.Before(cutoff) {
			delete(rl.buckets, key)
		}
	}
}
