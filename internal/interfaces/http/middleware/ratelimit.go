package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter is a fixed-window in-memory limiter. Each key gets its own
// token bucket that refills when the window rolls over.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   int
	window  time.Duration
}

type bucket struct {
	tokens  int
	resetAt time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window and
// starts a background goroutine that evicts idle buckets.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   limit,
		window:  window,
	}
	go rl.evictLoop(window * 2)
	return rl
}

// take consumes one token for the key. It returns whether the request is
// allowed and how many tokens remain in the current window.
func (rl *RateLimiter) take(key string) (bool, int) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		rl.buckets[key] = &bucket{
			tokens:  rl.limit - 1,
			resetAt: now.Add(rl.window),
		}
		return true, rl.limit - 1
	}

	if b.tokens <= 0 {
		return false, 0
	}
	b.tokens--
	return true, b.tokens
}

// Allow reports whether a request for the key fits in the current window.
func (rl *RateLimiter) Allow(key string) bool {
	allowed, _ := rl.take(key)
	return allowed
}

// Remaining returns how many requests the key has left in its window
// without consuming a token.
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok || !time.Now().Before(b.resetAt) {
		return rl.limit
	}
	return b.tokens
}

func (rl *RateLimiter) evictLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-rl.window)
		rl.mu.Lock()
		for key, b := range rl.buckets {
			if b.resetAt.Before(cutoff) {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit limits requests per driver and client IP. The X-Driver-ID
// header is folded into the key so one driver cannot starve others behind
// the same NAT, and a Retry-After hint is returned on rejection.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(limiter.window.Seconds()))
	limitHeader := strconv.Itoa(limiter.limit)

	return func(c *gin.Context) {
		key := c.ClientIP()
		if driverID := c.GetHeader("X-Driver-ID"); driverID != "" {
			key = driverID + ":" + key
		}

		allowed, remaining := limiter.take(key)
		if !allowed {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMIT_EXCEEDED",
					"message": "Too many requests. Please try again later.",
				},
			})
			return
		}

		c.Header("X-RateLimit-Limit", limitHeader)
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}
