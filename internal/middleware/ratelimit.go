package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter limits requests per client IP over fixed windows.
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*ipWindow
}

type ipWindow struct {
	start time.Time
	count int
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limit:   limit,
		window:  window,
		windows: make(map[string]*ipWindow),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, w := range rl.windows {
			if now.Sub(w.start) > rl.window {
				delete(rl.windows, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow reports whether a request from ip fits in the current window.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.start) > rl.window {
		rl.windows[ip] = &ipWindow{start: now, count: 1}
		return true
	}

	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// RateLimit middleware rejects clients exceeding limit requests per window.
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(limit, window)

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
