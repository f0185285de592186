package middleware

import (
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/translation-backend/internal/errors"
	"golang.org/x/time/rate"
)

// KeyFunc selects the identity a rate-limit bucket belongs to.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP prefers the authenticated editor and falls back to the client IP.
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if id, ok := GetUserID(c); ok && id != 0 {
			return "user:" + strconv.FormatUint(uint64(id), 10)
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per key. A bucket holds limit
// tokens and refills completely over window.
type RateLimiter struct {
	name     string
	limit    int
	window   time.Duration
	keyFn    KeyFunc
	now      func() time.Time
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter allows limit requests per window per key. limit <= 0 is coerced to 1.
func NewRateLimiter(name string, limit int, window time.Duration, keyFn KeyFunc) *RateLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if keyFn == nil {
		keyFn = KeyByUserOrIP()
	}
	ttl := 2 * window
	if ttl < 10*time.Minute {
		ttl = 10 * time.Minute
	}
	return &RateLimiter{
		name:     name,
		limit:    limit,
		window:   window,
		keyFn:    keyFn,
		now:      time.Now,
		visitors: make(map[string]*visitor),
		ttl:      ttl,
	}
}

func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// evict idle buckets before touching the requested one
	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}

	every := rate.Every(rl.window / time.Duration(rl.limit))
	lim := rate.NewLimiter(every, rl.limit)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler enforces the limit. Every response carries X-RateLimit-Limit and
// X-RateLimit-Remaining; a rejected request also gets Retry-After in seconds.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.keyFn(c)
		lim := rl.getVisitor(key)
		now := rl.now()

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))

		reservation := lim.ReserveN(now, 1)
		if !reservation.OK() {
			rl.reject(c, key, rl.window)
			return
		}
		if delay := reservation.DelayFrom(now); delay > 0 {
			reservation.CancelAt(now)
			rl.reject(c, key, delay)
			return
		}

		remaining := int(math.Floor(lim.TokensAt(now)))
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}

func (rl *RateLimiter) reject(c *gin.Context, key string, retryAfter time.Duration) {
	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	GetLoggerFromContext(c).Warn("Rate limit exceeded", map[string]interface{}{
		"limiter": rl.name,
		"key":     key,
		"retry":   seconds,
	})
	rateLimitRejections.WithLabelValues(rl.name).Inc()

	c.Header("Retry-After", strconv.Itoa(seconds))
	c.Header("X-RateLimit-Remaining", "0")
	apperrors.TooManyRequests(c, fmt.Sprintf("Too many requests, retry in %d seconds", seconds))
}
