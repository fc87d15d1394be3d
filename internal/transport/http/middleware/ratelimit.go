package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"eventhub/internal/transport/http/response"
)

const limiterIdleTTL = 15 * time.Minute

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	every    rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client with the given
// burst. perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		burst:    burst,
		now:      time.Now,
	}
	if perMinute > 0 {
		rl.every = rate.Every(time.Minute / time.Duration(perMinute))
		if rl.burst <= 0 {
			rl.burst = perMinute
		}
	}
	return rl
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.every == 0 {
			c.Next()
			return
		}
		if !rl.allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			response.Abort(c, http.StatusTooManyRequests, response.CodeTooManyRequest, "too many requests")
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.limiters[key]
	if !ok {
		rl.sweepLocked(now)
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.every, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// sweepLocked drops buckets idle for longer than limiterIdleTTL.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, key)
		}
	}
}
