package middleware

import (
	"log/slog"
	"net/http"
	"sync"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimiter throttles the unauthenticated auth endpoints per client IP.
// Redis-backed when a client is provided so the limit holds across
// replicas; otherwise it degrades to an in-process token bucket.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	perMin   int
	logger   *slog.Logger
}

func NewRateLimiter(rdb *redis.Client, perMin int, logger *slog.Logger) *RateLimiter {
	rl := &RateLimiter{
		fallback: newLocalLimiter(perMin),
		perMin:   perMin,
		logger:   logger,
	}
	if rdb != nil {
		rl.limiter = redis_rate.NewLimiter(rdb)
	}
	return rl
}

func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		if rl.limiter != nil {
			res, err := rl.limiter.Allow(c.Request.Context(), "auth:"+key, redis_rate.PerMinute(rl.perMin))
			if err != nil {
				// Redis down: fail open onto the local bucket.
				rl.logger.Warn("rate limiter backend error, using local fallback", "error", err)
			} else if res.Allowed == 0 {
				tooManyRequests(c)
				return
			} else {
				c.Next()
				return
			}
		}

		if !rl.fallback.allow(key) {
			tooManyRequests(c)
			return
		}
		c.Next()
	}
}

func tooManyRequests(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
	c.Abort()
}

// localLimiter keeps one token bucket per client IP.
type localLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	perMin  int
}

func newLocalLimiter(perMin int) *localLimiter {
	return &localLimiter{
		buckets: make(map[string]*rate.Limiter),
		perMin:  perMin,
	}
}

func (l *localLimiter) allow(key string) bool {
	l.mu.Lock()
	bucket, ok := l.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(rate.Limit(float64(l.perMin)/60.0), l.perMin)
		l.buckets[key] = bucket
	}
	l.mu.Unlock()
	return bucket.Allow()
}
