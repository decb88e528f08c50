package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/rushteam/jembertrip/pkg/logger"
	"github.com/rushteam/jembertrip/server/dto"
)

// ErrorCodeRateLimited 限流错误码
const ErrorCodeRateLimited = "RATE_LIMITED"

// RateLimiter 按客户端 IP 限流，长时间未访问的条目在访问时顺带清理。
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	rate      rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter 创建限流器：每秒 rps 个请求，突发 burst。
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = int(rps)
		if burst < 1 {
			burst = 1
		}
	}
	return &RateLimiter{
		limiters:  make(map[string]*limiterEntry),
		rate:      rate.Limit(rps),
		burst:     burst,
		ttl:       10 * time.Minute,
		lastSweep: time.Now(),
	}
}

// Allow 判断 key 的请求是否放行
func (rl *RateLimiter) Allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	if now.Sub(rl.lastSweep) > rl.ttl {
		for k, e := range rl.limiters {
			if now.Sub(e.lastAccess) > rl.ttl {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastAccess = now
	limiter := entry.limiter
	rl.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// RateLimit 限流中间件，超限返回 429
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !rl.Allow(ip) {
			logger.Warn(c.Request.Context(), "rate limited", "client_ip", ip, "path", c.FullPath())
			dto.Error(c, http.StatusTooManyRequests, ErrorCodeRateLimited, "too many requests")
			return
		}
		c.Next()
	}
}
