package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/guttosm/stockpulse/internal/domain/dto"
	"github.com/guttosm/stockpulse/internal/logger"
)

// idleTTL is how long an idle client's bucket is kept before it is evicted.
const idleTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter hands out one token bucket per client IP.
// NOTE: state is process-local; multiple instances each enforce their own budget.
type ClientLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
	now      func() time.Time
}

// NewClientLimiter returns a limiter allowing rps sustained requests and
// bursts of up to burst per client. rps <= 0 disables limiting.
func NewClientLimiter(rps float64, burst int) *ClientLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow reports whether the client identified by key may proceed.
func (l *ClientLimiter) Allow(key string) bool {
	if l.rps <= 0 {
		return true
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[key]
	if !ok {
		l.evict(now)
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// evict drops idle visitors; caller holds mu.
func (l *ClientLimiter) evict(now time.Time) {
	for k, v := range l.visitors {
		if now.Sub(v.lastSeen) > idleTTL {
			delete(l.visitors, k)
		}
	}
}

// RateLimiter limits requests per client IP using a token bucket.
//
// Behavior:
//   - Each client IP gets its own bucket of `burst` tokens refilled at `rps` per second.
//   - If the bucket is empty, returns HTTP 429 Too Many Requests with a Retry-After header.
//
// Usage:
//
//	router := gin.New()
//	router.Use(middleware.RateLimiter(middleware.NewClientLimiter(1, 60)))
func RateLimiter(l *ClientLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !l.Allow(ip) {
			logger.L().Warn().
				Str("client_ip", ip).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("rate limit exceeded")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate limit exceeded", nil))
			return
		}
		c.Next()
	}
}
