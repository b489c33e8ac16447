package limiter

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/plantdoctor/identity/pkg/logger"
)

const defaultTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(rps, burst int, ttl time.Duration) *rateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &rateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (l *rateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.lastSweep.IsZero() {
		l.lastSweep = now
	} else if now.Sub(l.lastSweep) >= l.ttl {
		l.sweep(now)
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now

	return v.limiter.AllowN(now, 1)
}

// sweep forgets visitors idle for longer than ttl. Callers hold mu.
func (l *rateLimiter) sweep(now time.Time) {
	for ip, v := range l.visitors {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.visitors, ip)
		}
	}
	l.lastSweep = now
}

// Limit returns a per-client-IP token bucket middleware. Idle visitors are
// forgotten after ttl, swept on the request path at most once per ttl. A
// non-positive rps disables limiting.
func Limit(rps, burst int, ttl time.Duration) gin.HandlerFunc {
	return newRateLimiter(rps, burst, ttl).handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	ip := c.ClientIP()
	if !l.allow(ip) {
		logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", c.FullPath()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Too many requests. Please try again later."})
		return
	}

	c.Next()
}
