package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/facilitydesk/facilitydesk/pkg/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limitKey prefers the authenticated subject and falls back to client IP.
func limitKey(c *gin.Context) string {
	if sub := claimString(c, "sub"); sub != "" {
		return "sub:" + sub
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

func rejectTooMany(c *gin.Context, retryAfter string) {
	c.Header("Retry-After", retryAfter)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests"})
}

// RateLimitMiddleware enforces an in-process token bucket per key.
// rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	set := newLimiterSet(rps, burst)
	return func(c *gin.Context) {
		if !set.get(limitKey(c)).Allow() {
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			rejectTooMany(c, "1")
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterSet holds one bucket per key. Buckets idle long enough to have
// refilled are dropped, so the map tracks recent clients only. With rps <= 0
// buckets never refill and are kept.
type limiterSet struct {
	mu        sync.Mutex
	rps       float64
	burst     int
	idle      time.Duration
	now       func() time.Time
	entries   map[string]*limiterEntry
	lastSweep time.Time
}

func newLimiterSet(rps float64, burst int) *limiterSet {
	var idle time.Duration
	if rps > 0 {
		idle = time.Duration(float64(burst) / rps * float64(time.Second))
		if idle < time.Minute {
			idle = time.Minute
		}
	}
	return &limiterSet{
		rps:     rps,
		burst:   burst,
		idle:    idle,
		now:     time.Now,
		entries: map[string]*limiterEntry{},
	}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.idle > 0 && now.Sub(s.lastSweep) >= s.idle {
		for k, e := range s.entries {
			if now.Sub(e.seen) >= s.idle {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}
	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.entries[key] = e
	}
	e.seen = now
	return e.lim
}
