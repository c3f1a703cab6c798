package middleware

import (
	"sync"
	"time"

	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"

	"github.com/amora-app/backend/internal/platform/respond"
)

const (
	// visitorSweepInterval is how often idle visitor buckets are collected.
	visitorSweepInterval = 3 * time.Minute

	// visitorIdleTTL is how long a visitor bucket survives without traffic.
	visitorIdleTTL = 5 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns Echo middleware enforcing a per-client token bucket.
// Clients are keyed by their real IP, which respects the server's
// IPExtractor configuration when one is set. Buckets for idle clients are
// swept periodically so the visitor map cannot grow without bound.
func RateLimit(rps float64, burst int) echo.MiddlewareFunc {
	var (
		mu       sync.Mutex
		visitors = make(map[string]*visitor)
	)

	go func() {
		for range time.Tick(visitorSweepInterval) {
			mu.Lock()
			for ip, v := range visitors {
				if time.Since(v.lastSeen) > visitorIdleTTL {
					delete(visitors, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			ip := c.RealIP()

			mu.Lock()
			v, ok := visitors[ip]
			if !ok {
				v = &visitor{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
				visitors[ip] = v
			}
			v.lastSeen = time.Now()
			allowed := v.limiter.Allow()
			mu.Unlock()

			if !allowed {
				c.Response().Header().Set("Retry-After", "1")
				return respond.Error429("rate limit exceeded")
			}

			return next(c)
		}
	}
}
