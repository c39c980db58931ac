// Package ratelimit throttles expensive endpoints per client.
package ratelimit

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	xhttp "StockInsight/pkg/http"
	"StockInsight/pkg/logger"
)

type entry struct {
	limiter *rate.Limiter
	seen    time.Time
}

// Limiter keeps one token bucket per key. Buckets idle for longer than the
// time needed to refill completely are dropped on the next sweep.
type Limiter struct {
	capacity int
	refill   rate.Limit
	idle     time.Duration
	now      func() time.Time

	mu        sync.Mutex
	m         map[string]*entry
	lastSweep time.Time
}

func New(capacity int, refillPerSec float64) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	idle := time.Minute
	if refillPerSec > 0 {
		idle = max(idle, time.Duration(float64(capacity)/refillPerSec*float64(time.Second)))
	}
	return &Limiter{
		capacity: capacity,
		refill:   rate.Limit(refillPerSec),
		idle:     idle,
		now:      time.Now,
		m:        make(map[string]*entry),
	}
}

// Allow consumes one token for key if available.
func (l *Limiter) Allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.idle {
		for k, e := range l.m {
			if now.Sub(e.seen) > l.idle {
				delete(l.m, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.m[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(l.refill, l.capacity)}
		l.m[key] = e
	}
	e.seen = now
	return e.limiter.AllowN(now, 1)
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}

// Middleware rejects requests over the limit with 429. Keys are the client IP
// plus scope, so separate endpoints can share or split budgets.
func Middleware(l *Limiter, scope string, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !l.Allow(ip + ":" + scope) {
				log.Warn("rate limited",
					logger.String("scope", scope),
					logger.String("remote", ip))
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests, slow down"))
			}
			return next(c)
		}
	}
}
