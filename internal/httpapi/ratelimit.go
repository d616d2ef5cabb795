package httpapi

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// ipLimiter allows max requests per window for each client IP.
type ipLimiter struct {
	max     int
	window  time.Duration
	message string
	now     func() time.Time

	mu         sync.Mutex
	limiters   map[string]*rate.Limiter
	lastAccess map[string]time.Time
	lastSweep  time.Time
}

func newIPLimiter(max int, window time.Duration, message string) *ipLimiter {
	return &ipLimiter{
		max:        max,
		window:     window,
		message:    message,
		now:        time.Now,
		limiters:   make(map[string]*rate.Limiter),
		lastAccess: make(map[string]time.Time),
	}
}

func (l *ipLimiter) handler(c *fiber.Ctx) error {
	if !l.get(c.IP()).AllowN(l.now(), 1) {
		return fail(c, fiber.StatusTooManyRequests, l.message)
	}
	return c.Next()
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.window {
		l.sweep(now)
	}
	lim, ok := l.limiters[key]
	if !ok {
		// Full burst up front, refilled evenly across the window.
		lim = rate.NewLimiter(rate.Every(l.window/time.Duration(l.max)), l.max)
		l.limiters[key] = lim
	}
	l.lastAccess[key] = now
	return lim
}

// sweep drops limiters idle for a full window; they would be full again anyway.
func (l *ipLimiter) sweep(now time.Time) {
	for k, at := range l.lastAccess {
		if now.Sub(at) > l.window {
			delete(l.limiters, k)
			delete(l.lastAccess, k)
		}
	}
	l.lastSweep = now
}
