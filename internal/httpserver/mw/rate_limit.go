package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/stockfront/internal/utils"
)

// RateLimitConfig bounds how often one client may load console pages. Every
// page load turns into at least one inventory API call.
type RateLimitConfig struct {
	Burst      int // page loads allowed at once; < 1 disables limiting
	PerMinute  int // refill rate
	IdleTTL    time.Duration
	TrustProxy bool
}

type client struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type limiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	clients   map[string]*client
	lastSweep time.Time
	now       func() time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	perMinute := max(cfg.PerMinute, 1)
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = 15 * time.Minute
	}
	return &limiter{
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     cfg.Burst,
		idleTTL:   idle,
		clients:   make(map[string]*client),
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

// take consumes one token for key. When none is left it returns the number
// of seconds until one is.
func (l *limiter) take(key string) (ok bool, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > l.idleTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, found := l.clients[key]
	if !found {
		c = &client{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	res := c.lim.ReserveN(now, 1)
	if !res.OK() {
		return false, int(l.idleTTL.Seconds())
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, max(int(math.Ceil(delay.Seconds())), 1)
	}
	return true, 0
}

// RateLimit applies a per-client token bucket and answers 429 with
// Retry-After once it is empty.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Burst < 1 {
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ok, retry := l.take(utils.ClientIP(r, cfg.TrustProxy)); !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
