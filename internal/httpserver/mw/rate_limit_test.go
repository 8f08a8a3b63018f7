package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestLimiterBurstThenRefill(t *testing.T) {
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	l := newLimiter(RateLimitConfig{Burst: 2, PerMinute: 6})
	l.now = clk.now

	ok, _ := l.take("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.take("10.0.0.1")
	assert.True(t, ok)

	ok, retry := l.take("10.0.0.1")
	assert.False(t, ok)
	assert.InDelta(t, 10, retry, 1)

	// A refused request does not consume the next token.
	clk.t = clk.t.Add(11 * time.Second)
	ok, _ = l.take("10.0.0.1")
	assert.True(t, ok)

	// Clients are limited independently.
	ok, _ = l.take("10.0.0.2")
	assert.True(t, ok)
}

func TestLimiterSweepsIdleClients(t *testing.T) {
	clk := &clock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	l := newLimiter(RateLimitConfig{Burst: 1, PerMinute: 1, IdleTTL: time.Minute})
	l.now = clk.now
	l.lastSweep = clk.t

	l.take("10.0.0.1")
	l.take("10.0.0.2")
	assert.Len(t, l.clients, 2)

	clk.t = clk.t.Add(2 * time.Minute)
	l.take("10.0.0.3")
	assert.Len(t, l.clients, 1)
	assert.Contains(t, l.clients, "10.0.0.3")
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1, PerMinute: 1})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec
	}

	assert.Equal(t, http.StatusNoContent, serve().Code)

	rec := serve()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimitDisabled(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 0})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}
