package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/stockfront/internal/config"
	"github.com/MrSnakeDoc/stockfront/internal/credential"
	"github.com/MrSnakeDoc/stockfront/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stockfront/internal/logger"
)

type brokenStore struct{}

func (brokenStore) Read(context.Context) (string, bool, error) {
	return "", false, errors.New("disk on fire")
}

func testConfig() *config.Config {
	return &config.Config{
		ListenPort:         "127.0.0.1:0",
		RequestTimeout:     time.Second,
		RateLimitBurst:     0,
		RateLimitPerMinute: 60,
	}
}

func testDeps(reader credential.Reader) deps.Deps {
	return deps.Deps{
		Logger:            logger.Nop(),
		StartTime:         time.Now(),
		Version:           "test",
		Credentials:       reader,
		CredentialBackend: credential.BackendFile,
		APIBaseURL:        "http://inventory:8000",
		APITimeout:        10 * time.Second,
		Interceptors:      []string{"bearer"},
		RouteCount:        1,
		Navigation: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("nav:" + r.URL.Path))
		}),
	}
}

func get(t *testing.T, h http.Handler, path string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealthz(t *testing.T) {
	r := NewRouter(testConfig(), testDeps(credential.NewMemory("")))

	rec := get(t, r, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestReadyz(t *testing.T) {
	rec := get(t, NewRouter(testConfig(), testDeps(credential.NewMemory(""))), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["ready"])

	rec = get(t, NewRouter(testConfig(), testDeps(brokenStore{})), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}

func TestInfra(t *testing.T) {
	tests := []struct {
		name   string
		reader credential.Reader
		mode   string
	}{
		{"anonymous", credential.NewMemory(""), "anonymous"},
		{"authenticated", credential.NewMemory("abc123"), "authenticated"},
		{"unavailable", brokenStore{}, "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, NewRouter(testConfig(), testDeps(tt.reader)), "/infra")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.NotContains(t, rec.Body.String(), "abc123")

			body := decode[map[string]any](t, rec)
			assert.Equal(t, tt.mode, body["mode"])
			assert.Equal(t, "http://inventory:8000", body["api_base_url"])
			assert.Equal(t, "10s", body["api_timeout"])
			assert.Equal(t, []any{"bearer"}, body["interceptors"])
			assert.Equal(t, float64(1), body["routes"])
		})
	}
}

func TestInfraPingsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	d := testDeps(credential.NewRedisStore(client, ""))
	d.CredentialBackend = credential.BackendRedis
	d.RedisClient = client
	require.NoError(t, mr.Set(credential.RedisKey(credential.DefaultKey), "abc123"))

	rec := get(t, NewRouter(testConfig(), d), "/infra")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK     bool   `json:"ok"`
			Mode   string `json:"mode"`
			Detail string `json:"detail"`
		} `json:"components"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "authenticated", body.Mode)
	assert.Equal(t, "redis", body.Components["credential"].Mode)
	assert.True(t, body.Components["redis"].OK)
	assert.Equal(t, mr.Addr(), body.Components["redis"].Detail)
}

func TestOperationalRoutesHonourCIDRs(t *testing.T) {
	d := testDeps(credential.NewMemory(""))
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	r := NewRouter(testConfig(), d)

	assert.Equal(t, http.StatusForbidden, get(t, r, "/infra").Code)
	assert.Equal(t, http.StatusOK, get(t, r, "/infra", func(req *http.Request) {
		req.RemoteAddr = "10.1.2.3:5555"
	}).Code)

	// Navigation is not restricted.
	assert.Equal(t, http.StatusTeapot, get(t, r, "/products").Code)
}

func TestEverythingElseGoesToNavigation(t *testing.T) {
	r := NewRouter(testConfig(), testDeps(credential.NewMemory("")))

	for _, path := range []string{"/", "/products", "/products/4/stock"} {
		rec := get(t, r, path)
		assert.Equal(t, http.StatusTeapot, rec.Code, path)
		assert.Equal(t, "nav:"+path, rec.Body.String())
	}
}

func TestNavigationIsRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitBurst = 2
	cfg.RateLimitPerMinute = 1
	r := NewRouter(cfg, testDeps(credential.NewMemory("")))

	assert.Equal(t, http.StatusTeapot, get(t, r, "/").Code)
	assert.Equal(t, http.StatusTeapot, get(t, r, "/").Code)

	rec := get(t, r, "/")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Operational routes sit outside the limiter.
	assert.Equal(t, http.StatusOK, get(t, r, "/healthz").Code)
}

func TestServeAndStop(t *testing.T) {
	srv := New(testConfig(), testDeps(credential.NewMemory("")))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.NoError(t, <-done)
}
