package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/stockfront/internal/credential"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func okResponse(r *http.Request) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     make(http.Header),
		Body:       io.NopCloser(http.NoBody),
		Request:    r,
	}
}

type recorded struct {
	path    string
	auth    []string
	headers http.Header
}

func recordingServer(t *testing.T) (*httptest.Server, chan recorded) {
	t.Helper()
	seen := make(chan recorded, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- recorded{path: r.URL.Path, auth: r.Header.Values(HeaderAuthorization), headers: r.Header.Clone()}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func newClient(t *testing.T, base string, store credential.Reader, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithInterceptor(Bearer(store))}, opts...)
	c, err := New(Config{BaseURL: base, Timeout: 5 * time.Second}, opts...)
	require.NoError(t, err)
	return c
}

func send(t *testing.T, c *Client, req *http.Request) {
	t.Helper()
	resp, err := c.Do(req)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	require.NoError(t, resp.Body.Close())
}

func TestCredentialPresentSetsBearerHeader(t *testing.T) {
	srv, seen := recordingServer(t)
	c := newClient(t, srv.URL, credential.NewMemory("abc123"))

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/users", nil)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/users", req.URL.String())

	send(t, c, req)

	got := <-seen
	assert.Equal(t, "/users", got.path)
	assert.Equal(t, []string{"Bearer abc123"}, got.auth, "exactly one Authorization value")
}

func TestCredentialAbsentLeavesHeadersAlone(t *testing.T) {
	srv, seen := recordingServer(t)
	c := newClient(t, srv.URL, credential.NewMemory(""))

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/public", nil)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/public", req.URL.String())

	send(t, c, req)

	got := <-seen
	assert.Equal(t, "/public", got.path)
	assert.Empty(t, got.auth)
}

func TestCredentialAbsentPreservesCallerAuthorization(t *testing.T) {
	srv, seen := recordingServer(t)
	c := newClient(t, srv.URL, credential.NewMemory(""))

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/public", nil)
	require.NoError(t, err)
	req.Header.Set(HeaderAuthorization, "Basic dXNlcjpwYXNz")

	send(t, c, req)

	assert.Equal(t, []string{"Basic dXNlcjpwYXNz"}, (<-seen).auth)
}

func TestCredentialPresentOverwritesCallerAuthorization(t *testing.T) {
	srv, seen := recordingServer(t)
	c := newClient(t, srv.URL, credential.NewMemory("abc123"))

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/users", nil)
	require.NoError(t, err)
	req.Header.Add(HeaderAuthorization, "Bearer stale")
	req.Header.Add(HeaderAuthorization, "Bearer staler")

	send(t, c, req)

	assert.Equal(t, []string{"Bearer abc123"}, (<-seen).auth)
}

func TestBearerIsIdempotent(t *testing.T) {
	ic := Bearer(credential.NewMemory("abc123"))
	req := httptest.NewRequest(http.MethodGet, "http://api.test/users", nil)

	once, err := ic.OnRequest(req)
	require.NoError(t, err)
	first := once.Header.Values(HeaderAuthorization)

	twice, err := ic.OnRequest(once)
	require.NoError(t, err)
	assert.Equal(t, first, twice.Header.Values(HeaderAuthorization))
	assert.Equal(t, []string{"Bearer abc123"}, twice.Header.Values(HeaderAuthorization))
}

func TestBearerFollowsCredentialChanges(t *testing.T) {
	srv, seen := recordingServer(t)
	store := credential.NewMemory("")
	c := newClient(t, srv.URL, store)

	for _, token := range []string{"", "first", "second", ""} {
		if token == "" {
			store.Clear()
		} else {
			store.Set(token)
		}
		req, err := c.NewRequest(context.Background(), http.MethodGet, "/me", nil)
		require.NoError(t, err)
		send(t, c, req)

		got := <-seen
		if token == "" {
			assert.Empty(t, got.auth)
		} else {
			assert.Equal(t, []string{"Bearer " + token}, got.auth)
		}
	}
}

func TestTransportDoesNotModifyCallerRequest(t *testing.T) {
	tr := NewTransport(roundTripFunc(func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "Bearer abc123", r.Header.Get(HeaderAuthorization))
		return okResponse(r), nil
	}), Bearer(credential.NewMemory("abc123")))

	req := httptest.NewRequest(http.MethodGet, "http://api.test/users", nil)
	_, err := tr.RoundTrip(req)
	require.NoError(t, err)
	assert.Empty(t, req.Header.Get(HeaderAuthorization))
}

func TestTransportErrorIdentity(t *testing.T) {
	netErr := errors.New("connection reset by peer")
	base := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, netErr })

	tr := NewTransport(base, Bearer(credential.NewMemory("abc123")))
	_, err := tr.RoundTrip(httptest.NewRequest(http.MethodGet, "http://api.test/users", nil))
	assert.True(t, err == netErr, "transport must return the same error value, got %v", err)

	c := newClient(t, "http://api.test", credential.NewMemory("abc123"), WithTransport(base))
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/users", nil)
	require.NoError(t, err)
	resp, err := c.Do(req)
	assert.Nil(t, resp)
	assert.True(t, err == netErr, "client must return the transport error itself, got %v", err)
}

type failingReader struct{ err error }

func (f failingReader) Read(context.Context) (string, bool, error) { return "", false, f.err }

func TestInterceptorFailureRunsErrorHooks(t *testing.T) {
	storeErr := errors.New("redis: connection refused")
	var sent atomic.Bool
	var hooked []string

	observe := Interceptor{
		Name:    "observe",
		OnError: func(err error) error { hooked = append(hooked, err.Error()); return err },
	}
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		sent.Store(true)
		return okResponse(r), nil
	})

	c, err := New(Config{BaseURL: "http://api.test", Timeout: time.Second},
		WithTransport(base),
		WithInterceptor(Bearer(failingReader{err: storeErr}), observe))
	require.NoError(t, err)

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/users", nil)
	require.NoError(t, err)
	_, err = c.Do(req)

	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, sent.Load(), "request must not be transmitted")
	assert.Len(t, hooked, 1)
}

func TestInterceptorsRunInRegistrationOrder(t *testing.T) {
	tag := func(name string) Interceptor {
		return Interceptor{Name: name, OnRequest: func(r *http.Request) (*http.Request, error) {
			r.Header.Add("X-Stage", name)
			return r, nil
		}}
	}
	var stages []string
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		stages = r.Header.Values("X-Stage")
		return okResponse(r), nil
	})

	c, err := New(Config{BaseURL: "http://api.test", Timeout: time.Second},
		WithTransport(base), WithInterceptor(tag("first"), tag("second")), WithInterceptor(tag("third")))
	require.NoError(t, err)

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/", nil)
	require.NoError(t, err)
	send(t, c, req)

	assert.Equal(t, []string{"first", "second", "third"}, stages)
	assert.Equal(t, []string{"first", "second", "third"}, c.Interceptors())
}

func TestDefaultTimeoutApplies(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		deadline, hasDeadline = r.Context().Deadline()
		return okResponse(r), nil
	})

	c, err := New(Config{BaseURL: "http://api.test", Timeout: 3 * time.Second}, WithTransport(base))
	require.NoError(t, err)

	before := time.Now()
	req, err := c.NewRequest(context.Background(), http.MethodGet, "/users", nil)
	require.NoError(t, err)
	send(t, c, req)

	require.True(t, hasDeadline)
	assert.WithinDuration(t, before.Add(3*time.Second), deadline, time.Second)
}

func TestCallerDeadlineOverridesDefault(t *testing.T) {
	var deadline time.Time
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		deadline, _ = r.Context().Deadline()
		return okResponse(r), nil
	})

	c, err := New(Config{BaseURL: "http://api.test", Timeout: 3 * time.Second}, WithTransport(base))
	require.NoError(t, err)

	want := time.Now().Add(time.Minute)
	ctx, cancel := context.WithDeadline(context.Background(), want)
	defer cancel()

	req, err := c.NewRequest(ctx, http.MethodGet, "/users", nil)
	require.NoError(t, err)
	send(t, c, req)

	assert.True(t, deadline.Equal(want))
}

func TestDefaultTimeoutBoundsRequest(t *testing.T) {
	base := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	})

	c, err := New(Config{BaseURL: "http://api.test", Timeout: 20 * time.Millisecond}, WithTransport(base))
	require.NoError(t, err)

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/slow", nil)
	require.NoError(t, err)
	_, err = c.Do(req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoResolvesRelativeRequest(t *testing.T) {
	srv, seen := recordingServer(t)
	c := newClient(t, srv.URL+"/", credential.NewMemory("abc123"))

	req, err := http.NewRequest(http.MethodGet, "/users", nil)
	require.NoError(t, err)
	send(t, c, req)

	got := <-seen
	assert.Equal(t, "/users", got.path)
	assert.Equal(t, []string{"Bearer abc123"}, got.auth)
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://api.test", "/users", "http://api.test/users"},
		{"http://api.test/", "/users", "http://api.test/users"},
		{"http://api.test/", "users", "http://api.test/users"},
		{"http://api.test/v1", "/users?name=a", "http://api.test/v1/users?name=a"},
		{"http://api.test", "", "http://api.test"},
		{"http://api.test", "https://other.test/x", "https://other.test/x"},
	}

	for _, tt := range tests {
		c, err := New(Config{BaseURL: tt.base, Timeout: time.Second})
		require.NoError(t, err)
		assert.Equal(t, tt.want, c.ResolveURL(tt.path), "base=%s path=%s", tt.base, tt.path)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{BaseURL: "http://localhost:8000", Timeout: time.Second}, true},
		{"missing base", Config{Timeout: time.Second}, false},
		{"not a url", Config{BaseURL: "localhost", Timeout: time.Second}, false},
		{"zero timeout", Config{BaseURL: "http://localhost:8000"}, false},
		{"negative timeout", Config{BaseURL: "http://localhost:8000", Timeout: -time.Second}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCacheServesRepeatedGet(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		_, _ = io.WriteString(w, `{"total":7}`)
	}))
	t.Cleanup(srv.Close)

	c := newClient(t, srv.URL, credential.NewMemory("abc123"), WithCache())

	for i := 0; i < 2; i++ {
		req, err := c.NewRequest(context.Background(), http.MethodGet, "/api/total_stock", nil)
		require.NoError(t, err)
		send(t, c, req)
	}

	assert.Equal(t, int32(1), hits.Load())
}

func TestCacheIsScopedToCredential(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Cache-Control", "max-age=60")
		_, _ = io.WriteString(w, "data-for:"+r.Header.Get(HeaderAuthorization))
	}))
	t.Cleanup(srv.Close)

	store := credential.NewMemory("alice")
	c := newClient(t, srv.URL, store, WithCache())

	get := func() string {
		t.Helper()
		req, err := c.NewRequest(context.Background(), http.MethodGet, "/api/products", nil)
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	assert.Equal(t, "data-for:Bearer alice", get())
	assert.Equal(t, "data-for:Bearer alice", get())
	assert.Equal(t, int32(1), hits.Load())

	store.Clear()
	assert.Equal(t, "data-for:", get())
	assert.Equal(t, int32(2), hits.Load())

	store.Set("bob")
	assert.Equal(t, "data-for:Bearer bob", get())
	assert.Equal(t, int32(3), hits.Load())
}
