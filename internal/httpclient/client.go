// Package httpclient is the outbound HTTP layer: a client built from an
// explicit Config whose transport runs a fixed interceptor chain (bearer
// authentication in production) before each request is sent.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MrSnakeDoc/stockfront/internal/logger"
	"github.com/MrSnakeDoc/stockfront/internal/utils"
)

// Client issues requests against Config.BaseURL.
type Client struct {
	cfg       Config
	http      *http.Client
	transport *Transport
	log       logger.Logger
}

type options struct {
	base         http.RoundTripper
	interceptors []Interceptor
	cache        bool
	log          logger.Logger
}

// Option customises New.
type Option func(*options)

// WithInterceptor appends stages to the outbound pipeline. Stages run in
// the order they are given.
func WithInterceptor(ics ...Interceptor) Option {
	return func(o *options) { o.interceptors = append(o.interceptors, ics...) }
}

// WithTransport replaces the base RoundTripper (http.DefaultTransport).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithCache inserts an in-memory RFC 7234 cache beneath the interceptors.
// Cached responses are only served back under the Authorization value they
// were fetched with.
func WithCache() Option {
	return func(o *options) { o.cache = true }
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New validates cfg and builds a client. Interceptors are installed here
// and stay installed for the lifetime of the client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	base := o.base
	if base == nil {
		base = http.DefaultTransport
	}
	if o.cache {
		base = newCredentialCache(base)
	}

	transport := NewTransport(base, o.interceptors...)

	return &Client{
		cfg:       cfg,
		http:      &http.Client{Transport: transport},
		transport: transport,
		log:       o.log,
	}, nil
}

// Config returns the defaults the client was built with.
func (c *Client) Config() Config { return c.cfg }

// Interceptors returns the names of the installed pipeline stages.
func (c *Client) Interceptors() []string { return c.transport.Interceptors() }

// ResolveURL joins a relative path onto the base URL. Absolute URLs are
// returned untouched and an empty path resolves to the base URL itself.
func (c *Client) ResolveURL(path string) string {
	if isAbsolute(path) {
		return path
	}
	if path == "" {
		return c.cfg.BaseURL
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// NewRequest builds a request for path relative to the base URL.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.ResolveURL(path), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// NewJSONRequest is NewRequest with v encoded as the JSON body.
func (c *Client) NewJSONRequest(ctx context.Context, method, path string, v any) (*http.Request, error) {
	var body io.Reader
	if v != nil {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.NewRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if v != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Do sends req through the interceptor pipeline.
//
// A relative req.URL is resolved against the base URL. When the request
// context has no deadline the configured timeout applies; the timer is
// released when the response body is closed. A failed request returns the
// transport's error itself, without the *url.Error wrapper net/http adds.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	cancel := context.CancelFunc(func() {})
	if _, ok := ctx.Deadline(); !ok {
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
	}

	out := req.WithContext(ctx)
	if !out.URL.IsAbs() {
		u, err := url.Parse(c.ResolveURL(out.URL.String()))
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to resolve request URL: %w", err)
		}
		out.URL = u
		out.Host = u.Host
	}

	start := time.Now()
	resp, err := c.http.Do(out)
	if err != nil {
		cancel()
		err = unwrapURLError(err)
		c.log.Debug("api request failed",
			logger.String("method", out.Method),
			logger.String("url", out.URL.Redacted()),
			logger.Duration("duration", time.Since(start)),
			logger.Error(err))
		return nil, err
	}

	c.log.Debug("api request",
		logger.String("method", out.Method),
		logger.String("url", out.URL.Redacted()),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	resp.Body = &utils.CancelOnClose{ReadCloser: resp.Body, Cancel: cancel}
	return resp, nil
}

func isAbsolute(path string) bool {
	u, err := url.Parse(path)
	return err == nil && u.IsAbs()
}

func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err
	}
	return err
}
