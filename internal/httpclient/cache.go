package httpclient

import (
	"net/http"
	"sync"

	"github.com/gregjones/httpcache"
)

// credentialCache is an in-memory RFC 7234 cache scoped to one Authorization
// value. httpcache keys entries by URL alone, so the whole cache is dropped
// as soon as a request carries a different Authorization value (including
// none at all) than the one it was filled under.
type credentialCache struct {
	base http.RoundTripper

	mu    sync.Mutex
	auth  string
	cache *httpcache.Transport
}

func newCredentialCache(base http.RoundTripper) *credentialCache {
	return &credentialCache{base: base}
}

func (c *credentialCache) RoundTrip(req *http.Request) (*http.Response, error) {
	return c.forAuth(req.Header.Get(HeaderAuthorization)).RoundTrip(req)
}

func (c *credentialCache) forAuth(auth string) *httpcache.Transport {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache == nil || c.auth != auth {
		ct := httpcache.NewMemoryCacheTransport()
		ct.Transport = c.base
		c.cache = ct
		c.auth = auth
	}
	return c.cache
}
