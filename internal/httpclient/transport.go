package httpclient

import (
	"net/http"
)

// Interceptor is one stage of the outbound request pipeline.
type Interceptor struct {
	// Name identifies the stage in logs.
	Name string
	// OnRequest receives the in-flight request and returns the request to
	// transmit. A nil return with a nil error keeps the request unchanged.
	OnRequest func(req *http.Request) (*http.Request, error)
	// OnError receives the error of a failed interception attempt. It must
	// return an error; a nil return keeps the incoming error.
	OnError func(err error) error
}

// PassThrough is an OnError hook that hands the error back unchanged.
func PassThrough(err error) error { return err }

// Transport runs a fixed chain of interceptors in registration order and
// then hands the request to the base RoundTripper.
type Transport struct {
	base         http.RoundTripper
	interceptors []Interceptor
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport builds the pipeline. The chain is copied; it cannot be
// changed after construction.
func NewTransport(base http.RoundTripper, interceptors ...Interceptor) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	chain := make([]Interceptor, len(interceptors))
	copy(chain, interceptors)
	return &Transport{base: base, interceptors: chain}
}

// RoundTrip clones req (a RoundTripper must not modify its argument), lets
// every interceptor mutate the clone, and transmits it. Errors from the base
// transport are returned as is.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if out.Header == nil {
		out.Header = make(http.Header)
	}

	for _, ic := range t.interceptors {
		if ic.OnRequest == nil {
			continue
		}
		next, err := ic.OnRequest(out)
		if err != nil {
			if req.Body != nil {
				_ = req.Body.Close()
			}
			return nil, t.reject(err)
		}
		if next != nil {
			out = next
		}
	}

	return t.base.RoundTrip(out)
}

// Interceptors returns the names of the installed stages, in order.
func (t *Transport) Interceptors() []string {
	names := make([]string, 0, len(t.interceptors))
	for _, ic := range t.interceptors {
		names = append(names, ic.Name)
	}
	return names
}

func (t *Transport) reject(err error) error {
	for _, ic := range t.interceptors {
		if ic.OnError == nil {
			continue
		}
		if next := ic.OnError(err); next != nil {
			err = next
		}
	}
	return err
}
