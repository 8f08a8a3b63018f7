package httpclient

import (
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/stockfront/internal/credential"
)

const (
	HeaderAuthorization = "Authorization"
	BearerPrefix        = "Bearer "
)

// Bearer returns the interceptor that authenticates every outbound request
// with the credential held by reader.
//
// When a credential is present the Authorization header is set to
// "Bearer <credential>", replacing any earlier value. When it is absent the
// headers are left exactly as the caller built them.
func Bearer(reader credential.Reader) Interceptor {
	return Interceptor{
		Name: "bearer",
		OnRequest: func(req *http.Request) (*http.Request, error) {
			token, ok, err := reader.Read(req.Context())
			if err != nil {
				return nil, fmt.Errorf("bearer: %w", err)
			}
			if ok {
				req.Header.Set(HeaderAuthorization, BearerPrefix+token)
			}
			return req, nil
		},
		OnError: PassThrough,
	}
}
