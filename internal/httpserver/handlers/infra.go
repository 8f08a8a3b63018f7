package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/stockfront/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode         string                     `json:"mode"`
	APIBaseURL   string                     `json:"api_base_url"`
	APITimeout   string                     `json:"api_timeout"`
	Interceptors []string                   `json:"interceptors"`
	Routes       int                        `json:"routes"`
	Components   map[string]componentStatus `json:"components"`
}

// Infra describes the wiring of the running process. The credential value
// itself is never reported, only whether one is stored.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		components := map[string]componentStatus{
			"credential": checkCredential(ctx, d),
		}
		if d.RedisClient != nil {
			components["redis"] = checkRedis(ctx, d)
		}

		interceptors := d.Interceptors
		if interceptors == nil {
			interceptors = []string{}
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:         determineMode(components),
			APIBaseURL:   d.APIBaseURL,
			APITimeout:   d.APITimeout.String(),
			Interceptors: interceptors,
			Routes:       d.RouteCount,
			Components:   components,
		})
	}
}

// determineMode is "unavailable" when the credential store cannot be read,
// "anonymous" when it holds nothing and "authenticated" otherwise.
func determineMode(components map[string]componentStatus) string {
	cred := components["credential"]
	switch {
	case !cred.OK:
		return "unavailable"
	case cred.Detail != "present":
		return "anonymous"
	default:
		return "authenticated"
	}
}

func checkCredential(ctx context.Context, d deps.Deps) componentStatus {
	_, ok, err := d.Credentials.Read(ctx)
	if err != nil {
		return componentStatus{OK: false, Mode: string(d.CredentialBackend), Error: err.Error()}
	}
	detail := "absent"
	if ok {
		detail = "present"
	}
	return componentStatus{OK: true, Mode: string(d.CredentialBackend), Detail: detail}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true, Detail: d.RedisClient.Options().Addr}
}
