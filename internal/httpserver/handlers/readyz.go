package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/stockfront/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stockfront/internal/logger"
)

const probeTimeout = 2 * time.Second

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports whether the credential store can be read. A missing
// credential is still ready: pages then render as signed out.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		if _, _, err := d.Credentials.Read(ctx); err != nil {
			d.Logger.Warn("credential store not readable", logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Error: "credential store unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
