package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/stockfront/internal/config"
	"github.com/MrSnakeDoc/stockfront/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stockfront/internal/httpserver/mw"
	"github.com/MrSnakeDoc/stockfront/internal/httpserver/routes"
	"github.com/MrSnakeDoc/stockfront/internal/logger"
)

// Server is the console: operational endpoints plus the navigation router.
type Server struct {
	http   *http.Server
	logger logger.Logger
}

// NewRouter builds the handler tree. Operational routes are registered
// first; every other path falls through to d.Navigation.
func NewRouter(cfg *config.Config, d deps.Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(mw.Log(d.Logger.Named("http")))

	routes.RegisterAll(r, d)

	if d.Navigation != nil {
		limit := mw.RateLimit(mw.RateLimitConfig{
			Burst:      cfg.RateLimitBurst,
			PerMinute:  cfg.RateLimitPerMinute,
			TrustProxy: cfg.TrustProxy,
		})
		r.Mount("/", limit(d.Navigation))
	}
	return r
}

func New(cfg *config.Config, d deps.Deps) *Server {
	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           NewRouter(cfg, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{http: s, logger: d.Logger}
}

// Handler returns the root handler, for tests that drive it in process.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start serves on the configured address until Stop is called.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln. A graceful shutdown returns nil.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("HTTP server listening", logger.String("addr", ln.Addr().String()))
	if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
