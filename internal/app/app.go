package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/stockfront/internal/config"
	"github.com/MrSnakeDoc/stockfront/internal/credential"
	"github.com/MrSnakeDoc/stockfront/internal/httpclient"
	"github.com/MrSnakeDoc/stockfront/internal/httpserver"
	"github.com/MrSnakeDoc/stockfront/internal/httpserver/deps"
	"github.com/MrSnakeDoc/stockfront/internal/inventory"
	"github.com/MrSnakeDoc/stockfront/internal/logger"
	"github.com/MrSnakeDoc/stockfront/internal/navigation"
	"github.com/MrSnakeDoc/stockfront/internal/redis"
	"github.com/MrSnakeDoc/stockfront/internal/version"
	"github.com/MrSnakeDoc/stockfront/internal/views"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
}

// New wires the process: credential store, authenticated API client, view
// catalog, navigation router and console server, in that order.
func New(ctx context.Context) (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	store, redisClient, err := openCredentials(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}

	opts := []httpclient.Option{
		httpclient.WithInterceptor(httpclient.Bearer(store)),
		httpclient.WithLogger(loggerClient.Named("api")),
	}
	if cfg.APICache {
		opts = append(opts, httpclient.WithCache())
	}
	api, err := httpclient.New(httpclient.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.APITimeout}, opts...)
	if err != nil {
		closeRedis(redisClient, loggerClient)
		return nil, err
	}
	loggerClient.Info("api client ready",
		logger.String("base_url", cfg.APIBaseURL),
		logger.Duration("timeout", cfg.APITimeout),
		logger.Bool("cache", cfg.APICache))

	catalog := views.NewCatalog(inventory.New(api), loggerClient.Named("views"))

	table, err := navigation.LoadFile(cfg.RoutesFile)
	if err != nil {
		closeRedis(redisClient, loggerClient)
		return nil, err
	}
	nav, err := navigation.NewRouter(table, catalog, catalog.NotFound())
	if err != nil {
		closeRedis(redisClient, loggerClient)
		return nil, fmt.Errorf("failed to build navigation from %q: %w", cfg.RoutesFile, err)
	}
	if len(table) == 0 {
		loggerClient.Info("no navigation routes configured, every page is not found")
	} else {
		loggerClient.Info("navigation routes loaded", logger.Int("routes", len(table)))
	}

	d := deps.Deps{
		Logger:            loggerClient,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		AllowedCIDRS:      cfg.AllowedCIDRS,
		TrustProxy:        cfg.TrustProxy,
		Credentials:       store,
		CredentialBackend: cfg.CredentialBackend,
		RedisClient:       redisClient,
		APIBaseURL:        cfg.APIBaseURL,
		APITimeout:        cfg.APITimeout,
		Interceptors:      api.Interceptors(),
		RouteCount:        len(table),
		Navigation:        nav,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, d),
		redisClient: redisClient,
	}, nil
}

func openCredentials(ctx context.Context, cfg *config.Config, log logger.Logger) (credential.Reader, *goredis.Client, error) {
	switch cfg.CredentialBackend {
	case credential.BackendRedis:
		client, err := redis.Connect(ctx, redis.OptionsFromConfig(cfg), log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open redis credential store: %w", err)
		}
		log.Info("credential store ready",
			logger.String("backend", string(cfg.CredentialBackend)),
			logger.String("key", credential.RedisKey(cfg.TokenKey)))
		return credential.NewRedisStore(client, cfg.TokenKey), client, nil
	default:
		log.Info("credential store ready",
			logger.String("backend", string(cfg.CredentialBackend)),
			logger.String("file", cfg.CredentialFile),
			logger.String("key", cfg.TokenKey))
		return credential.NewFileStore(cfg.CredentialFile, cfg.TokenKey), nil, nil
	}
}

func closeRedis(client *goredis.Client, log logger.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		log.Warn("failed to close redis", logger.Error(err))
		return
	}
	log.Info("✅ Redis closed cleanly")
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives, then drains.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof("🚀 Starting stockfront %s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("stockfront %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeRedis(a.redisClient, a.logger)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ stockfront stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
