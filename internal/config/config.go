package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/stockfront/internal/credential"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // bound on each inbound console request

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Inventory API
	APIBaseURL string        // ex: "http://localhost:8000"
	APITimeout time.Duration // default outbound timeout, overridable per request
	APICache   bool          // cache GET responses honouring HTTP caching headers

	// Credential store
	TokenKey          string             // fixed key the bearer token lives under
	CredentialBackend credential.Backend // "file" | "redis"
	CredentialFile    string             // JSON document for the file backend

	RoutesFile string // optional YAML route table, empty = no routes

	// Redis, only read when CredentialBackend is redis
	RedisAddr             string        // ex: "localhost:6379"
	RedisUser             string        // optional
	RedisPassword         string        // optional
	RedisPasswordRequired bool          // true => require password, false => allow empty password
	RedisDB               int           // Redis DB number
	RedisDT               time.Duration // Redis dial timeout (ex: 5s)
	RedisRT               time.Duration // Redis read timeout (ex: 3s)
	RedisWT               time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait          time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout      time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize         int           // Redis connection pool size
	RedisConnectTimeout   time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval    time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold    int           // warn after this many attempts

	AllowedCIDRS []string // optional, restrict the operational endpoints to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	RateLimitBurst     int // page loads a client may burst, 0 disables limiting
	RateLimitPerMinute int // sustained page loads per client per minute
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("STOCKFRONT_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("STOCKFRONT_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("STOCKFRONT_REQUEST_TIMEOUT", 15*time.Second),

		// Logging
		LogLevel:  getenv("STOCKFRONT_LOG_LEVEL", "info"),
		PrettyLog: mustBool("STOCKFRONT_PRETTY_LOG", true),

		// Inventory API
		APIBaseURL: requireEnv("STOCKFRONT_API_BASE_URL"),
		APITimeout: mustDuration("STOCKFRONT_API_TIMEOUT", 10*time.Second),
		APICache:   mustBool("STOCKFRONT_API_CACHE", false),

		// Credentials
		TokenKey:          getenv("STOCKFRONT_TOKEN_KEY", credential.DefaultKey),
		CredentialBackend: mustBackend("STOCKFRONT_CREDENTIAL_BACKEND", credential.BackendFile),
		CredentialFile:    getenv("STOCKFRONT_CREDENTIAL_FILE", "/app/storage.json"),

		RoutesFile: getenv("STOCKFRONT_ROUTES_FILE", ""),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("STOCKFRONT_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("STOCKFRONT_TRUST_PROXY", false),

		RateLimitBurst:     getenvInt("STOCKFRONT_RATE_LIMIT_BURST", 30),
		RateLimitPerMinute: getenvInt("STOCKFRONT_RATE_LIMIT_PER_MIN", 120),
	}

	if cfg.CredentialBackend == credential.BackendRedis {
		loadRedis(cfg)
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.RedisUser != "" {
			cfgCopy.RedisUser = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

func loadRedis(cfg *Config) {
	cfg.RedisAddr = requireEnv("STOCKFRONT_REDIS_ADDR")
	cfg.RedisUser = getenv("STOCKFRONT_REDIS_USERNAME", "default")
	cfg.RedisPasswordRequired = mustBool("STOCKFRONT_REDIS_PASSWORD_REQUIRED", true)
	cfg.RedisPassword = getenv("STOCKFRONT_REDIS_PASSWORD", "")
	cfg.RedisDB = requireEnvInt("STOCKFRONT_REDIS_DB")
	cfg.RedisDT = mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second)
	cfg.RedisRT = mustDuration("REDIS_READ_TIMEOUT", 3*time.Second)
	cfg.RedisWT = mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second)
	cfg.RedisMaxWait = mustDuration("REDIS_MAX_WAIT", 10*time.Second)
	cfg.RedisPingTimeout = mustDuration("REDIS_PING_TIMEOUT", 5*time.Second)
	cfg.RedisPoolSize = getenvInt("REDIS_POOL_SIZE", 10)
	cfg.RedisConnectTimeout = mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second)
	cfg.RedisRetryInterval = mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second)
	cfg.RedisWarnThreshold = getenvInt("REDIS_WARN_THRESHOLD", 3)

	if cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: STOCKFRONT_REDIS_PASSWORD is required when STOCKFRONT_REDIS_PASSWORD_REQUIRED=true")
	}
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func requireEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid integer value for %s: %s", key, v))
	}
	return i
}

// mustBackend panics on an unknown backend name rather than using def.
func mustBackend(key string, def credential.Backend) credential.Backend {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := credential.ParseBackend(v)
	if err != nil {
		panic(fmt.Sprintf("❌ FATAL: Invalid value for %s: %v", key, err))
	}
	return b
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
