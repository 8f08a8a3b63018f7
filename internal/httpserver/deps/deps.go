package deps

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/stockfront/internal/credential"
	"github.com/MrSnakeDoc/stockfront/internal/logger"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string

	AllowedCIDRS []string // IPs allowed on the operational endpoints
	TrustProxy   bool     // resolve client IPs from proxy headers

	Credentials       credential.Reader
	CredentialBackend credential.Backend
	RedisClient       *redis.Client // nil unless the redis backend is active

	APIBaseURL   string
	APITimeout   time.Duration
	Interceptors []string // outbound pipeline stages, in order

	RouteCount int
	Navigation http.Handler // serves every path no operational route claims
}
