package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docvault-backend/internal/account"
	"docvault-backend/internal/documents"
	"docvault-backend/internal/flows"
	"docvault-backend/internal/gate"
	"docvault-backend/internal/identity"
	"docvault-backend/internal/settings"
	"docvault-backend/internal/shared/config"
	"docvault-backend/internal/shared/server/middleware"
	"docvault-backend/internal/shared/server/respond"
	"docvault-backend/internal/users"
)

// RouterDeps carries the wired handlers and the session-aware middleware
// dependencies. Bootstrap builds them; the router only arranges them.
type RouterDeps struct {
	Cfg      config.Config
	Sessions middleware.SessionChecker
	Gate     *gate.Registry

	Identity  *identity.Handler
	Google    *identity.GoogleService
	GateAPI   *gate.Handler
	Users     *users.Handler
	Settings  *settings.Handler
	Documents *documents.Handler
	Flows     *flows.Handler
	Account   *account.Handler
}

// unlockRule throttles PIN attempts: a small burst, then one try per two
// seconds per principal.
var unlockRule = middleware.RateLimitRule{Rate: 0.5, Burst: 5}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Cfg.CORSAllowOrigin),
		middleware.Auth(deps.Sessions),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				"UNLOCK": unlockRule,
			},
			GroupFor: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && c.Request.URL.Path == "/api/v1/session/unlock" {
					return "UNLOCK"
				}
				return ""
			},
		}),
		gate.RequireUnlocked(deps.Gate),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	deps.Identity.Register(api)
	if deps.Google != nil {
		deps.Google.Register(api)
	}
	deps.GateAPI.Register(api)
	deps.Users.Register(api)
	deps.Settings.Register(api)
	deps.Documents.Register(api)
	deps.Flows.Register(api)
	deps.Account.Register(api)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
