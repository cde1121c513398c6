package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"presence-service/internal/handler"
	"presence-service/internal/middleware"
)

// Config carries the wired handlers and middleware dependencies
type Config struct {
	Logger          *zap.Logger
	Env             string
	BasePath        string
	CORSOrigins     string
	Validator       middleware.TokenValidator
	WSHandler       *handler.WSHandler
	PresenceHandler *handler.PresenceHandler
	HealthHandler   *handler.HealthHandler
}

// Setup builds the gin engine with middleware and routes
func Setup(cfg Config) *gin.Engine {
	if cfg.Env == "production" || cfg.Env == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.MetricsMiddleware())

	// Health and metrics (no auth)
	r.GET("/health", cfg.HealthHandler.Health)
	r.GET("/ready", cfg.HealthHandler.Ready)
	r.GET("/metrics", middleware.MetricsHandler())

	// User-status WebSocket; identity comes from the userId query parameter
	// and origins are unrestricted, so no auth middleware here
	r.GET("/ws/user-status", cfg.WSHandler.HandleUserStatus)

	// API routes with base path
	api := r.Group(cfg.BasePath)
	{
		api.GET("/health", cfg.HealthHandler.Health)
		api.GET("/ready", cfg.HealthHandler.Ready)

		// Authenticated reporting routes
		authenticated := api.Group("")
		authenticated.Use(middleware.AuthMiddleware(cfg.Validator))
		{
			authenticated.GET("/online", cfg.PresenceHandler.GetOnlineUsers)
			authenticated.GET("/status/:userId", cfg.PresenceHandler.GetUserStatus)
		}
	}

	return r
}
