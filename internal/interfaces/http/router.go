// Package http wires the gin ops API: the sync progress and health
// surface, the runtime configuration editor and the manual triggers.
package http

import (
	"github.com/gin-gonic/gin"

	"vossync/internal/interfaces/http/handlers"
	"vossync/internal/interfaces/http/middleware"
	sharedConfig "vossync/internal/shared/config"
	"vossync/internal/shared/logger"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Status *handlers.StatusHandler
	Sync   *handlers.SyncHandler
	Config *handlers.ConfigHandler
	Auth   *middleware.AuthMiddleware
	Logger logger.Interface
	Server *sharedConfig.ServerConfig
}

// NewRouter builds the gin engine. Read-only routes are open; mutating
// routes sit behind the bearer token middleware.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Server != nil && deps.Server.Mode != "" {
		gin.SetMode(deps.Server.Mode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(deps.Logger))
	if deps.Server != nil && len(deps.Server.AllowedOrigins) > 0 {
		engine.Use(middleware.CORS(deps.Server.AllowedOrigins))
	}

	engine.GET("/api/health", deps.Status.Liveness)

	syncGroup := engine.Group("/api/sync")
	{
		syncGroup.GET("/progress", deps.Sync.GetProgress)
		syncGroup.GET("/health", deps.Sync.GetHealthSummary)
		syncGroup.GET("/config", deps.Config.GetConfig)
	}

	protected := engine.Group("/api/sync", deps.Auth.RequireAuth())
	{
		protected.POST("/config", deps.Config.UpdateConfig)
		protected.POST("/manual/cdr", deps.Sync.TriggerCDRSync)
		protected.POST("/manual/customer", deps.Sync.TriggerCustomerSync)
		protected.POST("/manual/reports", deps.Sync.TriggerReportSync)
	}

	return engine
}
