package app

import (
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/middleware"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/modules/auth"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/modules/insight"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/modules/meeting"
	pkgredis "github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/pkg/redis"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	r.GET("/", func(c *gin.Context) {
		response.OK(c, gin.H{
			"name": "wisdom-meeting-assistant",
			"env":  a.cfg.Env,
		})
	})
	r.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(rc.Raw()))

	meetingService := meeting.NewService(db)
	gateway := insight.NewGatewayClient(a.cfg.Gateway, a.logger)
	workflowManager := insight.NewManager(meetingService, gateway, a.logger)

	authService := auth.NewService(db)
	auth.NewHandler(authService, workflowManager.Drop).RegisterRoutes(api, authMW)

	meeting.NewHandler(meetingService, a.logger).RegisterRoutes(api, authMW)
	insight.NewHandler(workflowManager, a.logger).RegisterRoutes(api, authMW)
}
