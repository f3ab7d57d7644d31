package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"linktrack/api/handler"
	"linktrack/api/middleware"
	"linktrack/config"
	"linktrack/internal/scheduler"
	"linktrack/internal/service"
)

// SetupRouter 设置API路由
func SetupRouter(cfg *config.Config, services *service.Services, sched *scheduler.Scheduler) *gin.Engine {
	router := gin.New()
	// 添加中间件
	router.Use(middleware.Logger())
	router.Use(middleware.Cors())
	router.Use(middleware.Recovery())

	// 公开的追踪端点，访客直接访问，不需要认证
	router.GET("/t/:shortCode", handler.TrackClick(services.Track))
	router.GET("/p/:shortCode", handler.TrackPixel(services.Track))
	router.POST("/track/page-landed", handler.PageLanded(services.Track))
	router.POST("/capture", handler.CaptureLead(services.Track))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	webGroup := router.Group("/web/api")
	webAuthMiddleware := middleware.Auth(cfg.Token)
	webGroup.Use(webAuthMiddleware)
	{
		// 实时访问事件推送
		webGroup.GET("/live", handler.LiveFeed(services.Bus))

		// 反爬虫引擎状态与名单管理
		webGroup.GET("/antibot/stats", handler.GetAntiBotStats(services.Engine))
		webGroup.POST("/antibot/whitelist", handler.AddWhitelist(services.Engine))
		webGroup.POST("/antibot/blacklist", handler.AddBlacklist(services.Engine))

		// 调度器状态API
		webGroup.GET("/scheduler_status", func(c *gin.Context) {
			c.JSON(http.StatusOK, sched.GetStatus())
		})
	}

	return router
}
