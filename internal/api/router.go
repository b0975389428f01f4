package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/badursun/Roqua-sub000/internal/config"
	"github.com/badursun/Roqua-sub000/internal/handler"
	"github.com/badursun/Roqua-sub000/internal/metrics"
	"github.com/badursun/Roqua-sub000/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Fix         *handler.FixHandler
	Region      *handler.RegionHandler
	Exploration *handler.ExplorationHandler
	Achievement *handler.AchievementHandler
	Admin       *handler.AdminHandler
}

// SetupRouter 设置路由. limiter may be nil to disable rate limiting.
func SetupRouter(cfg *config.Config, h Handlers, limiter *middleware.RateLimiter, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Logger(logger), gin.Recovery())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Roqua exploration API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API 路由组
	api := r.Group("/api/v1")
	if limiter != nil {
		api.Use(middleware.RateLimit(limiter))
	}
	{
		fixes := api.Group("/fixes")
		{
			fixes.POST("", h.Fix.Submit)
			fixes.POST("/batch", h.Fix.SubmitBatch)
		}

		regions := api.Group("/regions")
		{
			regions.GET("", h.Region.ListRegions)
			regions.GET("/stats", h.Region.GetStats)
		}

		coverage := api.Group("/coverage")
		{
			coverage.GET("", h.Exploration.GetCoverage)
			coverage.GET("/cells", h.Exploration.GetCells)
		}
		api.GET("/summary", h.Exploration.GetSummary)
		api.GET("/settings", h.Exploration.GetSettings)

		achievements := api.Group("/achievements")
		{
			achievements.GET("", h.Achievement.ListAchievements)
			achievements.GET("/recent", h.Achievement.GetRecent)
			achievements.GET("/:id", h.Achievement.GetAchievement)
		}

		// 管理接口
		admin := api.Group("/admin")
		admin.Use(middleware.RequireRole(cfg.JWTSecret, middleware.RoleAdmin))
		{
			admin.POST("/achievements/recompute", h.Admin.Recompute)
			admin.POST("/reset", h.Admin.Reset)
			admin.PUT("/settings", h.Admin.UpdateSettings)
		}
	}

	return r
}
