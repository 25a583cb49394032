package api

import (
	"time"

	"nutrition-tracker/internal/api/middleware"
	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, app *App) *gin.Engine {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	// 健康檢查路由
	router.GET("/health", app.Health.HealthCheck)
	router.GET("/ready", app.Health.ReadinessCheck)
	router.GET("/live", app.Health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)))
	}
	api.Use(middleware.Deduplication(middleware.NewDeduplicator(cfg.DedupWindow)))
	api.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	h := app.Nutrition
	nutritionGroup := api.Group("/nutrition")
	{
		nutritionGroup.POST("/identify-dish", h.IdentifyDish)
		nutritionGroup.POST("/chat", h.Chat)
		nutritionGroup.POST("/meal-plan", h.Chat)
		nutritionGroup.POST("/scan-barcode", h.ScanBarcode)
		nutritionGroup.POST("/scan-meal", h.ScanMeal)
		nutritionGroup.POST("/search-food", h.SearchFood)
		nutritionGroup.POST("/voice-log", h.VoiceLog)
	}

	planGroup := api.Group("/meal-plan")
	{
		planGroup.POST("/handoff", h.CreateHandoff)
		planGroup.GET("/handoff/:token", h.ConsumeHandoff)
	}

	api.POST("/diary/entries", h.LogEntries)
	api.GET("/diary", h.Diary)

	common.LogInfo("Router setup completed",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_bytes", cfg.Server.MaxBodyBytes),
	)
	return router
}
