package api

import (
	"context"
	"fmt"
	"time"

	"nutrition-tracker/internal/api/handlers/health"
	nutritionHandler "nutrition-tracker/internal/api/handlers/nutrition"
	"nutrition-tracker/internal/core/ai/openai"
	"nutrition-tracker/internal/core/ai/provider"
	"nutrition-tracker/internal/core/ai/service"
	"nutrition-tracker/internal/core/cache"
	"nutrition-tracker/internal/core/diary"
	"nutrition-tracker/internal/core/handoff"
	"nutrition-tracker/internal/core/image"
	"nutrition-tracker/internal/core/nutrition"
	"nutrition-tracker/internal/core/product"
	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/pkg/common"

	"go.uber.org/zap"
)

// App 組裝完成的服務與處理器
type App struct {
	Nutrition *nutritionHandler.Handler
	Health    *health.Handler

	closers []func() error
}

// Close 依建立的相反順序釋放資源
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewApp 依設定建立所有服務，使用 OpenAI 相容後端
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	return NewAppWithProvider(ctx, cfg, openai.NewClient(cfg.OpenAI))
}

// NewAppWithProvider 以指定的生成後端建立所有服務
func NewAppWithProvider(ctx context.Context, cfg *config.Config, p provider.Provider) (*App, error) {
	app := &App{}
	healthDeps := health.Dependencies{
		Version: cfg.App.Version,
		Caches:  map[string]health.StatsReporter{},
		Pingers: map[string]health.Pinger{},
	}

	// 商品快取與交接儲存：Redis 開啟時共用 Redis，否則使用記憶體
	var productStore, handoffStore cache.Store
	if cfg.Redis.Enabled {
		ps, err := cache.NewRedisStore(ctx, cfg.Redis, "product", cfg.OFF.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize product cache: %w", err)
		}
		app.closers = append(app.closers, ps.Close)

		hs, err := cache.NewRedisStore(ctx, cfg.Redis, "handoff", cfg.Handoff.TTL)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to initialize handoff store: %w", err)
		}
		app.closers = append(app.closers, hs.Close)

		productStore, handoffStore = ps, hs
		healthDeps.HandoffBackend = "redis"
		healthDeps.Pingers["redis"] = hs
	} else {
		productStore = newMemoryStore(cfg, "product", cfg.OFF.CacheTTL)
		handoffStore = newMemoryStore(cfg, "handoff", cfg.Handoff.TTL)
		app.closers = append(app.closers, productStore.Close, handoffStore.Close)
		healthDeps.HandoffBackend = "memory"
	}
	healthDeps.Caches["product"] = productStore
	healthDeps.Caches["handoff"] = handoffStore

	// 食物搜尋回應快取
	var aiCache cache.Store
	if cfg.Cache.Enabled && cfg.Cache.SearchResults {
		aiCache = newMemoryStore(cfg, "ai", cfg.Cache.TTL)
		app.closers = append(app.closers, aiCache.Close)
		healthDeps.Caches["ai"] = aiCache
	}

	aiService, err := service.NewService(cfg, p, aiCache)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to initialize AI service: %w", err)
	}
	app.closers = append(app.closers, aiService.Close)
	healthDeps.Configured = aiService.Configured

	var mirror image.Mirror = image.NoopMirror{}
	if cfg.Storage.S3.Enabled {
		s3Mirror, err := image.NewS3Mirror(ctx, cfg.Storage.S3, cfg.Image.MaxSizeBytes)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("failed to initialize S3 mirror: %w", err)
		}
		mirror = s3Mirror
	}

	images := image.NewService(cfg.Image.MaxSizeBytes)
	nutritionSvc := nutrition.NewService(
		nutrition.NewNormalizer(images),
		nutrition.NewEngine(aiService, mirror),
		product.NewClient(cfg.OFF, productStore),
		nutrition.Options{GenerateForScan: cfg.Image.GenerateForScan},
	)

	app.Nutrition = nutritionHandler.NewHandler(
		nutritionSvc,
		handoff.NewStore(handoffStore, cfg.Handoff.TTL),
		diary.New(diary.NewDispatcher()),
	)
	app.Health = health.NewHandler(healthDeps)

	common.LogInfo("服務初始化完成",
		zap.Bool("ai_configured", aiService.Configured()),
		zap.String("handoff_backend", healthDeps.HandoffBackend),
		zap.Bool("s3_mirror", cfg.Storage.S3.Enabled),
		zap.Bool("search_cache", aiCache != nil),
	)
	return app, nil
}

func newMemoryStore(cfg *config.Config, name string, ttl time.Duration) *cache.CacheManager {
	return cache.NewManager(cache.Options{
		Name:            name,
		MaxSize:         cfg.Cache.MaxSize,
		TTL:             ttl,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})
}
