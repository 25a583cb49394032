package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"nutrition-tracker/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger 可檢查連線的外部依賴（例如 Redis）
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatsReporter 提供統計資訊的元件
type StatsReporter interface {
	Stats() map[string]interface{}
}

// Dependencies 健康檢查所需的元件
type Dependencies struct {
	Version        string
	Configured     func() bool
	Caches         map[string]StatsReporter
	HandoffBackend string
	Pingers        map[string]Pinger
}

// Handler 健康檢查處理器
type Handler struct {
	deps    Dependencies
	started time.Time
}

// NewHandler 創建健康檢查處理器
func NewHandler(deps Dependencies) *Handler {
	return &Handler{deps: deps, started: time.Now()}
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status         string                            `json:"status"`
	Timestamp      time.Time                         `json:"timestamp"`
	Version        string                            `json:"version"`
	Uptime         string                            `json:"uptime"`
	AIConfigured   bool                              `json:"ai_configured"`
	HandoffBackend string                            `json:"handoff_backend,omitempty"`
	Caches         map[string]map[string]interface{} `json:"caches,omitempty"`
	Runtime        map[string]interface{}            `json:"runtime"`
}

// HealthCheck GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := HealthResponse{
		Status:         "ok",
		Timestamp:      time.Now(),
		Version:        h.deps.Version,
		Uptime:         time.Since(h.started).Round(time.Second).String(),
		AIConfigured:   h.deps.Configured != nil && h.deps.Configured(),
		HandoffBackend: h.deps.HandoffBackend,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}
	if len(h.deps.Caches) > 0 {
		resp.Caches = make(map[string]map[string]interface{}, len(h.deps.Caches))
		for name, s := range h.deps.Caches {
			resp.Caches[name] = s.Stats()
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)
	c.JSON(http.StatusOK, resp)
}

// ReadinessCheck GET /ready，任一依賴無法連線時回 503
func (h *Handler) ReadinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps.Pingers))
	ready := true
	for name, p := range h.deps.Pingers {
		if err := p.Ping(ctx); err != nil {
			common.LogWarn("依賴未就緒", zap.String("dependency", name), zap.Error(err))
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}

// LivenessCheck GET /live
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}
