package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

type fakeStats map[string]interface{}

func (f fakeStats) Stats() map[string]interface{} { return f }

func serve(h *Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/live", h.LivenessCheck)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestHealthCheck(t *testing.T) {
	h := NewHandler(Dependencies{
		Version:        "1.2.3",
		Configured:     func() bool { return true },
		HandoffBackend: "memory",
		Caches:         map[string]StatsReporter{"product": fakeStats{"size": 3}},
	})

	w, out := serve(h, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "1.2.3", out["version"])
	assert.Equal(t, true, out["ai_configured"])
	assert.Equal(t, "memory", out["handoff_backend"])
	caches := out["caches"].(map[string]interface{})
	assert.EqualValues(t, 3, caches["product"].(map[string]interface{})["size"])
	assert.Contains(t, out, "runtime")
}

func TestReadinessCheck(t *testing.T) {
	w, out := serve(NewHandler(Dependencies{Pingers: map[string]Pinger{"redis": fakePinger{}}}), "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", out["status"])

	w, out = serve(NewHandler(Dependencies{Pingers: map[string]Pinger{"redis": fakePinger{err: errors.New("connection refused")}}}), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", out["status"])
	assert.Equal(t, "connection refused", out["checks"].(map[string]interface{})["redis"])
}

func TestLivenessCheck(t *testing.T) {
	w, out := serve(NewHandler(Dependencies{}), "/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", out["status"])
}
