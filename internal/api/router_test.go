package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/testhelpers"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, p *testhelpers.MockProvider, mutate func(*config.Config)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.App.Debug = true
	cfg.RateLimit.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	app, err := NewAppWithProvider(context.Background(), cfg, p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return SetupRouter(cfg, app)
}

func TestRouter_HealthRoutes(t *testing.T) {
	r := newTestRouter(t, testhelpers.NewUnconfiguredProvider(), nil)

	for _, path := range []string{"/health", "/ready", "/live"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, false, out["ai_configured"])
	assert.Equal(t, "memory", out["handoff_backend"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_MealPlanAlias(t *testing.T) {
	p := testhelpers.NewMockProvider()
	p.On("Generate", mock.Anything, testhelpers.Task("chat")).
		Return(testhelpers.Reply("Sure."), nil).Twice()
	r := newTestRouter(t, p, nil)

	for _, path := range []string{"/api/v1/nutrition/chat", "/api/v1/nutrition/meal-plan"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"message":"hello from `+path+`"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	p.AssertExpectations(t)
}

func TestRouter_BodyTooLarge(t *testing.T) {
	r := newTestRouter(t, testhelpers.NewMockProvider(), func(cfg *config.Config) {
		cfg.Server.MaxBodyBytes = 64
	})

	body := bytes.Repeat([]byte("a"), 128)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/nutrition/search-food", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouter_DuplicateSubmission(t *testing.T) {
	r := newTestRouter(t, testhelpers.NewMockProvider(), nil)

	post := func() int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/meal-plan/handoff",
			strings.NewReader(`{"day":"Monday","meal":{"name":"Toast"}}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())
}
