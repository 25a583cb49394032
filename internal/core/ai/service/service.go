package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"nutrition-tracker/internal/core/ai/provider"
	"nutrition-tracker/internal/core/cache"
	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/pkg/common"

	"go.uber.org/zap"
)

// Service AI 服務：憑證檢查、日誌與可選的回應快取
type Service struct {
	config   *config.Config
	provider provider.Provider
	cache    cache.Store
}

// NewService 創建 AI 服務，cacheStore 可為 nil
func NewService(cfg *config.Config, p provider.Provider, cacheStore cache.Store) (*Service, error) {
	if p == nil {
		return nil, errors.New("provider is required")
	}
	return &Service{
		config:   cfg,
		provider: p,
		cache:    cacheStore,
	}, nil
}

// Configured 生成後端憑證是否存在
func (s *Service) Configured() bool {
	return s.provider.Configured()
}

// Models 各任務模型設定
func (s *Service) Models() config.ModelConfig {
	return s.config.OpenAI.Models
}

// Complete 發送一次生成請求並回傳文字內容（不重試）
func (s *Service) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if !s.provider.Configured() {
		common.LogError("Generation backend credential missing",
			zap.String("task", req.Task),
		)
		return nil, provider.ErrNotConfigured
	}

	var key string
	if req.Cacheable && s.cache != nil {
		key = s.cacheKey(req)
		if val, err := s.cache.Get(ctx, key); err == nil {
			return &provider.Response{Content: val, Model: req.Model, CacheHit: true}, nil
		}
	}

	start := time.Now()
	resp, err := s.provider.Generate(ctx, req)
	common.LogAICall(req.Task, req.Model, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	if key != "" && strings.TrimSpace(resp.Content) != "" {
		if err := s.cache.Set(ctx, key, resp.Content, 0); err != nil {
			common.LogWarn("Failed to cache AI response",
				zap.String("task", req.Task),
				zap.Error(err),
			)
		}
	}

	return resp, nil
}

// GenerateImage 生成一張圖片
func (s *Service) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if !s.provider.Configured() {
		return "", provider.ErrNotConfigured
	}

	start := time.Now()
	url, err := s.provider.GenerateImage(ctx, &provider.ImageRequest{
		Model:  s.config.OpenAI.Models.Image,
		Prompt: prompt,
		Size:   s.config.Image.Size,
	})
	common.LogAICall("image", s.config.OpenAI.Models.Image, time.Since(start), err)
	return url, err
}

// Transcribe 語音轉文字
func (s *Service) Transcribe(ctx context.Context, audio []byte, fileName string) (string, error) {
	if !s.provider.Configured() {
		return "", provider.ErrNotConfigured
	}

	start := time.Now()
	text, err := s.provider.Transcribe(ctx, &provider.TranscriptionRequest{
		Model:    s.config.OpenAI.Models.Transcribe,
		Audio:    audio,
		FileName: fileName,
	})
	common.LogAICall("transcribe", s.config.OpenAI.Models.Transcribe, time.Since(start), err)
	return text, err
}

// Close 關閉服務
func (s *Service) Close() error {
	return s.provider.Close()
}

// cacheKey 以模型與訊息內容生成快取鍵
func (s *Service) cacheKey(req *provider.Request) string {
	payload, _ := json.Marshal(struct {
		Model    string             `json:"model"`
		Messages []provider.Message `json:"messages"`
		JSON     bool               `json:"json"`
	}{req.Model, req.Messages, req.JSONMode})
	return cache.Key("ai", req.Task, string(payload))
}
