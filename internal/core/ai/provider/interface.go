package provider

import (
	"context"
	"errors"
	"fmt"
)

// Message 表示與 AI 模型的對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// ImageURL 非空時以多段內容（文字 + 圖片）送出，值為 data URL 或 http(s) URL
	ImageURL string `json:"image_url,omitempty"`
}

// Request 表示發送到 AI 提供者的請求
type Request struct {
	Task        string    `json:"task"`
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float32   `json:"temperature,omitempty"`
	JSONMode    bool      `json:"json_mode,omitempty"`
	// Cacheable 為 true 時允許服務層以請求內容為鍵快取回應
	Cacheable bool `json:"-"`
}

// Usage token 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response 表示從 AI 提供者收到的響應
type Response struct {
	Content  string `json:"content"`
	Model    string `json:"model"`
	Usage    Usage  `json:"usage"`
	CacheHit bool   `json:"cache_hit"`
}

// ImageRequest 圖片生成請求
type ImageRequest struct {
	Model  string
	Prompt string
	Size   string
}

// TranscriptionRequest 語音轉文字請求
type TranscriptionRequest struct {
	Model    string
	Audio    []byte
	FileName string
}

// Provider 定義 AI 提供者介面
type Provider interface {
	// Generate 生成文字（或視覺）回應
	Generate(ctx context.Context, req *Request) (*Response, error)

	// GenerateImage 依提示詞生成一張圖片，回傳圖片 URL
	GenerateImage(ctx context.Context, req *ImageRequest) (string, error)

	// Transcribe 將音訊轉為文字
	Transcribe(ctx context.Context, req *TranscriptionRequest) (string, error)

	// Configured 是否已設定憑證
	Configured() bool

	// Close 關閉提供者連接
	Close() error
}

// ErrNotConfigured 缺少生成後端憑證
var ErrNotConfigured = errors.New("generation backend credential is not configured")

// UpstreamError 後端呼叫失敗（網路、認證、限流等）
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
	}
	return "upstream error: " + e.Message
}

// Unwrap 支援 errors.Is / errors.As
func (e *UpstreamError) Unwrap() error {
	return e.Err
}
