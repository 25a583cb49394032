package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nutrition-tracker/internal/core/ai/provider"
	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/pkg/common"

	sdk "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client OpenAI 相容 API 客戶端（亦可指向 OpenRouter 等相容端點）
type Client struct {
	client     *sdk.Client
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient 創建新的客戶端
func NewClient(cfg config.OpenAIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	clientConfig := sdk.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = httpClient

	return &Client{
		client:     sdk.NewClientWithConfig(clientConfig),
		httpClient: httpClient,
		apiKey:     cfg.APIKey,
		baseURL:    clientConfig.BaseURL,
	}
}

// Configured 是否已設定 API Key
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// Generate 生成回應
func (c *Client) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	chatReq := sdk.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toChatMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSONMode {
		chatReq.ResponseFormat = &sdk.ChatCompletionResponseFormat{
			Type: sdk.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	common.LogDebug("Sending request to generation backend",
		zap.String("task", req.Task),
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Bool("json_mode", req.JSONMode),
		zap.Bool("has_image", hasImage(req.Messages)),
	)

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, translateError(err)
	}

	// 檢查響應內容
	if len(resp.Choices) == 0 {
		common.LogError("Empty choices in generation response",
			zap.String("task", req.Task),
			zap.String("model", req.Model),
		)
		return nil, &provider.UpstreamError{Message: "no choices in response"}
	}

	return &provider.Response{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// GenerateImage 生成圖片並回傳 URL
func (c *Client) GenerateImage(ctx context.Context, req *provider.ImageRequest) (string, error) {
	size := req.Size
	if size == "" {
		size = sdk.CreateImageSize1024x1024
	}

	resp, err := c.client.CreateImage(ctx, sdk.ImageRequest{
		Prompt:         req.Prompt,
		Model:          req.Model,
		N:              1,
		Size:           size,
		ResponseFormat: sdk.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", translateError(err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", &provider.UpstreamError{Message: "no image data in response"}
	}

	return resp.Data[0].URL, nil
}

// Transcribe 語音轉文字
func (c *Client) Transcribe(ctx context.Context, req *provider.TranscriptionRequest) (string, error) {
	fileName := req.FileName
	if fileName == "" {
		fileName = "audio.m4a"
	}

	resp, err := c.client.CreateTranscription(ctx, sdk.AudioRequest{
		Model:    req.Model,
		FilePath: fileName,
		Reader:   bytes.NewReader(req.Audio),
	})
	if err != nil {
		return "", translateError(err)
	}

	return resp.Text, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// toChatMessages 轉換為 SDK 訊息，含圖片時使用多段內容
func toChatMessages(messages []provider.Message) []sdk.ChatCompletionMessage {
	out := make([]sdk.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		if m.ImageURL == "" {
			out = append(out, sdk.ChatCompletionMessage{Role: m.Role, Content: m.Content})
			continue
		}

		parts := make([]sdk.ChatMessagePart, 0, 2)
		if m.Content != "" {
			parts = append(parts, sdk.ChatMessagePart{
				Type: sdk.ChatMessagePartTypeText,
				Text: m.Content,
			})
		}
		parts = append(parts, sdk.ChatMessagePart{
			Type: sdk.ChatMessagePartTypeImageURL,
			ImageURL: &sdk.ChatMessageImageURL{
				URL:    m.ImageURL,
				Detail: sdk.ImageURLDetailAuto,
			},
		})
		out = append(out, sdk.ChatCompletionMessage{Role: m.Role, MultiContent: parts})
	}
	return out
}

func hasImage(messages []provider.Message) bool {
	for _, m := range messages {
		if m.ImageURL != "" {
			return true
		}
	}
	return false
}

// translateError 將 SDK 錯誤轉為 UpstreamError，保留後端狀態碼
func translateError(err error) error {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		return &provider.UpstreamError{
			StatusCode: apiErr.HTTPStatusCode,
			Message:    sanitizeMessage(apiErr.Message),
			Err:        err,
		}
	}

	var reqErr *sdk.RequestError
	if errors.As(err, &reqErr) {
		return &provider.UpstreamError{
			StatusCode: reqErr.HTTPStatusCode,
			Message:    sanitizeMessage(reqErr.Error()),
			Err:        err,
		}
	}

	return &provider.UpstreamError{
		Message: sanitizeMessage(err.Error()),
		Err:     err,
	}
}

// sanitizeMessage 移除錯誤訊息中可能夾帶的圖片數據
func sanitizeMessage(msg string) string {
	if strings.Contains(msg, "data:image/") || (len(msg) > 100 && strings.Contains(msg, "base64")) {
		return "[IMAGE_DATA_REMOVED]"
	}
	return common.Truncate(msg, 500)
}

var _ provider.Provider = (*Client)(nil)

// String 用於日誌
func (c *Client) String() string {
	return fmt.Sprintf("openai(%s)", c.baseURL)
}
