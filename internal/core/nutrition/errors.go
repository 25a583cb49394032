package nutrition

import (
	"errors"
	"fmt"
	"net/http"

	"nutrition-tracker/internal/core/ai/provider"
)

// ConfigurationError 缺少生成後端憑證
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// HTTPStatus 500
func (e *ConfigurationError) HTTPStatus() int { return http.StatusInternalServerError }

// UpstreamGenerationError 生成後端呼叫失敗，狀態碼可透傳
type UpstreamGenerationError struct {
	Status int
	Err    error
}

func (e *UpstreamGenerationError) Error() string {
	return fmt.Sprintf("generation request failed: %v", e.Err)
}

func (e *UpstreamGenerationError) Unwrap() error { return e.Err }

// HTTPStatus 後端提供 4xx/5xx 時透傳，其餘為 500
func (e *UpstreamGenerationError) HTTPStatus() int {
	if e.Status >= 400 && e.Status <= 599 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// EmptyTranscriptionError 語音轉文字結果為空
type EmptyTranscriptionError struct{}

func (e *EmptyTranscriptionError) Error() string {
	return "Could not transcribe audio. Please try speaking more clearly or in a quieter environment."
}

// HTTPStatus 400
func (e *EmptyTranscriptionError) HTTPStatus() int { return http.StatusBadRequest }

// UpstreamTranscriptionError 語音轉文字呼叫失敗
type UpstreamTranscriptionError struct {
	Err error
}

func (e *UpstreamTranscriptionError) Error() string {
	return "Failed to transcribe audio: " + e.Err.Error()
}

func (e *UpstreamTranscriptionError) Unwrap() error { return e.Err }

// HTTPStatus 500
func (e *UpstreamTranscriptionError) HTTPStatus() int { return http.StatusInternalServerError }

// MalformedResponseError 回應無法解析或缺少必要欄位
type MalformedResponseError struct {
	Raw    string
	Reason string
}

func (e *MalformedResponseError) Error() string {
	if e.Reason == "" {
		return "malformed response"
	}
	return "malformed response: " + e.Reason
}

// HTTPStatus 500
func (e *MalformedResponseError) HTTPStatus() int { return http.StatusInternalServerError }

// NotFoundError 查無資料
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// HTTPStatus 404
func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }

// configurationMessage 與用戶端約定的設定錯誤訊息
const configurationMessage = "OpenAI API key is not configured. Please set the OPENAI_API_KEY environment variable."

// wrapGenerationError 將 AI 服務錯誤轉為對應的領域錯誤
func wrapGenerationError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, provider.ErrNotConfigured) {
		return &ConfigurationError{Message: configurationMessage}
	}

	var upstream *provider.UpstreamError
	if errors.As(err, &upstream) {
		return &UpstreamGenerationError{Status: upstream.StatusCode, Err: err}
	}
	return &UpstreamGenerationError{Err: err}
}

// IsMalformed 是否為格式錯誤
func IsMalformed(err error) bool {
	var m *MalformedResponseError
	return errors.As(err, &m)
}
