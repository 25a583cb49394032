package common

import (
	"errors"
	"net/http"
	"strings"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string       `json:"error"`             // 錯誤信息
	Code    string       `json:"code,omitempty"`    // 錯誤代碼
	Details []FieldError `json:"details,omitempty"` // 欄位層級的驗證錯誤
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap 支援 errors.Is / errors.As
func (e *CustomError) Unwrap() error {
	return e.Err
}

// HTTPStatus 回傳對應的 HTTP 狀態碼
func (e *CustomError) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// FieldError 單一欄位的驗證錯誤
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
	Fields  []FieldError
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return e.message + ": " + strings.Join(parts, ", ")
}

// HTTPStatus 驗證錯誤一律為 400
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string, fields ...FieldError) error {
	return &ValidationError{
		message: message,
		Fields:  fields,
	}
}

// NewFieldError 創建單一欄位的驗證錯誤
func NewFieldError(field, message string) error {
	return NewValidationError("invalid request", FieldError{Field: field, Message: message})
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StatusOf 取得錯誤對應的 HTTP 狀態碼，未知錯誤為 500
func StatusOf(err error) int {
	var s interface{ HTTPStatus() int }
	if errors.As(err, &s) {
		return s.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeConflict        = "CONFLICT"          // 409
	ErrCodeTooLarge        = "PAYLOAD_TOO_LARGE" // 413
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 服務器錯誤 (5xx)
	ErrCodeInternalError  = "INTERNAL_ERROR"      // 500
	ErrCodeConfiguration  = "CONFIGURATION_ERROR" // 500
	ErrCodeUpstream       = "UPSTREAM_ERROR"      // 500 或上游狀態碼
	ErrCodeGatewayTimeout = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	ErrTooManyRequests = NewError(ErrCodeTooManyRequests, "too many requests", http.StatusTooManyRequests, nil)
	ErrInternalError   = NewError(ErrCodeInternalError, "internal server error", http.StatusInternalServerError, nil)

	// 業務錯誤
	ErrInvalidImageFormat = NewError("INVALID_IMAGE_FORMAT", "invalid image format", http.StatusBadRequest, nil)
	ErrInvalidImageSize   = NewError("INVALID_IMAGE_SIZE", "image exceeds size limit", http.StatusBadRequest, nil)
	ErrInvalidImageType   = NewError("INVALID_IMAGE_TYPE", "unsupported image type", http.StatusBadRequest, nil)
	ErrCacheFull          = NewError("CACHE_FULL", "cache is full", http.StatusServiceUnavailable, nil)
	ErrCacheMiss          = NewError("CACHE_MISS", "cache miss", http.StatusNotFound, nil)
)
