package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"nutrition-tracker/internal/core/diary"
	"nutrition-tracker/internal/core/handoff"
	nutritionService "nutrition-tracker/internal/core/nutrition"
	"nutrition-tracker/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler 營養相關 API 處理器
type Handler struct {
	service  *nutritionService.Service
	handoffs *handoff.Store
	diary    *diary.Diary
}

// NewHandler 創建處理器
func NewHandler(service *nutritionService.Service, handoffs *handoff.Store, d *diary.Diary) *Handler {
	registerJSONFieldNames()
	return &Handler{
		service:  service,
		handoffs: handoffs,
		diary:    d,
	}
}

var tagNameOnce sync.Once

// registerJSONFieldNames 讓驗證錯誤使用 JSON 欄位名稱
func registerJSONFieldNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bind 解析 JSON 請求體並轉換綁定錯誤
func bind(c *gin.Context, req interface{}) error {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return common.NewError(common.ErrCodeTooLarge, "Request body too large", http.StatusRequestEntityTooLarge, err)
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]common.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, common.FieldError{
				Field:   fieldPath(fe),
				Message: fieldMessage(fe),
			})
		}
		return common.NewValidationError("invalid request", fields...)
	}

	if errors.Is(err, io.EOF) {
		return common.NewFieldError("body", "request body is required")
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return common.NewFieldError(typeErr.Field, "must be of type "+typeErr.Type.String())
	}
	return common.NewFieldError("body", "request body must be valid JSON")
}

// fieldPath 去掉最外層結構名稱，保留巢狀路徑
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " failed " + fe.Tag() + " validation"
	}
}

// errorCode 回應中的錯誤代碼
func errorCode(err error, status int) string {
	var (
		cerr     *common.CustomError
		cfgErr   *nutritionService.ConfigurationError
		notFound *nutritionService.NotFoundError
		genErr   *nutritionService.UpstreamGenerationError
		txErr    *nutritionService.UpstreamTranscriptionError
	)
	switch {
	case errors.As(err, &cerr):
		return cerr.Code
	case status == http.StatusGatewayTimeout:
		return common.ErrCodeGatewayTimeout
	case common.IsValidationError(err), status == http.StatusBadRequest:
		return common.ErrCodeInvalidRequest
	case errors.As(err, &cfgErr):
		return common.ErrCodeConfiguration
	case errors.As(err, &notFound):
		return common.ErrCodeNotFound
	case errors.As(err, &genErr), errors.As(err, &txErr):
		return common.ErrCodeUpstream
	default:
		return common.ErrCodeInternalError
	}
}

// writeError 依錯誤類型輸出狀態碼與 JSON，extra 會併入回應
func writeError(c *gin.Context, err error, extra gin.H) {
	status := common.StatusOf(err)
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	body := gin.H{}
	for k, v := range extra {
		body[k] = v
	}

	var verr *common.ValidationError
	var cerr *common.CustomError
	switch {
	case errors.As(err, &verr):
		body["error"] = "invalid request"
		body["details"] = verr.Fields
	case errors.As(err, &cerr):
		body["error"] = cerr.Message
	case status == http.StatusGatewayTimeout:
		body["error"] = "Request timeout"
	default:
		if _, ok := body["error"]; !ok {
			body["error"] = err.Error()
		}
	}
	body["code"] = errorCode(err, status)

	fields := []zap.Field{
		zap.Int("status", status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求無效", fields...)
	}

	c.AbortWithStatusJSON(status, body)
}
