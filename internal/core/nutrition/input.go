package nutrition

import (
	"regexp"
	"strconv"
	"strings"

	"nutrition-tracker/internal/core/image"
	"nutrition-tracker/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// TaskKind 請求任務類型
type TaskKind string

const (
	TaskIdentifyDish    TaskKind = "identify-dish"
	TaskScanMeal        TaskKind = "scan-meal"
	TaskMealPlan        TaskKind = "meal-plan"
	TaskChat            TaskKind = "chat"
	TaskFoodSearch      TaskKind = "food-search"
	TaskVoiceTranscribe TaskKind = "voice-transcribe"
	TaskVoiceExtract    TaskKind = "voice-extract"
	TaskBarcode         TaskKind = "barcode"
)

var barcodePattern = regexp.MustCompile(`^[0-9]{8,14}$`)

// RawInput 未經處理的請求輸入
type RawInput struct {
	Kind               TaskKind
	Message            string
	Image              string
	Audio              string
	Barcode            string
	History            []common.ChatMessage
	ExtractIngredients bool
}

// NormalizedInput 正規化後的輸入
type NormalizedInput struct {
	Kind     TaskKind
	Text     string
	ImageURL string
	Audio    []byte
	Barcode  string
	History  []common.ChatMessage
	// Days 餐點計畫請求中偵測到的日期（已首字大寫）
	Days []string
}

// Normalizer 輸入正規化
type Normalizer struct {
	images *image.Service
}

// NewNormalizer 建立輸入正規化器
func NewNormalizer(images *image.Service) *Normalizer {
	return &Normalizer{images: images}
}

// NormalizeText 去除前後空白並做 NFC 正規化
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// Normalize 驗證並正規化輸入，決定任務類型
func (n *Normalizer) Normalize(raw RawInput) (*NormalizedInput, error) {
	switch raw.Kind {
	case TaskIdentifyDish, TaskScanMeal:
		return n.normalizeImage(raw)
	case TaskChat, TaskMealPlan:
		return n.normalizeChat(raw)
	case TaskFoodSearch:
		return normalizeSearch(raw)
	case TaskVoiceTranscribe, TaskVoiceExtract:
		return normalizeVoice(raw)
	case TaskBarcode:
		return normalizeBarcode(raw)
	default:
		return nil, common.NewValidationError("unsupported task")
	}
}

func (n *Normalizer) normalizeImage(raw RawInput) (*NormalizedInput, error) {
	if strings.TrimSpace(raw.Image) == "" {
		return nil, common.NewFieldError("image", "image is required")
	}

	dataURL, err := n.images.ProcessImage(raw.Image)
	if err != nil {
		common.LogMediaProcessing("warn", "圖片無法處理",
			zap.String("task", string(raw.Kind)),
			zap.String("image_type", image.DescribeImage(raw.Image)),
			zap.Error(err),
		)
		return nil, common.NewValidationError("invalid request",
			common.FieldError{Field: "image", Message: err.Error()})
	}
	common.LogMediaProcessing("debug", "圖片已正規化",
		zap.String("task", string(raw.Kind)),
		zap.String("image_type", image.DescribeImage(raw.Image)),
		zap.Int("data_url_length", len(dataURL)),
	)

	return &NormalizedInput{Kind: raw.Kind, ImageURL: dataURL}, nil
}

func (n *Normalizer) normalizeChat(raw RawInput) (*NormalizedInput, error) {
	text := NormalizeText(raw.Message)
	if text == "" {
		return nil, common.NewFieldError("message", "message is required")
	}

	history := make([]common.ChatMessage, 0, len(raw.History))
	for i, msg := range raw.History {
		if msg.Role != common.RoleUser && msg.Role != common.RoleAssistant {
			return nil, common.NewValidationError("invalid request", common.FieldError{
				Field:   "chatHistory[" + strconv.Itoa(i) + "].role",
				Message: "role must be user or assistant",
			})
		}
		history = append(history, common.ChatMessage{Role: msg.Role, Content: NormalizeText(msg.Content)})
	}

	out := &NormalizedInput{Kind: TaskChat, Text: text, History: history}
	if IsMealPlanRequest(text) {
		out.Kind = TaskMealPlan
		out.Days = FormatDays(DetectDays(text))
	}
	return out, nil
}

func normalizeSearch(raw RawInput) (*NormalizedInput, error) {
	text := NormalizeText(raw.Message)
	if text == "" {
		return nil, common.NewFieldError("query", "query is required")
	}
	return &NormalizedInput{Kind: TaskFoodSearch, Text: text}, nil
}

func normalizeVoice(raw RawInput) (*NormalizedInput, error) {
	kind := TaskVoiceTranscribe
	if raw.ExtractIngredients || raw.Kind == TaskVoiceExtract {
		kind = TaskVoiceExtract
	}

	text := NormalizeText(raw.Message)
	audio := strings.TrimSpace(raw.Audio)

	switch {
	case text != "" && audio != "":
		return nil, common.NewValidationError("invalid request",
			common.FieldError{Field: "message", Message: "provide either message or audio, not both"})
	case text == "" && audio == "":
		return nil, common.NewValidationError("invalid request",
			common.FieldError{Field: "message", Message: "either message or audio is required"})
	case text != "":
		return &NormalizedInput{Kind: kind, Text: text}, nil
	}

	// data:audio/...;base64, 前綴
	if strings.HasPrefix(audio, "data:") {
		if idx := strings.Index(audio, ","); idx >= 0 {
			audio = audio[idx+1:]
		}
	}

	decoded, err := image.DecodeBase64(audio)
	if err != nil {
		common.LogMediaProcessing("warn", "音訊解碼失敗", zap.Error(err))
		return nil, common.NewFieldError("audio", "audio must be base64 encoded")
	}
	if len(decoded) == 0 {
		return nil, common.NewFieldError("audio", "audio is empty")
	}
	common.LogMediaProcessing("debug", "音訊已解碼", zap.Int("bytes", len(decoded)))
	return &NormalizedInput{Kind: kind, Audio: decoded}, nil
}

func normalizeBarcode(raw RawInput) (*NormalizedInput, error) {
	code := strings.TrimSpace(raw.Barcode)
	if code == "" {
		return nil, common.NewFieldError("barcode", "barcode is required")
	}
	if !barcodePattern.MatchString(code) {
		return nil, common.NewFieldError("barcode", "barcode must contain 8 to 14 digits")
	}
	return &NormalizedInput{Kind: TaskBarcode, Barcode: code}, nil
}
