package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nutrition-tracker/internal/core/ai/provider"
	"nutrition-tracker/internal/core/image"
	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/pkg/common"

	"go.uber.org/zap"
)

// 生成參數
const (
	visionMaxTokens     = 800
	mealPlanTemperature = 0.7
	chatTemperature     = 0.9
	audioFileName       = "audio.m4a"
)

// Generator 生成能力（由 ai/service.Service 提供）
type Generator interface {
	Complete(ctx context.Context, req *provider.Request) (*provider.Response, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
	Transcribe(ctx context.Context, audio []byte, fileName string) (string, error)
	Configured() bool
	Models() config.ModelConfig
}

// Engine 依任務組合提示詞並發出單次生成請求
type Engine struct {
	ai     Generator
	mirror image.Mirror
}

// NewEngine 建立引擎，mirror 可為 nil
func NewEngine(ai Generator, mirror image.Mirror) *Engine {
	if mirror == nil {
		mirror = image.NoopMirror{}
	}
	return &Engine{ai: ai, mirror: mirror}
}

// BuildRequest 依正規化輸入組合生成請求
func BuildRequest(in *NormalizedInput, models config.ModelConfig) (*provider.Request, error) {
	switch in.Kind {
	case TaskScanMeal, TaskIdentifyDish:
		userText := scanMealUserPrompt
		if in.Kind == TaskIdentifyDish {
			userText = identifyDishUserPrompt
		}
		return &provider.Request{
			Task:  string(in.Kind),
			Model: models.Vision,
			Messages: []provider.Message{
				{Role: common.RoleSystem, Content: dishSystemPrompt},
				{Role: common.RoleUser, Content: userText, ImageURL: in.ImageURL},
			},
			MaxTokens: visionMaxTokens,
			JSONMode:  true,
		}, nil

	case TaskMealPlan:
		system := weekPlanSystemPrompt
		if len(in.Days) > 0 {
			system = dayPlanSystemPrompt(in.Days)
		}
		messages := conversation(system, in.History, in.Text)
		messages = append(messages, provider.Message{
			Role:    common.RoleSystem,
			Content: mealPlanFormatInstructions(in.Days),
		})
		return &provider.Request{
			Task:        string(TaskMealPlan),
			Model:       models.Chat,
			Messages:    messages,
			Temperature: mealPlanTemperature,
		}, nil

	case TaskChat:
		return &provider.Request{
			Task:        string(TaskChat),
			Model:       models.Chat,
			Messages:    conversation(chatSystemPrompt, in.History, in.Text),
			Temperature: chatTemperature,
		}, nil

	case TaskFoodSearch:
		return &provider.Request{
			Task:  string(TaskFoodSearch),
			Model: models.Search,
			Messages: []provider.Message{
				{Role: common.RoleSystem, Content: searchSystemPrompt},
				{Role: common.RoleUser, Content: searchUserPrompt(in.Text)},
			},
			JSONMode:  true,
			Cacheable: true,
		}, nil

	case TaskVoiceExtract:
		return &provider.Request{
			Task:  string(TaskVoiceExtract),
			Model: models.Extraction,
			Messages: []provider.Message{
				{Role: common.RoleSystem, Content: extractionSystemPrompt},
				{Role: common.RoleUser, Content: extractionUserPrompt(in.Text)},
			},
		}, nil

	case TaskVoiceTranscribe:
		return &provider.Request{
			Task:  string(TaskVoiceTranscribe),
			Model: models.Coach,
			Messages: []provider.Message{
				{Role: common.RoleUser, Content: coachPrompt(in.Text)},
			},
		}, nil
	}

	return nil, fmt.Errorf("no generation template for task %q", in.Kind)
}

// conversation 系統訊息、歷史紀錄、使用者訊息
func conversation(system string, history []common.ChatMessage, text string) []provider.Message {
	messages := make([]provider.Message, 0, len(history)+2)
	messages = append(messages, provider.Message{Role: common.RoleSystem, Content: system})
	for _, h := range history {
		messages = append(messages, provider.Message{Role: h.Role, Content: h.Content})
	}
	return append(messages, provider.Message{Role: common.RoleUser, Content: text})
}

// Extract 發出一次生成請求並回傳原始文字（不重試）
func (e *Engine) Extract(ctx context.Context, in *NormalizedInput) (string, error) {
	req, err := BuildRequest(in, e.ai.Models())
	if err != nil {
		return "", err
	}

	resp, err := e.ai.Complete(ctx, req)
	if err != nil {
		common.LogError("生成請求失敗",
			zap.String("task", req.Task),
			zap.Error(err),
		)
		return "", wrapGenerationError(err)
	}
	return resp.Content, nil
}

// Repair 將格式錯誤的回應重新整理為營養紀錄 JSON（僅一次）
func (e *Engine) Repair(ctx context.Context, malformed string) (string, error) {
	resp, err := e.ai.Complete(ctx, &provider.Request{
		Task:  "repair",
		Model: e.ai.Models().Repair,
		Messages: []provider.Message{
			{Role: common.RoleSystem, Content: repairSystemPrompt},
			{Role: common.RoleUser, Content: malformed},
		},
	})
	if err != nil {
		return "", wrapGenerationError(err)
	}
	return resp.Content, nil
}

// Transcribe 語音轉文字；空白結果回傳 EmptyTranscriptionError
func (e *Engine) Transcribe(ctx context.Context, audio []byte) (string, error) {
	text, err := e.ai.Transcribe(ctx, audio, audioFileName)
	if err != nil {
		if errors.Is(err, provider.ErrNotConfigured) {
			return "", &ConfigurationError{Message: configurationMessage}
		}
		common.LogError("語音轉文字失敗", zap.Error(err))
		return "", &UpstreamTranscriptionError{Err: err}
	}

	text = NormalizeText(text)
	if text == "" {
		common.LogWarn("語音轉文字結果為空", zap.Int("audio_bytes", len(audio)))
		return "", &EmptyTranscriptionError{}
	}
	return text, nil
}

// GenerateMealImage 依描述生成一張餐點圖片；失敗時回傳空字串
func (e *Engine) GenerateMealImage(ctx context.Context, description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}

	url, err := e.ai.GenerateImage(ctx, MealImagePrompt(description))
	if err != nil || url == "" {
		common.LogWarn("餐點圖片生成失敗",
			zap.String("description", common.Truncate(description, 80)),
			zap.Error(err),
		)
		return ""
	}

	mirrored, err := e.mirror.Mirror(ctx, url)
	if err != nil {
		common.LogWarn("圖片鏡像失敗，使用原始 URL", zap.Error(err))
		return url
	}
	return mirrored
}

// Configured 生成後端憑證是否存在
func (e *Engine) Configured() bool {
	return e.ai.Configured()
}

// RequireConfigured 缺少憑證時回傳 ConfigurationError
func (e *Engine) RequireConfigured() error {
	if !e.ai.Configured() {
		return &ConfigurationError{Message: configurationMessage}
	}
	return nil
}
