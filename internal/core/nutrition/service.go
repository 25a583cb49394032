package nutrition

import (
	"context"
	"strings"

	"nutrition-tracker/internal/pkg/common"

	"go.uber.org/zap"
)

// ProductLookup 條碼商品查詢
type ProductLookup interface {
	Lookup(ctx context.Context, barcode string) (*Product, error)
}

// Service 各端點的營養處理流程
type Service struct {
	normalizer      *Normalizer
	engine          *Engine
	products        ProductLookup
	generateForScan bool
}

// Options 服務選項
type Options struct {
	// GenerateForScan 掃描餐點後是否為料理生成一張圖片
	GenerateForScan bool
}

// NewService 建立營養服務
func NewService(normalizer *Normalizer, engine *Engine, products ProductLookup, opts Options) *Service {
	return &Service{
		normalizer:      normalizer,
		engine:          engine,
		products:        products,
		generateForScan: opts.GenerateForScan,
	}
}

// DishIdentification 料理辨識結果
type DishIdentification struct {
	Response string `json:"response"`
	DishName string `json:"dishName"`
}

// ScanResult 餐點掃描結果
type ScanResult struct {
	Record   *NutritionRecord
	Note     string // JSON 前方的說明文字
	ImageURL string
}

// ChatResult 聊天或餐點計畫結果
type ChatResult struct {
	Response string    `json:"response"`
	MealPlan *MealPlan `json:"mealPlan,omitempty"`
}

// VoiceRequest 語音紀錄請求
type VoiceRequest struct {
	Message            string
	Audio              string
	ExtractIngredients bool
}

// VoiceResult 語音紀錄結果；失敗時仍帶有轉錄文字
type VoiceResult struct {
	Response      string
	Structured    *NutritionRecord
	Transcription string
}

// IdentifyDish 辨識圖片中的料理名稱
func (s *Service) IdentifyDish(ctx context.Context, img string) (*DishIdentification, error) {
	in, err := s.prepare(RawInput{Kind: TaskIdentifyDish, Image: img})
	if err != nil {
		return nil, err
	}

	raw, err := s.engine.Extract(ctx, in)
	if err != nil {
		return nil, err
	}

	name := FallbackRecord().DishName
	if parsed, perr := ParseResponse(raw, "dishName"); perr == nil {
		if n := stringValue(parsed.Object["dishName"]); n != "" {
			name = n
		}
	} else {
		common.LogWarn("料理辨識回應無法解析，使用預設名稱", zap.Error(perr))
	}

	return &DishIdentification{Response: name, DishName: name}, nil
}

// ScanMeal 分析餐點照片並回傳營養紀錄，回應無法解析時使用零值紀錄
func (s *Service) ScanMeal(ctx context.Context, img string) (*ScanResult, error) {
	in, err := s.prepare(RawInput{Kind: TaskScanMeal, Image: img})
	if err != nil {
		return nil, err
	}

	raw, err := s.engine.Extract(ctx, in)
	if err != nil {
		return nil, err
	}

	record, note, err := parseRecordWithNote(raw)
	if err != nil {
		common.LogWarn("餐點掃描回應無法解析，使用預設紀錄",
			zap.String("raw", common.Truncate(raw, 200)),
			zap.Error(err),
		)
		return &ScanResult{Record: FallbackRecord()}, nil
	}

	result := &ScanResult{Record: record, Note: note}
	if s.generateForScan {
		result.ImageURL = s.engine.GenerateMealImage(ctx, record.DishName)
	}
	return result, nil
}

// Chat 一般對話或餐點計畫
func (s *Service) Chat(ctx context.Context, message string, history []common.ChatMessage) (*ChatResult, error) {
	in, err := s.prepare(RawInput{Kind: TaskChat, Message: message, History: history})
	if err != nil {
		return nil, err
	}

	raw, err := s.engine.Extract(ctx, in)
	if err != nil {
		return nil, err
	}

	if in.Kind == TaskMealPlan {
		if result, ok := s.parseMealPlan(ctx, raw); ok {
			return result, nil
		}
	}

	return &ChatResult{Response: CleanProse(raw)}, nil
}

// parseMealPlan 解析餐點計畫並為第一天早餐生成一張圖片
func (s *Service) parseMealPlan(ctx context.Context, raw string) (*ChatResult, bool) {
	parsed, err := ParseResponse(raw, MealPlanFields...)
	if err != nil {
		common.LogWarn("餐點計畫回應無法解析，改回傳文字", zap.Error(err))
		return nil, false
	}

	var plan MealPlan
	if err := parsed.Decode(&plan); err != nil {
		common.LogWarn("餐點計畫格式不符，改回傳文字", zap.Error(err))
		return nil, false
	}
	if plan.Days == nil {
		plan.Days = []MealPlanDay{}
	}

	if len(plan.Days) > 0 {
		breakfast := &plan.Days[0].Meals.Breakfast
		breakfast.ImageURL = s.engine.GenerateMealImage(ctx, breakfast.ImageDescription)
	}

	common.LogInfo("餐點計畫已生成", zap.Int("days", len(plan.Days)))
	return &ChatResult{Response: parsed.Preamble, MealPlan: &plan}, true
}

// SearchFood 以文字搜尋食物營養資訊
func (s *Service) SearchFood(ctx context.Context, query string) ([]FoodItem, error) {
	in, err := s.prepare(RawInput{Kind: TaskFoodSearch, Message: query})
	if err != nil {
		return nil, err
	}

	raw, err := s.engine.Extract(ctx, in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		return []FoodItem{}, nil
	}

	parsed, err := ParseResponse(raw)
	if err != nil {
		common.LogError("食物搜尋回應無法解析",
			zap.String("raw", common.Truncate(raw, 200)),
			zap.Error(err),
		)
		return nil, err
	}
	return FoodItemsFromValue(parsed.Object["results"]), nil
}

// VoiceLog 文字或語音紀錄飲食；語音先轉文字再分析
func (s *Service) VoiceLog(ctx context.Context, req VoiceRequest) (*VoiceResult, error) {
	kind := TaskVoiceTranscribe
	if req.ExtractIngredients {
		kind = TaskVoiceExtract
	}

	in, err := s.normalizer.Normalize(RawInput{
		Kind:               kind,
		Message:            req.Message,
		Audio:              req.Audio,
		ExtractIngredients: req.ExtractIngredients,
	})
	if err != nil {
		return nil, err
	}
	if err := s.engine.RequireConfigured(); err != nil {
		return nil, err
	}

	result := &VoiceResult{}
	if len(in.Audio) > 0 {
		text, err := s.engine.Transcribe(ctx, in.Audio)
		if err != nil {
			return nil, err
		}
		in.Text = text
		result.Transcription = text
		common.LogInfo("語音轉文字完成", zap.Int("length", len(text)))
	}

	if in.Kind == TaskVoiceTranscribe {
		raw, err := s.engine.Extract(ctx, in)
		if err != nil {
			return result, err
		}
		result.Response = raw
		return result, nil
	}

	record, note, err := s.extractRecord(ctx, in)
	if err != nil {
		return result, err
	}
	result.Structured = record
	result.Response = note
	return result, nil
}

// extractRecord 取得結構化營養紀錄，解析失敗時修復一次
func (s *Service) extractRecord(ctx context.Context, in *NormalizedInput) (*NutritionRecord, string, error) {
	raw, err := s.engine.Extract(ctx, in)
	if err != nil {
		return nil, "", err
	}

	record, note, err := parseRecordWithNote(raw)
	if err == nil {
		return record, note, nil
	}

	common.LogWarn("營養資訊格式錯誤，嘗試修復", zap.Error(err))
	repaired, rerr := s.engine.Repair(ctx, raw)
	if rerr != nil {
		return nil, "", rerr
	}
	return parseRecordWithNote(repaired)
}

// ScanBarcode 以條碼查詢商品
func (s *Service) ScanBarcode(ctx context.Context, barcode string) (*Product, error) {
	in, err := s.normalizer.Normalize(RawInput{Kind: TaskBarcode, Barcode: barcode})
	if err != nil {
		return nil, err
	}
	return s.products.Lookup(ctx, in.Barcode)
}

// prepare 正規化輸入並確認生成後端可用
func (s *Service) prepare(raw RawInput) (*NormalizedInput, error) {
	in, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if err := s.engine.RequireConfigured(); err != nil {
		return nil, err
	}
	return in, nil
}

// ParseRecord 解析並正規化營養紀錄
func ParseRecord(raw string) (*NutritionRecord, error) {
	record, _, err := parseRecordWithNote(raw)
	return record, err
}

// parseRecordWithNote 解析營養紀錄並保留 JSON 前方的說明文字
func parseRecordWithNote(raw string) (*NutritionRecord, string, error) {
	parsed, err := ParseResponse(raw, RecordFields...)
	if err != nil {
		return nil, "", err
	}
	return RecordFromMap(parsed.Object), parsed.Preamble, nil
}
