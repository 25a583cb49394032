package nutrition

import (
	"net/http"

	nutritionService "nutrition-tracker/internal/core/nutrition"
	"nutrition-tracker/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdentifyDishRequest 料理辨識請求，message 為舊版欄位
type IdentifyDishRequest struct {
	Image   string `json:"image"`
	Message string `json:"message"`
}

// ChatRequest 聊天與餐點計畫請求
type ChatRequest struct {
	Message     string               `json:"message" binding:"required"`
	ChatHistory []common.ChatMessage `json:"chatHistory" binding:"omitempty,dive"`
}

// BarcodeRequest 條碼查詢請求
type BarcodeRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

// ScanMealRequest 餐點掃描請求，imageBase64 為舊版欄位
type ScanMealRequest struct {
	Image       string `json:"image"`
	ImageBase64 string `json:"imageBase64"`
}

// SearchFoodRequest 食物搜尋請求
type SearchFoodRequest struct {
	Query string `json:"query" binding:"required"`
}

// VoiceLogRequest 語音紀錄請求，audioBase64 為舊版欄位
type VoiceLogRequest struct {
	Message            string `json:"message"`
	Audio              string `json:"audio"`
	AudioBase64        string `json:"audioBase64"`
	ExtractIngredients bool   `json:"extractIngredients"`
}

// firstNonEmpty 回傳第一個非空字串
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// IdentifyDish POST /nutrition/identify-dish
func (h *Handler) IdentifyDish(c *gin.Context) {
	var req IdentifyDishRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err, nil)
		return
	}

	result, err := h.service.IdentifyDish(c.Request.Context(), firstNonEmpty(req.Image, req.Message))
	if err != nil {
		writeError(c, err, nil)
		return
	}

	common.LogInfo("料理辨識完成",
		zap.String("request_id", requestid.Get(c)),
		zap.String("dish_name", result.DishName),
	)
	c.JSON(http.StatusOK, result)
}

// Chat POST /nutrition/chat 與 /nutrition/meal-plan
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err, nil)
		return
	}

	result, err := h.service.Chat(c.Request.Context(), req.Message, req.ChatHistory)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ScanBarcode POST /nutrition/scan-barcode
func (h *Handler) ScanBarcode(c *gin.Context) {
	var req BarcodeRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err, nil)
		return
	}

	product, err := h.service.ScanBarcode(c.Request.Context(), req.Barcode)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// ScanMeal POST /nutrition/scan-meal
func (h *Handler) ScanMeal(c *gin.Context) {
	var req ScanMealRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err, nil)
		return
	}

	result, err := h.service.ScanMeal(c.Request.Context(), firstNonEmpty(req.Image, req.ImageBase64))
	if err != nil {
		writeError(c, err, nil)
		return
	}

	body := gin.H{"response": result.Record}
	if result.Note != "" {
		body["note"] = result.Note
	}
	if result.ImageURL != "" {
		body["imageUrl"] = result.ImageURL
	}
	c.JSON(http.StatusOK, body)
}

// SearchFood POST /nutrition/search-food，失敗時也帶空的 results
func (h *Handler) SearchFood(c *gin.Context) {
	empty := gin.H{"results": []nutritionService.FoodItem{}}

	var req SearchFoodRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err, empty)
		return
	}

	results, err := h.service.SearchFood(c.Request.Context(), req.Query)
	if err != nil {
		if nutritionService.IsMalformed(err) {
			empty["error"] = "Failed to parse food data"
		}
		writeError(c, err, empty)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// VoiceLog POST /nutrition/voice-log
func (h *Handler) VoiceLog(c *gin.Context) {
	var req VoiceLogRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err, nil)
		return
	}

	result, err := h.service.VoiceLog(c.Request.Context(), nutritionService.VoiceRequest{
		Message:            req.Message,
		Audio:              firstNonEmpty(req.Audio, req.AudioBase64),
		ExtractIngredients: req.ExtractIngredients,
	})
	if err != nil {
		extra := gin.H{}
		if result != nil && result.Transcription != "" {
			extra["transcription"] = result.Transcription
		}
		if nutritionService.IsMalformed(err) {
			extra["error"] = "Failed to extract structured food information: " + err.Error()
		}
		writeError(c, err, extra)
		return
	}

	body := gin.H{}
	if result.Structured != nil {
		body["structuredFoodData"] = result.Structured
		if result.Response != "" {
			body["response"] = result.Response
		}
	} else {
		body["response"] = result.Response
	}
	if result.Transcription != "" {
		body["transcription"] = result.Transcription
	}
	c.JSON(http.StatusOK, body)
}
