package nutrition

import (
	"net/http"

	nutritionService "nutrition-tracker/internal/core/nutrition"

	"github.com/gin-gonic/gin"
)

// 日記紀錄來源
const (
	SourceScanMeal = "scan-meal"
	SourceVoiceLog = "voice-log"
)

// DiaryEntriesRequest 寫入一批日記紀錄；ingredients 會先換算熱量與份量
type DiaryEntriesRequest struct {
	MealType    string                         `json:"mealType" binding:"required"`
	Source      string                         `json:"source" binding:"omitempty,oneof=scan-meal voice-log"`
	Ingredients []nutritionService.Ingredient  `json:"ingredients" binding:"omitempty,dive"`
	Items       []nutritionService.FoodLogItem `json:"items" binding:"omitempty,dive"`
}

// branchFor 來源對應的日記標籤
func branchFor(source string) string {
	if source == SourceVoiceLog {
		return nutritionService.BranchVoiceLog
	}
	return nutritionService.BranchScanMeal
}

// LogEntries POST /diary/entries
func (h *Handler) LogEntries(c *gin.Context) {
	var req DiaryEntriesRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err, nil)
		return
	}

	branch := branchFor(req.Source)
	items := nutritionService.ToFoodLogItems(req.Ingredients, branch)
	for _, item := range req.Items {
		if item.Branch == "" {
			item.Branch = branch
		}
		items = append(items, item)
	}

	appended, err := h.diary.LogBatch(req.MealType, items)
	if err != nil {
		writeError(c, err, nil)
		return
	}

	meal, err := h.diary.Meal(req.MealType)
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"appended": appended,
		"entries":  meal.Items,
	})
}

// Diary GET /diary
func (h *Handler) Diary(c *gin.Context) {
	c.JSON(http.StatusOK, h.diary.Summary())
}
