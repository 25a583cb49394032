package nutrition

import (
	"net/http"
	"strings"

	"nutrition-tracker/internal/core/handoff"
	nutritionService "nutrition-tracker/internal/core/nutrition"
	"nutrition-tracker/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// HandoffRequest 把餐點計畫中的一餐交給日記畫面
type HandoffRequest struct {
	Day  string                       `json:"day" binding:"required"`
	Meal nutritionService.MealDetails `json:"meal"`
}

// CreateHandoff POST /meal-plan/handoff
func (h *Handler) CreateHandoff(c *gin.Context) {
	var req HandoffRequest
	if err := bind(c, &req); err != nil {
		writeError(c, err, nil)
		return
	}
	if strings.TrimSpace(req.Meal.Name) == "" {
		writeError(c, common.NewFieldError("meal.name", "meal name is required"), nil)
		return
	}

	ticket, err := h.handoffs.Save(c.Request.Context(), handoff.Payload{
		Day:  nutritionService.NormalizeText(req.Day),
		Meal: req.Meal,
	})
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

// ConsumeHandoff GET /meal-plan/handoff/:token，取用後即失效
func (h *Handler) ConsumeHandoff(c *gin.Context) {
	payload, err := h.handoffs.Consume(c.Request.Context(), c.Param("token"))
	if err != nil {
		writeError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, payload)
}
