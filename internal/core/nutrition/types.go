package nutrition

import (
	"bytes"
	"encoding/json"
	"strconv"

	"nutrition-tracker/internal/pkg/common"
)

// Ingredient 食材營養資訊
type Ingredient struct {
	Name    string  `json:"name" binding:"required"`
	Amount  string  `json:"amount"`
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// NutritionRecord 一道料理的營養紀錄
type NutritionRecord struct {
	DishName    string        `json:"dishName"`
	Calories    int           `json:"calories"`
	Macros      common.Macros `json:"macros"`
	Ingredients []Ingredient  `json:"ingredients"`
}

// FallbackRecord 無法解析時使用的零值紀錄
func FallbackRecord() *NutritionRecord {
	return &NutritionRecord{
		DishName:    "Unknown Dish",
		Ingredients: []Ingredient{},
	}
}

// FoodLogItem 寫入飲食日記的一筆紀錄
type FoodLogItem struct {
	Name     string `json:"name" binding:"required"`
	Calories int    `json:"calories"`
	Branch   string `json:"branch"`
	Amount   int    `json:"amount"`
}

// 日記紀錄來源標籤
const (
	BranchScanMeal = "Scan Meal"
	BranchVoiceLog = "Voice Log"
)

// FoodItem 食物搜尋結果
type FoodItem struct {
	Name        string        `json:"name"`
	Calories    float64       `json:"calories"`
	Macros      common.Macros `json:"macros"`
	ServingSize string        `json:"servingSize"`
	Brand       string        `json:"brand,omitempty"`
}

// Product 條碼查詢結果
type Product struct {
	Name     string        `json:"name"`
	Brand    string        `json:"brand"`
	Calories int           `json:"calories"`
	Macros   common.Macros `json:"macros"`
}

// MealPlan 餐點計畫
type MealPlan struct {
	Days []MealPlanDay `json:"days"`
}

// MealPlanDay 單日計畫
type MealPlanDay struct {
	Day   string   `json:"day"`
	Meals DayMeals `json:"meals"`
}

// DayMeals 一日三餐
type DayMeals struct {
	Breakfast MealDetails `json:"breakfast"`
	Lunch     MealDetails `json:"lunch"`
	Dinner    MealDetails `json:"dinner"`
}

// MealDetails 單餐內容，熱量與營養素為範圍字串（例如 "350-450"、"20-25g"）
type MealDetails struct {
	Name             string      `json:"name"`
	Calories         FlexString  `json:"calories"`
	Macros           MacroRanges `json:"macros"`
	ImageDescription string      `json:"imageDescription"`
	ImageURL         string      `json:"imageUrl,omitempty"`
}

// MacroRanges 營養素範圍
type MacroRanges struct {
	Protein FlexString `json:"protein"`
	Carbs   FlexString `json:"carbs"`
	Fat     FlexString `json:"fat"`
}

// FlexString 接受字串或數字的 JSON 值，一律以字串保存
type FlexString string

// UnmarshalJSON 數字轉為字串，null 為空字串
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*f = FlexString(strconv.FormatInt(i, 10))
		return nil
	}
	*f = FlexString(n.String())
	return nil
}
