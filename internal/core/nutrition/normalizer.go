package nutrition

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"nutrition-tracker/internal/pkg/common"
)

// kJ 轉 kcal 係數
const kilojoulesPerKilocalorie = 4.184

// 直接提供 kcal 的欄位（依優先順序）
var kcalFields = []string{"energy_kcal", "energy-kcal", "energy-kcal_100g"}

// 以 kJ 提供的欄位（依優先順序）
var kjFields = []string{"energy_100g", "energy", "energy_value", "energy-kj", "energy-kj_100g"}

// CoerceNumber 將任意 JSON 值轉為數字，無法轉換、NaN、無限大皆為 0
func CoerceNumber(v interface{}) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// nonNegative 負值歸零
func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// RoundMacro 四捨五入至小數一位並將負值歸零
func RoundMacro(f float64) float64 {
	return math.Round(nonNegative(f)*10) / 10
}

// maxCalories 熱量上限，避免轉換整數時溢位
const maxCalories = math.MaxInt32

// RoundCalories 四捨五入至整數，負值歸零、超過上限時取上限
func RoundCalories(f float64) int {
	return int(math.Round(math.Min(nonNegative(f), maxCalories)))
}

// ExtractCalories 從營養成分表取得熱量（kcal），優先使用 kcal 欄位，其次將 kJ 欄位換算
func ExtractCalories(nutriments map[string]interface{}) int {
	for _, field := range kcalFields {
		if v := CoerceNumber(nutriments[field]); v > 0 {
			return RoundCalories(v)
		}
	}
	for _, field := range kjFields {
		if v := CoerceNumber(nutriments[field]); v > 0 {
			return RoundCalories(v / kilojoulesPerKilocalorie)
		}
	}
	return 0
}

// ExtractMacros 從營養成分表取得三大營養素
func ExtractMacros(nutriments map[string]interface{}) common.Macros {
	return common.Macros{
		Protein: firstPositive(nutriments, "proteins", "proteins_100g"),
		Carbs:   firstPositive(nutriments, "carbohydrates", "carbohydrates_100g"),
		Fat:     firstPositive(nutriments, "fat", "fat_100g"),
	}
}

func firstPositive(m map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		if v := CoerceNumber(m[k]); v > 0 {
			return v
		}
	}
	return 0
}

// NormalizeMacros 營養素取一位小數
func NormalizeMacros(m common.Macros) common.Macros {
	return common.Macros{
		Protein: RoundMacro(m.Protein),
		Carbs:   RoundMacro(m.Carbs),
		Fat:     RoundMacro(m.Fat),
	}
}

// NormalizeRecord 熱量取整、營養素取一位小數（含每個食材），重複套用結果不變
func NormalizeRecord(r *NutritionRecord) *NutritionRecord {
	if r == nil {
		return FallbackRecord()
	}

	out := &NutritionRecord{
		DishName:    r.DishName,
		Calories:    RoundCalories(float64(r.Calories)),
		Macros:      NormalizeMacros(r.Macros),
		Ingredients: make([]Ingredient, 0, len(r.Ingredients)),
	}
	for _, ing := range r.Ingredients {
		out.Ingredients = append(out.Ingredients, Ingredient{
			Name:    ing.Name,
			Amount:  ing.Amount,
			Protein: RoundMacro(ing.Protein),
			Carbs:   RoundMacro(ing.Carbs),
			Fat:     RoundMacro(ing.Fat),
		})
	}
	return out
}

// RecordFromMap 由解析後的 JSON 物件建立正規化的營養紀錄
func RecordFromMap(obj map[string]interface{}) *NutritionRecord {
	record := &NutritionRecord{
		DishName:    stringValue(obj["dishName"]),
		Calories:    RoundCalories(CoerceNumber(obj["calories"])),
		Macros:      macrosFromValue(obj["macros"]),
		Ingredients: []Ingredient{},
	}

	if items, ok := obj["ingredients"].([]interface{}); ok {
		for _, item := range items {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			record.Ingredients = append(record.Ingredients, Ingredient{
				Name:    stringValue(m["name"]),
				Amount:  stringValue(m["amount"]),
				Protein: CoerceNumber(m["protein"]),
				Carbs:   CoerceNumber(m["carbs"]),
				Fat:     CoerceNumber(m["fat"]),
			})
		}
	}

	return NormalizeRecord(record)
}

// FoodItemsFromValue 將搜尋結果轉為 FoodItem，非陣列視為空
func FoodItemsFromValue(v interface{}) []FoodItem {
	items, ok := v.([]interface{})
	if !ok {
		return []FoodItem{}
	}

	results := make([]FoodItem, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		serving := stringValue(m["servingSize"])
		if serving == "" {
			serving = "100g"
		}
		results = append(results, FoodItem{
			Name:        stringValue(m["name"]),
			Calories:    nonNegative(CoerceNumber(m["calories"])),
			Macros:      clampMacros(macrosFromValue(m["macros"])),
			ServingSize: serving,
			Brand:       stringValue(m["brand"]),
		})
	}
	return results
}

func macrosFromValue(v interface{}) common.Macros {
	m, ok := v.(map[string]interface{})
	if !ok {
		return common.Macros{}
	}
	return common.Macros{
		Protein: CoerceNumber(m["protein"]),
		Carbs:   CoerceNumber(m["carbs"]),
		Fat:     CoerceNumber(m["fat"]),
	}
}

func clampMacros(m common.Macros) common.Macros {
	return common.Macros{
		Protein: nonNegative(m.Protein),
		Carbs:   nonNegative(m.Carbs),
		Fat:     nonNegative(m.Fat),
	}
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

// ParseAmount 取食材份量字串開頭的整數，無法取得或非正數時為 100
func ParseAmount(amount string) int {
	s := strings.TrimSpace(amount)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 100
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return 100
	}
	return n
}

// IngredientCalories 依 4/4/9 換算食材熱量
func IngredientCalories(ing Ingredient) int {
	return RoundCalories(common.Macros{Protein: ing.Protein, Carbs: ing.Carbs, Fat: ing.Fat}.Calories())
}

// NormalizeLogItem 熱量負值歸零並限制上限，份量非正數時視為 100
func NormalizeLogItem(item FoodLogItem) FoodLogItem {
	item.Name = NormalizeText(item.Name)
	item.Calories = RoundCalories(float64(item.Calories))
	if item.Amount <= 0 {
		item.Amount = 100
	}
	return item
}

// ToFoodLogItems 將食材轉為日記紀錄，順序不變
func ToFoodLogItems(ingredients []Ingredient, branch string) []FoodLogItem {
	items := make([]FoodLogItem, 0, len(ingredients))
	for _, ing := range ingredients {
		items = append(items, FoodLogItem{
			Name:     ing.Name,
			Calories: IngredientCalories(ing),
			Branch:   branch,
			Amount:   ParseAmount(ing.Amount),
		})
	}
	return items
}
