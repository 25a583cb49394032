package nutrition

import (
	"regexp"
	"strings"
)

// mealPlanPattern 判斷訊息是否為餐點計畫請求
var mealPlanPattern = regexp.MustCompile(`(?i)meal plan|diet plan|eating plan|food plan|what (should|can) I eat`)

// dayVocabulary 可辨識的日期詞彙（順序即輸出順序）
var dayVocabulary = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"mon", "tue", "wed", "thu", "fri", "sat", "sun",
	"today", "tomorrow", "next week", "tmr",
	"next monday", "next tuesday", "next wednesday", "next thursday", "next friday", "next saturday", "next sunday",
}

// IsMealPlanRequest 訊息是否要求餐點計畫
func IsMealPlanRequest(message string) bool {
	return mealPlanPattern.MatchString(message)
}

// DetectDays 以不分大小寫的子字串比對找出訊息中的日期詞
//
// 比對不要求單字邊界（"sat" 會命中 "satisfying"）。同一訊息中若某命中詞
// 是另一命中詞的子字串（"wed" 之於 "wednesday"），只保留較長者。
func DetectDays(message string) []string {
	lower := strings.ToLower(message)

	var matched []string
	for _, day := range dayVocabulary {
		if strings.Contains(lower, day) {
			matched = append(matched, day)
		}
	}

	days := make([]string, 0, len(matched))
	for _, day := range matched {
		covered := false
		for _, other := range matched {
			if other != day && strings.Contains(other, day) {
				covered = true
				break
			}
		}
		if !covered {
			days = append(days, day)
		}
	}
	return days
}

// FormatDays 將日期詞首字大寫
func FormatDays(days []string) []string {
	formatted := make([]string, len(days))
	for i, day := range days {
		if day == "" {
			continue
		}
		formatted[i] = strings.ToUpper(day[:1]) + day[1:]
	}
	return formatted
}
