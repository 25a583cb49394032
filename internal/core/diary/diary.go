package diary

import (
	"strings"
	"sync"
	"time"

	"nutrition-tracker/internal/core/nutrition"
	"nutrition-tracker/internal/pkg/common"

	"go.uber.org/zap"
)

// 餐別
const (
	Breakfast = "breakfast"
	Lunch     = "lunch"
	Dinner    = "dinner"
	Snacks    = "snacks"
)

// Categories 所有餐別
var Categories = []string{Breakfast, Lunch, Dinner, Snacks}

// Entry 日記中的一筆紀錄
type Entry struct {
	nutrition.FoodLogItem
	Ticket   string    `json:"ticket"`
	LoggedAt time.Time `json:"loggedAt"`
}

// Totals 合計
type Totals struct {
	Calories int `json:"calories"`
	Items    int `json:"items"`
}

// MealSummary 單一餐別內容
type MealSummary struct {
	Items  []Entry `json:"items"`
	Totals Totals  `json:"totals"`
}

// Summary 整日內容
type Summary struct {
	Meals  map[string]MealSummary `json:"meals"`
	Totals Totals                 `json:"totals"`
}

// MealLog 單一餐別的紀錄，同一派送票券只寫入一次
type MealLog struct {
	mu      sync.Mutex
	entries []Entry
	tickets map[string]struct{}
}

func newMealLog() *MealLog {
	return &MealLog{tickets: make(map[string]struct{})}
}

// Append 寫入一次派送，重複票券回傳 false
func (m *MealLog) Append(d *Delivery) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, seen := m.tickets[d.Ticket]; seen {
		return false
	}
	m.tickets[d.Ticket] = struct{}{}
	m.entries = append(m.entries, Entry{
		FoodLogItem: d.Item,
		Ticket:      d.Ticket,
		LoggedAt:    time.Now(),
	})
	return true
}

// Summary 餐別內容與合計
func (m *MealLog) Summary() MealSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]Entry, len(m.entries))
	copy(items, m.entries)

	var totals Totals
	for _, e := range items {
		totals.Calories += e.Calories
	}
	totals.Items = len(items)
	return MealSummary{Items: items, Totals: totals}
}

// Diary 記憶體中的飲食日記
type Diary struct {
	dispatcher *Dispatcher
	meals      map[string]*MealLog
}

// New 建立日記
func New(dispatcher *Dispatcher) *Diary {
	if dispatcher == nil {
		dispatcher = NewDispatcher()
	}
	meals := make(map[string]*MealLog, len(Categories))
	for _, c := range Categories {
		meals[c] = newMealLog()
	}
	return &Diary{dispatcher: dispatcher, meals: meals}
}

// NormalizeCategory 驗證餐別名稱（不分大小寫）
func NormalizeCategory(category string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(category))
	for _, known := range Categories {
		if c == known {
			return c, nil
		}
	}
	return "", common.NewFieldError("mealType", "mealType must be one of "+strings.Join(Categories, ", "))
}

// LogBatch 透過派送器依序寫入一批紀錄，回傳實際寫入的筆數
func (d *Diary) LogBatch(category string, items []nutrition.FoodLogItem) (int, error) {
	category, err := NormalizeCategory(category)
	if err != nil {
		return 0, err
	}
	log := d.meals[category]

	normalized := make([]nutrition.FoodLogItem, len(items))
	for i, item := range items {
		normalized[i] = nutrition.NormalizeLogItem(item)
	}

	delivery, err := d.dispatcher.Submit(category, normalized)
	if err != nil {
		return 0, err
	}

	appended := 0
	for delivery != nil {
		if log.Append(delivery) {
			appended++
		}
		delivery = d.dispatcher.Confirm(category, delivery.Ticket)
	}

	common.LogInfo("飲食紀錄已寫入",
		zap.String("category", category),
		zap.Int("appended", appended),
	)
	return appended, nil
}

// Meal 取得單一餐別內容
func (d *Diary) Meal(category string) (MealSummary, error) {
	category, err := NormalizeCategory(category)
	if err != nil {
		return MealSummary{}, err
	}
	return d.meals[category].Summary(), nil
}

// Summary 整日內容與合計
func (d *Diary) Summary() Summary {
	out := Summary{Meals: make(map[string]MealSummary, len(d.meals))}

	for _, name := range Categories {
		s := d.meals[name].Summary()
		out.Meals[name] = s
		out.Totals.Calories += s.Totals.Calories
		out.Totals.Items += s.Totals.Items
	}
	return out
}

// Dispatcher 取得派送器
func (d *Diary) Dispatcher() *Dispatcher {
	return d.dispatcher
}
