package diary

import (
	"encoding/json"
	"net/http"
	"sync"

	"nutrition-tracker/internal/core/nutrition"
	"nutrition-tracker/internal/pkg/common"

	"go.uber.org/zap"
)

// State 派送狀態
type State int

const (
	StateIdle State = iota
	StateDispatching
)

func (s State) String() string {
	if s == StateDispatching {
		return "dispatching"
	}
	return "idle"
}

// ErrBusy 已有批次派送中
var ErrBusy = common.NewError(common.ErrCodeConflict, "a dispatch batch is already in progress", http.StatusConflict, nil)

// Delivery 一次派送：目標分類與單筆紀錄
type Delivery struct {
	Ticket   string                `json:"ticket"`
	Category string                `json:"category"`
	Item     nutrition.FoodLogItem `json:"item"`
}

// Dispatcher 依序將一批紀錄逐筆派送至同一餐別，上一筆確認後才送出下一筆
type Dispatcher struct {
	mu        sync.Mutex
	state     State
	target    string
	remaining []nutrition.FoodLogItem
	current   *Delivery
	lastKey   string
}

// NewDispatcher 建立派送器
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// BatchKey 批次識別鍵：第一筆內容 + 餐別
func BatchKey(category string, items []nutrition.FoodLogItem) string {
	if len(items) == 0 {
		return ""
	}
	first, _ := json.Marshal(items[0])
	return string(first) + "-" + category
}

// Submit 開始派送一批紀錄並回傳第一筆
//
// 批次鍵與上一批相同時不再派送，回傳 nil。派送中再次提交回傳 ErrBusy。
func (d *Dispatcher) Submit(category string, items []nutrition.FoodLogItem) (*Delivery, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateDispatching {
		return nil, ErrBusy
	}
	if len(items) == 0 {
		return nil, nil
	}

	key := BatchKey(category, items)
	if key == d.lastKey {
		common.LogInfo("批次已處理，略過", zap.String("category", category))
		return nil, nil
	}
	d.lastKey = key

	queue := make([]nutrition.FoodLogItem, len(items))
	copy(queue, items)

	d.state = StateDispatching
	d.target = category
	d.remaining = queue[1:]
	d.current = d.newDelivery(queue[0])

	common.LogDebug("開始派送批次",
		zap.String("category", category),
		zap.Int("items", len(items)),
	)
	return d.current, nil
}

// Confirm 餐別確認已寫入目前這筆，回傳下一筆；最後一筆確認後回到 Idle 並回傳 nil
//
// 非目標餐別或票券不符的確認會被忽略。
func (d *Dispatcher) Confirm(category, ticket string) *Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateDispatching || category != d.target || d.current == nil || d.current.Ticket != ticket {
		return nil
	}

	if len(d.remaining) == 0 {
		d.state = StateIdle
		d.target = ""
		d.current = nil
		return nil
	}

	next := d.remaining[0]
	d.remaining = d.remaining[1:]
	d.current = d.newDelivery(next)
	return d.current
}

// State 目前狀態
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Pending 尚未派送的筆數（不含目前這筆）
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.remaining)
}

// Reset 放棄未完成的批次並清除批次鍵
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = StateIdle
	d.target = ""
	d.remaining = nil
	d.current = nil
	d.lastKey = ""
}

func (d *Dispatcher) newDelivery(item nutrition.FoodLogItem) *Delivery {
	return &Delivery{
		Ticket:   common.GenerateUUID(),
		Category: d.target,
		Item:     item,
	}
}
