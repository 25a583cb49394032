package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nutrition-tracker/internal/core/cache"
	"nutrition-tracker/internal/core/nutrition"
	"nutrition-tracker/internal/pkg/common"

	"go.uber.org/zap"
)

const keyNamespace = "handoff"

// Payload 從餐點計畫帶到日記畫面的單餐資料
type Payload struct {
	Day  string                `json:"day"`
	Meal nutrition.MealDetails `json:"meal"`
}

// Ticket 交接憑證
type Ticket struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store 以短效鍵值儲存跨畫面交接資料，每筆資料只能取用一次
type Store struct {
	backend cache.Store
	ttl     time.Duration
}

// NewStore 建立交接儲存
func NewStore(backend cache.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{backend: backend, ttl: ttl}
}

// Save 儲存資料並回傳憑證
func (s *Store) Save(ctx context.Context, payload Payload) (*Ticket, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode handoff payload: %w", err)
	}

	token := common.GenerateUUID()
	if err := s.backend.Set(ctx, cache.Key(keyNamespace, token), string(data), s.ttl); err != nil {
		return nil, fmt.Errorf("failed to store handoff payload: %w", err)
	}

	common.LogDebug("交接資料已儲存", zap.String("token", token), zap.Duration("ttl", s.ttl))
	return &Ticket{Token: token, ExpiresAt: time.Now().Add(s.ttl)}, nil
}

// Consume 取出並刪除資料；不存在或已過期回傳 NotFoundError
func (s *Store) Consume(ctx context.Context, token string) (*Payload, error) {
	val, err := s.backend.Take(ctx, cache.Key(keyNamespace, token))
	if err != nil {
		if errors.Is(err, common.ErrCacheMiss) {
			return nil, &nutrition.NotFoundError{Message: "Handoff not found or expired"}
		}
		return nil, fmt.Errorf("failed to read handoff payload: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal([]byte(val), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode handoff payload: %w", err)
	}
	return &payload, nil
}

// TTL 資料存活時間
func (s *Store) TTL() time.Duration {
	return s.ttl
}
