package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nutrition-tracker/internal/core/cache"
	"nutrition-tracker/internal/core/nutrition"
	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 預設名稱
const (
	unknownProduct = "Unknown product"
	unknownBrand   = "Unknown brand"
)

// offResponse Open Food Facts 商品回應
type offResponse struct {
	Status        int    `json:"status"`
	StatusVerbose string `json:"status_verbose"`
	Product       struct {
		ProductName string                 `json:"product_name"`
		Brands      string                 `json:"brands"`
		Nutriments  map[string]interface{} `json:"nutriments"`
	} `json:"product"`
}

// Client Open Food Facts 條碼查詢
type Client struct {
	http     *resty.Client
	cache    cache.Store
	cacheTTL time.Duration
}

// NewClient 建立查詢客戶端，store 可為 nil
func NewClient(cfg config.OFFConfig, store cache.Store) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.UserAgent != "" {
		httpClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	return &Client{
		http:     httpClient,
		cache:    store,
		cacheTTL: cfg.CacheTTL,
	}
}

// Lookup 以條碼查詢商品名稱、品牌、熱量與三大營養素
func (c *Client) Lookup(ctx context.Context, barcode string) (*nutrition.Product, error) {
	key := cache.Key("product", barcode)
	if cached := c.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	common.LogInfo("查詢條碼商品", zap.String("barcode", barcode))

	var body offResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("code", barcode).
		SetResult(&body).
		Get("/api/v0/product/{code}.json")
	if err != nil {
		common.LogError("Open Food Facts 請求失敗", zap.String("barcode", barcode), zap.Error(err))
		return nil, common.NewError(common.ErrCodeUpstream, "Failed to fetch product data", http.StatusInternalServerError, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, &nutrition.NotFoundError{Message: "Product not found"}
	}
	if resp.IsError() {
		return nil, common.NewError(common.ErrCodeUpstream,
			fmt.Sprintf("Failed to fetch product data: status %d", resp.StatusCode()), http.StatusInternalServerError, nil)
	}
	if body.Status != 1 {
		common.LogInfo("查無條碼商品",
			zap.String("barcode", barcode),
			zap.String("status_verbose", body.StatusVerbose),
		)
		return nil, &nutrition.NotFoundError{Message: "Product not found"}
	}

	product := toProduct(&body)
	c.store(ctx, key, product)
	return product, nil
}

// toProduct 轉換為對外商品格式
func toProduct(body *offResponse) *nutrition.Product {
	name := strings.TrimSpace(body.Product.ProductName)
	if name == "" {
		name = unknownProduct
	}
	brand := strings.TrimSpace(body.Product.Brands)
	if brand == "" {
		brand = unknownBrand
	}

	nutriments := body.Product.Nutriments
	if nutriments == nil {
		nutriments = map[string]interface{}{}
	}

	return &nutrition.Product{
		Name:     name,
		Brand:    brand,
		Calories: nutrition.ExtractCalories(nutriments),
		Macros:   nutrition.ExtractMacros(nutriments),
	}
}

func (c *Client) fromCache(ctx context.Context, key string) *nutrition.Product {
	if c.cache == nil {
		return nil
	}
	val, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, common.ErrCacheMiss) {
			common.LogWarn("讀取商品快取失敗", zap.Error(err))
		}
		return nil
	}

	var product nutrition.Product
	if err := json.Unmarshal([]byte(val), &product); err != nil {
		return nil
	}
	return &product
}

func (c *Client) store(ctx context.Context, key string, product *nutrition.Product) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(data), c.cacheTTL); err != nil {
		common.LogWarn("寫入商品快取失敗", zap.Error(err))
	}
}
