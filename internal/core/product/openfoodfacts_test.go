package product

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nutrition-tracker/internal/core/cache"
	"nutrition-tracker/internal/core/nutrition"
	"nutrition-tracker/internal/infrastructure/config"
	"nutrition-tracker/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOFFServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/v0/product/3017620422003.json":
			_, _ = w.Write([]byte(`{"status":1,"product":{"product_name":"Nutella","brands":"Ferrero","nutriments":{"energy-kcal_100g":539,"energy_100g":2252,"proteins_100g":6.3,"carbohydrates_100g":57.5,"fat_100g":30.9}}}`))
		case "/api/v0/product/5000000000001.json":
			_, _ = w.Write([]byte(`{"status":1,"product":{"nutriments":{"energy":"1046","proteins":"3"}}}`))
		case "/api/v0/product/0000000000000.json":
			_, _ = w.Write([]byte(`{"status":0,"status_verbose":"product not found"}`))
		case "/api/v0/product/11111111.json":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":0}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
}

func newTestClient(url string, store cache.Store) *Client {
	return NewClient(config.OFFConfig{
		BaseURL:   url,
		Timeout:   5 * time.Second,
		UserAgent: "nutrition-tracker-test",
		CacheTTL:  time.Minute,
	}, store)
}

func TestLookup_Found(t *testing.T) {
	var hits int32
	srv := newOFFServer(t, &hits)
	defer srv.Close()

	product, err := newTestClient(srv.URL, nil).Lookup(context.Background(), "3017620422003")
	require.NoError(t, err)
	assert.Equal(t, &nutrition.Product{
		Name:     "Nutella",
		Brand:    "Ferrero",
		Calories: 539,
		Macros:   common.Macros{Protein: 6.3, Carbs: 57.5, Fat: 30.9},
	}, product)
}

func TestLookup_DefaultsAndKilojoules(t *testing.T) {
	var hits int32
	srv := newOFFServer(t, &hits)
	defer srv.Close()

	product, err := newTestClient(srv.URL, nil).Lookup(context.Background(), "5000000000001")
	require.NoError(t, err)
	assert.Equal(t, "Unknown product", product.Name)
	assert.Equal(t, "Unknown brand", product.Brand)
	assert.Equal(t, 250, product.Calories)
	assert.Equal(t, 3.0, product.Macros.Protein)
}

func TestLookup_NotFound(t *testing.T) {
	var hits int32
	srv := newOFFServer(t, &hits)
	defer srv.Close()

	client := newTestClient(srv.URL, nil)
	for _, code := range []string{"0000000000000", "11111111"} {
		_, err := client.Lookup(context.Background(), code)

		var nf *nutrition.NotFoundError
		require.ErrorAs(t, err, &nf, code)
		assert.Equal(t, "Product not found", nf.Error())
		assert.Equal(t, http.StatusNotFound, common.StatusOf(err))
	}
}

func TestLookup_UpstreamFailure(t *testing.T) {
	var hits int32
	srv := newOFFServer(t, &hits)
	defer srv.Close()

	_, err := newTestClient(srv.URL, nil).Lookup(context.Background(), "99999999")
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, common.StatusOf(err))
}

func TestLookup_UsesCache(t *testing.T) {
	var hits int32
	srv := newOFFServer(t, &hits)
	defer srv.Close()

	store := cache.NewManager(cache.Options{Name: "products", MaxSize: 10, TTL: time.Minute})
	defer store.Close()
	client := newTestClient(srv.URL, store)

	first, err := client.Lookup(context.Background(), "3017620422003")
	require.NoError(t, err)
	second, err := client.Lookup(context.Background(), "3017620422003")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// 查無資料不快取
	_, _ = client.Lookup(context.Background(), "0000000000000")
	_, _ = client.Lookup(context.Background(), "0000000000000")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}
