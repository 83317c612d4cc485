package ozon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func testClient(srv *httptest.Server) *Client {
	c := NewClient(Config{ClientID: "123", APIKey: "key", BaseURL: srv.URL})
	c.SetHTTPClient(srv.Client())
	c.SetRateLimit(rate.Inf)
	return c
}

func TestFetchDayPages(t *testing.T) {
	var mu sync.Mutex
	var offsets []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/analytics/data", r.URL.Path)
		assert.Equal(t, "123", r.Header.Get("Client-Id"))
		assert.Equal(t, "key", r.Header.Get("Api-Key"))

		var req AnalyticsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2025-01-05", req.DateFrom)
		assert.Equal(t, normalize.OzonDimensions, req.Dimension)
		mu.Lock()
		offsets = append(offsets, req.Offset)
		mu.Unlock()

		n := PageLimit
		if req.Offset > 0 {
			n = 3
		}
		items := make([]map[string]any, n)
		for i := range items {
			items[i] = map[string]any{
				"dimensions": []map[string]any{{"id": fmt.Sprint(req.Offset + i), "name": "t"}},
				"metrics":    []float64{1},
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"data": items}})
	}))
	defer srv.Close()

	items, pages, err := testClient(srv).FetchDay(context.Background(), "2025-01-05", []string{"hits_view"})
	require.NoError(t, err)
	assert.Len(t, items, PageLimit+3)
	assert.Equal(t, 2, pages)
	assert.Equal(t, []int{0, PageLimit}, offsets)
}

func TestFetchDayWithFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req AnalyticsRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		for _, m := range req.Metrics {
			if m == "unique_view" || m == "uniq_view" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"code":3,"message":"metric ` + m + ` is not allowed"}`))
				return
			}
		}
		w.Write([]byte(`{"result":{"data":[]}}`))
	}))
	defer srv.Close()

	day, err := testClient(srv).FetchDayWithFallback(context.Background(), "2025-01-05")
	require.NoError(t, err)
	assert.Equal(t, MetricCombos()[2], day.Metrics)
	assert.Contains(t, day.Metrics, "visitors_pdp")
}

func TestFetchDayWithFallbackAllRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Invalid Api-Key"}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).FetchDayWithFallback(context.Background(), "2025-01-05")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all metric combos failed")
	assert.Contains(t, err.Error(), "Invalid Api-Key")
}

func TestMetricCombos(t *testing.T) {
	combos := MetricCombos()
	require.Len(t, combos, 4)
	assert.Len(t, combos[0], len(normalize.OzonBaseMetrics)+3)
	assert.Equal(t, normalize.OzonBaseMetrics, combos[3])
}

func TestProductInfoBatches(t *testing.T) {
	var mu sync.Mutex
	var sizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/product/info/list", r.URL.Path)
		var req ProductInfoRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		sizes = append(sizes, len(req.SKU))
		mu.Unlock()
		items := make([]map[string]any, 0, len(req.SKU))
		for _, s := range req.SKU {
			items = append(items, map[string]any{"sku": json.Number(s), "offer_id": "OF-" + s})
		}
		json.NewEncoder(w).Encode(map[string]any{"items": items})
	}))
	defer srv.Close()

	skus := make([]string, 250)
	for i := range skus {
		skus[i] = fmt.Sprint(1000 + i)
	}
	info, err := testClient(srv).ProductInfo(context.Background(), skus)
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, []int{100, 100, 50}, sizes)
	mu.Unlock()
	assert.Len(t, info, 250)
	assert.Equal(t, "OF-1249", info["1249"].OfferID)
}
