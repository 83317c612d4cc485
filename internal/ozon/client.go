// Package ozon is a client for the Ozon Seller API analytics and product
// endpoints, plus the decoding of analytics rows into wide-table rows.
package ozon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/pkg/httpretry"
	"github.com/ignite/commerce-ingest/internal/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api-seller.ozon.ru"
	PageLimit      = 1000
	infoBatchSize  = 100
)

// Client is the Ozon Seller API client
type Client struct {
	baseURL    string
	clientID   string
	apiKey     string
	httpClient httpretry.HTTPDoer
	limiter    *rate.Limiter
}

// NewClient creates a client paced at cfg.RequestsPerMinute.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		clientID:   cfg.ClientID,
		apiKey:     cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout}, 3),
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// SetRateLimit replaces the request pacing.
func (c *Client) SetRateLimit(limit rate.Limit) {
	c.limiter = rate.NewLimiter(limit, 1)
}

func (c *Client) doRequest(ctx context.Context, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ozon %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Path: path, StatusCode: resp.StatusCode, Message: errorMessage(respBody, resp.Status)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("ozon %s: decode response: %w", path, err)
	}
	return nil
}

func errorMessage(body []byte, status string) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	if len(body) > 400 {
		body = body[:400]
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return status
}

// FetchDay pages /v1/analytics/data for one day until a short page.
func (c *Client) FetchDay(ctx context.Context, date string, metrics []string) ([]AnalyticsItem, int, error) {
	req := AnalyticsRequest{
		DateFrom:  date,
		DateTo:    date,
		Dimension: normalize.OzonDimensions,
		Metrics:   metrics,
		Limit:     PageLimit,
	}
	var all []AnalyticsItem
	pages := 0
	for {
		var resp AnalyticsResponse
		if err := c.doRequest(ctx, "/v1/analytics/data", req, &resp); err != nil {
			return nil, pages, err
		}
		pages++
		all = append(all, resp.Result.Data...)
		if len(resp.Result.Data) < req.Limit {
			return all, pages, nil
		}
		req.Offset += req.Limit
	}
}

// DayReport is the analytics of one day and the metric list that was accepted.
type DayReport struct {
	Date    string
	Items   []AnalyticsItem
	Metrics []string
	Pages   int
}

// MetricCombos returns the metric lists tried in order: base metrics with
// each unique-visitor naming, then base metrics alone.
func MetricCombos() [][]string {
	combos := make([][]string, 0, len(normalize.OzonUVMetricCombos)+1)
	for _, uv := range normalize.OzonUVMetricCombos {
		list := append(append([]string{}, normalize.OzonBaseMetrics...), uv...)
		combos = append(combos, list)
	}
	return append(combos, append([]string{}, normalize.OzonBaseMetrics...))
}

// FetchDayWithFallback tries each metric combo until the API accepts one.
// Only rejections (4xx) move on to the next combo.
func (c *Client) FetchDayWithFallback(ctx context.Context, date string) (*DayReport, error) {
	var lastErr error
	for _, metrics := range MetricCombos() {
		items, pages, err := c.FetchDay(ctx, date, metrics)
		if err == nil {
			return &DayReport{Date: date, Items: items, Metrics: metrics, Pages: pages}, nil
		}
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Rejected() {
			return nil, err
		}
		logger.Debug("ozon metric combo rejected", "date", date, "metrics", len(metrics), "error", apiErr.Message)
		lastErr = err
	}
	return nil, fmt.Errorf("analytics/data error (all metric combos failed): %w", lastErr)
}

// ProductInfo looks up product cards by sku in batches of 100.
func (c *Client) ProductInfo(ctx context.Context, skus []string) (map[string]ProductInfo, error) {
	out := make(map[string]ProductInfo, len(skus))
	for i := 0; i < len(skus); i += infoBatchSize {
		end := min(i+infoBatchSize, len(skus))
		var resp ProductInfoResponse
		if err := c.doRequest(ctx, "/v3/product/info/list", ProductInfoRequest{SKU: skus[i:end]}, &resp); err != nil {
			return out, err
		}
		items := resp.Items
		if len(items) == 0 {
			items = resp.Result
		}
		for _, p := range items {
			key := string(p.SKU)
			if key == "" {
				key = string(p.ID)
			}
			if key != "" {
				out[key] = p
			}
		}
	}
	return out, nil
}
