// Package shopify reads orders from the Shopify Admin REST API and rolls them
// up into per-product daily facts.
package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/ignite/commerce-ingest/internal/pkg/httpretry"
)

const pageLimit = 250

var nextLink = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// Config holds the shop domain and Admin API token.
type Config struct {
	Shop        string
	AccessToken string
	APIVersion  string
	// BaseURL overrides https://<shop>.
	BaseURL string
	Timeout time.Duration
}

// Client is the Shopify Admin API client
type Client struct {
	baseURL    string
	token      string
	version    string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a client for one shop.
func NewClient(cfg Config) *Client {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "2024-04"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	base := cfg.BaseURL
	if base == "" {
		base = "https://" + strings.TrimPrefix(strings.TrimPrefix(cfg.Shop, "https://"), "http://")
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		token:      cfg.AccessToken,
		version:    cfg.APIVersion,
		httpClient: httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// Order is the subset of an order used for aggregation.
type Order struct {
	ID        json.Number `json:"id"`
	CreatedAt string      `json:"created_at"`
	Currency  string      `json:"currency"`
	Customer  *Customer   `json:"customer"`
	LineItems []LineItem  `json:"line_items"`
}

// Customer identifies the buyer of an order.
type Customer struct {
	ID json.Number `json:"id"`
}

// LineItem is one product line of an order.
type LineItem struct {
	ProductID json.Number `json:"product_id"`
	Quantity  float64     `json:"quantity"`
	Price     string      `json:"price"`
}

// OrdersForDay returns every order created on the UTC day date (YYYY-MM-DD),
// following Link rel="next" pages.
func (c *Client) OrdersForDay(ctx context.Context, date string) ([]Order, error) {
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}
	q := url.Values{}
	q.Set("status", "any")
	q.Set("created_at_min", day.UTC().Format("2006-01-02T15:04:05.000Z"))
	q.Set("created_at_max", day.Add(24*time.Hour-time.Millisecond).UTC().Format("2006-01-02T15:04:05.000Z"))
	q.Set("limit", fmt.Sprint(pageLimit))
	q.Set("fields", "id,created_at,currency,customer,line_items")

	next := fmt.Sprintf("%s/admin/api/%s/orders.json?%s", c.baseURL, c.version, q.Encode())
	var orders []Order
	for next != "" {
		page, link, err := c.getOrders(ctx, next)
		if err != nil {
			return nil, err
		}
		orders = append(orders, page...)
		next = ""
		if m := nextLink.FindStringSubmatch(link); m != nil {
			next = m[1]
		}
	}
	return orders, nil
}

func (c *Client) getOrders(ctx context.Context, pageURL string) ([]Order, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("Shopify API error: %d %s", resp.StatusCode, string(body))
	}

	var out struct {
		Orders []Order `json:"orders"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, "", fmt.Errorf("decode orders: %w", err)
	}
	return out.Orders, resp.Header.Get("Link"), nil
}
