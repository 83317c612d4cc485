package ozon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config holds seller API credentials and pacing.
type Config struct {
	ClientID          string
	APIKey            string
	BaseURL           string
	RequestsPerMinute int
	Timeout           time.Duration
}

// AnalyticsRequest is the body of POST /v1/analytics/data.
type AnalyticsRequest struct {
	DateFrom  string   `json:"date_from"`
	DateTo    string   `json:"date_to"`
	Dimension []string `json:"dimension"`
	Metrics   []string `json:"metrics"`
	Limit     int      `json:"limit"`
	Offset    int      `json:"offset"`
}

// AnalyticsResponse wraps one page of analytics rows.
type AnalyticsResponse struct {
	Result struct {
		Data []AnalyticsItem `json:"data"`
	} `json:"result"`
}

// AnalyticsItem is one row of /v1/analytics/data. Metrics arrive either as
// a plain array in request order or as {id, value} objects.
type AnalyticsItem struct {
	Dimensions []Dimension     `json:"dimensions"`
	Metrics    json.RawMessage `json:"metrics"`
}

// Dimension is one dimension value of an analytics row.
type Dimension struct {
	ID    FlexString `json:"id"`
	Value FlexString `json:"value"`
	Name  FlexString `json:"name"`
}

// MetricValue is the object form of a metric.
type MetricValue struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// ProductInfoRequest is the body of POST /v3/product/info/list.
type ProductInfoRequest struct {
	SKU []string `json:"sku"`
}

// ProductInfoResponse lists products; older accounts answer under "result".
type ProductInfoResponse struct {
	Items  []ProductInfo `json:"items"`
	Result []ProductInfo `json:"result"`
}

// ProductInfo is the part of a product card used for enrichment.
type ProductInfo struct {
	ID         FlexString  `json:"id"`
	SKU        FlexString  `json:"sku"`
	OfferID    string      `json:"offer_id"`
	Name       string      `json:"name"`
	Attributes []Attribute `json:"attributes"`
}

// Attribute is a named product attribute.
type Attribute struct {
	Name   string     `json:"name"`
	NameRU string     `json:"name_ru"`
	Value  FlexString `json:"value"`
}

// ModelAttribute returns the "Модель" attribute value, if any.
func (p ProductInfo) ModelAttribute() string {
	for _, a := range p.Attributes {
		if a.Name == "Модель" || a.NameRU == "Модель" {
			return string(a.Value)
		}
	}
	return ""
}

// FlexString accepts JSON strings and numbers.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("ozon: expected string or number, got %s", data)
	}
	*s = FlexString(n.String())
	return nil
}

// APIError is a non-2xx answer from the seller API.
type APIError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ozon %s: status %d: %s", e.Path, e.StatusCode, e.Message)
}

// Rejected reports whether the API refused the request itself (4xx) rather
// than failing to serve it. Throttling is not a rejection.
func (e *APIError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}
