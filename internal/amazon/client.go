// Package amazon talks to the Selling-Partner Reports API: it trades the LWA
// refresh token for access tokens, requests sales and traffic reports, waits
// for them and downloads the decrypted documents as raw rows.
package amazon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/pkg/httpretry"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultTokenURL = "https://api.amazon.com/auth/o2/token"
	reportsPath     = "/reports/2021-06-30"
)

// Client is the Selling-Partner API client
type Client struct {
	endpoint     string
	marketplaces []string
	tokens       oauth2.TokenSource
	httpClient   httpretry.HTTPDoer
	pollAttempts int
	pollInterval time.Duration
}

// NewClient creates a client. Access tokens are cached by the token source
// and refreshed shortly before they expire.
func NewClient(cfg Config) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = 30
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Minute
	}

	oauthConfig := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: 30 * time.Second})

	return &Client{
		endpoint:     cfg.Endpoint,
		marketplaces: cfg.MarketplaceIDs,
		tokens:       oauthConfig.TokenSource(tokenCtx, &oauth2.Token{RefreshToken: cfg.RefreshToken}),
		httpClient:   httpretry.NewRetryClient(&http.Client{Timeout: cfg.Timeout}, 3),
		pollAttempts: cfg.PollAttempts,
		pollInterval: cfg.PollInterval,
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// MarketplaceIDs returns the configured marketplaces.
func (c *Client) MarketplaceIDs() []string { return c.marketplaces }

// AccessToken returns a valid LWA access token.
func (c *Client) AccessToken() (string, error) {
	tok, err := c.tokens.Token()
	if err != nil {
		return "", fmt.Errorf("lwa access token: %w", err)
	}
	return tok.AccessToken, nil
}

func (c *Client) doRequest(ctx context.Context, op, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	token, err := c.AccessToken()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-amz-access-token", token)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// CreateReport queues a daily, child-ASIN sales and traffic report. An empty
// marketplaces list uses the configured ones.
func (c *Client) CreateReport(ctx context.Context, start, end string, marketplaces []string) (string, error) {
	if len(marketplaces) == 0 {
		marketplaces = c.marketplaces
	}
	req := CreateReportRequest{
		ReportType:     ReportTypeSalesAndTraffic,
		DataStartTime:  start,
		DataEndTime:    end,
		MarketplaceIDs: marketplaces,
		ReportOptions:  map[string]any{"dateGranularity": "DAY", "asinGranularity": "CHILD"},
	}
	var out CreateReportResponse
	if err := c.doRequest(ctx, "create report", http.MethodPost, reportsPath+"/reports", req, &out); err != nil {
		return "", err
	}
	return out.ReportID, nil
}

// GetReport returns the current status of a report.
func (c *Client) GetReport(ctx context.Context, reportID string) (*Report, error) {
	var out Report
	path := reportsPath + "/reports/" + url.PathEscape(reportID)
	if err := c.doRequest(ctx, "get report", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDocument returns the download location of a report document.
func (c *Client) GetDocument(ctx context.Context, documentID string) (*Document, error) {
	var out Document
	path := reportsPath + "/documents/" + url.PathEscape(documentID)
	if err := c.doRequest(ctx, "get document", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WaitForReport polls until the report is DONE, paced by the configured
// interval. It returns the final report and the number of polls made.
func (c *Client) WaitForReport(ctx context.Context, reportID string) (*Report, int, error) {
	limiter := rate.NewLimiter(rate.Every(c.pollInterval), 1)
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return nil, attempt - 1, err
		}
		report, err := c.GetReport(ctx, reportID)
		if err != nil {
			return nil, attempt, err
		}
		switch report.ProcessingStatus {
		case StatusDone:
			if report.DocumentID() == "" {
				return report, attempt, ErrNoDocument
			}
			return report, attempt, nil
		case StatusFatal, StatusCancelled:
			return report, attempt, &ReportFailedError{ReportID: reportID, Status: report.ProcessingStatus}
		}
	}
	return nil, c.pollAttempts, ErrPollTimeout
}

// Download fetches a report document and returns its rows in file order.
func (c *Client) Download(ctx context.Context, documentID string) ([]normalize.RawRow, error) {
	doc, err := c.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.URL == "" {
		return nil, ErrBadDocument
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, doc.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download document: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Op: "download document", StatusCode: resp.StatusCode, Body: string(payload)}
	}

	text, err := DecodeDocument(doc, payload)
	if err != nil {
		return nil, err
	}
	return ParseReport(text)
}
