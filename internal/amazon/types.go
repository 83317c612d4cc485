package amazon

import (
	"errors"
	"fmt"
	"time"
)

// ReportTypeSalesAndTraffic is the only report this service consumes.
const ReportTypeSalesAndTraffic = "GET_SALES_AND_TRAFFIC_REPORT"

// Report processing states.
const (
	StatusInQueue    = "IN_QUEUE"
	StatusInProgress = "IN_PROGRESS"
	StatusDone       = "DONE"
	StatusFatal      = "FATAL"
	StatusCancelled  = "CANCELLED"
)

var (
	ErrPollTimeout  = errors.New("Report polling timeout - maximum attempts reached")
	ErrNoDocument   = errors.New("report finished without a document id")
	ErrBadDocument  = errors.New("Invalid document info returned")
	ErrBadPadding   = errors.New("invalid PKCS7 padding")
	ErrNotEncrypted = errors.New("ciphertext is not a multiple of the block size")
)

// Config holds Selling-Partner credentials and polling bounds.
type Config struct {
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	TokenURL       string
	Endpoint       string
	MarketplaceIDs []string
	PollAttempts   int
	PollInterval   time.Duration
	Timeout        time.Duration
}

// CreateReportRequest is the body of POST /reports/2021-06-30/reports.
type CreateReportRequest struct {
	ReportType     string         `json:"reportType"`
	DataStartTime  string         `json:"dataStartTime"`
	DataEndTime    string         `json:"dataEndTime"`
	MarketplaceIDs []string       `json:"marketplaceIds"`
	ReportOptions  map[string]any `json:"reportOptions,omitempty"`
}

// CreateReportResponse carries the id of a queued report.
type CreateReportResponse struct {
	ReportID string `json:"reportId"`
}

// Report is the status record of a report request.
type Report struct {
	ReportID            string `json:"reportId"`
	ReportType          string `json:"reportType"`
	ProcessingStatus    string `json:"processingStatus"`
	ReportDocumentID    string `json:"reportDocumentId,omitempty"`
	LegacyDocumentID    string `json:"documentId,omitempty"`
	CreatedTime         string `json:"createdTime,omitempty"`
	ProcessingStartTime string `json:"processingStartTime,omitempty"`
	ProcessingEndTime   string `json:"processingEndTime,omitempty"`
}

// DocumentID returns the document id; older responses used "documentId".
func (r *Report) DocumentID() string {
	if r.ReportDocumentID != "" {
		return r.ReportDocumentID
	}
	return r.LegacyDocumentID
}

// Document describes where a finished report can be downloaded.
type Document struct {
	ReportDocumentID     string             `json:"reportDocumentId"`
	URL                  string             `json:"url"`
	EncryptionDetails    *EncryptionDetails `json:"encryptionDetails,omitempty"`
	CompressionAlgorithm string             `json:"compressionAlgorithm,omitempty"`
}

// EncryptionDetails holds the base64 AES-256-CBC key and IV.
type EncryptionDetails struct {
	Standard             string `json:"standard"`
	Key                  string `json:"key"`
	InitializationVector string `json:"initializationVector"`
}

// APIError is a non-2xx answer from Amazon.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// ReportFailedError is returned when a report ends FATAL or CANCELLED.
type ReportFailedError struct {
	ReportID string
	Status   string
}

func (e *ReportFailedError) Error() string {
	return fmt.Sprintf("Report processing failed with status: %s", e.Status)
}
