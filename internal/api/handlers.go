package api

import (
	"context"
	"net/http"

	"github.com/ignite/commerce-ingest/internal/amazon"
	"github.com/ignite/commerce-ingest/internal/config"
	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
	"github.com/ignite/commerce-ingest/internal/pkg/httputil"
	"github.com/ignite/commerce-ingest/internal/service/ingest"
	"github.com/ignite/commerce-ingest/internal/service/pull"
	"github.com/ignite/commerce-ingest/internal/service/query"
)

// AmazonReports is the Selling-Partner reports API used by the step-by-step
// routes.
type AmazonReports interface {
	CreateReport(ctx context.Context, start, end string, marketplaces []string) (string, error)
	GetReport(ctx context.Context, reportID string) (*amazon.Report, error)
	Download(ctx context.Context, documentID string) ([]normalize.RawRow, error)
}

// Deps are the services behind the handlers. Vendor entries may be nil when
// their credentials are not configured; those routes then answer with the
// missing variable names.
type Deps struct {
	Config      *config.Config
	Ingest      *ingest.Service
	Query       *query.Service
	Amazon      AmazonReports
	AmazonSync  *pull.AmazonSync
	OzonSync    *pull.OzonSync
	ShopifySync *pull.ShopifySync
}

// Handlers contains all HTTP handlers
type Handlers struct {
	cfg         *config.Config
	ingest      *ingest.Service
	query       *query.Service
	amazon      AmazonReports
	amazonSync  *pull.AmazonSync
	ozonSync    *pull.OzonSync
	shopifySync *pull.ShopifySync
}

// NewHandlers creates a new Handlers instance
func NewHandlers(d Deps) *Handlers {
	cfg := d.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &Handlers{
		cfg:         cfg,
		ingest:      d.Ingest,
		query:       d.Query,
		amazon:      d.Amazon,
		amazonSync:  d.AmazonSync,
		ozonSync:    d.OzonSync,
		shopifySync: d.ShopifySync,
	}
}

// requireEnv writes a configuration error when any variable is unset.
func requireEnv(w http.ResponseWriter, missing []string) bool {
	if len(missing) == 0 {
		return true
	}
	httputil.Fail(w, apperr.MissingEnv(missing...))
	return false
}

// notConfigured is used when credentials are present but the client was
// not wired, which only happens in partial test setups.
func notConfigured(w http.ResponseWriter, name string) {
	httputil.Fail(w, &apperr.Error{Kind: apperr.KindConfig, Message: name + " is not configured"})
}

// warningsBody adds the coercion warning count, and the samples when the
// caller asked for them with ?warnings=1.
func warningsBody(r *http.Request, body map[string]any, w *normalize.Warnings) map[string]any {
	body["warnings"] = w.Count()
	if httputil.QueryFlag(r, "warnings") {
		body["warning_samples"] = w.Samples()
	}
	return body
}
