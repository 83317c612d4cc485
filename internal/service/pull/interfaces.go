package pull

import (
	"context"

	"github.com/ignite/commerce-ingest/internal/amazon"
	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/ozon"
	"github.com/ignite/commerce-ingest/internal/service/ingest"
	"github.com/ignite/commerce-ingest/internal/shopify"
)

// AmazonAPI is the part of the Selling-Partner client used by the sync.
type AmazonAPI interface {
	CreateReport(ctx context.Context, start, end string, marketplaces []string) (string, error)
	WaitForReport(ctx context.Context, reportID string) (*amazon.Report, int, error)
	Download(ctx context.Context, documentID string) ([]normalize.RawRow, error)
}

// OzonAPI is the part of the Ozon client used by the sync.
type OzonAPI interface {
	FetchDayWithFallback(ctx context.Context, date string) (*ozon.DayReport, error)
	ProductInfo(ctx context.Context, skus []string) (map[string]ozon.ProductInfo, error)
}

// ShopifyAPI is the part of the Shopify client used by the sync.
type ShopifyAPI interface {
	OrdersForDay(ctx context.Context, date string) ([]shopify.Order, error)
}

// Sink writes pulled rows. *ingest.Service implements it.
type Sink interface {
	AmazonReport(ctx context.Context, raw []normalize.RawRow) (*ingest.Result, error)
	Ozon(ctx context.Context, rows []normalize.OzonRow, route string) (*ingest.OzonResult, error)
	OzonTable() string
	FactRows(ctx context.Context, rows []normalize.FactRow) (int, error)
}
