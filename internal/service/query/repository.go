package query

import "context"

// PageSize is the number of rows read per repository call.
const PageSize = 1000

// Repository defines the read side of the daily tables.
// Implementations must be safe for concurrent use.
type Repository interface {
	// AmazonDaily returns ASIN-days between start and end inclusive,
	// ordered by asin, stat_date.
	AmazonDaily(ctx context.Context, start, end string, limit, offset int) ([]AmazonDaily, error)

	// AEDaily returns product-days of one site, ordered by product_id, stat_date.
	AEDaily(ctx context.Context, site, start, end string, limit, offset int) ([]AEDaily, error)

	// AERecent returns at most limit product-days of one site, newest first.
	AERecent(ctx context.Context, site, from, to string, limit int) ([]AEDaily, error)

	// ManagedPeriodExists reports whether any managed_stats row closes on periodEnd.
	ManagedPeriodExists(ctx context.Context, periodType, periodEnd string) (bool, error)

	// ManagedPeriod returns one page of a period ordered by product_id, and
	// the total row count of the period.
	ManagedPeriod(ctx context.Context, periodType, periodEnd string, limit, offset int) ([]ManagedStat, int, error)

	// ManagedSeries returns a product's periods between from and to by period_end.
	ManagedSeries(ctx context.Context, periodType, productID, from, to string) ([]ManagedStat, error)

	// OzonDates returns the distinct Ozon report days, newest first.
	OzonDates(ctx context.Context) ([]string, error)

	// OzonProducts sums the Ozon report per sku and model over from..to,
	// ordered by sku, model.
	OzonProducts(ctx context.Context, from, to string) ([]OzonProduct, error)

	// MetaAds returns a site's Meta rows whose window starts in from..to,
	// newest first.
	MetaAds(ctx context.Context, site, from, to string, limit, offset int) ([]MetaAdDaily, error)

	// IndependentAds returns a site's independent-site ads rows, newest first.
	IndependentAds(ctx context.Context, site, from, to string, limit, offset int) ([]IndependentAdDaily, error)

	// LatestNewProductDay is the most recent first-seen day of a platform,
	// or "" when it has none.
	LatestNewProductDay(ctx context.Context, platform string) (string, error)

	// NewProducts returns a platform's products first seen in from..to,
	// oldest first.
	NewProducts(ctx context.Context, platform, from, to string, limit int) ([]NewProduct, error)
}

// AmazonDaily is a stored ASIN-day.
type AmazonDaily struct {
	MarketplaceID       string   `json:"marketplace_id"`
	ASIN                string   `json:"asin"`
	StatDate            string   `json:"stat_date"`
	Sessions            float64  `json:"sessions"`
	PageViews           float64  `json:"page_views"`
	UnitsOrdered        float64  `json:"units_ordered"`
	OrderedProductSales float64  `json:"ordered_product_sales"`
	BuyBoxPct           *float64 `json:"buy_box_pct"`
}

// AEDaily is a stored AliExpress product-day.
type AEDaily struct {
	Site           string   `json:"site"`
	ProductID      string   `json:"product_id"`
	StatDate       string   `json:"stat_date"`
	Exposure       float64  `json:"exposure"`
	Visitors       float64  `json:"visitors"`
	Views          float64  `json:"views"`
	AddPeople      float64  `json:"add_people"`
	AddCount       float64  `json:"add_count"`
	PayItems       float64  `json:"pay_items"`
	PayOrders      float64  `json:"pay_orders"`
	PayBuyers      float64  `json:"pay_buyers"`
	FavPeople      float64  `json:"fav_people"`
	FavCount       float64  `json:"fav_count"`
	OrderItems     float64  `json:"order_items"`
	SearchCTR      *float64 `json:"search_ctr"`
	AvgStaySeconds *float64 `json:"avg_stay_seconds"`
}

// ManagedStat is a product's totals for one week or month.
type ManagedStat struct {
	ProductID      string  `json:"product_id"`
	PeriodType     string  `json:"period_type"`
	PeriodEnd      string  `json:"period_end"`
	SearchExposure float64 `json:"search_exposure"`
	Exposure       float64 `json:"exposure"`
	UV             float64 `json:"uv"`
	PV             float64 `json:"pv"`
	AddToCartUsers float64 `json:"add_to_cart_users"`
	AddToCartQty   float64 `json:"add_to_cart_qty"`
	PayItems       float64 `json:"pay_items"`
	PayOrders      float64 `json:"pay_orders"`
	PayBuyers      float64 `json:"pay_buyers"`
}
