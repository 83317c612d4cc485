package normalize

// AmazonRow is one ASIN-day of Selling-Partner sales and traffic.
type AmazonRow struct {
	MarketplaceID       string  `json:"marketplace_id"`
	ASIN                string  `json:"asin"`
	StatDate            string  `json:"stat_date"`
	Sessions            float64 `json:"sessions"`
	PageViews           float64 `json:"page_views"`
	UnitsOrdered        float64 `json:"units_ordered"`
	OrderedProductSales float64 `json:"ordered_product_sales"`
	BuyBoxPct           float64 `json:"buy_box_pct"`
}

// AmazonAliases covers both the report document headers (camelCase) and the
// snake_case names used by the upsert endpoint.
var AmazonAliases = AliasTable{
	{"marketplace_id", []string{"marketplace_id", "marketplaceId", "marketplace"}},
	{"asin", []string{"asin", "childAsin", "child_asin"}},
	{"stat_date", []string{"stat_date", "date", "day"}},
	{"sessions", []string{"sessions"}},
	{"page_views", []string{"page_views", "pageViews"}},
	{"units_ordered", []string{"units_ordered", "unitsOrdered", "orders"}},
	{"ordered_product_sales", []string{"ordered_product_sales", "orderedProductSales"}},
	{"buy_box_pct", []string{"buy_box_pct", "buyBoxPercentage"}},
}

var amazonResolver = NewResolver(AmazonAliases, BareKey)

var AmazonColumns = []string{
	"marketplace_id", "asin", "stat_date",
	"sessions", "page_views", "units_ordered", "ordered_product_sales", "buy_box_pct",
}

var AmazonConflict = []string{"asin", "stat_date", "marketplace_id"}

func NormalizeAmazon(row RawRow, c Coercer) AmazonRow {
	get := func(field string) any {
		v, _ := amazonResolver.Lookup(row, field)
		return v
	}
	num := func(field string) float64 { return c.Number(field, get(field)) }
	return AmazonRow{
		MarketplaceID:       Text(get("marketplace_id")),
		ASIN:                Text(get("asin")),
		StatDate:            Date(get("stat_date")),
		Sessions:            num("sessions"),
		PageViews:           num("page_views"),
		UnitsOrdered:        num("units_ordered"),
		OrderedProductSales: num("ordered_product_sales"),
		BuyBoxPct:           num("buy_box_pct"),
	}
}

func (r AmazonRow) Key() (string, bool) {
	return NaturalKey(r.ASIN, r.StatDate, r.MarketplaceID)
}

func (r AmazonRow) Values() []any {
	return []any{
		r.MarketplaceID, r.ASIN, r.StatDate,
		r.Sessions, r.PageViews, r.UnitsOrdered, r.OrderedProductSales, r.BuyBoxPct,
	}
}

// NormalizeAmazonBatch normalizes and deduplicates an upload.
func NormalizeAmazonBatch(rows []RawRow, w *Warnings) []AmazonRow {
	d := NewDeduper(AmazonRow.Key)
	for i, raw := range rows {
		d.Add(NormalizeAmazon(raw, Coercer{W: w, Row: i}))
	}
	return d.Rows()
}
