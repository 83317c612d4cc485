package query

import "context"

// AmazonBucket is one ASIN in one bucket.
type AmazonBucket struct {
	ASIN                string   `json:"asin"`
	MarketplaceID       string   `json:"marketplace_id"`
	Bucket              string   `json:"bucket"`
	BucketLabel         string   `json:"bucket_label"`
	Sessions            float64  `json:"sessions"`
	PageViews           float64  `json:"page_views"`
	UnitsOrdered        float64  `json:"units_ordered"`
	OrderedProductSales float64  `json:"ordered_product_sales"`
	BuyBoxPct           *float64 `json:"buy_box_pct"`
}

// AmazonQuery aggregates ASIN-days between start and end per ASIN and bucket.
// Counts are summed; buy_box_pct is the session-weighted mean.
func (s *Service) AmazonQuery(ctx context.Context, start, end string, g Granularity) ([]AmazonBucket, error) {
	if err := validRange(start, end); err != nil {
		return nil, err
	}
	rows, err := readAll(ctx, func(ctx context.Context, limit, offset int) ([]AmazonDaily, error) {
		return s.repo.AmazonDaily(ctx, start, end, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return AggregateAmazon(rows, g), nil
}

type amazonAcc struct {
	out    AmazonBucket
	span   dateSpan
	buyBox weighted
}

// AggregateAmazon groups rows by ASIN and bucket in first-seen order. The
// marketplace of a group is the one of its first row.
func AggregateAmazon(rows []AmazonDaily, g Granularity) []AmazonBucket {
	var order []string
	groups := make(map[string]*amazonAcc)
	for _, r := range rows {
		b := Bucket(r.StatDate, g)
		key := r.ASIN + "__" + b
		acc, ok := groups[key]
		if !ok {
			acc = &amazonAcc{out: AmazonBucket{ASIN: r.ASIN, MarketplaceID: r.MarketplaceID, Bucket: b}}
			groups[key] = acc
			order = append(order, key)
		}
		acc.out.Sessions += r.Sessions
		acc.out.PageViews += r.PageViews
		acc.out.UnitsOrdered += r.UnitsOrdered
		acc.out.OrderedProductSales += r.OrderedProductSales
		acc.buyBox.add(r.BuyBoxPct, r.Sessions)
		acc.span.add(r.StatDate)
	}

	out := make([]AmazonBucket, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		acc.out.BucketLabel = bucketLabel(g, acc.out.Bucket, acc.span.min, acc.span.max)
		acc.out.BuyBoxPct = acc.buyBox.mean()
		out = append(out, acc.out)
	}
	return out
}
