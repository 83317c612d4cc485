package query

import (
	"context"
	"strings"
)

// DefaultAESite is the site queried when none is given.
const DefaultAESite = "ae_self_operated_a"

// AggregateMode selects how AE rows are grouped.
type AggregateMode string

const (
	// ByTime groups per product and bucket.
	ByTime AggregateMode = "time"
	// ByProduct groups per product over the whole range.
	ByProduct AggregateMode = "product"
)

// ParseAggregateMode accepts time or product; empty means time.
func ParseAggregateMode(s string) (AggregateMode, error) {
	switch m := AggregateMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ByTime, nil
	case ByTime, ByProduct:
		return m, nil
	}
	return "", ErrInvalidAggregate
}

// AEQuery selects AliExpress rows for aggregation.
type AEQuery struct {
	Site        string
	Start       string
	End         string
	Granularity Granularity
	Mode        AggregateMode
}

// AEBucket is one product in one bucket. The ratios are only set in
// product mode.
type AEBucket struct {
	ProductID      string   `json:"product_id"`
	Bucket         string   `json:"bucket"`
	BucketLabel    string   `json:"bucket_label"`
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
	VisitorRatio   *float64 `json:"visitor_ratio"`
	AddToCartRatio *float64 `json:"add_to_cart_ratio"`
	PaymentRatio   *float64 `json:"payment_ratio"`
}

// AEQuery aggregates one site's product-days.
func (s *Service) AEQuery(ctx context.Context, q AEQuery) ([]AEBucket, error) {
	if err := validRange(q.Start, q.End); err != nil {
		return nil, err
	}
	if q.Site == "" {
		q.Site = DefaultAESite
	}
	if q.Granularity == "" {
		q.Granularity = Day
	}
	if q.Mode == "" {
		q.Mode = ByTime
	}
	rows, err := readAll(ctx, func(ctx context.Context, limit, offset int) ([]AEDaily, error) {
		return s.repo.AEDaily(ctx, q.Site, q.Start, q.End, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return AggregateAE(rows, q), nil
}

type aeAcc struct {
	out  AEBucket
	span dateSpan
	ctr  weighted
	stay weighted
}

// AggregateAE groups rows in first-seen order. search_ctr is weighted by
// exposure and avg_stay_seconds by visitors.
func AggregateAE(rows []AEDaily, q AEQuery) []AEBucket {
	var order []string
	groups := make(map[string]*aeAcc)
	for _, r := range rows {
		key, bucket := r.ProductID, q.Start+"~"+q.End
		if q.Mode != ByProduct {
			bucket = Bucket(r.StatDate, q.Granularity)
			key = r.ProductID + "__" + bucket
		}
		acc, ok := groups[key]
		if !ok {
			acc = &aeAcc{out: AEBucket{ProductID: r.ProductID, Bucket: bucket}}
			groups[key] = acc
			order = append(order, key)
		}
		o := &acc.out
		o.Exposure += r.Exposure
		o.Visitors += r.Visitors
		o.Views += r.Views
		o.AddPeople += r.AddPeople
		o.AddCount += r.AddCount
		o.PayItems += r.PayItems
		o.PayOrders += r.PayOrders
		o.PayBuyers += r.PayBuyers
		o.FavPeople += r.FavPeople
		o.FavCount += r.FavCount
		o.OrderItems += r.OrderItems
		acc.ctr.add(r.SearchCTR, r.Exposure)
		acc.stay.add(r.AvgStaySeconds, r.Visitors)
		acc.span.add(r.StatDate)
	}

	out := make([]AEBucket, 0, len(order))
	for _, key := range order {
		acc := groups[key]
		o := acc.out
		o.SearchCTR = acc.ctr.mean()
		o.AvgStaySeconds = acc.stay.mean()
		if q.Mode == ByProduct {
			o.BucketLabel = o.Bucket
			o.VisitorRatio = percent(o.Visitors, o.Exposure)
			o.AddToCartRatio = percent(o.AddCount, o.Visitors)
			o.PaymentRatio = percent(o.PayItems, o.AddCount)
		} else {
			o.BucketLabel = bucketLabel(q.Granularity, o.Bucket, acc.span.min, acc.span.max)
		}
		out = append(out, o)
	}
	return out
}
