package pull

import (
	"context"
	"time"

	"github.com/ignite/commerce-ingest/internal/shopify"
)

// ShopifySync rolls one day of orders up into fact rows.
type ShopifySync struct {
	api  ShopifyAPI
	sink Sink
	now  func() time.Time
}

func NewShopifySync(api ShopifyAPI, sink Sink) *ShopifySync {
	return &ShopifySync{api: api, sink: sink, now: time.Now}
}

// SetClock replaces the clock (useful for testing).
func (s *ShopifySync) SetClock(now func() time.Time) { s.now = now }

// ShopifyDay summarizes one synced day.
type ShopifyDay struct {
	Date     string
	Orders   int
	Products int
	Upserted int
}

// Day syncs date, or yesterday UTC when date is empty.
func (s *ShopifySync) Day(ctx context.Context, date string) (*ShopifyDay, error) {
	if date == "" {
		date = yesterdayUTC(s.now())
	}
	if _, err := parseDay(date); err != nil {
		return nil, err
	}
	orders, err := s.api.OrdersForDay(ctx, date)
	if err != nil {
		return nil, err
	}
	rows := shopify.Aggregate(orders, date)
	n, err := s.sink.FactRows(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &ShopifyDay{Date: date, Orders: len(orders), Products: len(rows), Upserted: n}, nil
}
