package query

import (
	"context"
	"strings"
	"time"
)

const (
	defaultNewProductLimit = 500
	maxNewProductLimit     = 5000
)

// Platforms whose new products can be listed.
const (
	PlatformManaged = "managed"
	PlatformSelf    = "self"
)

// NewProduct is a product first seen on FirstSeen. FirstSeenMMDD is the same
// day as MMDD, the way the dashboards label it.
type NewProduct struct {
	ProductID     string `json:"product_id"`
	FirstSeen     string `json:"first_seen"`
	FirstSeenMMDD string `json:"first_seen_mmdd"`
}

// NewProductsQuery selects a platform's products first seen between From and To.
type NewProductsQuery struct {
	Platform string
	From     string
	To       string
	Limit    int
}

// NewProducts lists products first seen in the range. Without a range the
// platform's latest first-seen day is used; Range is nil when the platform
// has no products at all.
type NewProducts struct {
	Platform string       `json:"platform"`
	Range    *DateRange   `json:"range"`
	NewCount int          `json:"new_count"`
	Items    []NewProduct `json:"items"`
}

// DateRange is an inclusive pair of days.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (s *Service) NewProducts(ctx context.Context, q NewProductsQuery) (*NewProducts, error) {
	q.Platform = strings.TrimSpace(q.Platform)
	if q.Platform != PlatformManaged && q.Platform != PlatformSelf {
		return nil, ErrInvalidPlatform
	}
	out := &NewProducts{Platform: q.Platform, Items: []NewProduct{}}

	if q.From == "" || q.To == "" {
		latest, err := s.repo.LatestNewProductDay(ctx, q.Platform)
		if err != nil {
			return nil, err
		}
		if latest == "" {
			return out, nil
		}
		q.From, q.To = latest, latest
	}
	if err := validDates(q.From, q.To); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultNewProductLimit
	}
	limit = min(limit, maxNewProductLimit)

	items, err := s.repo.NewProducts(ctx, q.Platform, q.From, q.To, limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if d, err := time.Parse(time.DateOnly, items[i].FirstSeen); err == nil {
			items[i].FirstSeenMMDD = d.Format("0102")
		}
	}
	if items != nil {
		out.Items = items
	}
	out.Range = &DateRange{From: q.From, To: q.To}
	out.NewCount = len(out.Items)
	return out, nil
}
