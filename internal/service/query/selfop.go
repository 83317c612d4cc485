package query

import (
	"context"
	"sort"
	"time"
)

const (
	DefaultSelfOperatedSite = "A站"
	defaultSelfOpLimit      = 10000
	maxSelfOpLimit          = 20000
	topProducts             = 10
)

// SelfOperatedQuery selects a site's rows for the self-operated dashboard.
type SelfOperatedQuery struct {
	Site  string
	From  string
	To    string
	Limit int
}

// DayTotals is one day of the site series.
type DayTotals struct {
	StatDate  string  `json:"stat_date"`
	Exposure  float64 `json:"exposure"`
	Visitors  float64 `json:"visitors"`
	Views     float64 `json:"views"`
	AddPeople float64 `json:"add_people"`
	AddCount  float64 `json:"add_count"`
	PayItems  float64 `json:"pay_items"`
	PayOrders float64 `json:"pay_orders"`
	PayBuyers float64 `json:"pay_buyers"`
}

// SelfOperatedKPIs are range totals. avg_ctr is visitors per exposure and
// avg_cvr orders per visitor, both in percent.
type SelfOperatedKPIs struct {
	TotalExposure  float64 `json:"total_exposure"`
	TotalVisitors  float64 `json:"total_visitors"`
	TotalViews     float64 `json:"total_views"`
	TotalAddPeople float64 `json:"total_add_people"`
	TotalAddCount  float64 `json:"total_add_count"`
	TotalPayItems  float64 `json:"total_pay_items"`
	TotalPayOrders float64 `json:"total_pay_orders"`
	TotalPayBuyers float64 `json:"total_pay_buyers"`
	AvgCTR         float64 `json:"avg_ctr"`
	AvgCVR         float64 `json:"avg_cvr"`
	ProductCount   int     `json:"product_count"`
}

// TopProduct is a product's totals over the range.
type TopProduct struct {
	ProductID string  `json:"product_id"`
	PayOrders float64 `json:"pay_orders"`
	PayItems  float64 `json:"pay_items"`
	PayBuyers float64 `json:"pay_buyers"`
	Visitors  float64 `json:"visitors"`
	Views     float64 `json:"views"`
}

// SelfOperatedStats is the dashboard payload.
type SelfOperatedStats struct {
	Site    string           `json:"site"`
	From    string           `json:"from"`
	To      string           `json:"to"`
	Table   []AEDaily        `json:"table"`
	Series  []DayTotals      `json:"series"`
	KPIs    SelfOperatedKPIs `json:"kpis"`
	TopList []TopProduct     `json:"topList"`
}

// SelfOperated loads a site's rows (last complete week by default) and
// derives the daily series, KPIs and the top products by orders.
func (s *Service) SelfOperated(ctx context.Context, q SelfOperatedQuery) (*SelfOperatedStats, error) {
	if q.Site == "" {
		q.Site = DefaultSelfOperatedSite
	}
	defFrom, defTo := lastWeekRange(s.today())
	q.From = dateOr(q.From, defFrom)
	q.To = dateOr(q.To, defTo)
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSelfOpLimit
	}
	limit = min(limit, maxSelfOpLimit)

	rows, err := s.repo.AERecent(ctx, q.Site, q.From, q.To, limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []AEDaily{}
	}
	return &SelfOperatedStats{
		Site:    q.Site,
		From:    q.From,
		To:      q.To,
		Table:   rows,
		Series:  dailySeries(rows),
		KPIs:    selfOperatedKPIs(rows),
		TopList: topByOrders(rows, topProducts),
	}, nil
}

// lastWeekRange is the Monday-Sunday week before the current one.
func lastWeekRange(today time.Time) (string, string) {
	monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	from := monday.AddDate(0, 0, -7)
	return from.Format(time.DateOnly), from.AddDate(0, 0, 6).Format(time.DateOnly)
}

// dateOr returns s when it is a valid date, else def.
func dateOr(s, def string) string {
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return def
	}
	return s
}

func dailySeries(rows []AEDaily) []DayTotals {
	byDay := make(map[string]*DayTotals)
	for _, r := range rows {
		d := byDay[r.StatDate]
		if d == nil {
			d = &DayTotals{StatDate: r.StatDate}
			byDay[r.StatDate] = d
		}
		d.Exposure += r.Exposure
		d.Visitors += r.Visitors
		d.Views += r.Views
		d.AddPeople += r.AddPeople
		d.AddCount += r.AddCount
		d.PayItems += r.PayItems
		d.PayOrders += r.PayOrders
		d.PayBuyers += r.PayBuyers
	}
	out := make([]DayTotals, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StatDate < out[j].StatDate })
	return out
}

func selfOperatedKPIs(rows []AEDaily) SelfOperatedKPIs {
	var k SelfOperatedKPIs
	products := make(map[string]bool)
	for _, r := range rows {
		products[r.ProductID] = true
		k.TotalExposure += r.Exposure
		k.TotalVisitors += r.Visitors
		k.TotalViews += r.Views
		k.TotalAddPeople += r.AddPeople
		k.TotalAddCount += r.AddCount
		k.TotalPayItems += r.PayItems
		k.TotalPayOrders += r.PayOrders
		k.TotalPayBuyers += r.PayBuyers
	}
	k.ProductCount = len(products)
	if k.TotalExposure > 0 {
		k.AvgCTR = k.TotalVisitors / k.TotalExposure * 100
	}
	if k.TotalVisitors > 0 {
		k.AvgCVR = k.TotalPayOrders / k.TotalVisitors * 100
	}
	return k
}

// topByOrders sums rows per product and keeps the n with most orders. Ties
// keep first-seen order.
func topByOrders(rows []AEDaily, n int) []TopProduct {
	var order []string
	byProduct := make(map[string]*TopProduct)
	for _, r := range rows {
		p := byProduct[r.ProductID]
		if p == nil {
			p = &TopProduct{ProductID: r.ProductID}
			byProduct[r.ProductID] = p
			order = append(order, r.ProductID)
		}
		p.PayOrders += r.PayOrders
		p.PayItems += r.PayItems
		p.PayBuyers += r.PayBuyers
		p.Visitors += r.Visitors
		p.Views += r.Views
	}
	out := make([]TopProduct, 0, len(order))
	for _, id := range order {
		out = append(out, *byProduct[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PayOrders > out[j].PayOrders })
	if len(out) > n {
		out = out[:n]
	}
	return out
}
