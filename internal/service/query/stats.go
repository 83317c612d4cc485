package query

import (
	"context"
	"math"
	"time"
)

const (
	// maxStepBack is how many earlier periods are tried when the requested
	// one has no rows.
	maxStepBack   = 8
	maxStatsLimit = 1000
	seriesFrom    = "2000-01-01"
)

// StatsQuery selects managed_stats rows.
type StatsQuery struct {
	Granularity Granularity // week or month
	ProductID   string
	From        string
	To          string
	PeriodEnd   string
	Limit       int
	Offset      int
}

// StatsKPIs summarize one period across products. Rates are percentages
// rounded to two decimals.
type StatsKPIs struct {
	AvgVisitToATC   float64 `json:"avg_visit_to_atc"`
	AvgATCToPay     float64 `json:"avg_atc_to_pay"`
	AvgVisitRate    float64 `json:"avg_visit_rate"`
	ProductCount    int     `json:"product_count"`
	ATCProductCount int     `json:"atc_product_count"`
	PayProductCount int     `json:"pay_product_count"`
	VisitorTotal    float64 `json:"visitor_total"`
	ExposureTotal   float64 `json:"exposure_total"`
	AddUserTotal    float64 `json:"add_user_total"`
	PayBuyersTotal  float64 `json:"pay_buyers_total"`
}

// PeriodStats is one page of a period. PeriodEnd is empty when no period
// with data was found.
type PeriodStats struct {
	PeriodEnd string
	Rows      []ManagedStat
	Total     int
	KPIs      *StatsKPIs
}

// ParseStatsGranularity accepts week or month; empty means week.
func ParseStatsGranularity(s string) (Granularity, error) {
	g, err := ParseGranularity(s, Week)
	if err != nil || g == Day {
		return "", ErrInvalidGranularity
	}
	return g, nil
}

// ProductSeries returns one product's periods between q.From and q.To.
func (s *Service) ProductSeries(ctx context.Context, q StatsQuery) ([]ManagedStat, error) {
	from, to := q.From, q.To
	if from == "" {
		from = seriesFrom
	}
	if to == "" {
		to = s.today().Format(time.DateOnly)
	}
	rows, err := s.repo.ManagedSeries(ctx, string(q.Granularity), q.ProductID, from, to)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []ManagedStat{}
	}
	return rows, nil
}

// Period returns the requested period, or the last complete one. A period
// without rows steps back one period at a time.
func (s *Service) Period(ctx context.Context, q StatsQuery) (*PeriodStats, error) {
	end := q.PeriodEnd
	if end == "" {
		end = LastPeriodEnd(s.today(), q.Granularity)
	} else if _, err := time.Parse(time.DateOnly, end); err != nil {
		return nil, ErrInvalidDate
	}

	found := ""
	for i := 0; i < maxStepBack; i++ {
		ok, err := s.repo.ManagedPeriodExists(ctx, string(q.Granularity), end)
		if err != nil {
			return nil, err
		}
		if ok {
			found = end
			break
		}
		end = previousPeriodEnd(end, q.Granularity)
	}
	if found == "" {
		return &PeriodStats{Rows: []ManagedStat{}}, nil
	}

	limit := q.Limit
	if limit <= 0 || limit > maxStatsLimit {
		limit = maxStatsLimit
	}
	offset := max(q.Offset, 0)
	rows, total, err := s.repo.ManagedPeriod(ctx, string(q.Granularity), found, limit, offset)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []ManagedStat{}
	}
	if total == 0 {
		total = len(rows)
	}
	return &PeriodStats{PeriodEnd: found, Rows: rows, Total: total, KPIs: ComputeKPIs(rows)}, nil
}

// LastPeriodEnd is the Sunday closing the last complete Monday-Sunday week
// before today, or the last day of the previous month.
func LastPeriodEnd(today time.Time, g Granularity) string {
	if g == Month {
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, 0, -1).Format(time.DateOnly)
	}
	back := int(today.Weekday())
	if back == 0 {
		back = 7
	}
	return today.AddDate(0, 0, -back).Format(time.DateOnly)
}

func previousPeriodEnd(end string, g Granularity) string {
	d, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return end
	}
	if g == Month {
		first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, 0, -1).Format(time.DateOnly)
	}
	return d.AddDate(0, 0, -7).Format(time.DateOnly)
}

// ComputeKPIs derives the period KPIs. Exposure falls back from
// search_exposure to exposure to pv, whichever first has a positive total.
func ComputeKPIs(rows []ManagedStat) *StatsKPIs {
	k := &StatsKPIs{ProductCount: len(rows)}
	var search, exposure, pv float64
	for _, r := range rows {
		if r.AddToCartQty > 0 || r.AddToCartUsers > 0 {
			k.ATCProductCount++
		}
		if r.PayItems > 0 || r.PayOrders > 0 {
			k.PayProductCount++
		}
		k.VisitorTotal += r.UV
		k.AddUserTotal += r.AddToCartUsers
		k.PayBuyersTotal += r.PayBuyers
		search += r.SearchExposure
		exposure += r.Exposure
		pv += r.PV
	}
	switch {
	case search > 0:
		k.ExposureTotal = search
	case exposure > 0:
		k.ExposureTotal = exposure
	default:
		k.ExposureTotal = pv
	}
	k.AvgVisitToATC = rate2(k.AddUserTotal, k.VisitorTotal)
	k.AvgATCToPay = rate2(k.PayBuyersTotal, k.AddUserTotal)
	k.AvgVisitRate = rate2(k.VisitorTotal, k.ExposureTotal)
	return k
}

// rate2 is a/b as a percentage with two decimals, 0 when b is zero.
func rate2(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return math.Round(a/b*100*100) / 100
}
