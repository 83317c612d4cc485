package query

import (
	"context"
	"sort"
	"time"
)

// OzonProduct is one sku/model of the Ozon product report, summed over the
// requested report days.
type OzonProduct struct {
	ProductID         string  `json:"product_id"`
	Model             string  `json:"model"`
	ProductTitle      string  `json:"product_title"`
	Impressions       float64 `json:"voronka_prodazh_pokazy_vsego"`
	SearchImpressions float64 `json:"voronka_prodazh_pokazy_v_poiske_i_kataloge"`
	CardVisits        float64 `json:"voronka_prodazh_posescheniya_kartochki_tovara"`
	UniqueVisitors    float64 `json:"voronka_prodazh_unikalnye_posetiteli_vsego"`
	SearchVisitors    float64 `json:"voronka_prodazh_uv_s_prosmotrom_v_poiske_ili_kataloge"`
	CardVisitors      float64 `json:"voronka_prodazh_uv_s_prosmotrom_kartochki_tovara"`
	CartFromSearch    float64 `json:"voronka_prodazh_dobavleniya_iz_poiska_i_kataloge_v_korzinu"`
	CartFromCard      float64 `json:"voronka_prodazh_dobavleniya_iz_kartochki_v_korzinu"`
	CartTotal         float64 `json:"voronka_prodazh_dobavleniya_v_korzinu_vsego"`
	Ordered           float64 `json:"voronka_prodazh_zakazano_tovarov"`
	Delivered         float64 `json:"voronka_prodazh_dostavleno_tovarov"`
	OrderedAmount     float64 `json:"prodazhi_zakazano_na_summu"`
}

// OzonStatsQuery selects either a range (Start and End) or a single report
// day (Date, latest when empty).
type OzonStatsQuery struct {
	Date  string
	Start string
	End   string
}

// OzonStats is the /ozon/stats payload. In day mode Dates lists every report
// day newest first and Date is empty when the table has none.
type OzonStats struct {
	Rows  []OzonProduct
	Date  string
	Dates []string
	Start string
	End   string
}

// OzonStats returns products summed over a range, or one report day.
func (s *Service) OzonStats(ctx context.Context, q OzonStatsQuery) (*OzonStats, error) {
	if q.Start != "" && q.End != "" {
		if err := validDates(q.Start, q.End); err != nil {
			return nil, err
		}
		rows, err := s.ozonProducts(ctx, q.Start, q.End)
		if err != nil {
			return nil, err
		}
		return &OzonStats{Rows: rows, Start: q.Start, End: q.End}, nil
	}

	dates, err := s.repo.OzonDates(ctx)
	if err != nil {
		return nil, err
	}
	if dates == nil {
		dates = []string{}
	}
	out := &OzonStats{Rows: []OzonProduct{}, Date: q.Date, Dates: dates}
	if out.Date == "" && len(dates) > 0 {
		out.Date = dates[0]
	}
	if out.Date == "" {
		return out, nil
	}
	if err := validDates(out.Date); err != nil {
		return nil, err
	}
	if out.Rows, err = s.ozonProducts(ctx, out.Date, out.Date); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) ozonProducts(ctx context.Context, from, to string) ([]OzonProduct, error) {
	rows, err := s.repo.OzonProducts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		r := &rows[i]
		r.CartTotal = r.CartFromSearch + r.CartFromCard
		if r.ProductTitle == "" {
			r.ProductTitle = r.ProductID
		}
	}
	if rows == nil {
		rows = []OzonProduct{}
	}
	return rows, nil
}

// OzonPeriods lists the week ends (Sundays) and month ends covered by the
// report days, newest first.
type OzonPeriods struct {
	Weeks  []string `json:"weeks"`
	Months []string `json:"months"`
}

func (s *Service) OzonPeriods(ctx context.Context) (*OzonPeriods, error) {
	dates, err := s.repo.OzonDates(ctx)
	if err != nil {
		return nil, err
	}
	weeks := make(map[string]bool)
	months := make(map[string]bool)
	for _, d := range dates {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			continue
		}
		weeks[periodEnd(t, Week)] = true
		months[periodEnd(t, Month)] = true
	}
	return &OzonPeriods{Weeks: descending(weeks), Months: descending(months)}, nil
}

// periodEnd is the Sunday closing d's Monday-Sunday week, or the last day of
// its month.
func periodEnd(d time.Time, g Granularity) string {
	if g == Month {
		return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
	}
	return d.AddDate(0, 0, (7-int(d.Weekday()))%7).Format(time.DateOnly)
}

func descending(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

// Compared is a metric for the requested range and the range just before it.
type Compared[T any] struct {
	Current  T `json:"current"`
	Previous T `json:"previous"`
}

// OzonNewProduct is a sku with report rows in the range but none in the
// previous one.
type OzonNewProduct struct {
	SKU   string `json:"sku"`
	Title string `json:"title"`
}

// OzonKPIs compares a range with the preceding range of equal length. Rates
// are fractions: card visits per impression, then carts and orders per
// card visit.
type OzonKPIs struct {
	From             string            `json:"from"`
	To               string            `json:"to"`
	PreviousFrom     string            `json:"previous_from"`
	PreviousTo       string            `json:"previous_to"`
	VisitorRate      Compared[float64] `json:"visitor_rate"`
	CartRate         Compared[float64] `json:"cart_rate"`
	PayRate          Compared[float64] `json:"pay_rate"`
	ProductTotal     Compared[int]     `json:"product_total"`
	CartProductTotal Compared[int]     `json:"cart_product_total"`
	PayProductTotal  Compared[int]     `json:"pay_product_total"`
	NewProductTotal  int               `json:"new_product_total"`
	NewProducts      []OzonNewProduct  `json:"new_products"`
}

func (s *Service) OzonKPIs(ctx context.Context, from, to string) (*OzonKPIs, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	start, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return nil, ErrInvalidDate
	}
	end, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	days := int(end.Sub(start).Hours()/24) + 1
	prevTo := start.AddDate(0, 0, -1)
	prevFrom := prevTo.AddDate(0, 0, -(days - 1))

	cur, err := s.ozonProducts(ctx, from, to)
	if err != nil {
		return nil, err
	}
	prev, err := s.ozonProducts(ctx, prevFrom.Format(time.DateOnly), prevTo.Format(time.DateOnly))
	if err != nil {
		return nil, err
	}
	c, p := sumOzon(cur), sumOzon(prev)

	out := &OzonKPIs{
		From:             from,
		To:               to,
		PreviousFrom:     prevFrom.Format(time.DateOnly),
		PreviousTo:       prevTo.Format(time.DateOnly),
		VisitorRate:      Compared[float64]{ratio(c.visits, c.impressions), ratio(p.visits, p.impressions)},
		CartRate:         Compared[float64]{ratio(c.carts, c.visits), ratio(p.carts, p.visits)},
		PayRate:          Compared[float64]{ratio(c.ordered, c.visits), ratio(p.ordered, p.visits)},
		ProductTotal:     Compared[int]{len(c.skus), len(p.skus)},
		CartProductTotal: Compared[int]{len(c.cartSKUs), len(p.cartSKUs)},
		PayProductTotal:  Compared[int]{len(c.paySKUs), len(p.paySKUs)},
		NewProducts:      []OzonNewProduct{},
	}
	seen := make(map[string]bool)
	for _, r := range cur {
		if p.skus[r.ProductID] || seen[r.ProductID] {
			continue
		}
		seen[r.ProductID] = true
		out.NewProducts = append(out.NewProducts, OzonNewProduct{SKU: r.ProductID, Title: r.ProductTitle})
	}
	out.NewProductTotal = len(out.NewProducts)
	return out, nil
}

type ozonTotals struct {
	impressions, visits, carts, ordered float64
	skus, cartSKUs, paySKUs             map[string]bool
}

func sumOzon(rows []OzonProduct) ozonTotals {
	t := ozonTotals{skus: map[string]bool{}, cartSKUs: map[string]bool{}, paySKUs: map[string]bool{}}
	for _, r := range rows {
		t.skus[r.ProductID] = true
		t.impressions += r.Impressions
		t.visits += r.CardVisits
		t.carts += r.CartTotal
		t.ordered += r.Ordered
		if r.CartTotal > 0 {
			t.cartSKUs[r.ProductID] = true
		}
		if r.Ordered > 0 {
			t.paySKUs[r.ProductID] = true
		}
	}
	return t
}

// ratio is a/b, 0 when b is zero.
func ratio(a, b float64) float64 {
	if b <= 0 {
		return 0
	}
	return a / b
}

// validDates reports ErrInvalidDate unless every date is YYYY-MM-DD.
func validDates(dates ...string) error {
	for _, d := range dates {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			return ErrInvalidDate
		}
	}
	return nil
}
