package query

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	DefaultMetaStatsSite  = "icyberite"
	defaultIndependentMax = 500
	maxIndependentLimit   = 5000
	topLandingPages       = 50
)

// MetaAdDaily is a stored row of the Meta ads table.
type MetaAdDaily struct {
	SiteID            string   `json:"site_id"`
	Level             string   `json:"level"`
	CampaignName      string   `json:"campaign_name"`
	AdsetName         string   `json:"adset_name"`
	ProductIdentifier string   `json:"product_identifier"`
	Reach             float64  `json:"reach"`
	Impressions       float64  `json:"impressions"`
	LinkClicks        float64  `json:"link_clicks"`
	AllClicks         float64  `json:"all_clicks"`
	SpendUSD          float64  `json:"spend_usd"`
	ATCTotal          float64  `json:"atc_total"`
	ICTotal           float64  `json:"ic_total"`
	PurchaseWeb       float64  `json:"purchase_web"`
	PurchaseMeta      float64  `json:"purchase_meta"`
	CPM               *float64 `json:"cpm"`
	CPCLink           *float64 `json:"cpc_link"`
	RowStartDate      string   `json:"row_start_date"`
	RowEndDate        string   `json:"row_end_date"`
}

// MetaKPIs summarize a site's Meta rows. Rates are percentages.
type MetaKPIs struct {
	AvgCTR                 float64 `json:"avg_ctr"`
	AvgConvRate            float64 `json:"avg_conv_rate"`
	ExposureProductCount   int     `json:"exposure_product_count"`
	ClickProductCount      int     `json:"click_product_count"`
	ConversionProductCount int     `json:"conversion_product_count"`
	NewProductCount        int     `json:"new_product_count"`
}

// MetaStats is the /fb_stats payload.
type MetaStats struct {
	Site  string        `json:"site"`
	From  string        `json:"from"`
	To    string        `json:"to"`
	Table []MetaAdDaily `json:"table"`
	KPIs  MetaKPIs      `json:"kpis"`
}

// AdsQuery selects one site's ads rows between From and To.
type AdsQuery struct {
	Site  string
	From  string
	To    string
	Limit int
}

// MetaStats loads a site's Meta rows whose reporting window starts in the
// range (the last seven days by default), newest first.
func (s *Service) MetaStats(ctx context.Context, q AdsQuery) (*MetaStats, error) {
	if q.Site == "" {
		q.Site = DefaultMetaStatsSite
	}
	today := s.today()
	q.From = dateOr(q.From, today.AddDate(0, 0, -6).Format(time.DateOnly))
	q.To = dateOr(q.To, today.Format(time.DateOnly))

	rows, err := readAll(ctx, func(ctx context.Context, limit, offset int) ([]MetaAdDaily, error) {
		return s.repo.MetaAds(ctx, q.Site, q.From, q.To, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []MetaAdDaily{}
	}
	return &MetaStats{Site: q.Site, From: q.From, To: q.To, Table: rows, KPIs: metaKPIs(rows)}, nil
}

func metaKPIs(rows []MetaAdDaily) MetaKPIs {
	var impressions, clicks, conversions float64
	exposed := make(map[string]bool)
	clicked := make(map[string]bool)
	converted := make(map[string]bool)
	for _, r := range rows {
		impressions += r.Impressions
		clicks += r.LinkClicks
		conversions += r.PurchaseWeb
		if r.Impressions > 0 {
			exposed[r.ProductIdentifier] = true
		}
		if r.LinkClicks > 0 {
			clicked[r.ProductIdentifier] = true
		}
		if r.PurchaseWeb > 0 {
			converted[r.ProductIdentifier] = true
		}
	}
	return MetaKPIs{
		AvgCTR:                 ratio(clicks, impressions) * 100,
		AvgConvRate:            ratio(conversions, clicks) * 100,
		ExposureProductCount:   len(exposed),
		ClickProductCount:      len(clicked),
		ConversionProductCount: len(converted),
	}
}

// IndependentAdDaily is a stored row of the independent-site ads table.
// Product is the last path segment of the landing page.
type IndependentAdDaily struct {
	Site         string  `json:"site"`
	Day          string  `json:"day"`
	CampaignName string  `json:"campaign_name"`
	AdsetName    string  `json:"adset_name"`
	LandingURL   string  `json:"landing_url"`
	LandingPath  string  `json:"landing_path"`
	Product      string  `json:"product"`
	Impressions  float64 `json:"impressions"`
	Clicks       float64 `json:"clicks"`
	SpendUSD     float64 `json:"spend_usd"`
	CPM          float64 `json:"cpm"`
	CPCAll       float64 `json:"cpc_all"`
	AllCTR       float64 `json:"all_ctr"`
	Reach        float64 `json:"reach"`
}

// AdsDay is one day of a site's ads series.
type AdsDay struct {
	Day         string  `json:"day"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	SpendUSD    float64 `json:"spend_usd"`
	Reach       float64 `json:"reach"`
}

// LandingPage is a landing path summed over the range.
type LandingPage struct {
	Path        string  `json:"path"`
	URL         string  `json:"url"`
	Product     string  `json:"product"`
	Impressions float64 `json:"impressions"`
	Clicks      float64 `json:"clicks"`
	SpendUSD    float64 `json:"spend_usd"`
	CTR         float64 `json:"ctr"`
	CPC         float64 `json:"cpc"`
}

// IndependentStats is the /independent/stats payload.
type IndependentStats struct {
	Site    string               `json:"site"`
	From    string               `json:"from"`
	To      string               `json:"to"`
	Table   []IndependentAdDaily `json:"table"`
	Series  []AdsDay             `json:"series"`
	TopList []LandingPage        `json:"topList"`
}

// IndependentStats loads a site's rows (the last 30 days by default) with a
// daily series and the landing pages with most clicks. The table is capped
// at q.Limit rows; the series and top list cover the whole range.
func (s *Service) IndependentStats(ctx context.Context, q AdsQuery) (*IndependentStats, error) {
	if q.Site = strings.TrimSpace(q.Site); q.Site == "" {
		return nil, ErrMissingSite
	}
	today := s.today()
	q.From = dateOr(q.From, today.AddDate(0, 0, -29).Format(time.DateOnly))
	q.To = dateOr(q.To, today.Format(time.DateOnly))
	limit := q.Limit
	if limit <= 0 {
		limit = defaultIndependentMax
	}
	limit = min(limit, maxIndependentLimit)

	rows, err := readAll(ctx, func(ctx context.Context, pageLimit, offset int) ([]IndependentAdDaily, error) {
		return s.repo.IndependentAds(ctx, q.Site, q.From, q.To, pageLimit, offset)
	})
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Product = lastPathSegment(rows[i].LandingPath)
	}
	table := rows
	if len(table) > limit {
		table = table[:limit]
	}
	if table == nil {
		table = []IndependentAdDaily{}
	}
	return &IndependentStats{
		Site:    q.Site,
		From:    q.From,
		To:      q.To,
		Table:   table,
		Series:  adsSeries(rows),
		TopList: topLanding(rows, topLandingPages),
	}, nil
}

func adsSeries(rows []IndependentAdDaily) []AdsDay {
	byDay := make(map[string]*AdsDay)
	for _, r := range rows {
		d := byDay[r.Day]
		if d == nil {
			d = &AdsDay{Day: r.Day}
			byDay[r.Day] = d
		}
		d.Impressions += r.Impressions
		d.Clicks += r.Clicks
		d.SpendUSD += r.SpendUSD
		d.Reach += r.Reach
	}
	out := make([]AdsDay, 0, len(byDay))
	for _, d := range byDay {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// topLanding sums rows per landing path and keeps the n with most clicks.
// Ties keep first-seen order.
func topLanding(rows []IndependentAdDaily, n int) []LandingPage {
	var order []string
	byPath := make(map[string]*LandingPage)
	for _, r := range rows {
		p := byPath[r.LandingPath]
		if p == nil {
			p = &LandingPage{Path: r.LandingPath, URL: r.LandingURL, Product: r.Product}
			byPath[r.LandingPath] = p
			order = append(order, r.LandingPath)
		}
		p.Impressions += r.Impressions
		p.Clicks += r.Clicks
		p.SpendUSD += r.SpendUSD
	}
	out := make([]LandingPage, 0, len(order))
	for _, path := range order {
		p := byPath[path]
		p.CTR = ratio(p.Clicks, p.Impressions)
		p.CPC = ratio(p.SpendUSD, p.Clicks)
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Clicks > out[j].Clicks })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func lastPathSegment(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	seg := parts[len(parts)-1]
	if dec, err := url.PathUnescape(seg); err == nil {
		return dec
	}
	return seg
}
