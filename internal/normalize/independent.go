package normalize

import (
	"net/url"
	"strings"
)

// IndependentAdRow is one campaign/adset-day of a Facebook Ads export for an
// independent (self-hosted) storefront.
type IndependentAdRow struct {
	Site         string  `json:"site"`
	Day          string  `json:"day"`
	CampaignName string  `json:"campaign_name"`
	AdsetName    string  `json:"adset_name"`
	LandingURL   string  `json:"landing_url"`
	LandingSite  string  `json:"landing_site"`
	LandingPath  string  `json:"landing_path"`
	Impressions  float64 `json:"impressions"`
	Clicks       float64 `json:"clicks"`
	SpendUSD     float64 `json:"spend_usd"`
	CPM          float64 `json:"cpm"`
	CPCAll       float64 `json:"cpc_all"`
	AllCTR       float64 `json:"all_ctr"`
	Reach        float64 `json:"reach"`
	Frequency    float64 `json:"frequency"`
}

var IndependentAliases = AliasTable{
	{"campaign", []string{"campaign name", "campaign", "campaign_name"}},
	{"adset", []string{"adset name", "adset", "ad set", "adset_name", "ad_set_name"}},
	{"date", []string{"date", "day", "start date", "startdate"}},
	{"impressions", []string{"impressions", "imp", "impression"}},
	{"clicks", []string{"clicks", "link clicks", "click", "all clicks"}},
	{"spend", []string{"spend", "amount spent", "cost", "amountspent"}},
	{"cpm", []string{"cpm", "cost per 1,000 impressions", "costper1000impressions"}},
	{"cpc", []string{"cpc", "cost per link click", "costperlinkclick"}},
	{"ctr", []string{"ctr", "link click-through rate", "clickthroughrate", "click through rate"}},
	{"reach", []string{"reach"}},
	{"frequency", []string{"frequency"}},
	{"landing_url", []string{"landing page", "website url", "url", "landingpage", "websiteurl"}},
}

var independentResolver = NewResolver(IndependentAliases, CanonKey)

var IndependentColumns = []string{
	"site", "day", "campaign_name", "adset_name",
	"landing_url", "landing_site", "landing_path",
	"impressions", "clicks", "spend_usd", "cpm", "cpc_all", "all_ctr", "reach", "frequency",
	"row_start_date", "row_end_date",
}

var IndependentConflict = []string{"site", "day", "campaign_name", "adset_name"}

var (
	adsHeaderStrong = []string{"campaign", "adset", "date"}
	adsHeaderWeak   = []string{
		"impression", "click", "spend", "cost", "reach", "frequency",
		"cpm", "ctr", "cpc", "conversion", "value",
	}
)

// FindAdsHeader returns the index of the header row in a sheet that may start
// with report titles and filter summaries, or -1.
func FindAdsHeader(rows [][]string) int {
	for _, words := range [][]string{adsHeaderStrong, adsHeaderWeak} {
		for i, row := range rows {
			for _, c := range row {
				cell := strings.ToLower(strings.TrimSpace(c))
				for _, w := range words {
					if strings.Contains(cell, w) {
						return i
					}
				}
			}
		}
	}
	return -1
}

// IndependentHeader is a resolved ads header row.
type IndependentHeader map[string]int

// ResolveIndependentHeader resolves header; ok is false unless both the
// campaign and the date column are present.
func ResolveIndependentHeader(header []string) (IndependentHeader, bool) {
	h := IndependentHeader(independentResolver.Indexes(header))
	_, hasCampaign := h["campaign"]
	_, hasDate := h["date"]
	return h, hasCampaign && hasDate
}

func (h IndependentHeader) cell(cells []string, field string) string {
	i, ok := h[field]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// NormalizeIndependentAd maps one data row. Rows without a readable day come
// back with an empty Day and are rejected by Key.
func NormalizeIndependentAd(h IndependentHeader, cells []string, site string, c Coercer) IndependentAdRow {
	num := func(field string) float64 { return c.Loose(field, h.cell(cells, field)) }
	landing := Text(h.cell(cells, "landing_url"))
	lsite, lpath := splitLandingURL(landing)
	return IndependentAdRow{
		Site:         site,
		Day:          Day(h.cell(cells, "date")),
		CampaignName: Text(h.cell(cells, "campaign")),
		AdsetName:    Text(h.cell(cells, "adset")),
		LandingURL:   landing,
		LandingSite:  lsite,
		LandingPath:  lpath,
		Impressions:  num("impressions"),
		Clicks:       num("clicks"),
		SpendUSD:     num("spend"),
		CPM:          num("cpm"),
		CPCAll:       num("cpc"),
		AllCTR:       num("ctr"),
		Reach:        num("reach"),
		Frequency:    num("frequency"),
	}
}

func splitLandingURL(s string) (site, path string) {
	if s == "" {
		return "", ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "unknown", s
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return strings.TrimPrefix(u.Hostname(), "www."), path
}

func (r IndependentAdRow) Key() (string, bool) {
	if r.CampaignName == "" || r.Day == "" {
		return "", false
	}
	return JoinKey(r.Site, r.Day, r.CampaignName, r.AdsetName), true
}

func (r IndependentAdRow) Values() []any {
	return []any{
		r.Site, r.Day, r.CampaignName, r.AdsetName,
		r.LandingURL, r.LandingSite, r.LandingPath,
		r.Impressions, r.Clicks, r.SpendUSD, r.CPM, r.CPCAll, r.AllCTR, r.Reach, r.Frequency,
		r.Day, r.Day,
	}
}

// NormalizeIndependentSheet finds the header, then normalizes and
// deduplicates the rows below it. ok is false when no usable header exists.
func NormalizeIndependentSheet(rows [][]string, site string, w *Warnings) (out []IndependentAdRow, ok bool) {
	hi := FindAdsHeader(rows)
	if hi < 0 {
		return nil, false
	}
	h, ok := ResolveIndependentHeader(rows[hi])
	if !ok {
		return nil, false
	}
	d := NewDeduper(IndependentAdRow.Key)
	for i, cells := range rows[hi+1:] {
		if blankRow(cells) {
			continue
		}
		d.Add(NormalizeIndependentAd(h, cells, site, Coercer{W: w, Row: hi + 1 + i}))
	}
	return d.Rows(), true
}
