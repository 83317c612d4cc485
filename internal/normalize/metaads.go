package normalize

// DefaultMetaSite is the site_id used when an upload does not name one.
const DefaultMetaSite = "icyberite"

// MetaAdRow is one row of a Meta Ads Manager export ("Raw Data Report").
type MetaAdRow struct {
	SiteID            string   `json:"site_id"`
	Level             string   `json:"level"`
	CampaignName      string   `json:"campaign_name"`
	AdsetName         string   `json:"adset_name"`
	ProductIdentifier string   `json:"product_identifier"`
	Reach             float64  `json:"reach"`
	Impressions       float64  `json:"impressions"`
	Frequency         float64  `json:"frequency"`
	LinkClicks        float64  `json:"link_clicks"`
	AllClicks         float64  `json:"all_clicks"`
	AllCTR            float64  `json:"all_ctr"`
	LinkCTR           float64  `json:"link_ctr"`
	SpendUSD          float64  `json:"spend_usd"`
	ATCTotal          float64  `json:"atc_total"`
	ATCWeb            float64  `json:"atc_web"`
	ATCMeta           float64  `json:"atc_meta"`
	ICTotal           float64  `json:"ic_total"`
	ICWeb             float64  `json:"ic_web"`
	ICMeta            float64  `json:"ic_meta"`
	PurchaseWeb       float64  `json:"purchase_web"`
	PurchaseMeta      float64  `json:"purchase_meta"`
	CPM               *float64 `json:"cpm"`
	CPCLink           *float64 `json:"cpc_link"`
	CPCAll            *float64 `json:"cpc_all"`
	RowStartDate      string   `json:"row_start_date"`
	RowEndDate        string   `json:"row_end_date"`
}

// MetaAliases pairs the Chinese UI header with the compacted English one.
var MetaAliases = AliasTable{
	{"campaign_name", []string{"广告系列名称", "campaignname"}},
	{"adset_name", []string{"广告组名称", "adsetname"}},
	{"level", []string{"投放层级", "level"}},
	{"product_identifier", []string{"商品编号", "productidentifier"}},
	{"reach", []string{"覆盖人数", "reach"}},
	{"impressions", []string{"展示次数", "impressions"}},
	{"frequency", []string{"频次", "frequency"}},
	{"link_clicks", []string{"链接点击量", "linkclicks"}},
	{"all_clicks", []string{"点击量（全部）", "allclicks"}},
	{"all_ctr", []string{"点击率（全部）", "ctr（全部）", "allctr"}},
	{"link_ctr", []string{"链接点击率", "linkctr"}},
	{"spend_usd", []string{"已花费金额(usd)", "spendusd"}},
	{"atc_total", []string{"加入购物车", "addtocart"}},
	{"atc_web", []string{"网站加入购物车", "addtocart(web)"}},
	{"atc_meta", []string{"meta加入购物车", "addtocart(meta)"}},
	{"ic_total", []string{"结账发起次数", "initiatecheckout"}},
	{"ic_web", []string{"网站结账发起次数", "initiatecheckout(web)"}},
	{"ic_meta", []string{"meta结账发起次数", "initiatecheckout(meta)"}},
	{"purchase_web", []string{"网站购物", "purch(web)"}},
	{"purchase_meta", []string{"metainside购物次数", "purch(meta)"}},
	{"row_start_date", []string{"开始日期", "rowstartdate"}},
	{"row_end_date", []string{"结束日期", "rowenddate"}},
}

var metaResolver = NewResolver(MetaAliases, CompactKey)

var MetaColumns = []string{
	"site_id", "level", "campaign_name", "adset_name", "product_identifier",
	"reach", "impressions", "frequency", "link_clicks", "all_clicks", "all_ctr", "link_ctr",
	"spend_usd", "atc_total", "atc_web", "atc_meta", "ic_total", "ic_web", "ic_meta",
	"purchase_web", "purchase_meta", "cpm", "cpc_link", "cpc_all",
	"row_start_date", "row_end_date",
}

var MetaConflict = []string{
	"site_id", "campaign_name", "adset_name", "product_identifier", "row_start_date", "row_end_date",
}

// MetaHeader is a Meta export header row resolved to column indexes.
type MetaHeader map[string]int

func ResolveMetaHeader(header []string) MetaHeader {
	return MetaHeader(metaResolver.Indexes(header))
}

func (h MetaHeader) cell(cells []string, field string) string {
	i, ok := h[field]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// NormalizeMetaAd maps one data row of the export. Spend-derived prices are
// nil when their divisor is zero.
func NormalizeMetaAd(h MetaHeader, cells []string, siteID string, c Coercer) MetaAdRow {
	text := func(field string) string { return Text(h.cell(cells, field)) }
	num := func(field string) float64 { return c.Number(field, h.cell(cells, field)) }
	day := func(field string) string {
		raw := h.cell(cells, field)
		if d := Day(raw); d != "" {
			return d
		}
		return Date(raw)
	}

	r := MetaAdRow{
		SiteID:            siteID,
		Level:             text("level"),
		CampaignName:      text("campaign_name"),
		AdsetName:         text("adset_name"),
		ProductIdentifier: text("product_identifier"),
		Reach:             num("reach"),
		Impressions:       num("impressions"),
		Frequency:         num("frequency"),
		LinkClicks:        num("link_clicks"),
		AllClicks:         num("all_clicks"),
		AllCTR:            num("all_ctr"),
		LinkCTR:           num("link_ctr"),
		SpendUSD:          num("spend_usd"),
		ATCTotal:          num("atc_total"),
		ATCWeb:            num("atc_web"),
		ATCMeta:           num("atc_meta"),
		ICTotal:           num("ic_total"),
		ICWeb:             num("ic_web"),
		ICMeta:            num("ic_meta"),
		PurchaseWeb:       num("purchase_web"),
		PurchaseMeta:      num("purchase_meta"),
		RowStartDate:      day("row_start_date"),
		RowEndDate:        day("row_end_date"),
	}
	r.CPM = perUnit(r.SpendUSD, r.Impressions, 1000)
	r.CPCLink = perUnit(r.SpendUSD, r.LinkClicks, 1)
	r.CPCAll = perUnit(r.SpendUSD, r.AllClicks, 1)
	return r
}

func perUnit(amount, divisor, scale float64) *float64 {
	if divisor <= 0 {
		return nil
	}
	v := amount / divisor * scale
	return &v
}

// Key requires a campaign and a start date; the other parts may be empty.
func (r MetaAdRow) Key() (string, bool) {
	if r.CampaignName == "" || r.RowStartDate == "" {
		return "", false
	}
	return JoinKey(r.SiteID, r.CampaignName, r.AdsetName, r.ProductIdentifier, r.RowStartDate, r.RowEndDate), true
}

func (r MetaAdRow) Values() []any {
	return []any{
		r.SiteID, r.Level, r.CampaignName, r.AdsetName, r.ProductIdentifier,
		r.Reach, r.Impressions, r.Frequency, r.LinkClicks, r.AllClicks, r.AllCTR, r.LinkCTR,
		r.SpendUSD, r.ATCTotal, r.ATCWeb, r.ATCMeta, r.ICTotal, r.ICWeb, r.ICMeta,
		r.PurchaseWeb, r.PurchaseMeta, nullable(r.CPM), nullable(r.CPCLink), nullable(r.CPCAll),
		r.RowStartDate, r.RowEndDate,
	}
}

// NormalizeMetaSheet normalizes every data row under header, skipping blank
// rows, and deduplicates by natural key.
func NormalizeMetaSheet(header []string, rows [][]string, siteID string, w *Warnings) []MetaAdRow {
	h := ResolveMetaHeader(header)
	d := NewDeduper(MetaAdRow.Key)
	for i, cells := range rows {
		if blankRow(cells) {
			continue
		}
		d.Add(NormalizeMetaAd(h, cells, siteID, Coercer{W: w, Row: i}))
	}
	return d.Rows()
}

func nullable(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if !isEmpty(c) {
			return false
		}
	}
	return true
}
