package normalize

import (
	"sort"
)

// DefaultAESite is stored when an AliExpress row carries no site column.
const DefaultAESite = "A站"

// AERow is one product-day of AliExpress self-operated traffic.
type AERow struct {
	Site           string  `json:"site"`
	ProductID      string  `json:"product_id"`
	StatDate       string  `json:"stat_date"`
	Exposure       float64 `json:"exposure"`
	Visitors       float64 `json:"visitors"`
	Views          float64 `json:"views"`
	AddPeople      float64 `json:"add_people"`
	AddCount       float64 `json:"add_count"`
	PayItems       float64 `json:"pay_items"`
	PayOrders      float64 `json:"pay_orders"`
	PayBuyers      float64 `json:"pay_buyers"`
	OrderItems     float64 `json:"order_items"`
	AvgStaySeconds float64 `json:"avg_stay_seconds"`
	SearchCTR      float64 `json:"search_ctr"`
	FavPeople      float64 `json:"fav_people"`
	FavCount       float64 `json:"fav_count"`
}

// AEAliases is the AliExpress seller-center export vocabulary, Chinese and
// English, most specific names first.
var AEAliases = AliasTable{
	{"product_id", []string{"product_id", "商品ID", "商品id", "id", "product id", "商品编号"}},
	{"stat_date", []string{"stat_date", "日期", "统计日期", "date"}},
	{"exposure", []string{"exposure", "搜索曝光量", "曝光量", "search_exposure", "impressions", "曝光"}},
	{"visitors", []string{"visitors", "商品访客数", "访客数", "访客人数", "unique_visitors"}},
	{"visitors_new", []string{"visitors_new", "new_visitors", "新访客数", "新访客", "新增访客"}},
	{"visitors_old", []string{"visitors_old", "old_visitors", "老访客数", "老访客", "回访客", "复访客"}},
	{"views", []string{"views", "商品浏览量", "浏览量", "pageviews", "pv", "商品pv", "浏览量(PV)"}},
	{"add_people", []string{"add_people", "商品加购人数", "加购人数", "加购买家数", "加入购物车人数", "购物车买家数"}},
	{"add_count", []string{"add_count", "商品加购件数", "加购件数", "加入购物车件数", "购物车件数", "购物车数量", "购物车加购件数"}},
	{"pay_items", []string{"pay_items", "支付商品件数", "支付件数", "付款件数", "成交件数"}},
	{"pay_orders", []string{"pay_orders", "支付订单数", "订单数", "支付订单"}},
	{"pay_buyers", []string{"pay_buyers", "支付买家数", "支付人数", "付款买家数", "买家数"}},
	{"order_items", []string{"order_items", "下单商品件数", "下单件数", "下单商品数", "下单商品数量"}},
	{"avg_stay_seconds", []string{"avg_stay_seconds", "平均停留时长", "平均停留时间", "平均访问时长", "平均停留时长(秒)"}},
	{"search_ctr", []string{"search_ctr", "搜索点击率", "点击率", "搜索点击率(%)", "点击率(%)"}},
	{"fav_people", []string{"fav_people", "商品收藏人数", "收藏人数"}},
	{"fav_count", []string{"fav_count", "商品收藏次数", "收藏次数"}},
	{"site", []string{"site"}},
}

var aeResolver = NewResolver(AEAliases, BareKey)

// AEColumns is the column order of AERow.Values.
var AEColumns = []string{
	"site", "product_id", "stat_date",
	"exposure", "visitors", "views", "add_people", "add_count",
	"pay_items", "pay_orders", "pay_buyers", "order_items",
	"avg_stay_seconds", "search_ctr", "fav_people", "fav_count",
}

// AEConflict is the natural key of the AliExpress daily table.
var AEConflict = []string{"site", "product_id", "stat_date"}

// NormalizeAE maps one uploaded row onto an AERow.
func NormalizeAE(row RawRow, c Coercer) AERow {
	get := func(field string) any {
		v, _ := aeResolver.Lookup(row, field)
		return v
	}
	num := func(field string) float64 { return c.Number(field, get(field)) }

	site := DefaultAESite
	if v, ok := aeResolver.LookupExact(row, "site"); ok {
		site = Text(v)
	}

	return AERow{
		Site:           site,
		ProductID:      Text(get("product_id")),
		StatDate:       Date(get("stat_date")),
		Exposure:       num("exposure"),
		Visitors:       aeVisitors(row, c),
		Views:          num("views"),
		AddPeople:      num("add_people"),
		AddCount:       num("add_count"),
		PayItems:       num("pay_items"),
		PayOrders:      num("pay_orders"),
		PayBuyers:      num("pay_buyers"),
		OrderItems:     num("order_items"),
		AvgStaySeconds: num("avg_stay_seconds"),
		SearchCTR:      Ratio(get("search_ctr")),
		FavPeople:      num("fav_people"),
		FavCount:       num("fav_count"),
	}
}

// aeVisitors takes a column named visitors as the total. Without one it adds
// up every new-visitor and old-visitor column present, and only then falls
// back to the other visitors aliases such as "访客数".
func aeVisitors(row RawRow, c Coercer) float64 {
	for _, k := range row.Keys() {
		if BareKey(k) != "visitors" {
			continue
		}
		if v, _ := row.Get(k); !isEmpty(v) {
			return c.Number("visitors", v)
		}
	}
	parts := append(aeResolver.LookupAll(row, "visitors_new"), aeResolver.LookupAll(row, "visitors_old")...)
	if len(parts) > 0 {
		sum := 0.0
		for _, p := range parts {
			sum += c.Number("visitors", p)
		}
		return sum
	}
	if v, ok := aeResolver.Lookup(row, "visitors"); ok {
		return c.Number("visitors", v)
	}
	return 0
}

// Key is the natural key; rows without product or date are rejected.
func (r AERow) Key() (string, bool) {
	return NaturalKey(r.Site, r.ProductID, r.StatDate)
}

// Values returns the row in AEColumns order.
func (r AERow) Values() []any {
	return []any{
		r.Site, r.ProductID, r.StatDate,
		r.Exposure, r.Visitors, r.Views, r.AddPeople, r.AddCount,
		r.PayItems, r.PayOrders, r.PayBuyers, r.OrderItems,
		r.AvgStaySeconds, r.SearchCTR, r.FavPeople, r.FavCount,
	}
}

// NormalizeAEBatch normalizes, deduplicates and orders a whole upload.
func NormalizeAEBatch(rows []RawRow, w *Warnings) []AERow {
	d := NewDeduper(AERow.Key)
	for i, raw := range rows {
		d.Add(NormalizeAE(raw, Coercer{W: w, Row: i}))
	}
	out := d.Rows()
	sort.SliceStable(out, func(i, j int) bool { return out[i].StatDate < out[j].StatDate })
	return out
}
