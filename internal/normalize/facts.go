package normalize

import (
	"encoding/json"
	"errors"
)

// FactRow is a row of fact_daily_metrics, the cross-platform product-day table
// fed by generic uploads and by the Shopify order sync.
type FactRow struct {
	SourceCode   string          `json:"source_code"`
	Platform     string          `json:"platform"`
	ProductID    string          `json:"product_id"`
	StatDate     string          `json:"stat_date"`
	Exposure     float64         `json:"exposure"`
	Visitors     float64         `json:"visitors"`
	Views        float64         `json:"views"`
	AddPeople    float64         `json:"add_people"`
	AddCount     float64         `json:"add_count"`
	PayItems     float64         `json:"pay_items"`
	PayOrders    float64         `json:"pay_orders"`
	PayBuyers    float64         `json:"pay_buyers"`
	VisitorToAdd float64         `json:"visitor_to_add"`
	AddToPay     float64         `json:"add_to_pay"`
	VisitorRatio float64         `json:"visitor_ratio"`
	Revenue      float64         `json:"revenue"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

var FactAliases = AliasTable{
	{"product_id", []string{"product_id", "productId", "id", "商品ID"}},
	{"stat_date", []string{"统计日期", "日期", "date", "stat_date"}},
	{"exposure", []string{"exposure", "impressions", "曝光量"}},
	{"visitors", []string{"visitors", "sessions", "访客数"}},
	{"views", []string{"views", "pageviews", "浏览量"}},
	{"add_people", []string{"add_people", "addPeople", "加购人数"}},
	{"add_count", []string{"add_count", "addCount", "加购件数"}},
	{"pay_items", []string{"pay_items", "payItems", "支付件数"}},
	{"pay_orders", []string{"pay_orders", "payOrders", "orders", "支付订单数"}},
	{"pay_buyers", []string{"pay_buyers", "payBuyers", "buyers", "支付买家数"}},
	{"visitor_to_add", []string{"visitor_to_add"}},
	{"add_to_pay", []string{"add_to_pay"}},
	{"visitor_ratio", []string{"visitor_ratio"}},
	{"revenue", []string{"revenue"}},
}

var factResolver = NewResolver(FactAliases, BareKey)

var FactColumns = []string{
	"source_code", "platform", "product_id", "stat_date",
	"exposure", "visitors", "views", "add_people", "add_count",
	"pay_items", "pay_orders", "pay_buyers",
	"visitor_to_add", "add_to_pay", "visitor_ratio", "revenue", "raw",
}

var FactConflict = []string{"source_code", "platform", "product_id", "stat_date"}

var (
	ErrNoStatDate        = errors.New("stat_date required and could not be inferred from rows")
	ErrAmbiguousStatDate = errors.New("rows carry more than one stat_date")
)

// InferStatDate returns the single date shared by all rows that carry one.
func InferStatDate(rows []RawRow) (string, error) {
	seen := make(map[string]bool)
	var first string
	for _, r := range rows {
		v, ok := factResolver.LookupExact(r, "stat_date")
		if !ok {
			continue
		}
		d := Date(v)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		if first == "" {
			first = d
		}
	}
	switch len(seen) {
	case 0:
		return "", ErrNoStatDate
	case 1:
		return first, nil
	}
	return "", ErrAmbiguousStatDate
}

// NormalizeFact maps a generic upload row. The untouched source row is kept in
// Raw.
func NormalizeFact(row RawRow, sourceCode, platform, statDate string, c Coercer) FactRow {
	get := func(field string) any {
		v, _ := factResolver.LookupExact(row, field)
		return v
	}
	num := func(field string) float64 { return c.Number(field, get(field)) }
	raw, err := row.MarshalJSON()
	if err != nil {
		raw = nil
	}
	return FactRow{
		SourceCode:   sourceCode,
		Platform:     platform,
		ProductID:    Text(get("product_id")),
		StatDate:     statDate,
		Exposure:     num("exposure"),
		Visitors:     num("visitors"),
		Views:        num("views"),
		AddPeople:    num("add_people"),
		AddCount:     num("add_count"),
		PayItems:     num("pay_items"),
		PayOrders:    num("pay_orders"),
		PayBuyers:    num("pay_buyers"),
		VisitorToAdd: num("visitor_to_add"),
		AddToPay:     num("add_to_pay"),
		VisitorRatio: num("visitor_ratio"),
		Revenue:      num("revenue"),
		Raw:          raw,
	}
}

func (r FactRow) Key() (string, bool) {
	return NaturalKey(r.SourceCode, r.Platform, r.ProductID, r.StatDate)
}

func (r FactRow) Values() []any {
	var raw any
	if len(r.Raw) > 0 {
		raw = string(r.Raw)
	}
	return []any{
		r.SourceCode, r.Platform, r.ProductID, r.StatDate,
		r.Exposure, r.Visitors, r.Views, r.AddPeople, r.AddCount,
		r.PayItems, r.PayOrders, r.PayBuyers,
		r.VisitorToAdd, r.AddToPay, r.VisitorRatio, r.Revenue, raw,
	}
}
