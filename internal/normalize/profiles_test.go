package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRows(t *testing.T, js string) []RawRow {
	t.Helper()
	var rows []RawRow
	require.NoError(t, json.Unmarshal([]byte(js), &rows))
	return rows
}

func TestNormalizeAEChineseHeaders(t *testing.T) {
	r := rawRow(t, `{"商品ID":"P1","日期":"2025-01-01","曝光量":100}`)
	got := NormalizeAE(r, Coercer{})
	assert.Equal(t, AERow{Site: DefaultAESite, ProductID: "P1", StatDate: "2025-01-01", Exposure: 100}, got)
}

func TestNormalizeAEVisitors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want float64
	}{
		{"visitors column wins", `{"visitors":"50","新访客数":"10","老访客数":"5"}`, 50},
		{"split columns beat alias total", `{"访客数":"50","新访客数":"10","老访客数":"5"}`, 15},
		{"alias total alone", `{"商品访客数":"40"}`, 40},
		{"new plus old", `{"新访客数":"10","老访客":"5"}`, 15},
		{"all new aliases summed", `{"新访客数":"10","new_visitors":"3"}`, 13},
		{"none", `{"商品ID":"P1"}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeAE(rawRow(t, tt.row), Coercer{})
			assert.Equal(t, tt.want, got.Visitors)
		})
	}
}

func TestNormalizeAEEnglishHeaders(t *testing.T) {
	r := rawRow(t, `{"Product ID":"P1","Stat Date":"2025-01-01","Pay Orders":"7","add-people":"3","Avg Stay Seconds":"9","Visitors":"20"}`)
	got := NormalizeAE(r, Coercer{})
	assert.Equal(t, AERow{
		Site: DefaultAESite, ProductID: "P1", StatDate: "2025-01-01",
		Visitors: 20, AddPeople: 3, PayOrders: 7, AvgStaySeconds: 9,
	}, got)
}

func TestNormalizeIsRepeatable(t *testing.T) {
	ae := rawRow(t, `{"商品ID":"P1","日期":"2025-01-01","新访客数":"10","老访客":"5","搜索点击率":"5%"}`)
	assert.Equal(t, NormalizeAE(ae, Coercer{}), NormalizeAE(ae, Coercer{}))

	amz := rawRow(t, `{"Child ASIN":"B01","Date":"2025-01-05","Page Views":"20"}`)
	assert.Equal(t, NormalizeAmazon(amz, Coercer{}), NormalizeAmazon(amz, Coercer{}))

	fact := rawRow(t, `{"productId":"S1","Add People":"2"}`)
	first := NormalizeFact(fact, "SHOP", "shopify", "2025-01-05", Coercer{})
	second := NormalizeFact(fact, "SHOP", "shopify", "2025-01-05", Coercer{})
	assert.Equal(t, first, second)
	assert.Equal(t, 2.0, first.AddPeople)
}

func TestNormalizeAEFields(t *testing.T) {
	r := rawRow(t, `{
		"site":"B站","product_id":1005006,"stat_date":"20250105",
		"搜索曝光量":"1,000","商品浏览量":"80","加购人数":"4","加购件数":"6",
		"支付件数":"3","支付订单数":"2","支付买家数":"2","下单件数":"5",
		"平均停留时长":"12.5","搜索点击率":"5%","收藏人数":"1","收藏次数":"2"
	}`)
	got := NormalizeAE(r, Coercer{})
	assert.Equal(t, AERow{
		Site: "B站", ProductID: "1005006", StatDate: "2025-01-05",
		Exposure: 1000, Views: 80, AddPeople: 4, AddCount: 6,
		PayItems: 3, PayOrders: 2, PayBuyers: 2, OrderItems: 5,
		AvgStaySeconds: 12.5, SearchCTR: 0.05, FavPeople: 1, FavCount: 2,
	}, got)
}

func TestNormalizeAEBatch(t *testing.T) {
	rows := rawRows(t, `[
		{"商品ID":"P1","日期":"2025-01-02","曝光量":1},
		{"商品ID":"P2","日期":"2025-01-01","曝光量":2},
		{"商品ID":"P1","日期":"2025-01-02","曝光量":3},
		{"商品ID":"","日期":"2025-01-02","曝光量":4},
		{"商品ID":"P3","曝光量":"abc"}
	]`)
	w := &Warnings{}
	got := NormalizeAEBatch(rows, w)
	require.Len(t, got, 2)
	assert.Equal(t, "P2", got[0].ProductID)
	assert.Equal(t, "P1", got[1].ProductID)
	assert.Equal(t, 3.0, got[1].Exposure)
	assert.Equal(t, 1, w.Count())
	assert.Equal(t, 4, w.Samples()[0].Row)
}

func TestNormalizeAmazon(t *testing.T) {
	rows := rawRows(t, `[
		{"marketplaceId":"ATVPDKIKX0DER","asin":"B0001","date":"2025-01-05","sessions":"10",
		 "pageViews":"20","unitsOrdered":"2","orderedProductSales":"39.98","buyBoxPercentage":"95.5"},
		{"marketplace_id":"ATVPDKIKX0DER","asin":"B0001","stat_date":"2025-01-05","sessions":12},
		{"asin":"B0002","stat_date":"2025-01-05"}
	]`)
	got := NormalizeAmazonBatch(rows, nil)
	require.Len(t, got, 1)
	assert.Equal(t, AmazonRow{MarketplaceID: "ATVPDKIKX0DER", ASIN: "B0001", StatDate: "2025-01-05", Sessions: 12}, got[0])

	spaced := NormalizeAmazon(rawRow(t, `{"Child ASIN":"B03","Stat-Date":"2025-01-06","Page Views":"8","Units Ordered":"1"}`), Coercer{})
	assert.Equal(t, AmazonRow{ASIN: "B03", StatDate: "2025-01-06", PageViews: 8, UnitsOrdered: 1}, spaced)

	first := NormalizeAmazon(rows[0], Coercer{})
	assert.Equal(t, 20.0, first.PageViews)
	assert.Equal(t, 2.0, first.UnitsOrdered)
	assert.Equal(t, 39.98, first.OrderedProductSales)
	assert.Equal(t, 95.5, first.BuyBoxPct)
}

func TestInferStatDate(t *testing.T) {
	d, err := InferStatDate(rawRows(t, `[{"统计日期":"20250105"},{"日期":"2025-01-05"},{"x":1}]`))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", d)

	_, err = InferStatDate(rawRows(t, `[{"date":"2025-01-05"},{"date":"2025-01-06"}]`))
	assert.ErrorIs(t, err, ErrAmbiguousStatDate)

	_, err = InferStatDate(rawRows(t, `[{"x":1}]`))
	assert.ErrorIs(t, err, ErrNoStatDate)
}

func TestNormalizeFactKeepsRaw(t *testing.T) {
	r := rawRow(t, `{"productId":"S1","impressions":"10","sessions":"4","orders":"1"}`)
	got := NormalizeFact(r, "SHOP", "shopify", "2025-01-05", Coercer{})
	assert.Equal(t, "S1", got.ProductID)
	assert.Equal(t, 10.0, got.Exposure)
	assert.Equal(t, 4.0, got.Visitors)
	assert.Equal(t, 1.0, got.PayOrders)
	assert.JSONEq(t, `{"productId":"S1","impressions":"10","sessions":"4","orders":"1"}`, string(got.Raw))
	assert.Len(t, got.Values(), len(FactColumns))
}

func TestNormalizeMetaSheet(t *testing.T) {
	header := []string{"广告系列名称", "广告组名称", "展示次数", "链接点击量", "点击量（全部）", "已花费金额 (USD)", "开始日期", "结束日期"}
	rows := [][]string{
		{"C1", "A1", "2000", "10", "0", "5", "2025-01-05", "2025-01-05"},
		{},
		{"", "A1", "1", "1", "1", "1", "2025-01-05", "2025-01-05"},
		{"C1", "A1", "4000", "20", "40", "8", "2025-01-05", "2025-01-05"},
	}
	got := NormalizeMetaSheet(header, rows, DefaultMetaSite, nil)
	require.Len(t, got, 1)
	r := got[0]
	assert.Equal(t, "icyberite", r.SiteID)
	assert.Equal(t, 4000.0, r.Impressions)
	require.NotNil(t, r.CPM)
	assert.InDelta(t, 2.0, *r.CPM, 1e-9)
	require.NotNil(t, r.CPCLink)
	assert.InDelta(t, 0.4, *r.CPCLink, 1e-9)
	require.NotNil(t, r.CPCAll)
	assert.InDelta(t, 0.2, *r.CPCAll, 1e-9)
	assert.Len(t, r.Values(), len(MetaColumns))
}

func TestMetaDerivedPricesNilOnZero(t *testing.T) {
	h := ResolveMetaHeader([]string{"campaignname", "spendusd", "rowstartdate"})
	r := NormalizeMetaAd(h, []string{"C", "5", "2025-01-05"}, "s", Coercer{})
	assert.Nil(t, r.CPM)
	assert.Nil(t, r.CPCLink)
	assert.Nil(t, r.CPCAll)
	assert.Nil(t, r.Values()[21])
}

func TestFindAdsHeader(t *testing.T) {
	rows := [][]string{
		{"Facebook Ads report"},
		{"Generated 2025-01-06"},
		{"Campaign name", "Ad set name", "Day", "Impressions"},
	}
	assert.Equal(t, 2, FindAdsHeader(rows))

	weak := [][]string{{"title"}, {"Spend", "Reach"}}
	assert.Equal(t, 1, FindAdsHeader(weak))
	assert.Equal(t, -1, FindAdsHeader([][]string{{"foo"}}))
}

func TestNormalizeIndependentSheet(t *testing.T) {
	rows := [][]string{
		{"Report"},
		{"Campaign name", "Ad set name", "Date", "Impressions", "Link clicks", "Amount spent (USD)", "Website URL"},
		{"C1", "S1", "45662", "1,000", "--", "12,5", "https://www.shop.example/p/1"},
		{"C1", "S1", "2025/1/5", "2000", "7", "3", ""},
		{"C2", "S1", "bad", "1", "1", "1", ""},
	}
	got, ok := NormalizeIndependentSheet(rows, "independent_shop", nil)
	require.True(t, ok)
	require.Len(t, got, 1)
	r := got[0]
	assert.Equal(t, "2025-01-05", r.Day)
	assert.Equal(t, 2000.0, r.Impressions)
	assert.Equal(t, 7.0, r.Clicks)

	first := NormalizeIndependentAd(IndependentHeader{"campaign": 0, "date": 2, "impressions": 3, "clicks": 4, "spend": 5, "landing_url": 6}, rows[2], "s", Coercer{})
	assert.Equal(t, 1000.0, first.Impressions)
	assert.Equal(t, 0.0, first.Clicks)
	assert.Equal(t, 12.5, first.SpendUSD)
	assert.Equal(t, "shop.example", first.LandingSite)
	assert.Equal(t, "/p/1", first.LandingPath)
}

func TestNormalizeIndependentNeedsCampaignAndDate(t *testing.T) {
	_, ok := NormalizeIndependentSheet([][]string{{"Campaign name", "Impressions"}, {"C1", "1"}}, "s", nil)
	assert.False(t, ok)
}

func TestOzonMetricColumn(t *testing.T) {
	col, ok := OzonMetricColumn("hits_view")
	assert.True(t, ok)
	assert.Equal(t, "voronka_prodazh_pokazy_vsego", col)
	col, ok = OzonMetricColumn("uniq_view_pdp")
	assert.True(t, ok)
	assert.Equal(t, "voronka_prodazh_uv_s_prosmotrom_kartochki_tovara", col)
	_, ok = OzonMetricColumn("nope")
	assert.False(t, ok)
}

func TestNormalizeOzonImportBatch(t *testing.T) {
	rows := []RawRow{
		RowFromCells(
			[]string{"SKU", "Артикул", "Товары", "Воронка продаж: Показы всего", "Прочее"},
			[]string{"1001", "M-1", "Лампа", "1 200", "x"},
		),
		RowFromCells(
			[]string{"SKU", "Воронка продаж: Показы всего"},
			[]string{"", "5"},
		),
	}
	got := NormalizeOzonImportBatch(rows, "2025-01-05", nil)
	require.Len(t, got, 1)
	r := got[0]
	assert.Equal(t, "1001", r.SKU())
	assert.Equal(t, "M-1", r.Model())
	assert.Equal(t, "M-1", r["artikul"])
	assert.Equal(t, "Лампа", r["tovary"])
	assert.Equal(t, "2025-01-05", r.Den())
	assert.Equal(t, 1.0, r["voronka_prodazh_pokazy_vsego"], "space stops the number prefix")
	_, hasOther := r["prochee"]
	assert.False(t, hasOther)
}

func TestOzonRowFallbacksAndBatch(t *testing.T) {
	a := OzonRow{"den": "2025-01-05", "sku": "1"}
	require.True(t, a.Complete())
	assert.Equal(t, "1", a.Model())
	assert.Equal(t, "1", a["tovary"])

	b := OzonRow{"den": "2025-01-05", "sku": "2", "model": "m", "voronka_prodazh_pokazy_vsego": 3.0}
	cols, vals := OzonBatch([]OzonRow{a, b})
	assert.Equal(t, []string{"den", "sku", "model", "tovary", "voronka_prodazh_pokazy_vsego"}, cols)
	assert.Equal(t, []any{"2025-01-05", "1", "1", "1", nil}, vals[0])
	assert.Equal(t, []any{"2025-01-05", "2", "m", nil, 3.0}, vals[1])

	assert.False(t, OzonRow{"sku": "1"}.Complete())
}
