package normalize

// Ozon product report wide table. Column names are the transliterated titles
// of the seller-portal report, which is why they read like
// "voronka_prodazh_pokazy_vsego" ("sales funnel: impressions total").

// OzonDimensionColumns maps analytics dimensions onto text columns.
var OzonDimensionColumns = map[string]string{
	"sku":        "sku",
	"offer_id":   "model",
	"title":      "tovary",
	"brand":      "brend",
	"category_1": "kategoriya_1_urovnya",
	"category_2": "kategoriya_2_urovnya",
	"category_3": "kategoriya_3_urovnya",
}

// OzonDimensions is the dimension list requested from the analytics API.
var OzonDimensions = []string{"sku", "offer_id", "title", "brand", "category_1", "category_2", "category_3"}

// OzonBaseMetrics are always requested, in this order.
var OzonBaseMetrics = []string{
	"hits_view", "hits_view_search", "hits_view_pdp",
	"hits_tocart_search", "hits_tocart_pdp",
	"ordered_units", "delivered_units", "revenue",
	"cancelled_units", "returned_units",
}

// OzonUVMetricCombos are alternative names for the unique-visitor metrics
// (total, search/catalog, product page). Accounts accept different ones.
var OzonUVMetricCombos = [][]string{
	{"unique_view", "unique_view_search", "unique_view_pdp"},
	{"uniq_view", "uniq_view_search", "uniq_view_pdp"},
	{"visitors", "visitors_search", "visitors_pdp"},
}

var ozonBaseMetricColumns = map[string]string{
	"hits_view":          "voronka_prodazh_pokazy_vsego",
	"hits_view_search":   "voronka_prodazh_pokazy_v_poiske_i_kataloge",
	"hits_view_pdp":      "voronka_prodazh_posescheniya_kartochki_tovara",
	"hits_tocart_search": "voronka_prodazh_dobavleniya_iz_poiska_i_kataloge_v_korzinu",
	"hits_tocart_pdp":    "voronka_prodazh_dobavleniya_iz_kartochki_v_korzinu",
	"ordered_units":      "voronka_prodazh_zakazano_tovarov",
	"delivered_units":    "voronka_prodazh_dostavleno_tovarov",
	"revenue":            "prodazhi_zakazano_na_summu",
	"cancelled_units":    "voronka_prodazh_otmeneno_tovarov_na_datu_otmeny_",
	"returned_units":     "voronka_prodazh_vozvrascheno_tovarov_na_datu_vozvrata_",
}

var ozonUVColumns = []string{
	"voronka_prodazh_unikalnye_posetiteli_vsego",
	"voronka_prodazh_uv_s_prosmotrom_v_poiske_ili_kataloge",
	"voronka_prodazh_uv_s_prosmotrom_kartochki_tovara",
}

// OzonMetricColumn returns the wide-table column of an analytics metric.
func OzonMetricColumn(metric string) (string, bool) {
	if col, ok := ozonBaseMetricColumns[metric]; ok {
		return col, true
	}
	for _, combo := range OzonUVMetricCombos {
		for i, m := range combo {
			if m == metric {
				return ozonUVColumns[i], true
			}
		}
	}
	return "", false
}

// OzonWideColumns is the full column order of the wide table.
var OzonWideColumns = func() []string {
	cols := []string{
		"den", "sku", "model", "artikul", "tovary", "brend",
		"kategoriya_1_urovnya", "kategoriya_2_urovnya", "kategoriya_3_urovnya",
	}
	for _, m := range OzonBaseMetrics {
		cols = append(cols, ozonBaseMetricColumns[m])
	}
	return append(cols, ozonUVColumns...)
}()

var ozonTextColumns = map[string]bool{
	"den": true, "sku": true, "model": true, "artikul": true, "tovary": true, "brend": true,
	"kategoriya_1_urovnya": true, "kategoriya_2_urovnya": true, "kategoriya_3_urovnya": true,
}

var ozonWideSet = func() map[string]bool {
	m := make(map[string]bool, len(OzonWideColumns))
	for _, c := range OzonWideColumns {
		m[c] = true
	}
	return m
}()

var OzonConflict = []string{"sku", "model", "den"}

// OzonRow is one sku-day of the wide table. Only the columns that were set
// are written.
type OzonRow map[string]any

func (r OzonRow) text(col string) string { return Text(r[col]) }

func (r OzonRow) Den() string   { return r.text("den") }
func (r OzonRow) SKU() string   { return r.text("sku") }
func (r OzonRow) Model() string { return r.text("model") }

// Complete applies the fallbacks model <- sku and tovary <- model, and reports
// whether the row has its key columns.
func (r OzonRow) Complete() bool {
	if r.Model() == "" && r.SKU() != "" {
		r["model"] = r.SKU()
	}
	if r.text("tovary") == "" && r.Model() != "" {
		r["tovary"] = r.Model()
	}
	return r.SKU() != "" && r.Model() != "" && r.Den() != ""
}

func (r OzonRow) Key() (string, bool) {
	return NaturalKey(r.SKU(), r.Model(), r.Den())
}

// OzonBatch lays rows out for an upsert. Columns are the union of what the
// rows set, in wide-table order; a row that lacks one of them writes NULL.
func OzonBatch(rows []OzonRow) (columns []string, values [][]any) {
	present := make(map[string]bool)
	for _, r := range rows {
		for c := range r {
			present[c] = true
		}
	}
	for _, c := range OzonWideColumns {
		if present[c] {
			columns = append(columns, c)
		}
	}
	values = make([][]any, len(rows))
	for i, r := range rows {
		vals := make([]any, len(columns))
		for j, c := range columns {
			vals[j] = r[c]
		}
		values[i] = vals
	}
	return columns, values
}

// DedupeOzon keeps the last row per sku, model and day.
func DedupeOzon(rows []OzonRow) []OzonRow {
	return Dedupe(rows, OzonRow.Key)
}

// OzonImportAliases resolves the key columns of a seller-portal report after
// its headers have been transliterated.
var OzonImportAliases = AliasTable{
	{"sku", []string{"sku", "sku_ozon", "ozon_sku", "ozon_id"}},
	{"model", []string{"model", "model_tovara"}},
	{"artikul", []string{"artikul", "artikul_prodavtsa", "offer_id"}},
	{"den", []string{"den", "data", "date", "period"}},
}

var ozonImportResolver = NewResolver(OzonImportAliases, Transliterate)

// NormalizeOzonImport maps a row of an uploaded report. Headers are
// transliterated and matched against the wide columns; unknown columns are
// dropped. periodEnd is used as den when the file has no date column.
func NormalizeOzonImport(row RawRow, periodEnd string, c Coercer) OzonRow {
	out := OzonRow{}
	for _, k := range row.Keys() {
		col := Transliterate(k)
		if !ozonWideSet[col] {
			continue
		}
		v, _ := row.Get(k)
		if ozonTextColumns[col] {
			if s := Text(v); s != "" {
				out[col] = s
			}
			continue
		}
		out[col] = c.Number(col, v)
	}
	for _, f := range []string{"sku", "model", "artikul"} {
		if out.text(f) != "" {
			continue
		}
		if v, ok := ozonImportResolver.Lookup(row, f); ok {
			out[f] = Text(v)
		}
	}
	if out.Model() == "" && out.text("artikul") != "" {
		out["model"] = out.text("artikul")
	}
	den := ""
	if v, ok := ozonImportResolver.Lookup(row, "den"); ok {
		if den = Day(v); den == "" {
			den = Date(v)
		}
	}
	if den == "" {
		den = Date(periodEnd)
	}
	if den != "" {
		out["den"] = den
	}
	return out
}

// NormalizeOzonImportBatch normalizes, completes and deduplicates an upload.
func NormalizeOzonImportBatch(rows []RawRow, periodEnd string, w *Warnings) []OzonRow {
	d := NewDeduper(OzonRow.Key)
	for i, raw := range rows {
		r := NormalizeOzonImport(raw, periodEnd, Coercer{W: w, Row: i})
		if !r.Complete() {
			continue
		}
		d.Add(r)
	}
	return d.Rows()
}
