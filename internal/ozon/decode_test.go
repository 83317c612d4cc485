package ozon

import (
	"encoding/json"
	"testing"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(t *testing.T, js string) AnalyticsItem {
	t.Helper()
	var it AnalyticsItem
	require.NoError(t, json.Unmarshal([]byte(js), &it))
	return it
}

func TestDecodeItemPositionalMetrics(t *testing.T) {
	it := item(t, `{
		"dimensions":[{"id":1790612304,"name":"Настольная лампа"},{"id":"LAMP-01","name":"LAMP-01"}],
		"metrics":[120, 80, 40, null, "NaN"]
	}`)
	metrics := []string{"hits_view", "hits_view_search", "hits_view_pdp", "hits_tocart_search", "hits_tocart_pdp"}

	row, ok := DecodeItem(it, "2025-01-05", metrics)
	require.True(t, ok)
	assert.Equal(t, "1790612304", row.SKU())
	assert.Equal(t, "LAMP-01", row.Model())
	assert.Equal(t, "Настольная лампа", row["tovary"])
	assert.Equal(t, 120.0, row["voronka_prodazh_pokazy_vsego"])
	assert.Equal(t, 40.0, row["voronka_prodazh_posescheniya_kartochki_tovara"])
	assert.Equal(t, 0.0, row["voronka_prodazh_dobavleniya_iz_poiska_i_kataloge_v_korzinu"])
	assert.Equal(t, 0.0, row["voronka_prodazh_dobavleniya_iz_kartochki_v_korzinu"])
}

func TestDecodeItemObjectMetrics(t *testing.T) {
	it := item(t, `{
		"dimensions":[{"id":"sku","value":"555"},{"id":"brand","name":"Acme"}],
		"metrics":[{"id":"ordered_units","value":"7"},{"id":"uniq_view_pdp","value":12},{"id":"unknown","value":1}]
	}`)
	row, ok := DecodeItem(it, "2025-01-05", nil)
	require.True(t, ok)
	assert.Equal(t, "555", row.SKU())
	assert.Equal(t, "555", row.Model(), "model falls back to sku")
	assert.Equal(t, "555", row["tovary"], "tovary falls back to model")
	assert.Equal(t, "Acme", row["brend"])
	assert.Equal(t, 7.0, row["voronka_prodazh_zakazano_tovarov"])
	assert.Equal(t, 12.0, row["voronka_prodazh_uv_s_prosmotrom_kartochki_tovara"])
	assert.Len(t, row, 7)
}

func TestDecodeItemWithoutSKU(t *testing.T) {
	_, ok := DecodeItem(item(t, `{"dimensions":[],"metrics":[1]}`), "2025-01-05", []string{"hits_view"})
	assert.False(t, ok)
}

func TestEnrich(t *testing.T) {
	rows := []normalize.OzonRow{
		{"den": "2025-01-05", "sku": "1", "model": "1", "tovary": "1"},
		{"den": "2025-01-05", "sku": "2", "model": "2"},
		{"den": "2025-01-05", "sku": "3", "model": "keep"},
	}
	Enrich(rows, map[string]ProductInfo{
		"1": {OfferID: "OF-1"},
		"2": {OfferID: "OF-2", Attributes: []Attribute{{Name: "Модель", Value: "M-2"}}},
	})
	assert.Equal(t, "OF-1", rows[0].Model())
	assert.Equal(t, "OF-1", rows[0]["artikul"])
	assert.Equal(t, "M-2", rows[1].Model())
	assert.Equal(t, "OF-2", rows[1]["artikul"])
	assert.Equal(t, "keep", rows[2].Model())
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":" x ","b":1790612304,"c":null}`), &v))
	assert.Equal(t, FlexString("x"), v.A)
	assert.Equal(t, FlexString("1790612304"), v.B)
	assert.Equal(t, FlexString(""), v.C)
}
