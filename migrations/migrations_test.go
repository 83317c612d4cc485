package migrations

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schema(t *testing.T) string {
	t.Helper()
	all, err := All()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	var b strings.Builder
	for _, f := range all {
		b.WriteString(f.SQL)
	}
	return b.String()
}

func TestUniqueKeysMatchUpsertConflicts(t *testing.T) {
	sql := schema(t)
	cases := []struct {
		table    string
		conflict []string
	}{
		{"ae_self_operated_daily", normalize.AEConflict},
		{"ae_self_new_products", []string{"site", "product_id"}},
		{"amazon_daily_by_asin", normalize.AmazonConflict},
		{"fact_daily_metrics", normalize.FactConflict},
		{"fact_meta_daily", normalize.MetaConflict},
		{"independent_facebook_ads_daily", normalize.IndependentConflict},
		{"ozon_product_report_wide", normalize.OzonConflict},
	}
	for _, tc := range cases {
		want := tc.table + "_key UNIQUE (" + strings.Join(tc.conflict, ", ") + ")"
		assert.Contains(t, sql, want, tc.table)
	}
}

func TestOzonWideColumnsExist(t *testing.T) {
	sql := schema(t)
	for _, c := range normalize.OzonWideColumns {
		assert.Contains(t, sql, "\n    "+c+" ", c)
	}
}

func TestLoadSortsAndSkipsEmpty(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql":  {Data: []byte("SELECT 2;")},
		"001_a.sql":  {Data: []byte("SELECT 1;")},
		"003_c.sql":  {Data: []byte("  \n")},
		"README.txt": {Data: []byte("notes")},
	}
	got, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "001_a.sql", got[0].Name)
	assert.Equal(t, "002_b.sql", got[1].Name)
}
