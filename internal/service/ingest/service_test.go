package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ignite/commerce-ingest/internal/config"
	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
	"github.com/ignite/commerce-ingest/internal/service/ingest"
	"github.com/ignite/commerce-ingest/internal/spreadsheet"
	"github.com/ignite/commerce-ingest/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tables = config.TablesConfig{
	AE:             "public.ae_self_operated_daily",
	AENewProducts:  "ae_self_new_products",
	Amazon:         "amazon_daily_by_asin",
	Ozon:           `"ozon_product_report_wide"`,
	Facts:          "fact_daily_metrics",
	MetaAds:        "fact_meta_daily",
	IndependentAds: "independent_facebook_ads_daily",
}

// memRepo answers ingestion reads from a fixed product/site map.
type memRepo struct {
	mu        sync.Mutex
	sites     map[string][]string
	latestDen string
}

func (m *memRepo) AEProductSites(_ context.Context, ids []string) (map[string][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]string)
	for _, id := range ids {
		if s, ok := m.sites[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (m *memRepo) LatestOzonDen(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latestDen, nil
}

type fakeArchive struct {
	kinds []string
	err   error
}

func (f *fakeArchive) Put(_ context.Context, kind, filename, _ string, _ []byte) (string, error) {
	f.kinds = append(f.kinds, kind)
	return kind + "/" + filename, f.err
}

func rawRows(t *testing.T, js string) []normalize.RawRow {
	t.Helper()
	var rows []normalize.RawRow
	require.NoError(t, json.Unmarshal([]byte(js), &rows))
	return rows
}

func newService() (*ingest.Service, *store.Memory, *memRepo) {
	mem := store.NewMemory()
	repo := &memRepo{sites: map[string][]string{}}
	return ingest.NewService(mem, repo, tables), mem, repo
}

func TestAEEndToEnd(t *testing.T) {
	svc, mem, _ := newService()
	res, err := svc.AE(context.Background(), rawRows(t,
		`[{"product_id":"A","stat_date":"2025-08-01","exposure":"1,000","visitors":"50"}]`), ingest.AEOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upserted)
	assert.Equal(t, []string{"A"}, res.NewProducts)

	stored := mem.Rows("ae_self_operated_daily")
	require.Len(t, stored, 1)
	assert.Equal(t, "A", stored[0]["product_id"])
	assert.Equal(t, "2025-08-01", stored[0]["stat_date"])
	assert.Equal(t, 1000.0, stored[0]["exposure"])
	assert.Equal(t, 50.0, stored[0]["visitors"])
	assert.Equal(t, 0.0, stored[0]["views"])
	assert.Equal(t, normalize.DefaultAESite, stored[0]["site"])

	fresh := mem.Rows("ae_self_new_products")
	require.Len(t, fresh, 1)
	assert.Equal(t, "2025-08-01", fresh[0]["first_seen"])
}

func TestAEEmptyBody(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.AE(context.Background(), nil, ingest.AEOptions{})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, "Invalid body, expected array of rows", apperr.As(err).Message)
}

func TestAEDryRunWritesNothing(t *testing.T) {
	svc, mem, _ := newService()
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < 15; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"商品ID":"P%d","日期":"20250801","曝光量":"abc"}`, i)
	}
	b.WriteString("]")

	res, err := svc.AE(context.Background(), rawRows(t, b.String()), ingest.AEOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	assert.Equal(t, 15, res.Kept)
	assert.Len(t, res.Sample, 10)
	assert.Equal(t, 15, res.Warnings.Count())
	assert.Empty(t, mem.Calls("ae_self_operated_daily"))
}

func TestAECrossSiteConflict(t *testing.T) {
	svc, mem, repo := newService()
	repo.sites["A"] = []string{"B站"}

	_, err := svc.AE(context.Background(), rawRows(t,
		`[{"product_id":"A","stat_date":"2025-08-01"},{"product_id":"C","stat_date":"2025-08-01"}]`), ingest.AEOptions{})
	require.Error(t, err)
	ae := apperr.As(err)
	assert.Equal(t, apperr.KindConflict, ae.Kind)
	assert.Equal(t, []string{"A"}, ae.Details["conflicts"])
	assert.Empty(t, mem.Calls("ae_self_operated_daily"))
}

func TestAEConflictWithinUpload(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.AE(context.Background(), rawRows(t,
		`[{"site":"A站","product_id":"X","stat_date":"2025-08-01"},{"site":"B站","product_id":"X","stat_date":"2025-08-01"}]`), ingest.AEOptions{})
	require.Error(t, err)
	assert.Equal(t, []string{"X"}, apperr.As(err).Details["conflicts"])
}

func TestAEKnownProductIsNotNew(t *testing.T) {
	svc, mem, repo := newService()
	repo.sites["A"] = []string{normalize.DefaultAESite}
	res, err := svc.AE(context.Background(), rawRows(t, `[{"product_id":"A","stat_date":"2025-08-02"}]`), ingest.AEOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.NewProducts)
	assert.Empty(t, mem.Calls("ae_self_new_products"))
}

func TestAEChunkFailureReportsRange(t *testing.T) {
	svc, mem, _ := newService()
	mem.Fail = func(table string, call int) error {
		if table == "ae_self_operated_daily" && call == 2 {
			return errors.New("deadlock detected")
		}
		return nil
	}
	raw := make([]normalize.RawRow, 2500)
	for i := range raw {
		r := normalize.NewRawRow(2)
		r.Set("product_id", fmt.Sprintf("P%04d", i))
		r.Set("stat_date", "2025-08-01")
		raw[i] = r
	}

	_, err := svc.AE(context.Background(), raw, ingest.AEOptions{})
	require.Error(t, err)
	ae := apperr.As(err)
	assert.Equal(t, apperr.KindStorage, ae.Kind)
	assert.Equal(t, 1000, ae.Details["chunk_from"])
	assert.Equal(t, 2000, ae.Details["chunk_to"])
	assert.EqualError(t, ae.Err, "deadlock detected")
	assert.Equal(t, []int{1000, 1000}, mem.Calls("ae_self_operated_daily"))
}

func TestFactsInfersStatDate(t *testing.T) {
	svc, mem, _ := newService()
	res, err := svc.Facts(context.Background(), ingest.FactInput{
		SourceCode: "AE_MANAGED",
		Platform:   "aliexpress",
		Rows:       rawRows(t, `[{"商品ID":"1","日期":"2025/8/1","访客数":"3"},{"productId":"2","date":"2025-08-01"}]`),
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-08-01", res.StatDate)
	assert.Equal(t, 2, res.Upserted)

	stored := mem.Rows("fact_daily_metrics")
	require.Len(t, stored, 2)
	assert.Equal(t, 3.0, stored[0]["visitors"])
	assert.Equal(t, "aliexpress", stored[0]["platform"])
}

func TestFactsValidation(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.Facts(context.Background(), ingest.FactInput{Platform: "x", Rows: rawRows(t, `[{"id":"1"}]`)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.Facts(context.Background(), ingest.FactInput{
		SourceCode: "S", Platform: "p",
		Rows: rawRows(t, `[{"id":"1","date":"2025-08-01"},{"id":"2","date":"2025-08-02"}]`),
	})
	require.Error(t, err)
	assert.Equal(t, normalize.ErrAmbiguousStatDate.Error(), apperr.As(err).Message)
}

func TestMetaAds(t *testing.T) {
	svc, mem, _ := newService()
	sheet := &spreadsheet.Sheet{Rows: [][]string{
		{"Campaign name", "Ad set name", "Impressions", "Spend (USD)", "Link clicks", "Row start date", "Row end date"},
		{"Spring", "Broad", "2,000", "10", "5", "2025-08-01", "2025-08-01"},
		{"", "", "", "", "", "", ""},
		{"Spring", "Broad", "4000", "20", "0", "2025-08-01", "2025-08-01"},
	}}
	res, err := svc.MetaAds(context.Background(), sheet, "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Upserted)

	stored := mem.Rows("fact_meta_daily")
	require.Len(t, stored, 1)
	assert.Equal(t, normalize.DefaultMetaSite, stored[0]["site_id"])
	assert.Equal(t, 4000.0, stored[0]["impressions"])
	assert.Nil(t, stored[0]["cpc_link"])
}

func TestIndependentAdsNeedsSite(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.IndependentAds(context.Background(), &spreadsheet.Sheet{}, " ")
	require.Error(t, err)
	assert.Equal(t, "Missing X-Site-ID header", apperr.As(err).Message)
}

func TestIndependentAdsNoHeader(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.IndependentAds(context.Background(), &spreadsheet.Sheet{Rows: [][]string{{"hello", "world"}}}, "shop.example")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAmazonUpsert(t *testing.T) {
	svc, mem, _ := newService()
	res, err := svc.Amazon(context.Background(), rawRows(t, `[
		{"marketplaceId":"ATVPDKIKX0DER","childAsin":"B01","date":"2025-08-01","sessions":"1,200","buyBoxPercentage":"98.5"},
		{"marketplace_id":"ATVPDKIKX0DER","asin":"B01","stat_date":"2025-08-01","sessions":1300},
		{"asin":"","stat_date":"2025-08-01"}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Received)
	assert.Equal(t, 1, res.Upserted)
	stored := mem.Rows("amazon_daily_by_asin")
	require.Len(t, stored, 1)
	assert.Equal(t, 1300.0, stored[0]["sessions"])
}

func TestOzonReportsLatestDen(t *testing.T) {
	svc, mem, repo := newService()
	repo.latestDen = "2025-08-01"
	rows := []normalize.OzonRow{
		{"sku": "1", "den": "2025-08-01", "pokazy_vsego": 10.0},
		{"sku": "1", "den": "2025-08-01", "pokazy_vsego": 12.0},
		{"den": "2025-08-01"},
	}
	res, err := svc.Ozon(context.Background(), rows, "ozon_sync")
	require.NoError(t, err)
	assert.Equal(t, "ozon_product_report_wide", res.Table)
	assert.Equal(t, 1, res.Upserted)
	assert.Equal(t, "2025-08-01", res.LatestDen)

	stored := mem.Rows("ozon_product_report_wide")
	require.Len(t, stored, 1)
	assert.Equal(t, "1", stored[0]["model"])
	assert.Equal(t, "1", stored[0]["tovary"])
}

func TestArchiveIsBestEffort(t *testing.T) {
	svc, _, _ := newService()
	assert.Empty(t, svc.Archive(context.Background(), "fb_ingest", "a.xlsx", "", []byte("x")))

	fa := &fakeArchive{}
	svc.SetArchiver(fa)
	assert.Equal(t, "fb_ingest/a.xlsx", svc.Archive(context.Background(), "fb_ingest", "a.xlsx", "", []byte("x")))

	fa.err = errors.New("denied")
	assert.Empty(t, svc.Archive(context.Background(), "fb_ingest", "a.xlsx", "", []byte("x")))
	assert.Len(t, fa.kinds, 2)
}
