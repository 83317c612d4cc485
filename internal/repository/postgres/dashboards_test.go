package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/commerce-ingest/internal/service/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOzonDatesNewestFirst(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT den::text FROM "ozon_product_report_wide" ORDER BY 1 DESC`)).
		WillReturnRows(sqlmock.NewRows([]string{"den"}).AddRow("2025-01-06").AddRow("2025-01-05"))

	dates, err := NewQueryRepo(db, testTables).OzonDates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-06", "2025-01-05"}, dates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOzonProductsSumsRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"sku", "model", "tovary", "pokazy", "pokazy_poisk", "posescheniya", "uv", "uv_poisk", "uv_kartochki",
		"korzina_poisk", "korzina_kartochka", "zakazano", "dostavleno", "summa"}
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY sku, model`)).
		WithArgs("2025-01-01", "2025-01-07").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("1001", "M1", "Лампа", "150", "90", "30", "25", "12", "20", "2", "3", "4", "1", "1999.50"))

	rows, err := NewQueryRepo(db, testTables).OzonProducts(context.Background(), "2025-01-01", "2025-01-07")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, query.OzonProduct{
		ProductID: "1001", Model: "M1", ProductTitle: "Лампа",
		Impressions: 150, SearchImpressions: 90, CardVisits: 30,
		UniqueVisitors: 25, SearchVisitors: 12, CardVisitors: 20,
		CartFromSearch: 2, CartFromCard: 3, Ordered: 4, Delivered: 1, OrderedAmount: 1999.5,
	}, rows[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetaAdsScansNullablePrices(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"site_id", "level", "campaign_name", "adset_name", "product_identifier",
		"reach", "impressions", "link_clicks", "all_clicks", "spend_usd",
		"atc_total", "ic_total", "purchase_web", "purchase_meta",
		"cpm", "cpc_link", "row_start_date", "row_end_date"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "fact_meta_daily"`)).
		WithArgs("icyberite", "2025-01-01", "2025-01-07", 1000, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("icyberite", "adset", "Spring", "Broad", "sku-1", "800", "2000", "5", "9", "10",
				"1", "0", "1", "0", "5", nil, "2025-01-02", "2025-01-02"))

	rows, err := NewQueryRepo(db, testTables).MetaAds(context.Background(), "icyberite", "2025-01-01", "2025-01-07", 1000, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2000.0, rows[0].Impressions)
	require.NotNil(t, rows[0].CPM)
	assert.Equal(t, 5.0, *rows[0].CPM)
	assert.Nil(t, rows[0].CPCLink)
	assert.Equal(t, "2025-01-02", rows[0].RowStartDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIndependentAdsFiltersBySite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"site", "day", "campaign_name", "adset_name", "landing_url", "landing_path",
		"impressions", "clicks", "spend_usd", "cpm", "cpc_all", "all_ctr", "reach"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "independent_facebook_ads_daily"`)).
		WithArgs("poolsvacuum.com", "2025-01-01", "2025-01-30", 1000, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("poolsvacuum.com", "2025-01-15", "Spring", "Broad", "https://poolsvacuum.com/products/x", "/products/x",
				"1200", "30", "12.5", "10.4", "0.41", "2.5", "900"))

	rows, err := NewQueryRepo(db, testTables).IndependentAds(context.Background(), "poolsvacuum.com", "2025-01-01", "2025-01-30", 1000, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-01-15", rows[0].Day)
	assert.Equal(t, 12.5, rows[0].SpendUSD)
	assert.Equal(t, "/products/x", rows[0].LandingPath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewProductsPerPlatform(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(first_seen)::text, '') FROM "ae_self_new_products"`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow("2025-07-20"))
	mock.ExpectQuery(regexp.QuoteMeta(`MIN(period_end) AS first_seen`)).
		WithArgs("2025-07-01", "2025-07-31", 500).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "first_seen"}).AddRow("p9", "2025-07-13"))

	repo := NewQueryRepo(db, testTables)
	day, err := repo.LatestNewProductDay(context.Background(), query.PlatformSelf)
	require.NoError(t, err)
	assert.Equal(t, "2025-07-20", day)

	items, err := repo.NewProducts(context.Background(), query.PlatformManaged, "2025-07-01", "2025-07-31", 500)
	require.NoError(t, err)
	assert.Equal(t, []query.NewProduct{{ProductID: "p9", FirstSeen: "2025-07-13"}}, items)

	_, err = repo.NewProducts(context.Background(), "lazada", "2025-07-01", "2025-07-31", 500)
	assert.ErrorIs(t, err, query.ErrInvalidPlatform)
	assert.NoError(t, mock.ExpectationsWereMet())
}
