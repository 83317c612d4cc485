package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/commerce-ingest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTables = config.TablesConfig{
	AE:             "public.ae_self_operated_daily",
	Amazon:         `"amazon_daily_by_asin"`,
	Ozon:           "ozon_product_report_wide",
	MetaAds:        "fact_meta_daily",
	IndependentAds: "independent_facebook_ads_daily",
	AENewProducts:  "ae_self_new_products",
	ManagedStats:   "managed_stats",
}

func TestAmazonDailyScansNullableBuyBox(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "amazon_daily_by_asin"`)).
		WithArgs("2025-01-01", "2025-01-31", 1000, 0).
		WillReturnRows(sqlmock.NewRows([]string{"marketplace_id", "asin", "stat_date", "sessions", "page_views", "units_ordered", "ordered_product_sales", "buy_box_pct"}).
			AddRow("ATVPDKIKX0DER", "B001", "2025-01-02", 10.0, 20.0, 1.0, 9.99, nil).
			AddRow("ATVPDKIKX0DER", "B001", "2025-01-03", 5.0, 6.0, 0.0, 0.0, 80.5))

	rows, err := NewQueryRepo(db, testTables).AmazonDaily(context.Background(), "2025-01-01", "2025-01-31", 1000, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].BuyBoxPct)
	require.NotNil(t, rows[1].BuyBoxPct)
	assert.Equal(t, 80.5, *rows[1].BuyBoxPct)
	assert.Equal(t, "2025-01-02", rows[0].StatDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAEDailyFiltersBySite(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cols := []string{"site", "product_id", "stat_date", "exposure", "visitors", "views", "add_people", "add_count",
		"pay_items", "pay_orders", "pay_buyers", "fav_people", "fav_count", "order_items", "search_ctr", "avg_stay_seconds"}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "ae_self_operated_daily"`)).
		WithArgs("A站", "2025-01-01", "2025-01-07", 1000, 1000).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("A站", "p1", "2025-01-01", 100.0, 10.0, 12.0, 2.0, 3.0, 1.0, 1.0, 1.0, 0.0, 0.0, 1.0, 0.12, nil))

	rows, err := NewQueryRepo(db, testTables).AEDaily(context.Background(), "A站", "2025-01-01", "2025-01-07", 1000, 1000)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p1", rows[0].ProductID)
	require.NotNil(t, rows[0].SearchCTR)
	assert.Equal(t, 0.12, *rows[0].SearchCTR)
	assert.Nil(t, rows[0].AvgStaySeconds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManagedPeriodReturnsTotal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "managed_stats"`)).
		WithArgs("week", "2025-01-05").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY product_id`)).
		WithArgs("week", "2025-01-05", 10, 20).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "period_type", "period_end", "search_exposure", "exposure",
			"uv", "pv", "add_to_cart_users", "add_to_cart_qty", "pay_items", "pay_orders", "pay_buyers"}).
			AddRow("p1", "week", "2025-01-05", 10.0, 100.0, 5.0, 8.0, 1.0, 2.0, 1.0, 1.0, 1.0))

	rows, total, err := NewQueryRepo(db, testTables).ManagedPeriod(context.Background(), "week", "2025-01-05", 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 42, total)
	require.Len(t, rows, 1)
	assert.Equal(t, 100.0, rows[0].Exposure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestManagedPeriodExists(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS`)).
		WithArgs("month", "2025-01-31").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := NewQueryRepo(db, testTables).ManagedPeriodExists(context.Background(), "month", "2025-01-31")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestQueryErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT").WillReturnError(boom)

	_, err = NewQueryRepo(db, testTables).ManagedSeries(context.Background(), "week", "p1", "2024-10-01", "2025-01-05")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "list managed series")
}

func TestAEProductSites(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE product_id = ANY($1)`)).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "sites"}).
			AddRow("p1", "{A站,B站}").
			AddRow("p2", "{A站}"))

	sites, err := NewIngestRepo(db, testTables).AEProductSites(context.Background(), []string{"p1", "p2", "p3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A站", "B站"}, sites["p1"])
	assert.Equal(t, []string{"A站"}, sites["p2"])
	_, ok := sites["p3"]
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAEProductSitesEmptyInputSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sites, err := NewIngestRepo(db, testTables).AEProductSites(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, sites)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestOzonDen(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(den)::text, '') FROM "ozon_product_report_wide"`)).
		WillReturnRows(sqlmock.NewRows([]string{"den"}).AddRow("2025-01-05"))

	den, err := NewIngestRepo(db, testTables).LatestOzonDen(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2025-01-05", den)
}
