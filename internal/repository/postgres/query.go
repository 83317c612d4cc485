package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/commerce-ingest/internal/config"
	"github.com/ignite/commerce-ingest/internal/service/query"
	"github.com/ignite/commerce-ingest/internal/store"
)

// QueryRepo implements query.Repository against PostgreSQL.
type QueryRepo struct {
	db             *sql.DB
	ae             string
	amazon         string
	managedStats   string
	ozon           string
	metaAds        string
	independentAds string
	aeNewProducts  string
}

// NewQueryRepo creates a Postgres-backed query repository over the
// configured tables.
func NewQueryRepo(db *sql.DB, tables config.TablesConfig) *QueryRepo {
	return &QueryRepo{
		db:             db,
		ae:             store.QuoteTable(tables.AE),
		amazon:         store.QuoteTable(tables.Amazon),
		managedStats:   store.QuoteTable(tables.ManagedStats),
		ozon:           store.QuoteTable(tables.Ozon),
		metaAds:        store.QuoteTable(tables.MetaAds),
		independentAds: store.QuoteTable(tables.IndependentAds),
		aeNewProducts:  store.QuoteTable(tables.AENewProducts),
	}
}

func (r *QueryRepo) AmazonDaily(ctx context.Context, start, end string, limit, offset int) ([]query.AmazonDaily, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT COALESCE(marketplace_id, ''), asin, stat_date::text,
		       COALESCE(sessions, 0), COALESCE(page_views, 0), COALESCE(units_ordered, 0),
		       COALESCE(ordered_product_sales, 0), buy_box_pct
		FROM %s
		WHERE stat_date >= $1 AND stat_date <= $2
		ORDER BY asin, stat_date
		LIMIT $3 OFFSET $4`, r.amazon), start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list amazon rows: %w", err)
	}
	defer rows.Close()

	var out []query.AmazonDaily
	for rows.Next() {
		var a query.AmazonDaily
		var buyBox sql.NullFloat64
		if err := rows.Scan(
			&a.MarketplaceID, &a.ASIN, &a.StatDate,
			&a.Sessions, &a.PageViews, &a.UnitsOrdered,
			&a.OrderedProductSales, &buyBox,
		); err != nil {
			return nil, fmt.Errorf("scan amazon row: %w", err)
		}
		a.BuyBoxPct = nullFloat(buyBox)
		out = append(out, a)
	}
	return out, rows.Err()
}

const aeColumns = `site, product_id, stat_date::text,
		       COALESCE(exposure, 0), COALESCE(visitors, 0), COALESCE(views, 0),
		       COALESCE(add_people, 0), COALESCE(add_count, 0), COALESCE(pay_items, 0),
		       COALESCE(pay_orders, 0), COALESCE(pay_buyers, 0), COALESCE(fav_people, 0),
		       COALESCE(fav_count, 0), COALESCE(order_items, 0), search_ctr, avg_stay_seconds`

func (r *QueryRepo) AEDaily(ctx context.Context, site, start, end string, limit, offset int) ([]query.AEDaily, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE site = $1 AND stat_date >= $2 AND stat_date <= $3
		ORDER BY product_id, stat_date
		LIMIT $4 OFFSET $5`, aeColumns, r.ae), site, start, end, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ae rows: %w", err)
	}
	return scanAE(rows)
}

func (r *QueryRepo) AERecent(ctx context.Context, site, from, to string, limit int) ([]query.AEDaily, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE site = $1 AND stat_date >= $2 AND stat_date <= $3
		ORDER BY stat_date DESC, product_id
		LIMIT $4`, aeColumns, r.ae), site, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent ae rows: %w", err)
	}
	return scanAE(rows)
}

func scanAE(rows *sql.Rows) ([]query.AEDaily, error) {
	defer rows.Close()
	var out []query.AEDaily
	for rows.Next() {
		var a query.AEDaily
		var ctr, stay sql.NullFloat64
		if err := rows.Scan(
			&a.Site, &a.ProductID, &a.StatDate,
			&a.Exposure, &a.Visitors, &a.Views,
			&a.AddPeople, &a.AddCount, &a.PayItems,
			&a.PayOrders, &a.PayBuyers, &a.FavPeople,
			&a.FavCount, &a.OrderItems, &ctr, &stay,
		); err != nil {
			return nil, fmt.Errorf("scan ae row: %w", err)
		}
		a.SearchCTR = nullFloat(ctr)
		a.AvgStaySeconds = nullFloat(stay)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *QueryRepo) ManagedPeriodExists(ctx context.Context, periodType, periodEnd string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT EXISTS(SELECT 1 FROM %s WHERE period_type = $1 AND period_end = $2)`, r.managedStats),
		periodType, periodEnd,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check managed period: %w", err)
	}
	return exists, nil
}

const managedColumns = `product_id, period_type, period_end::text,
		       COALESCE(search_exposure, 0), COALESCE(exposure, 0), COALESCE(uv, 0), COALESCE(pv, 0),
		       COALESCE(add_to_cart_users, 0), COALESCE(add_to_cart_qty, 0),
		       COALESCE(pay_items, 0), COALESCE(pay_orders, 0), COALESCE(pay_buyers, 0)`

func (r *QueryRepo) ManagedPeriod(ctx context.Context, periodType, periodEnd string, limit, offset int) ([]query.ManagedStat, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE period_type = $1 AND period_end = $2`, r.managedStats),
		periodType, periodEnd,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count managed stats: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE period_type = $1 AND period_end = $2
		ORDER BY product_id
		LIMIT $3 OFFSET $4`, managedColumns, r.managedStats), periodType, periodEnd, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list managed stats: %w", err)
	}
	out, err := scanManaged(rows)
	return out, total, err
}

func (r *QueryRepo) ManagedSeries(ctx context.Context, periodType, productID, from, to string) ([]query.ManagedStat, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE period_type = $1 AND product_id = $2 AND period_end >= $3 AND period_end <= $4
		ORDER BY period_end`, managedColumns, r.managedStats), periodType, productID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list managed series: %w", err)
	}
	return scanManaged(rows)
}

func scanManaged(rows *sql.Rows) ([]query.ManagedStat, error) {
	defer rows.Close()
	var out []query.ManagedStat
	for rows.Next() {
		var m query.ManagedStat
		if err := rows.Scan(
			&m.ProductID, &m.PeriodType, &m.PeriodEnd,
			&m.SearchExposure, &m.Exposure, &m.UV, &m.PV,
			&m.AddToCartUsers, &m.AddToCartQty,
			&m.PayItems, &m.PayOrders, &m.PayBuyers,
		); err != nil {
			return nil, fmt.Errorf("scan managed stat: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
