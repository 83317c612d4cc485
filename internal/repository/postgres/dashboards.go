package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/commerce-ingest/internal/service/query"
)

func (r *QueryRepo) OzonDates(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT DISTINCT den::text FROM %s ORDER BY 1 DESC`, r.ozon))
	if err != nil {
		return nil, fmt.Errorf("list ozon dates: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan ozon date: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *QueryRepo) OzonProducts(ctx context.Context, from, to string) ([]query.OzonProduct, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT sku, model, COALESCE(MAX(tovary), ''),
		       COALESCE(SUM(voronka_prodazh_pokazy_vsego), 0),
		       COALESCE(SUM(voronka_prodazh_pokazy_v_poiske_i_kataloge), 0),
		       COALESCE(SUM(voronka_prodazh_posescheniya_kartochki_tovara), 0),
		       COALESCE(SUM(voronka_prodazh_unikalnye_posetiteli_vsego), 0),
		       COALESCE(SUM(voronka_prodazh_uv_s_prosmotrom_v_poiske_ili_kataloge), 0),
		       COALESCE(SUM(voronka_prodazh_uv_s_prosmotrom_kartochki_tovara), 0),
		       COALESCE(SUM(voronka_prodazh_dobavleniya_iz_poiska_i_kataloge_v_korzinu), 0),
		       COALESCE(SUM(voronka_prodazh_dobavleniya_iz_kartochki_v_korzinu), 0),
		       COALESCE(SUM(voronka_prodazh_zakazano_tovarov), 0),
		       COALESCE(SUM(voronka_prodazh_dostavleno_tovarov), 0),
		       COALESCE(SUM(prodazhi_zakazano_na_summu), 0)
		FROM %s
		WHERE den >= $1 AND den <= $2
		GROUP BY sku, model
		ORDER BY sku, model`, r.ozon), from, to)
	if err != nil {
		return nil, fmt.Errorf("sum ozon products: %w", err)
	}
	defer rows.Close()

	var out []query.OzonProduct
	for rows.Next() {
		var p query.OzonProduct
		if err := rows.Scan(
			&p.ProductID, &p.Model, &p.ProductTitle,
			&p.Impressions, &p.SearchImpressions, &p.CardVisits,
			&p.UniqueVisitors, &p.SearchVisitors, &p.CardVisitors,
			&p.CartFromSearch, &p.CartFromCard,
			&p.Ordered, &p.Delivered, &p.OrderedAmount,
		); err != nil {
			return nil, fmt.Errorf("scan ozon product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *QueryRepo) MetaAds(ctx context.Context, site, from, to string, limit, offset int) ([]query.MetaAdDaily, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT site_id, level, campaign_name, adset_name, product_identifier,
		       reach, impressions, link_clicks, all_clicks, spend_usd,
		       atc_total, ic_total, purchase_web, purchase_meta,
		       cpm, cpc_link, row_start_date, row_end_date
		FROM %s
		WHERE site_id = $1 AND row_start_date >= $2 AND row_start_date <= $3
		ORDER BY row_start_date DESC, campaign_name, adset_name, product_identifier
		LIMIT $4 OFFSET $5`, r.metaAds), site, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list meta ads: %w", err)
	}
	defer rows.Close()

	var out []query.MetaAdDaily
	for rows.Next() {
		var m query.MetaAdDaily
		var cpm, cpc sql.NullFloat64
		if err := rows.Scan(
			&m.SiteID, &m.Level, &m.CampaignName, &m.AdsetName, &m.ProductIdentifier,
			&m.Reach, &m.Impressions, &m.LinkClicks, &m.AllClicks, &m.SpendUSD,
			&m.ATCTotal, &m.ICTotal, &m.PurchaseWeb, &m.PurchaseMeta,
			&cpm, &cpc, &m.RowStartDate, &m.RowEndDate,
		); err != nil {
			return nil, fmt.Errorf("scan meta ad: %w", err)
		}
		m.CPM = nullFloat(cpm)
		m.CPCLink = nullFloat(cpc)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *QueryRepo) IndependentAds(ctx context.Context, site, from, to string, limit, offset int) ([]query.IndependentAdDaily, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT site, day::text, campaign_name, adset_name, landing_url, landing_path,
		       impressions, clicks, spend_usd, cpm, cpc_all, all_ctr, reach
		FROM %s
		WHERE site = $1 AND day >= $2 AND day <= $3
		ORDER BY day DESC, campaign_name, adset_name
		LIMIT $4 OFFSET $5`, r.independentAds), site, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list independent ads: %w", err)
	}
	defer rows.Close()

	var out []query.IndependentAdDaily
	for rows.Next() {
		var a query.IndependentAdDaily
		if err := rows.Scan(
			&a.Site, &a.Day, &a.CampaignName, &a.AdsetName, &a.LandingURL, &a.LandingPath,
			&a.Impressions, &a.Clicks, &a.SpendUSD, &a.CPM, &a.CPCAll, &a.AllCTR, &a.Reach,
		); err != nil {
			return nil, fmt.Errorf("scan independent ad: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// newProductSource is a relation of (product_id, first_seen) for platform.
// Managed products are first seen on their earliest weekly period.
func (r *QueryRepo) newProductSource(platform string) (string, error) {
	switch platform {
	case query.PlatformSelf:
		return r.aeNewProducts, nil
	case query.PlatformManaged:
		return fmt.Sprintf(`(SELECT product_id, MIN(period_end) AS first_seen
			FROM %s WHERE period_type = 'week' GROUP BY product_id) AS managed_first`, r.managedStats), nil
	}
	return "", query.ErrInvalidPlatform
}

func (r *QueryRepo) LatestNewProductDay(ctx context.Context, platform string) (string, error) {
	src, err := r.newProductSource(platform)
	if err != nil {
		return "", err
	}
	var day string
	if err := r.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COALESCE(MAX(first_seen)::text, '') FROM %s`, src),
	).Scan(&day); err != nil {
		return "", fmt.Errorf("latest new product day: %w", err)
	}
	return day, nil
}

func (r *QueryRepo) NewProducts(ctx context.Context, platform, from, to string, limit int) ([]query.NewProduct, error) {
	src, err := r.newProductSource(platform)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT product_id, first_seen::text
		FROM %s
		WHERE first_seen >= $1 AND first_seen <= $2
		ORDER BY first_seen, product_id
		LIMIT $3`, src), from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("list new products: %w", err)
	}
	defer rows.Close()

	var out []query.NewProduct
	for rows.Next() {
		var p query.NewProduct
		if err := rows.Scan(&p.ProductID, &p.FirstSeen); err != nil {
			return nil, fmt.Errorf("scan new product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
