package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/commerce-ingest/internal/config"
	"github.com/ignite/commerce-ingest/internal/store"
	"github.com/lib/pq"
)

// IngestRepo implements ingest.Repository against PostgreSQL.
type IngestRepo struct {
	db   *sql.DB
	ae   string
	ozon string
}

// NewIngestRepo creates a Postgres-backed ingestion repository.
func NewIngestRepo(db *sql.DB, tables config.TablesConfig) *IngestRepo {
	return &IngestRepo{db: db, ae: store.QuoteTable(tables.AE), ozon: store.QuoteTable(tables.Ozon)}
}

func (r *IngestRepo) AEProductSites(ctx context.Context, productIDs []string) (map[string][]string, error) {
	out := make(map[string][]string)
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT product_id, array_agg(DISTINCT site ORDER BY site)
		FROM %s
		WHERE product_id = ANY($1)
		GROUP BY product_id`, r.ae), pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("load product sites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var sites pq.StringArray
		if err := rows.Scan(&id, &sites); err != nil {
			return nil, fmt.Errorf("scan product sites: %w", err)
		}
		out[id] = []string(sites)
	}
	return out, rows.Err()
}

func (r *IngestRepo) LatestOzonDen(ctx context.Context) (string, error) {
	var den string
	err := r.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COALESCE(MAX(den)::text, '') FROM %s`, r.ozon)).Scan(&den)
	if err != nil {
		return "", fmt.Errorf("latest ozon den: %w", err)
	}
	return den, nil
}
