package ingest

import (
	"context"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
	"github.com/ignite/commerce-ingest/internal/store"
)

// OzonResult reports the table written and the newest day it now holds.
type OzonResult struct {
	Result
	Table     string
	LatestDen string
}

// OzonTable is the normalized name of the Ozon wide table.
func (s *Service) OzonTable() string {
	return store.NormalizeTableName(s.tables.Ozon)
}

// Ozon upserts wide-table rows. Rows are deduplicated by sku, model and day
// and only the columns some row sets are written.
func (s *Service) Ozon(ctx context.Context, rows []normalize.OzonRow, route string) (*OzonResult, error) {
	kept := make([]normalize.OzonRow, 0, len(rows))
	for _, r := range rows {
		if r.Complete() {
			kept = append(kept, r)
		}
	}
	kept = normalize.DedupeOzon(kept)
	res := &OzonResult{Result: Result{Received: len(rows), Kept: len(kept)}, Table: s.OzonTable()}
	if len(kept) == 0 {
		return res, nil
	}

	columns, values := normalize.OzonBatch(kept)
	n, err := s.upsert(ctx, store.TableSpec{
		Name:     s.tables.Ozon,
		Columns:  columns,
		Conflict: normalize.OzonConflict,
	}, values)
	res.Upserted = n
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.LatestOzonDen(ctx)
	if err != nil {
		return nil, apperr.Storage("read latest den failed", err)
	}
	res.LatestDen = latest
	res.log(route)
	return res, nil
}

// OzonImport ingests a seller-portal report file. periodEnd stands in for
// the day when the file has no date column.
func (s *Service) OzonImport(ctx context.Context, raw []normalize.RawRow, periodEnd string) (*OzonResult, error) {
	if len(raw) == 0 {
		return nil, errNoRows()
	}
	w := &normalize.Warnings{}
	rows := normalize.NormalizeOzonImportBatch(raw, periodEnd, w)
	res, err := s.Ozon(ctx, rows, "ozon_import")
	if err != nil {
		return nil, err
	}
	res.Received = len(raw)
	res.Warnings = w
	return res, nil
}
