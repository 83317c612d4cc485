package ingest

import (
	"context"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/store"
)

// Amazon upserts Selling-Partner sales and traffic rows.
func (s *Service) Amazon(ctx context.Context, raw []normalize.RawRow) (*Result, error) {
	if len(raw) == 0 {
		return nil, errNoRows()
	}
	return s.amazonRows(ctx, raw, "amazon_upsert")
}

// AmazonReport upserts the rows of a downloaded report; an empty report is
// not an error.
func (s *Service) AmazonReport(ctx context.Context, raw []normalize.RawRow) (*Result, error) {
	return s.amazonRows(ctx, raw, "amazon_report")
}

func (s *Service) amazonRows(ctx context.Context, raw []normalize.RawRow, route string) (*Result, error) {
	w := &normalize.Warnings{}
	rows := normalize.NormalizeAmazonBatch(raw, w)
	res := &Result{Received: len(raw), Kept: len(rows), Warnings: w}
	if len(rows) > 0 {
		n, err := s.upsert(ctx, store.TableSpec{
			Name:     s.tables.Amazon,
			Columns:  normalize.AmazonColumns,
			Conflict: normalize.AmazonConflict,
		}, valuesOf(rows))
		res.Upserted = n
		if err != nil {
			return nil, err
		}
	}
	res.log(route)
	return res, nil
}
