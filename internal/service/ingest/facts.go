package ingest

import (
	"context"
	"strings"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
	"github.com/ignite/commerce-ingest/internal/store"
)

// FactInput is a generic submitData upload.
type FactInput struct {
	SourceCode string             `json:"source_code"`
	Platform   string             `json:"platform"`
	StatDate   string             `json:"stat_date"`
	Rows       []normalize.RawRow `json:"rows"`
}

// FactResult adds the date the rows were stored under.
type FactResult struct {
	Result
	StatDate string
}

// Facts ingests generic product-day rows. Without an explicit stat_date the
// rows must agree on a single date.
func (s *Service) Facts(ctx context.Context, in FactInput) (*FactResult, error) {
	in.SourceCode = strings.TrimSpace(in.SourceCode)
	in.Platform = strings.TrimSpace(in.Platform)
	if in.SourceCode == "" || in.Platform == "" || len(in.Rows) == 0 {
		return nil, apperr.Validation(msgMissingField)
	}
	statDate := normalize.Date(in.StatDate)
	if statDate == "" {
		d, err := normalize.InferStatDate(in.Rows)
		if err != nil {
			return nil, apperr.Validation(err.Error())
		}
		statDate = d
	}

	w := &normalize.Warnings{}
	d := normalize.NewDeduper(normalize.FactRow.Key)
	for i, raw := range in.Rows {
		d.Add(normalize.NormalizeFact(raw, in.SourceCode, in.Platform, statDate, normalize.Coercer{W: w, Row: i}))
	}
	res := &FactResult{Result: Result{Received: len(in.Rows), Warnings: w}, StatDate: statDate}
	n, err := s.FactRows(ctx, d.Rows())
	res.Kept = len(d.Rows())
	res.Upserted = n
	if err != nil {
		return nil, err
	}
	res.log("submitData")
	return res, nil
}

// FactRows upserts already normalized fact rows, deduplicated by key.
func (s *Service) FactRows(ctx context.Context, rows []normalize.FactRow) (int, error) {
	rows = normalize.Dedupe(rows, normalize.FactRow.Key)
	if len(rows) == 0 {
		return 0, nil
	}
	return s.upsert(ctx, store.TableSpec{
		Name:     s.tables.Facts,
		Columns:  normalize.FactColumns,
		Conflict: normalize.FactConflict,
	}, valuesOf(rows))
}
