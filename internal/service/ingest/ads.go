package ingest

import (
	"context"
	"strings"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
	"github.com/ignite/commerce-ingest/internal/spreadsheet"
	"github.com/ignite/commerce-ingest/internal/store"
)

// MetaSheetName is the worksheet of a Meta ads export holding the data.
const MetaSheetName = "Raw Data Report"

// MetaAds ingests a Meta ads export. The first row of the sheet is the header.
func (s *Service) MetaAds(ctx context.Context, sheet *spreadsheet.Sheet, siteID string) (*Result, error) {
	if siteID = strings.TrimSpace(siteID); siteID == "" {
		siteID = normalize.DefaultMetaSite
	}
	w := &normalize.Warnings{}
	rows := normalize.NormalizeMetaSheet(sheet.Header(), sheet.Data(), siteID, w)
	res := &Result{Received: len(sheet.Data()), Kept: len(rows), Warnings: w}
	if len(rows) > 0 {
		n, err := s.upsert(ctx, store.TableSpec{
			Name:     s.tables.MetaAds,
			Columns:  normalize.MetaColumns,
			Conflict: normalize.MetaConflict,
		}, valuesOf(rows))
		res.Upserted = n
		if err != nil {
			return nil, err
		}
	}
	res.log("fb_ingest")
	return res, nil
}

// IndependentAds ingests an independent-site ads export. The header row is
// searched for, so exports with title rows above the table are accepted.
func (s *Service) IndependentAds(ctx context.Context, sheet *spreadsheet.Sheet, site string) (*Result, error) {
	if site = strings.TrimSpace(site); site == "" {
		return nil, apperr.Validation(msgMissingSite)
	}
	w := &normalize.Warnings{}
	rows, ok := normalize.NormalizeIndependentSheet(sheet.Rows, site, w)
	if !ok {
		return nil, apperr.Validation(msgNoHeader)
	}
	if len(rows) == 0 {
		return nil, apperr.Validation(msgNoRecords)
	}
	res := &Result{Received: len(sheet.Rows), Kept: len(rows), Warnings: w}
	n, err := s.upsert(ctx, store.TableSpec{
		Name:     s.tables.IndependentAds,
		Columns:  normalize.IndependentColumns,
		Conflict: normalize.IndependentConflict,
	}, valuesOf(rows))
	res.Upserted = n
	if err != nil {
		return nil, err
	}
	res.log("independent_facebook_ingest")
	return res, nil
}
