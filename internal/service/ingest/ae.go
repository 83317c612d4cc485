package ingest

import (
	"context"
	"slices"
	"time"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
	"github.com/ignite/commerce-ingest/internal/store"
)

const drySampleSize = 10

// AEOptions controls an AliExpress upload.
type AEOptions struct {
	DryRun bool
}

// AEResult is the outcome of an AliExpress upload.
type AEResult struct {
	Result
	DryRun      bool
	Sample      []normalize.AERow
	NewProducts []string
}

// AE normalizes and upserts AliExpress self-operated rows. A product may only
// live under one site: a product already stored under another site, or sent
// under several sites in the same upload, is rejected with a conflict.
func (s *Service) AE(ctx context.Context, raw []normalize.RawRow, opts AEOptions) (*AEResult, error) {
	if len(raw) == 0 {
		return nil, errNoRows()
	}
	w := &normalize.Warnings{}
	rows := normalize.NormalizeAEBatch(raw, w)
	res := &AEResult{Result: Result{Received: len(raw), Kept: len(rows), Warnings: w}}

	if opts.DryRun {
		res.DryRun = true
		res.Sample = rows[:min(drySampleSize, len(rows))]
		return res, nil
	}
	if len(rows) == 0 {
		res.log("ae_upsert")
		return res, nil
	}

	fresh, err := s.checkAESites(ctx, rows)
	if err != nil {
		return nil, err
	}

	n, err := s.upsert(ctx, store.TableSpec{
		Name:     s.tables.AE,
		Columns:  normalize.AEColumns,
		Conflict: normalize.AEConflict,
	}, valuesOf(rows))
	res.Upserted = n
	if err != nil {
		return nil, err
	}

	if len(fresh) > 0 {
		if err := s.recordNewProducts(ctx, rows, fresh); err != nil {
			return nil, err
		}
		res.NewProducts = fresh
	}
	res.log("ae_upsert")
	return res, nil
}

// checkAESites returns the uploaded products that were not stored before.
func (s *Service) checkAESites(ctx context.Context, rows []normalize.AERow) ([]string, error) {
	uploadSites := make(map[string]string)
	var ids, conflicts []string
	for _, r := range rows {
		site, seen := uploadSites[r.ProductID]
		if !seen {
			uploadSites[r.ProductID] = r.Site
			ids = append(ids, r.ProductID)
			continue
		}
		if site != r.Site && !slices.Contains(conflicts, r.ProductID) {
			conflicts = append(conflicts, r.ProductID)
		}
	}

	stored, err := s.repo.AEProductSites(ctx, ids)
	if err != nil {
		return nil, apperr.Storage("load existing products failed", err)
	}
	var fresh []string
	for _, id := range ids {
		sites, ok := stored[id]
		if !ok || len(sites) == 0 {
			fresh = append(fresh, id)
			continue
		}
		for _, site := range sites {
			if site != uploadSites[id] && !slices.Contains(conflicts, id) {
				conflicts = append(conflicts, id)
			}
		}
	}
	if len(conflicts) > 0 {
		return nil, apperr.Conflict(msgCrossSite).With("conflicts", conflicts)
	}
	return fresh, nil
}

// recordNewProducts keeps the first day each new product was seen.
func (s *Service) recordNewProducts(ctx context.Context, rows []normalize.AERow, fresh []string) error {
	isFresh := make(map[string]bool, len(fresh))
	for _, id := range fresh {
		isFresh[id] = true
	}
	first := make(map[string]normalize.AERow)
	var order []string
	for _, r := range rows {
		if !isFresh[r.ProductID] {
			continue
		}
		prev, seen := first[r.ProductID]
		if !seen {
			order = append(order, r.ProductID)
		}
		if !seen || r.StatDate < prev.StatDate {
			first[r.ProductID] = r
		}
	}
	values := make([][]any, 0, len(order))
	for _, id := range order {
		r := first[id]
		values = append(values, []any{r.Site, r.ProductID, r.StatDate, time.Now().UTC()})
	}
	_, err := s.upsert(ctx, store.TableSpec{
		Name:      s.tables.AENewProducts,
		Columns:   []string{"site", "product_id", "first_seen", "created_at"},
		Conflict:  []string{"site", "product_id"},
		DoNothing: true,
	}, values)
	return err
}
