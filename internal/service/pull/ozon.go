package pull

import (
	"context"
	"sort"
	"time"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/ozon"
	"github.com/ignite/commerce-ingest/internal/pkg/logger"
	"github.com/ignite/commerce-ingest/internal/service/ingest"
)

const (
	previewRows = 5
	debugRows   = 2
)

// OzonSync pulls analytics for a set of days into the wide table.
type OzonSync struct {
	api  OzonAPI
	sink Sink
	now  func() time.Time
}

func NewOzonSync(api OzonAPI, sink Sink) *OzonSync {
	return &OzonSync{api: api, sink: sink, now: time.Now}
}

// SetClock replaces the clock (useful for testing).
func (s *OzonSync) SetClock(now func() time.Time) { s.now = now }

// OzonOptions selects the days and whether anything is written.
type OzonOptions struct {
	Days    DaySelection
	Preview bool
	Debug   bool
}

// OzonRun is the outcome of a sync. Result is nil when nothing was written.
type OzonRun struct {
	Days        []string
	Fetched     int
	Pages       int
	MetricsUsed []string
	SampleRaw   []ozon.AnalyticsItem
	Rows        []normalize.OzonRow
	Table       string
	Result      *ingest.OzonResult
}

// Updated reports whether the table now holds the last synced day.
func (r *OzonRun) Updated() bool {
	return r.Result != nil && len(r.Days) > 0 && r.Result.LatestDen == r.Days[len(r.Days)-1]
}

// Run fetches every selected day, maps and enriches the rows, then writes
// them unless a preview or debug run was requested.
func (s *OzonSync) Run(ctx context.Context, opts OzonOptions) (*OzonRun, error) {
	days, err := opts.Days.Resolve(s.now())
	if err != nil {
		return nil, err
	}
	run := &OzonRun{Days: days, Table: s.sink.OzonTable()}

	for _, day := range days {
		rep, err := s.api.FetchDayWithFallback(ctx, day)
		if err != nil {
			return nil, err
		}
		if run.SampleRaw == nil {
			run.SampleRaw = rep.Items[:min(debugRows, len(rep.Items))]
		}
		run.Fetched += len(rep.Items)
		run.Pages += rep.Pages
		run.MetricsUsed = rep.Metrics
		for _, item := range rep.Items {
			if row, ok := ozon.DecodeItem(item, day, rep.Metrics); ok {
				run.Rows = append(run.Rows, row)
			}
		}
	}
	s.enrich(ctx, run.Rows)

	logger.Info("ozon analytics fetched", "days", len(days), "fetched", run.Fetched, "mapped", len(run.Rows), "pages", run.Pages)
	if opts.Debug || opts.Preview || len(run.Rows) == 0 {
		return run, nil
	}

	res, err := s.sink.Ozon(ctx, run.Rows, "ozon_sync")
	if err != nil {
		return nil, err
	}
	run.Result = res
	return run, nil
}

// enrich fills artikul and model from the product cards. A failed lookup
// leaves the analytics values in place.
func (s *OzonSync) enrich(ctx context.Context, rows []normalize.OzonRow) {
	seen := make(map[string]bool)
	var skus []string
	for _, r := range rows {
		if sku := r.SKU(); sku != "" && !seen[sku] {
			seen[sku] = true
			skus = append(skus, sku)
		}
	}
	if len(skus) == 0 {
		return
	}
	sort.Strings(skus)
	info, err := s.api.ProductInfo(ctx, skus)
	if err != nil {
		logger.Warn("ozon product info failed", "skus", len(skus), "error", err)
	}
	ozon.Enrich(rows, info)
}

// Preview returns the first rows of a run for display.
func (r *OzonRun) Preview() []normalize.OzonRow {
	return firstN(r.Rows, previewRows)
}

// SampleRows returns the first rows of a run for debugging.
func (r *OzonRun) SampleRows() []normalize.OzonRow {
	return firstN(r.Rows, debugRows)
}

func firstN[T any](s []T, n int) []T {
	if len(s) <= n {
		if s == nil {
			return []T{}
		}
		return s
	}
	return s[:n]
}
