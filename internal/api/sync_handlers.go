package api

import (
	"net/http"

	"github.com/ignite/commerce-ingest/internal/pkg/httputil"
	"github.com/ignite/commerce-ingest/internal/service/pull"
)

// OzonSync handles GET /ozon/sync.
func (h *Handlers) OzonSync(w http.ResponseWriter, r *http.Request) {
	if !requireEnv(w, h.cfg.Ozon.Missing()) {
		return
	}
	if h.ozonSync == nil {
		notConfigured(w, "ozon")
		return
	}
	q := r.URL.Query()
	opts := pull.OzonOptions{
		Days: pull.DaySelection{
			Date: q.Get("date"),
			From: q.Get("from"),
			To:   q.Get("to"),
			Days: q.Get("days"),
		},
		Preview: httputil.QueryFlag(r, "preview"),
		Debug:   httputil.QueryFlag(r, "debug"),
	}

	run, err := h.ozonSync.Run(r.Context(), opts)
	if err != nil {
		fail(w, err)
		return
	}

	switch {
	case opts.Debug:
		httputil.OK(w, map[string]any{
			"ok":           true,
			"days":         run.Days,
			"fetched":      run.Fetched,
			"mapped":       len(run.Rows),
			"pages":        run.Pages,
			"metrics_used": run.MetricsUsed,
			"sample_raw":   run.SampleRaw,
			"sample_rows":  run.SampleRows(),
		})
	case opts.Preview:
		httputil.OK(w, map[string]any{
			"ok":    true,
			"count": len(run.Rows),
			"table": run.Table,
			"rows":  run.Preview(),
		})
	case run.Result == nil:
		httputil.OK(w, map[string]any{"ok": true, "count": 0, "table": run.Table})
	default:
		httputil.OK(w, map[string]any{
			"ok":        true,
			"count":     run.Result.Upserted,
			"table":     run.Table,
			"latestDen": run.Result.LatestDen,
			"updated":   run.Updated(),
		})
	}
}

// ShopifyIngest handles GET /shopify/ingest.
func (h *Handlers) ShopifyIngest(w http.ResponseWriter, r *http.Request) {
	if !requireEnv(w, h.cfg.Shopify.Missing()) {
		return
	}
	if h.shopifySync == nil {
		notConfigured(w, "shopify")
		return
	}
	day, err := h.shopifySync.Day(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, map[string]any{
		"success":  true,
		"date":     day.Date,
		"products": day.Products,
		"orders":   day.Orders,
		"upserted": day.Upserted,
	})
}
