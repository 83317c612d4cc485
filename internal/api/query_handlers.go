package api

import (
	"net/http"
	"strings"

	"github.com/ignite/commerce-ingest/internal/pkg/httputil"
	"github.com/ignite/commerce-ingest/internal/service/query"
)

const (
	statsMaxLimit  = 1000
	selfOpMaxLimit = 20000
)

// AmazonQuery handles GET /amazon/query.
func (h *Handlers) AmazonQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if start == "" || end == "" {
		fail(w, query.ErrMissingRange)
		return
	}
	g, err := query.ParseGranularity(q.Get("granularity"), query.Day)
	if err != nil {
		fail(w, err)
		return
	}
	rows, err := h.query.AmazonQuery(r.Context(), start, end, g)
	if err != nil {
		fail(w, err)
		return
	}
	if rows == nil {
		rows = []query.AmazonBucket{}
	}
	httputil.OK(w, map[string]any{"ok": true, "rows": rows})
}

// AEQuery handles GET /ae_query.
func (h *Handlers) AEQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if start == "" || end == "" {
		fail(w, query.ErrMissingRange)
		return
	}
	g, err := query.ParseGranularity(q.Get("granularity"), query.Day)
	if err != nil {
		fail(w, err)
		return
	}
	mode, err := query.ParseAggregateMode(q.Get("aggregate"))
	if err != nil {
		fail(w, err)
		return
	}
	rows, err := h.query.AEQuery(r.Context(), query.AEQuery{
		Site:        strings.TrimSpace(q.Get("site")),
		Start:       start,
		End:         end,
		Granularity: g,
		Mode:        mode,
	})
	if err != nil {
		fail(w, err)
		return
	}
	if rows == nil {
		rows = []query.AEBucket{}
	}
	httputil.OK(w, map[string]any{"ok": true, "rows": rows})
}

// Stats handles GET /stats over managed_stats.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	g, err := query.ParseStatsGranularity(q.Get("granularity"))
	if err != nil {
		fail(w, err)
		return
	}
	page := ParsePage(r, statsMaxLimit)
	sq := query.StatsQuery{
		Granularity: g,
		ProductID:   strings.TrimSpace(q.Get("product_id")),
		From:        strings.TrimSpace(q.Get("from")),
		To:          strings.TrimSpace(q.Get("to")),
		PeriodEnd:   strings.TrimSpace(q.Get("period_end")),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}

	if sq.ProductID != "" {
		rows, err := h.query.ProductSeries(r.Context(), sq)
		if err != nil {
			fail(w, err)
			return
		}
		httputil.OK(w, map[string]any{"ok": true, "rows": rows, "granularity": g})
		return
	}

	period, err := h.query.Period(r.Context(), sq)
	if err != nil {
		fail(w, err)
		return
	}
	if period.PeriodEnd == "" {
		httputil.OK(w, map[string]any{
			"ok":          true,
			"kpis":        nil,
			"rows":        period.Rows,
			"period_end":  nil,
			"granularity": g,
		})
		return
	}
	httputil.OK(w, map[string]any{
		"ok":          true,
		"kpis":        period.KPIs,
		"rows":        period.Rows,
		"total":       period.Total,
		"granularity": g,
		"period_end":  period.PeriodEnd,
	})
}

// SelfOperatedStats handles GET /ae_self_operated/stats.
func (h *Handlers) SelfOperatedStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats, err := h.query.SelfOperated(r.Context(), query.SelfOperatedQuery{
		Site:  strings.TrimSpace(q.Get("site")),
		From:  strings.TrimSpace(q.Get("from")),
		To:    strings.TrimSpace(q.Get("to")),
		Limit: ParsePage(r, selfOpMaxLimit).Limit,
	})
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, struct {
		OK bool `json:"ok"`
		*query.SelfOperatedStats
	}{true, stats})
}

// OzonStats handles GET /ozon/stats: products summed over start..end, or
// one report day (the latest by default) together with every report day.
func (h *Handlers) OzonStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.query.OzonStats(r.Context(), query.OzonStatsQuery{
		Date:  strings.TrimSpace(q.Get("date")),
		Start: strings.TrimSpace(q.Get("start")),
		End:   strings.TrimSpace(q.Get("end")),
	})
	if err != nil {
		fail(w, err)
		return
	}
	if res.Start != "" {
		httputil.OK(w, map[string]any{"ok": true, "rows": res.Rows, "start": res.Start, "end": res.End})
		return
	}
	var date any
	if res.Date != "" {
		date = res.Date
	}
	httputil.OK(w, map[string]any{"ok": true, "rows": res.Rows, "date": date, "dates": res.Dates})
}

// OzonKPI handles GET /ozon/kpi.
func (h *Handlers) OzonKPI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.query.OzonKPIs(r.Context(), strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to")))
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, map[string]any{"ok": true, "metrics": res})
}

// OzonPeriods handles GET /ozon/periods.
func (h *Handlers) OzonPeriods(w http.ResponseWriter, r *http.Request) {
	res, err := h.query.OzonPeriods(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, struct {
		OK bool `json:"ok"`
		*query.OzonPeriods
	}{true, res})
}

// FBStats handles GET /fb_stats.
func (h *Handlers) FBStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	site := strings.TrimSpace(q.Get("site_id"))
	if site == "" {
		site = strings.TrimSpace(q.Get("site"))
	}
	res, err := h.query.MetaStats(r.Context(), query.AdsQuery{
		Site: site,
		From: strings.TrimSpace(q.Get("from")),
		To:   strings.TrimSpace(q.Get("to")),
	})
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, struct {
		OK bool `json:"ok"`
		*query.MetaStats
	}{true, res})
}

// IndependentStats handles GET /independent/stats.
func (h *Handlers) IndependentStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.query.IndependentStats(r.Context(), query.AdsQuery{
		Site:  strings.TrimSpace(q.Get("site")),
		From:  strings.TrimSpace(q.Get("from")),
		To:    strings.TrimSpace(q.Get("to")),
		Limit: ParsePage(r, 0).Limit,
	})
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, struct {
		OK bool `json:"ok"`
		*query.IndependentStats
	}{true, res})
}

// NewProducts handles GET /new-products.
func (h *Handlers) NewProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.query.NewProducts(r.Context(), query.NewProductsQuery{
		Platform: q.Get("platform"),
		From:     strings.TrimSpace(q.Get("from")),
		To:       strings.TrimSpace(q.Get("to")),
		Limit:    ParsePage(r, 0).Limit,
	})
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, struct {
		OK bool `json:"ok"`
		*query.NewProducts
	}{true, res})
}
