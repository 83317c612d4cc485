package api

import (
	"net/http"
	"strings"

	"github.com/ignite/commerce-ingest/internal/pkg/httputil"
	"github.com/ignite/commerce-ingest/internal/pkg/logger"
	"github.com/ignite/commerce-ingest/internal/service/pull"
)

// reportCreateRequest is the body of POST /amazon/report-create.
type reportCreateRequest struct {
	DataStartTime  string   `json:"dataStartTime"`
	DataEndTime    string   `json:"dataEndTime"`
	MarketplaceIDs []string `json:"marketplaceIds"`
}

func (h *Handlers) amazonReady(w http.ResponseWriter) bool {
	if !requireEnv(w, h.cfg.Amazon.Missing()) {
		return false
	}
	if h.amazon == nil || h.amazonSync == nil {
		notConfigured(w, "amazon")
		return false
	}
	return true
}

// AmazonReportCreate handles POST /amazon/report-create.
func (h *Handlers) AmazonReportCreate(w http.ResponseWriter, r *http.Request) {
	if !h.amazonReady(w) {
		return
	}
	var req reportCreateRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.DataStartTime == "" || req.DataEndTime == "" {
		httputil.BadRequest(w, "Missing dataStartTime or dataEndTime")
		return
	}
	id, err := h.amazon.CreateReport(r.Context(), req.DataStartTime, req.DataEndTime, req.MarketplaceIDs)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, map[string]any{"ok": true, "reportId": id})
}

// AmazonReportPoll handles GET /amazon/report-poll.
func (h *Handlers) AmazonReportPoll(w http.ResponseWriter, r *http.Request) {
	if !h.amazonReady(w) {
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("reportId"))
	if id == "" {
		httputil.BadRequest(w, "Missing reportId")
		return
	}
	report, err := h.amazon.GetReport(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	var documentID any
	if d := report.DocumentID(); d != "" {
		documentID = d
	}
	httputil.OK(w, map[string]any{
		"ok":               true,
		"processingStatus": report.ProcessingStatus,
		"documentId":       documentID,
	})
}

// AmazonReportDownload handles GET /amazon/report-download.
func (h *Handlers) AmazonReportDownload(w http.ResponseWriter, r *http.Request) {
	if !h.amazonReady(w) {
		return
	}
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get("documentId"))
	if id == "" {
		id = strings.TrimSpace(q.Get("reportDocumentId"))
	}
	if id == "" {
		httputil.BadRequest(w, "Missing documentId")
		return
	}
	rows, err := h.amazon.Download(r.Context(), id)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, map[string]any{"ok": true, "rows": rows, "totalRows": len(rows)})
}

// cronRequest is the optional body of POST /amazon/cron-daily.
type cronRequest struct {
	TestMode   bool   `json:"testMode"`
	TargetDate string `json:"targetDate"`
}

// AmazonCronDaily handles GET|POST /amazon/cron-daily: yesterday's report,
// or the week before targetDate in test mode.
func (h *Handlers) AmazonCronDaily(w http.ResponseWriter, r *http.Request) {
	if !h.amazonReady(w) {
		return
	}
	var req cronRequest
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		if !httputil.Decode(w, r, &req) {
			return
		}
	}

	if req.TestMode {
		res, err := h.amazonSync.Backfill(r.Context(), req.TargetDate)
		if err != nil {
			fail(w, err)
			return
		}
		httputil.OK(w, struct {
			OK   bool   `json:"ok"`
			Mode string `json:"mode"`
			*pull.Backfill
		}{true, "test", res})
		return
	}

	day, err := h.amazonSync.Yesterday(r.Context())
	if err != nil {
		logger.Error("amazon daily sync failed", "error", err)
		fail(w, err)
		return
	}
	httputil.OK(w, struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
		*pull.AmazonDay
	}{true, "Daily sync completed", day})
}

// AmazonHealthz handles GET /amazon/healthz: which credentials are set.
func (h *Handlers) AmazonHealthz(w http.ResponseWriter, r *http.Request) {
	missing := h.cfg.Amazon.Missing()
	set := make(map[string]bool, len(amazonEnv))
	for _, name := range amazonEnv {
		set[name] = true
	}
	for _, name := range missing {
		set[name] = false
	}
	if missing == nil {
		missing = []string{}
	}
	httputil.OK(w, map[string]any{
		"ok":       len(missing) == 0,
		"env":      set,
		"missing":  missing,
		"endpoint": h.cfg.Amazon.SPEndpoint(),
	})
}

var amazonEnv = []string{"AMZ_LWA_CLIENT_ID", "AMZ_LWA_CLIENT_SECRET", "AMZ_SP_REFRESH_TOKEN", "AMZ_MARKETPLACE_IDS"}

