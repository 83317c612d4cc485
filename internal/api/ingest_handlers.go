package api

import (
	"bytes"
	"net/http"

	"github.com/ignite/commerce-ingest/internal/pkg/httputil"
	"github.com/ignite/commerce-ingest/internal/service/ingest"
	"github.com/ignite/commerce-ingest/internal/spreadsheet"
)

// AEAlive answers GET /ae_upsert.
func (h *Handlers) AEAlive(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{"ok": true, "route": "ae_upsert", "msg": "alive"})
}

// AEUpsert handles POST /ae_upsert.
func (h *Handlers) AEUpsert(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r, maxJSONBody)
	if err != nil {
		fail(w, err)
		return
	}
	opts := ingest.AEOptions{DryRun: httputil.QueryFlag(r, "dry_run") || httputil.QueryFlag(r, "dry")}
	if !opts.DryRun {
		h.ingest.Archive(r.Context(), "ae_upsert", "rows.json", "application/json", data)
	}

	res, err := h.ingest.AE(r.Context(), decodeRows(data), opts)
	if err != nil {
		fail(w, err)
		return
	}
	if res.DryRun {
		httputil.OK(w, warningsBody(r, map[string]any{
			"ok":      true,
			"dry_run": true,
			"count":   res.Kept,
			"sample":  res.Sample,
		}, res.Warnings))
		return
	}
	newProducts := res.NewProducts
	if newProducts == nil {
		newProducts = []string{}
	}
	httputil.OK(w, warningsBody(r, map[string]any{
		"ok":           true,
		"upserted":     res.Upserted,
		"new_products": newProducts,
	}, res.Warnings))
}

// FBIngest handles POST /fb_ingest with a Meta ads workbook.
func (h *Handlers) FBIngest(w http.ResponseWriter, r *http.Request) {
	up, err := formFile(w, r, "file", "excel")
	if err != nil {
		fail(w, err)
		return
	}
	sheet, err := spreadsheet.Parse(bytes.NewReader(up.Data), up.Name, ingest.MetaSheetName)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	h.ingest.Archive(r.Context(), "fb_ingest", up.Name, up.ContentType, up.Data)

	res, err := h.ingest.MetaAds(r.Context(), sheet, r.URL.Query().Get("site_id"))
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, warningsBody(r, map[string]any{"ok": true, "upserted": res.Upserted}, res.Warnings))
}

// IndependentFacebookIngest handles POST /independent/facebook-ingest.
func (h *Handlers) IndependentFacebookIngest(w http.ResponseWriter, r *http.Request) {
	site := r.Header.Get("X-Site-ID")
	up, err := formFile(w, r, "file")
	if err != nil {
		fail(w, err)
		return
	}
	sheet, err := spreadsheet.Parse(bytes.NewReader(up.Data), up.Name)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	res, err := h.ingest.IndependentAds(r.Context(), sheet, site)
	if err != nil {
		fail(w, err)
		return
	}
	h.ingest.Archive(r.Context(), "independent_facebook", up.Name, up.ContentType, up.Data)
	httputil.OK(w, warningsBody(r, map[string]any{
		"ok":       true,
		"inserted": res.Upserted,
		"message":  "Facebook ads data ingested",
	}, res.Warnings))
}

// OzonImport handles POST /ozon/import with a seller-portal report file.
func (h *Handlers) OzonImport(w http.ResponseWriter, r *http.Request) {
	up, err := formFile(w, r, "file", "upload", "data")
	if err != nil {
		fail(w, err)
		return
	}
	sheet, err := spreadsheet.Parse(bytes.NewReader(up.Data), up.Name)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	h.ingest.Archive(r.Context(), "ozon_import", up.Name, up.ContentType, up.Data)

	res, err := h.ingest.OzonImport(r.Context(), sheet.Records(), r.FormValue("period_end"))
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, warningsBody(r, map[string]any{
		"ok":    true,
		"count": res.Upserted,
		"table": res.Table,
	}, res.Warnings))
}

// SubmitData handles POST /api.submitData.
func (h *Handlers) SubmitData(w http.ResponseWriter, r *http.Request) {
	var in ingest.FactInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	res, err := h.ingest.Facts(r.Context(), in)
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, warningsBody(r, map[string]any{
		"ok":        true,
		"upserted":  res.Upserted,
		"stat_date": res.StatDate,
	}, res.Warnings))
}

// AmazonUpsert handles POST /amazon/upsert.
func (h *Handlers) AmazonUpsert(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r, maxJSONBody)
	if err != nil {
		fail(w, err)
		return
	}
	res, err := h.ingest.Amazon(r.Context(), decodeRows(data))
	if err != nil {
		fail(w, err)
		return
	}
	httputil.OK(w, warningsBody(r, map[string]any{"ok": true, "upserted": res.Upserted}, res.Warnings))
}
