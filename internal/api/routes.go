package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all routes. Every endpoint is served under /api
// and at its bare legacy path.
func SetupRoutes(h *Handlers, hc *HealthChecker, origins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Site-ID"},
		MaxAge:         300,
	}))

	if hc != nil {
		r.Get("/health", hc.HandleHealth)
		r.Get("/health/live", hc.HandleLiveness)
		r.Get("/health/ready", hc.HandleReadiness)
	}

	r.Route("/api", func(r chi.Router) { mountEndpoints(r, h) })
	mountEndpoints(r, h)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found","code":"not_found"}`))
	})
	return r
}

func mountEndpoints(r chi.Router, h *Handlers) {
	// Ingestion
	r.Get("/ae_upsert", h.AEAlive)
	r.Post("/ae_upsert", h.AEUpsert)
	r.Post("/fb_ingest", h.FBIngest)
	r.Post("/independent/facebook-ingest", h.IndependentFacebookIngest)
	r.Post("/ozon/import", h.OzonImport)
	r.Get("/ozon/sync", h.OzonSync)
	r.Post("/api.submitData", h.SubmitData)
	r.Get("/shopify/ingest", h.ShopifyIngest)

	// Amazon Selling-Partner workflow
	r.Route("/amazon", func(r chi.Router) {
		r.Post("/report-create", h.AmazonReportCreate)
		r.Get("/report-poll", h.AmazonReportPoll)
		r.Get("/report-download", h.AmazonReportDownload)
		r.Post("/upsert", h.AmazonUpsert)
		r.Get("/cron-daily", h.AmazonCronDaily)
		r.Post("/cron-daily", h.AmazonCronDaily)
		r.Get("/healthz", h.AmazonHealthz)
		r.Get("/query", h.AmazonQuery)
	})

	// Dashboard queries
	r.Get("/ae_query", h.AEQuery)
	r.Get("/stats", h.Stats)
	r.Get("/ae_self_operated/stats", h.SelfOperatedStats)
	r.Get("/ozon/stats", h.OzonStats)
	r.Get("/ozon/kpi", h.OzonKPI)
	r.Get("/ozon/periods", h.OzonPeriods)
	r.Get("/fb_stats", h.FBStats)
	r.Get("/independent/stats", h.IndependentStats)
	r.Get("/new-products", h.NewProducts)
}
