package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ignite/commerce-ingest/internal/api"
	"github.com/ignite/commerce-ingest/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresDatabaseURL(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	_, err = New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestWireVendorsSkipsUnconfigured(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Ozon.ClientID = "123"
	cfg.Ozon.APIKey = "key"

	a := &App{Config: cfg}
	a.wireVendors()

	assert.Nil(t, a.Amazon)
	assert.Nil(t, a.AmazonSync)
	assert.NotNil(t, a.OzonSync)
	assert.Nil(t, a.ShopifySync)
}

func TestHandlersWithoutAmazonReportConfigError(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	a := &App{Config: cfg}
	a.wireVendors()
	router := api.SetupRoutes(a.Handlers(), a.HealthChecker(), cfg.Server.CORSOrigins)

	req := httptest.NewRequest(http.MethodGet, "/amazon/report-poll?reportId=r1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["missing"], "AMZ_LWA_CLIENT_ID")
}
