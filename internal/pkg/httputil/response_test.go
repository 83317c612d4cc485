package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFailStorageCarriesChunkRange(t *testing.T) {
	rec := httptest.NewRecorder()
	err := apperr.Storage("upsert failed", errors.New("duplicate key")).
		With("chunk_from", 1000).With("chunk_to", 2000)

	Fail(rec, err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "duplicate key", body["error"])
	assert.EqualValues(t, 1000, body["chunk_from"])
	assert.EqualValues(t, 2000, body["chunk_to"])
}

func TestFailConfigListsMissing(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, apperr.MissingEnv("OZON_CLIENT_ID"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []any{"OZON_CLIENT_ID"}, body["missing"])
}

func TestFailHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, errors.New("pq: password authentication failed"))

	body := decodeBody(t, rec)
	assert.Equal(t, "internal server error", body["error"])
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var dst map[string]any
	assert.False(t, Decode(rec, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryFlag(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?dry_run=1&preview=yes&debug=0", nil)
	assert.True(t, QueryFlag(req, "dry_run"))
	assert.True(t, QueryFlag(req, "preview"))
	assert.False(t, QueryFlag(req, "debug"))
	assert.False(t, QueryFlag(req, "missing"))
}
