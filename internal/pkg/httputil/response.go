package httputil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
	"github.com/ignite/commerce-ingest/internal/pkg/logger"
)

// ErrorResponse is the standard error envelope for simple API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("json encode failed", "error", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// BadRequest writes a 400 error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// MethodNotAllowed writes a 405 error with the Allow header set.
func MethodNotAllowed(w http.ResponseWriter, allow ...string) {
	w.Header().Set("Allow", strings.Join(allow, ", "))
	Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

// Fail renders err through the apperr taxonomy. Detail fields are merged into
// the top level of the body; internal errors are logged and never echoed.
func Fail(w http.ResponseWriter, err error) {
	ae := apperr.As(err)
	status := ae.StatusCode()

	body := map[string]any{"error": ae.Message, "code": string(ae.Kind)}
	switch ae.Kind {
	case apperr.KindConfig:
		body["missing"] = ae.Missing
	case apperr.KindUpstream, apperr.KindStorage:
		if ae.Err != nil {
			body["error"] = ae.Err.Error()
		}
	}
	for k, v := range ae.Details {
		body[k] = v
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "kind", ae.Kind, "error", ae.Error())
	}
	JSON(w, status, body)
}

// Decode reads JSON from the request body into dst.
// Returns false and writes a 400 response if parsing fails.
func Decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		BadRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// QueryFlag reports whether a query parameter is set to 1, true or yes.
func QueryFlag(r *http.Request, name string) bool {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get(name))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
