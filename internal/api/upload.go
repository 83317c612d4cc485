package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
)

const (
	maxJSONBody   = 64 << 20
	maxUploadBody = 128 << 20
	// maxMemory is the part of a multipart form kept in memory; the rest
	// spills to temp files.
	maxMemory = 32 << 20
)

// readBody reads a bounded request body.
func readBody(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, apperr.Validationf("read body: %v", err)
	}
	return data, nil
}

// decodeRows accepts either a bare array of rows or an object with a rows
// array. Anything else yields no rows.
func decodeRows(data []byte) []normalize.RawRow {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	var rows []normalize.RawRow
	if data[0] == '[' {
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil
		}
		return rows
	}
	var wrapped struct {
		Rows []normalize.RawRow `json:"rows"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil
	}
	return wrapped.Rows
}

// upload is one file taken from a multipart form.
type upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// formFile returns the first present file among fields.
func formFile(w http.ResponseWriter, r *http.Request, fields ...string) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, apperr.Validationf("invalid multipart form: %v", err)
	}
	for _, field := range fields {
		f, hdr, err := r.FormFile(field)
		if err != nil {
			continue
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, apperr.Validationf("read upload: %v", err)
		}
		return &upload{Name: hdr.Filename, ContentType: hdr.Header.Get("Content-Type"), Data: data}, nil
	}
	return nil, apperr.Validationf("Missing file field (%s)", strings.Join(fields, ", "))
}
