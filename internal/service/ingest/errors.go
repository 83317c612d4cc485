package ingest

import "github.com/ignite/commerce-ingest/internal/pkg/apperr"

// Client-facing messages.
const (
	msgNoRows       = "Invalid body, expected array of rows"
	msgCrossSite    = "product already exists in another site"
	msgNoHeader     = "Could not find a header row in the uploaded file"
	msgNoRecords    = "No valid records found in the uploaded file"
	msgMissingSite  = "Missing X-Site-ID header"
	msgMissingField = "source_code, platform and non-empty rows are required"
)

func errNoRows() *apperr.Error { return apperr.Validation(msgNoRows) }
