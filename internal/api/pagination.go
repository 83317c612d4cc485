package api

import (
	"net/http"
	"strconv"
)

// PageParams holds limit/offset query parameters.
type PageParams struct {
	Limit  int
	Offset int
}

// ParsePage extracts limit and offset from query params. A missing or
// invalid limit is 0 so that the service default applies; maxLimit caps it.
func ParsePage(r *http.Request, maxLimit int) PageParams {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	if limit < 0 {
		limit = 0
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return PageParams{Limit: limit, Offset: offset}
}
