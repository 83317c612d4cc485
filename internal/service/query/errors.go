package query

import "errors"

// Sentinel errors for the query service layer. Messages are returned to
// clients verbatim.
var (
	ErrMissingRange       = errors.New("Missing start or end")
	ErrInvalidGranularity = errors.New("Invalid granularity")
	ErrInvalidAggregate   = errors.New("Invalid aggregate mode")
	ErrInvalidDate        = errors.New("Invalid date, expected YYYY-MM-DD")
	ErrInvalidRange       = errors.New("Invalid range: from must not be after to")
	ErrInvalidPlatform    = errors.New("platform must be 'managed' or 'self'")
	ErrMissingSite        = errors.New("missing site param, e.g. ?site=poolsvacuum.com")
)
