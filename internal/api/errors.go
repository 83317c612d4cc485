package api

import (
	"errors"
	"net/http"

	"github.com/ignite/commerce-ingest/internal/amazon"
	"github.com/ignite/commerce-ingest/internal/ozon"
	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
	"github.com/ignite/commerce-ingest/internal/pkg/httputil"
	"github.com/ignite/commerce-ingest/internal/service/pull"
	"github.com/ignite/commerce-ingest/internal/service/query"
)

var validationErrors = []error{
	query.ErrMissingRange,
	query.ErrInvalidGranularity,
	query.ErrInvalidAggregate,
	query.ErrInvalidDate,
	query.ErrInvalidRange,
	query.ErrInvalidPlatform,
	query.ErrMissingSite,
	pull.ErrInvalidDate,
	pull.ErrInvalidRange,
	pull.ErrRangeTooLong,
	pull.ErrInvalidDays,
}

// classify maps service sentinels and vendor failures onto the apperr
// taxonomy. Errors already in the taxonomy pass through.
func classify(err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return apperr.Validation(v.Error())
		}
	}

	var amzErr *amazon.APIError
	var amzFailed *amazon.ReportFailedError
	var ozonErr *ozon.APIError
	switch {
	case errors.As(err, &amzErr), errors.As(err, &amzFailed),
		errors.Is(err, amazon.ErrPollTimeout), errors.Is(err, amazon.ErrNoDocument):
		return apperr.Upstream("amazon", err)
	case errors.As(err, &ozonErr):
		return apperr.Upstream("ozon", err)
	}
	return err
}

func fail(w http.ResponseWriter, err error) {
	httputil.Fail(w, classify(err))
}
