package pull

import "errors"

var (
	ErrInvalidDate  = errors.New("Invalid date, expected YYYY-MM-DD")
	ErrInvalidRange = errors.New("Invalid range: from must not be after to")
	ErrRangeTooLong = errors.New("Date range too long")
	ErrInvalidDays  = errors.New("days must be a positive integer")

	// ErrBackfillBudget marks backfill days cut off by the run's time budget.
	ErrBackfillBudget = errors.New("backfill time budget exhausted")
)
