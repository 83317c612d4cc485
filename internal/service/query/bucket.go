package query

import (
	"strings"
	"time"
)

// Granularity is the bucket size of an aggregation.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// ParseGranularity accepts day, week or month in any case; empty means def.
func ParseGranularity(s string, def Granularity) (Granularity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	switch g := Granularity(s); g {
	case Day, Week, Month:
		return g, nil
	}
	return "", ErrInvalidGranularity
}

// Bucket truncates an ISO date to the start of its bucket: the Monday of
// its week or the first of its month. Dates that do not parse are returned
// unchanged.
func Bucket(date string, g Granularity) string {
	if g == Day {
		return date
	}
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	switch g {
	case Week:
		offset := (int(d.Weekday()) + 6) % 7
		d = d.AddDate(0, 0, -offset)
	case Month:
		d = time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return d.Format(time.DateOnly)
}

// bucketLabel is the bucket itself for days; otherwise the dates actually
// covered, collapsed to one date when the bucket holds a single day.
func bucketLabel(g Granularity, bucket, minDate, maxDate string) string {
	if g == Day {
		return bucket
	}
	if minDate == maxDate {
		return minDate
	}
	return minDate + "~" + maxDate
}

// dateSpan tracks the first and last date seen in a bucket.
type dateSpan struct {
	min, max string
}

func (s *dateSpan) add(date string) {
	if s.min == "" || date < s.min {
		s.min = date
	}
	if date > s.max {
		s.max = date
	}
}

// weighted accumulates a weighted mean. The mean is nil until some weight
// has been added.
type weighted struct {
	num, den float64
}

func (w *weighted) add(v *float64, weight float64) {
	if v == nil {
		return
	}
	w.num += *v * weight
	w.den += weight
}

func (w weighted) mean() *float64 {
	if w.den <= 0 {
		return nil
	}
	m := w.num / w.den
	return &m
}

// percent returns a/b*100, or nil when b is zero.
func percent(a, b float64) *float64 {
	if b <= 0 {
		return nil
	}
	p := a / b * 100
	return &p
}

func validRange(start, end string) error {
	if start == "" || end == "" {
		return ErrMissingRange
	}
	return nil
}
