package pull

import (
	"strconv"
	"strings"
	"time"
)

// MaxRangeDays bounds how many days one sync may cover.
const MaxRangeDays = 62

// cst is UTC+8, the business day of the Ozon account.
var cst = time.FixedZone("UTC+8", 8*60*60)

// DaySelection picks the days of a sync. Date wins over From/To, which win
// over Days.
type DaySelection struct {
	Date string
	From string
	To   string
	Days string
}

// Resolve expands a selection into ISO dates, oldest first. An empty selection
// is yesterday in UTC+8.
func (sel DaySelection) Resolve(now time.Time) ([]string, error) {
	yesterday := now.In(cst).AddDate(0, 0, -1)
	yesterday = time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC)

	switch {
	case strings.TrimSpace(sel.Date) != "":
		d, err := parseDay(sel.Date)
		if err != nil {
			return nil, err
		}
		return []string{d.Format(time.DateOnly)}, nil
	case sel.From != "" || sel.To != "":
		from, err := parseDay(sel.From)
		if err != nil {
			return nil, err
		}
		to, err := parseDay(sel.To)
		if err != nil {
			return nil, err
		}
		return dayRange(from, to)
	case sel.Days != "":
		n, err := strconv.Atoi(strings.TrimSpace(sel.Days))
		if err != nil || n <= 0 {
			return nil, ErrInvalidDays
		}
		return dayRange(yesterday.AddDate(0, 0, -(n - 1)), yesterday)
	}
	return []string{yesterday.Format(time.DateOnly)}, nil
}

func parseDay(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

func dayRange(from, to time.Time) ([]string, error) {
	if from.After(to) {
		return nil, ErrInvalidRange
	}
	var out []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if len(out) == MaxRangeDays {
			return nil, ErrRangeTooLong
		}
		out = append(out, d.Format(time.DateOnly))
	}
	return out, nil
}

// yesterdayUTC is the previous calendar day in UTC.
func yesterdayUTC(now time.Time) string {
	return now.UTC().AddDate(0, 0, -1).Format(time.DateOnly)
}
