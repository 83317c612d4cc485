package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	isoDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	compactDate = regexp.MustCompile(`^\d{8}$`)
	looseDate   = regexp.MustCompile(`^(\d{4})[/-](\d{1,2})[/-](\d{1,2})$`)
	serialDay   = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	thousands   = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+$`)
)

// excelEpoch is day zero of the 1900 date system as Excel counts it.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// Number coerces v into a finite float64. Absent, empty and unparseable values
// become 0.
func Number(v any) float64 {
	n, _ := ParseNumber(v)
	return n
}

// ParseNumber is Number that also reports whether a present value was
// understood. Absent and blank values are not failures.
func ParseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case float64:
		return finite(t)
	case float32:
		return finite(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		return parseNumberString(t.String())
	case string:
		return parseNumberString(t)
	case bool:
		return 0, false
	}
	return 0, false
}

func parseNumberString(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, true
	}
	m := floatPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// LooseNumber reads numbers from ad-platform exports. "--" is zero. A comma
// is a decimal separator unless the value has no dot and is grouped in
// thousands ("1,000"). Everything but digits, dots and minus signs is dropped.
func LooseNumber(v any) float64 {
	s, ok := v.(string)
	if !ok {
		return Number(v)
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "--" {
		return 0
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") && !thousands.MatchString(s) {
		s = strings.Replace(s, ",", ".", 1)
	}
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	return Number(s)
}

// Text renders a scalar the way it would read in the source file.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.DateOnly)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Date normalizes a date cell to YYYY-MM-DD without validating the calendar.
// Anything not recognised is cut to its first 10 characters.
func Date(v any) string {
	s := Text(v)
	switch {
	case s == "":
		return ""
	case isoDate.MatchString(s):
		return s
	case compactDate.MatchString(s):
		return s[:4] + "-" + s[4:6] + "-" + s[6:]
	}
	if m := looseDate.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + pad2(m[2]) + "-" + pad2(m[3])
	}
	r := []rune(s)
	if len(r) > 10 {
		r = r[:10]
	}
	return string(r)
}

// Day is Date for spreadsheet cells: Excel serial day numbers are converted
// and the result must be a real calendar day, otherwise "" is returned.
func Day(v any) string {
	s := Text(v)
	if s == "" {
		return ""
	}
	if serialDay.MatchString(s) && !compactDate.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 1 || f > 2958465 {
			return ""
		}
		return excelEpoch.AddDate(0, 0, int(f)).Format(time.DateOnly)
	}
	d := Date(s)
	if _, err := time.Parse(time.DateOnly, d); err != nil {
		return ""
	}
	return d
}

// Ratio reads a rate that may be written as "7.33%" or as 7.33; both become
// 0.0733. Values already at or below 1 are kept.
func Ratio(v any) float64 {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return 0
		}
		if strings.HasSuffix(s, "%") {
			return Number(strings.TrimSuffix(s, "%")) / 100
		}
	}
	n := Number(v)
	if n > 1 {
		return n / 100
	}
	return n
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
