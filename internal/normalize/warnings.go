package normalize

import "strings"

// MaxWarningSamples is how many warnings are kept verbatim; the rest are only
// counted.
const MaxWarningSamples = 20

// Warning records a value that was present but could not be read as a number.
type Warning struct {
	Row   int    `json:"row"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// Warnings collects coercion warnings for one upload. A nil *Warnings
// discards everything.
type Warnings struct {
	total   int
	samples []Warning
}

func (w *Warnings) Add(row int, field string, v any) {
	if w == nil {
		return
	}
	w.total++
	if len(w.samples) < MaxWarningSamples {
		w.samples = append(w.samples, Warning{Row: row, Field: field, Value: Text(v)})
	}
}

func (w *Warnings) Count() int {
	if w == nil {
		return 0
	}
	return w.total
}

// Samples returns up to MaxWarningSamples warnings in the order they were seen.
func (w *Warnings) Samples() []Warning {
	if w == nil || len(w.samples) == 0 {
		return []Warning{}
	}
	return w.samples
}

// Coercer binds the value coercions to a row position so that failures end up
// in the warnings side channel.
type Coercer struct {
	W   *Warnings
	Row int
}

// Number is the package Number, recording a warning for unreadable values.
func (c Coercer) Number(field string, v any) float64 {
	n, ok := ParseNumber(v)
	if !ok {
		c.W.Add(c.Row, field, v)
	}
	return n
}

// Loose is LooseNumber with the same warning rule as Number.
func (c Coercer) Loose(field string, v any) float64 {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" && s != "--" && !strings.ContainsAny(s, "0123456789") {
			c.W.Add(c.Row, field, v)
		}
	}
	return LooseNumber(v)
}
