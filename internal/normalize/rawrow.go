package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// RawRow is one source record before normalization: column name to scalar,
// remembering the order in which columns appeared in the upload.
type RawRow struct {
	keys []string
	vals map[string]any
}

// NewRawRow returns an empty row with room for n columns.
func NewRawRow(n int) RawRow {
	return RawRow{keys: make([]string, 0, n), vals: make(map[string]any, n)}
}

// RowFromCells zips a header row with a data row. Cells beyond the header are
// ignored and missing cells read as empty strings. A repeated header keeps the
// first column.
func RowFromCells(header, cells []string) RawRow {
	row := NewRawRow(len(header))
	for i, h := range header {
		if _, dup := row.vals[h]; dup {
			continue
		}
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		row.Set(h, v)
	}
	return row
}

// Set stores v under key. An existing key keeps its position.
func (r *RawRow) Set(key string, v any) {
	if r.vals == nil {
		r.vals = make(map[string]any)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Get returns the value stored under the exact key.
func (r RawRow) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Keys returns column names in source order.
func (r RawRow) Keys() []string { return r.keys }

func (r RawRow) Len() int { return len(r.keys) }

// UnmarshalJSON decodes a JSON object keeping key order. Numbers are kept as
// json.Number so that large ids survive untouched.
func (r *RawRow) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("raw row: expected object, got %v", tok)
	}

	*r = NewRawRow(8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("raw row: expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("raw row: value for %q: %w", key, err)
		}
		r.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON writes the row back out in source order.
func (r RawRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
