package normalize

import "strings"

// FieldAliases lists the source column names accepted for one canonical field,
// in priority order.
type FieldAliases struct {
	Field string
	Names []string
}

// AliasTable is the ordered alias list of one ingestion profile.
type AliasTable []FieldAliases

// Resolver looks canonical fields up in raw rows and header rows.
//
// A lookup tries every candidate as an exact match on the normalized column
// name first, then as a substring of the normalized column names scanned in
// source order. Columns that exactly match a candidate of some other field are
// not eligible for substring matches, so "新访客数" never answers for a field
// whose candidate is "访客数".
type Resolver struct {
	norm    KeyFunc
	order   []string
	fields  map[string][]string
	claimed map[string]string
}

// NewResolver builds a resolver for table, comparing names under norm.
func NewResolver(table AliasTable, norm KeyFunc) *Resolver {
	r := &Resolver{
		norm:    norm,
		fields:  make(map[string][]string, len(table)),
		claimed: make(map[string]string),
	}
	for _, fa := range table {
		cands := make([]string, 0, len(fa.Names))
		for _, n := range fa.Names {
			k := norm(n)
			if k == "" {
				continue
			}
			cands = append(cands, k)
			if _, taken := r.claimed[k]; !taken {
				r.claimed[k] = fa.Field
			}
		}
		if _, seen := r.fields[fa.Field]; !seen {
			r.order = append(r.order, fa.Field)
		}
		r.fields[fa.Field] = cands
	}
	return r
}

// Fields returns the canonical fields in table order.
func (r *Resolver) Fields() []string { return r.order }

// Lookup returns the first non-empty value for field.
func (r *Resolver) Lookup(row RawRow, field string) (any, bool) {
	cands := r.fields[field]
	if len(cands) == 0 {
		return nil, false
	}
	keys := r.normKeys(row.keys)
	for _, c := range cands {
		for i, k := range keys {
			if k == c && !isEmpty(row.vals[row.keys[i]]) {
				return row.vals[row.keys[i]], true
			}
		}
	}
	for _, c := range cands {
		for i, k := range keys {
			if r.substringMatch(k, c, field) && !isEmpty(row.vals[row.keys[i]]) {
				return row.vals[row.keys[i]], true
			}
		}
	}
	return nil, false
}

// LookupExact is Lookup without the substring pass.
func (r *Resolver) LookupExact(row RawRow, field string) (any, bool) {
	keys := r.normKeys(row.keys)
	for _, c := range r.fields[field] {
		for i, k := range keys {
			if k == c && !isEmpty(row.vals[row.keys[i]]) {
				return row.vals[row.keys[i]], true
			}
		}
	}
	return nil, false
}

// LookupAll returns the value of every distinct column that names field,
// including columns that are present but empty. Exact matches are used when
// there are any; otherwise substring matches.
func (r *Resolver) LookupAll(row RawRow, field string) []any {
	keys := r.normKeys(row.keys)
	var out []any
	used := make(map[int]bool)
	for _, c := range r.fields[field] {
		for i, k := range keys {
			if k == c && !used[i] {
				used[i] = true
				out = append(out, row.vals[row.keys[i]])
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, c := range r.fields[field] {
		for i, k := range keys {
			if !used[i] && r.substringMatch(k, c, field) {
				used[i] = true
				out = append(out, row.vals[row.keys[i]])
			}
		}
	}
	return out
}

// Index returns the column index of field in header, or -1.
func (r *Resolver) Index(header []string, field string) int {
	cands := r.fields[field]
	keys := r.normKeys(header)
	for _, c := range cands {
		for i, k := range keys {
			if k == c {
				return i
			}
		}
	}
	for _, c := range cands {
		for i, k := range keys {
			if r.substringMatch(k, c, field) {
				return i
			}
		}
	}
	return -1
}

// Indexes resolves every field of the table against header. Fields that are
// absent are left out of the map.
func (r *Resolver) Indexes(header []string) map[string]int {
	out := make(map[string]int, len(r.order))
	for _, f := range r.order {
		if i := r.Index(header, f); i >= 0 {
			out[f] = i
		}
	}
	return out
}

func (r *Resolver) substringMatch(key, cand, field string) bool {
	if key == "" || !strings.Contains(key, cand) {
		return false
	}
	owner, claimed := r.claimed[key]
	return !claimed || owner == field
}

func (r *Resolver) normKeys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = r.norm(k)
	}
	return out
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}
