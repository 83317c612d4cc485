// Package store writes normalized rows into Postgres with
// INSERT ... ON CONFLICT upserts.
package store

import (
	"context"
	"errors"
	"strings"
)

var ErrNoColumns = errors.New("store: table spec has no columns")

// TableSpec describes an upsert target.
type TableSpec struct {
	Name     string
	Columns  []string
	Conflict []string
	// DoNothing keeps existing rows untouched on conflict.
	DoNothing bool
}

// Upserter writes rows laid out in spec.Columns order. One call is one
// statement (or one transaction), so a chunk either lands fully or not at all.
type Upserter interface {
	Upsert(ctx context.Context, spec TableSpec, rows [][]any) error
}

// NormalizeTableName strips surrounding double quotes and a leading "public."
// schema from a configured table name.
func NormalizeTableName(name string) string {
	n := strings.TrimSpace(name)
	n = strings.Trim(n, `"`)
	if strings.HasPrefix(strings.ToLower(n), "public.") {
		n = n[len("public."):]
	}
	return strings.Trim(n, `"`)
}

func (s TableSpec) validate() error {
	if len(s.Columns) == 0 {
		return ErrNoColumns
	}
	if s.Name == "" {
		return errors.New("store: table spec has no name")
	}
	return nil
}

// updateColumns are the columns rewritten on conflict.
func (s TableSpec) updateColumns() []string {
	key := make(map[string]bool, len(s.Conflict))
	for _, c := range s.Conflict {
		key[c] = true
	}
	out := make([]string, 0, len(s.Columns))
	for _, c := range s.Columns {
		if !key[c] {
			out = append(out, c)
		}
	}
	return out
}
