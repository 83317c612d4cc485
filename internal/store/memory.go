package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Memory is an in-process Upserter for tests and dry runs. It keeps one row
// per conflict key, like the Postgres upsert.
type Memory struct {
	mu     sync.Mutex
	tables map[string]*memTable
	calls  map[string][]int

	// Fail, when set, is consulted before every call; a non-nil error is
	// returned and nothing is written. call counts from 1 per table.
	Fail func(table string, call int) error
}

type memTable struct {
	index map[string]int
	rows  []map[string]any
}

func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memTable), calls: make(map[string][]int)}
}

func (m *Memory) Upsert(_ context.Context, spec TableSpec, rows [][]any) error {
	if err := spec.validate(); err != nil {
		return err
	}
	name := NormalizeTableName(spec.Name)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name] = append(m.calls[name], len(rows))
	if m.Fail != nil {
		if err := m.Fail(name, len(m.calls[name])); err != nil {
			return err
		}
	}

	t := m.tables[name]
	if t == nil {
		t = &memTable{index: make(map[string]int)}
		m.tables[name] = t
	}
	for r, row := range rows {
		if len(row) != len(spec.Columns) {
			return fmt.Errorf("store: row %d has %d values, want %d", r, len(row), len(spec.Columns))
		}
	}
	for _, row := range rows {
		rec := make(map[string]any, len(row))
		for i, c := range spec.Columns {
			rec[c] = row[i]
		}
		key := memKey(spec.Conflict, rec)
		i, seen := t.index[key]
		switch {
		case !seen || len(spec.Conflict) == 0:
			t.index[key] = len(t.rows)
			t.rows = append(t.rows, rec)
		case spec.DoNothing:
		default:
			for c, v := range rec {
				t.rows[i][c] = v
			}
		}
	}
	return nil
}

// Rows returns copies of the stored rows of table in insertion order.
func (m *Memory) Rows(table string) []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tables[NormalizeTableName(table)]
	if t == nil {
		return nil
	}
	out := make([]map[string]any, len(t.rows))
	for i, r := range t.rows {
		cp := make(map[string]any, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

// Calls returns the batch size of every Upsert call against table.
func (m *Memory) Calls(table string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls[NormalizeTableName(table)]...)
}

func memKey(conflict []string, rec map[string]any) string {
	parts := make([]string, len(conflict))
	for i, c := range conflict {
		parts[i] = fmt.Sprint(rec[c])
	}
	return strings.Join(parts, "\x1f")
}
