package normalize

import (
	"context"
	"fmt"
	"strings"
)

// DefaultChunkSize is the number of rows sent to storage per upsert call.
const DefaultChunkSize = 1000

// keySep cannot appear in spreadsheet text, so joined keys never collide.
const keySep = "\x1f"

// NaturalKey joins the key parts of a row. ok is false when any part is empty,
// in which case the row must be discarded.
func NaturalKey(parts ...string) (string, bool) {
	for _, p := range parts {
		if p == "" {
			return "", false
		}
	}
	return strings.Join(parts, keySep), true
}

// JoinKey joins key parts without requiring them to be non-empty.
func JoinKey(parts ...string) string {
	return strings.Join(parts, keySep)
}

// Deduper keeps one row per natural key. A later row replaces the earlier one
// at the earlier row's position.
type Deduper[T any] struct {
	key     func(T) (string, bool)
	index   map[string]int
	rows    []T
	dropped int
}

func NewDeduper[T any](key func(T) (string, bool)) *Deduper[T] {
	return &Deduper[T]{key: key, index: make(map[string]int)}
}

// Add stores row and reports whether it was kept.
func (d *Deduper[T]) Add(row T) bool {
	k, ok := d.key(row)
	if !ok {
		d.dropped++
		return false
	}
	if i, seen := d.index[k]; seen {
		d.rows[i] = row
		return true
	}
	d.index[k] = len(d.rows)
	d.rows = append(d.rows, row)
	return true
}

func (d *Deduper[T]) Rows() []T { return d.rows }

// Dropped counts rows rejected for an incomplete key.
func (d *Deduper[T]) Dropped() int { return d.dropped }

// Dedupe runs rows through a Deduper.
func Dedupe[T any](rows []T, key func(T) (string, bool)) []T {
	d := NewDeduper(key)
	for _, r := range rows {
		d.Add(r)
	}
	return d.Rows()
}

// ChunkError reports the row range of the chunk that failed. To is the
// nominal end of the chunk, i.e. From plus the chunk size.
type ChunkError struct {
	From int
	To   int
	Err  error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk [%d, %d): %v", e.From, e.To, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Chunks calls fn for consecutive slices of at most size rows and stops at the
// first failure. It returns the number of rows written before the failure.
func Chunks[T any](ctx context.Context, rows []T, size int, fn func(context.Context, []T) error) (int, error) {
	if size <= 0 {
		size = DefaultChunkSize
	}
	done := 0
	for i := 0; i < len(rows); i += size {
		if err := ctx.Err(); err != nil {
			return done, &ChunkError{From: i, To: i + size, Err: err}
		}
		end := min(i+size, len(rows))
		if err := fn(ctx, rows[i:end]); err != nil {
			return done, &ChunkError{From: i, To: i + size, Err: err}
		}
		done = end
	}
	return done, nil
}
