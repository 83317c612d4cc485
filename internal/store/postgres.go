package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// maxParams is the Postgres limit on bind parameters per statement.
const maxParams = 65535

// Postgres upserts through database/sql.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Upsert writes rows with one multi-row INSERT. Batches that would exceed the
// bind parameter limit are split and written in a single transaction.
func (p *Postgres) Upsert(ctx context.Context, spec TableSpec, rows [][]any) error {
	if err := spec.validate(); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	per := maxParams / len(spec.Columns)
	if len(rows) <= per {
		query, args, err := BuildUpsert(spec, rows)
		if err != nil {
			return err
		}
		if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %s: %w", spec.Name, err)
		}
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert %s: begin: %w", spec.Name, err)
	}
	defer tx.Rollback()
	for i := 0; i < len(rows); i += per {
		end := min(i+per, len(rows))
		query, args, err := BuildUpsert(spec, rows[i:end])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %s rows %d-%d: %w", spec.Name, i, end, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert %s: commit: %w", spec.Name, err)
	}
	return nil
}

// BuildUpsert renders the statement and its arguments. Every row must have
// exactly len(spec.Columns) values.
func BuildUpsert(spec TableSpec, rows [][]any) (string, []any, error) {
	if err := spec.validate(); err != nil {
		return "", nil, err
	}
	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = pq.QuoteIdentifier(c)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(QuoteTable(spec.Name))
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(cols))
	for r, row := range rows {
		if len(row) != len(cols) {
			return "", nil, fmt.Errorf("store: row %d has %d values, want %d", r, len(row), len(cols))
		}
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for i, v := range row {
			if i > 0 {
				b.WriteString(", ")
			}
			args = append(args, v)
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(len(args)))
		}
		b.WriteByte(')')
	}

	if len(spec.Conflict) == 0 {
		return b.String(), args, nil
	}
	keys := make([]string, len(spec.Conflict))
	for i, c := range spec.Conflict {
		keys[i] = pq.QuoteIdentifier(c)
	}
	b.WriteString(" ON CONFLICT (")
	b.WriteString(strings.Join(keys, ", "))
	b.WriteString(")")

	update := spec.updateColumns()
	if spec.DoNothing || len(update) == 0 {
		b.WriteString(" DO NOTHING")
		return b.String(), args, nil
	}
	b.WriteString(" DO UPDATE SET ")
	for i, c := range update {
		if i > 0 {
			b.WriteString(", ")
		}
		q := pq.QuoteIdentifier(c)
		b.WriteString(q)
		b.WriteString(" = EXCLUDED.")
		b.WriteString(q)
	}
	return b.String(), args, nil
}

// QuoteTable normalizes a configured table name and quotes it for SQL.
func QuoteTable(name string) string {
	return pq.QuoteIdentifier(NormalizeTableName(name))
}
