package store

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aeSpec = TableSpec{
	Name:     `"public.ae_self_operated_daily"`,
	Columns:  []string{"site", "product_id", "stat_date", "exposure"},
	Conflict: []string{"site", "product_id", "stat_date"},
}

func TestNormalizeTableName(t *testing.T) {
	tests := map[string]string{
		"ae_self_operated_daily":          "ae_self_operated_daily",
		`"ae_self_operated_daily"`:        "ae_self_operated_daily",
		"public.ae_self_operated_daily":   "ae_self_operated_daily",
		`"public.ae_self_operated_daily"`: "ae_self_operated_daily",
		`public."amazon_daily_by_asin"`:   "amazon_daily_by_asin",
		" ozon_product_report_wide ":      "ozon_product_report_wide",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeTableName(in), in)
	}
	assert.Equal(t, `"managed_stats"`, QuoteTable(`"public.managed_stats"`))
}

func TestBuildUpsert(t *testing.T) {
	q, args, err := BuildUpsert(aeSpec, [][]any{
		{"A站", "P1", "2025-01-01", 100.0},
		{"A站", "P2", "2025-01-01", 5.0},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "ae_self_operated_daily" ("site", "product_id", "stat_date", "exposure") VALUES `+
			`($1, $2, $3, $4), ($5, $6, $7, $8) ON CONFLICT ("site", "product_id", "stat_date") `+
			`DO UPDATE SET "exposure" = EXCLUDED."exposure"`, q)
	assert.Len(t, args, 8)
	assert.Equal(t, "P2", args[5])
}

func TestBuildUpsertDoNothing(t *testing.T) {
	spec := TableSpec{Name: "ae_self_new_products", Columns: []string{"site", "product_id", "first_seen"},
		Conflict: []string{"site", "product_id"}, DoNothing: true}
	q, _, err := BuildUpsert(spec, [][]any{{"A站", "P1", "2025-01-01"}})
	require.NoError(t, err)
	assert.Contains(t, q, `ON CONFLICT ("site", "product_id") DO NOTHING`)
}

func TestBuildUpsertRejectsShortRow(t *testing.T) {
	_, _, err := BuildUpsert(aeSpec, [][]any{{"A站", "P1"}})
	assert.Error(t, err)
	_, _, err = BuildUpsert(TableSpec{Name: "t"}, nil)
	assert.ErrorIs(t, err, ErrNoColumns)
}

func TestPostgresUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "ae_self_operated_daily"`)).
		WithArgs("A站", "P1", "2025-01-01", 100.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	p := NewPostgres(db)
	require.NoError(t, p.Upsert(context.Background(), aeSpec, [][]any{{"A站", "P1", "2025-01-01", 100.0}}))
	require.NoError(t, p.Upsert(context.Background(), aeSpec, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertWrapsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("duplicate key")
	mock.ExpectExec("INSERT INTO").WillReturnError(boom)

	err = NewPostgres(db).Upsert(context.Background(), aeSpec, [][]any{{"A站", "P1", "2025-01-01", 1.0}})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "ae_self_operated_daily")
}

func TestPostgresUpsertSplitsOverParamLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	spec := TableSpec{Name: "wide", Columns: make([]string, 40), Conflict: []string{"c0"}}
	for i := range spec.Columns {
		spec.Columns[i] = "c" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	spec.Conflict = spec.Columns[:1]
	per := maxParams / len(spec.Columns)
	rows := make([][]any, per+1)
	for i := range rows {
		rows[i] = make([]any, len(spec.Columns))
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO").WillReturnResult(sqlmock.NewResult(0, int64(per)))
	mock.ExpectExec("INSERT INTO").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgres(db).Upsert(context.Background(), spec, rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryLastWriteWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Upsert(ctx, aeSpec, [][]any{{"A站", "P1", "2025-01-01", 1.0}}))
	require.NoError(t, m.Upsert(ctx, aeSpec, [][]any{{"A站", "P1", "2025-01-01", 2.0}, {"A站", "P2", "2025-01-01", 3.0}}))

	rows := m.Rows("ae_self_operated_daily")
	require.Len(t, rows, 2)
	assert.Equal(t, 2.0, rows[0]["exposure"])
	assert.Equal(t, []int{1, 2}, m.Calls(aeSpec.Name))
}

func TestMemoryDoNothing(t *testing.T) {
	m := NewMemory()
	spec := TableSpec{Name: "seen", Columns: []string{"k", "v"}, Conflict: []string{"k"}, DoNothing: true}
	require.NoError(t, m.Upsert(context.Background(), spec, [][]any{{"a", 1}, {"a", 2}}))
	rows := m.Rows("seen")
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0]["v"])
}

func TestMemoryFailHook(t *testing.T) {
	m := NewMemory()
	boom := errors.New("boom")
	m.Fail = func(_ string, call int) error {
		if call == 2 {
			return boom
		}
		return nil
	}
	ctx := context.Background()
	require.NoError(t, m.Upsert(ctx, aeSpec, [][]any{{"A站", "P1", "2025-01-01", 1.0}}))
	assert.ErrorIs(t, m.Upsert(ctx, aeSpec, [][]any{{"A站", "P2", "2025-01-01", 1.0}}), boom)
	assert.Len(t, m.Rows(aeSpec.Name), 1)
}
