package normalize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kv struct {
	k, v string
}

func kvKey(r kv) (string, bool) { return NaturalKey(r.k) }

func TestDedupeLastWriteWinsInPlace(t *testing.T) {
	rows := []kv{{"a", "1"}, {"b", "1"}, {"a", "2"}, {"", "x"}, {"c", "1"}}
	d := NewDeduper(kvKey)
	for _, r := range rows {
		d.Add(r)
	}
	assert.Equal(t, []kv{{"a", "2"}, {"b", "1"}, {"c", "1"}}, d.Rows())
	assert.Equal(t, 1, d.Dropped())
}

func TestDedupeIsIdempotent(t *testing.T) {
	rows := []kv{{"a", "1"}, {"b", "1"}, {"a", "2"}}
	once := Dedupe(rows, kvKey)
	assert.Equal(t, once, Dedupe(once, kvKey))
}

func TestNaturalKeyRejectsEmptyParts(t *testing.T) {
	_, ok := NaturalKey("A站", "", "2025-01-01")
	assert.False(t, ok)
	k1, _ := NaturalKey("a", "bc")
	k2, _ := NaturalKey("ab", "c")
	assert.NotEqual(t, k1, k2)
}

func TestChunksSplitsSequentially(t *testing.T) {
	rows := make([]int, 2500)
	var sizes []int
	n, err := Chunks(context.Background(), rows, DefaultChunkSize, func(_ context.Context, c []int) error {
		sizes = append(sizes, len(c))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2500, n)
	assert.Equal(t, []int{1000, 1000, 500}, sizes)
}

func TestChunksStopsAtFirstFailure(t *testing.T) {
	rows := make([]int, 2500)
	boom := errors.New("boom")
	calls := 0
	n, err := Chunks(context.Background(), rows, 1000, func(_ context.Context, c []int) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls, "third chunk must not be attempted")
	assert.Equal(t, 1000, n)

	var ce *ChunkError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 1000, ce.From)
	assert.Equal(t, 2000, ce.To)
	assert.ErrorIs(t, err, boom)
}

func TestChunksHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Chunks(ctx, []int{1, 2}, 1, func(context.Context, []int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
