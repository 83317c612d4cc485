package ingest

import (
	"context"
	"errors"

	"github.com/ignite/commerce-ingest/internal/config"
	"github.com/ignite/commerce-ingest/internal/normalize"
	"github.com/ignite/commerce-ingest/internal/pkg/apperr"
	"github.com/ignite/commerce-ingest/internal/pkg/logger"
	"github.com/ignite/commerce-ingest/internal/store"
)

// Service implements the ingestion endpoints. It is safe for concurrent use
// when the store and repository are.
type Service struct {
	store     store.Upserter
	repo      Repository
	archive   Archiver
	tables    config.TablesConfig
	chunkSize int
}

// NewService creates an ingestion service writing to the given tables.
func NewService(st store.Upserter, repo Repository, tables config.TablesConfig) *Service {
	return &Service{
		store:     st,
		repo:      repo,
		tables:    tables,
		chunkSize: normalize.DefaultChunkSize,
	}
}

// SetArchiver enables raw upload archival. A nil archiver disables it.
func (s *Service) SetArchiver(a Archiver) {
	s.archive = a
}

// SetChunkSize overrides the rows per upsert call.
func (s *Service) SetChunkSize(n int) {
	if n > 0 {
		s.chunkSize = n
	}
}

// Result summarizes one ingestion.
type Result struct {
	Received int
	Kept     int
	Upserted int
	Warnings *normalize.Warnings
}

func (r *Result) log(route string) {
	logger.Info("ingest complete",
		"route", route,
		"received", r.Received,
		"kept", r.Kept,
		"upserted", r.Upserted,
		"warnings", r.Warnings.Count(),
	)
}

// Archive stores a raw upload when archival is enabled. Failures are logged
// and never fail the ingestion.
func (s *Service) Archive(ctx context.Context, kind, filename, contentType string, data []byte) string {
	if s.archive == nil || len(data) == 0 {
		return ""
	}
	key, err := s.archive.Put(ctx, kind, filename, contentType, data)
	if err != nil {
		logger.Warn("archive upload failed", "kind", kind, "error", err)
		return ""
	}
	return key
}

// upsert writes rows in chunks. A failed chunk becomes a storage error
// carrying its half-open row range.
func (s *Service) upsert(ctx context.Context, spec store.TableSpec, rows [][]any) (int, error) {
	spec.Name = store.NormalizeTableName(spec.Name)
	n, err := normalize.Chunks(ctx, rows, s.chunkSize, func(ctx context.Context, chunk [][]any) error {
		return s.store.Upsert(ctx, spec, chunk)
	})
	if err == nil {
		return n, nil
	}
	var ce *normalize.ChunkError
	if errors.As(err, &ce) {
		logger.Error("chunk upsert failed", "table", spec.Name, "chunk_from", ce.From, "chunk_to", ce.To, "error", ce.Err)
		return n, apperr.Storage("upsert "+spec.Name+" failed", ce.Err).
			With("chunk_from", ce.From).
			With("chunk_to", ce.To)
	}
	return n, apperr.Storage("upsert "+spec.Name+" failed", err)
}

// valuesOf lays typed rows out for an upsert.
func valuesOf[T interface{ Values() []any }](rows []T) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}
