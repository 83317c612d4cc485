package ingest

import "context"

// Repository holds the reads ingestion needs before and after writing.
type Repository interface {
	// AEProductSites returns, for each given product id already stored, the
	// sites it is stored under.
	AEProductSites(ctx context.Context, productIDs []string) (map[string][]string, error)

	// LatestOzonDen returns the most recent den in the Ozon wide table, or ""
	// when the table is empty.
	LatestOzonDen(ctx context.Context) (string, error)
}

// Archiver keeps a copy of raw uploads.
type Archiver interface {
	Put(ctx context.Context, kind, filename, contentType string, data []byte) (string, error)
}
