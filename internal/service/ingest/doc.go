// Package ingest turns uploaded and pulled rows into upserts.
//
// Every ingestion follows the same path: normalize through the alias tables,
// deduplicate by natural key, then write in fixed-size chunks through a
// store.Upserter, stopping at the first failed chunk. Errors are returned as
// *apperr.Error so handlers can render them directly.
package ingest
