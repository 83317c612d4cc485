// Package httputil provides shared HTTP response/request utilities for handlers.
//
// Handlers write every JSON body through these helpers so that error envelopes
// stay the same across ingestion and query routes.
package httputil
