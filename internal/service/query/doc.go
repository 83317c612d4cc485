// Package query aggregates the stored daily tables for the dashboards.
//
// Reads go through the Repository interface defined here; the Postgres
// implementation lives in repository/postgres. Aggregation happens in Go so
// that the day/week/month bucketing rules are the same for every table.
package query
