// Package postgres implements the store.KV interface on PostgreSQL.
// The layout is deliberately plain: one JSONB table for small index
// records and one TEXT table for large result blobs, managed by
// embedded goose migrations.
package postgres
