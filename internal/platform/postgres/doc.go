// Package postgres implements the store interfaces on PostgreSQL with sqlx
// over the pgx database/sql driver. It also owns the schema: SQL migrations
// are embedded in the binary and applied with goose.
package postgres
