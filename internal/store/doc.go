// Package store defines the persistence contracts for users, categories
// and tasks. Business rules stay independent of the database; the
// PostgreSQL implementation lives in internal/platform/postgres and an
// in-memory one in internal/mocks.
package store
