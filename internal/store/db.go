package store

import (
	"github.com/jmoiron/sqlx"
)

// DBTX is an interface that abstracts the database access layer.
// It is implemented by both *sqlx.DB and *sqlx.Tx, allowing store code
// to work with either a connection pool or a transaction. Use it with
// sqlx.GetContext and sqlx.SelectContext for struct scanning.
type DBTX interface {
	sqlx.ExtContext
}
