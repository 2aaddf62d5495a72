package store

import "context"

// Stores bundles the store implementations that share one connection or
// transaction.
type Stores struct {
	Users      UserStore
	Categories CategoryStore
	Tasks      TaskStore
}

// Transactor runs a function against stores bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}
