package service

import "context"

// TransactionManager runs a function inside a database transaction. The
// connection is carried in the context so repositories used within fn
// share the same transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
