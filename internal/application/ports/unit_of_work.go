package ports

import "context"

// UnitOfWork manages storage transaction boundaries. One Execute call is one
// database transaction at READ COMMITTED isolation: fn returning nil commits,
// fn returning an error (or panicking) rolls back. The context passed to fn
// carries the transaction; every repository call inside fn must use it.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(txCtx context.Context) error) error
}
