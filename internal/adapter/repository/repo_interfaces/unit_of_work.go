package repo_interfaces

import "context"

// UnitOfWork runs fn inside one atomic storage scope. If the context
// already carries an open scope, the call joins it instead of opening a
// nested one, so composed operations (a transfer leg inside a batch, a
// derived balance move) share a single commit/rollback boundary.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
