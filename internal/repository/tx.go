package repository

import "context"

// TxRunner models the store's transaction capability. WithinTransaction runs
// fn so that every repository call made with the derived context commits or
// aborts as one unit. Supported reports whether the underlying store can
// actually do that; when it cannot, the workflow engine falls back to the
// compensating protocol (versioned listing write first, idempotent ledger
// append retried afterwards).
type TxRunner interface {
	Supported() bool
	WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}
