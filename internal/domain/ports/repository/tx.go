package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

// TransactionManager executes a function inside a database transaction,
// passing the underlying handle via `tx`.
//
// Repositories accept `tx Tx` and MUST gracefully accept nil (the
// non-transactional path); the concrete type is infra-defined (pgx.Tx for
// Postgres). Use-case code decides which paths need a real transaction:
// claim batches always run inside one, reads never do.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
