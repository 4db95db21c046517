package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres); repositories must gracefully accept nil (the
// non-transactional path).
type Tx interface{}

// NoTX marks call sites that deliberately run outside a transaction.
var NoTX Tx

// TransactionManager runs a function inside a database transaction, passing
// the handle down so repositories on both stores (ledger + payments) can
// compose a single atomic scope. Keep this interface small and stable.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
