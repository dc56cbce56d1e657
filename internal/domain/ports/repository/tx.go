package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an infra-defined transaction handle (pgx.Tx for Postgres).
type Tx interface{}

// TransactionManager runs fn inside a transaction, committing when fn
// returns nil and rolling back otherwise. Repositories that take a Tx must
// accept nil and fall back to the pool.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
