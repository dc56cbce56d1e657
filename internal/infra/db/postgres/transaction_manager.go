package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"pdf-ai-pipeline/internal/domain"
	"pdf-ai-pipeline/internal/domain/ports/repository"
)

var _ repository.TransactionManager = (*TxManager)(nil)

// SQLSTATEs after which the whole transaction can simply be run again.
const (
	sqlStateSerialization = "40001"
	sqlStateDeadlock      = "40P01"
)

// TxManager runs queue operations inside pgx transactions.
type TxManager struct {
	pool     *pgxpool.Pool
	attempts int
}

func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool, attempts: 3}
}

// WithTx commits when fn returns nil and rolls back otherwise. A transaction
// aborted by a serialization failure or deadlock is retried.
func (m *TxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	var err error
	for i := 0; i < m.attempts; i++ {
		err = m.once(ctx, txOpt, fn)
		if !retryable(err) || ctx.Err() != nil {
			return err
		}
	}
	return fmt.Errorf("transaction retried %d times: %w", m.attempts, err)
}

func (m *TxManager) once(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	tx, err := m.pool.BeginTx(ctx, txOpt)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerialization || pgErr.Code == sqlStateDeadlock
}

// querier is what queue statements need from either a pool or a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// querierFor returns tx when it is a pgx transaction and the pool when tx is nil.
func querierFor(pool *pgxpool.Pool, tx repository.Tx) (querier, error) {
	switch v := tx.(type) {
	case pgx.Tx:
		return v, nil
	case nil:
		if pool == nil {
			return nil, fmt.Errorf("%w: no pool", domain.ErrInvalidArgument)
		}
		return pool, nil
	default:
		return nil, fmt.Errorf("%w: unsupported transaction %T", domain.ErrInvalidArgument, tx)
	}
}
