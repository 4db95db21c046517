package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-creative-suite/internal/domain"
	"ai-creative-suite/internal/domain/ports/repository"
)

// Repository methods accept an optional repository.Tx so use cases can
// compose atomic multi-row scopes. These helpers dispatch to the transaction
// handle when present, the pool otherwise. A tx of an unexpected concrete
// type is a programming error (domain.ErrInvalidExecContext).

func execSQL(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	if tx == nil {
		return pool.Exec(ctx, sql, args...)
	}
	handle, ok := tx.(pgx.Tx)
	if !ok {
		return nil, domain.ErrInvalidExecContext
	}
	return handle.Exec(ctx, sql, args...)
}

func pickRow(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, sql string, args ...interface{}) (pgx.Row, error) {
	if tx == nil {
		return pool.QueryRow(ctx, sql, args...), nil
	}
	handle, ok := tx.(pgx.Tx)
	if !ok {
		return nil, domain.ErrInvalidExecContext
	}
	return handle.QueryRow(ctx, sql, args...), nil
}

func queryRows(ctx context.Context, pool *pgxpool.Pool, tx repository.Tx, sql string, args ...interface{}) (pgx.Rows, error) {
	if tx == nil {
		return pool.Query(ctx, sql, args...)
	}
	handle, ok := tx.(pgx.Tx)
	if !ok {
		return nil, domain.ErrInvalidExecContext
	}
	return handle.Query(ctx, sql, args...)
}

// isUniqueViolation reports a 23505 from the driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// scanErr collapses a row scan failure into domain terms.
func scanErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return domain.ErrReadDatabaseRow
}
