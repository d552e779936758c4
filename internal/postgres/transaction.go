package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// WithTx runs fn inside a single transaction on pool, committing on success
// and rolling back on error or panic (re-raising the panic after rollback).
// readonly selects pgx.ReadOnly vs pgx.ReadWrite (spec.md §4.7/§4.8: a SAFE
// mode batch opens a read-only transaction, UNSAFE opens read-write).
func WithTx(ctx context.Context, pool Pool, readonly bool, fn func(tx pgx.Tx) error) error {
	mode := pgx.ReadWrite
	if readonly {
		mode = pgx.ReadOnly
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{AccessMode: mode})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
