package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// Executor runs SQL against a Pool, retrying transient connection failures
// per spec.md §4.7's retry policy and classifying terminal failures into
// the kernel's error taxonomy before returning them.
type Executor struct {
	pool    Pool
	logger  *slog.Logger
	retries int
	delay   time.Duration
}

// NewExecutor wraps pool with retry-on-transient-failure semantics.
func NewExecutor(pool Pool, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{pool: pool, logger: logger, retries: 3, delay: 2 * time.Second}
}

// Pool returns the underlying Pool, for callers (the migration recorder)
// that need the raw Exec surface rather than the classify-and-retry one.
func (e *Executor) Pool() Pool { return e.pool }

// Query runs a read statement, retrying transient connection failures.
func (e *Executor) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	var rows pgx.Rows
	err := e.withRetry(ctx, func() error {
		var err error
		rows, err = e.pool.Query(ctx, sql, args...)
		return err
	})
	if err != nil {
		return nil, ClassifyError(err)
	}
	return rows, nil
}

// Exec runs a write statement, retrying transient connection failures.
func (e *Executor) Exec(ctx context.Context, sql string, args ...any) error {
	err := e.withRetry(ctx, func() error {
		_, err := e.pool.Exec(ctx, sql, args...)
		return err
	})
	if err != nil {
		return ClassifyError(err)
	}
	return nil
}

// StatementResult is one statement's outcome within a batch: its rows, or
// an empty slice for DDL and other statements that return none.
type StatementResult struct {
	Rows []map[string]any
}

// BatchResult is the ordered outcome of a batch run through ExecuteBatch,
// one StatementResult per input statement in declaration order (spec.md
// §4.7/§5: statements execute in order inside a single transaction, and
// that order is the only guarantee callers get).
type BatchResult struct {
	Statements []StatementResult
}

// ExecuteBatch runs statements in declaration order inside one transaction,
// opened read-only when readonly is set (spec.md §4.7/§4.8: SAFE mode
// executes read-only, UNSAFE read-write), retrying the whole attempt on a
// transient connection failure. Every statement's rows are collected, so
// callers get SELECT results back alongside DDL/DML's empty row sets.
func (e *Executor) ExecuteBatch(ctx context.Context, statements []string, readonly bool) (BatchResult, error) {
	var result BatchResult
	err := e.withRetry(ctx, func() error {
		result = BatchResult{Statements: make([]StatementResult, 0, len(statements))}
		return WithTx(ctx, e.pool, readonly, func(tx pgx.Tx) error {
			for _, stmt := range statements {
				rows, err := tx.Query(ctx, stmt)
				if err != nil {
					return err
				}
				collected, err := pgx.CollectRows(rows, pgx.RowToMap)
				if err != nil {
					return err
				}
				result.Statements = append(result.Statements, StatementResult{Rows: collected})
			}
			return nil
		})
	})
	if err != nil {
		return BatchResult{}, ClassifyError(err)
	}
	return result, nil
}

func (e *Executor) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < e.retries; attempt++ {
		if err := fn(); err != nil {
			lastErr = err
			if !IsRetryable(err) {
				return err
			}
			e.logger.WarnContext(ctx, "retrying query after transient failure",
				slog.Int("attempt", attempt+1),
				slog.Any("error", err),
			)
			if waitErr := wait(ctx, backoff(attempt, e.delay)); waitErr != nil {
				return lastErr
			}
			continue
		}
		return nil
	}
	return lastErr
}
