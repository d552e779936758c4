package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of *pgxpool.Pool the kernel uses. Defining it as an
// interface (rather than depending on the concrete pgxpool.Pool type
// everywhere) gives the retry loop and the executor an injectable seam for
// unit tests that never touch the network.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// poolFactory builds a Pool from a parsed config. Swappable in tests via
// Open's factory parameter so the retry loop can be exercised against a
// fake that never dials a real database.
type poolFactory func(ctx context.Context, cfg *pgxpool.Config) (Pool, error)

func defaultFactory(ctx context.Context, cfg *pgxpool.Config) (Pool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Open parses cfg.ConnectionString, applies the pool-size/idle/lifetime
// knobs, and establishes the pool with retry: cfg.RetryAttempts tries,
// waiting between them as backoff computes (cfg.RetryInterval floored at
// 2s, doubled per attempt, capped at 10s), probing each new pool with Ping
// before accepting it.
func Open(ctx context.Context, cfg Config) (Pool, error) {
	return open(ctx, cfg, defaultFactory)
}

func open(ctx context.Context, cfg Config, factory poolFactory) (Pool, error) {
	connConfig, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseConfig, err)
	}

	connConfig.MaxConns = cfg.MaxConns
	connConfig.MinConns = cfg.MinConns
	connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		pool, err := factory(ctx, connConfig)
		if err != nil {
			lastErr = err
			if waitErr := wait(ctx, backoff(i, cfg.RetryInterval)); waitErr != nil {
				return nil, errors.Join(ErrFailedToOpenConnection, waitErr)
			}
			continue
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			lastErr = err
			if waitErr := wait(ctx, backoff(i, cfg.RetryInterval)); waitErr != nil {
				return nil, errors.Join(ErrFailedToOpenConnection, waitErr)
			}
			continue
		}

		return pool, nil
	}

	if lastErr != nil {
		return nil, errors.Join(ErrFailedToOpenConnection, lastErr)
	}
	return nil, ErrFailedToOpenConnection
}

// backoff applies the retry policy: exponential growth from
// cfg.RetryInterval, floored at 2s, doubled on each attempt and capped at
// 10s regardless of cfg.RetryInterval's own value, so a misconfigured
// interval can never make startup retries pathologically slow or fast.
func backoff(attempt int, configured time.Duration) time.Duration {
	const (
		floor   = 2 * time.Second
		ceiling = 10 * time.Second
	)
	d := configured
	if d < floor {
		d = floor
	}
	for i := 0; i < attempt && d < ceiling; i++ {
		d *= 2
	}
	if d > ceiling {
		d = ceiling
	}
	return d
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
