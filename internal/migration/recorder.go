package migration

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
)

// bookkeepingTable is the schema-qualified table every recorded migration
// is appended to, matching the hosted platform's own migration tracker so
// externally-applied migrations and kernel-applied ones share one ledger.
const bookkeepingTable = "supabase_migrations.schema_migrations"

// initStatements are spec.md §4.6's two idempotent "init" templates. They
// run before every insert since the bookkeeping schema/table may not exist
// yet on a fresh database and init is always safe to repeat.
var initStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS supabase_migrations`,
	`CREATE TABLE IF NOT EXISTS supabase_migrations.schema_migrations (version text primary key, statements text[] not null, name text not null)`,
}

// Execer is the minimal pgxpool.Pool surface the recorder needs. Kept as
// an interface (rather than importing internal/postgres directly) so the
// migration package has no dependency on the executor's retry/pooling
// concerns — it only ever runs the two init statements and one INSERT.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Recorder appends applied migrations to the bookkeeping table. Failures
// to record are logged as warnings and swallowed (spec.md §4.6): a missed
// bookkeeping row must never roll back or fail an otherwise-successful
// schema change.
type Recorder struct {
	db     Execer
	logger *slog.Logger
}

// NewRecorder builds a Recorder over db, an already-open connection or pool.
func NewRecorder(db Execer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{db: db, logger: logger}
}

// Record runs the init templates, then appends one row to the bookkeeping
// table for a derived migration name and the SQL statements it covers. It
// never returns an error to the caller: a bookkeeping failure (init or
// insert) is logged and otherwise ignored, so a logging table write never
// blocks or fails the schema change the caller runs after it.
func (r *Recorder) Record(ctx context.Context, name Name, statements []string) {
	r.init(ctx)

	insert := fmt.Sprintf(
		`INSERT INTO %s (version, name, statements) VALUES ($1, $2, $3) ON CONFLICT (version) DO NOTHING`,
		bookkeepingTable,
	)

	if _, err := r.db.Exec(ctx, insert, name.Version, name.Name, statements); err != nil {
		r.logger.WarnContext(ctx, "failed to record migration",
			slog.String("version", name.Version),
			slog.String("name", name.Name),
			slog.Any("error", err),
		)
	}
}

// init runs the idempotent schema/table creation templates. Safe to call
// on every Record: CREATE SCHEMA/TABLE IF NOT EXISTS never fails on a
// database that already has them.
func (r *Recorder) init(ctx context.Context) {
	for _, stmt := range initStatements {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			r.logger.WarnContext(ctx, "failed to initialize migration bookkeeping table",
				slog.String("statement", stmt),
				slog.Any("error", err),
			)
		}
	}
}
