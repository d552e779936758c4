// Package querymanager is the SQL front door spec.md §4.7/§4.8 describes:
// validate, classify, run the safety gate, record a migration when the
// batch needs one, and finally execute.
package querymanager

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/pgsentry/internal/migration"
	"github.com/dmitrymomot/pgsentry/internal/postgres"
	"github.com/dmitrymomot/pgsentry/internal/risk"
	"github.com/dmitrymomot/pgsentry/internal/safety"
	"github.com/dmitrymomot/pgsentry/internal/sqlvalidator"
)

// FeatureChecker gates an operation on an optional external access-control
// oracle (spec.md §7's "feature access, optional"). nil disables the check.
type FeatureChecker interface {
	Check(ctx context.Context, feature string) error
}

// Manager executes validated, safety-gated SQL batches against the pool
// and records any schema-changing statement in the migration ledger.
type Manager struct {
	executor *postgres.Executor
	safety   *safety.Manager
	recorder *migration.Recorder
	features FeatureChecker
	logger   *slog.Logger
}

// New builds a Manager. features may be nil, in which case every operation
// is allowed through the feature-access check.
func New(executor *postgres.Executor, safetyMgr *safety.Manager, recorder *migration.Recorder, features FeatureChecker, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{executor: executor, safety: safetyMgr, recorder: recorder, features: features, logger: logger}
}

// Execute validates sql as a batch, checks feature access, runs the safety
// gate once on the batch's highest statement risk, records a migration
// when the batch needs one,
// and only then executes every statement in declaration order inside a
// single transaction (spec.md §4.8: validate → gate → record-migration →
// execute). migrationName is the caller-supplied name (spec.md §4.5); pass
// "" to have one derived from the statement. token is a resubmitted
// confirmation token, or "" on first submission. The transaction opens
// read-only in SAFE mode and read-write in UNSAFE mode.
func (m *Manager) Execute(ctx context.Context, mode risk.Mode, sql, token, migrationName string) (postgres.BatchResult, error) {
	result, err := sqlvalidator.Validate(sql)
	if err != nil {
		return postgres.BatchResult{}, err
	}

	if m.features != nil {
		if err := m.features.Check(ctx, "database_query"); err != nil {
			return postgres.BatchResult{}, err
		}
	}

	if err := m.safety.Evaluate(ctx, risk.Database, mode, result.Risk, normalizedBatch(result), token); err != nil {
		return postgres.BatchResult{}, err
	}

	if result.NeedsMigration {
		m.recordMigration(ctx, result, migrationName)
	}

	statements := make([]string, 0, len(result.Statements))
	for _, stmt := range result.Statements {
		statements = append(statements, stmt.SQL)
	}

	return m.executor.ExecuteBatch(ctx, statements, mode == risk.Safe)
}

// ExecuteConfirmation redeems a confirmation token by itself (spec.md §4.8
// handle_confirmation(token)): the caller only has the token, not the
// original statement text, so the pending operation is retrieved from the
// safety manager and re-run as confirmed.
func (m *Manager) ExecuteConfirmation(ctx context.Context, mode risk.Mode, token string) (postgres.BatchResult, error) {
	pending, err := m.safety.Lookup(ctx, risk.Database, token)
	if err != nil {
		return postgres.BatchResult{}, err
	}
	return m.Execute(ctx, mode, pending.Operation, token, "")
}

func (m *Manager) recordMigration(ctx context.Context, result sqlvalidator.Result, clientName string) {
	statements := make([]string, 0, len(result.Statements))
	var named migration.Name
	now := time.Now()

	for _, stmt := range result.Statements {
		statements = append(statements, stmt.SQL)
		if stmt.NeedsMigration && named.Name == "" {
			named = migration.Derive(now, stmt.Statement, stmt.SQL, clientName)
		}
	}
	if named.Name == "" {
		named = migration.Name{Version: now.UTC().Format("20060102150405"), Name: "unnamed"}
	}

	m.recorder.Record(ctx, named, statements)
}

// normalizedBatch is what the safety manager stores/compares confirmation
// tokens against: the full batch text, not just the highest-risk statement,
// so a resubmission must match the exact batch that triggered confirmation.
func normalizedBatch(result sqlvalidator.Result) string {
	parts := make([]string, 0, len(result.Statements))
	for _, stmt := range result.Statements {
		parts = append(parts, stmt.SQL)
	}
	return strings.Join(parts, "; ")
}
