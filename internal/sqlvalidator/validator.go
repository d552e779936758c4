// Package sqlvalidator parses a raw SQL batch with pg_query, rejects the
// shapes the kernel never allows through (empty batches, transaction
// control statements), and returns one sqlclassifier.Statement per
// top-level statement plus the batch-wide risk and migration verdicts
// spec.md §4.2 describes.
package sqlvalidator

import (
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/dmitrymomot/pgsentry/internal/kernelerrors"
	"github.com/dmitrymomot/pgsentry/internal/risk"
	"github.com/dmitrymomot/pgsentry/internal/sqlclassifier"
)

// Statement is a single classified statement together with its original
// source text, sliced out of the batch by pg_query's reported location.
type Statement struct {
	sqlclassifier.Statement
	SQL string
}

// Schema returns the statement's schema, defaulting to "public" when the
// parse tree didn't disclose one (e.g. an unqualified CREATE TABLE).
func (s Statement) Schema() string {
	if s.Statement.Schema == "" {
		return "public"
	}
	return s.Statement.Schema
}

// Result is the outcome of validating and classifying a full SQL batch.
type Result struct {
	Statements     []Statement
	Risk           risk.Level
	NeedsMigration bool
}

// Validate parses sql as a batch of one or more statements, rejects empty
// input and any transaction-control statement (BEGIN/COMMIT/ROLLBACK/
// SAVEPOINT/...), and classifies every remaining statement.
func Validate(sql string) (Result, error) {
	trimmed := sql
	for len(trimmed) > 0 && isSQLSpace(trimmed[0]) {
		trimmed = trimmed[1:]
	}
	if trimmed == "" {
		return Result{}, kernelerrors.ErrEmptyBatch
	}

	parsed, err := pg_query.Parse(sql)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s", kernelerrors.ErrInvalidSQL, err)
	}
	if len(parsed.GetStmts()) == 0 {
		return Result{}, kernelerrors.ErrEmptyBatch
	}

	statements := make([]Statement, 0, len(parsed.GetStmts()))
	overall := risk.Low
	needsMigration := false

	for _, raw := range parsed.GetStmts() {
		classified := sqlclassifier.Classify(raw.GetStmt())
		if classified.Category == sqlclassifier.CategoryTCL {
			return Result{}, kernelerrors.ErrTransactionControl
		}

		statements = append(statements, Statement{
			Statement: classified,
			SQL:       sliceStatement(sql, raw),
		})
		overall = risk.Max(overall, classified.Risk)
		needsMigration = needsMigration || classified.NeedsMigration
	}

	return Result{Statements: statements, Risk: overall, NeedsMigration: needsMigration}, nil
}

func sliceStatement(sql string, raw *pg_query.RawStmt) string {
	start := int(raw.GetStmtLocation())
	length := int(raw.GetStmtLen())
	if start < 0 || start > len(sql) {
		return sql
	}
	end := start + length
	if length <= 0 || end > len(sql) {
		end = len(sql)
	}
	text := sql[start:end]
	for len(text) > 0 && isSQLSpace(text[0]) {
		text = text[1:]
	}
	for len(text) > 0 && isSQLSpace(text[len(text)-1]) {
		text = text[:len(text)-1]
	}
	return text
}

func isSQLSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', ';':
		return true
	default:
		return false
	}
}
