package postgres

import "errors"

var (
	ErrFailedToParseConfig    = errors.New("postgres: failed to parse connection configuration")
	ErrFailedToOpenConnection = errors.New("postgres: failed to open connection pool")
)

// The sqlstate* constants are the subset of Postgres SQLSTATE codes the
// executor inspects to classify a query failure (spec.md §4.7/§7).
const (
	sqlstateInsufficientPrivilege = "42501"
	sqlstateUndefinedTable        = "42P01"
	sqlstateUndefinedColumn       = "42703"
	sqlstateUndefinedSchema       = "3F000"
	sqlstateUndefinedFunction     = "42883"
)

// networkErrorClasses are SQLSTATE classes the executor's retry policy
// treats as transient: connection-level
// failures, not statement-level ones. A permission or syntax error must
// never be retried since retrying it cannot change the outcome.
var networkErrorClasses = map[string]bool{
	"08": true, // connection exception
	"57": true, // operator intervention (admin shutdown, crash shutdown)
	"53": true, // insufficient resources
}
