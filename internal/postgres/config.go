// Package postgres owns the pooled connection to the target database: pool
// construction with retry (spec.md §4.7), transaction wrapping, and
// classification of Postgres errors into the kernel's error taxonomy.
package postgres

import "time"

// Config holds the pool's connection parameters. ConnectionString is built
// by the caller (internal/config) from either a local Postgres URL or the
// hosted platform's project-ref/password/region triple — this package only
// ever deals with the resulting DSN.
type Config struct {
	ConnectionString string

	// HealthCheckPeriod controls how often pgxpool probes idle connections.
	HealthCheckPeriod time.Duration

	// MaxConnIdleTime forces connection refresh to avoid stale connections
	// behind poolers such as Supavisor/PgBouncer.
	MaxConnIdleTime time.Duration

	// MaxConnLifetime bounds total connection lifetime, so failovers and
	// DNS changes eventually propagate even to long-lived connections.
	MaxConnLifetime time.Duration

	// RetryAttempts/RetryInterval bound how long pool construction retries
	// a transient connection failure at startup.
	RetryAttempts int
	RetryInterval time.Duration

	MaxConns int32
	MinConns int32
}

// DefaultConfig mirrors the teacher's pkg/db defaults, tuned for a gateway
// process rather than a web app: fewer open connections since every
// request already goes through the safety gate before it reaches the pool.
func DefaultConfig() Config {
	return Config{
		HealthCheckPeriod: 1 * time.Minute,
		MaxConnIdleTime:   10 * time.Minute,
		MaxConnLifetime:   30 * time.Minute,
		RetryAttempts:     3,
		RetryInterval:     2 * time.Second,
		MaxConns:          10,
		MinConns:          2,
	}
}
