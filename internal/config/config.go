// Package config loads the kernel's environment-supplied settings with
// github.com/caarlos0/env/v11, matching the env-tag style the teacher uses
// for every config struct it ships.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Region is a closed enum of AWS regions the hosted platform deploys to.
// An invalid region fails Validate rather than silently defaulting.
type Region string

const DefaultRegion Region = "us-east-1"

var validRegions = map[Region]bool{
	"us-east-1": true, "us-east-2": true, "us-west-1": true, "us-west-2": true,
	"eu-west-1": true, "eu-west-2": true, "eu-central-1": true,
	"ap-southeast-1": true, "ap-southeast-2": true, "ap-northeast-1": true,
	"sa-east-1": true,
}

var (
	ErrInvalidRegion    = errors.New("config: unknown region")
	ErrInvalidProjectRef = errors.New("config: project ref must be exactly 20 characters")
)

// Config is the kernel's full set of environment-supplied settings
// (spec.md §6): which project to connect to, how to reach it (direct
// Postgres URL, or project-ref/password/region for the hosted path), the
// Management API credentials and base URL, and the tunables every other
// package's functional options otherwise default.
type Config struct {
	// ProjectRef is the 20-character hosted project reference. Required
	// when ConnectionString is empty; used to build both the database DSN
	// and the Management API's path prefix.
	ProjectRef string `env:"PGSENTRY_PROJECT_REF"`

	// DatabasePassword is the hosted project's database password, used
	// together with ProjectRef and Region to build the pooled DSN.
	DatabasePassword string `env:"PGSENTRY_DB_PASSWORD"`

	// Region is only consulted when connecting via ProjectRef; ignored for
	// a direct ConnectionString.
	Region Region `env:"PGSENTRY_REGION" envDefault:"us-east-1"`

	// ConnectionString, when set, bypasses the hosted project-ref/password
	// path entirely and connects directly (e.g. local development).
	ConnectionString string `env:"PGSENTRY_DATABASE_URL"`

	// ManagementAPIBaseURL is the Management API root.
	ManagementAPIBaseURL string `env:"PGSENTRY_API_BASE_URL" envDefault:"https://api.supabase.com"`

	// ManagementAPIToken authenticates Management API calls.
	ManagementAPIToken string `env:"PGSENTRY_API_TOKEN"`

	// ServiceRoleKey is loaded from the environment, but no package reads
	// it: auth-admin operations go through the Management API and
	// authenticate with ManagementAPIToken.
	ServiceRoleKey string `env:"PGSENTRY_SERVICE_ROLE_KEY"`

	// ConfirmationTTL overrides safety.DefaultConfirmationTTL.
	ConfirmationTTL time.Duration `env:"PGSENTRY_CONFIRMATION_TTL" envDefault:"5m"`

	// RedisURL, if set, backs the confirmation store with Redis instead of
	// the in-process default (see SPEC_FULL.md's DOMAIN STACK).
	RedisURL string `env:"PGSENTRY_REDIS_URL"`

	MaxConns int32 `env:"PGSENTRY_DB_MAX_CONNS" envDefault:"10"`
	MinConns int32 `env:"PGSENTRY_DB_MIN_CONNS" envDefault:"2"`

	SentryDSN string `env:"PGSENTRY_SENTRY_DSN"`

	HTTPAddr string `env:"PGSENTRY_HTTP_ADDR" envDefault:":8080"`
}

// Load reads Config from the process environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces spec.md §6's invariants: a remote project ref must be
// exactly 20 characters, and a remote project left on DefaultRegion logs a
// warning through slog's default logger. A non-default region is only meaningful
// alongside a project ref (connecting directly via ConnectionString makes
// Region a no-op, which Validate does not treat as an error — just dead
// configuration the caller chose to supply).
func (c Config) Validate() error {
	if !validRegions[c.Region] {
		return fmt.Errorf("%w: %q", ErrInvalidRegion, c.Region)
	}
	if c.ConnectionString == "" {
		if len(c.ProjectRef) != 20 {
			return fmt.Errorf("%w: got %d characters", ErrInvalidProjectRef, len(c.ProjectRef))
		}
		if c.Region == DefaultRegion {
			slog.Warn("config: remote project uses the default region; set PGSENTRY_REGION if it is hosted elsewhere",
				slog.String("region", string(c.Region)))
		}
	}
	return nil
}

// DatabaseURL returns the DSN to connect with: ConnectionString verbatim
// when set, otherwise one built from ProjectRef/DatabasePassword/Region
// against the hosted pooler endpoint.
func (c Config) DatabaseURL() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"postgres://postgres.%s:%s@aws-0-%s.pooler.supabase.com:5432/postgres",
		c.ProjectRef, c.DatabasePassword, c.Region,
	)
}
