// Package container wires the kernel's components together in dependency
// order, the Go rendering of the original's container.py: no reflection-
// based DI, just one ordered constructor returning a *Kernel.
package container

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/pgsentry/internal/apimanager"
	"github.com/dmitrymomot/pgsentry/internal/apirisk"
	"github.com/dmitrymomot/pgsentry/internal/authadmin"
	"github.com/dmitrymomot/pgsentry/internal/config"
	"github.com/dmitrymomot/pgsentry/internal/featureaccess"
	"github.com/dmitrymomot/pgsentry/internal/migration"
	"github.com/dmitrymomot/pgsentry/internal/postgres"
	"github.com/dmitrymomot/pgsentry/internal/querymanager"
	"github.com/dmitrymomot/pgsentry/internal/safety"
	"github.com/dmitrymomot/pgsentry/pkg/cache"
	"github.com/dmitrymomot/pgsentry/pkg/logger"
)

// Kernel bundles every top-level component cmd/pgsentryd's entrypoint and
// the (external) RPC front end consume.
type Kernel struct {
	Config       config.Config
	Logger       *slog.Logger
	Pool         postgres.Pool
	Safety       *safety.Manager
	Query        *querymanager.Manager
	API          *apimanager.Manager
	AuthAdmin    *authadmin.Client
	APIRisk      *apirisk.Config
	Features     featureaccess.Checker
	Close        func()
}

// New builds a Kernel from cfg: logger, pool, classifier/validator (both
// stateless, used directly by querymanager), safety manager, migration
// recorder, and finally the query/API managers and their thin wrappers.
func New(ctx context.Context, cfg config.Config) (*Kernel, error) {
	log := logger.NewWithSentry(logger.SentryConfig{DSN: cfg.SentryDSN})

	pgCfg := postgres.DefaultConfig()
	pgCfg.ConnectionString = cfg.DatabaseURL()
	pgCfg.MaxConns = cfg.MaxConns
	pgCfg.MinConns = cfg.MinConns

	pool, err := postgres.Open(ctx, pgCfg)
	if err != nil {
		return nil, err
	}

	confirmStore, closeStore := confirmationStore(cfg)
	safetyMgr := safety.New(confirmStore, safety.WithConfirmationTTL(cfg.ConfirmationTTL), safety.WithLogger(log))

	executor := postgres.NewExecutor(pool, log)
	recorder := migration.NewRecorder(pool, log)

	var features featureaccess.Checker = featureaccess.AllowAll{}

	query := querymanager.New(executor, safetyMgr, recorder, features, log)

	riskCfg := apirisk.New(apirisk.DefaultRules)
	apiMgr := apimanager.New(cfg.ManagementAPIBaseURL, cfg.ManagementAPIToken, cfg.ProjectRef, riskCfg, safetyMgr,
		apimanager.WithFeatureChecker(features),
		apimanager.WithLogger(log),
	)
	authAdminClient := authadmin.New(apiMgr)

	closeFn := func() {
		closeStore()
		pool.Close()
	}

	return &Kernel{
		Config:    cfg,
		Logger:    log,
		Pool:      pool,
		Safety:    safetyMgr,
		Query:     query,
		API:       apiMgr,
		AuthAdmin: authAdminClient,
		APIRisk:   riskCfg,
		Features:  features,
		Close:     closeFn,
	}, nil
}

// confirmationStore picks the Redis-backed cache when cfg.RedisURL is set
// and parses, falling back to the in-process Memory cache otherwise (an
// unparseable RedisURL also gets the Memory cache; spec.md §9's open
// question on confirmation-store durability: single-process by default,
// opt into Redis for a horizontally-scaled deployment).
func confirmationStore(cfg config.Config) (cache.Cache[safety.PendingConfirmation], func()) {
	if cfg.RedisURL == "" {
		mem := cache.NewMemory[safety.PendingConfirmation]()
		return mem, func() { _ = mem.Close() }
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		mem := cache.NewMemory[safety.PendingConfirmation]()
		return mem, func() { _ = mem.Close() }
	}
	client := redis.NewClient(opts)
	rc := cache.NewRedis[safety.PendingConfirmation](client, nil)
	return rc, func() { _ = client.Close() }
}
