// Package safety implements the mode-gated safety decision table and the
// two-phase confirmation flow (spec.md §4.3): given a client's mode and an
// operation's risk level, decide whether the operation proceeds, is denied
// outright, or requires the caller to redeem a confirmation token first.
package safety

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/pgsentry/internal/kernelerrors"
	"github.com/dmitrymomot/pgsentry/internal/risk"
	"github.com/dmitrymomot/pgsentry/pkg/cache"
)

// DefaultConfirmationTTL is T_conf from spec.md §4.3: how long a
// confirmation token stays redeemable after issuance.
const DefaultConfirmationTTL = 300 * time.Second

// Manager evaluates the risk/mode decision table and brokers confirmation
// tokens. It is safe for concurrent use; all state lives in the cache.
type Manager struct {
	store          cache.Cache[PendingConfirmation]
	confirmationTTL time.Duration
	logger         *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithConfirmationTTL overrides DefaultConfirmationTTL.
func WithConfirmationTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.confirmationTTL = ttl }
}

// WithLogger overrides the manager's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// New builds a Manager over the given confirmation store. Pass
// cache.NewMemory[PendingConfirmation](...) for a single-process deployment
// or cache.NewRedis[PendingConfirmation](...) to share confirmations across
// replicas.
func New(store cache.Cache[PendingConfirmation], opts ...Option) *Manager {
	m := &Manager{
		store:          store,
		confirmationTTL: DefaultConfirmationTTL,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Evaluate applies the risk/mode decision table from spec.md §4.3 to a
// single operation. token is the confirmation token the caller resubmitted,
// if any; pass "" when none was supplied.
//
//   - LOW: always allowed.
//   - MEDIUM: allowed in UNSAFE mode, denied in SAFE mode.
//   - HIGH: denied in SAFE mode; in UNSAFE mode requires a valid, matching
//     confirmation token, otherwise a fresh one is issued.
//   - EXTREME: never allowed, regardless of mode or confirmation.
func (m *Manager) Evaluate(ctx context.Context, client risk.ClientKind, mode risk.Mode, level risk.Level, operation, token string) error {
	switch level {
	case risk.Low:
		return nil
	case risk.Extreme:
		return kernelerrors.NewNotAllowed(level, mode)
	case risk.Medium:
		if mode == risk.Unsafe {
			return nil
		}
		return kernelerrors.NewNotAllowed(level, mode)
	case risk.High:
		if mode != risk.Unsafe {
			return kernelerrors.NewNotAllowed(level, mode)
		}
		if token != "" {
			return m.redeem(ctx, token, client, operation)
		}
		return m.issue(ctx, client, level, operation)
	default:
		return kernelerrors.NewNotAllowed(level, mode)
	}
}

func (m *Manager) issue(ctx context.Context, client risk.ClientKind, level risk.Level, operation string) error {
	token, err := newToken()
	if err != nil {
		return err
	}

	pending := PendingConfirmation{
		Risk:      level,
		Client:    client,
		Operation: operation,
		CreatedAt: time.Now(),
	}
	if err := m.store.Set(ctx, token, pending, m.confirmationTTL); err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "confirmation issued",
		slog.String("token", token),
		slog.String("risk", level.String()),
		slog.String("client", client.String()),
	)

	return kernelerrors.NewConfirmationRequired(token, level)
}

// Lookup retrieves a pending confirmation by token alone, without matching
// it against a resubmitted operation. It backs handle_confirmation(token)
// (spec.md §4.8): the caller only has the token, not the original
// statement text, so the manager must hand back the operation it
// originally gated before the caller can re-run it with confirmed=true.
func (m *Manager) Lookup(ctx context.Context, client risk.ClientKind, token string) (PendingConfirmation, error) {
	pending, err := m.store.Get(ctx, token)
	if err != nil {
		return PendingConfirmation{}, kernelerrors.ErrUnknownConfirmation
	}
	if time.Now().After(pending.ExpiresAt(m.confirmationTTL)) {
		return PendingConfirmation{}, kernelerrors.ErrConfirmationExpired
	}
	if pending.Client != client {
		return PendingConfirmation{}, kernelerrors.ErrUnknownConfirmation
	}
	return pending, nil
}

// redeem validates a resubmitted token without consuming it: spec.md §4.3
// allows the same token to cover multiple resubmissions within its window,
// since the caller may legitimately retry after a transient failure.
func (m *Manager) redeem(ctx context.Context, token string, client risk.ClientKind, operation string) error {
	pending, err := m.store.Get(ctx, token)
	if err != nil {
		return kernelerrors.ErrUnknownConfirmation
	}

	if time.Now().After(pending.ExpiresAt(m.confirmationTTL)) {
		return kernelerrors.ErrConfirmationExpired
	}
	if pending.Client != client || pending.Operation != operation {
		return kernelerrors.ErrUnknownConfirmation
	}

	m.logger.InfoContext(ctx, "confirmation redeemed",
		slog.String("token", token),
		slog.String("risk", pending.Risk.String()),
	)

	return nil
}
