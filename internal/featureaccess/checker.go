// Package featureaccess is the optional access-control oracle spec.md §7
// names ("Feature access (optional, when an access-control oracle is
// configured)"), grounded on the original's feature_manager.py. The query
// and API managers consult a Checker before running the safety gate, when
// one is configured; the zero value is a permissive no-op.
package featureaccess

import (
	"context"

	"github.com/dmitrymomot/pgsentry/internal/kernelerrors"
)

// Checker decides whether a named feature is available to the current
// caller. Implementations might call out to a billing/entitlements
// service; a timeout or transport failure should map to
// kernelerrors.ErrFeatureCheckTemporary, never to a hard deny.
type Checker interface {
	Check(ctx context.Context, feature string) error
}

// AllowAll is the default Checker: every feature is permitted. Used when
// no access-control oracle is configured.
type AllowAll struct{}

func (AllowAll) Check(context.Context, string) error { return nil }

// DenySet is a Checker backed by a static set of denied feature names,
// useful for tests and for simple deployments that hard-disable specific
// capabilities without standing up a real entitlements service.
type DenySet struct {
	Denied map[string]bool
}

func (d DenySet) Check(_ context.Context, feature string) error {
	if d.Denied[feature] {
		return kernelerrors.ErrFeatureAccessDenied
	}
	return nil
}
