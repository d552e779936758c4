package safety

import (
	"crypto/rand"
	"encoding/base32"
	"time"

	"github.com/dmitrymomot/pgsentry/internal/risk"
)

// tokenEncoding mirrors the teacher's id package: Crockford base32, no
// padding, read straight off crypto/rand bytes.
var tokenEncoding = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// PendingConfirmation is what the cache stores per outstanding confirmation
// token: enough to re-evaluate the original operation once the caller
// resubmits the token, and to enforce the TTL window independent of the
// cache backend's own expiry (so Redis clock skew can't extend a window).
type PendingConfirmation struct {
	Risk      risk.Level
	Client    risk.ClientKind
	Operation string // the SQL text or API method+path the confirmation covers
	CreatedAt time.Time
}

// ExpiresAt reports when a confirmation, created at CreatedAt, stops being
// redeemable. The cache entry is also given this TTL, but callers compare
// against ExpiresAt directly so a cache backend that rounds TTLs up can
// never honor an expired confirmation.
func (p PendingConfirmation) ExpiresAt(ttl time.Duration) time.Time {
	return p.CreatedAt.Add(ttl)
}

func newToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "conf_" + tokenEncoding.EncodeToString(buf), nil
}
