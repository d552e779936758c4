// Package kernelerrors collects the error taxonomy the safety-and-execution
// kernel raises to its callers, grouped by origin the way the teacher groups
// sentinel errors per package (see pkg/health/errors.go, pkg/cache/errors.go).
package kernelerrors

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/pgsentry/internal/risk"
)

// Input / validation sentinels.
var (
	ErrEmptyBatch                = errors.New("kernel: empty SQL batch")
	ErrInvalidSQL                = errors.New("kernel: invalid SQL")
	ErrTransactionControl        = errors.New("kernel: transaction control statements are rejected")
	ErrInvalidSchemaName         = errors.New("kernel: invalid schema name")
	ErrInvalidTableName          = errors.New("kernel: invalid table name")
	ErrUnknownPathPlaceholder    = errors.New("kernel: unknown path placeholder")
	ErrMissingPathPlaceholder    = errors.New("kernel: missing path placeholder value")
	ErrPathParamRefReserved      = errors.New("kernel: path parameter \"ref\" is injected and may not be supplied")
	ErrAccessTokenNotConfigured  = errors.New("kernel: access token not configured")
)

// Safety sentinels.
var (
	ErrNotAllowed           = errors.New("kernel: operation not allowed")
	ErrConfirmationRequired = errors.New("kernel: confirmation required")
	ErrConfirmationExpired  = errors.New("kernel: confirmation expired")
	ErrUnknownConfirmation  = errors.New("kernel: unknown confirmation token")
)

// DB transport sentinels.
var (
	ErrConnectionFailed = errors.New("kernel: database connection failed")
	ErrPermissionDenied = errors.New("kernel: permission denied")
	ErrQueryFailed      = errors.New("kernel: query failed")
)

// HTTP transport sentinels.
var (
	ErrAPIConnection = errors.New("kernel: API connection failed after retries")
	ErrAPIClient     = errors.New("kernel: API client error")
	ErrAPIServer     = errors.New("kernel: API server error")
	ErrAPIUnexpected = errors.New("kernel: unexpected API error")
	ErrAPIResponse   = errors.New("kernel: API response was not valid JSON")
)

// Feature-access sentinels (optional access-control oracle, §7).
var (
	ErrFeatureAccessDenied  = errors.New("kernel: feature access denied")
	ErrFeatureCheckTemporary = errors.New("kernel: feature access check temporarily unavailable")
)

// NotAllowedError reports a safety-gate denial together with the risk and
// mode that produced it, so callers can branch on risk/mode without
// inspecting message text.
type NotAllowedError struct {
	Risk risk.Level
	Mode risk.Mode
}

func (e *NotAllowedError) Error() string {
	return fmt.Sprintf("%s: risk=%s mode=%s", ErrNotAllowed, e.Risk, e.Mode)
}

func (e *NotAllowedError) Unwrap() error { return ErrNotAllowed }

// NewNotAllowed builds the standard denial error for a given risk/mode pair.
func NewNotAllowed(r risk.Level, m risk.Mode) error {
	return &NotAllowedError{Risk: r, Mode: m}
}

// ConfirmationRequiredError carries the redemption token and the risk that
// triggered confirmation, along with the exact redemption recipe (§7).
type ConfirmationRequiredError struct {
	Token string
	Risk  risk.Level
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("%s: resubmit with confirmation token %q to proceed (risk=%s)", ErrConfirmationRequired, e.Token, e.Risk)
}

func (e *ConfirmationRequiredError) Unwrap() error { return ErrConfirmationRequired }

// NewConfirmationRequired builds the confirmation-pending response.
func NewConfirmationRequired(token string, r risk.Level) error {
	return &ConfirmationRequiredError{Token: token, Risk: r}
}

// QueryErrorKind distinguishes schema errors (undefined table/column) from
// other Postgres errors, per §4.7/§7.
type QueryErrorKind int

const (
	QueryErrorOther QueryErrorKind = iota
	QueryErrorSchema
)

// QueryError wraps a classified Postgres execution failure.
type QueryError struct {
	Kind   QueryErrorKind
	Detail string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s", ErrQueryFailed, e.Detail)
}

func (e *QueryError) Unwrap() error { return ErrQueryFailed }

// NewQueryError builds a QueryError of the given kind.
func NewQueryError(kind QueryErrorKind, detail string) error {
	return &QueryError{Kind: kind, Detail: detail}
}

// PermissionDeniedError maps Postgres insufficient-privilege failures; the
// message must steer the caller toward enabling UNSAFE mode (§4.7).
type PermissionDeniedError struct {
	Detail string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("%s: %s (enable UNSAFE mode to allow this operation)", ErrPermissionDenied, e.Detail)
}

func (e *PermissionDeniedError) Unwrap() error { return ErrPermissionDenied }

// NewPermissionDenied builds a PermissionDeniedError.
func NewPermissionDenied(detail string) error {
	return &PermissionDeniedError{Detail: detail}
}

// APIStatusError wraps a non-2xx HTTP response from the management API.
type APIStatusError struct {
	sentinel error
	Status   int
	Body     string
	Message  string // server-reported "message" field, surfaced for 4xx per §4.9
}

func (e *APIStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d): %s", e.sentinel, e.Status, e.Message)
	}
	return fmt.Sprintf("%s (status %d)", e.sentinel, e.Status)
}

func (e *APIStatusError) Unwrap() error { return e.sentinel }

// NewAPIClientError builds a 4xx APIStatusError, surfacing the server's
// "message" field when present.
func NewAPIClientError(status int, body, message string) error {
	return &APIStatusError{sentinel: ErrAPIClient, Status: status, Body: body, Message: message}
}

// NewAPIServerError builds a 5xx APIStatusError.
func NewAPIServerError(status int, body string) error {
	return &APIStatusError{sentinel: ErrAPIServer, Status: status, Body: body}
}

// NewAPIUnexpectedError builds an APIStatusError for a status outside 2xx/4xx/5xx.
func NewAPIUnexpectedError(status int, body string) error {
	return &APIStatusError{sentinel: ErrAPIUnexpected, Status: status, Body: body}
}
