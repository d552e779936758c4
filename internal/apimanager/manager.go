// Package apimanager is the Management API front door (spec.md §4.9):
// classify the call by apirisk, run it through the safety gate, substitute
// path placeholders, issue the HTTP request with retry on transient
// failure, and map non-2xx responses into the kernel's error taxonomy.
package apimanager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrymomot/pgsentry/internal/apirisk"
	"github.com/dmitrymomot/pgsentry/internal/kernelerrors"
	"github.com/dmitrymomot/pgsentry/internal/logs"
	"github.com/dmitrymomot/pgsentry/internal/risk"
	"github.com/dmitrymomot/pgsentry/internal/safety"
	"github.com/dmitrymomot/pgsentry/pkg/id"
	"github.com/dmitrymomot/pgsentry/pkg/sanitizer"
)

// FeatureChecker gates a call on an optional external access-control
// oracle, mirroring querymanager.FeatureChecker.
type FeatureChecker interface {
	Check(ctx context.Context, feature string) error
}

// allowedPathPlaceholders is the closed set of names a path template may
// use (spec.md §4.9 step 2), besides the always-injected "ref".
var allowedPathPlaceholders = map[string]bool{
	"function_slug": true,
	"id":            true,
	"slug":          true,
	"branch_id":     true,
	"provider_id":   true,
	"tpa_id":        true,
}

var pathPlaceholderRe = regexp.MustCompile(`\{([^{}/]+)\}`)

// Manager issues calls against the hosted platform's Management API.
type Manager struct {
	client     *http.Client
	baseURL    string
	authToken  string
	projectRef string
	riskCfg    *apirisk.Config
	safety     *safety.Manager
	features   FeatureChecker
	logger     *slog.Logger
	retries    int
	delay      time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

func WithHTTPClient(c *http.Client) Option { return func(m *Manager) { m.client = c } }
func WithFeatureChecker(f FeatureChecker) Option {
	return func(m *Manager) { m.features = f }
}
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }
func WithRetry(attempts int, delay time.Duration) Option {
	return func(m *Manager) { m.retries, m.delay = attempts, delay }
}

// New builds a Manager. baseURL is the Management API root (e.g.
// "https://api.supabase.com"); authToken is sent as a Bearer token;
// projectRef is injected as the "ref" path placeholder on every call.
func New(baseURL, authToken, projectRef string, riskCfg *apirisk.Config, safetyMgr *safety.Manager, opts ...Option) *Manager {
	m := &Manager{
		client:     &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		authToken:  authToken,
		projectRef: projectRef,
		riskCfg:    riskCfg,
		safety:     safetyMgr,
		logger:     slog.Default(),
		retries:    3,
		delay:      2 * time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Response is a decoded Management API response.
type Response struct {
	Status int
	Body   []byte
}

// JSON unmarshals the response body into v.
func (r Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return kernelerrors.ErrAPIResponse
	}
	return nil
}

// Execute classifies method+path (a template, e.g.
// "/v1/projects/{ref}/functions/{function_slug}") by apirisk, runs it
// through the safety gate, substitutes path placeholders (injecting
// "ref" from the configured project and rejecting anything outside the
// closed placeholder set), and issues the request. token is a resubmitted
// confirmation token, or "" on first submission.
func (m *Manager) Execute(ctx context.Context, mode risk.Mode, method, path string, pathParams, queryParams map[string]string, body any, token string) (Response, error) {
	if m.features != nil {
		if err := m.features.Check(ctx, "management_api"); err != nil {
			return Response{}, err
		}
	}

	level := m.riskCfg.Classify(method, path)
	operation := method + " " + path
	if err := m.safety.Evaluate(ctx, risk.API, mode, level, operation, token); err != nil {
		return Response{}, err
	}

	concretePath, err := m.substitutePath(path, pathParams)
	if err != nil {
		return Response{}, err
	}

	return m.do(ctx, method, concretePath, queryParams, body)
}

// substitutePath resolves every "{name}" segment in path: "ref" is always
// injected from m.projectRef and may never be supplied by the caller;
// every other name must be in allowedPathPlaceholders; any "{name}" left
// unresolved after substitution is a failure (spec.md §4.9 step 2).
func (m *Manager) substitutePath(path string, pathParams map[string]string) (string, error) {
	if _, ok := pathParams["ref"]; ok {
		return "", fmt.Errorf("%w: \"ref\"", kernelerrors.ErrPathParamRefReserved)
	}

	values := make(map[string]string, len(pathParams)+1)
	for name, v := range pathParams {
		if !allowedPathPlaceholders[name] {
			return "", fmt.Errorf("%w: %q", kernelerrors.ErrUnknownPathPlaceholder, name)
		}
		values[name] = v
	}
	values["ref"] = m.projectRef

	resolved := pathPlaceholderRe.ReplaceAllStringFunc(path, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})

	if strings.Contains(resolved, "{") {
		return "", kernelerrors.ErrMissingPathPlaceholder
	}
	return resolved, nil
}

// RetrieveLogs runs a named log-collection query against the Management
// API's log endpoint (spec.md §4.9); it is always LOW risk (read-only) and
// so bypasses the safety gate entirely.
func (m *Manager) RetrieveLogs(ctx context.Context, projectRef string, collection logs.Collection, since, until time.Time, extra string) (Response, error) {
	query, ok := logs.Query(collection, since, until, extra)
	if !ok {
		return Response{}, kernelerrors.ErrInvalidSQL
	}
	path := "/v1/projects/" + projectRef + "/analytics/endpoints/logs.all"
	return m.do(ctx, http.MethodPost, path, nil, map[string]string{"sql": query})
}

func (m *Manager) do(ctx context.Context, method, path string, queryParams map[string]string, body any) (Response, error) {
	if m.authToken == "" {
		return Response{}, errors.Join(kernelerrors.ErrAPIClient, kernelerrors.ErrAccessTokenNotConfigured)
	}

	var encoded []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Response{}, err
		}
		encoded = data
	}

	requestURL := m.baseURL + path
	if len(queryParams) > 0 {
		q := url.Values{}
		for k, v := range queryParams {
			q.Set(k, v)
		}
		requestURL += "?" + q.Encode()
	}

	requestID := id.NewULID()

	var resp Response
	var lastErr error

	for attempt := 0; attempt < m.retries; attempt++ {
		var payload io.Reader
		if encoded != nil {
			payload = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, requestURL, payload)
		if err != nil {
			return Response{}, err
		}
		req.Header.Set("Authorization", "Bearer "+m.authToken)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-Id", requestID)

		httpResp, err := m.client.Do(req)
		if err != nil {
			lastErr = err
			m.logger.WarnContext(ctx, "management API request failed, retrying",
				slog.String("request_id", requestID),
				slog.String("method", method),
				slog.String("path", path),
				slog.Any("error", err),
			)
			if waitErr := sleep(ctx, backoff(attempt, m.delay)); waitErr != nil {
				return Response{}, kernelerrors.ErrAPIConnection
			}
			continue
		}

		data, readErr := io.ReadAll(httpResp.Body)
		_ = httpResp.Body.Close()
		if readErr != nil {
			return Response{}, readErr
		}

		resp = Response{Status: httpResp.StatusCode, Body: data}
		m.logger.InfoContext(ctx, "management API request completed",
			slog.String("request_id", requestID),
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", httpResp.StatusCode),
		)

		return resp, classifyStatus(httpResp.StatusCode, data)
	}

	m.logger.ErrorContext(ctx, "management API request exhausted retries",
		slog.String("request_id", requestID),
		slog.String("sanitized_error", sanitizer.SanitizeHTML(errString(lastErr))),
	)
	return Response{}, kernelerrors.ErrAPIConnection
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// classifyStatus maps a Management API response status to the kernel's
// error taxonomy. 4xx responses surface the server's "message" field per
// §4.9; 2xx is success.
func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 400 && status < 500:
		var decoded struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &decoded)
		return kernelerrors.NewAPIClientError(status, string(body), decoded.Message)
	case status >= 500:
		return kernelerrors.NewAPIServerError(status, string(body))
	default:
		return kernelerrors.NewAPIUnexpectedError(status, string(body))
	}
}

// backoff applies the same retry policy as the database path (postgres.
// backoff): exponential growth from the configured delay, floored at 2s,
// doubled on each attempt and capped at 10s.
func backoff(attempt int, configured time.Duration) time.Duration {
	const (
		floor   = 2 * time.Second
		ceiling = 10 * time.Second
	)
	d := configured
	if d < floor {
		d = floor
	}
	for i := 0; i < attempt && d < ceiling; i++ {
		d *= 2
	}
	if d > ceiling {
		d = ceiling
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
