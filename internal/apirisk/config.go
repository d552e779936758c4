// Package apirisk classifies Management API calls (method + path) by risk,
// the HTTP-side counterpart to sqlclassifier for database statements
// (spec.md §4.4). Rules are matched by method and a path pattern with
// "{placeholder}" segments; when more than one rule matches, the highest
// risk wins; an unmatched call defaults to LOW.
package apirisk

import (
	"regexp"
	"strings"

	"github.com/dmitrymomot/pgsentry/internal/risk"
)

// Rule is one (method, path pattern, risk) row of the lookup table.
type Rule struct {
	Method  string
	Pattern string // e.g. "/v1/projects/{ref}/database/query"
	Risk    risk.Level
}

// compiledRule pairs a Rule with the regexp its pattern compiles to.
type compiledRule struct {
	Rule
	re *regexp.Regexp
}

var placeholderRe = regexp.MustCompile(`\{[^/}]+\}`)

func compile(r Rule) compiledRule {
	escaped := regexp.QuoteMeta(r.Pattern)
	// regexp.QuoteMeta escapes the braces too; undo that around placeholders
	// before substituting the segment wildcard.
	escaped = strings.ReplaceAll(escaped, `\{`, "{")
	escaped = strings.ReplaceAll(escaped, `\}`, "}")
	pattern := "^" + placeholderRe.ReplaceAllString(escaped, `[^/]+`) + "$"
	return compiledRule{Rule: r, re: regexp.MustCompile(pattern)}
}

// DefaultRules is the canonical Management API risk table (spec.md §4.4).
// Read/introspection endpoints are LOW, configuration and user-management
// writes are MEDIUM, destructive or irreversible project operations are
// HIGH/EXTREME.
var DefaultRules = []Rule{
	{"GET", "/v1/projects/{ref}", risk.Low},
	{"GET", "/v1/projects/{ref}/database/{any}", risk.Low},
	{"GET", "/v1/projects/{ref}/config/{any}", risk.Low},
	{"GET", "/v1/projects/{ref}/functions", risk.Low},
	{"GET", "/v1/projects/{ref}/functions/{slug}", risk.Low},
	{"GET", "/v1/projects/{ref}/secrets", risk.Low},
	{"GET", "/v1/projects/{ref}/api-keys", risk.Low},

	{"POST", "/v1/projects/{ref}/database/query", risk.Medium},
	{"PATCH", "/v1/projects/{ref}/config/{any}", risk.Medium},
	{"POST", "/v1/projects/{ref}/functions", risk.Medium},
	{"PATCH", "/v1/projects/{ref}/functions/{slug}", risk.Medium},
	{"POST", "/v1/projects/{ref}/secrets", risk.Medium},
	{"POST", "/v1/projects/{ref}/api-keys", risk.Medium},
	{"POST", "/v1/projects/{ref}/auth/users", risk.Medium},
	{"PUT", "/v1/projects/{ref}/auth/users/{id}", risk.Medium},

	{"DELETE", "/v1/projects/{ref}/functions/{slug}", risk.High},
	{"DELETE", "/v1/projects/{ref}/secrets", risk.High},
	{"DELETE", "/v1/projects/{ref}/api-keys/{id}", risk.High},
	{"DELETE", "/v1/projects/{ref}/auth/users/{id}", risk.High},
	{"POST", "/v1/projects/{ref}/database/webhooks/enable", risk.High},

	{"DELETE", "/v1/projects/{ref}", risk.Extreme},
	{"POST", "/v1/projects/{ref}/pause", risk.Extreme},
	{"POST", "/v1/projects/{ref}/restore", risk.Extreme},
}

// Config is an evaluated set of rules, compiled once at construction.
type Config struct {
	rules []compiledRule
}

// New compiles rules into a Config. Pass apirisk.DefaultRules for the
// canonical table, or a caller-supplied slice to override it entirely.
func New(rules []Rule) *Config {
	c := &Config{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		c.rules = append(c.rules, compile(r))
	}
	return c
}

// Classify returns the risk for a given method and concrete request path.
// When several rules match, the highest risk wins; an unmatched call
// defaults to LOW per spec.md §4.4.
func (c *Config) Classify(method, path string) risk.Level {
	method = strings.ToUpper(method)
	level := risk.Low
	matched := false
	for _, rule := range c.rules {
		if rule.Method != method {
			continue
		}
		if rule.re.MatchString(path) {
			level = risk.Max(level, rule.Risk)
			matched = true
		}
	}
	if !matched {
		return risk.Low
	}
	return level
}
