// Package migration derives a migration version/name pair from a
// classified SQL statement and records applied migrations in a bookkeeping
// table (spec.md §4.5/§4.6). Naming is a character-class filter, not an
// HTML concern, so it deliberately does not reach for pkg/sanitizer.
package migration

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/pgsentry/internal/sqlclassifier"
)

var lowerer = cases.Lower(language.Und)

// disallowed matches each run of characters a derived migration name may
// not contain; only lowercase letters and digits pass through, and sanitize
// folds every other run (underscores included) to a single underscore.
var disallowed = regexp.MustCompile(`[^a-z0-9]+`)

// clientNameDisallowed and whitespaceRun implement the distinct sanitize
// rule spec.md §4.5 specifies for a caller-supplied name: drop characters
// outside [A-Za-z0-9_ ] outright (do not fold them to underscore), then
// collapse the remaining whitespace runs to a single underscore.
var (
	clientNameDisallowed = regexp.MustCompile(`[^a-z0-9_ ]`)
	whitespaceRun        = regexp.MustCompile(`\s+`)
)

// Name is a derived migration version/name pair, version a sortable
// timestamp. The recorder stores Version and Name in separate columns;
// String renders the combined "<version>_<name>" identifier.
type Name struct {
	Version string
	Name    string
}

// String renders the canonical "<version>_<name>" migration identifier.
func (n Name) String() string {
	return n.Version + "_" + n.Name
}

// Derive builds a Name for a classified statement, using now as the
// version timestamp. clientName is the caller-supplied migration_name
// (spec.md §4.5); when non-empty it is sanitized and used verbatim instead
// of the statement-derived name. When the statement's metadata doesn't
// yield a descriptive name (object type/name unknown and no client name
// was given), it falls back to "migration_" plus an 8-hex-char MD5 prefix
// of the original SQL so two distinct unnamed statements never collide.
func Derive(now time.Time, stmt sqlclassifier.Statement, sql, clientName string) Name {
	version := now.UTC().Format("20060102150405")

	if strings.TrimSpace(clientName) != "" {
		return Name{Version: version, Name: sanitizeClientName(clientName)}
	}

	descriptive := ""
	if stmt.ObjectType != "" || stmt.ObjectName != "" {
		descriptive = describe(stmt)
	}
	if descriptive == "" {
		descriptive = "migration_" + hashSuffix(sql)
	}

	return Name{Version: version, Name: sanitize(descriptive)}
}

// describe composes the statement-derived name per spec.md §4.5's
// per-category format. The schema defaults to "public" and is always
// present; object name/type fall back to "unknown"/"object" rather than
// being dropped.
func describe(stmt sqlclassifier.Statement) string {
	verb := strings.ToLower(string(stmt.Command))
	schema := stmt.Schema
	if schema == "" {
		schema = "public"
	}
	objType := strings.ReplaceAll(stmt.ObjectType, " ", "_")
	if objType == "" {
		objType = "object"
	}
	objName := stmt.ObjectName
	if objName == "" {
		objName = "unknown"
	}

	switch stmt.Category {
	case sqlclassifier.CategoryDDL:
		return fmt.Sprintf("%s_%s_%s_%s", verb, objType, schema, objName)
	case sqlclassifier.CategoryDML:
		if stmt.Command == sqlclassifier.CommandUpdate && len(stmt.UpdateColumns) > 0 {
			return fmt.Sprintf("update_%s_in_%s_%s", updateColumnsPart(stmt.UpdateColumns), schema, objName)
		}
		return fmt.Sprintf("%s_%s_%s", verb, schema, objName)
	case sqlclassifier.CategoryDCL:
		priv := stmt.Privilege
		if priv == "" {
			priv = "privilege"
		}
		return fmt.Sprintf("%s_%s_%s_%s", verb, priv, schema, objName)
	default:
		return fmt.Sprintf("%s_%s_%s", verb, schema, objType)
	}
}

// updateColumnsPart renders an UPDATE's SET-clause columns per spec.md
// §4.5: up to 3 distinct columns joined by underscore, otherwise the first
// column followed by "and_others".
func updateColumnsPart(cols []string) string {
	distinct := dedupe(cols)
	if len(distinct) <= 3 {
		return strings.Join(distinct, "_")
	}
	return distinct[0] + "_and_others"
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// sanitize lowercases and strips every character outside [a-z0-9_],
// collapsing runs of disallowed characters to a single underscore and
// trimming leading/trailing underscores so names stay readable.
func sanitize(s string) string {
	lowered := lowerer.String(s)
	cleaned := disallowed.ReplaceAllString(lowered, "_")
	cleaned = strings.Trim(cleaned, "_")
	if cleaned == "" {
		return "unnamed"
	}
	if len(cleaned) > 100 {
		cleaned = strings.TrimRight(cleaned[:100], "_")
	}
	return cleaned
}

// sanitizeClientName implements spec.md §4.5's caller-supplied-name rule:
// lowercase, drop characters outside [A-Za-z0-9_ ], collapse whitespace
// runs to a single underscore, truncate to 100 characters.
func sanitizeClientName(s string) string {
	lowered := lowerer.String(s)
	stripped := clientNameDisallowed.ReplaceAllString(lowered, "")
	collapsed := whitespaceRun.ReplaceAllString(stripped, "_")
	if len(collapsed) > 100 {
		collapsed = collapsed[:100]
	}
	return collapsed
}

func hashSuffix(sql string) string {
	sum := md5.Sum([]byte(sql))
	return hex.EncodeToString(sum[:])[:8]
}
