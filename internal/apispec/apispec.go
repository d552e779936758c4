// Package apispec is a thin, in-memory Management API path/method
// reference (spec.md §9's design note, grounded on the original's
// spec_manager.py). It contributes no network calls or design beyond the
// lookup itself: a static table plus four ways to query it, matching
// get_management_api_spec(path?, method?, domain?, all_paths?).
package apispec

// Entry describes one Management API endpoint.
type Entry struct {
	Method      string
	Path        string
	Domain      string // e.g. "database", "auth", "functions", "projects"
	Description string
}

// Entries is the closed set of Management API endpoints the kernel knows
// about, used only for introspection (internal/adminhttp's read-only
// endpoint) — it has no bearing on what apirisk or the safety gate allow.
var Entries = []Entry{
	{"GET", "/v1/projects", "projects", "List all projects"},
	{"GET", "/v1/projects/{ref}", "projects", "Get project details"},
	{"DELETE", "/v1/projects/{ref}", "projects", "Delete a project"},
	{"POST", "/v1/projects/{ref}/pause", "projects", "Pause a project"},
	{"POST", "/v1/projects/{ref}/restore", "projects", "Restore a paused project"},
	{"POST", "/v1/projects/{ref}/database/query", "database", "Run a SQL query"},
	{"GET", "/v1/projects/{ref}/database/webhooks", "database", "List database webhooks"},
	{"GET", "/v1/projects/{ref}/config/database", "database", "Get database config"},
	{"PATCH", "/v1/projects/{ref}/config/database", "database", "Update database config"},
	{"GET", "/v1/projects/{ref}/auth/users", "auth", "List auth users"},
	{"GET", "/v1/projects/{ref}/auth/users/{id}", "auth", "Get an auth user"},
	{"POST", "/v1/projects/{ref}/auth/users", "auth", "Create an auth user"},
	{"DELETE", "/v1/projects/{ref}/auth/users/{id}", "auth", "Delete an auth user"},
	{"GET", "/v1/projects/{ref}/functions", "functions", "List edge functions"},
	{"POST", "/v1/projects/{ref}/functions", "functions", "Deploy an edge function"},
	{"DELETE", "/v1/projects/{ref}/functions/{slug}", "functions", "Delete an edge function"},
	{"GET", "/v1/projects/{ref}/secrets", "secrets", "List project secrets"},
	{"POST", "/v1/projects/{ref}/secrets", "secrets", "Set project secrets"},
	{"DELETE", "/v1/projects/{ref}/secrets", "secrets", "Delete project secrets"},
	{"GET", "/v1/projects/{ref}/api-keys", "api-keys", "List API keys"},
	{"POST", "/v1/projects/{ref}/api-keys", "api-keys", "Create an API key"},
	{"DELETE", "/v1/projects/{ref}/api-keys/{id}", "api-keys", "Revoke an API key"},
	{"POST", "/v1/projects/{ref}/analytics/endpoints/logs.all", "analytics", "Run a log query"},
}

// Lookup is the parameter bag for Get's four lookup modes; zero values
// mean "don't filter by this dimension".
type Lookup struct {
	Path     string
	Method   string
	Domain   string
	AllPaths bool
}

// Get resolves a Lookup against Entries:
//   - AllPaths set: returns every entry, ignoring the other fields.
//   - Path and Method set: returns the single matching entry, if any.
//   - Path set only: returns every entry for that path (any method).
//   - Domain set only: returns every entry in that domain.
func Get(q Lookup) []Entry {
	if q.AllPaths {
		return Entries
	}

	var out []Entry
	for _, e := range Entries {
		switch {
		case q.Path != "" && q.Method != "":
			if e.Path == q.Path && e.Method == q.Method {
				out = append(out, e)
			}
		case q.Path != "":
			if e.Path == q.Path {
				out = append(out, e)
			}
		case q.Domain != "":
			if e.Domain == q.Domain {
				out = append(out, e)
			}
		}
	}
	return out
}
