package adminhttp

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/pgsentry/internal/apirisk"
	"github.com/dmitrymomot/pgsentry/internal/apispec"
	"github.com/dmitrymomot/pgsentry/pkg/health"
)

// NewServer builds the introspection/health HTTP surface. checks is passed
// straight through to health.ReadinessHandler (typically a single "database"
// entry pinging the pool).
func NewServer(logger *slog.Logger, riskCfg *apirisk.Config, checks health.Checks) *http.Server {
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware, recoverer(logger))

	r.Get("/livez", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(checks))

	r.Route("/v1/introspect", func(r chi.Router) {
		r.Get("/api-risk", classifyAPIRisk(riskCfg))
		r.Get("/api-spec", lookupAPISpec)
	})

	return &http.Server{
		Handler:           r,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
		ReadHeaderTimeout: ReadHeaderTimeout,
		MaxHeaderBytes:    MaxHeaderBytes,
	}
}

// classifyAPIRisk exposes apirisk.Config.Classify over HTTP so an operator
// (or the RPC front end, at startup) can confirm how a given call would be
// gated without issuing it. method/path are required query parameters.
func classifyAPIRisk(riskCfg *apirisk.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Query().Get("method")
		path := r.URL.Query().Get("path")
		if method == "" || path == "" {
			http.Error(w, "method and path query parameters are required", http.StatusBadRequest)
			return
		}
		level := riskCfg.Classify(method, path)
		writeJSON(w, map[string]string{
			"method": method,
			"path":   path,
			"risk":   level.String(),
		})
	}
}

// lookupAPISpec exposes apispec.Get over HTTP, mirroring
// get_management_api_spec's four lookup modes via query parameters.
func lookupAPISpec(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lookup := apispec.Lookup{
		Path:     q.Get("path"),
		Method:   q.Get("method"),
		Domain:   q.Get("domain"),
		AllPaths: q.Get("all_paths") == "true",
	}
	writeJSON(w, apispec.Get(lookup))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
