// Package logs holds the closed set of named log-query templates the
// management API's log retrieval endpoint accepts (spec.md §4.9), grounded
// on the original's log_manager.py: one BigQuery-style query per
// collection, parameterized by a time range and an optional extra
// WHERE clause.
package logs

import (
	"fmt"
	"strings"
	"time"
)

// Collection is one of the closed set of log sources the hosted platform
// exposes through its log-query endpoint.
type Collection string

const (
	CollectionPostgres     Collection = "postgres"
	CollectionAuth         Collection = "auth"
	CollectionEdgeFunction Collection = "edge_function"
	CollectionAPIGateway   Collection = "api_gateway"
)

// templates maps each collection to the base query retrieving its log
// rows, ordered newest first. %s is the WHERE clause built by Query.
var templates = map[Collection]string{
	CollectionPostgres: "select identifier, timestamp, event_message, parsed.error_severity " +
		"from postgres_logs cross join unnest(metadata) as m cross join unnest(m.parsed) as parsed %s " +
		"order by timestamp desc limit 100",
	CollectionAuth: "select id, timestamp, event_message, metadata " +
		"from auth_logs %s order by timestamp desc limit 100",
	CollectionEdgeFunction: "select id, timestamp, event_message, metadata " +
		"from edge_logs %s order by timestamp desc limit 100",
	CollectionAPIGateway: "select id, timestamp, event_message, request.method, request.path " +
		"from edge_logs cross join unnest(metadata) as m cross join unnest(m.request) as request %s " +
		"order by timestamp desc limit 100",
}

// Valid reports whether c is one of the known collections.
func (c Collection) Valid() bool {
	_, ok := templates[c]
	return ok
}

// Query builds the final log-retrieval query for a collection over
// [since, until), with an optional extra SQL condition ANDed onto the
// generated time-range predicate.
func Query(c Collection, since, until time.Time, extra string) (string, bool) {
	tmpl, ok := templates[c]
	if !ok {
		return "", false
	}

	conditions := []string{
		fmt.Sprintf("timestamp >= '%s'", since.UTC().Format(time.RFC3339)),
		fmt.Sprintf("timestamp < '%s'", until.UTC().Format(time.RFC3339)),
	}
	if extra != "" {
		conditions = append(conditions, "("+extra+")")
	}

	where := "where " + strings.Join(conditions, " and ")
	return fmt.Sprintf(tmpl, where), true
}
