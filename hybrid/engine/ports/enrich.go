package engineports

import "context"

// EnrichedData is supplemental material fetched for a query.
type EnrichedData struct {
	Query    string
	Snippets []string
	Source   string
}

// Enricher supplies optional external context for chat queries. Failures are
// never fatal to a reply; the engine treats any error or nil data as "no
// enrichment".
type Enricher interface {
	ShouldEnrich(query string) bool
	Enrich(ctx context.Context, query, topic string) (*EnrichedData, error)
	Format(data *EnrichedData) string
}
