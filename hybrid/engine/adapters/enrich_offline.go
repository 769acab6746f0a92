package adapters

import (
	"context"
	"strings"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

// searchIndicators flag queries that would benefit from external lookup.
var searchIndicators = []string{
	"como funciona", "o que é", "explique", "me fale sobre", "qual",
	"quando", "onde", "por que", "documentação", "exemplo de", "tutorial",
	"erro", "problema com", "versão atual", "última versão", "api",
	"biblioteca", "framework",
}

// directCommands suppress lookup: the user wants generation, not research.
var directCommands = []string{"gere", "crie", "faça", "mostre"}

var questionWords = []string{"como", "qual", "quando", "onde", "por que"}

// OfflineEnricher implements the enrichment heuristics without a network
// backend. Enrich always reports no data; the agent treats that as "nothing
// to add".
type OfflineEnricher struct{}

func NewOfflineEnricher() *OfflineEnricher { return &OfflineEnricher{} }

// ShouldEnrich decides whether the query asks for information rather than
// generation: lookup vocabulary wins, direct commands suppress, questions
// default to yes, everything else to no.
func (e *OfflineEnricher) ShouldEnrich(query string) bool {
	lower := strings.ToLower(query)

	for _, indicator := range searchIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	for _, cmd := range directCommands {
		if strings.Contains(lower, cmd) {
			return false
		}
	}
	if strings.Contains(query, "?") {
		return true
	}
	for _, w := range questionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func (e *OfflineEnricher) Enrich(_ context.Context, _, _ string) (*ports.EnrichedData, error) {
	return nil, nil
}

func (e *OfflineEnricher) Format(data *ports.EnrichedData) string {
	if data == nil || len(data.Snippets) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Informações relevantes:\n")
	for _, snippet := range data.Snippets {
		sb.WriteString("- ")
		sb.WriteString(snippet)
		sb.WriteString("\n")
	}
	if data.Source != "" {
		sb.WriteString("Fonte: ")
		sb.WriteString(data.Source)
	}
	return strings.TrimSpace(sb.String())
}

var _ ports.Enricher = (*OfflineEnricher)(nil)
