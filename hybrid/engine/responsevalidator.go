package engine

import (
	"regexp"
	"strings"
)

// problematicPatterns reject evasive, anthropomorphizing, or robotic
// responses. Anchored entries must be the whole response.
var problematicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`não (sei|entendi|posso)`),
	regexp.MustCompile(`desculpe, mas não`),
	regexp.MustCompile(`não tenho certeza`),
	regexp.MustCompile(`quando (eu|nós) (usei|fiz)`),
	regexp.MustCompile(`na minha vida`),
	regexp.MustCompile(`minha experiência pessoal`),
	regexp.MustCompile(`^é importante$`),
	regexp.MustCompile(`^existem várias$`),
	regexp.MustCompile(`^depende$`),
	regexp.MustCompile(`^processando sua solicitação$`),
	regexp.MustCompile(`^conforme solicitado$`),
	regexp.MustCompile(`^executando comando$`),
}

var (
	wordPattern  = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	fillerOpener = regexp.MustCompile(`^(E aí|Você tem|Você está)`)
)

// ResponseValidator gates chat responses on tone, length, and relevance to
// the query. Failing a check is soft: the orchestrator retries once and
// accepts the second attempt unconditionally.
type ResponseValidator struct{}

func NewResponseValidator() *ResponseValidator { return &ResponseValidator{} }

// IsValid reports whether the response is substantive enough for the query.
// The minimum length scales with the question: 50 base, 100 when the query
// contains "?", 150 when it asks for an explanation; the largest applicable
// threshold wins. At least 30% of the query's words must appear in the
// response.
func (rv *ResponseValidator) IsValid(response, query string) bool {
	if response == "" {
		return false
	}

	respLower := strings.ToLower(response)
	queryLower := strings.ToLower(query)

	for _, p := range problematicPatterns {
		if p.MatchString(respLower) {
			return false
		}
	}

	minLength := 50
	if strings.Contains(query, "?") {
		minLength = 100
	}
	for _, w := range []string{"explique", "detalhe", "como"} {
		if strings.Contains(queryLower, w) {
			minLength = 150
			break
		}
	}
	if len(response) < minLength {
		return false
	}

	queryWords := wordSet(queryLower)
	if len(queryWords) == 0 {
		return true
	}
	respWords := wordSet(respLower)

	shared := 0
	for w := range queryWords {
		if respWords[w] {
			shared++
		}
	}
	return float64(shared)/float64(len(queryWords)) >= 0.3
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(text, -1) {
		set[w] = true
	}
	return set
}

// CleanDuplicates dedupes response lines (first occurrence wins), drops
// trivial lines and filler openers, and caps the result at 3 lines. A
// degenerate result falls back to the first 2 non-trivial raw lines.
func (rv *ResponseValidator) CleanDuplicates(text string) string {
	lines := strings.Split(text, "\n")

	var cleaned []string
	seen := make(map[string]bool)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || seen[line] || len(line) <= 5 {
			continue
		}
		if fillerOpener.MatchString(line) {
			continue
		}
		cleaned = append(cleaned, line)
		seen[line] = true
		if len(cleaned) == 3 {
			break
		}
	}

	result := strings.Join(cleaned, "\n")
	if len(result) < 10 {
		var fallback []string
		for _, line := range lines[:min(2, len(lines))] {
			line = strings.TrimSpace(line)
			if line != "" && len(line) > 5 {
				fallback = append(fallback, line)
			}
		}
		if len(fallback) > 0 {
			result = strings.Join(fallback, "\n")
		}
	}
	return result
}
