package engine

import (
	"regexp"
	"strings"
)

var (
	pythonStructure = []*regexp.Regexp{
		regexp.MustCompile(`def\s+\w+\(`),
		regexp.MustCompile(`class\s+\w+:`),
		regexp.MustCompile(`import\s+\w+`),
	}
	jsStructure = []*regexp.Regexp{
		regexp.MustCompile(`function\s+\w+\(`),
		regexp.MustCompile(`const\s+\w+\s*=`),
		regexp.MustCompile(`let\s+\w+\s*=`),
	}
	htmlDoctype = regexp.MustCompile(`(?i)<!DOCTYPE\s+html>`)

	metaTag      = regexp.MustCompile(`<meta[^>]*>`)
	headOpen     = regexp.MustCompile(`<head[^>]*>`)
	docstring    = regexp.MustCompile(`(?s)""".*?"""`)
	codingDecl   = regexp.MustCompile(`(?i)#.*coding.*utf-8`)
	onlyWhitesep = regexp.MustCompile(`^\s*$`)
)

const canonicalHead = "<head>\n    <meta charset=\"UTF-8\">\n    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">"

// CodeValidator gates generated code on minimal structure and repairs common
// generation defects. CleanAndValidate is idempotent.
type CodeValidator struct{}

func NewCodeValidator() *CodeValidator { return &CodeValidator{} }

// IsValidCode reports whether the generated text looks like usable code for
// the language. Repetitive output (3+ lines but fewer than 3 distinct) is
// rejected; languages with structural checks must match at least the
// expected constructs; languages without checks need 20+ characters.
func (cv *CodeValidator) IsValidCode(code, language string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}

	lines := strings.Split(code, "\n")
	if len(lines) >= 3 {
		distinct := make(map[string]bool, len(lines))
		for _, line := range lines {
			distinct[line] = true
		}
		if len(distinct) < 3 {
			return false
		}
	}

	switch language {
	case LangPython:
		return matchesAny(code, pythonStructure)
	case LangJavaScript:
		return matchesAny(code, jsStructure)
	case LangHTML:
		return htmlDoctype.MatchString(code) &&
			strings.Contains(code, "<html") &&
			strings.Contains(code, "<body")
	default:
		return len(code) >= 20
	}
}

func matchesAny(code string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(code) {
			return true
		}
	}
	return false
}

// CleanAndValidate repairs generated code in place. HTML: collapse duplicate
// adjacent meta tags, cap the meta count at 3 (replacing the run with a
// canonical charset+viewport pair), and close the document. Python: collapse
// adjacent duplicate docstrings and ensure a UTF-8 coding declaration. Other
// languages pass through trimmed.
func (cv *CodeValidator) CleanAndValidate(code, language string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}

	switch language {
	case LangHTML:
		code = collapseAdjacentDuplicates(code, metaTag)

		if len(metaTag.FindAllString(code, -1)) > 3 {
			code = metaTag.ReplaceAllString(code, "")
			code = headOpen.ReplaceAllString(code, canonicalHead)
		}

		if !strings.HasSuffix(strings.TrimSpace(code), "</html>") {
			if !strings.Contains(code, "</body>") {
				code = strings.TrimRight(code, " \t\n") + "\n</body>\n</html>"
			} else {
				code = strings.TrimRight(code, " \t\n") + "\n</html>"
			}
		}

	case LangPython:
		code = collapseAdjacentDuplicates(code, docstring)

		if !codingDecl.MatchString(code) {
			code = "# -*- coding: utf-8 -*-\n" + code
		}
	}

	return code
}

// collapseAdjacentDuplicates removes repeats of a match that directly follow
// an identical match with only whitespace in between.
func collapseAdjacentDuplicates(text string, pattern *regexp.Regexp) string {
	locs := pattern.FindAllStringIndex(text, -1)
	if len(locs) < 2 {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))

	prevEnd := 0
	var prevMatch string
	for _, loc := range locs {
		between := text[prevEnd:loc[0]]
		match := text[loc[0]:loc[1]]

		if prevMatch == match && onlyWhitesep.MatchString(between) {
			prevEnd = loc[1]
			continue
		}

		sb.WriteString(between)
		sb.WriteString(match)
		prevEnd = loc[1]
		prevMatch = match
	}
	sb.WriteString(text[prevEnd:])
	return sb.String()
}
