package engine

import (
	"regexp"
	"strings"
)

// RemovedPlaceholder marks text stripped from user input because it matched a
// destructive command pattern. It stays visible so the user can see what was
// dropped.
const RemovedPlaceholder = "[removed]"

// Sanitizer normalizes raw user input before anything else touches it.
// Sanitize is pure and never fails; pathological input collapses to "".
type Sanitizer struct {
	scriptBlocks *regexp.Regexp
	commands     *regexp.Regexp
	controlChars *regexp.Regexp
	whitespace   *regexp.Regexp
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		scriptBlocks: regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		commands:     regexp.MustCompile(`(?i)(rm\s+-rf|shutdown|format\s+|os\.system|subprocess|exec|eval|open\(|import\s+os|import\s+sys)`),
		controlChars: regexp.MustCompile("[\x00-\x1f\x7f]"),
		whitespace:   regexp.MustCompile(`\s+`),
	}
}

// Sanitize strips script blocks and control characters, replaces destructive
// command patterns with RemovedPlaceholder, and collapses whitespace.
func (s *Sanitizer) Sanitize(raw string) string {
	msg := s.scriptBlocks.ReplaceAllString(raw, "")
	msg = s.commands.ReplaceAllString(msg, RemovedPlaceholder)
	msg = s.controlChars.ReplaceAllString(msg, " ")
	msg = s.whitespace.ReplaceAllString(msg, " ")
	return strings.TrimSpace(msg)
}

// Empty reports whether a sanitized message carries no usable content, i.e.
// it is blank or consists only of removal placeholders.
func (s *Sanitizer) Empty(sanitized string) bool {
	rest := strings.TrimSpace(strings.ReplaceAll(sanitized, RemovedPlaceholder, ""))
	return rest == ""
}
