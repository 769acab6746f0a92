package engine

import (
	"regexp"
	"strings"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

// ModelProfile carries the planning limits of one model.
type ModelProfile struct {
	ContextLength   int
	MaxTokens       int
	MinTokens       int
	BaseTemperature float32
}

// Sampling is the fixed-knob set a capability profile can override.
type Sampling struct {
	TopP            float32
	RepeatPenalty   float32
	PresencePenalty float32
}

type profileKey struct {
	Tag    string
	Bucket string
}

// Query-length buckets for the capability profile lookup.
const (
	bucketShort   = "short"
	bucketComplex = "complex"

	complexQueryLen = 100
)

var (
	creativityWords  = regexp.MustCompile(`criativo|imagine|crie|desenhe|design`)
	precisionWords   = regexp.MustCompile(`exato|preciso|técnico|específico`)
	explanationWords = regexp.MustCompile(`explique|detalhe|descreva|como|exemplo`)
)

// codeStops maps each language to the sequences that end generation at the
// next top-level construct.
var codeStops = map[string][]string{
	LangPython:     {"\ndef ", "```", "###", "\n# ", "\nclass "},
	LangHTML:       {"</html>", "```", "<!----", "<!--", "</body>"},
	LangJavaScript: {"\nfunction ", "```", "//", "/*", "\nconst ", "\nlet "},
	LangJava:       {"\npublic ", "```", "//"},
	LangCPP:        {"\n#include ", "```", "//"},
}

var defaultStops = []string{"```"}

// Planner derives generation parameters per request from the message, the
// assembled context, and the target model profile. Stateless.
type Planner struct {
	chat      ModelProfile
	code      ModelProfile
	overrides map[profileKey]Sampling
}

// NewPlanner builds a planner for the given chat and code profiles.
func NewPlanner(chat, code ModelProfile) *Planner {
	if chat.BaseTemperature == 0 {
		chat.BaseTemperature = 0.7
	}
	return &Planner{
		chat: chat,
		code: code,
		overrides: map[profileKey]Sampling{
			{TagChat, bucketShort}:   {TopP: 0.9, RepeatPenalty: 1.1, PresencePenalty: 0.05},
			{TagChat, bucketComplex}: {TopP: 0.9, RepeatPenalty: 1.1, PresencePenalty: 0.05},
			{TagCode, bucketShort}:   {TopP: 0.9, RepeatPenalty: 0.9, PresencePenalty: 0.1},
			{TagCode, bucketComplex}: {TopP: 0.9, RepeatPenalty: 0.9, PresencePenalty: 0.1},
		},
	}
}

// Model tags used by the planner and the agent.
const (
	TagChat = "chat"
	TagCode = "code"
)

func (p *Planner) sampling(tag, query string) Sampling {
	bucket := bucketShort
	if len(query) > complexQueryLen {
		bucket = bucketComplex
	}
	if s, ok := p.overrides[profileKey{tag, bucket}]; ok {
		return s
	}
	return Sampling{TopP: 0.9, RepeatPenalty: 1.1, PresencePenalty: 0.05}
}

// ChatTemperature derives the chat temperature from the message and topic.
// Creativity keywords win over precision keywords; both win over the topic
// adjustment.
func (p *Planner) ChatTemperature(msg string, topic Topic) float32 {
	lower := strings.ToLower(msg)
	base := p.chat.BaseTemperature

	if creativityWords.MatchString(lower) {
		return base + 0.25
	}
	if precisionWords.MatchString(lower) {
		t := base - 0.3
		if t < 0.1 {
			t = 0.1
		}
		return t
	}

	switch topic {
	case TopicProgramming:
		return base - 0.2
	case TopicExplanation:
		return base + 0.1
	}
	return base
}

// PlanChat computes the full parameter set for a chat generation. The token
// budget works from the space left after the prompt: 75% of it as the base,
// boosted for long context, long questions, and explanation vocabulary, each
// boost re-clamped to 85% of the available space.
func (p *Planner) PlanChat(msg string, topic Topic, contextPrompt, fullPrompt string) ports.GenerationParams {
	lower := strings.ToLower(msg)

	available := p.chat.ContextLength - len(fullPrompt)
	if available < 0 {
		available = 0
	}

	base := min(float64(p.chat.MaxTokens), float64(available)*0.75)

	clamp := float64(available) * 0.85
	if len(contextPrompt) > 500 {
		base = min(base*1.3, clamp)
	}
	if len(strings.Fields(msg)) > 20 {
		base = min(base*1.2, clamp)
	}
	if explanationWords.MatchString(lower) {
		base = min(base*1.15, clamp)
	}

	maxTokens := int(base)
	if maxTokens > available {
		maxTokens = available
	}
	if maxTokens < p.chat.MinTokens {
		maxTokens = p.chat.MinTokens
	}

	s := p.sampling(TagChat, msg)
	return ports.GenerationParams{
		MaxTokens:       maxTokens,
		Temperature:     p.ChatTemperature(msg, topic),
		TopP:            s.TopP,
		RepeatPenalty:   s.RepeatPenalty,
		PresencePenalty: s.PresencePenalty,
	}
}

// PlanCode returns the fixed code-generation parameters with the
// per-language stop sequences.
func (p *Planner) PlanCode(prompt, language string) ports.GenerationParams {
	stops, ok := codeStops[language]
	if !ok {
		stops = defaultStops
	}

	s := p.sampling(TagCode, prompt)
	return ports.GenerationParams{
		MaxTokens:       1024,
		Temperature:     0.2,
		TopP:            0.9,
		RepeatPenalty:   s.RepeatPenalty,
		PresencePenalty: s.PresencePenalty,
		Stop:            stops,
	}
}

// PlanPrep returns the parameters for the request-structuring call.
func (p *Planner) PlanPrep() ports.GenerationParams {
	return ports.GenerationParams{
		MaxTokens:     256,
		Temperature:   0.1,
		TopP:          0.1,
		RepeatPenalty: 1.1,
	}
}
