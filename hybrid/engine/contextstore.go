package engine

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleCode      Role = "code"
)

// Message is one conversation turn. Immutable once appended.
type Message struct {
	Role      Role
	Content   string
	Timestamp time.Time
	Metadata  map[string]string
}

// Topic is the coarse conversation topic derived from user messages.
type Topic string

const (
	TopicNone        Topic = ""
	TopicProgramming Topic = "programming"
	TopicExplanation Topic = "explanation"
	TopicHelp        Topic = "help"
	TopicTesting     Topic = "testing"
)

// Context assembly targets.
const (
	TargetChat = "chat"
	TargetCode = "code"
)

// PerfStats tracks per-model outcome quality. SuccessRate stays in [0,1]:
// the first observation sets it directly, later ones use an EMA with
// alpha 0.2.
type PerfStats struct {
	SuccessRate float64
	TotalCalls  int
}

type topicRule struct {
	topic   Topic
	pattern *regexp.Regexp
}

// Topic precedence is testing > help > explanation > programming; the first
// matching rule wins.
var topicRules = []topicRule{
	{TopicTesting, regexp.MustCompile(`teste|validar|verificar|assert|spec`)},
	{TopicHelp, regexp.MustCompile(`ajuda|erro|problema|não consigo|falha`)},
	{TopicExplanation, regexp.MustCompile(`explique|como|qual|por que|defin|conceito`)},
	{TopicProgramming, regexp.MustCompile(`código|programa|desenvolv|implement|bug|error|debug`)},
}

// languageMentions is scanned in order; the first hit becomes the last
// mentioned language.
var languageMentions = []string{
	"python", "javascript", "java", "c#", "cpp", "ruby", "go", "rust",
}

var (
	fencedCode      = regexp.MustCompile("(?s)```(?:\\w+)?\\n(.*?)```")
	codeRequestLine = regexp.MustCompile(`código|programa|função|class|implementa|crie|desenvolva|faça`)
	codeMarkers     = []string{"```", "código", "function", "class"}
)

const (
	maxContentLen   = 500
	chatHistoryWin  = 5
	codeHistoryWin  = 3
	codeContextScan = 10
)

// ContextStore owns the rolling conversation state: bounded history, topic,
// last mentioned/generated language, per-model performance, and the persisted
// preferences loaded through a StateStore.
type ContextStore struct {
	mu sync.Mutex

	maxHistory   int
	sessionID    string
	sessionStart time.Time

	history      []Message
	topic        Topic
	lastLanguage string
	lastCodeType string
	performance  map[string]*PerfStats

	prefs   map[string]map[string]string
	project map[string]string

	store  ports.StateStore
	logger zerolog.Logger
}

// NewContextStore loads persisted preferences through store and starts a
// fresh session. Load failures degrade to defaults and are only logged.
func NewContextStore(maxHistory int, store ports.StateStore, logger zerolog.Logger) *ContextStore {
	if maxHistory <= 0 {
		maxHistory = 10
	}

	cs := &ContextStore{
		maxHistory:   maxHistory,
		sessionID:    uuid.NewString(),
		sessionStart: time.Now(),
		performance:  make(map[string]*PerfStats),
		store:        store,
		logger:       logger,
	}

	state := ports.DefaultPersistedState()
	if store != nil {
		loaded, err := store.Load()
		if err != nil {
			logger.Warn().Err(err).Msg("state load failed, using defaults")
		} else if loaded != nil {
			state = loaded
		}
	}
	cs.prefs = state.UserPreferences
	if cs.prefs == nil {
		cs.prefs = ports.DefaultPersistedState().UserPreferences
	}
	cs.project = state.ProjectContext
	if cs.project == nil {
		cs.project = map[string]string{}
	}

	return cs
}

// SessionID returns the identifier of the current session.
func (cs *ContextStore) SessionID() string { return cs.sessionID }

// AddMessage appends a turn, truncating the oldest entries beyond the
// configured history size. User messages reclassify the topic and the last
// mentioned language. Metadata carrying model_type/success updates the model
// performance stats.
func (cs *ContextStore) AddMessage(role Role, content string, metadata map[string]string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.history = append(cs.history, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
	if len(cs.history) > cs.maxHistory {
		cs.history = cs.history[len(cs.history)-cs.maxHistory:]
	}

	if tag, ok := metadata["model_type"]; ok {
		cs.recordResultLocked(tag, metadata["success"] == "true")
	}

	if role == RoleUser {
		cs.classifyLocked(content)
	}
}

// RecordModelResult feeds one success/failure observation for a model tag.
func (cs *ContextStore) RecordModelResult(tag string, success bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.recordResultLocked(tag, success)
}

func (cs *ContextStore) recordResultLocked(tag string, success bool) {
	stats, ok := cs.performance[tag]
	if !ok {
		stats = &PerfStats{}
		cs.performance[tag] = stats
	}

	var observed float64
	if success {
		observed = 1
	}

	stats.TotalCalls++
	if stats.TotalCalls == 1 {
		stats.SuccessRate = observed
	} else {
		stats.SuccessRate = stats.SuccessRate*0.8 + observed*0.2
	}
}

func (cs *ContextStore) classifyLocked(content string) {
	lower := strings.ToLower(content)

	for _, rule := range topicRules {
		if rule.pattern.MatchString(lower) {
			cs.topic = rule.topic
			break
		}
	}

	for _, lang := range languageMentions {
		if strings.Contains(lower, lang) {
			cs.lastLanguage = lang
			break
		}
	}
}

// Topic returns the current conversation topic.
func (cs *ContextStore) Topic() Topic {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.topic
}

// LastCodeType returns the language of the last generated code artifact.
func (cs *ContextStore) LastCodeType() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.lastCodeType
}

// SetLastCodeType records the language of a successfully generated artifact.
func (cs *ContextStore) SetLastCodeType(language string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.lastCodeType = language
}

// Performance returns a snapshot of per-model stats.
func (cs *ContextStore) Performance() map[string]PerfStats {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	out := make(map[string]PerfStats, len(cs.performance))
	for tag, stats := range cs.performance {
		out[tag] = *stats
	}
	return out
}

// ContextPrompt assembles the model-facing context block for the given
// target ("chat" or "code"). Deterministic for a fixed store state.
func (cs *ContextStore) ContextPrompt(target string) string {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	var parts []string

	if target == TargetChat {
		parts = append(parts, fmt.Sprintf("Sessão iniciada em: %s", cs.sessionStart.Format(time.RFC3339)))
		if cs.topic != TopicNone {
			parts = append(parts, fmt.Sprintf("Tópico atual: %s", cs.topic))
		}
	}

	if hist := cs.relevantHistoryLocked(target); len(hist) > 0 {
		parts = append(parts, "\nHistórico relevante:")
		parts = append(parts, hist...)
	}

	if target == TargetCode {
		if tech := cs.technicalContextLocked(); len(tech) > 0 {
			parts = append(parts, "\nContexto técnico:")
			parts = append(parts, tech...)
		}
	}

	if prefs := cs.preferenceLinesLocked(target); len(prefs) > 0 {
		parts = append(parts, "\nPreferências:")
		parts = append(parts, prefs...)
	}

	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func (cs *ContextStore) relevantHistoryLocked(target string) []string {
	window := chatHistoryWin
	if target == TargetCode {
		window = codeHistoryWin
	}

	start := len(cs.history) - window
	if start < 0 {
		start = 0
	}

	var lines []string
	for _, msg := range cs.history[start:] {
		if target == TargetCode && msg.Role == RoleAssistant && !hasCodeMarker(msg.Content) {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, elide(msg.Content)))
	}
	return lines
}

func hasCodeMarker(content string) bool {
	lower := strings.ToLower(content)
	for _, marker := range codeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func elide(content string) string {
	runes := []rune(content)
	if len(runes) <= maxContentLen {
		return content
	}
	return string(runes[:maxContentLen-3]) + "..."
}

func (cs *ContextStore) technicalContextLocked() []string {
	var lines []string
	if cs.lastLanguage != "" {
		lines = append(lines, fmt.Sprintf("Linguagem: %s", cs.lastLanguage))
	}

	fragments := 0
	for i := len(cs.history) - 1; i >= 0 && fragments < 2; i-- {
		for _, match := range fencedCode.FindAllStringSubmatch(cs.history[i].Content, -1) {
			lines = append(lines, strings.TrimSpace(match[1]))
			fragments++
			if fragments == 2 {
				break
			}
		}
	}
	return lines
}

func (cs *ContextStore) preferenceLinesLocked(target string) []string {
	var lines []string
	if target == TargetCode {
		if style := cs.prefs["code_style"]; style != nil {
			for _, key := range []string{"style", "indent", "doc_style"} {
				if v := style[key]; v != "" {
					lines = append(lines, fmt.Sprintf("- %s: %s", key, v))
				}
			}
		}
		return lines
	}
	if chat := cs.prefs["chat_preferences"]; chat != nil {
		for _, key := range []string{"format", "technical_level"} {
			if v := chat[key]; v != "" {
				lines = append(lines, fmt.Sprintf("- %s: %s", key, v))
			}
		}
	}
	return lines
}

// CodeContext builds the prior-work context for code generation: up to 5
// recent user code-request lines and up to 5 fenced assistant code blocks
// from the last messages, requirements first, plus code-style preferences.
// Returns "" when there is nothing to carry over.
func (cs *ContextStore) CodeContext() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	start := len(cs.history) - codeContextScan
	if start < 0 {
		start = 0
	}

	var requirements, blocks []string
	for i := len(cs.history) - 1; i >= start; i-- {
		msg := cs.history[i]
		switch msg.Role {
		case RoleAssistant:
			// Only the first fenced block per message counts as prior code.
			if strings.Contains(msg.Content, "```") {
				if match := fencedCode.FindStringSubmatch(msg.Content); match != nil {
					blocks = append(blocks, "Código anterior gerado:\n"+strings.TrimSpace(match[1]))
				}
			}
		case RoleUser:
			if codeRequestLine.MatchString(strings.ToLower(msg.Content)) {
				requirements = append(requirements, "Requisito anterior: "+msg.Content)
			}
		}
		if len(blocks) >= 5 || len(requirements) >= 5 {
			break
		}
	}

	var parts []string
	if cs.lastLanguage != "" {
		parts = append(parts, "Linguagem: "+cs.lastLanguage)
	}
	parts = append(parts, requirements...)
	parts = append(parts, blocks...)
	if style := cs.prefs["code_style"]; style != nil {
		for _, key := range []string{"style", "indent", "doc_style"} {
			if v := style[key]; v != "" {
				parts = append(parts, fmt.Sprintf("Preferência de código %s: %s", key, v))
			}
		}
	}

	if len(requirements) == 0 && len(blocks) == 0 {
		return ""
	}
	return strings.Join(parts, "\n")
}

// UpdatePreferences merges the given preference groups and persists them.
func (cs *ContextStore) UpdatePreferences(prefs map[string]map[string]string) error {
	cs.mu.Lock()
	for group, values := range prefs {
		existing, ok := cs.prefs[group]
		if !ok {
			existing = map[string]string{}
			cs.prefs[group] = existing
		}
		for k, v := range values {
			existing[k] = v
		}
	}
	cs.mu.Unlock()
	return cs.persist()
}

// SetProjectContext replaces the project context and persists it.
func (cs *ContextStore) SetProjectContext(project map[string]string) error {
	cs.mu.Lock()
	cs.project = project
	cs.mu.Unlock()
	return cs.persist()
}

// ReplacePreferences swaps in externally reloaded state (settings file edits).
func (cs *ContextStore) ReplacePreferences(state *ports.PersistedState) {
	if state == nil {
		return
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if state.UserPreferences != nil {
		cs.prefs = state.UserPreferences
	}
	if state.ProjectContext != nil {
		cs.project = state.ProjectContext
	}
}

func (cs *ContextStore) persist() error {
	if cs.store == nil {
		return nil
	}

	cs.mu.Lock()
	state := &ports.PersistedState{
		UserPreferences: cs.prefs,
		ProjectContext:  cs.project,
		LastSave:        time.Now(),
	}
	cs.mu.Unlock()

	if err := cs.store.Save(state); err != nil {
		cs.logger.Warn().Err(err).Msg("state save failed")
		return err
	}
	return nil
}

// Clear resets the session-scoped state. Preferences and project context
// survive.
func (cs *ContextStore) Clear() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.history = nil
	cs.topic = TopicNone
	cs.lastLanguage = ""
	cs.lastCodeType = ""
	cs.performance = make(map[string]*PerfStats)
	cs.sessionID = uuid.NewString()
	cs.sessionStart = time.Now()
}
