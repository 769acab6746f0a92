package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

// User-facing fallback texts (the assistant speaks PT-BR by default).
const (
	clarifyText         = "Pode detalhar um pouco mais o que você precisa?"
	chatUnavailableText = "Erro: modelo de chat não disponível."
	codeUnavailableText = "Erro: modelo de código não disponível."
	codeFailedText      = "Desculpe, não consegui gerar o código solicitado. Pode reformular o pedido?"
)

// CodeArtifact is a validated, cleaned code generation result.
type CodeArtifact struct {
	Language  string
	Text      string
	Validated bool
}

// Reply is the outcome of one turn. Text is never empty.
type Reply struct {
	Text string
	Code *CodeArtifact
}

// HealthStatus snapshots model availability for external consumption.
type HealthStatus struct {
	Chat      bool      `json:"chat"`
	Code      bool      `json:"code"`
	LastCheck time.Time `json:"last_check"`
}

// healthChecker is implemented by providers that can report liveness beyond
// being non-nil.
type healthChecker interface {
	Healthy() bool
}

// Agent orchestrates the reply pipeline: sanitize, classify, route to the
// chat or code model, validate, cache. One request at a time; collaborator
// failures degrade to fallback text, never panic or propagate.
type Agent struct {
	mu sync.Mutex

	chat ports.InferenceProvider
	code ports.InferenceProvider

	sanitizer *Sanitizer
	store     *ContextStore
	intents   *IntentClassifier
	planner   *Planner
	responses *ResponseValidator
	codes     *CodeValidator

	cache    ports.ResponseCache
	enricher ports.Enricher
	tracer   ports.Tracer
	logger   zerolog.Logger

	cacheTTL int
	lastCode *CodeArtifact
}

// AgentDeps bundles the agent's collaborators. Cache, enricher, and tracer
// are optional; nil disables the feature.
type AgentDeps struct {
	Chat     ports.InferenceProvider
	Code     ports.InferenceProvider
	Store    *ContextStore
	Planner  *Planner
	Cache    ports.ResponseCache
	Enricher ports.Enricher
	Tracer   ports.Tracer
	Logger   zerolog.Logger

	CacheTTLSeconds int
}

func NewAgent(deps AgentDeps) *Agent {
	ttl := deps.CacheTTLSeconds
	if ttl <= 0 {
		ttl = 24 * 3600
	}
	return &Agent{
		chat:      deps.Chat,
		code:      deps.Code,
		sanitizer: NewSanitizer(),
		store:     deps.Store,
		intents:   NewIntentClassifier(),
		planner:   deps.Planner,
		responses: NewResponseValidator(),
		codes:     NewCodeValidator(),
		cache:     deps.Cache,
		enricher:  deps.Enricher,
		tracer:    deps.Tracer,
		logger:    deps.Logger,
		cacheTTL:  ttl,
	}
}

// NormalizeCacheKey maps a sanitized prompt to its cache key. Distinct raw
// prompts that normalize identically share an entry.
func NormalizeCacheKey(sanitized string) string {
	return strings.ToLower(strings.TrimSpace(sanitized))
}

// Reply handles one user turn. The returned Reply always carries non-empty
// text; Code is non-nil only for validated code generations. The error is
// non-nil only when ctx was cancelled.
func (a *Agent) Reply(ctx context.Context, message string) (*Reply, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ctx, span := a.startSpan(ctx, "agent.reply")
	reply, err := a.reply(ctx, message)
	span.End(err)
	return reply, err
}

func (a *Agent) reply(ctx context.Context, message string) (*Reply, error) {
	clean := a.sanitizer.Sanitize(message)
	if a.sanitizer.Empty(clean) {
		a.logger.Warn().Msg("input rejected by sanitizer")
		return &Reply{Text: clarifyText}, nil
	}

	a.store.AddMessage(RoleUser, clean, nil)

	if a.intents.IsCodeRequest(clean) {
		return a.replyCode(ctx, clean)
	}
	return a.replyChat(ctx, clean)
}

func (a *Agent) replyChat(ctx context.Context, clean string) (*Reply, error) {
	a.lastCode = nil
	cacheKey := NormalizeCacheKey(clean)

	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, cacheKey); ok {
			a.logger.Info().Str("key", truncateForLog(cacheKey)).Msg("cache hit")
			a.store.AddMessage(RoleAssistant, cached, nil)
			return &Reply{Text: cached}, nil
		}
	}

	topic := a.store.Topic()
	contextPrompt := a.store.ContextPrompt(TargetChat)
	langInstr := LanguageInstruction(clean, topic)

	online := ""
	if a.enricher != nil && a.enricher.ShouldEnrich(clean) {
		if data, err := a.enricher.Enrich(ctx, clean, string(topic)); err != nil {
			a.logger.Warn().Err(err).Msg("enrichment failed")
		} else if data != nil {
			online = a.enricher.Format(data)
		}
	}

	fullPrompt := langInstr + "\n\n" + contextPrompt + "\n\n" + online + "\n\nPergunta atual: " + clean
	params := a.planner.PlanChat(clean, topic, contextPrompt, fullPrompt)

	res, err := a.generate(ctx, a.chat, fullPrompt, params, TagChat)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.store.RecordModelResult(TagChat, false)
		if errors.Is(err, ports.ErrModelUnavailable) {
			return &Reply{Text: chatUnavailableText}, nil
		}
		a.logger.Error().Err(err).Msg("chat generation failed")
		return &Reply{Text: clarifyText}, nil
	}

	text := strings.TrimSpace(res.Text)
	if len(text) > 50 {
		text = a.responses.CleanDuplicates(text)
	}

	if !a.responses.IsValid(text, clean) {
		a.logger.Warn().Msg("response failed validation, regenerating once")
		// Second attempt at a higher temperature is accepted as-is.
		params.Temperature += 0.2
		if retry, retryErr := a.generate(ctx, a.chat, fullPrompt, params, TagChat); retryErr == nil {
			text = strings.TrimSpace(retry.Text)
		} else if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		} else {
			a.logger.Error().Err(retryErr).Msg("regeneration failed")
			text = ""
		}
	}

	if text == "" {
		a.store.RecordModelResult(TagChat, false)
		return &Reply{Text: clarifyText}, nil
	}

	a.store.AddMessage(RoleAssistant, text, map[string]string{
		"model_type": TagChat,
		"success":    "true",
	})

	if a.cache != nil {
		if err := a.cache.Set(ctx, cacheKey, text, a.cacheTTL); err != nil {
			a.logger.Warn().Err(err).Msg("cache store failed")
		}
	}

	return &Reply{Text: text}, nil
}

func (a *Agent) replyCode(ctx context.Context, clean string) (*Reply, error) {
	codeContext := a.store.CodeContext()

	language := a.intents.DetectCodeLanguage(clean, a.store.LastCodeType(), codeContext)
	if language == "" {
		language = LangHTML
		a.logger.Warn().Str("msg", truncateForLog(clean)).Msg("code language not detected, falling back to html")
	}

	task := a.structureRequest(ctx, clean, language)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	taskPrompt := BuildCodeTaskPrompt(language, task, codeContext)
	genPrompt := BuildCodeGenerationPrompt(language, taskPrompt)
	params := a.planner.PlanCode(genPrompt, language)

	res, err := a.generate(ctx, a.code, genPrompt, params, TagCode)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.store.RecordModelResult(TagCode, false)
		a.lastCode = nil
		if errors.Is(err, ports.ErrModelUnavailable) {
			return &Reply{Text: codeUnavailableText}, nil
		}
		a.logger.Error().Err(err).Msg("code generation failed")
		return &Reply{Text: codeFailedText}, nil
	}

	raw := strings.TrimSpace(res.Text)
	if !a.codes.IsValidCode(raw, language) {
		a.logger.Warn().Str("language", language).Msg("generated code failed validation")
		a.store.RecordModelResult(TagCode, false)
		a.lastCode = nil
		return &Reply{Text: codeFailedText}, nil
	}

	artifact := &CodeArtifact{
		Language:  language,
		Text:      a.codes.CleanAndValidate(raw, language),
		Validated: true,
	}
	a.lastCode = artifact
	a.store.SetLastCodeType(language)
	a.store.RecordModelResult(TagCode, true)

	return &Reply{
		Text: "Gerando código em " + language + "...",
		Code: artifact,
	}, nil
}

// structureRequest asks the chat model to restate a code request precisely.
// Failures fall back to the raw message.
func (a *Agent) structureRequest(ctx context.Context, clean, language string) string {
	res, err := a.generate(ctx, a.chat, BuildPrepPrompt(clean, language), a.planner.PlanPrep(), TagChat)
	if err != nil {
		a.logger.Warn().Err(err).Msg("request structuring failed, using raw message")
		return clean
	}
	structured := strings.TrimSpace(res.Text)
	if structured == "" {
		return clean
	}
	return structured
}

func (a *Agent) generate(ctx context.Context, provider ports.InferenceProvider, prompt string, params ports.GenerationParams, tag string) (ports.GenerationResult, error) {
	if provider == nil {
		return ports.GenerationResult{}, ports.ErrModelUnavailable
	}

	ctx, span := a.startSpan(ctx, "generate."+tag)
	start := time.Now()
	res, err := provider.Generate(ctx, prompt, params)
	span.Event("generated", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"prompt_len":  len(prompt),
	})
	span.End(err)
	return res, err
}

func (a *Agent) startSpan(ctx context.Context, name string) (context.Context, ports.Span) {
	if a.tracer == nil {
		return ctx, noopSpan{}
	}
	return a.tracer.StartSpan(ctx, name)
}

type noopSpan struct{}

func (noopSpan) End(error)                    {}
func (noopSpan) Event(string, map[string]any) {}

// LastCode returns the artifact from the most recent code generation, if any.
func (a *Agent) LastCode() *CodeArtifact {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastCode
}

// ClearCachedReply removes the cached response for one prompt.
func (a *Agent) ClearCachedReply(ctx context.Context, prompt string) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Delete(ctx, NormalizeCacheKey(a.sanitizer.Sanitize(prompt)))
}

// Health reports current model availability.
func (a *Agent) Health() HealthStatus {
	return HealthStatus{
		Chat:      providerHealthy(a.chat),
		Code:      providerHealthy(a.code),
		LastCheck: time.Now(),
	}
}

func providerHealthy(p ports.InferenceProvider) bool {
	if p == nil {
		return false
	}
	if hc, ok := p.(healthChecker); ok {
		return hc.Healthy()
	}
	return true
}

func truncateForLog(s string) string {
	if len(s) > 50 {
		return s[:50] + "..."
	}
	return s
}
