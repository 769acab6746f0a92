// Package engineports defines the collaborator contracts the engine depends
// on. Adapters live in hybrid/engine/adapters; model-backed providers live in
// hybrid/models.
package engineports

import "context"

// GenerationParams carries the sampling knobs for a single inference call.
// A fresh value is planned per request; nothing here is shared state.
type GenerationParams struct {
	MaxTokens       int
	Temperature     float32
	TopP            float32
	RepeatPenalty   float32
	PresencePenalty float32
	Stop            []string
}

// GenerationResult is the raw outcome of one inference call.
type GenerationResult struct {
	Text      string
	RawLength int
}

// InferenceProvider generates text from a local model. Implementations must
// honor ctx cancellation at the call boundary and return ErrModelUnavailable
// when the underlying model is not loaded or the circuit is open.
type InferenceProvider interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (GenerationResult, error)
	ContextLength() int
}
