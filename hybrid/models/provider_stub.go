//go:build !llama || no_llama

package models

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

// Provider is the no-binding stand-in compiled without the "llama" build
// tag. Construction succeeds so the rest of the application wires up, but
// every generation reports the model unavailable.
type Provider struct {
	config *Config
	logger zerolog.Logger
}

func New(config *Config, logger zerolog.Logger) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model config: %w", err)
	}
	logger.Warn().Str("model", string(config.Tag)).Msg("built without llama support, model disabled")
	return &Provider{config: config, logger: logger}, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, params ports.GenerationParams) (ports.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.GenerationResult{}, err
	}
	return ports.GenerationResult{}, fmt.Errorf("%w: binary built without llama support", ports.ErrModelUnavailable)
}

func (p *Provider) ContextLength() int { return p.config.ContextSize }

func (p *Provider) Healthy() bool { return false }

// HealthSnapshot reports the permanently-unavailable state.
func (p *Provider) HealthSnapshot() Health { return Health{IsHealthy: false} }

func (p *Provider) Close() error { return nil }

var _ ports.InferenceProvider = (*Provider)(nil)
