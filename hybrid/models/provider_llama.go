//go:build llama && !no_llama

package models

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	llama "github.com/go-skynet/go-llama.cpp"
	"github.com/rs/zerolog"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

// Provider pools llama.cpp model instances and implements the engine's
// InferenceProvider port. A circuit breaker fences the pool off after
// repeated failures until the cooldown elapses.
type Provider struct {
	config *Config
	health *Health
	logger zerolog.Logger

	pool   chan *llama.LLama
	poolMu sync.Mutex

	failureCount    int64
	lastFailureTime time.Time
	breakerMu       sync.Mutex

	closed atomic.Bool
}

// New loads the model into a pool of instances. The model file must exist;
// loading failures are returned, not deferred.
func New(config *Config, logger zerolog.Logger) (*Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model config: %w", err)
	}

	p := &Provider{
		config: config,
		health: NewHealth(),
		logger: logger.With().Str("model", string(config.Tag)).Logger(),
		pool:   make(chan *llama.LLama, config.PoolSize),
	}

	for i := 0; i < config.PoolSize; i++ {
		model, err := llama.New(config.ModelPath,
			llama.SetContext(config.ContextSize),
			llama.SetGPULayers(config.GPULayers),
		)
		if err != nil {
			p.freePool()
			return nil, fmt.Errorf("load model instance %d: %w", i, err)
		}
		p.pool <- model
	}

	p.logger.Info().Int("pool_size", config.PoolSize).Str("path", config.ModelPath).Msg("model loaded")
	return p, nil
}

// Generate runs one prediction with the planned parameters.
func (p *Provider) Generate(ctx context.Context, prompt string, params ports.GenerationParams) (ports.GenerationResult, error) {
	if prompt == "" {
		return ports.GenerationResult{}, &ports.GenerationError{Model: string(p.config.Tag), Err: fmt.Errorf("empty prompt")}
	}
	if p.closed.Load() {
		return ports.GenerationResult{}, ports.ErrModelUnavailable
	}

	reqCtx, cancel := context.WithTimeout(ctx, p.config.RequestTimeout)
	defer cancel()

	model, err := p.borrow(reqCtx)
	if err != nil {
		p.recordFailure(fmt.Sprintf("borrow failed: %v", err))
		if reqCtx.Err() != nil && ctx.Err() != nil {
			return ports.GenerationResult{}, ctx.Err()
		}
		return ports.GenerationResult{}, fmt.Errorf("%w: %v", ports.ErrModelUnavailable, err)
	}
	defer p.giveBack(model)

	options := []llama.PredictOption{
		llama.SetTokens(params.MaxTokens),
		llama.SetTemperature(params.Temperature),
		llama.SetTopP(params.TopP),
		llama.SetPenalty(params.RepeatPenalty),
	}
	if len(params.Stop) > 0 {
		options = append(options, llama.SetStopWords(params.Stop...))
	}

	start := time.Now()
	text, err := model.Predict(prompt, options...)
	if err != nil {
		p.recordFailure(fmt.Sprintf("prediction failed: %v", err))
		return ports.GenerationResult{}, &ports.GenerationError{Model: string(p.config.Tag), Err: err}
	}

	duration := time.Since(start)
	p.health.RecordSuccess(duration)
	p.logger.Debug().Dur("duration", duration).Int("output_len", len(text)).Msg("generation complete")

	return ports.GenerationResult{Text: text, RawLength: len(text)}, nil
}

// ContextLength reports the configured context window.
func (p *Provider) ContextLength() int { return p.config.ContextSize }

// Healthy reports whether the last operation succeeded and the breaker is
// closed.
func (p *Provider) Healthy() bool {
	return !p.closed.Load() && !p.breakerOpen() && p.health.Healthy()
}

// HealthSnapshot returns the current metrics.
func (p *Provider) HealthSnapshot() Health { return p.health.Snapshot() }

func (p *Provider) borrow(ctx context.Context) (*llama.LLama, error) {
	if p.breakerOpen() {
		return nil, fmt.Errorf("circuit breaker open")
	}

	borrowCtx, cancel := context.WithTimeout(ctx, p.config.BorrowTimeout)
	defer cancel()

	select {
	case model := <-p.pool:
		return model, nil
	case <-borrowCtx.Done():
		return nil, fmt.Errorf("borrow timeout after %v", p.config.BorrowTimeout)
	}
}

func (p *Provider) giveBack(model *llama.LLama) {
	if p.closed.Load() {
		model.Free()
		return
	}
	select {
	case p.pool <- model:
	default:
		model.Free()
	}
}

func (p *Provider) breakerOpen() bool {
	p.breakerMu.Lock()
	defer p.breakerMu.Unlock()

	if atomic.LoadInt64(&p.failureCount) < int64(p.config.BreakerThreshold) {
		return false
	}
	if time.Since(p.lastFailureTime) > p.config.BreakerCooldown {
		atomic.StoreInt64(&p.failureCount, 0)
		p.logger.Info().Msg("circuit breaker reset after cooldown")
		return false
	}
	return true
}

func (p *Provider) recordFailure(msg string) {
	p.health.RecordFailure(msg)

	p.breakerMu.Lock()
	atomic.AddInt64(&p.failureCount, 1)
	p.lastFailureTime = time.Now()
	p.breakerMu.Unlock()

	p.logger.Warn().Str("error", msg).Int64("failures", atomic.LoadInt64(&p.failureCount)).Msg("model operation failed")
}

func (p *Provider) freePool() {
	for {
		select {
		case model := <-p.pool:
			model.Free()
		default:
			return
		}
	}
}

// Close frees every pooled instance. The provider is unusable afterwards.
func (p *Provider) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.poolMu.Lock()
	defer p.poolMu.Unlock()
	p.freePool()
	p.logger.Info().Msg("provider closed")
	return nil
}

var _ ports.InferenceProvider = (*Provider)(nil)
