package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/furiousofnight/hybrid-ide/hybrid/config"
	"github.com/furiousofnight/hybrid-ide/hybrid/engine/adapters"
	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

// Factory assembles an Agent from configuration and model providers.
type Factory struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	return &Factory{cfg: cfg, logger: logger}
}

// CreateAgent wires the full pipeline. Either provider may be nil; the agent
// degrades that path to an unavailability message.
func (f *Factory) CreateAgent(chat, code ports.InferenceProvider) (*Agent, error) {
	cache, err := f.createCache()
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	stateStore, err := adapters.NewFileStateStore(f.cfg.StatePath(), f.logger)
	if err != nil {
		return nil, fmt.Errorf("create state store: %w", err)
	}

	store := NewContextStore(f.cfg.Engine.MaxHistory, stateStore, f.logger)

	if f.cfg.State.Watch {
		if err := stateStore.Watch(context.Background(), func(state *ports.PersistedState) {
			store.ReplacePreferences(state)
		}); err != nil {
			f.logger.Warn().Err(err).Msg("state watch unavailable")
		}
	}

	planner := NewPlanner(
		ModelProfile{
			ContextLength:   f.cfg.Models.Chat.ContextSize,
			MaxTokens:       f.cfg.Models.Chat.MaxTokens,
			MinTokens:       f.cfg.Models.Chat.MinTokens,
			BaseTemperature: 0.7,
		},
		ModelProfile{
			ContextLength: f.cfg.Models.Code.ContextSize,
			MaxTokens:     f.cfg.Models.Code.MaxTokens,
			MinTokens:     f.cfg.Models.Code.MinTokens,
		},
	)

	return NewAgent(AgentDeps{
		Chat:            chat,
		Code:            code,
		Store:           store,
		Planner:         planner,
		Cache:           cache,
		Enricher:        adapters.NewOfflineEnricher(),
		Tracer:          adapters.NewZerologTracer(f.logger),
		Logger:          f.logger,
		CacheTTLSeconds: f.cfg.Cache.TTLSeconds,
	}), nil
}

func (f *Factory) createCache() (ports.ResponseCache, error) {
	switch f.cfg.Cache.Backend {
	case "libsql":
		return adapters.NewLibSQLResponseCache(f.cfg.Cache.DSN, f.cfg.Cache.Capacity, f.logger)
	case "", "memory":
		return adapters.NewMemoryResponseCache(f.cfg.Cache.Capacity), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", f.cfg.Cache.Backend)
	}
}
