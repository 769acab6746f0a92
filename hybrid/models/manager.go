package models

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

// Status is the externally consumable model availability snapshot.
type Status struct {
	Chat      bool      `json:"chat"`
	Code      bool      `json:"code"`
	LastCheck time.Time `json:"last_check"`
}

// Manager owns the chat and code providers. The two models load and fail
// independently: a missing code model leaves chat functional and vice versa.
type Manager struct {
	chat   *Provider
	code   *Provider
	logger zerolog.Logger
}

// NewManager loads both models. A load failure disables that slot and is
// logged; the manager only errors when neither model could be loaded.
func NewManager(chatCfg, codeCfg *Config, logger zerolog.Logger) (*Manager, error) {
	m := &Manager{logger: logger}

	chat, err := New(chatCfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("chat model failed to load")
	} else {
		m.chat = chat
	}

	code, err := New(codeCfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("code model failed to load")
	} else {
		m.code = code
	}

	if m.chat == nil && m.code == nil {
		return nil, fmt.Errorf("no model could be loaded")
	}
	return m, nil
}

// Chat returns the chat provider port, or nil when the model is disabled.
func (m *Manager) Chat() ports.InferenceProvider {
	if m.chat == nil {
		return nil
	}
	return m.chat
}

// Code returns the code provider port, or nil when the model is disabled.
func (m *Manager) Code() ports.InferenceProvider {
	if m.code == nil {
		return nil
	}
	return m.code
}

// Warmup runs a tiny prediction on each loaded model in parallel so the
// first user request does not pay the cold-start cost.
func (m *Manager) Warmup(ctx context.Context) {
	params := ports.GenerationParams{MaxTokens: 10, Temperature: 0.1, TopP: 0.9, RepeatPenalty: 1.1}

	var wg conc.WaitGroup
	if m.chat != nil {
		wg.Go(func() {
			if _, err := m.chat.Generate(ctx, "Teste de modelo.", params); err != nil {
				m.logger.Warn().Err(err).Msg("chat warmup failed")
			}
		})
	}
	if m.code != nil {
		wg.Go(func() {
			if _, err := m.code.Generate(ctx, "print('ok')", params); err != nil {
				m.logger.Warn().Err(err).Msg("code warmup failed")
			}
		})
	}
	wg.Wait()
}

// HealthStatus reports current availability of both slots.
func (m *Manager) HealthStatus() Status {
	return Status{
		Chat:      m.chat != nil && m.chat.Healthy(),
		Code:      m.code != nil && m.code.Healthy(),
		LastCheck: time.Now(),
	}
}

// WriteHealthStatus persists the snapshot atomically for external readers.
func (m *Manager) WriteHealthStatus(path string) error {
	data, err := json.MarshalIndent(m.HealthStatus(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode health status: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create health dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write health status: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace health status: %w", err)
	}
	return nil
}

// Close frees both providers.
func (m *Manager) Close() error {
	if m.chat != nil {
		m.chat.Close()
	}
	if m.code != nil {
		m.code.Close()
	}
	return nil
}
