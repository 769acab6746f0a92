// Package models manages the two local GGUF models (chat and code) behind
// the engine's InferenceProvider port. The llama.cpp binding is only
// compiled with the "llama" build tag; without it a stub keeps the rest of
// the application functional with both models reported unavailable.
package models

import (
	"fmt"
	"sync"
	"time"
)

// Tag names a managed model slot.
type Tag string

const (
	TagChat Tag = "chat"
	TagCode Tag = "code"
)

// Config describes one GGUF model instance pool.
type Config struct {
	ModelPath string
	Tag       Tag

	ContextSize int
	GPULayers   int
	Threads     int

	PoolSize      int
	BorrowTimeout time.Duration

	RequestTimeout   time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// DefaultConfig returns a config with sane limits for the given tag. The
// code model gets the larger context window.
func DefaultConfig(path string, tag Tag) *Config {
	cfg := &Config{
		ModelPath:        path,
		Tag:              tag,
		ContextSize:      4096,
		Threads:          4,
		PoolSize:         1,
		BorrowTimeout:    5 * time.Second,
		RequestTimeout:   2 * time.Minute,
		BreakerThreshold: 3,
		BreakerCooldown:  30 * time.Second,
	}
	if tag == TagCode {
		cfg.ContextSize = 16384
		cfg.RequestTimeout = 5 * time.Minute
	}
	return cfg
}

// Validate checks the configuration for values that would break the pool.
func (c *Config) Validate() error {
	if c.ModelPath == "" {
		return fmt.Errorf("model path is required")
	}
	if c.Tag != TagChat && c.Tag != TagCode {
		return fmt.Errorf("unknown model tag %q", c.Tag)
	}
	if c.ContextSize <= 0 {
		return fmt.Errorf("context size must be positive, got %d", c.ContextSize)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive, got %d", c.PoolSize)
	}
	if c.BorrowTimeout <= 0 {
		return fmt.Errorf("borrow timeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// Health tracks per-model operational metrics. Latency uses an EMA with
// alpha 0.1.
type Health struct {
	mu sync.Mutex

	IsHealthy      bool
	TotalCalls     int64
	SuccessCalls   int64
	FailureCalls   int64
	SuccessRate    float64
	AverageLatency time.Duration
	LastUsed       time.Time
	LastError      string
}

func NewHealth() *Health {
	return &Health{IsHealthy: true, SuccessRate: 1.0}
}

func (h *Health) RecordSuccess(duration time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.TotalCalls++
	h.SuccessCalls++
	h.LastUsed = time.Now()
	h.IsHealthy = true

	if h.AverageLatency == 0 {
		h.AverageLatency = duration
	} else {
		const alpha = 0.1
		h.AverageLatency = time.Duration(float64(h.AverageLatency)*(1-alpha) + float64(duration)*alpha)
	}
	h.SuccessRate = float64(h.SuccessCalls) / float64(h.TotalCalls)
}

func (h *Health) RecordFailure(errMsg string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.TotalCalls++
	h.FailureCalls++
	h.LastUsed = time.Now()
	h.IsHealthy = false
	h.LastError = errMsg
	h.SuccessRate = float64(h.SuccessCalls) / float64(h.TotalCalls)
}

// Snapshot returns a copy safe to read without holding the lock.
func (h *Health) Snapshot() Health {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Health{
		IsHealthy:      h.IsHealthy,
		TotalCalls:     h.TotalCalls,
		SuccessCalls:   h.SuccessCalls,
		FailureCalls:   h.FailureCalls,
		SuccessRate:    h.SuccessRate,
		AverageLatency: h.AverageLatency,
		LastUsed:       h.LastUsed,
		LastError:      h.LastError,
	}
}

func (h *Health) Healthy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.IsHealthy
}
