package adapters

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

type spanKey struct{}

// ZerologTracer emits span start/end and events as structured log lines.
type ZerologTracer struct {
	logger zerolog.Logger
}

func NewZerologTracer(logger zerolog.Logger) *ZerologTracer {
	return &ZerologTracer{logger: logger}
}

func (t *ZerologTracer) StartSpan(ctx context.Context, name string) (context.Context, ports.Span) {
	span := &zerologSpan{
		name:   name,
		start:  time.Now(),
		logger: t.logger,
	}
	t.logger.Debug().Str("span", name).Msg("span start")
	return context.WithValue(ctx, spanKey{}, span), span
}

type zerologSpan struct {
	name   string
	start  time.Time
	logger zerolog.Logger
}

func (s *zerologSpan) End(err error) {
	evt := s.logger.Debug().Str("span", s.name).Dur("duration", time.Since(s.start))
	if err != nil {
		evt = s.logger.Warn().Str("span", s.name).Dur("duration", time.Since(s.start)).Err(err)
	}
	evt.Msg("span end")
}

func (s *zerologSpan) Event(name string, fields map[string]any) {
	evt := s.logger.Debug().Str("span", s.name).Str("event", name)
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}
	evt.Msg("span event")
}

var _ ports.Tracer = (*ZerologTracer)(nil)

// NoopTracer discards all spans.
type NoopTracer struct{}

func (NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, ports.Span) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error)                    {}
func (noopSpan) Event(string, map[string]any) {}

var _ ports.Tracer = NoopTracer{}
