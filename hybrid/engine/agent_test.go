package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furiousofnight/hybrid-ide/hybrid/engine/adapters"
	ports "github.com/furiousofnight/hybrid-ide/hybrid/engine/ports"
)

// stubProvider lets each test inject generation behavior.
type stubProvider struct {
	generateFunc func(ctx context.Context, prompt string, params ports.GenerationParams) (ports.GenerationResult, error)
	contextLen   int
	calls        []ports.GenerationParams
	prompts      []string
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, params ports.GenerationParams) (ports.GenerationResult, error) {
	s.calls = append(s.calls, params)
	s.prompts = append(s.prompts, prompt)
	if s.generateFunc != nil {
		return s.generateFunc(ctx, prompt, params)
	}
	return ports.GenerationResult{Text: "ok"}, nil
}

func (s *stubProvider) ContextLength() int {
	if s.contextLen > 0 {
		return s.contextLen
	}
	return 4096
}

var _ ports.InferenceProvider = (*stubProvider)(nil)

const validChatAnswer = "para configurar a rede no linux use o utilitário ip, edite as rotas da interface e verifique o gateway padrão da máquina"

func newTestAgent(chat, code ports.InferenceProvider) *Agent {
	return NewAgent(AgentDeps{
		Chat:    chat,
		Code:    code,
		Store:   NewContextStore(10, nil, zerolog.Nop()),
		Planner: testPlanner(),
		Cache:   adapters.NewMemoryResponseCache(50),
		Logger:  zerolog.Nop(),
	})
}

func TestReplyEmptyInputDegradesToClarifyingPrompt(t *testing.T) {
	chat := &stubProvider{}
	agent := newTestAgent(chat, &stubProvider{})

	reply, err := agent.Reply(context.Background(), "   \x00\x01   ")
	require.NoError(t, err)
	assert.Equal(t, "Pode detalhar um pouco mais o que você precisa?", reply.Text)
	assert.Nil(t, reply.Code)
	assert.Empty(t, chat.calls, "no model call for empty input")
}

func TestReplyChatHappyPath(t *testing.T) {
	chat := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{Text: validChatAnswer}, nil
		},
	}
	agent := newTestAgent(chat, &stubProvider{})

	reply, err := agent.Reply(context.Background(), "configurar rede linux")
	require.NoError(t, err)
	assert.Equal(t, validChatAnswer, reply.Text)
	assert.Nil(t, reply.Code)
	require.Len(t, chat.calls, 1)
	assert.Contains(t, chat.prompts[0], "Pergunta atual: configurar rede linux")
}

func TestReplyChatCacheRoundTrip(t *testing.T) {
	calls := 0
	chat := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			calls++
			return ports.GenerationResult{Text: validChatAnswer}, nil
		},
	}
	agent := newTestAgent(chat, &stubProvider{})

	first, err := agent.Reply(context.Background(), "configurar rede linux")
	require.NoError(t, err)

	// Same prompt modulo case and whitespace hits the cache.
	second, err := agent.Reply(context.Background(), "  Configurar REDE Linux  ")
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, calls)

	// Clearing the entry forces regeneration.
	require.NoError(t, agent.ClearCachedReply(context.Background(), "configurar rede linux"))
	_, err = agent.Reply(context.Background(), "configurar rede linux")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestReplyChatRegeneratesOnceAtHigherTemperature(t *testing.T) {
	chat := &stubProvider{
		generateFunc: func(_ context.Context, _ string, params ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{Text: "não sei"}, nil
		},
	}
	agent := newTestAgent(chat, &stubProvider{})

	reply, err := agent.Reply(context.Background(), "configurar rede linux")
	require.NoError(t, err)

	// The invalid answer triggers exactly one retry, 0.2 hotter, and the
	// second attempt is accepted without re-validation.
	require.Len(t, chat.calls, 2)
	assert.InDelta(t, float64(chat.calls[0].Temperature)+0.2, float64(chat.calls[1].Temperature), 1e-6)
	assert.Equal(t, "não sei", reply.Text)
}

func TestReplyChatRetryErrorDegradesToClarify(t *testing.T) {
	calls := 0
	chat := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			calls++
			if calls == 1 {
				return ports.GenerationResult{Text: "não sei"}, nil
			}
			return ports.GenerationResult{}, &ports.GenerationError{Model: "chat", Err: fmt.Errorf("boom")}
		},
	}
	agent := newTestAgent(chat, &stubProvider{})

	reply, err := agent.Reply(context.Background(), "configurar rede linux")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// The invalid first answer is not surfaced when the retry itself fails.
	assert.Equal(t, "Pode detalhar um pouco mais o que você precisa?", reply.Text)
}

func TestReplyChatModelUnavailable(t *testing.T) {
	chat := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{}, ports.ErrModelUnavailable
		},
	}
	agent := newTestAgent(chat, &stubProvider{})

	reply, err := agent.Reply(context.Background(), "configurar rede linux")
	require.NoError(t, err)
	assert.Equal(t, "Erro: modelo de chat não disponível.", reply.Text)
}

func TestReplyChatGenerationErrorDegrades(t *testing.T) {
	chat := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{}, &ports.GenerationError{Model: "chat", Err: fmt.Errorf("boom")}
		},
	}
	agent := newTestAgent(chat, &stubProvider{})

	reply, err := agent.Reply(context.Background(), "configurar rede linux")
	require.NoError(t, err)
	assert.Equal(t, "Pode detalhar um pouco mais o que você precisa?", reply.Text)
}

func TestReplyCodeHappyPath(t *testing.T) {
	chat := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{Text: "pedido estruturado"}, nil
		},
	}
	code := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{Text: "def soma(a, b):\n    # soma dois valores\n    return a + b"}, nil
		},
	}
	agent := newTestAgent(chat, code)

	reply, err := agent.Reply(context.Background(), "crie uma função python que some dois números")
	require.NoError(t, err)

	require.NotNil(t, reply.Code)
	assert.Equal(t, LangPython, reply.Code.Language)
	assert.True(t, reply.Code.Validated)
	assert.True(t, strings.HasPrefix(reply.Code.Text, "# -*- coding: utf-8 -*-\n"))
	assert.Contains(t, reply.Text, "python")

	// The structuring call went to the chat model, generation to code.
	require.Len(t, chat.calls, 1)
	assert.Equal(t, 256, chat.calls[0].MaxTokens)
	require.Len(t, code.calls, 1)
	assert.Equal(t, 1024, code.calls[0].MaxTokens)
	assert.Contains(t, code.calls[0].Stop, "\ndef ")

	assert.Equal(t, reply.Code, agent.LastCode())
}

func TestReplyCodeInvalidOutputYieldsNoArtifact(t *testing.T) {
	code := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{Text: "x=1\nx=1\nx=1"}, nil
		},
	}
	agent := newTestAgent(&stubProvider{}, code)

	reply, err := agent.Reply(context.Background(), "crie uma função python que some dois números")
	require.NoError(t, err)
	assert.Nil(t, reply.Code)
	assert.Equal(t, "Desculpe, não consegui gerar o código solicitado. Pode reformular o pedido?", reply.Text)
}

func TestReplyCodeModelUnavailableLeavesChatWorking(t *testing.T) {
	chat := &stubProvider{
		generateFunc: func(_ context.Context, _ string, params ports.GenerationParams) (ports.GenerationResult, error) {
			if params.MaxTokens == 256 {
				// Structuring call fails too; the raw message is used.
				return ports.GenerationResult{}, ports.ErrModelUnavailable
			}
			return ports.GenerationResult{Text: validChatAnswer}, nil
		},
	}
	code := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{}, ports.ErrModelUnavailable
		},
	}
	agent := newTestAgent(chat, code)

	reply, err := agent.Reply(context.Background(), "crie uma função python que some dois números")
	require.NoError(t, err)
	assert.Equal(t, "Erro: modelo de código não disponível.", reply.Text)
	assert.Nil(t, reply.Code)

	// The chat path is unaffected.
	reply, err = agent.Reply(context.Background(), "configurar rede linux")
	require.NoError(t, err)
	assert.Equal(t, validChatAnswer, reply.Text)
}

func TestReplyCodeContinuationReusesLanguage(t *testing.T) {
	code := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{Text: "def soma(a, b):\n    # soma\n    return a + b"}, nil
		},
	}
	agent := newTestAgent(&stubProvider{}, code)

	_, err := agent.Reply(context.Background(), "crie uma função python que some dois números")
	require.NoError(t, err)

	reply, err := agent.Reply(context.Background(), "continue e adicione tratamento de erro no código")
	require.NoError(t, err)
	require.NotNil(t, reply.Code)
	assert.Equal(t, LangPython, reply.Code.Language)
}

func TestReplyNilProvidersDegrade(t *testing.T) {
	agent := newTestAgent(nil, nil)

	reply, err := agent.Reply(context.Background(), "configurar rede linux")
	require.NoError(t, err)
	assert.Equal(t, "Erro: modelo de chat não disponível.", reply.Text)

	health := agent.Health()
	assert.False(t, health.Chat)
	assert.False(t, health.Code)
}

func TestReplyContextCancellation(t *testing.T) {
	chat := &stubProvider{
		generateFunc: func(ctx context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{}, ctx.Err()
		},
	}
	agent := newTestAgent(chat, &stubProvider{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := agent.Reply(ctx, "configurar rede linux")
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkReplyChatCached(b *testing.B) {
	chat := &stubProvider{
		generateFunc: func(_ context.Context, _ string, _ ports.GenerationParams) (ports.GenerationResult, error) {
			return ports.GenerationResult{Text: validChatAnswer}, nil
		},
	}
	agent := newTestAgent(chat, &stubProvider{})

	ctx := context.Background()
	if _, err := agent.Reply(ctx, "configurar rede linux"); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := agent.Reply(ctx, "configurar rede linux"); err != nil {
			b.Fatal(err)
		}
	}
}
