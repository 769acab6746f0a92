package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidRejectsEvasivePatterns(t *testing.T) {
	rv := NewResponseValidator()

	filler := strings.Repeat("palavras sobre ponteiros e memória ", 5)
	evasives := []string{
		"não sei responder isso. " + filler,
		"desculpe, mas não consigo. " + filler,
		"não tenho certeza sobre ponteiros. " + filler,
		"quando eu usei ponteiros na prática. " + filler,
		"na minha vida sempre usei ponteiros. " + filler,
	}
	for _, resp := range evasives {
		assert.False(t, rv.IsValid(resp, "ponteiros e memória"), "should reject %q", resp[:40])
	}
}

func TestIsValidLengthThresholdsScaleWithQuery(t *testing.T) {
	rv := NewResponseValidator()

	short := "ponteiros guardam endereços de memória no heap da aplicação"

	// 60 chars pass the base threshold for a statement...
	assert.True(t, rv.IsValid(short, "ponteiros memória heap"))

	// ...but not for a question (100) or an explanation request (150).
	assert.False(t, rv.IsValid(short, "o que são ponteiros na memória heap?"))
	assert.False(t, rv.IsValid(short, "explique ponteiros memória heap"))

	long := short + " " + strings.Repeat("cada ponteiro aponta para memória ", 4)
	assert.True(t, rv.IsValid(long, "explique ponteiros memória heap"))
}

func TestIsValidRequiresWordOverlap(t *testing.T) {
	rv := NewResponseValidator()

	offTopic := strings.Repeat("bolo de chocolate com cobertura cremosa ", 3)
	assert.False(t, rv.IsValid(offTopic, "configurar rede linux"))

	onTopic := "para configurar a rede no linux use o utilitário ip e edite as rotas da interface"
	assert.True(t, rv.IsValid(onTopic, "configurar rede linux"))
}

func TestCleanDuplicatesDedupesAndCaps(t *testing.T) {
	rv := NewResponseValidator()

	in := strings.Join([]string{
		"primeira linha com conteúdo",
		"primeira linha com conteúdo",
		"segunda linha diferente aqui",
		"ok",
		"terceira linha válida também",
		"quarta linha que não deve entrar",
	}, "\n")

	out := rv.CleanDuplicates(in)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, "primeira linha com conteúdo", lines[0])
	assert.NotContains(t, out, "quarta linha")
	assert.NotContains(t, out, "\nok\n")
}

func TestCleanDuplicatesDropsFillerOpeners(t *testing.T) {
	rv := NewResponseValidator()

	out := rv.CleanDuplicates("E aí, tudo certo por aqui\nresposta técnica de verdade")
	assert.Equal(t, "resposta técnica de verdade", out)
}

func TestCleanDuplicatesDegenerateFallsBackToRawLines(t *testing.T) {
	rv := NewResponseValidator()

	// Every line is filler, so the cleaned result is empty; fall back to
	// the first raw lines instead of returning nothing.
	out := rv.CleanDuplicates("Você tem uma pergunta interessante\nVocê está no caminho certo")
	assert.Equal(t, "Você tem uma pergunta interessante\nVocê está no caminho certo", out)
}
