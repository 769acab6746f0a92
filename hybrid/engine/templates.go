package engine

import (
	"regexp"
	"strings"
	"text/template"
)

// Language instruction openers, picked by accent/vocabulary sniffing.
const (
	langInstrPT = "Comunique em português do Brasil de forma natural e direta."
	langInstrES = "Comunique en español de forma natural y directa."
	langInstrEN = "Communicate naturally and directly in English."
)

var coreInstructions = []string{
	"Mantenha um tom conversacional natural.",
	"Seja preciso e direto nas respostas.",
	"Use linguagem clara e acessível.",
	"Evite formalidades ou prefixos desnecessários.",
	"Seja objetivo mas mantenha empatia.",
	"Comunique com entusiasmo genuíno.",
}

var programmingInstructions = []string{
	"Foque em explicações técnicas e código.",
	"Use exemplos específicos e práticos.",
	"Cite fontes técnicas quando relevante.",
}

var (
	ptHints = regexp.MustCompile(`[ãêõçáéíóúâôà]|você|exemplo|código|explicação`)
	esHints = regexp.MustCompile(`[ñáéíóú]|usted|código|ejemplo|explicar`)
)

// LanguageInstruction builds the reply-language preamble for a chat prompt.
func LanguageInstruction(msg string, topic Topic) string {
	lower := strings.ToLower(msg)

	instructions := coreInstructions
	if topic == TopicProgramming {
		instructions = append(append([]string{}, coreInstructions...), programmingInstructions...)
	}

	var opener string
	switch {
	case ptHints.MatchString(lower):
		opener = langInstrPT
	case esHints.MatchString(lower):
		opener = langInstrES
	default:
		opener = langInstrEN
	}

	return opener + "\n\n" + strings.Join(instructions, "\n") + "\n\n"
}

type prepPromptData struct {
	Task     string
	Language string
}

type codeTaskData struct {
	Task    string
	Context string
}

type codeGenData struct {
	Language string
	Task     string
}

var prepPromptTmpl = template.Must(template.New("prep").Parse(
	`Estruture um pedido preciso de código para: {{.Task}}
Considere:
1. Deve ser código em {{.Language}}
2. Inclua todos os detalhes técnicos necessários
3. Seja específico sobre a funcionalidade desejada
4. Mantenha apenas informações relevantes para o código

Responda apenas com o pedido estruturado, sem explicações adicionais.`))

// Per-language task prompts. Python gets the detailed form; the rest share a
// compact one.
var pythonTaskTmpl = template.Must(template.New("python").Parse(
	`Escreva apenas o código Python para: {{.Task}}

O código deve:
- Ser funcional e pronto para executar
- Incluir tratamento de erros básico
- Ter comentários explicativos
- Seguir PEP 8
- Não ter cabeçalhos ou docstrings desnecessários

{{.Context}}`))

var genericTaskTmpls = map[string]*template.Template{
	LangJavaScript: template.Must(template.New("javascript").Parse(
		"Gere exclusivamente código JavaScript funcional e completo para:\n{{.Task}}\n{{.Context}}")),
	LangHTML: template.Must(template.New("html").Parse(
		"Gere exclusivamente código HTML/CSS funcional e completo para:\n{{.Task}}\n{{.Context}}")),
	LangJava: template.Must(template.New("java").Parse(
		"Gere exclusivamente código Java funcional e completo para:\n{{.Task}}\n{{.Context}}")),
	LangCPP: template.Must(template.New("cpp").Parse(
		"Gere exclusivamente código C++ funcional e completo para:\n{{.Task}}\n{{.Context}}")),
}

var codeGenTmpl = template.Must(template.New("codegen").Parse(
	`Gere código {{.Language}} seguindo RIGOROSAMENTE estas diretrizes:

Contexto da Tarefa:
{{.Task}}

REGRAS ABSOLUTAS:
1. Código 100% funcional e executável
2. Sem comentários desnecessários
3. Foco em clareza e eficiência
4. Tratar casos de erro básicos
5. Usar boas práticas da linguagem

Gere APENAS o código, sem explicações, markdown ou prefixos.`))

func render(t *template.Template, data any) string {
	var sb strings.Builder
	// Templates are static and fields are strings; execution cannot fail.
	_ = t.Execute(&sb, data)
	return sb.String()
}

// BuildPrepPrompt asks the chat model to restructure a raw code request.
func BuildPrepPrompt(msg, language string) string {
	return render(prepPromptTmpl, prepPromptData{Task: msg, Language: language})
}

// BuildCodeTaskPrompt renders the per-language task description, including
// prior code context when available.
func BuildCodeTaskPrompt(language, task, codeContext string) string {
	data := codeTaskData{Task: strings.TrimSpace(task), Context: codeContext}
	if language == LangPython {
		return render(pythonTaskTmpl, data)
	}
	tmpl, ok := genericTaskTmpls[language]
	if !ok {
		tmpl = genericTaskTmpls[LangHTML]
	}
	return render(tmpl, data)
}

// BuildCodeGenerationPrompt wraps a task prompt in the strict code-only
// generation frame sent to the code model.
func BuildCodeGenerationPrompt(language, taskPrompt string) string {
	if language == "" {
		language = LangHTML
	}
	return render(codeGenTmpl, codeGenData{Language: language, Task: taskPrompt})
}
