package engine

import (
	"regexp"
	"strings"
)

// Supported code generation targets.
const (
	LangPython     = "python"
	LangJavaScript = "javascript"
	LangHTML       = "html"
	LangJava       = "java"
	LangCPP        = "cpp"
)

// codeRequestTerms is the bilingual vocabulary that flags a message as a code
// request. Deliberately high recall: a false positive costs one code-model
// call, a false negative loses the feature.
var codeRequestTerms = []string{
	`html`, `css`, `div`, `body`, `head`, `form`, `input`, `campo`, `tabela`,
	`table`, `style`, `layout`, `visual`, `página`, `pagina`, `exiba`,
	`exibir`, `mostre`, `mostrar`, `botão`, `botao`, `button`,
	`crie`, `faça`, `código`, `script`, `programa`, `implemente`, `front`,
	`frontend`, `python`, `javascript`, `js`, `json`, `salvar como`,
	`template`, `arquivo `,
	`escreva`, `gere`, `demonstre`, `complete o código`, `monte um`,
	`desenvolva`, `interface`, `em html`, `em js`, `em css`,
	`code`, `generate an html`, `create an html`, `show code`,
	`display code`, `create a form`, `make an html`, `generate code`,
	`script in python`, `script in js`, `script in html`,
}

// langRule is one entry of the ordered language detection table.
type langRule struct {
	language string
	pattern  *regexp.Regexp
}

// IntentClassifier decides whether a message asks for code and, if so, which
// language. Detection is an explicit ordered rule list; the first matching
// rule wins.
type IntentClassifier struct {
	codeRequest  *regexp.Regexp
	continuation *regexp.Regexp
	pythonFamily []*regexp.Regexp
	langRules    []langRule
}

func NewIntentClassifier() *IntentClassifier {
	pythonPatterns := []string{
		`python|\.py|script python`,
		`input\s*\(|print\s*\(`,
		`def\s+\w+|class\s+\w+`,
		`while\s+|for\s+in`,
		`if\s+.*:|else\s*:`,
		`import\s+\w+`,
		`lista|dicionário|tupla`,
		`variável|função|método`,
		`calcul|loop|repet`,
		`tabuada|número|soma`,
	}
	family := make([]*regexp.Regexp, len(pythonPatterns))
	for i, p := range pythonPatterns {
		family[i] = regexp.MustCompile(p)
	}

	return &IntentClassifier{
		codeRequest:  regexp.MustCompile(strings.Join(codeRequestTerms, "|")),
		continuation: regexp.MustCompile(`continue|adicione|modifique|melhore`),
		pythonFamily: family,
		langRules: []langRule{
			{LangJavaScript, regexp.MustCompile(`javascript|js|node|\.js`)},
			{LangHTML, regexp.MustCompile(`html|página|site|blog|css`)},
			{LangJava, regexp.MustCompile(`java|\.java|classe|public class`)},
			{LangCPP, regexp.MustCompile(`c\+\+|cpp|\.cpp`)},
			{LangPython, regexp.MustCompile(`função|def|return|print`)},
			{LangHTML, regexp.MustCompile(`página|estilo|layout|design`)},
		},
	}
}

// IsCodeRequest reports whether the message asks for code generation.
func (ic *IntentClassifier) IsCodeRequest(msg string) bool {
	return ic.codeRequest.MatchString(strings.ToLower(msg))
}

// DetectCodeLanguage resolves the target language for a code request.
// lastLanguage is the language of the previous generated artifact ("" when
// none); codeContext is the prior-code context text ("" when none). Returns
// "" when no rule matches; the caller picks its own fallback.
func (ic *IntentClassifier) DetectCodeLanguage(msg, lastLanguage, codeContext string) string {
	lower := strings.ToLower(msg)

	// Continuations stay in the language of the last artifact.
	if lastLanguage != "" && ic.continuation.MatchString(lower) {
		return lastLanguage
	}

	for _, p := range ic.pythonFamily {
		if p.MatchString(lower) {
			return LangPython
		}
	}

	for _, rule := range ic.langRules {
		if rule.pattern.MatchString(lower) {
			return rule.language
		}
	}

	// Structural hints from previously generated code.
	if codeContext != "" {
		switch {
		case strings.Contains(codeContext, "def ") || strings.Contains(codeContext, "print("):
			return LangPython
		case strings.Contains(codeContext, "<html") || strings.Contains(codeContext, "<div"):
			return LangHTML
		case strings.Contains(codeContext, "function") || strings.Contains(codeContext, "const "):
			return LangJavaScript
		}
	}

	return ""
}
