package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidCodeFixtures(t *testing.T) {
	cv := NewCodeValidator()

	assert.True(t, cv.IsValidCode("def f(): pass", LangPython))
	assert.False(t, cv.IsValidCode("x=1\nx=1\nx=1", LangPython))
	assert.False(t, cv.IsValidCode("", LangPython))

	// Python without any structural construct is rejected.
	assert.False(t, cv.IsValidCode("x = 1\ny = 2\nz = x + y", LangPython))

	assert.True(t, cv.IsValidCode("import math\nprint(math.pi)", LangPython))
	assert.True(t, cv.IsValidCode("class Foo:\n    pass", LangPython))
}

func TestIsValidCodeHTMLNeedsSkeleton(t *testing.T) {
	cv := NewCodeValidator()

	full := "<!DOCTYPE html>\n<html>\n<body>\n<p>oi</p>\n</body>\n</html>"
	assert.True(t, cv.IsValidCode(full, LangHTML))

	assert.False(t, cv.IsValidCode("<p>apenas um parágrafo solto</p>", LangHTML))
	assert.False(t, cv.IsValidCode("<html>\n<body>\n<p>sem doctype</p>\n</body>", LangHTML))
}

func TestIsValidCodeJavaScript(t *testing.T) {
	cv := NewCodeValidator()

	assert.True(t, cv.IsValidCode("function soma(a, b) {\n  return a + b;\n}", LangJavaScript))
	assert.True(t, cv.IsValidCode("const total = 10;\nlet x = 2;\nconsole.log(x);", LangJavaScript))
	assert.False(t, cv.IsValidCode("alert('oi');\nalert('tchau');\ndocument.title = 'x';", LangJavaScript))
}

func TestIsValidCodeUnknownLanguageLengthGate(t *testing.T) {
	cv := NewCodeValidator()

	assert.False(t, cv.IsValidCode("puts 'oi'", "ruby"))
	assert.True(t, cv.IsValidCode("puts 'olá mundo'\nputs 'de novo'\nputs 'fim'", "ruby"))
}

func TestCleanAndValidateHTMLClosesDocument(t *testing.T) {
	cv := NewCodeValidator()

	in := "<!DOCTYPE html>\n<html>\n<head></head>\n<p>oi</p>"
	out := cv.CleanAndValidate(in, LangHTML)
	assert.True(t, strings.HasSuffix(out, "</body>\n</html>"))

	withBody := "<!DOCTYPE html>\n<html>\n<body>\n<p>oi</p>\n</body>"
	out = cv.CleanAndValidate(withBody, LangHTML)
	assert.True(t, strings.HasSuffix(out, "</html>"))
	assert.Equal(t, 1, strings.Count(out, "</body>"))
}

func TestCleanAndValidateHTMLCollapsesDuplicateMetas(t *testing.T) {
	cv := NewCodeValidator()

	in := "<html>\n<head>\n<meta charset=\"UTF-8\">\n<meta charset=\"UTF-8\">\n</head>\n<body></body>\n</html>"
	out := cv.CleanAndValidate(in, LangHTML)
	assert.Equal(t, 1, strings.Count(out, `<meta charset="UTF-8">`))
}

func TestCleanAndValidateHTMLCapsMetaCount(t *testing.T) {
	cv := NewCodeValidator()

	in := "<html>\n<head>\n" +
		"<meta name=\"a\">\n<meta name=\"b\">\n<meta name=\"c\">\n<meta name=\"d\">\n" +
		"</head>\n<body></body>\n</html>"
	out := cv.CleanAndValidate(in, LangHTML)

	metas := strings.Count(out, "<meta")
	assert.Equal(t, 2, metas)
	assert.Contains(t, out, `<meta charset="UTF-8">`)
	assert.Contains(t, out, "viewport")
	assert.NotContains(t, out, `<meta name="a">`)
}

func TestCleanAndValidatePythonCodingDeclaration(t *testing.T) {
	cv := NewCodeValidator()

	out := cv.CleanAndValidate("def f():\n    return 1", LangPython)
	assert.True(t, strings.HasPrefix(out, "# -*- coding: utf-8 -*-\n"))

	// Already declared: no duplicate.
	again := cv.CleanAndValidate(out, LangPython)
	assert.Equal(t, 1, strings.Count(again, "coding: utf-8"))
}

func TestCleanAndValidatePythonCollapsesDuplicateDocstrings(t *testing.T) {
	cv := NewCodeValidator()

	in := "# -*- coding: utf-8 -*-\n\"\"\"doc\"\"\"\n\"\"\"doc\"\"\"\ndef f():\n    return 1"
	out := cv.CleanAndValidate(in, LangPython)
	assert.Equal(t, 1, strings.Count(out, `"""doc"""`))
}

func TestCleanAndValidateIdempotent(t *testing.T) {
	cv := NewCodeValidator()

	htmlIn := "<html>\n<head>\n<meta name=\"a\">\n<meta name=\"a\">\n<meta name=\"b\">\n<meta name=\"c\">\n<meta name=\"d\">\n</head>\n<body><p>x</p>"
	once := cv.CleanAndValidate(htmlIn, LangHTML)
	twice := cv.CleanAndValidate(once, LangHTML)
	assert.Equal(t, once, twice)

	pyIn := "\"\"\"doc\"\"\"\n\"\"\"doc\"\"\"\ndef f():\n    return 1"
	onceP := cv.CleanAndValidate(pyIn, LangPython)
	twiceP := cv.CleanAndValidate(onceP, LangPython)
	assert.Equal(t, onceP, twiceP)
}

func TestCleanAndValidatePassThroughOtherLanguages(t *testing.T) {
	cv := NewCodeValidator()

	js := "function f() {\n  return 1;\n}"
	assert.Equal(t, js, cv.CleanAndValidate(js, LangJavaScript))
}
