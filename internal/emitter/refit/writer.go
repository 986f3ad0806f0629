package refit

import (
	"fmt"
	"strings"
)

const indentUnit = "    "

// writer accumulates C# source with brace-aware indentation.
type writer struct {
	sb          strings.Builder
	indentLevel int
	linePrefix  string
}

func newWriter() *writer {
	return &writer{}
}

func (w *writer) indent() {
	w.indentLevel++
	w.linePrefix = strings.Repeat(indentUnit, w.indentLevel)
}

func (w *writer) dedent() {
	if w.indentLevel > 0 {
		w.indentLevel--
		w.linePrefix = strings.Repeat(indentUnit, w.indentLevel)
	}
}

// line writes s on its own line. Empty strings produce an empty line with
// no trailing whitespace.
func (w *writer) line(s string) {
	if s != "" {
		w.sb.WriteString(w.linePrefix)
		w.sb.WriteString(s)
	}
	w.sb.WriteByte('\n')
}

func (w *writer) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

// blank adds one empty line unless the output already ends with one or
// the current block was just opened.
func (w *writer) blank() {
	s := w.sb.String()
	if s == "" || strings.HasSuffix(s, "\n\n") || strings.HasSuffix(s, "{\n") {
		return
	}
	w.sb.WriteByte('\n')
}

// block writes opener, the indented content and a closing brace.
func (w *writer) block(opener string, content func()) {
	w.line(opener)
	w.line("{")
	w.indent()
	content()
	w.dedent()
	w.line("}")
}

// doc writes an XML documentation element, one comment line per text line.
func (w *writer) doc(tag, text string, attrs ...string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	open := tag
	if len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}
	w.linef("/// <%s>", open)
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimRight(l, " \t\r"); l == "" {
			w.line("///")
			continue
		}
		w.linef("/// %s", xmlEscape(l))
	}
	w.linef("/// </%s>", tag)
}

func (w *writer) String() string {
	return w.sb.String()
}

var xmlReplacer = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func xmlEscape(s string) string {
	return xmlReplacer.Replace(s)
}

// verbatim renders s as a C# verbatim string literal.
func verbatim(s string) string {
	return `@"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
