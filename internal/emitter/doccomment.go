package emitter

import (
	"strings"

	"github.com/example/stubgen/internal/assembly"
	"github.com/example/stubgen/internal/xmldoc"
)

// writeDocComment renders an entry as /// lines in fixed order: summary,
// typeparam, param, returns, exception, remarks, example. Parameters
// follow the declared order of the member; undocumented ones are skipped.
func writeDocComment(b *strings.Builder, indent string, e *xmldoc.Entry, params []assembly.ParameterModel) {
	if e == nil || e.IsEmpty() {
		return
	}
	if e.Summary != "" {
		writeDocBlock(b, indent, "summary", e.Summary)
	}
	for _, tp := range e.TypeParams {
		writeDocTagged(b, indent, "typeparam", "name", tp.Name, tp.Text)
	}
	for _, p := range params {
		if text := lookupNamed(e.Params, p.Name); text != "" {
			writeDocTagged(b, indent, "param", "name", p.Name, text)
		}
	}
	if e.Returns != "" {
		writeDocInline(b, indent, "returns", e.Returns)
	}
	for _, ex := range e.Exceptions {
		writeDocTagged(b, indent, "exception", "cref", ex.Name, ex.Text)
	}
	if e.Remarks != "" {
		writeDocBlock(b, indent, "remarks", e.Remarks)
	}
	for _, ex := range e.Examples {
		writeDocBlock(b, indent, "example", ex)
	}
}

func lookupNamed(list []xmldoc.NamedText, name string) string {
	for _, n := range list {
		if n.Name == name {
			return n.Text
		}
	}
	return ""
}

// writeDocBlock renders a tag with its opening and closing markers on
// their own lines, the way the C# compiler lays out summaries.
func writeDocBlock(b *strings.Builder, indent, tag, text string) {
	b.WriteString(indent + "/// <" + tag + ">\n")
	writeDocLines(b, indent, text)
	b.WriteString(indent + "/// </" + tag + ">\n")
}

// writeDocInline renders single-line values inline and falls back to
// block form for multi-line text.
func writeDocInline(b *strings.Builder, indent, tag, text string) {
	if !strings.Contains(text, "\n") {
		b.WriteString(indent + "/// <" + tag + ">" + text + "</" + tag + ">\n")
		return
	}
	writeDocBlock(b, indent, tag, text)
}

func writeDocTagged(b *strings.Builder, indent, tag, attr, value, text string) {
	open := "<" + tag + " " + attr + `="` + value + `">`
	if !strings.Contains(text, "\n") {
		b.WriteString(indent + "/// " + open + text + "</" + tag + ">\n")
		return
	}
	b.WriteString(indent + "/// " + open + "\n")
	writeDocLines(b, indent, text)
	b.WriteString(indent + "/// </" + tag + ">\n")
}

func writeDocLines(b *strings.Builder, indent, text string) {
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			b.WriteString(indent + "///\n")
			continue
		}
		b.WriteString(indent + "/// " + line + "\n")
	}
}
