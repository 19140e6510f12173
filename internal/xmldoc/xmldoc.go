// Package xmldoc reads compiler-generated XML documentation files and
// indexes their entries by canonical member identifier.
package xmldoc

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// Entry is the documentation attached to one member. Text fields keep
// their inline markup (see, paramref, c and friends) verbatim; only
// surrounding whitespace is normalized.
type Entry struct {
	Summary    string
	Remarks    string
	Returns    string
	Params     []NamedText
	TypeParams []NamedText
	Exceptions []NamedText
	Examples   []string
}

// NamedText pairs a name or cref with its documentation text.
type NamedText struct {
	Name string
	Text string
}

// IsEmpty reports whether the entry carries no text at all.
func (e *Entry) IsEmpty() bool {
	return e.Summary == "" && e.Remarks == "" && e.Returns == "" &&
		len(e.Params) == 0 && len(e.TypeParams) == 0 &&
		len(e.Exceptions) == 0 && len(e.Examples) == 0
}

// Index is a parsed documentation file.
type Index struct {
	assembly string
	entries  map[string]*Entry
}

// AssemblyName returns the name recorded in the file's assembly block.
func (x *Index) AssemblyName() string { return x.assembly }

// Lookup returns the entry for a canonical identifier such as
// "M:Ns.Type.Run(System.String)".
func (x *Index) Lookup(id string) (*Entry, bool) {
	if x == nil {
		return nil, false
	}
	e, ok := x.entries[id]
	return e, ok
}

// Len returns the number of indexed entries.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.entries)
}

type xmlText struct {
	Inner string `xml:",innerxml"`
}

type xmlNamed struct {
	Name  string `xml:"name,attr"`
	Cref  string `xml:"cref,attr"`
	Inner string `xml:",innerxml"`
}

type xmlMember struct {
	Name       string     `xml:"name,attr"`
	Summary    xmlText    `xml:"summary"`
	Remarks    xmlText    `xml:"remarks"`
	Returns    xmlText    `xml:"returns"`
	Params     []xmlNamed `xml:"param"`
	TypeParams []xmlNamed `xml:"typeparam"`
	Exceptions []xmlNamed `xml:"exception"`
	Examples   []xmlText  `xml:"example"`
}

type xmlFile struct {
	XMLName  xml.Name `xml:"doc"`
	Assembly struct {
		Name string `xml:"name"`
	} `xml:"assembly"`
	Members []xmlMember `xml:"members>member"`
}

// Load reads and parses the documentation file at path. A missing file
// is an error; callers decide whether documentation is optional.
func Load(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read documentation file: %w", err)
	}
	idx, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return idx, nil
}

// Parse parses documentation XML. Entries with no usable text and
// entries without a name are dropped.
func Parse(data []byte) (*Index, error) {
	var file xmlFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("malformed documentation XML: %w", err)
	}

	idx := &Index{
		assembly: strings.TrimSpace(file.Assembly.Name),
		entries:  make(map[string]*Entry, len(file.Members)),
	}
	for _, m := range file.Members {
		if m.Name == "" {
			continue
		}
		e := &Entry{
			Summary: normalize(m.Summary.Inner),
			Remarks: normalize(m.Remarks.Inner),
			Returns: normalize(m.Returns.Inner),
		}
		e.Params = namedTexts(m.Params, false)
		e.TypeParams = namedTexts(m.TypeParams, false)
		e.Exceptions = namedTexts(m.Exceptions, true)
		for _, ex := range m.Examples {
			if t := normalize(ex.Inner); t != "" {
				e.Examples = append(e.Examples, t)
			}
		}
		if e.IsEmpty() {
			continue
		}
		idx.entries[m.Name] = e
	}
	return idx, nil
}

func namedTexts(in []xmlNamed, byCref bool) []NamedText {
	var out []NamedText
	for _, n := range in {
		name := n.Name
		if byCref {
			name = strings.TrimPrefix(n.Cref, "T:")
		}
		text := normalize(n.Inner)
		if name == "" && text == "" {
			continue
		}
		out = append(out, NamedText{Name: name, Text: text})
	}
	return out
}

// normalize trims each line and collapses the block to single newlines,
// dropping blank leading and trailing lines.
func normalize(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, strings.TrimSpace(l))
	}
	for len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n")
}
