// Package emitter renders projected type models into C# stub source and
// lays the rendered files out on disk paths with per-run deduplication.
package emitter

import (
	"strings"

	"github.com/example/stubgen/internal/assembly"
)

// typeModifiers derives the modifier list for a type declaration.
// Metadata marks static classes abstract and sealed at once; that pair
// collapses back to the static keyword.
func typeModifiers(t *assembly.TypeModel) string {
	parts := []string{t.Access.Keyword()}
	if t.Kind == assembly.KindClass {
		switch {
		case t.Abstract && t.Sealed:
			parts = append(parts, "static")
		case t.Abstract:
			parts = append(parts, "abstract")
		case t.Sealed:
			parts = append(parts, "sealed")
		}
	}
	return strings.Join(parts, " ")
}

// memberModifiers derives the modifier list for a member of the given
// declaring kind. Interface members carry no modifiers at all.
func memberModifiers(kind assembly.TypeKind, m *assembly.MemberModel) string {
	if kind == assembly.KindInterface {
		return ""
	}
	parts := []string{m.Access.Keyword()}
	if m.Const {
		parts = append(parts, "const")
		return strings.Join(parts, " ") + " "
	}
	if m.Static {
		parts = append(parts, "static")
	}
	switch {
	case m.Abstract && m.Override:
		parts = append(parts, "abstract", "override")
	case m.Abstract:
		parts = append(parts, "abstract")
	case m.Sealed && m.Override:
		parts = append(parts, "sealed", "override")
	case m.Override:
		parts = append(parts, "override")
	case m.Virtual:
		parts = append(parts, "virtual")
	}
	if m.ReadOnly {
		parts = append(parts, "readonly")
	}
	return strings.Join(parts, " ") + " "
}
