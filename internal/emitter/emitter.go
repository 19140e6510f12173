package emitter

import (
	"strings"

	"github.com/example/stubgen/internal/assembly"
	"github.com/example/stubgen/internal/xmldoc"
)

const placeholderBody = "{ /* Implementation omitted. */ }"

const indentStep = "    "

// Emitter renders type models into C# stub compilation units, joining
// in documentation entries by canonical identifier when available.
type Emitter struct {
	docs *xmldoc.Index
}

// New returns an emitter; docs may be nil when no documentation file
// was provided.
func New(docs *xmldoc.Index) *Emitter {
	return &Emitter{docs: docs}
}

// EmitFile renders one top-level type as a complete compilation unit,
// wrapped in its namespace block when the type has a namespace.
func (e *Emitter) EmitFile(t *assembly.TypeModel) string {
	var b strings.Builder
	indent := ""
	if t.Namespace != "" {
		b.WriteString("namespace " + t.Namespace + "\n{\n")
		indent = indentStep
	}
	e.writeType(&b, indent, t)
	if t.Namespace != "" {
		b.WriteString("}\n")
	}
	return b.String()
}

func (e *Emitter) entry(id string) *xmldoc.Entry {
	if e.docs == nil {
		return nil
	}
	ent, ok := e.docs.Lookup(id)
	if !ok {
		return nil
	}
	return ent
}

func (e *Emitter) writeType(b *strings.Builder, indent string, t *assembly.TypeModel) {
	// Delegates document their Invoke parameters on the type itself.
	var params []assembly.ParameterModel
	if t.Kind == assembly.KindDelegate && len(t.Members) > 0 {
		params = t.Members[0].Parameters
	}
	writeDocComment(b, indent, e.entry(t.DocID), params)
	writeAttributes(b, indent, t.Attributes)

	switch t.Kind {
	case assembly.KindDelegate:
		e.writeDelegate(b, indent, t)
		return
	case assembly.KindEnum:
		e.writeEnum(b, indent, t)
		return
	}

	b.WriteString(indent + typeModifiers(t) + " " + t.Kind.String() + " " + t.Name)
	writeGenericParams(b, t.GenericParameters)
	if len(t.BaseTypes) > 0 {
		b.WriteString(" : " + strings.Join(t.BaseTypes, ", "))
	}
	b.WriteString("\n" + indent + "{\n")

	inner := indent + indentStep
	first := true
	for i := range t.Members {
		if !first {
			b.WriteString("\n")
		}
		first = false
		e.writeMember(b, inner, t.Kind, &t.Members[i])
	}
	for _, nested := range t.NestedTypes {
		if !first {
			b.WriteString("\n")
		}
		first = false
		e.writeType(b, inner, nested)
	}
	b.WriteString(indent + "}\n")
}

func (e *Emitter) writeDelegate(b *strings.Builder, indent string, t *assembly.TypeModel) {
	ret := "void"
	var params []assembly.ParameterModel
	if len(t.Members) > 0 {
		ret = t.Members[0].ReturnType
		params = t.Members[0].Parameters
	}
	b.WriteString(indent + t.Access.Keyword() + " delegate " + ret + " " + t.Name)
	writeGenericParams(b, t.GenericParameters)
	b.WriteString("(" + renderParams(params) + ");\n")
}

func (e *Emitter) writeEnum(b *strings.Builder, indent string, t *assembly.TypeModel) {
	b.WriteString(indent + t.Access.Keyword() + " enum " + t.Name)
	if t.UnderlyingType != "" {
		b.WriteString(" : " + t.UnderlyingType)
	}
	b.WriteString("\n" + indent + "{\n")
	inner := indent + indentStep
	for i := range t.Members {
		m := &t.Members[i]
		writeDocComment(b, inner, e.entry(m.DocID), nil)
		writeAttributes(b, inner, m.Attributes)
		b.WriteString(inner + m.Name)
		if m.ConstantValue != "" {
			b.WriteString(" = " + m.ConstantValue)
		}
		b.WriteString(",\n")
	}
	b.WriteString(indent + "}\n")
}

func (e *Emitter) writeMember(b *strings.Builder, indent string, kind assembly.TypeKind, m *assembly.MemberModel) {
	writeDocComment(b, indent, e.entry(m.DocID), m.Parameters)
	writeAttributes(b, indent, m.Attributes)
	mods := memberModifiers(kind, m)

	switch m.Kind {
	case assembly.KindConstructor:
		b.WriteString(indent + mods + m.Signature + " " + placeholderBody + "\n")

	case assembly.KindMethod:
		if kind == assembly.KindInterface || m.Abstract {
			b.WriteString(indent + mods + m.Signature + ";\n")
			return
		}
		b.WriteString(indent + mods + m.Signature + " " + placeholderBody + "\n")

	case assembly.KindField:
		line := indent + mods + m.Signature
		if m.Const && m.ConstantValue != "" {
			line += " = " + m.ConstantValue
		}
		b.WriteString(line + ";\n")

	case assembly.KindProperty:
		head := m.ReturnType + " " + m.Name
		if len(m.Parameters) > 0 {
			head = m.ReturnType + " this[" + renderParams(m.Parameters) + "]"
		}
		bodyless := kind == assembly.KindInterface || m.Abstract
		b.WriteString(indent + mods + head + " " + propertyAccessors(m, bodyless) + "\n")

	case assembly.KindEvent:
		b.WriteString(indent + mods + "event " + m.ReturnType + " " + m.Name + ";\n")
	}
}

// propertyAccessors renders the accessor block. Plain properties use
// auto-property accessors; indexers need placeholder bodies unless the
// declaration is bodyless anyway.
func propertyAccessors(m *assembly.MemberModel, bodyless bool) string {
	indexer := len(m.Parameters) > 0
	var parts []string
	add := func(kw string, acc *assembly.AccessorModel) {
		if acc == nil {
			return
		}
		s := ""
		if acc.Access != m.Access {
			s = acc.Access.Keyword() + " "
		}
		s += kw
		if indexer && !bodyless {
			s += " " + placeholderBody
		} else {
			s += ";"
		}
		parts = append(parts, s)
	}
	add("get", m.Getter)
	add("set", m.Setter)
	return "{ " + strings.Join(parts, " ") + " }"
}

func renderParams(params []assembly.ParameterModel) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Modifier + p.DisplayType + " " + p.Name)
		if p.DefaultValue != "" {
			b.WriteString(" = " + p.DefaultValue)
		}
	}
	return b.String()
}

func writeGenericParams(b *strings.Builder, params []string) {
	if len(params) == 0 {
		return
	}
	b.WriteString("<" + strings.Join(params, ", ") + ">")
}

func writeAttributes(b *strings.Builder, indent string, attrs []assembly.AttributeModel) {
	for _, a := range attrs {
		b.WriteString(indent + "[" + attributeName(a.FullTypeName))
		if len(a.Arguments) > 0 {
			var args []string
			for _, arg := range a.Arguments {
				if arg.Name != "" {
					args = append(args, arg.Name+" = "+arg.Value)
				} else {
					args = append(args, arg.Value)
				}
			}
			b.WriteString("(" + strings.Join(args, ", ") + ")")
		}
		b.WriteString("]\n")
	}
}

// attributeName shortens a full attribute type name the way C# source
// writes it: namespace dropped, the Attribute suffix trimmed.
func attributeName(full string) string {
	name := full
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name != "Attribute" && strings.HasSuffix(name, "Attribute") {
		name = strings.TrimSuffix(name, "Attribute")
	}
	return name
}
