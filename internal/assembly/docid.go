package assembly

import (
	"strconv"
	"strings"

	"github.com/example/stubgen/internal/cil"
)

// Canonical documentation identifiers, as produced by the C# compiler
// for XML doc files: a kind prefix, the dotted metadata name of the
// declaring type, and for methods a parenthesised parameter list using
// full type names with "{...}" for generic instantiations.

// docSystemNames maps primitive element types back to their full
// System names for use inside identifiers.
var docSystemNames = map[cil.ElemType]string{
	cil.ElemVoid:       "System.Void",
	cil.ElemBool:       "System.Boolean",
	cil.ElemChar:       "System.Char",
	cil.ElemI1:         "System.SByte",
	cil.ElemU1:         "System.Byte",
	cil.ElemI2:         "System.Int16",
	cil.ElemU2:         "System.UInt16",
	cil.ElemI4:         "System.Int32",
	cil.ElemU4:         "System.UInt32",
	cil.ElemI8:         "System.Int64",
	cil.ElemU8:         "System.UInt64",
	cil.ElemR4:         "System.Single",
	cil.ElemR8:         "System.Double",
	cil.ElemString:     "System.String",
	cil.ElemObject:     "System.Object",
	cil.ElemI:          "System.IntPtr",
	cil.ElemU:          "System.UIntPtr",
	cil.ElemTypedByRef: "System.TypedReference",
}

// typeDocID builds the "T:" identifier for a type from its full dotted
// metadata name (arity suffixes included).
func typeDocID(fullName string) string {
	return "T:" + fullName
}

// fieldDocID builds the "F:" identifier for a field or enum entry.
func fieldDocID(declaring, name string) string {
	return "F:" + declaring + "." + name
}

// eventDocID builds the "E:" identifier for an event.
func eventDocID(declaring, name string) string {
	return "E:" + declaring + "." + name
}

// propertyDocID builds the "P:" identifier for a property; indexers
// carry their parameter list.
func propertyDocID(declaring string, p *cil.Property) string {
	id := "P:" + declaring + "." + docMemberName(p.Name)
	if len(p.Sig.Params) > 0 {
		id += docParamList(p.Sig.Params)
	}
	return id
}

// methodDocID builds the "M:" identifier for a method or constructor.
func methodDocID(declaring string, m *cil.Method) string {
	name := docMemberName(m.Name)
	if m.Sig.GenericParamCount > 0 {
		name += "``" + strconv.Itoa(m.Sig.GenericParamCount)
	}
	id := "M:" + declaring + "." + name
	if len(m.Sig.Params) > 0 {
		id += docParamList(m.Sig.Params)
	}
	return id
}

// docMemberName maps metadata member names into identifier form:
// ".ctor" becomes "#ctor" and explicit-implementation dots are kept.
func docMemberName(name string) string {
	return strings.ReplaceAll(name, ".", "#")
}

func docParamList(params []cil.TypeSig) string {
	parts := make([]string, len(params))
	for i := range params {
		parts[i] = docTypeName(&params[i])
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// docTypeName renders one signature node in identifier form.
func docTypeName(ts *cil.TypeSig) string {
	s := docBareTypeName(ts)
	if ts.ByRef {
		s += "@"
	}
	return s
}

func docBareTypeName(ts *cil.TypeSig) string {
	switch ts.Kind {
	case cil.KindPrimitive:
		if n, ok := docSystemNames[ts.Elem]; ok {
			return n
		}
		return "System.Object"

	case cil.KindNamed:
		return ts.Name.FullName()

	case cil.KindGenericInst:
		full := ts.Name.FullName()
		if i := strings.LastIndexByte(full, '`'); i >= 0 {
			full = full[:i]
		}
		args := make([]string, len(ts.Args))
		for i := range ts.Args {
			args[i] = docTypeName(&ts.Args[i])
		}
		return full + "{" + strings.Join(args, ",") + "}"

	case cil.KindSZArray:
		return docBareTypeName(ts.Inner) + "[]"

	case cil.KindArray:
		commas := strings.Repeat(",", maxInt(ts.Rank, 1)-1)
		return docBareTypeName(ts.Inner) + "[" + commas + "]"

	case cil.KindPointer:
		return docBareTypeName(ts.Inner) + "*"

	case cil.KindTypeVar:
		return "`" + strconv.Itoa(ts.VarNumber)

	case cil.KindMethodVar:
		return "``" + strconv.Itoa(ts.VarNumber)

	default:
		return "System.IntPtr"
	}
}
