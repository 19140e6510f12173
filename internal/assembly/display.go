package assembly

import (
	"strconv"
	"strings"

	"github.com/example/stubgen/internal/cil"
)

// primitiveNames maps signature element types to their C# keywords.
var primitiveNames = map[cil.ElemType]string{
	cil.ElemVoid:       "void",
	cil.ElemBool:       "bool",
	cil.ElemChar:       "char",
	cil.ElemI1:         "sbyte",
	cil.ElemU1:         "byte",
	cil.ElemI2:         "short",
	cil.ElemU2:         "ushort",
	cil.ElemI4:         "int",
	cil.ElemU4:         "uint",
	cil.ElemI8:         "long",
	cil.ElemU8:         "ulong",
	cil.ElemR4:         "float",
	cil.ElemR8:         "double",
	cil.ElemString:     "string",
	cil.ElemObject:     "object",
	cil.ElemI:          "IntPtr",
	cil.ElemU:          "UIntPtr",
	cil.ElemTypedByRef: "TypedReference",
}

// systemNames maps named references to System types onto their C#
// keywords. Most primitives arrive as element types; these cover the
// ones that only exist as type references, plus defensively the rest.
var systemNames = map[string]string{
	"System.Void":    "void",
	"System.Boolean": "bool",
	"System.Char":    "char",
	"System.SByte":   "sbyte",
	"System.Byte":    "byte",
	"System.Int16":   "short",
	"System.UInt16":  "ushort",
	"System.Int32":   "int",
	"System.UInt32":  "uint",
	"System.Int64":   "long",
	"System.UInt64":  "ulong",
	"System.Single":  "float",
	"System.Double":  "double",
	"System.Decimal": "decimal",
	"System.String":  "string",
	"System.Object":  "object",
	"System.IntPtr":  "IntPtr",
	"System.UIntPtr": "UIntPtr",
}

// typeDisplay renders signature trees into C# display types, using
// short keywords, namespace-stripped names and nullable suffixes.
type typeDisplay struct {
	typeParams   []string
	methodParams []string
	null         *NullabilityDecoder
}

// render renders the signature occupying the given member position
// (0 is the return or member type, 1..N the parameters).
func (td *typeDisplay) render(ts *cil.TypeSig, pos int) string {
	local := 0
	return td.renderNode(ts, pos, &local)
}

// renderNode walks the signature tree depth first. Each reference-type
// occurrence consumes the next local flag index; value types consume
// nothing.
func (td *typeDisplay) renderNode(ts *cil.TypeSig, pos int, local *int) string {
	switch ts.Kind {
	case cil.KindPrimitive:
		name := primitiveNames[ts.Elem]
		if name == "" {
			name = "object"
		}
		if ts.Elem == cil.ElemString || ts.Elem == cil.ElemObject {
			return name + td.suffix(pos, local)
		}
		return name

	case cil.KindNamed:
		if kw, ok := systemNames[ts.Name.FullName()]; ok {
			if kw == "string" || kw == "object" {
				return kw + td.suffix(pos, local)
			}
			return kw
		}
		name := stripArity(ts.Name.Name)
		if ts.IsValueType {
			return name
		}
		return name + td.suffix(pos, local)

	case cil.KindGenericInst:
		if ts.Name.FullName() == "System.Nullable`1" && len(ts.Args) == 1 {
			return td.renderNode(&ts.Args[0], pos, local) + "?"
		}
		sfx := ""
		if !ts.IsValueType {
			sfx = td.suffix(pos, local)
		}
		args := make([]string, len(ts.Args))
		for i := range ts.Args {
			args[i] = td.renderNode(&ts.Args[i], pos, local)
		}
		return stripArity(ts.Name.Name) + "<" + strings.Join(args, ", ") + ">" + sfx

	case cil.KindSZArray:
		sfx := td.suffix(pos, local)
		return td.renderNode(ts.Inner, pos, local) + "[]" + sfx

	case cil.KindArray:
		sfx := td.suffix(pos, local)
		commas := strings.Repeat(",", maxInt(ts.Rank, 1)-1)
		return td.renderNode(ts.Inner, pos, local) + "[" + commas + "]" + sfx

	case cil.KindPointer:
		return td.renderNode(ts.Inner, pos, local) + "*"

	case cil.KindTypeVar:
		return td.paramName(td.typeParams, ts.VarNumber) + td.suffix(pos, local)

	case cil.KindMethodVar:
		return td.paramName(td.methodParams, ts.VarNumber) + td.suffix(pos, local)

	case cil.KindFnPtr:
		return "IntPtr"

	default:
		return "object"
	}
}

// suffix consumes the next local flag index and yields "?" for
// occurrences annotated nullable.
func (td *typeDisplay) suffix(pos int, local *int) string {
	i := *local
	*local++
	if td.null.Flag(pos, i) == NullNullable {
		return "?"
	}
	return ""
}

func (td *typeDisplay) paramName(params []string, n int) string {
	if n >= 0 && n < len(params) {
		return params[n]
	}
	return "T" + strconv.Itoa(n)
}

// stripArity removes the `N arity suffix from every segment of a dotted
// type name, so "Outer`1.Inner`2" renders as "Outer.Inner".
func stripArity(name string) string {
	if !strings.ContainsRune(name, '`') {
		return name
	}
	segs := strings.Split(name, ".")
	for i, s := range segs {
		if j := strings.IndexByte(s, '`'); j >= 0 {
			segs[i] = s[:j]
		}
	}
	return strings.Join(segs, ".")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// renderConstant renders a decoded constant as a C# literal.
// valueType selects "default" over "null" for absent reference values.
func renderConstant(c *cil.Constant, valueType bool) string {
	if c == nil {
		return "default"
	}
	switch v := c.Value.(type) {
	case nil:
		if valueType {
			return "default"
		}
		return "null"
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return strconv.Quote(v)
	case rune:
		if c.Type == cil.ElemChar {
			return strconv.QuoteRune(v)
		}
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if c.Type == cil.ElemR4 {
			return s + "f"
		}
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	default:
		return "default"
	}
}
