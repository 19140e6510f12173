package cil

import "strings"

// TypeAttributes mirrors the CorTypeAttr flags of a TypeDef row.
type TypeAttributes uint32

// Visibility and layout bits of TypeAttributes (ECMA-335 II.23.1.15).
const (
	TypeVisibilityMask  TypeAttributes = 0x7
	TypeNotPublic       TypeAttributes = 0x0
	TypePublic          TypeAttributes = 0x1
	TypeNestedPublic    TypeAttributes = 0x2
	TypeNestedPrivate   TypeAttributes = 0x3
	TypeNestedFamily    TypeAttributes = 0x4
	TypeNestedAssembly  TypeAttributes = 0x5
	TypeNestedFamANDAsm TypeAttributes = 0x6
	TypeNestedFamORAsm  TypeAttributes = 0x7

	TypeInterface   TypeAttributes = 0x20
	TypeAbstract    TypeAttributes = 0x80
	TypeSealed      TypeAttributes = 0x100
	TypeSpecialName TypeAttributes = 0x400
)

// MethodAttributes mirrors the CorMethodAttr flags of a MethodDef row.
type MethodAttributes uint16

const (
	MethodAccessMask MethodAttributes = 0x7
	MethodPrivate    MethodAttributes = 0x1
	MethodFamANDAsm  MethodAttributes = 0x2
	MethodAssembly   MethodAttributes = 0x3
	MethodFamily     MethodAttributes = 0x4
	MethodFamORAsm   MethodAttributes = 0x5
	MethodPublic     MethodAttributes = 0x6

	MethodStatic        MethodAttributes = 0x10
	MethodFinal         MethodAttributes = 0x20
	MethodVirtual       MethodAttributes = 0x40
	MethodHideBySig     MethodAttributes = 0x80
	MethodNewSlot       MethodAttributes = 0x100
	MethodAbstract      MethodAttributes = 0x400
	MethodSpecialName   MethodAttributes = 0x800
	MethodRTSpecialName MethodAttributes = 0x1000
)

// FieldAttributes mirrors the CorFieldAttr flags of a Field row.
type FieldAttributes uint16

const (
	FieldAccessMask FieldAttributes = 0x7
	FieldPrivate    FieldAttributes = 0x1
	FieldFamANDAsm  FieldAttributes = 0x2
	FieldAssembly   FieldAttributes = 0x3
	FieldFamily     FieldAttributes = 0x4
	FieldFamORAsm   FieldAttributes = 0x5
	FieldPublic     FieldAttributes = 0x6

	FieldStatic        FieldAttributes = 0x10
	FieldInitOnly      FieldAttributes = 0x20
	FieldLiteral       FieldAttributes = 0x40
	FieldSpecialName   FieldAttributes = 0x200
	FieldRTSpecialName FieldAttributes = 0x400
	FieldHasDefault    FieldAttributes = 0x8000
)

// ParamAttributes mirrors the CorParamAttr flags of a Param row.
type ParamAttributes uint16

const (
	ParamIn         ParamAttributes = 0x1
	ParamOut        ParamAttributes = 0x2
	ParamOptional   ParamAttributes = 0x10
	ParamHasDefault ParamAttributes = 0x1000
)

// TypeName is a namespace-qualified type name. Nested types carry their
// full dotted path in Name ("Outer.Inner") with the namespace of the
// outermost declaring type.
type TypeName struct {
	Namespace string
	Name      string
}

// FullName joins namespace and name with a dot. Types without a namespace
// return the bare name.
func (n TypeName) FullName() string {
	if n.Namespace == "" {
		return n.Name
	}
	return n.Namespace + "." + n.Name
}

// IsZero reports whether the name is unset.
func (n TypeName) IsZero() bool { return n.Name == "" }

// Type is the resolved view of one TypeDef row.
type Type struct {
	Name      string // metadata name including any `N arity suffix
	Namespace string // empty for nested types and for the global namespace
	Flags     TypeAttributes

	Extends    TypeName // zero when the type has no base (interfaces, <Module>)
	ExtendsSig *TypeSig // set instead of Extends when the base is a generic instantiation
	Interfaces []TypeSig

	Fields     []Field
	Methods    []Method
	Properties []Property
	Events     []Event
	Nested     []*Type

	GenericParams []string
	Attributes    []Attribute

	// Errors records members whose metadata could not be decoded; the
	// members themselves are left out of the lists above.
	Errors []MemberError
}

// MemberError identifies a member dropped during decoding and why.
type MemberError struct {
	Member string
	Reason string
}

// Arity returns the generic parameter count encoded in the name suffix,
// zero for non-generic types.
func (t *Type) Arity() int {
	i := strings.LastIndexByte(t.Name, '`')
	if i < 0 {
		return 0
	}
	n := 0
	for _, c := range t.Name[i+1:] {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// BareName returns the metadata name with any generic arity suffix removed.
func (t *Type) BareName() string {
	if i := strings.LastIndexByte(t.Name, '`'); i >= 0 && t.Arity() > 0 {
		return t.Name[:i]
	}
	return t.Name
}

// Field is the resolved view of one Field row.
type Field struct {
	Name       string
	Flags      FieldAttributes
	Type       TypeSig
	Constant   *Constant
	Attributes []Attribute
}

// Method is the resolved view of one MethodDef row, including accessor
// methods; consumers decide which to surface.
type Method struct {
	Name          string
	Flags         MethodAttributes
	Sig           MethodSig
	Params        []Param // aligned with Sig.Params by position
	ReturnParam   Param   // the sequence-0 Param row, when emitted
	GenericParams []string
	Attributes    []Attribute
}

// Param carries the Param-row side of a parameter: name, flags, any
// default value and its own custom attributes. The type lives in the
// method signature.
type Param struct {
	Name       string
	Flags      ParamAttributes
	Constant   *Constant
	Attributes []Attribute
}

// Property is the resolved view of one Property row with its accessors
// wired up from MethodSemantics.
type Property struct {
	Name       string
	Sig        PropertySig
	Getter     *Method
	Setter     *Method
	Attributes []Attribute
}

// Event is the resolved view of one Event row with its accessors wired up
// from MethodSemantics.
type Event struct {
	Name       string
	Type       TypeSig
	Adder      *Method
	Remover    *Method
	Attributes []Attribute
}

// Attribute is one custom attribute application. Args holds the decoded
// constructor and named arguments when the value blob could be decoded;
// Raw always holds the undecoded blob.
type Attribute struct {
	Type  TypeName
	Fixed []AttrArg
	Named []AttrArg
	Raw   []byte
}

// AttrArg is one rendered attribute argument. Name is empty for
// positional (constructor) arguments.
type AttrArg struct {
	Name  string
	Value string
}

// Constant is a decoded Constant-row value. Value is one of bool, rune,
// int64, uint64, float64, string, or nil for null references.
type Constant struct {
	Type  ElemType
	Value any
}
