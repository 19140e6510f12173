// Package assembly projects the metadata view of a loaded assembly into
// the structured type model consumed by the emitter: visibility filtering,
// nullability decoding, display-type rendering and documentation-identifier
// construction all happen here.
package assembly

import "github.com/example/stubgen/internal/cil"

// TypeKind classifies a projected type.
type TypeKind int

const (
	KindClass TypeKind = iota
	KindInterface
	KindStruct
	KindEnum
	KindDelegate
)

func (k TypeKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindDelegate:
		return "delegate"
	default:
		return "class"
	}
}

// MemberKind classifies a projected member.
type MemberKind int

const (
	KindMethod MemberKind = iota
	KindProperty
	KindField
	KindEvent
	KindConstructor
)

// Access is the projected accessibility of a type or member. Only
// surface-visible levels appear in the model.
type Access int

const (
	AccessPublic Access = iota
	AccessProtected
	AccessProtectedInternal
)

// Keyword returns the C# modifier for the access level.
func (a Access) Keyword() string {
	switch a {
	case AccessProtected:
		return "protected"
	case AccessProtectedInternal:
		return "protected internal"
	default:
		return "public"
	}
}

// TypeModel is one projected type. Everything is fixed at construction;
// nothing is mutated after projection finishes.
type TypeModel struct {
	Name              string
	Namespace         string
	Kind              TypeKind
	IsGeneric         bool
	GenericParameters []string

	Access   Access
	Abstract bool
	Sealed   bool

	// BaseTypes lists rendered base class and interfaces, excluding the
	// implied roots (System.Object and the kind-specific bases).
	BaseTypes []string

	// UnderlyingType is set for enums whose backing type is not int.
	UnderlyingType string

	Members     []MemberModel
	NestedTypes []*TypeModel
	Attributes  []AttributeModel

	// DocID is the canonical documentation identifier ("T:...").
	DocID string

	// Origin is an opaque back-reference into the loaded assembly, used
	// only for re-querying, never for ownership.
	Origin *cil.Type
}

// MemberModel is one projected member, owned by its declaring TypeModel.
type MemberModel struct {
	Name      string
	Kind      MemberKind
	Signature string // rendered declaration core, without modifiers

	// ReturnType is the rendered return (or member) type; empty for
	// constructors.
	ReturnType string

	Parameters        []ParameterModel
	GenericParameters []string
	Attributes        []AttributeModel

	Access   Access
	Static   bool
	Abstract bool
	Virtual  bool
	Override bool
	Sealed   bool

	// Const and ReadOnly apply to fields; ConstantValue carries the
	// rendered literal for const fields and enum entries.
	Const         bool
	ReadOnly      bool
	ConstantValue string

	// Getter and Setter are set for properties; only accessors that pass
	// the visibility predicate individually are present.
	Getter *AccessorModel
	Setter *AccessorModel

	DocID  string
	Origin any
}

// AccessorModel is one property accessor that passed the visibility
// predicate.
type AccessorModel struct {
	Access Access
}

// ParameterModel is one rendered parameter.
type ParameterModel struct {
	Name         string
	DisplayType  string // nullability-annotated
	Modifier     string // "ref ", "out ", "in ", "this ", "params " or empty
	IsOptional   bool
	DefaultValue string // rendered literal; empty when none
}

// AttributeModel is one user-visible custom attribute.
type AttributeModel struct {
	FullTypeName string
	Arguments    []AttributeArgument
}

// AttributeArgument is one attribute argument; Name is empty for
// positional arguments.
type AttributeArgument struct {
	Name  string
	Value string
}
