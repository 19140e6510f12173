package assembly

import "github.com/example/stubgen/internal/cil"

// TypeVisible reports whether a type belongs on the public surface:
// public top-level types and nested types reachable from outside the
// assembly (nested public, protected and protected-internal).
func TypeVisible(f cil.TypeAttributes) bool {
	switch f & cil.TypeVisibilityMask {
	case cil.TypePublic, cil.TypeNestedPublic, cil.TypeNestedFamily, cil.TypeNestedFamORAsm:
		return true
	}
	return false
}

// Method, field, property-accessor and event-accessor rows share the
// same three-bit accessibility encoding; public, family and
// family-or-assembly are the levels reachable from outside.
func accessVisible(access uint16) bool {
	switch access {
	case uint16(cil.MethodPublic), uint16(cil.MethodFamily), uint16(cil.MethodFamORAsm):
		return true
	}
	return false
}

// MethodVisible reports whether a method's accessibility puts it on the
// public surface.
func MethodVisible(f cil.MethodAttributes) bool {
	return accessVisible(uint16(f & cil.MethodAccessMask))
}

// FieldVisible reports whether a field's accessibility puts it on the
// public surface.
func FieldVisible(f cil.FieldAttributes) bool {
	return accessVisible(uint16(f & cil.FieldAccessMask))
}

// PropertyVisible reports whether at least one accessor of the property
// is itself visible. The property takes the most permissive access of
// its accessors; the less visible accessor is dropped, not demoted.
func PropertyVisible(p *cil.Property) bool {
	return (p.Getter != nil && MethodVisible(p.Getter.Flags)) ||
		(p.Setter != nil && MethodVisible(p.Setter.Flags))
}

// EventVisible reports whether at least one accessor of the event is
// itself visible.
func EventVisible(e *cil.Event) bool {
	return (e.Adder != nil && MethodVisible(e.Adder.Flags)) ||
		(e.Remover != nil && MethodVisible(e.Remover.Flags))
}

func accessOf(access uint16) Access {
	switch access {
	case uint16(cil.MethodFamily):
		return AccessProtected
	case uint16(cil.MethodFamORAsm):
		return AccessProtectedInternal
	default:
		return AccessPublic
	}
}

func methodAccess(f cil.MethodAttributes) Access {
	return accessOf(uint16(f & cil.MethodAccessMask))
}

func fieldAccess(f cil.FieldAttributes) Access {
	return accessOf(uint16(f & cil.FieldAccessMask))
}

func typeAccess(f cil.TypeAttributes) Access {
	switch f & cil.TypeVisibilityMask {
	case cil.TypeNestedFamily:
		return AccessProtected
	case cil.TypeNestedFamORAsm:
		return AccessProtectedInternal
	default:
		return AccessPublic
	}
}

// mostPermissive returns the wider of two access levels; public beats
// protected internal beats protected.
func mostPermissive(a, b Access) Access {
	rank := func(x Access) int {
		switch x {
		case AccessPublic:
			return 2
		case AccessProtectedInternal:
			return 1
		default:
			return 0
		}
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}
