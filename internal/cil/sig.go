package cil

import "fmt"

// ElemType is an ECMA-335 element type constant (II.23.1.16).
type ElemType byte

const (
	ElemEnd         ElemType = 0x00
	ElemVoid        ElemType = 0x01
	ElemBool        ElemType = 0x02
	ElemChar        ElemType = 0x03
	ElemI1          ElemType = 0x04
	ElemU1          ElemType = 0x05
	ElemI2          ElemType = 0x06
	ElemU2          ElemType = 0x07
	ElemI4          ElemType = 0x08
	ElemU4          ElemType = 0x09
	ElemI8          ElemType = 0x0A
	ElemU8          ElemType = 0x0B
	ElemR4          ElemType = 0x0C
	ElemR8          ElemType = 0x0D
	ElemString      ElemType = 0x0E
	ElemPtr         ElemType = 0x0F
	ElemByRef       ElemType = 0x10
	ElemValueType   ElemType = 0x11
	ElemClass       ElemType = 0x12
	ElemVar         ElemType = 0x13
	ElemArray       ElemType = 0x14
	ElemGenericInst ElemType = 0x15
	ElemTypedByRef  ElemType = 0x16
	ElemI           ElemType = 0x18
	ElemU           ElemType = 0x19
	ElemFnPtr       ElemType = 0x1B
	ElemObject      ElemType = 0x1C
	ElemSZArray     ElemType = 0x1D
	ElemMVar        ElemType = 0x1E
	ElemCModReqd    ElemType = 0x1F
	ElemCModOpt     ElemType = 0x20
	ElemSentinel    ElemType = 0x41
	ElemPinned      ElemType = 0x45

	// Custom-attribute named-argument type markers (II.23.3).
	elemCAType  ElemType = 0x50
	elemCABoxed ElemType = 0x51
	elemCAField ElemType = 0x53
	elemCAProp  ElemType = 0x54
	elemCAEnum  ElemType = 0x55
)

// IsValueKind reports whether the element type is an unboxed value type.
func (e ElemType) IsValueKind() bool {
	switch e {
	case ElemBool, ElemChar, ElemI1, ElemU1, ElemI2, ElemU2, ElemI4, ElemU4,
		ElemI8, ElemU8, ElemR4, ElemR8, ElemI, ElemU, ElemTypedByRef:
		return true
	}
	return false
}

// SigKind identifies the shape of a decoded type signature node.
type SigKind int

const (
	KindPrimitive SigKind = iota
	KindNamed
	KindGenericInst
	KindSZArray
	KindArray
	KindPointer
	KindTypeVar
	KindMethodVar
	KindFnPtr
)

// TypeSig is one node of a decoded type signature tree.
type TypeSig struct {
	Kind SigKind

	Elem        ElemType  // KindPrimitive
	Name        TypeName  // KindNamed, KindGenericInst
	IsValueType bool      // KindNamed, KindGenericInst
	Args        []TypeSig // KindGenericInst
	Inner       *TypeSig  // element of arrays and pointers
	Rank        int       // KindArray, >= 2 once normalized
	VarNumber   int       // KindTypeVar, KindMethodVar
	ByRef       bool      // set on parameter and return positions only
}

// IsVoid reports whether the node is the void primitive.
func (s *TypeSig) IsVoid() bool { return s.Kind == KindPrimitive && s.Elem == ElemVoid }

// MethodSig is a decoded MethodDef or MemberRef method signature.
type MethodSig struct {
	HasThis           bool
	GenericParamCount int
	Return            TypeSig
	Params            []TypeSig
}

// PropertySig is a decoded Property signature; Params is non-empty for
// indexers.
type PropertySig struct {
	HasThis bool
	Type    TypeSig
	Params  []TypeSig
}

// sigResolver resolves TypeDefOrRef tokens embedded in signature blobs.
type sigResolver interface {
	// typeDefOrRefName resolves an encoded TypeDefOrRef token into a
	// namespace-qualified name. For TypeSpec targets the full signature
	// is returned instead.
	sigToken(code uint32) (TypeName, *TypeSig, error)
}

type sigParser struct {
	r   blobReader
	res sigResolver
}

func parseFieldSig(blob []byte, res sigResolver) (TypeSig, error) {
	p := sigParser{r: blobReader{data: blob}, res: res}
	if conv := p.r.byte(); conv&0x0F != 0x6 {
		return TypeSig{}, fmt.Errorf("not a field signature (0x%02x)", conv)
	}
	ts := p.parseType()
	if p.r.err != nil {
		return TypeSig{}, p.r.err
	}
	return ts, nil
}

func parseMethodSig(blob []byte, res sigResolver) (MethodSig, error) {
	p := sigParser{r: blobReader{data: blob}, res: res}
	sig := p.parseMethodBody()
	if p.r.err != nil {
		return MethodSig{}, p.r.err
	}
	return sig, nil
}

func parsePropertySig(blob []byte, res sigResolver) (PropertySig, error) {
	p := sigParser{r: blobReader{data: blob}, res: res}
	conv := p.r.byte()
	if conv&0x0F != 0x8 {
		return PropertySig{}, fmt.Errorf("not a property signature (0x%02x)", conv)
	}
	sig := PropertySig{HasThis: conv&0x20 != 0}
	count := int(p.r.compressed())
	sig.Type = p.parseType()
	for i := 0; i < count && p.r.err == nil; i++ {
		sig.Params = append(sig.Params, p.parseParamType())
	}
	if p.r.err != nil {
		return PropertySig{}, p.r.err
	}
	return sig, nil
}

func parseTypeSpecSig(blob []byte, res sigResolver) (TypeSig, error) {
	p := sigParser{r: blobReader{data: blob}, res: res}
	ts := p.parseType()
	if p.r.err != nil {
		return TypeSig{}, p.r.err
	}
	return ts, nil
}

func (p *sigParser) parseMethodBody() MethodSig {
	conv := p.r.byte()
	sig := MethodSig{HasThis: conv&0x20 != 0}
	if conv&0x10 != 0 {
		sig.GenericParamCount = int(p.r.compressed())
	}
	count := int(p.r.compressed())
	sig.Return = p.parseParamType()
	for i := 0; i < count && p.r.err == nil; i++ {
		sig.Params = append(sig.Params, p.parseParamType())
	}
	return sig
}

// parseParamType parses a RetType/Param production: custom modifiers, an
// optional BYREF marker, then the type.
func (p *sigParser) parseParamType() TypeSig {
	p.skipModifiers()
	byref := false
	if ElemType(p.r.peek()) == ElemByRef {
		p.r.byte()
		byref = true
	}
	ts := p.parseType()
	ts.ByRef = byref
	return ts
}

func (p *sigParser) skipModifiers() {
	for {
		switch ElemType(p.r.peek()) {
		case ElemCModReqd, ElemCModOpt:
			p.r.byte()
			p.r.compressed() // TypeDefOrRef token of the modifier
		case ElemPinned, ElemSentinel:
			p.r.byte()
		default:
			return
		}
	}
}

func (p *sigParser) parseType() TypeSig {
	p.skipModifiers()
	b := ElemType(p.r.byte())
	switch b {
	case ElemVoid, ElemBool, ElemChar, ElemI1, ElemU1, ElemI2, ElemU2,
		ElemI4, ElemU4, ElemI8, ElemU8, ElemR4, ElemR8, ElemString,
		ElemObject, ElemI, ElemU, ElemTypedByRef:
		return TypeSig{Kind: KindPrimitive, Elem: b}

	case ElemPtr:
		inner := p.parseType()
		return TypeSig{Kind: KindPointer, Inner: &inner}

	case ElemByRef:
		// Tolerated out of position; the flag is surfaced on the node.
		inner := p.parseType()
		inner.ByRef = true
		return inner

	case ElemClass, ElemValueType:
		name, spec := p.resolveToken(p.r.compressed())
		if spec != nil {
			return *spec
		}
		return TypeSig{Kind: KindNamed, Name: name, IsValueType: b == ElemValueType}

	case ElemVar:
		return TypeSig{Kind: KindTypeVar, VarNumber: int(p.r.compressed())}
	case ElemMVar:
		return TypeSig{Kind: KindMethodVar, VarNumber: int(p.r.compressed())}

	case ElemSZArray:
		inner := p.parseType()
		return TypeSig{Kind: KindSZArray, Inner: &inner}

	case ElemArray:
		inner := p.parseType()
		rank := int(p.r.compressed())
		for n := int(p.r.compressed()); n > 0; n-- {
			p.r.compressed()
		}
		for n := int(p.r.compressed()); n > 0; n-- {
			p.r.compressedInt()
		}
		return TypeSig{Kind: KindArray, Inner: &inner, Rank: rank}

	case ElemGenericInst:
		kind := ElemType(p.r.byte())
		name, spec := p.resolveToken(p.r.compressed())
		if spec != nil {
			name = spec.Name
		}
		argc := int(p.r.compressed())
		sig := TypeSig{
			Kind:        KindGenericInst,
			Name:        name,
			IsValueType: kind == ElemValueType,
		}
		for i := 0; i < argc && p.r.err == nil; i++ {
			sig.Args = append(sig.Args, p.parseType())
		}
		return sig

	case ElemFnPtr:
		// Consume the nested method signature; function pointers surface
		// as an opaque node.
		p.parseMethodBody()
		return TypeSig{Kind: KindFnPtr}

	default:
		p.r.fail("unexpected element type 0x%02x in signature", byte(b))
		return TypeSig{}
	}
}

// resolveToken resolves a compressed TypeDefOrRef token via the resolver.
func (p *sigParser) resolveToken(code uint32) (TypeName, *TypeSig) {
	if p.res == nil {
		p.r.fail("signature references a type token but no resolver is set")
		return TypeName{}, nil
	}
	name, spec, err := p.res.sigToken(code)
	if err != nil {
		p.r.fail("resolve signature token: %v", err)
		return TypeName{}, nil
	}
	return name, spec
}
