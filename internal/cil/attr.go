package cil

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const caProlog = 0x0001

// decodeCABlob decodes a custom-attribute value blob (ECMA-335 II.23.3)
// into rendered fixed and named arguments. ctorParams carries the
// constructor's parameter signatures, which drive the fixed-argument
// layout.
func decodeCABlob(blob []byte, ctorParams []TypeSig) (fixed, named []AttrArg, err error) {
	r := blobReader{data: blob}
	if r.uint16() != caProlog {
		return nil, nil, fmt.Errorf("missing custom attribute prolog")
	}
	for i := range ctorParams {
		v := readCAValue(&r, &ctorParams[i])
		if r.err != nil {
			return nil, nil, r.err
		}
		fixed = append(fixed, AttrArg{Value: v})
	}
	count := int(r.uint16())
	for i := 0; i < count; i++ {
		r.byte() // FIELD or PROPERTY marker
		ft := readCAFieldType(&r)
		name, _ := r.serString()
		v := readCAValue(&r, &ft)
		if r.err != nil {
			return fixed, named, r.err
		}
		named = append(named, AttrArg{Name: name, Value: v})
	}
	return fixed, named, r.err
}

// readCAFieldType decodes the FieldOrPropType production of a named
// argument into an equivalent TypeSig.
func readCAFieldType(r *blobReader) TypeSig {
	b := ElemType(r.byte())
	switch b {
	case elemCAEnum:
		name, _ := r.serString()
		return TypeSig{Kind: KindNamed, Name: splitCATypeName(name), IsValueType: true}
	case elemCAType:
		return TypeSig{Kind: KindNamed, Name: TypeName{Namespace: "System", Name: "Type"}}
	case elemCABoxed:
		return TypeSig{Kind: KindPrimitive, Elem: ElemObject}
	case ElemSZArray:
		inner := readCAFieldType(r)
		return TypeSig{Kind: KindSZArray, Inner: &inner}
	default:
		return TypeSig{Kind: KindPrimitive, Elem: b}
	}
}

// readCAValue reads and renders one serialized argument value of the given
// type.
func readCAValue(r *blobReader, t *TypeSig) string {
	switch t.Kind {
	case KindPrimitive:
		return readCAPrimitive(r, t.Elem)
	case KindSZArray:
		n := r.uint32()
		if n == 0xFFFFFFFF {
			return "null"
		}
		elems := make([]string, 0, n)
		for i := uint32(0); i < n && r.err == nil; i++ {
			elems = append(elems, readCAValue(r, t.Inner))
		}
		return "{ " + strings.Join(elems, ", ") + " }"
	case KindNamed:
		if t.Name.Namespace == "System" && t.Name.Name == "Type" {
			s, ok := r.serString()
			if !ok {
				return "null"
			}
			// Assembly-qualified names keep only the type part.
			if i := strings.IndexByte(s, ','); i >= 0 {
				s = s[:i]
			}
			return "typeof(" + s + ")"
		}
		// Enum values serialize as their underlying integral; the width is
		// not recoverable without resolving the enum, and int32 underlies
		// nearly every enum in practice.
		return strconv.FormatInt(int64(int32(r.uint32())), 10)
	default:
		r.fail("unsupported custom attribute argument kind %d", t.Kind)
		return ""
	}
}

func readCAPrimitive(r *blobReader, e ElemType) string {
	switch e {
	case ElemBool:
		if r.byte() != 0 {
			return "true"
		}
		return "false"
	case ElemChar:
		return strconv.QuoteRune(rune(r.uint16()))
	case ElemI1:
		return strconv.FormatInt(int64(int8(r.byte())), 10)
	case ElemU1:
		return strconv.FormatUint(uint64(r.byte()), 10)
	case ElemI2:
		return strconv.FormatInt(int64(int16(r.uint16())), 10)
	case ElemU2:
		return strconv.FormatUint(uint64(r.uint16()), 10)
	case ElemI4:
		return strconv.FormatInt(int64(int32(r.uint32())), 10)
	case ElemU4:
		return strconv.FormatUint(uint64(r.uint32()), 10)
	case ElemI8:
		return strconv.FormatInt(int64(r.uint64()), 10)
	case ElemU8:
		return strconv.FormatUint(r.uint64(), 10)
	case ElemR4:
		return strconv.FormatFloat(float64(math.Float32frombits(r.uint32())), 'g', -1, 32)
	case ElemR8:
		return strconv.FormatFloat(math.Float64frombits(r.uint64()), 'g', -1, 64)
	case ElemString:
		s, ok := r.serString()
		if !ok {
			return "null"
		}
		return strconv.Quote(s)
	case ElemObject:
		t := readCAFieldType(r)
		return readCAValue(r, &t)
	default:
		r.fail("unsupported primitive 0x%02x in custom attribute", byte(e))
		return ""
	}
}

// splitCATypeName splits a serialized (possibly assembly-qualified) type
// name into namespace and name.
func splitCATypeName(s string) TypeName {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return TypeName{Namespace: s[:i], Name: s[i+1:]}
	}
	return TypeName{Name: s}
}

// ByteFlags extracts the byte or byte[] constructor argument shared by the
// nullability bookkeeping attributes. It accepts both constructor shapes
// without needing the resolved signature.
func (a Attribute) ByteFlags() ([]byte, bool) {
	b := a.Raw
	if len(b) < 2 || binary.LittleEndian.Uint16(b) != caProlog {
		return nil, false
	}
	rest := b[2:]
	// byte[] shape: u32 element count, elements, u16 named-arg count.
	if len(rest) >= 4 {
		n := binary.LittleEndian.Uint32(rest)
		if n != 0xFFFFFFFF && int(n)+6 == len(rest) {
			return rest[4 : 4+n], true
		}
	}
	// single-byte shape: value, u16 named-arg count.
	if len(rest) == 3 {
		return rest[:1], true
	}
	return nil, false
}
