package assembly

import "github.com/example/stubgen/internal/cil"

// Nullability is the decoded nullable state of one reference occurrence.
type Nullability int

const (
	// NullUnknown covers oblivious code compiled without nullable
	// annotations; no suffix is emitted.
	NullUnknown Nullability = iota
	NullNotNullable
	NullNullable
)

const (
	nullableAttrName    = "System.Runtime.CompilerServices.NullableAttribute"
	nullableCtxAttrName = "System.Runtime.CompilerServices.NullableContextAttribute"
)

const (
	flagOblivious byte = 0
	flagNotNull   byte = 1
	flagNullable  byte = 2
)

// NullabilityDecoder resolves nullable flags for the reference-type
// occurrences of one member. Flags come from three places, in priority
// order: a per-position byte sequence attached to the parameter or
// return row itself, a member-level sequence covering all positions in
// declaration order, and finally the context default inherited from the
// enclosing member or type.
type NullabilityDecoder struct {
	member    []byte
	positions map[int][]byte
	context   byte
}

// Flag resolves the nullable state for the reference occurrence at the
// given parameter position (0 is the return, 1..N the parameters) and
// local offset within that position (0 is the occurrence itself, higher
// offsets walk nested type arguments depth-first).
func (d *NullabilityDecoder) Flag(position, local int) Nullability {
	if d == nil {
		return NullUnknown
	}
	seq := d.positions[position]
	idx := local
	if seq == nil {
		seq = d.member
		idx = position + local
	}
	if len(seq) == 0 {
		return flagState(d.context)
	}
	// Single-flag sequences cover every occurrence; truncated sequences
	// fall back to their last flag rather than dropping annotations.
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	return flagState(seq[idx])
}

func flagState(f byte) Nullability {
	switch f {
	case flagNotNull:
		return NullNotNullable
	case flagNullable:
		return NullNullable
	default:
		return NullUnknown
	}
}

// nullableFlags extracts the byte sequence of a NullableAttribute from
// an attribute list, nil when absent or undecodable.
func nullableFlags(attrs []cil.Attribute) []byte {
	for _, a := range attrs {
		if a.Type.FullName() != nullableAttrName {
			continue
		}
		if flags, ok := a.ByteFlags(); ok {
			return flags
		}
	}
	return nil
}

// nullableContext extracts the flag of a NullableContextAttribute, with
// ok reporting presence.
func nullableContext(attrs []cil.Attribute) (byte, bool) {
	for _, a := range attrs {
		if a.Type.FullName() != nullableCtxAttrName {
			continue
		}
		if flags, ok := a.ByteFlags(); ok && len(flags) == 1 {
			return flags[0], true
		}
	}
	return 0, false
}

// methodNullability builds the decoder for a method: per-parameter
// sequences from the Param rows, a member-level sequence from the
// method's own attributes, and the context default resolved from the
// method before falling back to the declaring scope.
func methodNullability(m *cil.Method, scopeCtx byte) *NullabilityDecoder {
	d := &NullabilityDecoder{
		member:  nullableFlags(m.Attributes),
		context: scopeCtx,
	}
	if ctx, ok := nullableContext(m.Attributes); ok {
		d.context = ctx
	}
	if flags := nullableFlags(m.ReturnParam.Attributes); flags != nil {
		d.position(0, flags)
	}
	for i, p := range m.Params {
		if flags := nullableFlags(p.Attributes); flags != nil {
			d.position(i+1, flags)
		}
	}
	return d
}

// memberNullability builds the decoder for a single-typed member such
// as a field, property or event: one sequence, consumed at position 0.
func memberNullability(attrs []cil.Attribute, scopeCtx byte) *NullabilityDecoder {
	d := &NullabilityDecoder{
		member:  nullableFlags(attrs),
		context: scopeCtx,
	}
	if ctx, ok := nullableContext(attrs); ok {
		d.context = ctx
	}
	return d
}

func (d *NullabilityDecoder) position(pos int, flags []byte) {
	if d.positions == nil {
		d.positions = make(map[int][]byte)
	}
	d.positions[pos] = flags
}
