package cil

import (
	"fmt"
	"math"
	"sort"
	"unicode/utf16"

	"github.com/microsoft/go-winmd"
	"github.com/microsoft/go-winmd/coded"
)

type genericParamEntry struct {
	number uint16
	name   string
}

type semanticsEntry struct {
	semantics uint32
	methodRow winmd.Index
}

// resolver turns go-winmd table records into the resolved view structs.
// Cross-table relations that the physical format stores as separate
// tables (nesting, constants, attributes, accessor semantics) are
// indexed up front so type building stays a straight walk.
type resolver struct {
	md *winmd.Metadata

	nestedIn    map[winmd.Index]winmd.Index   // TypeDef row -> enclosing row
	children    map[winmd.Index][]winmd.Index // TypeDef row -> nested rows
	methodOwner map[winmd.Index]winmd.Index   // MethodDef row -> declaring TypeDef row

	constants     map[winmd.CodedIndex]*Constant
	attrRows      map[winmd.CodedIndex][]winmd.Index // parent -> CustomAttribute rows
	genericParams map[winmd.CodedIndex][]genericParamEntry
	semantics     map[winmd.CodedIndex][]semanticsEntry
	propRanges    map[winmd.Index]winmd.Slice        // TypeDef row -> Property rows
	eventRanges   map[winmd.Index]winmd.Slice        // TypeDef row -> Event rows

	typeCache map[winmd.Index]*Type
}

func newResolver(md *winmd.Metadata) *resolver {
	r := &resolver{
		md:            md,
		nestedIn:      map[winmd.Index]winmd.Index{},
		children:      map[winmd.Index][]winmd.Index{},
		methodOwner:   map[winmd.Index]winmd.Index{},
		constants:     map[winmd.CodedIndex]*Constant{},
		attrRows:      map[winmd.CodedIndex][]winmd.Index{},
		genericParams: map[winmd.CodedIndex][]genericParamEntry{},
		semantics:     map[winmd.CodedIndex][]semanticsEntry{},
		propRanges:    map[winmd.Index]winmd.Slice{},
		eventRanges:   map[winmd.Index]winmd.Slice{},
		typeCache:     map[winmd.Index]*Type{},
	}
	r.buildIndexes()
	return r
}

// blob resolves a blob column into its raw bytes. Signature and value
// blobs are decoded in this package: the library's signature readers
// stop short of property signatures, generic instantiations and
// custom-attribute values.
func (r *resolver) blob(b []byte) ([]byte, error) {
	return b, nil
}

func (r *resolver) buildIndexes() {
	md := r.md

	for i := uint32(0); i < md.Tables.NestedClass.Len; i++ {
		rec, err := md.Tables.NestedClass.Record(winmd.Index(i))
		if err != nil {
			continue
		}
		r.nestedIn[rec.NestedClass] = rec.EnclosingClass
		r.children[rec.EnclosingClass] = append(r.children[rec.EnclosingClass], rec.NestedClass)
	}

	for i := uint32(0); i < md.Tables.TypeDef.Len; i++ {
		td, err := md.Tables.TypeDef.Record(winmd.Index(i))
		if err != nil {
			continue
		}
		for m := td.MethodList.Start; m < td.MethodList.End; m++ {
			r.methodOwner[m] = winmd.Index(i)
		}
	}

	for i := uint32(0); i < md.Tables.Constant.Len; i++ {
		rec, err := md.Tables.Constant.Record(winmd.Index(i))
		if err != nil {
			continue
		}
		if c := r.decodeConstant(rec); c != nil {
			r.constants[rec.Parent] = c
		}
	}

	for i := uint32(0); i < md.Tables.CustomAttribute.Len; i++ {
		rec, err := md.Tables.CustomAttribute.Record(winmd.Index(i))
		if err != nil {
			continue
		}
		r.attrRows[rec.Parent] = append(r.attrRows[rec.Parent], winmd.Index(i))
	}

	for i := uint32(0); i < md.Tables.GenericParam.Len; i++ {
		rec, err := md.Tables.GenericParam.Record(winmd.Index(i))
		if err != nil {
			continue
		}
		r.genericParams[rec.Owner] = append(r.genericParams[rec.Owner], genericParamEntry{
			number: rec.Number,
			name:   rec.Name.String(),
		})
	}
	for _, list := range r.genericParams {
		sort.SliceStable(list, func(i, j int) bool { return list[i].number < list[j].number })
	}

	for i := uint32(0); i < md.Tables.MethodSemantics.Len; i++ {
		rec, err := md.Tables.MethodSemantics.Record(winmd.Index(i))
		if err != nil {
			continue
		}
		r.semantics[rec.Association] = append(r.semantics[rec.Association], semanticsEntry{
			semantics: uint32(rec.Semantics),
			methodRow: rec.Method,
		})
	}

	for i := uint32(0); i < md.Tables.PropertyMap.Len; i++ {
		rec, err := md.Tables.PropertyMap.Record(winmd.Index(i))
		if err != nil {
			continue
		}
		r.propRanges[rec.Parent] = rec.PropertyList
	}
	for i := uint32(0); i < md.Tables.EventMap.Len; i++ {
		rec, err := md.Tables.EventMap.Record(winmd.Index(i))
		if err != nil {
			continue
		}
		r.eventRanges[rec.Parent] = rec.EventList
	}
}

func (r *resolver) assemblyName() string {
	if r.md.Tables.Assembly.Len > 0 {
		if rec, err := r.md.Tables.Assembly.Record(0); err == nil {
			return rec.Name.String()
		}
	}
	if r.md.Tables.Module.Len > 0 {
		if rec, err := r.md.Tables.Module.Record(0); err == nil {
			return rec.Name.String()
		}
	}
	return ""
}

func (r *resolver) topLevelTypes() []*Type {
	var out []*Type
	for i := uint32(0); i < r.md.Tables.TypeDef.Len; i++ {
		idx := winmd.Index(i)
		if _, nested := r.nestedIn[idx]; nested {
			continue
		}
		t := r.buildType(idx)
		if t == nil || (t.Name == "<Module>" && t.Namespace == "") {
			continue
		}
		out = append(out, t)
	}
	return out
}

// sigToken implements sigResolver for tokens embedded in signature blobs,
// which stay raw-encoded (row << 2 | tag, 1-based) rather than using the
// decoded representation of the table columns.
func (r *resolver) sigToken(code uint32) (TypeName, *TypeSig, error) {
	row := code >> 2
	if row == 0 {
		return TypeName{}, nil, fmt.Errorf("null type token")
	}
	idx := winmd.Index(row - 1)
	switch code & 0x3 {
	case 0: // TypeDef
		return r.typeDefName(idx), nil, nil
	case 1: // TypeRef
		n, err := r.typeRefName(idx)
		return n, nil, err
	case 2: // TypeSpec
		sig, err := r.typeSpec(idx)
		if err != nil {
			return TypeName{}, nil, err
		}
		return sig.Name, &sig, nil
	default:
		return TypeName{}, nil, fmt.Errorf("invalid type token tag in signature")
	}
}

// typeDefName builds the dotted name of a TypeDef, walking the nesting
// chain so that nested types render as Outer.Inner under the outermost
// namespace.
func (r *resolver) typeDefName(row winmd.Index) TypeName {
	rec, err := r.md.Tables.TypeDef.Record(row)
	if err != nil {
		return TypeName{}
	}
	name := rec.Name.String()
	for {
		parent, ok := r.nestedIn[row]
		if !ok {
			break
		}
		prec, err := r.md.Tables.TypeDef.Record(parent)
		if err != nil {
			break
		}
		name = prec.Name.String() + "." + name
		rec = prec
		row = parent
	}
	return TypeName{Namespace: rec.Namespace.String(), Name: name}
}

func (r *resolver) typeRefName(row winmd.Index) (TypeName, error) {
	rec, err := r.md.Tables.TypeRef.Record(row)
	if err != nil {
		return TypeName{}, err
	}
	// Nested references scope to their enclosing TypeRef.
	if rec.ResolutionScope.Tag == coded.ResolutionScope_TypeRef {
		parent, err := r.typeRefName(rec.ResolutionScope.Index)
		if err != nil {
			return TypeName{}, err
		}
		return TypeName{Namespace: parent.Namespace, Name: parent.Name + "." + rec.Name.String()}, nil
	}
	return TypeName{Namespace: rec.Namespace.String(), Name: rec.Name.String()}, nil
}

func (r *resolver) typeSpec(row winmd.Index) (TypeSig, error) {
	rec, err := r.md.Tables.TypeSpec.Record(row)
	if err != nil {
		return TypeSig{}, err
	}
	blob, err := r.blob(rec.Signature)
	if err != nil {
		return TypeSig{}, err
	}
	return parseTypeSpecSig(blob, r)
}

// typeDefOrRef resolves a TypeDefOrRef coded column. Null or out-of-range
// targets yield a zero name with no error; the caller treats that as
// absent.
func (r *resolver) typeDefOrRef(ci winmd.CodedIndex) (TypeName, *TypeSig, error) {
	if ci == (winmd.CodedIndex{}) {
		return TypeName{}, nil, nil
	}
	switch ci.Tag {
	case coded.TypeDefOrRef_TypeDef:
		return r.typeDefName(ci.Index), nil, nil
	case coded.TypeDefOrRef_TypeRef:
		n, err := r.typeRefName(ci.Index)
		if err != nil {
			return TypeName{}, nil, nil
		}
		return n, nil, nil
	case coded.TypeDefOrRef_TypeSpec:
		sig, err := r.typeSpec(ci.Index)
		if err != nil {
			return TypeName{}, nil, err
		}
		return sig.Name, &sig, nil
	}
	return TypeName{}, nil, nil
}

func (r *resolver) buildType(row winmd.Index) *Type {
	if t, ok := r.typeCache[row]; ok {
		return t
	}
	md := r.md
	rec, err := md.Tables.TypeDef.Record(row)
	if err != nil {
		return nil
	}
	t := &Type{
		Name:      rec.Name.String(),
		Namespace: rec.Namespace.String(),
		Flags:     TypeAttributes(rec.Flags),
	}
	r.typeCache[row] = t

	if name, sig, err := r.typeDefOrRef(rec.Extends); err == nil {
		t.Extends = name
		t.ExtendsSig = sig
	}

	for i := uint32(0); i < md.Tables.InterfaceImpl.Len; i++ {
		impl, err := md.Tables.InterfaceImpl.Record(winmd.Index(i))
		if err != nil || impl.Class != row {
			continue
		}
		name, sig, err := r.typeDefOrRef(impl.Interface)
		if err != nil || name.IsZero() && sig == nil {
			continue
		}
		if sig != nil {
			t.Interfaces = append(t.Interfaces, *sig)
		} else {
			t.Interfaces = append(t.Interfaces, TypeSig{Kind: KindNamed, Name: name})
		}
	}

	owner := winmd.CodedIndex{Tag: coded.TypeOrMethodDef_TypeDef, Index: row}
	for _, gp := range r.genericParams[owner] {
		t.GenericParams = append(t.GenericParams, gp.name)
	}
	t.Attributes = r.attributesFor(winmd.CodedIndex{Tag: coded.HasCustomAttribute_TypeDef, Index: row})

	// Fields.
	for f := rec.FieldList.Start; f < rec.FieldList.End; f++ {
		fld, err := r.buildField(f)
		if err != nil {
			t.Errors = append(t.Errors, MemberError{Member: fld.Name, Reason: err.Error()})
			continue
		}
		t.Fields = append(t.Fields, fld)
	}

	// Methods, tracking row -> slice index for accessor wiring.
	methodIndex := map[winmd.Index]int{}
	for mr := rec.MethodList.Start; mr < rec.MethodList.End; mr++ {
		meth, err := r.buildMethod(mr)
		if err != nil {
			t.Errors = append(t.Errors, MemberError{Member: meth.Name, Reason: err.Error()})
			continue
		}
		methodIndex[mr] = len(t.Methods)
		t.Methods = append(t.Methods, meth)
	}
	accessor := func(row winmd.Index) *Method {
		if i, ok := methodIndex[row]; ok {
			return &t.Methods[i]
		}
		return nil
	}

	// Properties.
	if pr, ok := r.propRanges[row]; ok {
		for p := pr.Start; p < pr.End; p++ {
			prop, err := r.buildProperty(p)
			if err != nil {
				t.Errors = append(t.Errors, MemberError{Member: prop.Name, Reason: err.Error()})
				continue
			}
			for _, sem := range r.semantics[winmd.CodedIndex{Tag: coded.HasSemantics_Property, Index: p}] {
				switch {
				case sem.semantics&0x2 != 0:
					prop.Getter = accessor(sem.methodRow)
				case sem.semantics&0x1 != 0:
					prop.Setter = accessor(sem.methodRow)
				}
			}
			t.Properties = append(t.Properties, prop)
		}
	}

	// Events.
	if er, ok := r.eventRanges[row]; ok {
		for e := er.Start; e < er.End; e++ {
			ev, err := r.buildEvent(e)
			if err != nil {
				t.Errors = append(t.Errors, MemberError{Member: ev.Name, Reason: err.Error()})
				continue
			}
			for _, sem := range r.semantics[winmd.CodedIndex{Tag: coded.HasSemantics_Event, Index: e}] {
				switch {
				case sem.semantics&0x8 != 0:
					ev.Adder = accessor(sem.methodRow)
				case sem.semantics&0x10 != 0:
					ev.Remover = accessor(sem.methodRow)
				}
			}
			t.Events = append(t.Events, ev)
		}
	}

	for _, child := range r.children[row] {
		t.Nested = append(t.Nested, r.buildType(child))
	}
	return t
}

func (r *resolver) buildField(row winmd.Index) (Field, error) {
	rec, err := r.md.Tables.Field.Record(row)
	if err != nil {
		return Field{}, err
	}
	f := Field{
		Name:  rec.Name.String(),
		Flags: FieldAttributes(rec.Flags),
	}
	blob, err := r.blob(rec.Signature)
	if err != nil {
		return f, fmt.Errorf("field signature: %w", err)
	}
	f.Type, err = parseFieldSig(blob, r)
	if err != nil {
		return f, fmt.Errorf("field signature: %w", err)
	}
	f.Constant = r.constants[winmd.CodedIndex{Tag: coded.HasConstant_Field, Index: row}]
	f.Attributes = r.attributesFor(winmd.CodedIndex{Tag: coded.HasCustomAttribute_Field, Index: row})
	return f, nil
}

func (r *resolver) buildMethod(row winmd.Index) (Method, error) {
	rec, err := r.md.Tables.MethodDef.Record(row)
	if err != nil {
		return Method{}, err
	}
	m := Method{
		Name:  rec.Name.String(),
		Flags: MethodAttributes(rec.Flags),
	}
	blob, err := r.blob(rec.Signature)
	if err != nil {
		return m, fmt.Errorf("method signature: %w", err)
	}
	m.Sig, err = parseMethodSig(blob, r)
	if err != nil {
		return m, fmt.Errorf("method signature: %w", err)
	}

	key := winmd.CodedIndex{Tag: coded.TypeOrMethodDef_MethodDef, Index: row}
	for _, gp := range r.genericParams[key] {
		m.GenericParams = append(m.GenericParams, gp.name)
	}
	m.Attributes = r.attributesFor(winmd.CodedIndex{Tag: coded.HasCustomAttribute_MethodDef, Index: row})

	m.Params = make([]Param, len(m.Sig.Params))
	for p := rec.ParamList.Start; p < rec.ParamList.End; p++ {
		prec, err := r.md.Tables.Param.Record(p)
		if err != nil {
			continue
		}
		param := Param{
			Name:       prec.Name.String(),
			Flags:      ParamAttributes(prec.Flags),
			Constant:   r.constants[winmd.CodedIndex{Tag: coded.HasConstant_Param, Index: p}],
			Attributes: r.attributesFor(winmd.CodedIndex{Tag: coded.HasCustomAttribute_Param, Index: p}),
		}
		if seq := int(prec.Sequence); seq == 0 {
			m.ReturnParam = param
		} else if seq <= len(m.Params) {
			m.Params[seq-1] = param
		}
	}
	return m, nil
}

func (r *resolver) buildProperty(row winmd.Index) (Property, error) {
	rec, err := r.md.Tables.Property.Record(row)
	if err != nil {
		return Property{}, err
	}
	p := Property{Name: rec.Name.String()}

	blob, err := r.blob(rec.Type)
	if err != nil {
		return p, fmt.Errorf("property signature: %w", err)
	}
	p.Sig, err = parsePropertySig(blob, r)
	if err != nil {
		return p, fmt.Errorf("property signature: %w", err)
	}
	p.Attributes = r.attributesFor(winmd.CodedIndex{Tag: coded.HasCustomAttribute_Property, Index: row})
	return p, nil
}

func (r *resolver) buildEvent(row winmd.Index) (Event, error) {
	rec, err := r.md.Tables.Event.Record(row)
	if err != nil {
		return Event{}, err
	}
	e := Event{Name: rec.Name.String()}

	name, sig, err := r.typeDefOrRef(rec.EventType)
	if err != nil {
		return e, fmt.Errorf("event type: %w", err)
	}
	if sig != nil {
		e.Type = *sig
	} else {
		e.Type = TypeSig{Kind: KindNamed, Name: name}
	}
	e.Attributes = r.attributesFor(winmd.CodedIndex{Tag: coded.HasCustomAttribute_Event, Index: row})
	return e, nil
}

// attributesFor resolves and decodes every custom attribute applied to the
// given metadata row. Attributes whose value blob cannot be decoded keep
// only their type name and raw blob.
func (r *resolver) attributesFor(parent winmd.CodedIndex) []Attribute {
	rows := r.attrRows[parent]
	if len(rows) == 0 {
		return nil
	}
	out := make([]Attribute, 0, len(rows))
	for _, i := range rows {
		a, err := r.buildAttribute(i)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (r *resolver) buildAttribute(row winmd.Index) (Attribute, error) {
	rec, err := r.md.Tables.CustomAttribute.Record(row)
	if err != nil {
		return Attribute{}, err
	}

	var (
		name TypeName
		sig  MethodSig
	)
	switch rec.Type.Tag {
	case coded.CustomAttributeType_MethodDef:
		ctor, err := r.md.Tables.MethodDef.Record(rec.Type.Index)
		if err != nil {
			return Attribute{}, fmt.Errorf("attribute constructor: %w", err)
		}
		owner, ok := r.methodOwner[rec.Type.Index]
		if !ok {
			return Attribute{}, fmt.Errorf("attribute constructor without declaring type")
		}
		name = r.typeDefName(owner)
		blob, err := r.blob(ctor.Signature)
		if err != nil {
			return Attribute{}, err
		}
		if sig, err = parseMethodSig(blob, r); err != nil {
			return Attribute{}, err
		}
	case coded.CustomAttributeType_MemberRef:
		mref, err := r.md.Tables.MemberRef.Record(rec.Type.Index)
		if err != nil {
			return Attribute{}, fmt.Errorf("attribute constructor: %w", err)
		}
		switch mref.Class.Tag {
		case coded.MemberRefParent_TypeDef:
			name = r.typeDefName(mref.Class.Index)
		case coded.MemberRefParent_TypeRef:
			if name, err = r.typeRefName(mref.Class.Index); err != nil {
				return Attribute{}, err
			}
		case coded.MemberRefParent_TypeSpec:
			ts, err := r.typeSpec(mref.Class.Index)
			if err != nil {
				return Attribute{}, err
			}
			name = ts.Name
		default:
			return Attribute{}, fmt.Errorf("unsupported attribute constructor parent")
		}
		blob, err := r.blob(mref.Signature)
		if err != nil {
			return Attribute{}, err
		}
		if sig, err = parseMethodSig(blob, r); err != nil {
			return Attribute{}, err
		}
	default:
		return Attribute{}, fmt.Errorf("unsupported attribute constructor table")
	}

	a := Attribute{Type: name}
	if a.Raw, err = r.blob(rec.Value); err != nil {
		return Attribute{}, err
	}
	// Best effort: undecodable argument blobs keep the attribute usable
	// for flag extraction via Raw.
	if fixed, named, err := decodeCABlob(a.Raw, sig.Params); err == nil {
		a.Fixed = fixed
		a.Named = named
	}
	return a, nil
}

// decodeConstant decodes one Constant row into a typed value.
func (r *resolver) decodeConstant(rec *winmd.Constant) *Constant {
	blob, err := r.blob(rec.Value)
	if err != nil {
		return nil
	}
	br := blobReader{data: blob}
	c := &Constant{Type: ElemType(rec.Type)}
	switch c.Type {
	case ElemBool:
		c.Value = br.byte() != 0
	case ElemChar:
		c.Value = rune(br.uint16())
	case ElemI1:
		c.Value = int64(int8(br.byte()))
	case ElemU1:
		c.Value = uint64(br.byte())
	case ElemI2:
		c.Value = int64(int16(br.uint16()))
	case ElemU2:
		c.Value = uint64(br.uint16())
	case ElemI4:
		c.Value = int64(int32(br.uint32()))
	case ElemU4:
		c.Value = uint64(br.uint32())
	case ElemI8:
		c.Value = int64(br.uint64())
	case ElemU8:
		c.Value = br.uint64()
	case ElemR4:
		c.Value = float64(math.Float32frombits(br.uint32()))
	case ElemR8:
		c.Value = math.Float64frombits(br.uint64())
	case ElemString:
		u := make([]uint16, len(blob)/2)
		for i := range u {
			u[i] = uint16(blob[2*i]) | uint16(blob[2*i+1])<<8
		}
		c.Value = string(utf16.Decode(u))
	case ElemClass:
		c.Value = nil // null reference
	default:
		return nil
	}
	if br.err != nil {
		return nil
	}
	return c
}
