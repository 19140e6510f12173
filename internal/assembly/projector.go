package assembly

import (
	"sort"
	"strconv"
	"strings"

	"github.com/example/stubgen/internal/cil"
)

// Warning records a non-fatal problem hit while projecting; the subject
// names the type or member that was skipped or degraded.
type Warning struct {
	Subject string
	Reason  string
}

const (
	compilerGeneratedAttr = "System.Runtime.CompilerServices.CompilerGeneratedAttribute"
	extensionAttr         = "System.Runtime.CompilerServices.ExtensionAttribute"
	paramArrayAttr        = "System.ParamArrayAttribute"
)

// hiddenAttrs are bookkeeping attributes consumed during projection and
// never surfaced on the model.
var hiddenAttrs = map[string]bool{
	nullableAttrName:      true,
	nullableCtxAttrName:   true,
	compilerGeneratedAttr: true,
	extensionAttr:         true,
	paramArrayAttr:        true,
	"System.Runtime.CompilerServices.AsyncStateMachineAttribute":    true,
	"System.Runtime.CompilerServices.IteratorStateMachineAttribute": true,
	"System.Runtime.CompilerServices.IsReadOnlyAttribute":           true,
	"System.Diagnostics.DebuggerStepThroughAttribute":               true,
}

type projector struct {
	warnings []Warning
}

// Project projects every surface-visible top-level type of a loaded
// assembly into the type model, collecting warnings for anything that
// had to be skipped.
func Project(asm *cil.Assembly) ([]*TypeModel, []Warning) {
	p := &projector{}
	var types []*TypeModel
	for _, t := range asm.Types {
		if !TypeVisible(t.Flags) || isCompilerGenerated(t.Attributes, t.Name) {
			continue
		}
		if tm := p.projectType(t, t.Namespace, "", 0); tm != nil {
			types = append(types, tm)
		}
	}
	return types, p.warnings
}

func (p *projector) warn(subject, reason string) {
	p.warnings = append(p.warnings, Warning{Subject: subject, Reason: reason})
}

func isCompilerGenerated(attrs []cil.Attribute, name string) bool {
	return strings.HasPrefix(name, "<") || hasAttr(attrs, compilerGeneratedAttr)
}

func hasAttr(attrs []cil.Attribute, fullName string) bool {
	for _, a := range attrs {
		if a.Type.FullName() == fullName {
			return true
		}
	}
	return false
}

// projectType projects one TypeDef. declPath is the dotted metadata
// path of the declaring types, empty at the top level; parentCtx is the
// nullable context inherited from the enclosing scope.
func (p *projector) projectType(t *cil.Type, ns, declPath string, parentCtx byte) (tm *TypeModel) {
	path := t.Name
	if declPath != "" {
		path = declPath + "." + t.Name
	}
	fullName := path
	if ns != "" {
		fullName = ns + "." + path
	}

	// One broken type must not take the run down with it.
	defer func() {
		if r := recover(); r != nil {
			p.warn(fullName, "projection failed: "+panicReason(r))
			tm = nil
		}
	}()

	ctx := parentCtx
	if c, ok := nullableContext(t.Attributes); ok {
		ctx = c
	}

	arity := t.Arity()
	if arity > len(t.GenericParams) {
		arity = len(t.GenericParams)
	}
	own := t.GenericParams[len(t.GenericParams)-arity:]

	tm = &TypeModel{
		Name:              t.BareName(),
		Namespace:         ns,
		Kind:              classifyKind(t),
		IsGeneric:         arity > 0,
		GenericParameters: own,
		Access:            typeAccess(t.Flags),
		Abstract:          t.Flags&cil.TypeAbstract != 0,
		Sealed:            t.Flags&cil.TypeSealed != 0,
		Attributes:        p.projectAttributes(t.Attributes),
		DocID:             typeDocID(fullName),
		Origin:            t,
	}

	for _, e := range t.Errors {
		p.warn(fullName+"."+e.Member, e.Reason)
	}

	switch tm.Kind {
	case KindEnum:
		p.projectEnum(t, tm, fullName)
	case KindDelegate:
		p.projectDelegate(t, tm, fullName, ctx)
	default:
		tm.BaseTypes = p.baseTypes(t, tm.Kind)
		p.projectMembers(t, tm, fullName, ctx)
	}

	for _, n := range t.Nested {
		if !TypeVisible(n.Flags) || isCompilerGenerated(n.Attributes, n.Name) {
			continue
		}
		if nested := p.projectType(n, ns, path, ctx); nested != nil {
			tm.NestedTypes = append(tm.NestedTypes, nested)
		}
	}
	return tm
}

func panicReason(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "unexpected failure"
}

func classifyKind(t *cil.Type) TypeKind {
	if t.Flags&cil.TypeInterface != 0 {
		return KindInterface
	}
	base := t.Extends.FullName()
	if t.ExtendsSig != nil {
		base = t.ExtendsSig.Name.FullName()
	}
	switch base {
	case "System.Enum":
		return KindEnum
	case "System.ValueType":
		return KindStruct
	case "System.MulticastDelegate", "System.Delegate":
		return KindDelegate
	}
	return KindClass
}

// baseTypes renders the explicit base list: the base class unless it is
// an implied root, then every implemented interface in metadata order.
func (p *projector) baseTypes(t *cil.Type, kind TypeKind) []string {
	td := &typeDisplay{typeParams: t.GenericParams}
	var bases []string
	if kind == KindClass {
		if t.ExtendsSig != nil {
			bases = append(bases, td.render(t.ExtendsSig, 0))
		} else if !t.Extends.IsZero() && t.Extends.FullName() != "System.Object" {
			bases = append(bases, stripArity(t.Extends.Name))
		}
	}
	for i := range t.Interfaces {
		bases = append(bases, td.render(&t.Interfaces[i], 0))
	}
	return bases
}

// projectEnum reduces the type to its underlying type and its literal
// entries, sorted ascending by value with declaration order breaking
// ties.
func (p *projector) projectEnum(t *cil.Type, tm *TypeModel, fullName string) {
	type entry struct {
		m MemberModel
		c *cil.Constant
	}
	var entries []entry
	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Name == "value__" {
			if name := primitiveNames[f.Type.Elem]; name != "" && name != "int" {
				tm.UnderlyingType = name
			}
			continue
		}
		if f.Flags&cil.FieldLiteral == 0 || !FieldVisible(f.Flags) {
			continue
		}
		if f.Constant == nil {
			p.warn(fullName+"."+f.Name, "enum entry has no constant value")
			continue
		}
		entries = append(entries, entry{
			m: MemberModel{
				Name:          f.Name,
				Kind:          KindField,
				Signature:     f.Name,
				Access:        AccessPublic,
				ConstantValue: renderConstant(f.Constant, true),
				Attributes:    p.projectAttributes(f.Attributes),
				DocID:         fieldDocID(fullName, f.Name),
				Origin:        f,
			},
			c: f.Constant,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return constantLess(entries[i].c, entries[j].c)
	})
	for _, e := range entries {
		tm.Members = append(tm.Members, e.m)
	}
}

// constantLess orders integral constants numerically across the signed
// and unsigned representations the decoder produces.
func constantLess(a, b *cil.Constant) bool {
	av, aneg := constantKey(a)
	bv, bneg := constantKey(b)
	if aneg != bneg {
		return aneg
	}
	if aneg {
		return av > bv
	}
	return av < bv
}

func constantKey(c *cil.Constant) (mag uint64, neg bool) {
	switch v := c.Value.(type) {
	case int64:
		if v < 0 {
			return uint64(-v), true
		}
		return uint64(v), false
	case uint64:
		return v, false
	case rune:
		return uint64(v), false
	default:
		return 0, false
	}
}

// projectDelegate surfaces the Invoke signature as the type's single
// member; the emitter folds it into the delegate declaration.
func (p *projector) projectDelegate(t *cil.Type, tm *TypeModel, fullName string, ctx byte) {
	for i := range t.Methods {
		m := &t.Methods[i]
		if m.Name != "Invoke" {
			continue
		}
		mm := p.projectMethod(t, m, fullName, ctx)
		tm.Members = append(tm.Members, mm)
		return
	}
	p.warn(fullName, "delegate type has no Invoke method")
}

func (p *projector) projectMembers(t *cil.Type, tm *TypeModel, fullName string, ctx byte) {
	for i := range t.Methods {
		m := &t.Methods[i]
		if isCompilerGenerated(m.Attributes, m.Name) || !MethodVisible(m.Flags) {
			continue
		}
		switch {
		case m.Name == ".cctor":
			continue
		case m.Name == ".ctor":
			mm := p.projectMethod(t, m, fullName, ctx)
			mm.Kind = KindConstructor
			mm.Name = tm.Name
			mm.ReturnType = ""
			mm.Signature = methodSignature(&mm)
			tm.Members = append(tm.Members, mm)
		case m.Flags&(cil.MethodSpecialName|cil.MethodRTSpecialName) != 0:
			// Accessor and operator methods are folded into their
			// owning properties and events.
			continue
		default:
			tm.Members = append(tm.Members, p.projectMethod(t, m, fullName, ctx))
		}
	}

	for i := range t.Fields {
		f := &t.Fields[i]
		if f.Flags&cil.FieldRTSpecialName != 0 ||
			isCompilerGenerated(f.Attributes, f.Name) || !FieldVisible(f.Flags) {
			continue
		}
		tm.Members = append(tm.Members, p.projectField(t, f, fullName, ctx))
	}

	for i := range t.Properties {
		pr := &t.Properties[i]
		if !PropertyVisible(pr) {
			continue
		}
		tm.Members = append(tm.Members, p.projectProperty(t, pr, fullName, ctx))
	}

	for i := range t.Events {
		ev := &t.Events[i]
		if !EventVisible(ev) {
			continue
		}
		tm.Members = append(tm.Members, p.projectEvent(t, ev, fullName, ctx))
	}
}

func (p *projector) projectMethod(t *cil.Type, m *cil.Method, fullName string, ctx byte) MemberModel {
	null := methodNullability(m, ctx)
	td := &typeDisplay{
		typeParams:   t.GenericParams,
		methodParams: m.GenericParams,
		null:         null,
	}

	mm := MemberModel{
		Name:              m.Name,
		Kind:              KindMethod,
		GenericParameters: m.GenericParams,
		Attributes:        p.projectAttributes(m.Attributes),
		Access:            methodAccess(m.Flags),
		Static:            m.Flags&cil.MethodStatic != 0,
		Abstract:          m.Flags&cil.MethodAbstract != 0,
		DocID:             methodDocID(fullName, m),
		Origin:            m,
	}
	if m.Flags&cil.MethodVirtual != 0 {
		if m.Flags&cil.MethodNewSlot == 0 {
			mm.Override = true
			mm.Sealed = m.Flags&cil.MethodFinal != 0
		} else if !mm.Abstract && m.Flags&cil.MethodFinal == 0 {
			mm.Virtual = true
		}
	}

	mm.ReturnType = td.render(&m.Sig.Return, 0)
	extension := mm.Static && hasAttr(m.Attributes, extensionAttr)

	for i := range m.Sig.Params {
		pm := ParameterModel{
			Name:        "arg" + strconv.Itoa(i),
			DisplayType: td.render(&m.Sig.Params[i], i+1),
		}
		var row *cil.Param
		if i < len(m.Params) {
			row = &m.Params[i]
		}
		if row != nil && row.Name != "" {
			pm.Name = row.Name
		}
		pm.Modifier = paramModifier(&m.Sig.Params[i], row)
		if extension && i == 0 {
			pm.Modifier = "this "
		}
		if row != nil {
			if row.Flags&cil.ParamOptional != 0 {
				pm.IsOptional = true
				pm.DefaultValue = renderConstant(row.Constant, isValueSig(&m.Sig.Params[i]))
			} else if row.Constant != nil {
				pm.DefaultValue = renderConstant(row.Constant, isValueSig(&m.Sig.Params[i]))
			}
		}
		mm.Parameters = append(mm.Parameters, pm)
	}

	mm.Signature = methodSignature(&mm)
	return mm
}

// paramModifier picks the by-reference keyword from the signature and
// the Param-row direction flags, or "params " for parameter arrays.
func paramModifier(sig *cil.TypeSig, row *cil.Param) string {
	if sig.ByRef {
		if row != nil {
			switch {
			case row.Flags&cil.ParamOut != 0 && row.Flags&cil.ParamIn == 0:
				return "out "
			case row.Flags&cil.ParamIn != 0 && row.Flags&cil.ParamOut == 0:
				return "in "
			}
		}
		return "ref "
	}
	if row != nil && hasAttr(row.Attributes, paramArrayAttr) {
		return "params "
	}
	return ""
}

func isValueSig(ts *cil.TypeSig) bool {
	switch ts.Kind {
	case cil.KindPrimitive:
		return ts.Elem.IsValueKind()
	case cil.KindNamed, cil.KindGenericInst:
		return ts.IsValueType
	}
	return false
}

func methodSignature(mm *MemberModel) string {
	var b strings.Builder
	if mm.ReturnType != "" {
		b.WriteString(mm.ReturnType)
		b.WriteByte(' ')
	}
	b.WriteString(mm.Name)
	if len(mm.GenericParameters) > 0 {
		b.WriteByte('<')
		b.WriteString(strings.Join(mm.GenericParameters, ", "))
		b.WriteByte('>')
	}
	b.WriteByte('(')
	for i, pm := range mm.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pm.Modifier)
		b.WriteString(pm.DisplayType)
		b.WriteByte(' ')
		b.WriteString(pm.Name)
		if pm.DefaultValue != "" {
			b.WriteString(" = ")
			b.WriteString(pm.DefaultValue)
		}
	}
	b.WriteByte(')')
	return b.String()
}

func (p *projector) projectField(t *cil.Type, f *cil.Field, fullName string, ctx byte) MemberModel {
	td := &typeDisplay{
		typeParams: t.GenericParams,
		null:       memberNullability(f.Attributes, ctx),
	}
	mm := MemberModel{
		Name:       f.Name,
		Kind:       KindField,
		ReturnType: td.render(&f.Type, 0),
		Attributes: p.projectAttributes(f.Attributes),
		Access:     fieldAccess(f.Flags),
		Static:     f.Flags&cil.FieldStatic != 0,
		Const:      f.Flags&cil.FieldLiteral != 0,
		ReadOnly:   f.Flags&cil.FieldInitOnly != 0,
		DocID:      fieldDocID(fullName, f.Name),
		Origin:     f,
	}
	if mm.Const && f.Constant != nil {
		mm.ConstantValue = renderConstant(f.Constant, isValueSig(&f.Type))
	}
	mm.Signature = mm.ReturnType + " " + mm.Name
	return mm
}

func (p *projector) projectProperty(t *cil.Type, pr *cil.Property, fullName string, ctx byte) MemberModel {
	td := &typeDisplay{
		typeParams: t.GenericParams,
		null:       memberNullability(pr.Attributes, ctx),
	}
	mm := MemberModel{
		Name:       pr.Name,
		Kind:       KindProperty,
		ReturnType: td.render(&pr.Sig.Type, 0),
		Attributes: p.projectAttributes(pr.Attributes),
		DocID:      propertyDocID(fullName, pr),
		Origin:     pr,
	}

	// The property takes the most permissive access among its visible
	// accessors; less visible accessors keep their own keyword.
	first := true
	accessor := func(m *cil.Method) *AccessorModel {
		if m == nil || !MethodVisible(m.Flags) {
			return nil
		}
		acc := methodAccess(m.Flags)
		if first {
			mm.Access = acc
			first = false
		} else {
			mm.Access = mostPermissive(mm.Access, acc)
		}
		mm.Static = mm.Static || m.Flags&cil.MethodStatic != 0
		if m.Flags&cil.MethodVirtual != 0 {
			if m.Flags&cil.MethodNewSlot == 0 {
				mm.Override = true
			} else if m.Flags&cil.MethodAbstract != 0 {
				mm.Abstract = true
			} else if m.Flags&cil.MethodFinal == 0 {
				mm.Virtual = true
			}
		}
		if m.Flags&cil.MethodAbstract != 0 {
			mm.Abstract = true
		}
		return &AccessorModel{Access: acc}
	}
	mm.Getter = accessor(pr.Getter)
	mm.Setter = accessor(pr.Setter)

	if len(pr.Sig.Params) > 0 {
		mm.Name = "this"
		mm.Parameters = indexerParams(td, pr)
	}

	mm.Signature = propertySignature(&mm)
	return mm
}

// indexerParams renders indexer parameters, taking names from the
// getter's Param rows or the setter's with the trailing value dropped.
func indexerParams(td *typeDisplay, pr *cil.Property) []ParameterModel {
	var rows []cil.Param
	if pr.Getter != nil {
		rows = pr.Getter.Params
	} else if pr.Setter != nil && len(pr.Setter.Params) > 0 {
		rows = pr.Setter.Params[:len(pr.Setter.Params)-1]
	}
	params := make([]ParameterModel, len(pr.Sig.Params))
	for i := range pr.Sig.Params {
		name := "index"
		if len(pr.Sig.Params) > 1 {
			name = "index" + strconv.Itoa(i)
		}
		if i < len(rows) && rows[i].Name != "" {
			name = rows[i].Name
		}
		params[i] = ParameterModel{
			Name:        name,
			DisplayType: td.render(&pr.Sig.Params[i], i+1),
		}
	}
	return params
}

func propertySignature(mm *MemberModel) string {
	var b strings.Builder
	b.WriteString(mm.ReturnType)
	b.WriteByte(' ')
	b.WriteString(mm.Name)
	if len(mm.Parameters) > 0 {
		b.WriteByte('[')
		for i, pm := range mm.Parameters {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(pm.DisplayType)
			b.WriteByte(' ')
			b.WriteString(pm.Name)
		}
		b.WriteByte(']')
	}
	b.WriteString(" {")
	if mm.Getter != nil {
		b.WriteString(" get;")
	}
	if mm.Setter != nil {
		b.WriteString(" set;")
	}
	b.WriteString(" }")
	return b.String()
}

func (p *projector) projectEvent(t *cil.Type, ev *cil.Event, fullName string, ctx byte) MemberModel {
	td := &typeDisplay{
		typeParams: t.GenericParams,
		null:       memberNullability(ev.Attributes, ctx),
	}
	mm := MemberModel{
		Name:       ev.Name,
		Kind:       KindEvent,
		ReturnType: td.render(&ev.Type, 0),
		Attributes: p.projectAttributes(ev.Attributes),
		DocID:      eventDocID(fullName, ev.Name),
		Origin:     ev,
	}
	acc := ev.Adder
	if acc == nil || !MethodVisible(acc.Flags) {
		acc = ev.Remover
	}
	if acc != nil {
		mm.Access = methodAccess(acc.Flags)
		mm.Static = acc.Flags&cil.MethodStatic != 0
		mm.Abstract = acc.Flags&cil.MethodAbstract != 0
		if acc.Flags&cil.MethodVirtual != 0 && acc.Flags&cil.MethodNewSlot == 0 {
			mm.Override = true
		}
	}
	mm.Signature = mm.ReturnType + " " + mm.Name
	return mm
}

func (p *projector) projectAttributes(attrs []cil.Attribute) []AttributeModel {
	var out []AttributeModel
	for _, a := range attrs {
		full := a.Type.FullName()
		if hiddenAttrs[full] {
			continue
		}
		am := AttributeModel{FullTypeName: full}
		for _, arg := range a.Fixed {
			am.Arguments = append(am.Arguments, AttributeArgument{Value: arg.Value})
		}
		for _, arg := range a.Named {
			am.Arguments = append(am.Arguments, AttributeArgument{Name: arg.Name, Value: arg.Value})
		}
		out = append(out, am)
	}
	return out
}
