package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/stubgen/internal/cil"
)

func prim(e cil.ElemType) *cil.TypeSig {
	return &cil.TypeSig{Kind: cil.KindPrimitive, Elem: e}
}

func named(ns, name string, value bool) *cil.TypeSig {
	return &cil.TypeSig{
		Kind:        cil.KindNamed,
		Name:        cil.TypeName{Namespace: ns, Name: name},
		IsValueType: value,
	}
}

func TestRenderPrimitives(t *testing.T) {
	td := &typeDisplay{}
	assert.Equal(t, "int", td.render(prim(cil.ElemI4), 0))
	assert.Equal(t, "string", td.render(prim(cil.ElemString), 0))
	assert.Equal(t, "void", td.render(prim(cil.ElemVoid), 0))
	assert.Equal(t, "IntPtr", td.render(prim(cil.ElemI), 0))
}

func TestRenderNamedTypesDropNamespace(t *testing.T) {
	td := &typeDisplay{}
	assert.Equal(t, "StringBuilder", td.render(named("System.Text", "StringBuilder", false), 0))
	assert.Equal(t, "decimal", td.render(named("System", "Decimal", true), 0))
	assert.Equal(t, "Outer.Inner", td.render(named("Lib", "Outer`1.Inner", false), 0))
}

func TestRenderGenericInstantiation(t *testing.T) {
	td := &typeDisplay{}
	ts := &cil.TypeSig{
		Kind: cil.KindGenericInst,
		Name: cil.TypeName{Namespace: "System.Collections.Generic", Name: "Dictionary`2"},
		Args: []cil.TypeSig{*prim(cil.ElemString), *prim(cil.ElemI4)},
	}
	assert.Equal(t, "Dictionary<string, int>", td.render(ts, 0))
}

func TestRenderNullableValueType(t *testing.T) {
	td := &typeDisplay{}
	ts := &cil.TypeSig{
		Kind:        cil.KindGenericInst,
		Name:        cil.TypeName{Namespace: "System", Name: "Nullable`1"},
		IsValueType: true,
		Args:        []cil.TypeSig{*prim(cil.ElemI4)},
	}
	assert.Equal(t, "int?", td.render(ts, 0))
}

func TestRenderNullableAnnotations(t *testing.T) {
	// List<string?>? at position 1: outer list nullable, element nullable.
	d := &NullabilityDecoder{}
	d.position(1, []byte{2, 2})
	td := &typeDisplay{null: d}
	ts := &cil.TypeSig{
		Kind: cil.KindGenericInst,
		Name: cil.TypeName{Namespace: "System.Collections.Generic", Name: "List`1"},
		Args: []cil.TypeSig{*prim(cil.ElemString)},
	}
	assert.Equal(t, "List<string>?", td.render(ts, 1))

	d = &NullabilityDecoder{}
	d.position(1, []byte{1, 2})
	td = &typeDisplay{null: d}
	assert.Equal(t, "List<string?>", td.render(ts, 1))
}

func TestRenderArrays(t *testing.T) {
	td := &typeDisplay{}
	sz := &cil.TypeSig{Kind: cil.KindSZArray, Inner: prim(cil.ElemString)}
	assert.Equal(t, "string[]", td.render(sz, 0))

	multi := &cil.TypeSig{Kind: cil.KindArray, Inner: prim(cil.ElemI4), Rank: 2}
	assert.Equal(t, "int[,]", td.render(multi, 0))

	jagged := &cil.TypeSig{Kind: cil.KindSZArray, Inner: sz}
	assert.Equal(t, "string[][]", td.render(jagged, 0))
}

func TestRenderArrayNullability(t *testing.T) {
	// string?[] vs string[]?: the array consumes the first flag, the
	// element the second.
	sz := &cil.TypeSig{Kind: cil.KindSZArray, Inner: prim(cil.ElemString)}

	d := &NullabilityDecoder{member: []byte{1, 2}}
	td := &typeDisplay{null: d}
	assert.Equal(t, "string?[]", td.render(sz, 0))

	d = &NullabilityDecoder{member: []byte{2, 1}}
	td = &typeDisplay{null: d}
	assert.Equal(t, "string[]?", td.render(sz, 0))
}

func TestRenderGenericParameters(t *testing.T) {
	td := &typeDisplay{
		typeParams:   []string{"TKey", "TValue"},
		methodParams: []string{"TResult"},
	}
	assert.Equal(t, "TValue", td.render(&cil.TypeSig{Kind: cil.KindTypeVar, VarNumber: 1}, 0))
	assert.Equal(t, "TResult", td.render(&cil.TypeSig{Kind: cil.KindMethodVar}, 0))
	// Out-of-range numbers fall back to a positional name.
	assert.Equal(t, "T5", td.render(&cil.TypeSig{Kind: cil.KindTypeVar, VarNumber: 5}, 0))
}

func TestRenderPointer(t *testing.T) {
	td := &typeDisplay{}
	ts := &cil.TypeSig{Kind: cil.KindPointer, Inner: prim(cil.ElemU1)}
	assert.Equal(t, "byte*", td.render(ts, 0))
}

func TestStripArity(t *testing.T) {
	assert.Equal(t, "List", stripArity("List`1"))
	assert.Equal(t, "Outer.Inner", stripArity("Outer`1.Inner`2"))
	assert.Equal(t, "Plain", stripArity("Plain"))
}

func TestRenderConstantLiterals(t *testing.T) {
	cases := []struct {
		c    *cil.Constant
		want string
	}{
		{&cil.Constant{Type: cil.ElemBool, Value: true}, "true"},
		{&cil.Constant{Type: cil.ElemI4, Value: int64(-3)}, "-3"},
		{&cil.Constant{Type: cil.ElemU8, Value: uint64(18)}, "18"},
		{&cil.Constant{Type: cil.ElemString, Value: "hi"}, `"hi"`},
		{&cil.Constant{Type: cil.ElemChar, Value: rune('x')}, "'x'"},
		{&cil.Constant{Type: cil.ElemR8, Value: 1.5}, "1.5"},
		{&cil.Constant{Type: cil.ElemR8, Value: 2.0}, "2.0"},
		{&cil.Constant{Type: cil.ElemClass, Value: nil}, "null"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, renderConstant(c.c, false))
	}
	assert.Equal(t, "default", renderConstant(nil, true))
	assert.Equal(t, "default", renderConstant(&cil.Constant{Type: cil.ElemClass}, true))
}
