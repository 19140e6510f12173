package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/stubgen/internal/cil"
)

func TestTypeDocID(t *testing.T) {
	assert.Equal(t, "T:Widgets.Widget", typeDocID("Widgets.Widget"))
	assert.Equal(t, "T:Widgets.Cache`2", typeDocID("Widgets.Cache`2"))
	assert.Equal(t, "T:Widgets.Outer`1.Inner", typeDocID("Widgets.Outer`1.Inner"))
}

func TestMethodDocIDPlain(t *testing.T) {
	m := &cil.Method{
		Name: "Run",
		Sig: cil.MethodSig{
			Params: []cil.TypeSig{
				*prim(cil.ElemString),
				*prim(cil.ElemI4),
			},
		},
	}
	assert.Equal(t, "M:Widgets.Widget.Run(System.String,System.Int32)", methodDocID("Widgets.Widget", m))
}

func TestMethodDocIDNoParams(t *testing.T) {
	m := &cil.Method{Name: "Reset"}
	assert.Equal(t, "M:Widgets.Widget.Reset", methodDocID("Widgets.Widget", m))
}

func TestMethodDocIDConstructor(t *testing.T) {
	m := &cil.Method{
		Name: ".ctor",
		Sig:  cil.MethodSig{Params: []cil.TypeSig{*prim(cil.ElemString)}},
	}
	assert.Equal(t, "M:Widgets.Widget.#ctor(System.String)", methodDocID("Widgets.Widget", m))
}

func TestMethodDocIDGenericMethod(t *testing.T) {
	m := &cil.Method{
		Name: "Map",
		Sig: cil.MethodSig{
			GenericParamCount: 1,
			Params: []cil.TypeSig{
				{Kind: cil.KindMethodVar, VarNumber: 0},
				{Kind: cil.KindTypeVar, VarNumber: 0},
			},
		},
	}
	assert.Equal(t, "M:Widgets.Cache`2.Map``1(``0,`0)", methodDocID("Widgets.Cache`2", m))
}

func TestMethodDocIDGenericInstantiationAndByRef(t *testing.T) {
	list := cil.TypeSig{
		Kind: cil.KindGenericInst,
		Name: cil.TypeName{Namespace: "System.Collections.Generic", Name: "List`1"},
		Args: []cil.TypeSig{*prim(cil.ElemString)},
	}
	out := *prim(cil.ElemI4)
	out.ByRef = true
	m := &cil.Method{
		Name: "Find",
		Sig:  cil.MethodSig{Params: []cil.TypeSig{list, out}},
	}
	assert.Equal(t,
		"M:Widgets.Widget.Find(System.Collections.Generic.List{System.String},System.Int32@)",
		methodDocID("Widgets.Widget", m))
}

func TestMethodDocIDArrays(t *testing.T) {
	sz := cil.TypeSig{Kind: cil.KindSZArray, Inner: prim(cil.ElemU1)}
	multi := cil.TypeSig{Kind: cil.KindArray, Inner: prim(cil.ElemI4), Rank: 2}
	m := &cil.Method{
		Name: "Fill",
		Sig:  cil.MethodSig{Params: []cil.TypeSig{sz, multi}},
	}
	assert.Equal(t, "M:W.T.Fill(System.Byte[],System.Int32[,])", methodDocID("W.T", m))
}

func TestPropertyDocID(t *testing.T) {
	plain := &cil.Property{Name: "Count"}
	assert.Equal(t, "P:Widgets.Widget.Count", propertyDocID("Widgets.Widget", plain))

	indexer := &cil.Property{
		Name: "Item",
		Sig:  cil.PropertySig{Params: []cil.TypeSig{*prim(cil.ElemI4)}},
	}
	assert.Equal(t, "P:Widgets.Widget.Item(System.Int32)", propertyDocID("Widgets.Widget", indexer))
}

func TestFieldAndEventDocIDs(t *testing.T) {
	assert.Equal(t, "F:Widgets.Color.Red", fieldDocID("Widgets.Color", "Red"))
	assert.Equal(t, "E:Widgets.Widget.Changed", eventDocID("Widgets.Widget", "Changed"))
}
