package cil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeResolver maps encoded TypeDefOrRef tokens to fixed names.
type fakeResolver struct {
	names map[uint32]TypeName
}

func (f *fakeResolver) sigToken(code uint32) (TypeName, *TypeSig, error) {
	return f.names[code], nil, nil
}

func listToken() (uint32, *fakeResolver) {
	// TypeRef row 1 encodes as (1 << 2) | 1.
	code := uint32(1<<2 | 1)
	return code, &fakeResolver{names: map[uint32]TypeName{
		code: {Namespace: "System.Collections.Generic", Name: "List`1"},
	}}
}

func TestCompressedIntegers(t *testing.T) {
	cases := []struct {
		data []byte
		want uint32
	}{
		{[]byte{0x03}, 3},
		{[]byte{0x7F}, 0x7F},
		{[]byte{0x80, 0x80}, 0x80},
		{[]byte{0xBF, 0xFF}, 0x3FFF},
		{[]byte{0xC0, 0x00, 0x40, 0x00}, 0x4000},
	}
	for _, c := range cases {
		r := blobReader{data: c.data}
		got := r.compressed()
		require.NoError(t, r.err)
		assert.Equal(t, c.want, got)
	}
}

func TestCompressedSignedIntegers(t *testing.T) {
	// The sign bit rotates into the LSB, so -1 encodes as 0x7F, -64 as
	// 0x01 and 3 as 0x06; wide encodings sign-extend from 13 bits.
	cases := []struct {
		data []byte
		want int32
	}{
		{[]byte{0x06}, 3},
		{[]byte{0x7F}, -1},
		{[]byte{0x01}, -64},
		{[]byte{0xBF, 0xFF}, -1},
		{[]byte{0x80, 0x80}, 64},
	}
	for _, c := range cases {
		r := blobReader{data: c.data}
		got := r.compressedInt()
		require.NoError(t, r.err)
		assert.Equal(t, c.want, got)
	}
}

func TestParseMethodSigPlain(t *testing.T) {
	// instance void M(string, int32)
	sig, err := parseMethodSig([]byte{0x20, 0x02, 0x01, 0x0E, 0x08}, nil)
	require.NoError(t, err)

	assert.True(t, sig.HasThis)
	assert.True(t, sig.Return.IsVoid())
	require.Len(t, sig.Params, 2)
	assert.Equal(t, ElemString, sig.Params[0].Elem)
	assert.Equal(t, ElemI4, sig.Params[1].Elem)
}

func TestParseMethodSigGenericInstantiation(t *testing.T) {
	code, res := listToken()
	// static List<int> M()
	blob := []byte{0x00, 0x00, 0x15, 0x12, byte(code), 0x01, 0x08}
	sig, err := parseMethodSig(blob, res)
	require.NoError(t, err)

	ret := sig.Return
	assert.Equal(t, KindGenericInst, ret.Kind)
	assert.Equal(t, "List`1", ret.Name.Name)
	require.Len(t, ret.Args, 1)
	assert.Equal(t, ElemI4, ret.Args[0].Elem)
}

func TestParseMethodSigGenericMethod(t *testing.T) {
	// static T M<T>(T) encodes MVAR 0 in both positions.
	blob := []byte{0x10, 0x01, 0x01, 0x1E, 0x00, 0x1E, 0x00}
	sig, err := parseMethodSig(blob, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, sig.GenericParamCount)
	assert.Equal(t, KindMethodVar, sig.Return.Kind)
	require.Len(t, sig.Params, 1)
	assert.Equal(t, 0, sig.Params[0].VarNumber)
}

func TestParseMethodSigByRefParam(t *testing.T) {
	// void M(ref int)
	sig, err := parseMethodSig([]byte{0x20, 0x01, 0x01, 0x10, 0x08}, nil)
	require.NoError(t, err)

	require.Len(t, sig.Params, 1)
	assert.True(t, sig.Params[0].ByRef)
	assert.Equal(t, ElemI4, sig.Params[0].Elem)
}

func TestParseFieldSigArrays(t *testing.T) {
	// string[]
	ts, err := parseFieldSig([]byte{0x06, 0x1D, 0x0E}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindSZArray, ts.Kind)
	assert.Equal(t, ElemString, ts.Inner.Elem)

	// int[,] (rank 2, no sizes, no bounds)
	ts, err = parseFieldSig([]byte{0x06, 0x14, 0x08, 0x02, 0x00, 0x00}, nil)
	require.NoError(t, err)
	assert.Equal(t, KindArray, ts.Kind)
	assert.Equal(t, 2, ts.Rank)
}

func TestParsePropertySigIndexer(t *testing.T) {
	// instance string this[int]
	sig, err := parsePropertySig([]byte{0x28, 0x01, 0x0E, 0x08}, nil)
	require.NoError(t, err)

	assert.True(t, sig.HasThis)
	assert.Equal(t, ElemString, sig.Type.Elem)
	require.Len(t, sig.Params, 1)
	assert.Equal(t, ElemI4, sig.Params[0].Elem)
}

func TestParseTypeSigSkipsCustomModifiers(t *testing.T) {
	// modreq(token) int32
	sig, err := parseMethodSig([]byte{0x20, 0x00, 0x1F, 0x05, 0x08}, &fakeResolver{})
	require.NoError(t, err)
	assert.Equal(t, ElemI4, sig.Return.Elem)
}

func TestParseFieldSigRejectsMethodBlob(t *testing.T) {
	_, err := parseFieldSig([]byte{0x20, 0x00, 0x01}, nil)
	assert.Error(t, err)
}

func TestTruncatedSignatureFails(t *testing.T) {
	_, err := parseMethodSig([]byte{0x20, 0x02, 0x01, 0x0E}, nil)
	assert.Error(t, err)
}
