// Package cil reads ECMA-335 metadata out of a compiled .NET assembly.
//
// The PE container, heaps and metadata tables are read through
// github.com/microsoft/go-winmd; this package layers blob-level decoding
// on top (signatures, constants, custom-attribute values, which the
// library's readers do not cover) and exposes a resolved view of the
// declared types. Nothing outside this package depends on how the
// metadata was obtained; consumers only see the view types in view.go.
package cil

import (
	"debug/pe"
	"fmt"

	"github.com/microsoft/go-winmd"
)

// Assembly is the resolved view of one loaded assembly. It is immutable
// after Load returns.
type Assembly struct {
	Name  string
	Types []*Type // top-level types in TypeDef order; nested types hang off their parent
}

// Load opens the assembly at path and decodes its metadata tables into a
// resolved view. The returned Assembly must be closed by the caller.
func Load(path string) (*Assembly, error) {
	pefile, err := pe.Open(path)
	if err != nil {
		return nil, err
	}
	defer pefile.Close()

	md, err := winmd.New(pefile)
	if err != nil {
		return nil, fmt.Errorf("cil: %s: %w", path, err)
	}

	rd := newResolver(md)
	return &Assembly{
		Name:  rd.assemblyName(),
		Types: rd.topLevelTypes(),
	}, nil
}

// Close drops the resolved view. The Assembly and every view struct
// reached through it must not be used afterwards.
func (a *Assembly) Close() error {
	a.Types = nil
	return nil
}
