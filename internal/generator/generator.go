// Package generator orchestrates one stub-generation run: load the
// assembly, project its public surface, join the XML documentation and
// emit one stub file per top-level type.
package generator

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/example/stubgen/internal/assembly"
	"github.com/example/stubgen/internal/cil"
	"github.com/example/stubgen/internal/emitter"
	"github.com/example/stubgen/internal/xmldoc"
)

// ErrAssemblyNotFound marks a package whose assembly path does not
// exist; the caller decides whether to continue with other packages.
var ErrAssemblyNotFound = errors.New("assembly not found")

// PackageInfo identifies one package to generate stubs for.
type PackageInfo struct {
	Name         string
	Version      string
	AssemblyPath string
	DocPath      string // optional XML documentation file
}

// OutputFile is one rendered stub, addressed by a slash-separated path
// relative to the output root.
type OutputFile struct {
	Path   string
	Source string
}

// Warning is a recovered, non-fatal problem from any pipeline stage.
type Warning struct {
	Identifier string
	Reason     string
}

// Result is the outcome of one package run.
type Result struct {
	Files    []OutputFile
	Warnings []Warning
}

// Swapped in tests.
var (
	openAssembly = cil.Load
	loadDocs     = xmldoc.Load
)

// Run generates stubs for one package. Each run carries its own dedup
// counters and documentation index; nothing is shared between runs. A
// missing or unreadable assembly fails the run; everything downstream
// degrades to warnings.
func Run(pkg PackageInfo) (*Result, error) {
	asm, err := openAssembly(pkg.AssemblyPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssemblyNotFound, pkg.AssemblyPath)
		}
		return nil, fmt.Errorf("load assembly %s: %w", pkg.AssemblyPath, err)
	}
	defer asm.Close()

	res := &Result{}

	var docs *xmldoc.Index
	if pkg.DocPath != "" {
		docs, err = loadDocs(pkg.DocPath)
		if err != nil {
			// Documentation is best effort; stubs come out undocumented.
			res.Warnings = append(res.Warnings, Warning{
				Identifier: pkg.DocPath,
				Reason:     err.Error(),
			})
			docs = nil
		}
	}

	types, warnings := assembly.Project(asm)
	for _, w := range warnings {
		res.Warnings = append(res.Warnings, Warning{Identifier: w.Subject, Reason: w.Reason})
	}

	em := emitter.New(docs)
	layout := emitter.NewLayout()
	for _, t := range types {
		res.Files = append(res.Files, OutputFile{
			Path:   layout.FilePath(pkg.Name, pkg.Version, t),
			Source: em.EmitFile(t),
		})
	}
	return res, nil
}
