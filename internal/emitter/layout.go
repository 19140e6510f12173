package emitter

import (
	"path"
	"strconv"
	"strings"

	"github.com/example/stubgen/internal/assembly"
)

// globalDir is the path segment standing in for the empty namespace.
const globalDir = "global"

// Layout assigns output paths and deduplicates colliding file names
// within one run. Counters are keyed by namespace and display name and
// are never reset, so a second Widget in the same namespace becomes
// Widget1.cs regardless of which package produced the first.
type Layout struct {
	counters map[layoutKey]int
}

type layoutKey struct {
	namespace string
	name      string
}

// NewLayout returns an empty layout for one generator run.
func NewLayout() *Layout {
	return &Layout{counters: make(map[layoutKey]int)}
}

// FilePath reserves and returns the slash-separated output path for a
// top-level type: package/version/namespace-segments/Name.cs, with the
// global placeholder for namespace-less types.
func (l *Layout) FilePath(pkg, version string, t *assembly.TypeModel) string {
	ns := t.Namespace
	if ns == "" {
		ns = globalDir
	}
	key := layoutKey{namespace: ns, name: t.Name}
	n := l.counters[key]
	l.counters[key] = n + 1

	name := t.Name
	if n > 0 {
		name += strconv.Itoa(n)
	}

	segments := []string{pkg, version}
	segments = append(segments, strings.Split(ns, ".")...)
	segments = append(segments, name+".cs")
	return path.Join(segments...)
}
