// Package exports injects externally defined functions into classes or
// single instances as new methods.
package exports

import (
	"slices"

	"github.com/chazu/patchwork/lib/runtime"
	"github.com/chazu/patchwork/patch"
)

// Function installs fn as method name on every target. The method must not
// exist yet on any of them; see patch.Registry.Method.
func Function(reg *patch.Registry, name string, fn runtime.MethodFunc, targets ...any) error {
	return reg.Method(name, fn, targets...)
}

// Table installs every function in fns under its key on the targets.
// Names are installed in sorted order and installation stops at the first
// failure.
func Table(reg *patch.Registry, fns map[string]runtime.MethodFunc, targets ...any) error {
	for _, name := range sortedNames(fns) {
		if err := Function(reg, name, fns[name], targets...); err != nil {
			return err
		}
	}
	return nil
}

// Export is Function on the process-wide registry
func Export(name string, fn runtime.MethodFunc, targets ...any) error {
	return Function(patch.Default(), name, fn, targets...)
}

func sortedNames(fns map[string]runtime.MethodFunc) []string {
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
