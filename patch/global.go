package patch

import (
	"sync"

	"github.com/chazu/patchwork/lib/runtime"
)

// ============================================================================
// Process-wide registry
// ============================================================================

var (
	defaultRegistry *Registry
	defaultMu       sync.Mutex
)

// Init replaces the process-wide registry with a fresh one over space.
// Patches held by a previous registry are unpatched first.
func Init(space *runtime.ObjectSpace, opts ...Option) (*Registry, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRegistry != nil {
		if err := defaultRegistry.Reset(); err != nil {
			return nil, err
		}
	}
	defaultRegistry = NewRegistry(space, opts...)
	return defaultRegistry, nil
}

// Default returns the process-wide registry, creating it over the global
// runtime's object space on first use.
func Default() *Registry {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRegistry == nil {
		defaultRegistry = NewRegistry(runtime.InitGlobal(nil).OS)
	}
	return defaultRegistry
}

// Shutdown unpatches everything in the process-wide registry and drops it
func Shutdown() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultRegistry == nil {
		return nil
	}
	err := defaultRegistry.Reset()
	defaultRegistry = nil
	return err
}

// Before installs a before modifier through the process-wide registry
func Before(method string, body runtime.MethodFunc, targets ...any) error {
	return Default().Before(method, body, targets...)
}

// After installs an after modifier through the process-wide registry
func After(method string, body runtime.MethodFunc, targets ...any) error {
	return Default().After(method, body, targets...)
}

// Around installs an around modifier through the process-wide registry
func Around(method string, body AroundFunc, targets ...any) error {
	return Default().Around(method, body, targets...)
}

// Override installs an override through the process-wide registry
func Override(method string, body runtime.MethodFunc, targets ...any) error {
	return Default().Override(method, body, targets...)
}

// Method adds a new method through the process-wide registry
func Method(method string, body runtime.MethodFunc, targets ...any) error {
	return Default().Method(method, body, targets...)
}

// Unpatch restores method on targets in the process-wide registry
func Unpatch(method string, targets ...any) error {
	return Default().Unpatch(method, targets...)
}

// Original calls the pre-patch implementation through the process-wide registry
func Original(target any, method string, args ...runtime.Value) (runtime.Value, error) {
	return Default().Original(target, method, args...)
}
