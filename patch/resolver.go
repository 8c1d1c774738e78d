package patch

import (
	"fmt"

	"github.com/chazu/patchwork/lib/runtime"
)

// Resolver turns target references into handles and gives a uniform view of
// the method table each handle binds into.
type Resolver struct {
	space *runtime.ObjectSpace
}

// NewResolver creates a resolver over the given object space
func NewResolver(space *runtime.ObjectSpace) *Resolver {
	return &Resolver{space: space}
}

// Resolve builds the handle for method on ref. A ref is a class identifier
// (class name, *runtime.Class, or string Value) or a live object
// (*runtime.Instance or instance Value).
func (r *Resolver) Resolve(ref any, method string) (Handle, error) {
	if method == "" {
		return Handle{}, &PatchError{Op: "resolve", Method: method, Err: fmt.Errorf("%w: empty method name", ErrNoSuchMethod)}
	}

	switch t := ref.(type) {
	case string:
		return r.resolveClass(t, method)
	case *runtime.Class:
		if t != nil {
			return r.resolveClass(t.Name, method)
		}
	case *runtime.Instance:
		if t != nil {
			return InstanceHandle(t, method), nil
		}
	case runtime.Value:
		switch {
		case t.Type == runtime.TypeString:
			return r.resolveClass(t.StringVal, method)
		case t.Type == runtime.TypeInstance && t.InstanceVal != nil:
			return InstanceHandle(t.InstanceVal, method), nil
		}
	}
	return Handle{}, &PatchError{Op: "resolve", Target: fmt.Sprintf("%v", ref), Method: method, Err: ErrAmbiguousTarget}
}

func (r *Resolver) resolveClass(name, method string) (Handle, error) {
	if r.space.GetClass(name) == nil {
		return Handle{}, &PatchError{Op: "resolve", Target: name, Method: method,
			Err: fmt.Errorf("%w: no class named %q", ErrAmbiguousTarget, name)}
	}
	return ClassHandle(name, method), nil
}

// ResolveAll resolves every ref, failing before returning anything if one fails.
// Duplicate handles are collapsed.
func (r *Resolver) ResolveAll(refs []any, method string) ([]Handle, error) {
	if len(refs) == 0 {
		return nil, &PatchError{Op: "resolve", Method: method, Err: fmt.Errorf("%w: no target given", ErrAmbiguousTarget)}
	}
	handles := make([]Handle, 0, len(refs))
	seen := make(map[Handle]bool, len(refs))
	for _, ref := range refs {
		h, err := r.Resolve(ref, method)
		if err != nil {
			return nil, err
		}
		if !seen[h] {
			seen[h] = true
			handles = append(handles, h)
		}
	}
	return handles, nil
}

// table returns the method table h binds into. Instance tables are created on demand.
func (r *Resolver) table(h Handle) (*runtime.MethodTable, error) {
	if h.Kind == InstanceTarget {
		if h.Instance == nil {
			return nil, ErrAmbiguousTarget
		}
		return h.Instance.EnsureLocalMethods(), nil
	}
	class := r.space.GetClass(h.Class)
	if class == nil {
		return nil, fmt.Errorf("%w: no class named %q", ErrAmbiguousTarget, h.Class)
	}
	return class.Methods, nil
}

// current returns the implementation a call through h would reach right now,
// and whether it sits in h's own table rather than being inherited.
func (r *Resolver) current(h Handle) (*runtime.MethodEntry, bool, error) {
	if h.Kind == InstanceTarget {
		if h.Instance == nil {
			return nil, false, ErrAmbiguousTarget
		}
		if m := h.Instance.LocalMethods().Lookup(h.Method); m != nil {
			return m, true, nil
		}
		if h.Instance.Class == nil {
			return nil, false, nil
		}
		return h.Instance.Class.LookupMethod(h.Method), false, nil
	}

	class := r.space.GetClass(h.Class)
	if class == nil {
		return nil, false, fmt.Errorf("%w: no class named %q", ErrAmbiguousTarget, h.Class)
	}
	if m := class.Methods.Lookup(h.Method); m != nil {
		return m, true, nil
	}
	return class.LookupMethod(h.Method), false, nil
}
