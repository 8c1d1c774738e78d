package patch

import (
	"errors"
	"fmt"

	"github.com/chazu/patchwork/lib/runtime"
)

// Before runs body ahead of method on every target. The return value of
// body is discarded; an error aborts the call.
func (r *Registry) Before(method string, body runtime.MethodFunc, targets ...any) error {
	return r.installAll(method, Modifier{Kind: KindBefore, Body: body}, targets)
}

// After runs body once method has returned without error. The method's
// result is kept.
func (r *Registry) After(method string, body runtime.MethodFunc, targets ...any) error {
	return r.installAll(method, Modifier{Kind: KindAfter, Body: body}, targets)
}

// Around hands body the next inner implementation; body's result becomes
// the method's result.
func (r *Registry) Around(method string, body AroundFunc, targets ...any) error {
	return r.installAll(method, Modifier{Kind: KindAround, Wrap: body}, targets)
}

// Override replaces an existing method. Fails with ErrNoSuchMethod if the
// target has no such method.
func (r *Registry) Override(method string, body runtime.MethodFunc, targets ...any) error {
	return r.installAll(method, Modifier{Kind: KindOverride, Body: body}, targets)
}

// Method adds a method that must not exist yet. Fails with
// ErrDuplicateMethod otherwise.
func (r *Registry) Method(method string, body runtime.MethodFunc, targets ...any) error {
	return r.installAll(method, Modifier{Kind: KindNew, Body: body}, targets)
}

// InstanceReplace overrides method on individual objects only.
func (r *Registry) InstanceReplace(method string, body runtime.MethodFunc, targets ...any) error {
	return r.installAll(method, Modifier{Kind: KindInstanceReplace, Body: body}, targets)
}

// installAll resolves every target before installing on any of them, then
// installs on each target independently. Failures are joined; targets that
// succeeded stay patched.
func (r *Registry) installAll(method string, m Modifier, targets []any) error {
	handles, err := r.resolver.ResolveAll(targets, method)
	if err != nil {
		return err
	}
	var errs []error
	for _, h := range handles {
		if err := r.Install(h, m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Unpatch restores method on every target and forgets all of its modifiers.
func (r *Registry) Unpatch(method string, targets ...any) error {
	handles, err := r.resolver.ResolveAll(targets, method)
	if err != nil {
		return err
	}
	var errs []error
	for _, h := range handles {
		if err := r.Uninstall(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Original calls the pre-patch implementation of method.
//
// For an instance target the instance is the receiver; if the instance
// itself is not patched, the nearest patched class in its class chain
// supplies the original. For a class target the call is unbound: args[0]
// must be the receiver instance.
func (r *Registry) Original(target any, method string, args ...runtime.Value) (runtime.Value, error) {
	h, err := r.resolver.Resolve(target, method)
	if err != nil {
		return runtime.NilValue(), err
	}

	if h.Kind == ClassTarget {
		if len(args) == 0 || args[0].Type != runtime.TypeInstance {
			return runtime.NilValue(), opError("original", h,
				fmt.Errorf("%w: unbound call needs the receiver as first argument", ErrAmbiguousTarget))
		}
		return r.CallOriginal(h, args[0].InstanceVal, args[1:])
	}

	return r.CallOriginal(r.governing(h), h.Instance, args)
}

// governing returns the handle whose binding a call on the instance in h
// goes through: the instance handle if patched, else the closest patched
// class. If nothing is patched it returns h unchanged.
func (r *Registry) governing(h Handle) Handle {
	if _, ok := r.Lookup(h); ok || h.Instance == nil {
		return h
	}
	for class := h.Instance.Class; class != nil; class = class.SuperclassP {
		ch := ClassHandle(class.Name, h.Method)
		if _, ok := r.Lookup(ch); ok {
			return ch
		}
		if class.Methods.Has(h.Method) {
			break
		}
	}
	return h
}
