package patch

import (
	"fmt"

	"github.com/chazu/patchwork/lib/runtime"
)

// OriginalRecord is the implementation a method had before its first patch.
// Entry is the captured value; it is nil when the binding began with a new
// method. Local reports whether the entry sat in the handle's own table.
// A local entry is what unpatching puts back. An inherited one is only a
// record: calls go to whatever the ancestors answer, and unpatching just
// deletes the slot.
type OriginalRecord struct {
	Handle Handle
	Entry  *runtime.MethodEntry
	Local  bool
}

// Exists reports whether there was an implementation before the first patch
func (o *OriginalRecord) Exists() bool {
	return o != nil && o.Entry != nil
}

// inner returns the callable a chain wraps for rec. A local original is
// the captured entry. An inherited one is looked up in the ancestors on
// every call, so unpatching an ancestor shows through.
func (r *Registry) inner(rec *OriginalRecord) runtime.MethodFunc {
	if !rec.Exists() {
		return nil
	}
	if rec.Local {
		return rec.Entry.Func()
	}
	h := rec.Handle
	return func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		m := r.inherited(h)
		if m == nil {
			return runtime.NilValue(), fmt.Errorf("%w: %s no longer inherits %s", ErrNoSuchMethod, h.Target(), h.Method)
		}
		return m.Invoke(self, args)
	}
}

// ancestor is the first class whose table a call through h falls back to
func (r *Registry) ancestor(h Handle) *runtime.Class {
	if h.Kind == InstanceTarget {
		if h.Instance == nil {
			return nil
		}
		return h.Instance.Class
	}
	if class := r.space.GetClass(h.Class); class != nil {
		return class.SuperclassP
	}
	return nil
}

// inherited is what h's ancestors currently answer for the method
func (r *Registry) inherited(h Handle) *runtime.MethodEntry {
	if class := r.ancestor(h); class != nil {
		return class.LookupMethod(h.Method)
	}
	return nil
}

// pristine is the implementation h would reach if nothing were patched:
// the local original, or the first unpatched definition up the class chain.
func (r *Registry) pristine(rec *OriginalRecord) *runtime.MethodEntry {
	if !rec.Exists() {
		return nil
	}
	if rec.Local {
		return rec.Entry
	}
	for class := r.ancestor(rec.Handle); class != nil; class = class.SuperclassP {
		if b := r.get(ClassHandle(class.Name, rec.Handle.Method)); b != nil {
			if b.original.Local || !b.original.Exists() {
				return b.original.Entry
			}
			continue
		}
		if m := class.Methods.Lookup(rec.Handle.Method); m != nil {
			return m
		}
	}
	return nil
}

// originalStore holds at most one record per handle. Callers hold the
// registry lock.
type originalStore struct {
	records map[Handle]*OriginalRecord
}

func newOriginalStore() *originalStore {
	return &originalStore{records: make(map[Handle]*OriginalRecord)}
}

func (s *originalStore) capture(rec *OriginalRecord) error {
	if _, ok := s.records[rec.Handle]; ok {
		return fmt.Errorf("original for %s already recorded", rec.Handle)
	}
	s.records[rec.Handle] = rec
	return nil
}

func (s *originalStore) get(h Handle) *OriginalRecord {
	return s.records[h]
}

func (s *originalStore) drop(h Handle) {
	delete(s.records, h)
}

func (s *originalStore) len() int {
	return len(s.records)
}
