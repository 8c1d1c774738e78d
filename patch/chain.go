package patch

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chazu/patchwork/lib/runtime"
)

// ModifierKind selects how a modifier composes with the implementation it wraps
type ModifierKind int

const (
	KindBefore ModifierKind = iota
	KindAfter
	KindAround
	KindOverride
	KindNew
	KindInstanceReplace
)

var modifierKindNames = [...]string{
	KindBefore:          "before",
	KindAfter:           "after",
	KindAround:          "around",
	KindOverride:        "override",
	KindNew:             "method",
	KindInstanceReplace: "instance_replace",
}

func (k ModifierKind) String() string {
	if k >= 0 && int(k) < len(modifierKindNames) {
		return modifierKindNames[k]
	}
	return fmt.Sprintf("ModifierKind(%d)", int(k))
}

// replaces reports whether the kind discards the implementation beneath it
func (k ModifierKind) replaces() bool {
	return k == KindOverride || k == KindNew || k == KindInstanceReplace
}

// AroundFunc receives the next inner implementation and decides whether,
// how often, and with which arguments to call it.
type AroundFunc func(next runtime.MethodFunc, self *runtime.Instance, args []runtime.Value) (runtime.Value, error)

// Modifier is one behavioral modification. Around modifiers use Wrap,
// every other kind uses Body.
type Modifier struct {
	Kind ModifierKind
	Body runtime.MethodFunc
	Wrap AroundFunc
}

func (m Modifier) validate() error {
	if m.Kind < KindBefore || m.Kind > KindInstanceReplace {
		return fmt.Errorf("unknown modifier kind %d", int(m.Kind))
	}
	if m.Kind == KindAround {
		if m.Wrap == nil {
			return errors.New("around modifier without a body")
		}
		return nil
	}
	if m.Body == nil {
		return fmt.Errorf("%s modifier without a body", m.Kind)
	}
	return nil
}

// layer is a core implementation with the before/after modifiers stacked
// directly on it.
type layer struct {
	befores []runtime.MethodFunc
	core    runtime.MethodFunc
	afters  []runtime.MethodFunc
}

func (l *layer) collapse() runtime.MethodFunc {
	core := l.core
	if core == nil {
		core = missing
	}
	if len(l.befores) == 0 && len(l.afters) == 0 {
		return core
	}
	befores := slices.Clone(l.befores)
	afters := slices.Clone(l.afters)
	return func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		for _, before := range befores {
			if _, err := before(self, args); err != nil {
				return runtime.NilValue(), err
			}
		}
		result, err := core(self, args)
		if err != nil {
			return result, err
		}
		for _, after := range afters {
			if _, err := after(self, args); err != nil {
				return runtime.NilValue(), err
			}
		}
		return result, nil
	}
}

func missing(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
	return runtime.NilValue(), ErrNoSuchMethod
}

// Compose folds chain over original, oldest modifier first, and returns the
// callable to install. Replacing kinds start a fresh layer and drop what was
// composed before them. Consecutive before and after modifiers run in the
// order they were added. Each around wraps everything composed so far, so a
// later around is outermost, and before/after added after an around run
// outside it.
func Compose(original runtime.MethodFunc, chain []Modifier) runtime.MethodFunc {
	cur := &layer{core: original}
	for _, m := range chain {
		switch {
		case m.Kind == KindBefore:
			cur.befores = append(cur.befores, m.Body)
		case m.Kind == KindAfter:
			cur.afters = append(cur.afters, m.Body)
		case m.Kind == KindAround:
			next, wrap := cur.collapse(), m.Wrap
			cur = &layer{core: func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
				return wrap(next, self, args)
			}}
		case m.Kind.replaces():
			cur = &layer{core: m.Body}
		}
	}
	return cur.collapse()
}
