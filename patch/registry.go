package patch

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/chazu/patchwork/lib/runtime"
)

// ConflictPolicy decides what a mutation does when another mutation on the
// same handle is still running.
type ConflictPolicy int

const (
	// FailFast returns ErrConcurrentPatch
	FailFast ConflictPolicy = iota
	// Wait blocks until the other mutation finishes
	Wait
)

func (p ConflictPolicy) String() string {
	if p == Wait {
		return "wait"
	}
	return "fail"
}

// ParseConflictPolicy accepts "fail" or "wait"
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fail":
		return FailFast, nil
	case "wait":
		return Wait, nil
	default:
		return FailFast, fmt.Errorf("unknown conflict policy %q (want fail or wait)", s)
	}
}

// Event describes a completed registry mutation
type Event struct {
	At     time.Time
	Op     string // "install" or "unpatch"
	Kind   string // modifier kind for installs
	Scope  string // "class" or "instance"
	Target string
	Method string
	Chain  []string // modifier kinds after the mutation, oldest first
}

// Recorder receives an Event after every successful mutation.
// Errors are logged and never undo the mutation.
type Recorder interface {
	Record(ev Event) error
}

// Option configures a Registry
type Option func(*Registry)

// WithConflictPolicy sets how concurrent mutations on one handle behave
func WithConflictPolicy(p ConflictPolicy) Option {
	return func(r *Registry) { r.policy = p }
}

// WithRecorder attaches an event recorder
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// WithLogger replaces the default logger
func WithLogger(log commonlog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// binding is the registry entry for one patched handle
type binding struct {
	handle   Handle
	original *OriginalRecord
	chain    []Modifier
	wrapper  *runtime.MethodEntry
}

// Binding is a snapshot of an active binding
type Binding struct {
	Handle   Handle
	Original *OriginalRecord
	Chain    []Modifier
	Wrapper  *runtime.MethodEntry
}

// Kinds lists the chain's modifier kinds, oldest first
func (b Binding) Kinds() []string {
	return chainKinds(b.Chain)
}

func chainKinds(chain []Modifier) []string {
	kinds := make([]string, len(chain))
	for i, m := range chain {
		kinds[i] = m.Kind.String()
	}
	return kinds
}

type handleLock struct {
	mu   sync.Mutex
	refs int
}

// Registry owns every active patch in an object space: the original
// implementations, the modifier chains, and the wrappers bound into
// method tables.
type Registry struct {
	space    *runtime.ObjectSpace
	resolver *Resolver
	policy   ConflictPolicy
	recorder Recorder
	log      commonlog.Logger

	mu        sync.Mutex
	bindings  map[Handle]*binding
	originals *originalStore
	locks     map[Handle]*handleLock
}

// NewRegistry creates an empty registry for space
func NewRegistry(space *runtime.ObjectSpace, opts ...Option) *Registry {
	r := &Registry{
		space:     space,
		resolver:  NewResolver(space),
		log:       commonlog.GetLogger("patchwork.patch"),
		bindings:  make(map[Handle]*binding),
		originals: newOriginalStore(),
		locks:     make(map[Handle]*handleLock),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolver returns the registry's target resolver
func (r *Registry) Resolver() *Resolver {
	return r.resolver
}

// Space returns the object space the registry patches
func (r *Registry) Space() *runtime.ObjectSpace {
	return r.space
}

// lock starts a mutation transaction on h
func (r *Registry) lock(h Handle) (func(), error) {
	r.mu.Lock()
	l := r.locks[h]
	if l == nil {
		l = &handleLock{}
		r.locks[h] = l
	}
	l.refs++
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, h)
		}
		r.mu.Unlock()
	}

	if r.policy == Wait {
		l.mu.Lock()
	} else if !l.mu.TryLock() {
		release()
		return nil, ErrConcurrentPatch
	}
	return func() {
		l.mu.Unlock()
		release()
	}, nil
}

func (r *Registry) get(h Handle) *binding {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bindings[h]
}

// Install appends m to the chain for h, capturing the original implementation
// on the first patch, and rebinds the recomposed wrapper. On error nothing changes.
func (r *Registry) Install(h Handle, m Modifier) error {
	if err := m.validate(); err != nil {
		return opError("install", h, err)
	}
	if m.Kind == KindInstanceReplace && h.Kind != InstanceTarget {
		return opError("install", h, fmt.Errorf("%w: instance_replace needs an instance target", ErrAmbiguousTarget))
	}

	unlock, err := r.lock(h)
	if err != nil {
		return opError("install", h, err)
	}
	defer unlock()

	existing := r.get(h)
	original, chain, err := r.prepare(h, m, existing)
	if err != nil {
		return opError("install", h, err)
	}

	table, err := r.resolver.table(h)
	if err != nil {
		return opError("install", h, err)
	}

	chain = append(chain, m)
	wrapper := &runtime.MethodEntry{
		Selector: h.Method,
		Impl:     Compose(r.inner(original), chain),
		NumArgs:  runtime.Variadic,
		Flags:    runtime.MethodPatched,
	}

	r.mu.Lock()
	if existing == nil {
		if err := r.originals.capture(original); err != nil {
			r.mu.Unlock()
			return opError("install", h, err)
		}
		existing = &binding{handle: h, original: original}
		r.bindings[h] = existing
	}
	existing.chain = chain
	existing.wrapper = wrapper
	r.mu.Unlock()

	table.Put(wrapper)

	r.log.Infof("installed %s on %s (chain: %s)", m.Kind, h, strings.Join(chainKinds(chain), ","))
	r.record("install", m.Kind.String(), h, chain)
	return nil
}

// prepare checks m against the current state of h and returns the original
// record and a copy of the existing chain.
func (r *Registry) prepare(h Handle, m Modifier, existing *binding) (*OriginalRecord, []Modifier, error) {
	if existing != nil {
		if m.Kind == KindNew {
			return nil, nil, fmt.Errorf("%w: %s is already patched", ErrDuplicateMethod, h)
		}
		return existing.original, slices.Clone(existing.chain), nil
	}

	entry, local, err := r.resolver.current(h)
	if err != nil {
		return nil, nil, err
	}
	switch {
	case m.Kind == KindNew && entry != nil:
		return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateMethod, h)
	case m.Kind != KindNew && entry == nil:
		return nil, nil, fmt.Errorf("%w: %s", ErrNoSuchMethod, h)
	}
	r.log.Debugf("capturing original for %s (local=%t)", h, local)
	return &OriginalRecord{Handle: h, Entry: entry, Local: local}, nil, nil
}

// Uninstall removes every modifier on h and restores the original binding:
// the recorded entry goes back into the slot, or the slot is deleted if the
// method was inherited or did not exist before the first patch.
func (r *Registry) Uninstall(h Handle) error {
	unlock, err := r.lock(h)
	if err != nil {
		return opError("unpatch", h, err)
	}
	defer unlock()

	b := r.get(h)
	if b == nil {
		return opError("unpatch", h, ErrNotPatched)
	}

	table, err := r.resolver.table(h)
	if err != nil {
		return opError("unpatch", h, err)
	}
	if b.original.Local {
		table.Put(b.original.Entry)
	} else {
		table.Remove(h.Method)
	}

	r.mu.Lock()
	delete(r.bindings, h)
	r.originals.drop(h)
	r.mu.Unlock()

	r.log.Infof("unpatched %s (dropped %d modifiers)", h, len(b.chain))
	r.record("unpatch", "", h, nil)
	return nil
}

// Lookup returns a snapshot of the binding for h
func (r *Registry) Lookup(h Handle) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bindings[h]
	if b == nil {
		return Binding{}, false
	}
	return b.snapshot(), true
}

func (b *binding) snapshot() Binding {
	return Binding{
		Handle:   b.handle,
		Original: b.original,
		Chain:    slices.Clone(b.chain),
		Wrapper:  b.wrapper,
	}
}

// Bindings returns snapshots of every active binding, ordered by handle
func (r *Registry) Bindings() []Binding {
	r.mu.Lock()
	result := make([]Binding, 0, len(r.bindings))
	for _, b := range r.bindings {
		result = append(result, b.snapshot())
	}
	r.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Handle.String() < result[j].Handle.String()
	})
	return result
}

// Len returns the number of active bindings
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bindings)
}

// CallOriginal invokes the pre-patch implementation for h, bypassing the
// installed wrapper, which stays in place. For an inherited original that is
// the nearest unpatched definition among h's ancestors.
func (r *Registry) CallOriginal(h Handle, self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
	b := r.get(h)
	if b == nil {
		return runtime.NilValue(), opError("original", h, ErrNotPatched)
	}
	m := r.pristine(b.original)
	if m == nil {
		return runtime.NilValue(), opError("original", h,
			fmt.Errorf("%w: %s had no implementation before it was patched", ErrNoSuchMethod, h))
	}
	return m.Invoke(self, args)
}

// Reset unpatches everything. It is the registry's teardown.
func (r *Registry) Reset() error {
	var errs []error
	for _, b := range r.Bindings() {
		if err := r.Uninstall(b.Handle); err != nil && !errors.Is(err, ErrNotPatched) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) record(op, kind string, h Handle, chain []Modifier) {
	if r.recorder == nil {
		return
	}
	ev := Event{
		At:     time.Now().UTC(),
		Op:     op,
		Kind:   kind,
		Scope:  h.Kind.String(),
		Target: h.Target(),
		Method: h.Method,
		Chain:  chainKinds(chain),
	}
	if err := r.recorder.Record(ev); err != nil {
		r.log.Warningf("recording %s of %s: %v", op, h, err)
	}
}
