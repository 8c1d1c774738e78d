package runtime

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrArity indicates a method was called with the wrong number of arguments
var ErrArity = errors.New("wrong number of arguments")

// MethodFunc is the signature for method implementations
type MethodFunc func(self *Instance, args []Value) (Value, error)

// MethodFlags describes method properties
type MethodFlags uint32

const (
	MethodNative   MethodFlags = 1 << iota // Implemented in Go
	MethodPatched                          // Installed by a patch wrapper
)

// Variadic marks a method that accepts any number of arguments
const Variadic = -1

// MethodEntry describes a single method
type MethodEntry struct {
	Selector string
	Impl     MethodFunc
	NumArgs  int
	Flags    MethodFlags
}

// NewMethodEntry creates a native method entry
func NewMethodEntry(selector string, impl MethodFunc, numArgs int) *MethodEntry {
	return &MethodEntry{
		Selector: selector,
		Impl:     impl,
		NumArgs:  numArgs,
		Flags:    MethodNative,
	}
}

// Invoke checks arity and calls the implementation.
func (m *MethodEntry) Invoke(self *Instance, args []Value) (Value, error) {
	if m.NumArgs >= 0 && len(args) != m.NumArgs {
		return NilValue(), fmt.Errorf("%s: %w: expected %d, got %d", m.Selector, ErrArity, m.NumArgs, len(args))
	}
	return m.Impl(self, args)
}

// Func returns the entry as a plain MethodFunc with arity checking preserved.
func (m *MethodEntry) Func() MethodFunc {
	return m.Invoke
}

// MethodTable maps selectors to methods. It is safe for concurrent use;
// dispatch reads while patches rewrite entries.
type MethodTable struct {
	mu      sync.RWMutex
	methods map[string]*MethodEntry
}

// NewMethodTable creates an empty method table
func NewMethodTable() *MethodTable {
	return &MethodTable{
		methods: make(map[string]*MethodEntry),
	}
}

// AddMethod adds a native method
func (mt *MethodTable) AddMethod(selector string, impl MethodFunc, numArgs int) {
	mt.Put(NewMethodEntry(selector, impl, numArgs))
}

// Put adds or replaces an entry
func (mt *MethodTable) Put(entry *MethodEntry) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.methods[entry.Selector] = entry
}

// Lookup finds a method in this table only
func (mt *MethodTable) Lookup(selector string) *MethodEntry {
	if mt == nil {
		return nil
	}
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return mt.methods[selector]
}

// Has returns true if the table holds an entry for selector
func (mt *MethodTable) Has(selector string) bool {
	return mt.Lookup(selector) != nil
}

// Remove deletes the entry for selector
func (mt *MethodTable) Remove(selector string) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	delete(mt.methods, selector)
}

// Selectors returns the sorted selectors in this table
func (mt *MethodTable) Selectors() []string {
	if mt == nil {
		return nil
	}
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	names := make([]string, 0, len(mt.methods))
	for name := range mt.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries
func (mt *MethodTable) Len() int {
	if mt == nil {
		return 0
	}
	mt.mu.RLock()
	defer mt.mu.RUnlock()
	return len(mt.methods)
}
