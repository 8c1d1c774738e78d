package runtime

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnknownClass indicates the class is not registered
	ErrUnknownClass = errors.New("unknown class")

	// ErrInstanceNotFound indicates the requested instance doesn't exist
	ErrInstanceNotFound = errors.New("instance not found")
)

// Class represents a registered class
type Class struct {
	Name         string
	Superclass   string
	SuperclassP  *Class // Resolved superclass pointer
	InstanceVars []string
	Methods      *MethodTable
}

// LookupMethod finds a method on this class or its superclasses
func (c *Class) LookupMethod(selector string) *MethodEntry {
	for class := c; class != nil; class = class.SuperclassP {
		if m := class.Methods.Lookup(selector); m != nil {
			return m
		}
	}
	return nil
}

// IsSubclassOf returns true if c is other or inherits from it
func (c *Class) IsSubclassOf(other *Class) bool {
	for current := c; current != nil; current = current.SuperclassP {
		if current == other {
			return true
		}
	}
	return false
}

// Instance represents an object instance
type Instance struct {
	ID        string
	Class     *Class
	ClassName string
	Vars      map[string]Value
	CreatedAt time.Time

	// Per-instance overrides, consulted before the class chain.
	// Nil until something installs an instance-level method.
	local *MethodTable

	mu sync.RWMutex
}

// GetVar gets an instance variable value
func (inst *Instance) GetVar(name string) Value {
	v, _ := inst.LookupVar(name)
	return v
}

// LookupVar gets an instance variable and reports whether it was set
func (inst *Instance) LookupVar(name string) (Value, bool) {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	v, ok := inst.Vars[name]
	if !ok {
		return NilValue(), false
	}
	return v, true
}

// SetVar sets an instance variable value
func (inst *Instance) SetVar(name string, v Value) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	inst.Vars[name] = v
}

// LocalMethods returns the instance's own method table, or nil if it has none
func (inst *Instance) LocalMethods() *MethodTable {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return inst.local
}

// EnsureLocalMethods returns the instance's own method table, creating it on first use
func (inst *Instance) EnsureLocalMethods() *MethodTable {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.local == nil {
		inst.local = NewMethodTable()
	}
	return inst.local
}

// LookupMethod finds the method this instance responds to for selector:
// instance overrides first, then the class chain.
func (inst *Instance) LookupMethod(selector string) *MethodEntry {
	if m := inst.LocalMethods().Lookup(selector); m != nil {
		return m
	}
	if inst.Class == nil {
		return nil
	}
	return inst.Class.LookupMethod(selector)
}

func (inst *Instance) String() string {
	return fmt.Sprintf("<%s %s>", inst.ClassName, inst.ID)
}

// ObjectSpace manages all instances and classes in the runtime
type ObjectSpace struct {
	classes   map[string]*Class
	instances map[string]*Instance
	classMu   sync.RWMutex
	instMu    sync.RWMutex
}

// NewObjectSpace creates a new empty object space
func NewObjectSpace() *ObjectSpace {
	return &ObjectSpace{
		classes:   make(map[string]*Class),
		instances: make(map[string]*Instance),
	}
}

// RegisterClass registers a class with the object space.
// A nil method table is replaced with an empty one.
func (os *ObjectSpace) RegisterClass(name, superclass string, instanceVars []string, methods *MethodTable) *Class {
	os.classMu.Lock()
	defer os.classMu.Unlock()

	if methods == nil {
		methods = NewMethodTable()
	}
	class := &Class{
		Name:         name,
		Superclass:   superclass,
		InstanceVars: instanceVars,
		Methods:      methods,
	}

	if superclass != "" {
		if super, ok := os.classes[superclass]; ok {
			class.SuperclassP = super
			inherited := make([]string, 0, len(super.InstanceVars)+len(instanceVars))
			inherited = append(inherited, super.InstanceVars...)
			inherited = append(inherited, instanceVars...)
			class.InstanceVars = inherited
		}
	}

	os.classes[name] = class
	return class
}

// GetClass retrieves a registered class
func (os *ObjectSpace) GetClass(name string) *Class {
	os.classMu.RLock()
	defer os.classMu.RUnlock()
	return os.classes[name]
}

// NewInstance creates a new instance of a class
func (os *ObjectSpace) NewInstance(className string) (*Instance, error) {
	class := os.GetClass(className)
	if class == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownClass, className)
	}

	inst := &Instance{
		ID:        os.GenerateID(className),
		Class:     class,
		ClassName: className,
		Vars:      make(map[string]Value, len(class.InstanceVars)),
		CreatedAt: time.Now(),
	}
	for _, varName := range class.InstanceVars {
		inst.Vars[varName] = NilValue()
	}

	os.RegisterInstance(inst)
	return inst, nil
}

// RegisterInstance adds an instance to the object space
func (os *ObjectSpace) RegisterInstance(inst *Instance) {
	os.instMu.Lock()
	defer os.instMu.Unlock()
	os.instances[inst.ID] = inst
}

// GetInstance retrieves an instance by ID
func (os *ObjectSpace) GetInstance(id string) *Instance {
	os.instMu.RLock()
	defer os.instMu.RUnlock()
	return os.instances[id]
}

// RemoveInstance removes an instance from the object space
func (os *ObjectSpace) RemoveInstance(id string) {
	os.instMu.Lock()
	defer os.instMu.Unlock()
	delete(os.instances, id)
}

// LookupMethod finds a method, walking up the class hierarchy
func (os *ObjectSpace) LookupMethod(className, selector string) *MethodEntry {
	class := os.GetClass(className)
	if class == nil {
		return nil
	}
	return class.LookupMethod(selector)
}

// ClassNames returns all registered class names, sorted
func (os *ObjectSpace) ClassNames() []string {
	os.classMu.RLock()
	defer os.classMu.RUnlock()

	names := make([]string, 0, len(os.classes))
	for name := range os.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// InstanceCount returns the number of instances in the object space
func (os *ObjectSpace) InstanceCount() int {
	os.instMu.RLock()
	defer os.instMu.RUnlock()
	return len(os.instances)
}

// ClassCount returns the number of classes registered
func (os *ObjectSpace) ClassCount() int {
	os.classMu.RLock()
	defer os.classMu.RUnlock()
	return len(os.classes)
}

// GenerateID creates a new unique instance ID for the given class name
func (os *ObjectSpace) GenerateID(className string) string {
	idPrefix := strings.ToLower(strings.ReplaceAll(className, "::", "_"))
	return idPrefix + "_" + uuid.New().String()
}
