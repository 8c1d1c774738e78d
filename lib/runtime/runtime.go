package runtime

import (
	"sync"
)

// Runtime is the main entry point for the object model.
// It coordinates the object space and message dispatch.
type Runtime struct {
	OS         *ObjectSpace
	Dispatcher *Dispatcher

	initialized bool
	mu          sync.Mutex
}

// Config holds runtime configuration
type Config struct {
	NoObjectClass bool // Skip registering the Object base class
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{}
}

// New creates a new runtime with the given configuration
func New(cfg *Config) *Runtime {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	r := &Runtime{}
	r.OS = NewObjectSpace()
	r.Dispatcher = NewDispatcher(r.OS)

	if !cfg.NoObjectClass {
		RegisterObjectClass(r)
	}

	r.initialized = true
	return r
}

// Close shuts down the runtime
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.initialized = false
	return nil
}

// RegisterClass registers a class with the runtime
func (r *Runtime) RegisterClass(name, superclass string, instanceVars []string, methods *MethodTable) *Class {
	return r.OS.RegisterClass(name, superclass, instanceVars, methods)
}

// Send dispatches a message
func (r *Runtime) Send(receiver, selector string, args []Value) (Value, error) {
	return r.Dispatcher.Send(receiver, selector, args)
}

// SendDirect dispatches a message with an instance pointer
func (r *Runtime) SendDirect(inst *Instance, selector string, args []Value) (Value, error) {
	return r.Dispatcher.SendDirect(inst, selector, args)
}

// NewInstance creates a new instance of a class
func (r *Runtime) NewInstance(className string) (*Instance, error) {
	return r.OS.NewInstance(className)
}

// Stats returns runtime statistics
func (r *Runtime) Stats() RuntimeStats {
	return RuntimeStats{
		Classes:   r.OS.ClassCount(),
		Instances: r.OS.InstanceCount(),
	}
}

// RuntimeStats contains runtime statistics
type RuntimeStats struct {
	Classes   int
	Instances int
}

// ============================================================================
// Global runtime instance
// ============================================================================

var (
	globalRuntime *Runtime
	globalMu      sync.Mutex
)

// GlobalRuntime returns the global runtime instance
func GlobalRuntime() *Runtime {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalRuntime
}

// InitGlobal initializes the global runtime
func InitGlobal(cfg *Config) *Runtime {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalRuntime == nil {
		globalRuntime = New(cfg)
	}
	return globalRuntime
}

// CloseGlobal shuts down the global runtime
func CloseGlobal() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalRuntime != nil {
		err := globalRuntime.Close()
		globalRuntime = nil
		return err
	}
	return nil
}
