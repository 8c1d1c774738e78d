package patch

import (
	"errors"
)

var (
	// ErrNoSuchMethod indicates a patch references a method the target does not have
	ErrNoSuchMethod = errors.New("no such method")

	// ErrDuplicateMethod indicates a new method would shadow an existing implementation
	ErrDuplicateMethod = errors.New("method already exists")

	// ErrAmbiguousTarget indicates a target reference is neither a known class nor an instance
	ErrAmbiguousTarget = errors.New("ambiguous target")

	// ErrNotPatched indicates there is no active patch for the method
	ErrNotPatched = errors.New("not patched")

	// ErrImmutableAccessor indicates a write to a read-only accessor
	ErrImmutableAccessor = errors.New("accessor is read-only")

	// ErrConcurrentPatch indicates another mutation on the same method is in progress
	ErrConcurrentPatch = errors.New("concurrent patch in progress")
)

// PatchError records a failed patch operation and the method it targeted.
type PatchError struct {
	Op     string
	Target string
	Method string
	Err    error
}

func (e *PatchError) Error() string {
	if e.Target == "" {
		return e.Op + " " + e.Method + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Target + "." + e.Method + ": " + e.Err.Error()
}

func (e *PatchError) Unwrap() error { return e.Err }

func opError(op string, h Handle, err error) error {
	return &PatchError{Op: op, Target: h.Target(), Method: h.Method, Err: err}
}
