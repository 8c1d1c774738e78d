package runtime

import (
	"errors"
	"fmt"
)

// ErrUnknownMethod indicates the receiver does not understand the selector
var ErrUnknownMethod = errors.New("unknown method")

// Dispatcher handles message dispatch in the runtime
type Dispatcher struct {
	os *ObjectSpace
}

// NewDispatcher creates a new message dispatcher
func NewDispatcher(os *ObjectSpace) *Dispatcher {
	return &Dispatcher{
		os: os,
	}
}

// Send dispatches a message to the instance with the given ID.
// The selector "new" sent to a class name creates an instance.
func (d *Dispatcher) Send(receiver string, selector string, args []Value) (Value, error) {
	if selector == "new" && d.os.GetClass(receiver) != nil {
		return d.handleNew(receiver, args)
	}

	inst := d.os.GetInstance(receiver)
	if inst == nil {
		return NilValue(), fmt.Errorf("%w: %s", ErrInstanceNotFound, receiver)
	}
	return d.SendDirect(inst, selector, args)
}

// handleNew creates a new instance and runs initialize if the class has one
func (d *Dispatcher) handleNew(className string, args []Value) (Value, error) {
	inst, err := d.os.NewInstance(className)
	if err != nil {
		return NilValue(), err
	}

	if initMethod := inst.LookupMethod("initialize"); initMethod != nil {
		if _, err := initMethod.Invoke(inst, args); err != nil {
			return NilValue(), fmt.Errorf("%s initialize: %w", className, err)
		}
	}

	return InstanceValue(inst), nil
}

// SendDirect dispatches a message when you already have the instance pointer.
// Instance-level methods shadow class methods.
func (d *Dispatcher) SendDirect(inst *Instance, selector string, args []Value) (Value, error) {
	if inst == nil {
		return NilValue(), errors.New("nil instance")
	}

	method := inst.LookupMethod(selector)
	if method == nil {
		return NilValue(), fmt.Errorf("%w: %s %s", ErrUnknownMethod, inst.ClassName, selector)
	}
	return method.Invoke(inst, args)
}

// SendSuper dispatches a message starting from the superclass
func (d *Dispatcher) SendSuper(inst *Instance, selector string, args []Value) (Value, error) {
	if inst == nil {
		return NilValue(), errors.New("nil instance")
	}

	class := inst.Class
	if class == nil || class.SuperclassP == nil {
		return NilValue(), fmt.Errorf("%s has no superclass", inst.ClassName)
	}

	method := class.SuperclassP.LookupMethod(selector)
	if method == nil {
		return NilValue(), fmt.Errorf("%w: super %s", ErrUnknownMethod, selector)
	}
	return method.Invoke(inst, args)
}

// RespondsTo reports whether inst understands selector
func (d *Dispatcher) RespondsTo(inst *Instance, selector string) bool {
	return inst != nil && inst.LookupMethod(selector) != nil
}
