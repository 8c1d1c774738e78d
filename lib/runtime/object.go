package runtime

import (
	"fmt"
)

// RegisterObjectClass registers the Object base class with the runtime
// This should be called during runtime initialization
func RegisterObjectClass(r *Runtime) *Class {
	methods := NewMethodTable()

	// perform: selector - dynamic method dispatch by name
	methods.AddMethod("perform:", func(self *Instance, args []Value) (Value, error) {
		return r.SendDirect(self, args[0].AsString(), nil)
	}, 1)

	// perform: selector with: arg1 - dispatch with one argument
	methods.AddMethod("perform:with:", func(self *Instance, args []Value) (Value, error) {
		return r.SendDirect(self, args[0].AsString(), args[1:])
	}, 2)

	// respondsTo: selector
	methods.AddMethod("respondsTo:", func(self *Instance, args []Value) (Value, error) {
		return BoolValue(r.Dispatcher.RespondsTo(self, args[0].AsString())), nil
	}, 1)

	methods.AddMethod("printString", func(self *Instance, args []Value) (Value, error) {
		return StringValue(fmt.Sprintf("<%s %s>", self.ClassName, self.ID)), nil
	}, 0)

	methods.AddMethod("class", func(self *Instance, args []Value) (Value, error) {
		return StringValue(self.ClassName), nil
	}, 0)

	methods.AddMethod("id", func(self *Instance, args []Value) (Value, error) {
		return StringValue(self.ID), nil
	}, 0)

	return r.RegisterClass("Object", "", nil, methods)
}
