package patch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/chazu/patchwork/lib/runtime"
)

// newGreeterWorld registers Greeter with greet(name) -> "Hello, " + name and
// a subclass LoudGreeter that inherits it.
func newGreeterWorld(t *testing.T) (*runtime.Runtime, *Registry) {
	t.Helper()
	rt := runtime.New(nil)
	t.Cleanup(func() { rt.Close() })

	methods := runtime.NewMethodTable()
	methods.AddMethod("greet", func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue("Hello, " + args[0].AsString()), nil
	}, 1)
	methods.AddMethod("name", func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue("greeter"), nil
	}, 0)
	rt.RegisterClass("Greeter", "Object", nil, methods)
	rt.RegisterClass("LoudGreeter", "Greeter", nil, nil)

	return rt, NewRegistry(rt.OS)
}

func mustInstance(t *testing.T, rt *runtime.Runtime, class string) *runtime.Instance {
	t.Helper()
	inst, err := rt.NewInstance(class)
	if err != nil {
		t.Fatalf("NewInstance(%s): %v", class, err)
	}
	return inst
}

func send(t *testing.T, rt *runtime.Runtime, inst *runtime.Instance, selector string, args ...runtime.Value) string {
	t.Helper()
	v, err := rt.SendDirect(inst, selector, args)
	if err != nil {
		t.Fatalf("%s %s: %v", inst.ClassName, selector, err)
	}
	return v.AsString()
}

func str(s string) runtime.Value { return runtime.StringValue(s) }

// tracer returns a body that appends label to log
func tracer(log *[]string, label string) runtime.MethodFunc {
	return func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		*log = append(*log, label)
		return runtime.StringValue(label), nil
	}
}

func failing(msg string) runtime.MethodFunc {
	return func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		return runtime.NilValue(), errors.New(msg)
	}
}

func replacement(s string) runtime.MethodFunc {
	return func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue(fmt.Sprintf("%s(%d)", s, len(args))), nil
	}
}
