package patch

import (
	"errors"
	"testing"

	"github.com/chazu/patchwork/lib/runtime"
)

func TestProcessWideRegistry(t *testing.T) {
	t.Cleanup(func() {
		Shutdown()
		runtime.CloseGlobal()
	})

	rt := runtime.InitGlobal(nil)
	methods := runtime.NewMethodTable()
	methods.AddMethod("greet", func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		return str("Hello, " + args[0].AsString()), nil
	}, 1)
	rt.RegisterClass("GlobalGreeter", "Object", nil, methods)
	g := mustInstance(t, rt, "GlobalGreeter")

	if Default() != Default() {
		t.Fatal("Default should return the same registry")
	}
	if Default().Space() != rt.OS {
		t.Fatal("Default registry should patch the global runtime")
	}

	var log []string
	must(t, Before("greet", tracer(&log, "before"), "GlobalGreeter"))
	must(t, After("greet", tracer(&log, "after"), "GlobalGreeter"))
	must(t, Around("greet", func(next runtime.MethodFunc, self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		v, err := next(self, args)
		return str(v.AsString() + "!"), err
	}, "GlobalGreeter"))
	must(t, Method("wave", replacement("wave"), g))

	if got := send(t, rt, g, "greet", str("you")); got != "Hello, you!" {
		t.Errorf("greet = %q", got)
	}
	v, err := Original(g, "greet", str("raw"))
	if err != nil || v.AsString() != "Hello, raw" {
		t.Errorf("Original = %q, %v", v.AsString(), err)
	}
	must(t, Override("greet", replacement("o"), "GlobalGreeter"))
	must(t, Unpatch("greet", "GlobalGreeter"))

	if err := Shutdown(); err != nil {
		t.Fatal(err)
	}
	if rt.Dispatcher.RespondsTo(g, "wave") {
		t.Error("Shutdown left wave installed")
	}
	if err := Unpatch("greet", "GlobalGreeter"); !errors.Is(err, ErrNotPatched) {
		t.Errorf("Unpatch on fresh registry: err = %v", err)
	}
}

func TestInitReplacesRegistry(t *testing.T) {
	t.Cleanup(func() { Shutdown() })

	rt, _ := newGreeterWorld(t)
	g := mustInstance(t, rt, "Greeter")

	first, err := Init(rt.OS)
	if err != nil {
		t.Fatal(err)
	}
	must(t, Override("greet", replacement("first"), "Greeter"))

	second, err := Init(rt.OS, WithConflictPolicy(Wait))
	if err != nil {
		t.Fatal(err)
	}
	if first == second || Default() != second {
		t.Fatal("Init should install a new registry")
	}
	if got := send(t, rt, g, "greet", str("x")); got != "Hello, x" {
		t.Errorf("greet after re-Init = %q, want the original", got)
	}
}
