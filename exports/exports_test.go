package exports

import (
	"errors"
	"fmt"
	"testing"

	"github.com/chazu/patchwork/lib/runtime"
	"github.com/chazu/patchwork/patch"
)

func shout(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
	return runtime.StringValue(fmt.Sprintf("%s!", self.ClassName)), nil
}

func TestFunctionOnClassesAndInstances(t *testing.T) {
	rt := runtime.New(nil)
	rt.RegisterClass("Cat", "Object", nil, nil)
	rt.RegisterClass("Dog", "Object", nil, nil)
	reg := patch.NewRegistry(rt.OS)

	if err := Function(reg, "shout", shout, "Cat", "Dog"); err != nil {
		t.Fatalf("Function: %v", err)
	}
	cat, _ := rt.NewInstance("Cat")
	dog, _ := rt.NewInstance("Dog")
	for _, inst := range []*runtime.Instance{cat, dog} {
		v, err := rt.SendDirect(inst, "shout", nil)
		if err != nil || v.AsString() != inst.ClassName+"!" {
			t.Errorf("%s shout = %q, %v", inst.ClassName, v.AsString(), err)
		}
	}

	if err := Function(reg, "shout", shout, "Cat"); !errors.Is(err, patch.ErrDuplicateMethod) {
		t.Errorf("second export: err = %v, want ErrDuplicateMethod", err)
	}

	other, _ := rt.NewInstance("Cat")
	if err := reg.Unpatch("shout", "Cat"); err != nil {
		t.Fatal(err)
	}
	if err := Function(reg, "purr", shout, other); err != nil {
		t.Fatalf("instance export: %v", err)
	}
	if rt.Dispatcher.RespondsTo(cat, "purr") {
		t.Error("instance export leaked to a sibling")
	}
	if _, err := rt.SendDirect(other, "purr", nil); err != nil {
		t.Errorf("purr: %v", err)
	}
}

func TestTableInstallsSorted(t *testing.T) {
	rt := runtime.New(nil)
	rt.RegisterClass("Cat", "Object", nil, nil)
	reg := patch.NewRegistry(rt.OS)

	err := Table(reg, map[string]runtime.MethodFunc{
		"meow":  shout,
		"class": shout,
		"hiss":  shout,
	}, "Cat")
	if !errors.Is(err, patch.ErrDuplicateMethod) {
		t.Fatalf("Table: err = %v, want ErrDuplicateMethod for class", err)
	}
	// "class" sorts first, so nothing after it was installed
	cat, _ := rt.NewInstance("Cat")
	if rt.Dispatcher.RespondsTo(cat, "hiss") || rt.Dispatcher.RespondsTo(cat, "meow") {
		t.Error("Table kept installing after a failure")
	}
}

func TestExportOnDefaultRegistry(t *testing.T) {
	t.Cleanup(func() {
		patch.Shutdown()
		runtime.CloseGlobal()
	})
	rt := runtime.InitGlobal(nil)
	rt.RegisterClass("Bird", "Object", nil, nil)

	if err := Export("shout", shout, "Bird"); err != nil {
		t.Fatal(err)
	}
	bird, _ := rt.NewInstance("Bird")
	v, _ := rt.SendDirect(bird, "shout", nil)
	if v.AsString() != "Bird!" {
		t.Errorf("shout = %q", v.AsString())
	}
}
