package patch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/chazu/patchwork/lib/runtime"
)

func TestComposeEmptyChainIsOriginal(t *testing.T) {
	var log []string
	fn := Compose(tracer(&log, "orig"), nil)
	v, err := fn(nil, nil)
	if err != nil || v.AsString() != "orig" {
		t.Fatalf("got %q, %v", v.AsString(), err)
	}
}

func TestComposeBeforeAfterOrder(t *testing.T) {
	var log []string
	fn := Compose(tracer(&log, "orig"), []Modifier{
		{Kind: KindBefore, Body: tracer(&log, "before-a")},
		{Kind: KindAfter, Body: tracer(&log, "after-a")},
		{Kind: KindBefore, Body: tracer(&log, "before-b")},
		{Kind: KindAfter, Body: tracer(&log, "after-b")},
	})

	for i := 0; i < 3; i++ {
		log = nil
		v, err := fn(nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if v.AsString() != "orig" {
			t.Errorf("result = %q, want orig", v.AsString())
		}
		want := []string{"before-a", "before-b", "orig", "after-a", "after-b"}
		if diff := cmp.Diff(want, log); diff != "" {
			t.Errorf("call %d order mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestComposeAroundNesting(t *testing.T) {
	var log []string
	label := func(name string) AroundFunc {
		return func(next runtime.MethodFunc, self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
			log = append(log, name+">")
			v, err := next(self, args)
			log = append(log, "<"+name)
			return runtime.StringValue(name + "(" + v.AsString() + ")"), err
		}
	}
	fn := Compose(tracer(&log, "orig"), []Modifier{
		{Kind: KindBefore, Body: tracer(&log, "inner-before")},
		{Kind: KindAround, Wrap: label("a")},
		{Kind: KindAround, Wrap: label("b")},
		{Kind: KindBefore, Body: tracer(&log, "outer-before")},
	})

	v, err := fn(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.AsString() != "b(a(orig))" {
		t.Errorf("result = %q, want b(a(orig))", v.AsString())
	}
	want := []string{"outer-before", "b>", "a>", "inner-before", "orig", "<a", "<b"}
	if diff := cmp.Diff(want, log); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeOverrideDropsEarlierModifiers(t *testing.T) {
	var log []string
	fn := Compose(tracer(&log, "orig"), []Modifier{
		{Kind: KindBefore, Body: tracer(&log, "dropped")},
		{Kind: KindOverride, Body: tracer(&log, "override")},
		{Kind: KindBefore, Body: tracer(&log, "kept")},
	})
	v, _ := fn(nil, nil)
	if v.AsString() != "override" {
		t.Errorf("result = %q, want override", v.AsString())
	}
	if diff := cmp.Diff([]string{"kept", "override"}, log); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestComposeBeforeErrorSkipsCall(t *testing.T) {
	var log []string
	fn := Compose(tracer(&log, "orig"), []Modifier{
		{Kind: KindBefore, Body: failing("denied")},
		{Kind: KindAfter, Body: tracer(&log, "after")},
	})
	if _, err := fn(nil, nil); err == nil || err.Error() != "denied" {
		t.Fatalf("err = %v, want denied", err)
	}
	if len(log) != 0 {
		t.Errorf("expected nothing to run, got %v", log)
	}
}

func TestComposeAfterErrorPropagates(t *testing.T) {
	var log []string
	fn := Compose(tracer(&log, "orig"), []Modifier{
		{Kind: KindAfter, Body: failing("audit failed")},
	})
	if _, err := fn(nil, nil); err == nil || err.Error() != "audit failed" {
		t.Fatalf("err = %v, want audit failed", err)
	}
	if diff := cmp.Diff([]string{"orig"}, log); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestComposeWithoutOriginal(t *testing.T) {
	fn := Compose(nil, []Modifier{{Kind: KindBefore, Body: tracer(new([]string), "x")}})
	if _, err := fn(nil, nil); !errors.Is(err, ErrNoSuchMethod) {
		t.Errorf("err = %v, want ErrNoSuchMethod", err)
	}

	fn = Compose(nil, []Modifier{{Kind: KindNew, Body: replacement("fresh")}})
	v, err := fn(nil, []runtime.Value{str("a")})
	if err != nil || v.AsString() != "fresh(1)" {
		t.Errorf("got %q, %v", v.AsString(), err)
	}
}

func TestModifierValidate(t *testing.T) {
	tests := []struct {
		name string
		m    Modifier
		ok   bool
	}{
		{"before with body", Modifier{Kind: KindBefore, Body: replacement("x")}, true},
		{"before without body", Modifier{Kind: KindBefore}, false},
		{"around with wrap", Modifier{Kind: KindAround, Wrap: func(next runtime.MethodFunc, self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
			return next(self, args)
		}}, true},
		{"around with only body", Modifier{Kind: KindAround, Body: replacement("x")}, false},
		{"unknown kind", Modifier{Kind: ModifierKind(42), Body: replacement("x")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.validate()
			if (err == nil) != tt.ok {
				t.Errorf("validate() = %v, want ok=%t", err, tt.ok)
			}
		})
	}
}

func TestModifierKindString(t *testing.T) {
	if KindNew.String() != "method" || KindInstanceReplace.String() != "instance_replace" {
		t.Errorf("unexpected names %q %q", KindNew, KindInstanceReplace)
	}
	if ModifierKind(99).String() != "ModifierKind(99)" {
		t.Errorf("unexpected name for unknown kind: %q", ModifierKind(99))
	}
}
