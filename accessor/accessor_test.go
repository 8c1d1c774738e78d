package accessor

import (
	"errors"
	"testing"

	"github.com/chazu/patchwork/lib/runtime"
	"github.com/chazu/patchwork/patch"
)

func setup(t *testing.T) (*runtime.Runtime, *patch.Registry) {
	t.Helper()
	rt := runtime.New(nil)
	rt.RegisterClass("Doc", "Object", nil, nil)
	return rt, patch.NewRegistry(rt.OS)
}

func TestReadOnlyAccessor(t *testing.T) {
	rt, reg := setup(t)
	if err := Define(reg, "Doc.title", ReadOnly, runtime.StringValue("untitled")); err != nil {
		t.Fatalf("Define: %v", err)
	}
	doc, _ := rt.NewInstance("Doc")

	v, err := rt.SendDirect(doc, "title", nil)
	if err != nil || v.AsString() != "untitled" {
		t.Errorf("title() = %q, %v; want untitled", v.AsString(), err)
	}
	_, err = rt.SendDirect(doc, "title", []runtime.Value{runtime.StringValue("new")})
	if !errors.Is(err, patch.ErrImmutableAccessor) {
		t.Errorf("title(new): err = %v, want ErrImmutableAccessor", err)
	}
	v, _ = rt.SendDirect(doc, "title", nil)
	if v.AsString() != "untitled" {
		t.Errorf("title() after failed write = %q", v.AsString())
	}
}

func TestReadWriteAccessorIsPerInstance(t *testing.T) {
	rt, reg := setup(t)
	if err := Define(reg, "Doc.pages", ReadWrite, runtime.IntValue(1)); err != nil {
		t.Fatalf("Define: %v", err)
	}
	a, _ := rt.NewInstance("Doc")
	b, _ := rt.NewInstance("Doc")

	if _, err := rt.SendDirect(a, "pages", []runtime.Value{runtime.IntValue(12)}); err != nil {
		t.Fatalf("pages(12): %v", err)
	}
	v, _ := rt.SendDirect(a, "pages", nil)
	if v.AsInt() != 12 {
		t.Errorf("a.pages = %d, want 12", v.AsInt())
	}
	v, _ = rt.SendDirect(b, "pages", nil)
	if v.AsInt() != 1 {
		t.Errorf("b.pages = %d, want default 1", v.AsInt())
	}
	if _, err := rt.SendDirect(a, "pages", []runtime.Value{runtime.IntValue(1), runtime.IntValue(2)}); !errors.Is(err, runtime.ErrArity) {
		t.Errorf("pages(1, 2): err = %v, want ErrArity", err)
	}
}

func TestDefaultSurvivesDeclaredVar(t *testing.T) {
	rt := runtime.New(nil)
	rt.RegisterClass("Book", "Object", []string{"title"}, nil)
	reg := patch.NewRegistry(rt.OS)
	if err := Define(reg, "Book.title", ReadOnly, runtime.StringValue("untitled")); err != nil {
		t.Fatalf("Define: %v", err)
	}
	book, _ := rt.NewInstance("Book")
	if _, ok := book.LookupVar("title"); !ok {
		t.Fatal("declared var not initialized")
	}

	v, err := rt.SendDirect(book, "title", nil)
	if err != nil || v.Type != runtime.TypeString || v.AsString() != "untitled" {
		t.Errorf("title() = %v %q, %v; want untitled", v.Type, v.AsString(), err)
	}

	book.SetVar("title", runtime.StringValue("raw"))
	v, _ = rt.SendDirect(book, "title", nil)
	if v.AsString() != "untitled" {
		t.Errorf("title() after writing the declared var = %q, want untitled", v.AsString())
	}
}

func TestAccessorLifecycle(t *testing.T) {
	rt, reg := setup(t)
	if err := Define(reg, "Doc.title", ReadOnly, runtime.NilValue()); err != nil {
		t.Fatal(err)
	}
	if err := Define(reg, "Doc.title", ReadWrite, runtime.NilValue()); !errors.Is(err, patch.ErrDuplicateMethod) {
		t.Errorf("redefining: err = %v, want ErrDuplicateMethod", err)
	}
	if err := Define(reg, "Doc.class", ReadOnly, runtime.NilValue()); !errors.Is(err, patch.ErrDuplicateMethod) {
		t.Errorf("shadowing inherited class: err = %v, want ErrDuplicateMethod", err)
	}
	if err := Define(reg, "Missing.title", ReadOnly, runtime.NilValue()); !errors.Is(err, patch.ErrAmbiguousTarget) {
		t.Errorf("unknown class: err = %v, want ErrAmbiguousTarget", err)
	}

	if err := reg.Unpatch("title", "Doc"); err != nil {
		t.Fatal(err)
	}
	doc, _ := rt.NewInstance("Doc")
	if rt.Dispatcher.RespondsTo(doc, "title") {
		t.Error("accessor survived unpatch")
	}
}

func TestHasUsesProcessWideRegistry(t *testing.T) {
	t.Cleanup(func() {
		patch.Shutdown()
		runtime.CloseGlobal()
	})
	rt := runtime.InitGlobal(nil)
	rt.RegisterClass("Note", "Object", nil, nil)

	if err := Has("Note.body", Options{Is: ReadWrite, Default: runtime.StringValue("")}); err != nil {
		t.Fatal(err)
	}
	note, _ := rt.NewInstance("Note")
	if _, err := rt.SendDirect(note, "body", []runtime.Value{runtime.StringValue("hi")}); err != nil {
		t.Fatal(err)
	}
	v, _ := rt.SendDirect(note, "body", nil)
	if v.AsString() != "hi" {
		t.Errorf("body = %q", v.AsString())
	}
}

func TestSplitAndParse(t *testing.T) {
	class, attr, err := SplitName("App::Doc.title")
	if err != nil || class != "App::Doc" || attr != "title" {
		t.Errorf("SplitName = %q %q %v", class, attr, err)
	}
	for _, bad := range []string{"title", ".title", "Doc."} {
		if _, _, err := SplitName(bad); err == nil {
			t.Errorf("SplitName(%q) should fail", bad)
		}
	}
	if m, err := ParseMutability("rw"); err != nil || m != ReadWrite {
		t.Errorf("ParseMutability(rw) = %v, %v", m, err)
	}
	if m, err := ParseMutability("RO"); err != nil || m != ReadOnly {
		t.Errorf("ParseMutability(RO) = %v, %v", m, err)
	}
	if _, err := ParseMutability("wo"); err == nil {
		t.Error("ParseMutability(wo) should fail")
	}
}
