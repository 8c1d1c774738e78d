package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chazu/patchwork/accessor"
	"github.com/chazu/patchwork/exports"
	"github.com/chazu/patchwork/journal"
	"github.com/chazu/patchwork/lib/runtime"
	"github.com/chazu/patchwork/manifest"
	"github.com/chazu/patchwork/patch"
)

// runDemo patches a Greeter class and a Document class through the
// process-wide registry, printing the result of every call.
func runDemo(w io.Writer, cfg *manifest.Manifest) error {
	rt := runtime.New(nil)
	opts := []patch.Option{patch.WithConflictPolicy(cfg.ConflictPolicy())}
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.JournalPath())
		if err != nil {
			return err
		}
		defer j.Close()
		opts = append(opts, patch.WithRecorder(j))
	}
	if _, err := patch.Init(rt.OS, opts...); err != nil {
		return err
	}
	defer patch.Shutdown()

	greeter := runtime.NewMethodTable()
	greeter.AddMethod("greet", func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		return runtime.StringValue("Hello, " + args[0].AsString()), nil
	}, 1)
	rt.RegisterClass("Greeter", "Object", nil, greeter)
	rt.RegisterClass("Document", "Object", nil, nil)

	g, err := rt.NewInstance("Greeter")
	if err != nil {
		return err
	}
	call := func(label string, inst *runtime.Instance, selector string, args ...runtime.Value) {
		v, err := rt.SendDirect(inst, selector, args)
		if err != nil {
			fmt.Fprintf(w, "%-28s error: %v\n", label, err)
			return
		}
		fmt.Fprintf(w, "%-28s %s\n", label, v.AsString())
	}
	world := runtime.StringValue("World")

	call("greet(World)", g, "greet", world)

	err = patch.Around("greet", func(next runtime.MethodFunc, self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		v, err := next(self, args)
		if err != nil {
			return v, err
		}
		return runtime.StringValue(v.AsString() + "!"), nil
	}, "Greeter")
	if err != nil {
		return err
	}
	call("around greet(World)", g, "greet", world)
	call("around greet()", g, "greet")

	err = patch.Before("greet", func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		if len(args) > 0 {
			args[0] = runtime.StringValue(strings.ToUpper(args[0].AsString()))
		}
		return runtime.NilValue(), nil
	}, g)
	if err != nil {
		return err
	}
	call("instance before greet(World)", g, "greet", world)

	if v, err := patch.Original(g, "greet", world); err == nil {
		fmt.Fprintf(w, "%-28s %s\n", "original greet(World)", v.AsString())
	} else {
		fmt.Fprintf(w, "%-28s error: %v\n", "original greet(World)", err)
	}

	if err := patch.Unpatch("greet", "Greeter", g); err != nil {
		return err
	}
	call("unpatched greet(World)", g, "greet", world)

	doc, err := rt.NewInstance("Document")
	if err != nil {
		return err
	}
	if err := accessor.Has("Document.title", accessor.Options{Is: accessor.ReadOnly, Default: runtime.StringValue("untitled")}); err != nil {
		return err
	}
	if err := accessor.Has("Document.pages", accessor.Options{Is: accessor.ReadWrite, Default: runtime.IntValue(0)}); err != nil {
		return err
	}
	call("title()", doc, "title")
	call("title(new)", doc, "title", runtime.StringValue("new"))
	call("pages(3)", doc, "pages", runtime.IntValue(3))
	call("pages()", doc, "pages")

	err = exports.Export("summary", func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		title, err := rt.SendDirect(self, "title", nil)
		if err != nil {
			return title, err
		}
		pages, err := rt.SendDirect(self, "pages", nil)
		if err != nil {
			return pages, err
		}
		return runtime.StringValue(fmt.Sprintf("%s, %d pages", title.AsString(), pages.AsInt())), nil
	}, doc)
	if err != nil {
		return err
	}
	call("summary()", doc, "summary")

	fmt.Fprintf(w, "%-28s %d\n", "active bindings", patch.Default().Len())
	return nil
}

// listJournal prints every event in the configured journal
func listJournal(w io.Writer, cfg *manifest.Manifest) error {
	j, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return err
	}
	defer j.Close()

	entries, err := j.Events()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(w, "no events in %s\n", j.Path())
		return nil
	}
	for _, e := range entries {
		kind := e.Kind
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(w, "%4d  %s  %-7s  %-16s  %-8s  %s  [%s]\n",
			e.ID, e.At.Format("2006-01-02 15:04:05"), e.Op, kind, e.Scope,
			e.Target+"."+e.Method, strings.Join(e.Chain, " "))
	}
	return nil
}
