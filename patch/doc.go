// Package patch alters the behavior of methods on classes and single
// instances it does not own.
//
// A Registry records the implementation a method had before it was first
// patched, composes modifiers (before, after, around, override, new) around
// it, and binds the composed wrapper into the class or instance method
// table. Unpatching restores the recorded implementation and forgets every
// modifier stacked on that method; there is no partial unpatch.
//
//	reg := patch.NewRegistry(rt.OS)
//	reg.Before("greet", logCall, "Greeter")
//	reg.Around("greet", defaultName, greeter)  // only this instance
//	reg.Original(greeter, "greet", runtime.StringValue("World"))
//	reg.Unpatch("greet", "Greeter")
package patch
