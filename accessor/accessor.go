// Package accessor generates getter/setter methods on classes. Accessors
// are installed as new methods through a patch registry, so unpatching
// removes them like any other patch.
package accessor

import (
	"fmt"
	"strings"

	"github.com/chazu/patchwork/lib/runtime"
	"github.com/chazu/patchwork/patch"
)

// Mutability says whether an accessor accepts writes
type Mutability int

const (
	ReadOnly Mutability = iota
	ReadWrite
)

func (m Mutability) String() string {
	if m == ReadWrite {
		return "rw"
	}
	return "ro"
}

// ParseMutability accepts "ro"/"rw" and their long forms
func ParseMutability(s string) (Mutability, error) {
	switch strings.ToLower(s) {
	case "ro", "readonly", "read-only":
		return ReadOnly, nil
	case "rw", "readwrite", "read-write":
		return ReadWrite, nil
	}
	return ReadOnly, fmt.Errorf("unknown accessor mutability %q (want ro or rw)", s)
}

// Slot is the instance variable an accessor for attr keeps its value in.
// It never collides with a declared instance variable, which starts out
// as nil and would otherwise hide the default.
func Slot(attr string) string {
	return "has:" + attr
}

// Options are the settings of a has declaration
type Options struct {
	Is      Mutability
	Default runtime.Value
}

// SplitName splits "Class.attr" at the last dot
func SplitName(fullyQualified string) (class, attr string, err error) {
	i := strings.LastIndex(fullyQualified, ".")
	if i <= 0 || i == len(fullyQualified)-1 {
		return "", "", fmt.Errorf("accessor name %q must look like Class.attribute", fullyQualified)
	}
	return fullyQualified[:i], fullyQualified[i+1:], nil
}

// Define installs accessor "Class.attr" on the class. Each instance holds
// its own value under Slot(attr). Called with no arguments it returns the
// instance's value, or initial if it was never set. Called with one argument it stores the value on ReadWrite accessors
// and fails with patch.ErrImmutableAccessor on ReadOnly ones.
func Define(reg *patch.Registry, fullyQualified string, mut Mutability, initial runtime.Value) error {
	class, attr, err := SplitName(fullyQualified)
	if err != nil {
		return err
	}
	return reg.Method(attr, accessorFunc(fullyQualified, attr, mut, initial), class)
}

// Has is Define with options, on the process-wide registry
func Has(fullyQualified string, opts Options) error {
	return Define(patch.Default(), fullyQualified, opts.Is, opts.Default)
}

func accessorFunc(name, attr string, mut Mutability, initial runtime.Value) runtime.MethodFunc {
	slot := Slot(attr)
	return func(self *runtime.Instance, args []runtime.Value) (runtime.Value, error) {
		if self == nil {
			return runtime.NilValue(), fmt.Errorf("%s: accessor called without a receiver", name)
		}
		switch len(args) {
		case 0:
			if v, ok := self.LookupVar(slot); ok {
				return v, nil
			}
			return initial, nil
		case 1:
			if mut != ReadWrite {
				return runtime.NilValue(), fmt.Errorf("%s: %w", name, patch.ErrImmutableAccessor)
			}
			self.SetVar(slot, args[0])
			return args[0], nil
		default:
			return runtime.NilValue(), fmt.Errorf("%s: %w: expected 0 or 1, got %d", name, runtime.ErrArity, len(args))
		}
	}
}
