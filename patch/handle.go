package patch

import (
	"github.com/chazu/patchwork/lib/runtime"
)

// TargetKind says whether a patch applies to a whole class or to one object
type TargetKind int

const (
	ClassTarget TargetKind = iota
	InstanceTarget
)

func (k TargetKind) String() string {
	if k == InstanceTarget {
		return "instance"
	}
	return "class"
}

// Handle identifies one method on one resolved target. Handles are
// comparable: class handles are equal when the class names match,
// instance handles when they point at the same object.
type Handle struct {
	Kind     TargetKind
	Class    string            // set for ClassTarget
	Instance *runtime.Instance // set for InstanceTarget
	Method   string
}

// ClassHandle returns the handle for method on the named class
func ClassHandle(class, method string) Handle {
	return Handle{Kind: ClassTarget, Class: class, Method: method}
}

// InstanceHandle returns the handle for method on exactly one object
func InstanceHandle(inst *runtime.Instance, method string) Handle {
	return Handle{Kind: InstanceTarget, Instance: inst, Method: method}
}

// Target names the class or instance the handle points at
func (h Handle) Target() string {
	if h.Kind == InstanceTarget {
		if h.Instance == nil {
			return "<nil>"
		}
		return h.Instance.ID
	}
	return h.Class
}

func (h Handle) String() string {
	return h.Target() + "." + h.Method
}
