// Package runtime provides the object model that patches operate on.
// Classes and instances own method tables; every call is dispatched
// through those tables, which is what makes them rewritable at runtime.
package runtime

import (
	"strconv"
)

// ValueType represents the type of a runtime value
type ValueType int

const (
	TypeNil ValueType = iota
	TypeInt
	TypeString
	TypeBool
	TypeInstance
)

func (t ValueType) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeInstance:
		return "instance"
	default:
		return "unknown"
	}
}

// Value is what methods take and return. Bools share IntVal.
type Value struct {
	Type        ValueType
	IntVal      int64
	StringVal   string
	InstanceVal *Instance
}

func NilValue() Value {
	return Value{Type: TypeNil}
}

func IntValue(n int64) Value {
	return Value{Type: TypeInt, IntVal: n}
}

func StringValue(s string) Value {
	return Value{Type: TypeString, StringVal: s}
}

func BoolValue(b bool) Value {
	if b {
		return Value{Type: TypeBool, IntVal: 1}
	}
	return Value{Type: TypeBool}
}

// InstanceValue wraps an instance reference
func InstanceValue(inst *Instance) Value {
	return Value{Type: TypeInstance, InstanceVal: inst}
}

func (v Value) IsNil() bool {
	return v.Type == TypeNil
}

// IsTruthy is false for nil, zero, false and the empty string
func (v Value) IsTruthy() bool {
	switch v.Type {
	case TypeNil:
		return false
	case TypeBool, TypeInt:
		return v.IntVal != 0
	case TypeString:
		return v.StringVal != ""
	default:
		return true
	}
}

// AsString renders the value; instances render as their ID
func (v Value) AsString() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.IntVal, 10)
	case TypeString:
		return v.StringVal
	case TypeBool:
		return strconv.FormatBool(v.IntVal != 0)
	case TypeInstance:
		if v.InstanceVal != nil {
			return v.InstanceVal.ID
		}
		return ""
	default:
		return ""
	}
}

// AsInt converts the value to an integer; unparsable strings give 0
func (v Value) AsInt() int64 {
	switch v.Type {
	case TypeInt, TypeBool:
		return v.IntVal
	case TypeString:
		n, _ := strconv.ParseInt(v.StringVal, 10, 64)
		return n
	default:
		return 0
	}
}
