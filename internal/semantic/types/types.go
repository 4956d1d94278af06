// Package types describes the static types of the language.
//
// There are five value types (i32, f64, bool, str and the unit type) plus
// function types, which exist only for names bound by `fn`. Typing is
// structural: two types are equal when they have the same shape, and two
// function types are equal when their parameter and return types are.
//
// Source spellings are folded onto the value types: i32 and i64 are both the
// 64-bit integer type, f32 and f64 are both the double-precision float type,
// and str and String are both the string type.
package types

import (
	"strings"
)

// Type is implemented by every type.
type Type interface {
	// String returns the type as it is written in diagnostics.
	String() string

	// Equals reports structural identity.
	Equals(other Type) bool

	kind() Kind
}

// Kind classifies a Type without a type switch.
type Kind int

const (
	KindInvalid Kind = iota
	KindUnit
	KindInt
	KindFloat
	KindBool
	KindString
	KindFunction
)

// KindOf returns the kind of t, or KindInvalid for nil.
func KindOf(t Type) Kind {
	if t == nil {
		return KindInvalid
	}
	return t.kind()
}

type UnitType struct{}

func (*UnitType) String() string           { return "()" }
func (*UnitType) Equals(other Type) bool   { return KindOf(other) == KindUnit }
func (*UnitType) kind() Kind               { return KindUnit }

// IntType is the signed 64-bit integer.
type IntType struct{}

func (*IntType) String() string           { return "i32" }
func (*IntType) Equals(other Type) bool   { return KindOf(other) == KindInt }
func (*IntType) kind() Kind               { return KindInt }

// FloatType is the IEEE-754 double.
type FloatType struct{}

func (*FloatType) String() string           { return "f64" }
func (*FloatType) Equals(other Type) bool   { return KindOf(other) == KindFloat }
func (*FloatType) kind() Kind               { return KindFloat }

type BoolType struct{}

func (*BoolType) String() string           { return "bool" }
func (*BoolType) Equals(other Type) bool   { return KindOf(other) == KindBool }
func (*BoolType) kind() Kind               { return KindBool }

// StringType is an immutable string; values only ever come from literals.
type StringType struct{}

func (*StringType) String() string           { return "str" }
func (*StringType) Equals(other Type) bool   { return KindOf(other) == KindString }
func (*StringType) kind() Kind               { return KindString }

// FunctionType is the signature of a declared function. Return is Unit for
// functions without `->`.
type FunctionType struct {
	Params []Type
	Return Type
}

func (f *FunctionType) String() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.String()
	}
	return "fn(" + strings.Join(params, ", ") + ") -> " + f.Return.String()
}

func (f *FunctionType) Equals(other Type) bool {
	o, ok := other.(*FunctionType)
	if !ok || len(f.Params) != len(o.Params) || !f.Return.Equals(o.Return) {
		return false
	}
	for i, p := range f.Params {
		if !p.Equals(o.Params[i]) {
			return false
		}
	}
	return true
}

func (f *FunctionType) kind() Kind { return KindFunction }

// Shared instances. Value types carry no state, so every Int is the same Int.
var (
	Unit   = &UnitType{}
	Int    = &IntType{}
	Float  = &FloatType{}
	Bool   = &BoolType{}
	String = &StringType{}
)

// NewFunction returns the signature fn(params...) -> ret. A nil ret means
// Unit.
func NewFunction(params []Type, ret Type) *FunctionType {
	if ret == nil {
		ret = Unit
	}
	return &FunctionType{Params: params, Return: ret}
}

var byName = map[string]Type{
	"i32":    Int,
	"i64":    Int,
	"f32":    Float,
	"f64":    Float,
	"bool":   Bool,
	"str":    String,
	"String": String,
}

// FromName maps a source type name to its type.
func FromName(name string) (Type, bool) {
	t, ok := byName[name]
	return t, ok
}

// IsNumeric reports whether t is Int or Float.
func IsNumeric(t Type) bool {
	k := KindOf(t)
	return k == KindInt || k == KindFloat
}

// IsValue reports whether values of t can be stored in a variable or passed
// as an argument.
func IsValue(t Type) bool {
	switch KindOf(t) {
	case KindInt, KindFloat, KindBool, KindString:
		return true
	default:
		return false
	}
}

// Arithmetic returns the result type of an arithmetic operator applied to
// l and r. Int with Float widens to Float; nothing else mixes.
func Arithmetic(l, r Type) (Type, bool) {
	lk, rk := KindOf(l), KindOf(r)
	switch {
	case lk == KindInt && rk == KindInt:
		return Int, true
	case IsNumeric(l) && IsNumeric(r):
		return Float, true
	default:
		return nil, false
	}
}

// Ordered reports whether l and r can be compared with < <= > >=: both Int
// or both Float.
func Ordered(l, r Type) bool {
	return IsNumeric(l) && KindOf(l) == KindOf(r)
}
