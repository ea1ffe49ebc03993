package meta

import (
	"reflect"
)

// Void is the marker type for "no value".
type Void struct{}

var (
	// VoidType is the result type of expressions that produce no value.
	VoidType = reflect.TypeFor[Void]()

	// ObjectType is the untyped object type (interface{}).
	ObjectType = reflect.TypeFor[any]()

	// ErrorType is the error interface type.
	ErrorType = reflect.TypeFor[error]()
)

// IsVoid reports whether t is VoidType.
func IsVoid(t reflect.Type) bool {
	return t == VoidType
}

// ElementTypeOf returns the element type of a slice or array type.
func ElementTypeOf(t reflect.Type) (reflect.Type, bool) {
	if t == nil {
		return nil, false
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		return t.Elem(), true
	default:
		return nil, false
	}
}

// ArrayOf returns the array (slice) type with the given element type.
func ArrayOf(elem reflect.Type) reflect.Type {
	return reflect.SliceOf(elem)
}

// ByRefOf returns the by-reference (pointer) type of t.
func ByRefOf(t reflect.Type) reflect.Type {
	return reflect.PointerTo(t)
}

// FuncOf builds a function signature descriptor from parameter types and a
// return type. A nil or VoidType return produces a func with no results.
func FuncOf(params []reflect.Type, ret reflect.Type) reflect.Type {
	var out []reflect.Type
	if ret != nil && !IsVoid(ret) {
		out = []reflect.Type{ret}
	}
	return reflect.FuncOf(params, out, false)
}

// ActionOf builds a signature that takes params and returns nothing.
func ActionOf(params []reflect.Type) reflect.Type {
	return FuncOf(params, VoidType)
}

// FuncParams returns the parameter types of a func type.
func FuncParams(ft reflect.Type) []reflect.Type {
	if ft == nil || ft.Kind() != reflect.Func || ft.NumIn() == 0 {
		return nil
	}
	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	return params
}

// FuncReturn returns the return type of a func type: VoidType when it has
// no results, its single result otherwise. Funcs with more than one result
// have no expressible return type.
func FuncReturn(ft reflect.Type) (reflect.Type, bool) {
	if ft == nil || ft.Kind() != reflect.Func {
		return nil, false
	}
	switch ft.NumOut() {
	case 0:
		return VoidType, true
	case 1:
		return ft.Out(0), true
	default:
		return nil, false
	}
}

// IsNumeric reports whether t is an integer, float or complex kind.
func IsNumeric(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}

// IsInteger reports whether t is a signed or unsigned integer kind.
func IsInteger(t reflect.Type) bool {
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

// IsNillable reports whether a nil value can be typed as t.
func IsNillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

// TypeName renders a type descriptor for diagnostics.
func TypeName(t reflect.Type) string {
	switch t {
	case nil:
		return "<nil>"
	case VoidType:
		return "void"
	case ObjectType:
		return "object"
	default:
		return t.String()
	}
}
