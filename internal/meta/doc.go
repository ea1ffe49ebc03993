// Package meta provides the reflection descriptors that expression trees
// refer to: types, constructors, methods, fields and properties.
//
// Descriptors are opaque and immutable once created. Neither the light IR
// nor the canonical tree ever mutates them; they only ask the questions
// answered here:
//
//	DeclaringTypeOf(descriptor)  declaring type of a ctor, method or member
//	ReturnTypeOf(method)         declared return type (VoidType if none)
//	ValueTypeOf(member)          value type of a field or property
//	ElementTypeOf(arrayType)     element type of a slice or array type
//	ArrayOf(elem)                slice type of elem
//	ByRefOf(t)                   pointer type of t
//
// Type descriptors are plain reflect.Type values. "No value" is modeled by
// VoidType and the untyped object by ObjectType (interface{}). Go has no
// constructors or properties, so Constructor wraps a func returning exactly
// one value and Property pairs a getter method X() with an optional setter
// SetX(v).
package meta
