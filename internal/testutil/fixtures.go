// Package testutil provides shared fixture types and descriptors for tests
// across packages.
package testutil

import (
	"reflect"

	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// Point is a plain value type with a two-argument constructor.
type Point struct {
	X int
	Y int
}

// NewPoint constructs a Point.
func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// Sum returns X+Y.
func (p Point) Sum() int {
	return p.X + p.Y
}

// Scale multiplies both coordinates by k.
func (p Point) Scale(k int) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

// Person is a pointer-shaped type with a field and a read/write property.
type Person struct {
	Name string
	Tags []string
	age  int
}

// NewPerson constructs a Person.
func NewPerson(name string) *Person {
	return &Person{Name: name}
}

// Age is the getter half of the Age property.
func (p *Person) Age() int {
	return p.age
}

// SetAge is the setter half of the Age property.
func (p *Person) SetAge(age int) {
	p.age = age
}

// Greet returns a greeting for p.
func (p *Person) Greet(greeting string) string {
	return greeting + ", " + p.Name
}

var (
	IntType     = reflect.TypeFor[int]()
	Int64Type   = reflect.TypeFor[int64]()
	StringType  = reflect.TypeFor[string]()
	BoolType    = reflect.TypeFor[bool]()
	Float64Type = reflect.TypeFor[float64]()
	PointType   = reflect.TypeFor[Point]()
	PersonType  = reflect.TypeFor[*Person]()
)

// PointCtor returns the constructor descriptor for NewPoint.
func PointCtor() *meta.Constructor {
	return meta.MustCtor(NewPoint)
}

// PersonCtor returns the constructor descriptor for NewPerson.
func PersonCtor() *meta.Constructor {
	return meta.MustCtor(NewPerson)
}

// Registry returns the default registry extended with the fixture types.
func Registry() *meta.Registry {
	r := meta.DefaultRegistry()
	r.RegisterType("Point", PointType)
	r.RegisterType("Person", PersonType)
	r.RegisterCtor("NewPoint", PointCtor())
	r.RegisterCtor("NewPerson", PersonCtor())
	r.RegisterMethod("Twice", meta.MustFunc(Twice))
	return r
}

// Twice doubles x. It serves as a static method fixture.
func Twice(x int) int {
	return x * 2
}
