package meta

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/weichx/FastExpressionCompiler/internal/collect"
)

// Descriptor is any reflection handle with a declaring type.
type Descriptor interface {
	Name() string
	DeclaringType() reflect.Type
}

// Member is a field or property that can be read, and possibly written,
// on an instance (or statically, for static properties).
type Member interface {
	Descriptor
	ValueType() reflect.Type
	IsStatic() bool
	CanWrite() bool
	member()
}

// DeclaringTypeOf returns the declaring type of a descriptor.
func DeclaringTypeOf(d Descriptor) reflect.Type {
	return d.DeclaringType()
}

// ReturnTypeOf returns the declared return type of a method.
func ReturnTypeOf(m *Method) reflect.Type {
	return m.ReturnType()
}

// ValueTypeOf returns the value type of a field or property.
func ValueTypeOf(m Member) reflect.Type {
	return m.ValueType()
}

// Constructor describes a func that produces a new value of its
// declaring type.
type Constructor struct {
	name      string
	fn        reflect.Value
	params    []reflect.Type
	declaring reflect.Type
}

// CtorOf wraps fn as a constructor. fn must be a non-variadic func with
// exactly one result; the result type is the declaring type.
func CtorOf(fn any) (*Constructor, error) {
	return NamedCtor("", fn)
}

// NamedCtor is CtorOf with an explicit name. An empty name falls back to
// the func's symbol name.
func NamedCtor(name string, fn any) (*Constructor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, errors.Newf("constructor must be a func, got %T", fn)
	}
	ft := v.Type()
	if ft.IsVariadic() {
		return nil, errors.Newf("constructor %s is variadic", ft)
	}
	if ft.NumOut() != 1 {
		return nil, errors.Newf("constructor %s must return exactly one value", ft)
	}
	if name == "" {
		name = funcName(v)
	}
	return &Constructor{
		name:      name,
		fn:        v,
		params:    FuncParams(ft),
		declaring: ft.Out(0),
	}, nil
}

// MustCtor is like CtorOf but panics on error.
// Use only in tests or for fixed registrations.
func MustCtor(fn any) *Constructor {
	c, err := CtorOf(fn)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Constructor) Name() string                { return c.name }
func (c *Constructor) DeclaringType() reflect.Type { return c.declaring }
func (c *Constructor) NumParams() int              { return len(c.params) }
func (c *Constructor) Param(i int) reflect.Type    { return c.params[i] }
func (c *Constructor) Func() reflect.Value         { return c.fn }
func (c *Constructor) String() string              { return c.name }

// Params returns a copy of the parameter types.
func (c *Constructor) Params() []reflect.Type { return collect.Clone(c.params) }

// Method describes an instance method or a static function.
type Method struct {
	name      string
	declaring reflect.Type
	fn        reflect.Value
	params    []reflect.Type
	ret       reflect.Type
	static    bool
}

// MethodOf looks up an exported instance method on t. When t is not a
// pointer and the method is declared on *t, the pointer type becomes the
// declaring type.
func MethodOf(t reflect.Type, name string) (*Method, error) {
	if t == nil {
		return nil, errors.New("method lookup on nil type")
	}
	declaring := t
	m, ok := t.MethodByName(name)
	if !ok && t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		declaring = reflect.PointerTo(t)
		m, ok = declaring.MethodByName(name)
	}
	if !ok {
		return nil, errors.Newf("type %s has no method %q", TypeName(t), name)
	}

	mt := m.Type
	first := 1
	if declaring.Kind() == reflect.Interface {
		// Interface method types carry no receiver.
		first = 0
	}
	if mt.IsVariadic() {
		return nil, errors.Newf("method %s.%s is variadic", TypeName(declaring), name)
	}
	ret, ok := FuncReturn(mt)
	if !ok {
		return nil, errors.Newf("method %s.%s returns %d values", TypeName(declaring), name, mt.NumOut())
	}

	params := make([]reflect.Type, 0, mt.NumIn()-first)
	for i := first; i < mt.NumIn(); i++ {
		params = append(params, mt.In(i))
	}
	return &Method{
		name:      name,
		declaring: declaring,
		fn:        m.Func,
		params:    params,
		ret:       ret,
	}, nil
}

// MustMethod is like MethodOf but panics on error.
func MustMethod(t reflect.Type, name string) *Method {
	m, err := MethodOf(t, name)
	if err != nil {
		panic(err)
	}
	return m
}

// StaticMethod wraps a plain func as a static method. declaring may be nil
// for package-level functions.
func StaticMethod(name string, declaring reflect.Type, fn any) (*Method, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, errors.Newf("static method must be a func, got %T", fn)
	}
	ft := v.Type()
	if ft.IsVariadic() {
		return nil, errors.Newf("static method %s is variadic", ft)
	}
	ret, ok := FuncReturn(ft)
	if !ok {
		return nil, errors.Newf("static method %s returns %d values", ft, ft.NumOut())
	}
	if name == "" {
		name = funcName(v)
	}
	return &Method{
		name:      name,
		declaring: declaring,
		fn:        v,
		params:    FuncParams(ft),
		ret:       ret,
		static:    true,
	}, nil
}

// FuncMethod wraps fn as a package-level static method named after its
// symbol.
func FuncMethod(fn any) (*Method, error) {
	return StaticMethod("", nil, fn)
}

// MustFunc is like FuncMethod but panics on error.
func MustFunc(fn any) *Method {
	m, err := FuncMethod(fn)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Method) Name() string                { return m.name }
func (m *Method) DeclaringType() reflect.Type { return m.declaring }
func (m *Method) ReturnType() reflect.Type    { return m.ret }
func (m *Method) IsStatic() bool              { return m.static }
func (m *Method) NumParams() int              { return len(m.params) }
func (m *Method) Param(i int) reflect.Type    { return m.params[i] }
func (m *Method) Params() []reflect.Type      { return collect.Clone(m.params) }

// Func returns the static func, or the method expression for instance
// methods (receiver as first argument). Interface methods have none.
func (m *Method) Func() reflect.Value { return m.fn }

func (m *Method) String() string {
	if m.declaring == nil {
		return m.name
	}
	return TypeName(m.declaring) + "." + m.name
}

// Field describes an exported struct field.
type Field struct {
	declaring reflect.Type
	field     reflect.StructField
}

// FieldOf looks up an exported field of the struct type t (or of the
// struct t points to).
func FieldOf(t reflect.Type, name string) (*Field, error) {
	if t == nil {
		return nil, errors.New("field lookup on nil type")
	}
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, errors.Newf("type %s is not a struct", TypeName(t))
	}
	sf, ok := base.FieldByName(name)
	if !ok {
		return nil, errors.Newf("type %s has no field %q", TypeName(base), name)
	}
	if !sf.IsExported() {
		return nil, errors.Newf("field %s.%s is not exported", TypeName(base), name)
	}
	return &Field{declaring: base, field: sf}, nil
}

// MustField is like FieldOf but panics on error.
func MustField(t reflect.Type, name string) *Field {
	f, err := FieldOf(t, name)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Field) Name() string                { return f.field.Name }
func (f *Field) DeclaringType() reflect.Type { return f.declaring }
func (f *Field) ValueType() reflect.Type     { return f.field.Type }
func (f *Field) IsStatic() bool              { return false }
func (f *Field) CanWrite() bool              { return true }
func (f *Field) Index() []int                { return collect.Clone(f.field.Index) }
func (f *Field) String() string              { return TypeName(f.declaring) + "." + f.field.Name }
func (*Field) member()                       {}

// Property describes a getter/setter pair.
type Property struct {
	name      string
	declaring reflect.Type
	typ       reflect.Type
	getter    *Method
	setter    *Method
	static    bool
}

// PropertyOf builds a property from the getter method name() on t and,
// when present, a setter Set<name>(v) on t or *t.
func PropertyOf(t reflect.Type, name string) (*Property, error) {
	getter, err := MethodOf(t, name)
	if err != nil {
		return nil, errors.Wrapf(err, "property %q", name)
	}
	if getter.NumParams() != 0 || IsVoid(getter.ReturnType()) {
		return nil, errors.Newf("getter %s must take no arguments and return a value", getter)
	}

	p := &Property{
		name:      name,
		declaring: t,
		typ:       getter.ReturnType(),
		getter:    getter,
	}
	if setter, err := MethodOf(t, "Set"+name); err == nil {
		if setter.NumParams() == 1 && setter.Param(0) == p.typ && IsVoid(setter.ReturnType()) {
			p.setter = setter
		}
	}
	return p, nil
}

// MustProperty is like PropertyOf but panics on error.
func MustProperty(t reflect.Type, name string) *Property {
	p, err := PropertyOf(t, name)
	if err != nil {
		panic(err)
	}
	return p
}

// StaticProperty wraps a no-argument getter func as a read-only static
// property.
func StaticProperty(name string, declaring reflect.Type, getter any) (*Property, error) {
	g, err := StaticMethod(name, declaring, getter)
	if err != nil {
		return nil, err
	}
	if g.NumParams() != 0 || IsVoid(g.ReturnType()) {
		return nil, errors.Newf("static property %q getter must take no arguments and return a value", name)
	}
	return &Property{
		name:      name,
		declaring: declaring,
		typ:       g.ReturnType(),
		getter:    g,
		static:    true,
	}, nil
}

func (p *Property) Name() string                { return p.name }
func (p *Property) DeclaringType() reflect.Type { return p.declaring }
func (p *Property) ValueType() reflect.Type     { return p.typ }
func (p *Property) IsStatic() bool              { return p.static }
func (p *Property) CanWrite() bool              { return p.setter != nil }
func (p *Property) Getter() *Method             { return p.getter }
func (p *Property) Setter() *Method             { return p.setter }
func (*Property) member()                       {}

func (p *Property) String() string {
	if p.declaring == nil {
		return p.name
	}
	return TypeName(p.declaring) + "." + p.name
}

// funcName returns the package-qualified symbol of a func value, trimmed
// to its last import path element ("strings.ToUpper").
func funcName(v reflect.Value) string {
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return v.Type().String()
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
