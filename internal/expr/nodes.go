package expr

import (
	"reflect"

	"github.com/weichx/FastExpressionCompiler/internal/collect"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// Parameter is a variable or lambda parameter. Two Parameters are the same
// variable only if they are the same pointer.
type Parameter struct {
	typ   reflect.Type
	name  string
	byRef bool
}

// NewParameter creates a variable of type t. name is informational.
func NewParameter(t reflect.Type, name string) *Parameter {
	return &Parameter{typ: t, name: name}
}

// NewByRefParameter creates a variable passed by reference. Its Type is t;
// in a lambda signature it occupies a *t slot.
func NewByRefParameter(t reflect.Type, name string) *Parameter {
	return &Parameter{typ: t, name: name, byRef: true}
}

func (p *Parameter) Kind() Kind         { return KindParameter }
func (p *Parameter) Type() reflect.Type { return p.typ }
func (p *Parameter) Name() string       { return p.name }
func (p *Parameter) IsByRef() bool      { return p.byRef }
func (*Parameter) canonicalExpr()       {}

// SignatureType is the type this parameter occupies in a func signature.
func (p *Parameter) SignatureType() reflect.Type {
	if p.byRef {
		return meta.ByRefOf(p.typ)
	}
	return p.typ
}

// Constant is a literal value.
type Constant struct {
	value any
	typ   reflect.Type
}

// NewConstant creates a constant of type t. A nil value requires a
// nillable t; otherwise the value's dynamic type must be assignable to t.
func NewConstant(value any, t reflect.Type) (*Constant, error) {
	if t == nil || meta.IsVoid(t) {
		return nil, invalid(KindConstant, "constant requires a non-void type")
	}
	if value == nil {
		if !meta.IsNillable(t) {
			return nil, invalid(KindConstant, "nil is not a valid %s", meta.TypeName(t))
		}
	} else if vt := reflect.TypeOf(value); !assignable(vt, t) {
		return nil, invalid(KindConstant, "value of type %s is not assignable to %s",
			meta.TypeName(vt), meta.TypeName(t))
	}
	return &Constant{value: value, typ: t}, nil
}

func (c *Constant) Kind() Kind         { return KindConstant }
func (c *Constant) Type() reflect.Type { return c.typ }
func (c *Constant) Value() any         { return c.value }
func (*Constant) canonicalExpr()       {}

// Unary is a conversion or a throw.
type Unary struct {
	kind    Kind
	operand Expr
	typ     reflect.Type
}

// Convert converts x to t. Accepted: identity, Go conversions
// (reflect.ConvertibleTo), boxing into an interface, and unboxing from an
// interface to a type that implements it.
func Convert(x Expr, t reflect.Type) (*Unary, error) {
	if x == nil {
		return nil, invalid(KindConvert, "operand is nil")
	}
	if t == nil || meta.IsVoid(t) {
		return nil, invalid(KindConvert, "target type must be non-void")
	}
	xt := x.Type()
	if meta.IsVoid(xt) {
		return nil, invalid(KindConvert, "cannot convert a void expression")
	}
	ok := xt == t || xt.ConvertibleTo(t) ||
		(xt.Kind() == reflect.Interface && t.AssignableTo(xt))
	if !ok {
		return nil, invalid(KindConvert, "no conversion from %s to %s", meta.TypeName(xt), meta.TypeName(t))
	}
	return &Unary{kind: KindConvert, operand: x, typ: t}, nil
}

// Throw raises x. The node's type is t, or void when t is nil, so a throw
// can stand in a position that expects a value. A nil x rethrows the
// exception of the enclosing catch.
func Throw(x Expr, t reflect.Type) (*Unary, error) {
	if t == nil {
		t = meta.VoidType
	}
	if x != nil && meta.IsVoid(x.Type()) {
		return nil, invalid(KindThrow, "cannot throw a void expression")
	}
	return &Unary{kind: KindThrow, operand: x, typ: t}, nil
}

func (u *Unary) Kind() Kind         { return u.kind }
func (u *Unary) Type() reflect.Type { return u.typ }
func (u *Unary) Operand() Expr      { return u.operand }
func (*Unary) canonicalExpr()       {}

// Binary is an arithmetic operation on two operands of the same type.
type Binary struct {
	kind        Kind
	left, right Expr
}

// Add adds numbers or concatenates strings.
func Add(left, right Expr) (*Binary, error) { return arithmetic(KindAdd, left, right) }

// Subtract subtracts right from left.
func Subtract(left, right Expr) (*Binary, error) { return arithmetic(KindSubtract, left, right) }

// Multiply multiplies left by right.
func Multiply(left, right Expr) (*Binary, error) { return arithmetic(KindMultiply, left, right) }

// Divide divides left by right.
func Divide(left, right Expr) (*Binary, error) { return arithmetic(KindDivide, left, right) }

func arithmetic(kind Kind, left, right Expr) (*Binary, error) {
	if left == nil || right == nil {
		return nil, invalid(kind, "operand is nil")
	}
	lt, rt := left.Type(), right.Type()
	if lt != rt {
		return nil, invalid(kind, "operand types differ: %s and %s", meta.TypeName(lt), meta.TypeName(rt))
	}
	if !meta.IsNumeric(lt) && !(kind == KindAdd && lt.Kind() == reflect.String) {
		return nil, invalid(kind, "operator not defined for %s", meta.TypeName(lt))
	}
	return &Binary{kind: kind, left: left, right: right}, nil
}

func (b *Binary) Kind() Kind         { return b.kind }
func (b *Binary) Type() reflect.Type { return b.left.Type() }
func (b *Binary) Left() Expr         { return b.left }
func (b *Binary) Right() Expr        { return b.right }
func (*Binary) canonicalExpr()       {}

// Index reads an element of a slice or array.
type Index struct {
	array, index Expr
	typ          reflect.Type
}

// ArrayIndex indexes array by an integer index.
func ArrayIndex(array, index Expr) (*Index, error) {
	if array == nil || index == nil {
		return nil, invalid(KindIndex, "operand is nil")
	}
	elem, ok := meta.ElementTypeOf(array.Type())
	if !ok {
		return nil, invalid(KindIndex, "%s is not an array type", meta.TypeName(array.Type()))
	}
	if !meta.IsInteger(index.Type()) {
		return nil, invalid(KindIndex, "index must be an integer, got %s", meta.TypeName(index.Type()))
	}
	return &Index{array: array, index: index, typ: elem}, nil
}

func (x *Index) Kind() Kind         { return KindIndex }
func (x *Index) Type() reflect.Type { return x.typ }
func (x *Index) Array() Expr        { return x.array }
func (x *Index) IndexExpr() Expr    { return x.index }
func (*Index) canonicalExpr()       {}

// Assign stores right into left.
type Assign struct {
	left, right Expr
}

// NewAssign assigns right to left. left must be a variable, an indexed
// element, a field, or a writable property.
func NewAssign(left, right Expr) (*Assign, error) {
	if left == nil || right == nil {
		return nil, invalid(KindAssign, "operand is nil")
	}
	switch l := left.(type) {
	case *Parameter, *Index:
	case *Member:
		if !l.member.CanWrite() {
			return nil, invalid(KindAssign, "%s is read-only", l.member.Name())
		}
	default:
		return nil, invalid(KindAssign, "%s is not assignable", left.Kind())
	}
	if !assignable(right.Type(), left.Type()) {
		return nil, invalid(KindAssign, "%s is not assignable to %s",
			meta.TypeName(right.Type()), meta.TypeName(left.Type()))
	}
	return &Assign{left: left, right: right}, nil
}

func (a *Assign) Kind() Kind         { return KindAssign }
func (a *Assign) Type() reflect.Type { return a.left.Type() }
func (a *Assign) Left() Expr         { return a.left }
func (a *Assign) Right() Expr        { return a.right }
func (*Assign) canonicalExpr()       {}

// New invokes a constructor.
type New struct {
	ctor *meta.Constructor
	args []Expr
}

// NewObject calls ctor with args.
func NewObject(ctor *meta.Constructor, args ...Expr) (*New, error) {
	if ctor == nil {
		return nil, invalid(KindNew, "constructor is nil")
	}
	if err := checkArgs(KindNew, ctor.Name(), ctor.Params(), args); err != nil {
		return nil, err
	}
	return &New{ctor: ctor, args: collect.Clone(args)}, nil
}

func (n *New) Kind() Kind                     { return KindNew }
func (n *New) Type() reflect.Type             { return n.ctor.DeclaringType() }
func (n *New) Constructor() *meta.Constructor { return n.ctor }
func (n *New) Args() []Expr                   { return collect.Clone(n.args) }
func (*New) canonicalExpr()                   {}

// NewArray creates a slice from its items.
type NewArray struct {
	elem  reflect.Type
	items []Expr
}

// NewArrayInit creates a []elem holding items.
func NewArrayInit(elem reflect.Type, items ...Expr) (*NewArray, error) {
	if elem == nil || meta.IsVoid(elem) {
		return nil, invalid(KindNewArray, "element type must be non-void")
	}
	for i, item := range items {
		if item == nil {
			return nil, invalid(KindNewArray, "item %d is nil", i)
		}
		if !assignable(item.Type(), elem) {
			return nil, invalid(KindNewArray, "item %d: %s is not assignable to %s",
				i, meta.TypeName(item.Type()), meta.TypeName(elem))
		}
	}
	return &NewArray{elem: elem, items: collect.Clone(items)}, nil
}

func (n *NewArray) Kind() Kind                { return KindNewArray }
func (n *NewArray) Type() reflect.Type        { return meta.ArrayOf(n.elem) }
func (n *NewArray) ElementType() reflect.Type { return n.elem }
func (n *NewArray) Items() []Expr             { return collect.Clone(n.items) }
func (*NewArray) canonicalExpr()              {}

// Call invokes a method.
type Call struct {
	receiver Expr
	method   *meta.Method
	args     []Expr
}

// NewCall calls method on receiver. Static methods take a nil receiver.
func NewCall(receiver Expr, method *meta.Method, args ...Expr) (*Call, error) {
	if method == nil {
		return nil, invalid(KindCall, "method is nil")
	}
	if method.IsStatic() {
		if receiver != nil {
			return nil, invalid(KindCall, "static method %s called with a receiver", method)
		}
	} else {
		if receiver == nil {
			return nil, invalid(KindCall, "instance method %s requires a receiver", method)
		}
		if !receiverCompatible(receiver.Type(), method.DeclaringType()) {
			return nil, invalid(KindCall, "receiver %s does not declare %s",
				meta.TypeName(receiver.Type()), method)
		}
	}
	if err := checkArgs(KindCall, method.String(), method.Params(), args); err != nil {
		return nil, err
	}
	return &Call{receiver: receiver, method: method, args: collect.Clone(args)}, nil
}

func (c *Call) Kind() Kind           { return KindCall }
func (c *Call) Type() reflect.Type   { return c.method.ReturnType() }
func (c *Call) Receiver() Expr       { return c.receiver }
func (c *Call) Method() *meta.Method { return c.method }
func (c *Call) Args() []Expr         { return collect.Clone(c.args) }
func (*Call) canonicalExpr()         {}

// Member reads a field or property.
type Member struct {
	kind     Kind
	receiver Expr
	member   meta.Member
}

// FieldAccess reads field f of receiver.
func FieldAccess(receiver Expr, f *meta.Field) (*Member, error) {
	if f == nil {
		return nil, invalid(KindField, "field is nil")
	}
	return memberAccess(KindField, receiver, f)
}

// PropertyAccess reads property p of receiver, or of no receiver when p is
// static.
func PropertyAccess(receiver Expr, p *meta.Property) (*Member, error) {
	if p == nil {
		return nil, invalid(KindProperty, "property is nil")
	}
	return memberAccess(KindProperty, receiver, p)
}

func memberAccess(kind Kind, receiver Expr, m meta.Member) (*Member, error) {
	if m.IsStatic() {
		if receiver != nil {
			return nil, invalid(kind, "static member %s accessed with a receiver", m.Name())
		}
	} else {
		if receiver == nil {
			return nil, invalid(kind, "member %s requires a receiver", m.Name())
		}
		if !receiverCompatible(receiver.Type(), m.DeclaringType()) {
			return nil, invalid(kind, "receiver %s does not declare %s",
				meta.TypeName(receiver.Type()), m.Name())
		}
	}
	return &Member{kind: kind, receiver: receiver, member: m}, nil
}

func (m *Member) Kind() Kind          { return m.kind }
func (m *Member) Type() reflect.Type  { return m.member.ValueType() }
func (m *Member) Receiver() Expr      { return m.receiver }
func (m *Member) Member() meta.Member { return m.member }
func (*Member) canonicalExpr()        {}

// MemberBinding assigns a value to a member during MemberInit.
type MemberBinding struct {
	member meta.Member
	value  Expr
}

// Bind creates a binding of value to the writable instance member m.
func Bind(m meta.Member, value Expr) (*MemberBinding, error) {
	if m == nil || value == nil {
		return nil, invalid(KindMemberInit, "binding member or value is nil")
	}
	if m.IsStatic() || !m.CanWrite() {
		return nil, invalid(KindMemberInit, "member %s cannot be bound", m.Name())
	}
	if !assignable(value.Type(), m.ValueType()) {
		return nil, invalid(KindMemberInit, "binding %s: %s is not assignable to %s",
			m.Name(), meta.TypeName(value.Type()), meta.TypeName(m.ValueType()))
	}
	return &MemberBinding{member: m, value: value}, nil
}

func (b *MemberBinding) Member() meta.Member { return b.member }
func (b *MemberBinding) Value() Expr         { return b.value }

// MemberInit evaluates a base instance and then applies bindings to it.
type MemberInit struct {
	base     Expr
	bindings []*MemberBinding
}

// NewMemberInit applies bindings to base. Every bound member must be
// declared by base's type.
func NewMemberInit(base Expr, bindings ...*MemberBinding) (*MemberInit, error) {
	if base == nil {
		return nil, invalid(KindMemberInit, "base is nil")
	}
	for i, b := range bindings {
		if b == nil {
			return nil, invalid(KindMemberInit, "binding %d is nil", i)
		}
		if !receiverCompatible(base.Type(), b.member.DeclaringType()) {
			return nil, invalid(KindMemberInit, "binding %d: %s does not declare %s",
				i, meta.TypeName(base.Type()), b.member.Name())
		}
	}
	return &MemberInit{base: base, bindings: collect.Clone(bindings)}, nil
}

func (m *MemberInit) Kind() Kind                 { return KindMemberInit }
func (m *MemberInit) Type() reflect.Type         { return m.base.Type() }
func (m *MemberInit) Base() Expr                 { return m.base }
func (m *MemberInit) Bindings() []*MemberBinding { return collect.Clone(m.bindings) }
func (*MemberInit) canonicalExpr()               {}

// Invoke calls a func-typed expression.
type Invoke struct {
	callee Expr
	args   []Expr
	typ    reflect.Type
}

// NewInvoke invokes callee with args.
func NewInvoke(callee Expr, args ...Expr) (*Invoke, error) {
	if callee == nil {
		return nil, invalid(KindInvoke, "callee is nil")
	}
	ft := callee.Type()
	ret, ok := meta.FuncReturn(ft)
	if !ok || ft.IsVariadic() {
		return nil, invalid(KindInvoke, "%s is not an invocable func type", meta.TypeName(ft))
	}
	if err := checkArgs(KindInvoke, meta.TypeName(ft), meta.FuncParams(ft), args); err != nil {
		return nil, err
	}
	return &Invoke{callee: callee, args: collect.Clone(args), typ: ret}, nil
}

func (i *Invoke) Kind() Kind         { return KindInvoke }
func (i *Invoke) Type() reflect.Type { return i.typ }
func (i *Invoke) Callee() Expr       { return i.callee }
func (i *Invoke) Args() []Expr       { return collect.Clone(i.args) }
func (*Invoke) canonicalExpr()       {}

// Block runs expressions in order within a variable scope. Its value is
// the value of the last expression.
type Block struct {
	variables []*Parameter
	exprs     []Expr
}

// NewBlock declares variables and sequences exprs. At least one expression
// is required and a variable may be declared only once.
func NewBlock(variables []*Parameter, exprs ...Expr) (*Block, error) {
	if len(exprs) == 0 {
		return nil, invalid(KindBlock, "block requires at least one expression")
	}
	for i, e := range exprs {
		if e == nil {
			return nil, invalid(KindBlock, "expression %d is nil", i)
		}
	}
	if err := checkDeclarations(KindBlock, variables); err != nil {
		return nil, err
	}
	return &Block{variables: collect.Clone(variables), exprs: collect.Clone(exprs)}, nil
}

func (b *Block) Kind() Kind              { return KindBlock }
func (b *Block) Type() reflect.Type      { return b.exprs[len(b.exprs)-1].Type() }
func (b *Block) Variables() []*Parameter { return collect.Clone(b.variables) }
func (b *Block) Exprs() []Expr           { return collect.Clone(b.exprs) }
func (*Block) canonicalExpr()            {}

// Catch is an exception handler of a Try.
type Catch struct {
	test     reflect.Type
	variable *Parameter
	body     Expr
}

// NewCatch handles exceptions assignable to test. variable, when not nil,
// receives the exception and must be of type test.
func NewCatch(test reflect.Type, variable *Parameter, body Expr) (*Catch, error) {
	if variable != nil {
		if test == nil {
			test = variable.Type()
		}
		if variable.Type() != test {
			return nil, invalid(KindTry, "catch variable %s does not match %s",
				meta.TypeName(variable.Type()), meta.TypeName(test))
		}
	}
	if test == nil || meta.IsVoid(test) {
		return nil, invalid(KindTry, "catch requires a test type")
	}
	if body == nil {
		return nil, invalid(KindTry, "catch body is nil")
	}
	return &Catch{test: test, variable: variable, body: body}, nil
}

func (c *Catch) Test() reflect.Type   { return c.test }
func (c *Catch) Variable() *Parameter { return c.variable }
func (c *Catch) Body() Expr           { return c.body }

// Try runs body with exception handlers and an optional finally.
type Try struct {
	body     Expr
	finally  Expr
	handlers []*Catch
}

// NewTry builds a try expression. At least one of finally or handlers is
// required. When body has a value every handler body must produce a value
// assignable to it.
func NewTry(body, finally Expr, handlers ...*Catch) (*Try, error) {
	if body == nil {
		return nil, invalid(KindTry, "body is nil")
	}
	if finally == nil && len(handlers) == 0 {
		return nil, invalid(KindTry, "try requires a finally or at least one handler")
	}
	bt := body.Type()
	for i, h := range handlers {
		if h == nil {
			return nil, invalid(KindTry, "handler %d is nil", i)
		}
		if !meta.IsVoid(bt) && !assignable(h.body.Type(), bt) {
			return nil, invalid(KindTry, "handler %d body %s does not match try body %s",
				i, meta.TypeName(h.body.Type()), meta.TypeName(bt))
		}
	}
	return &Try{body: body, finally: finally, handlers: collect.Clone(handlers)}, nil
}

func (t *Try) Kind() Kind         { return KindTry }
func (t *Try) Type() reflect.Type { return t.body.Type() }
func (t *Try) Body() Expr         { return t.body }
func (t *Try) Finally() Expr      { return t.finally }
func (t *Try) Handlers() []*Catch { return collect.Clone(t.handlers) }
func (*Try) canonicalExpr()       {}

// Lambda is a function literal of a Go func type.
type Lambda struct {
	typ    reflect.Type
	body   Expr
	params []*Parameter
}

// NewLambda builds a lambda of funcType. Parameter signature types must
// match funcType's inputs exactly; a value-returning funcType requires a
// body assignable to its result, a void one discards the body's value.
func NewLambda(funcType reflect.Type, body Expr, params ...*Parameter) (*Lambda, error) {
	if funcType == nil || funcType.Kind() != reflect.Func || funcType.IsVariadic() {
		return nil, invalid(KindLambda, "%s is not a lambda signature", meta.TypeName(funcType))
	}
	if body == nil {
		return nil, invalid(KindLambda, "body is nil")
	}
	ret, ok := meta.FuncReturn(funcType)
	if !ok {
		return nil, invalid(KindLambda, "%s has more than one result", meta.TypeName(funcType))
	}
	if funcType.NumIn() != len(params) {
		return nil, invalid(KindLambda, "%s expects %d parameter(s), got %d",
			meta.TypeName(funcType), funcType.NumIn(), len(params))
	}
	if err := checkDeclarations(KindLambda, params); err != nil {
		return nil, err
	}
	for i, p := range params {
		if p.SignatureType() != funcType.In(i) {
			return nil, invalid(KindLambda, "parameter %d is %s, signature expects %s",
				i, meta.TypeName(p.SignatureType()), meta.TypeName(funcType.In(i)))
		}
	}
	if !meta.IsVoid(ret) && !assignable(body.Type(), ret) {
		return nil, invalid(KindLambda, "body %s is not assignable to result %s",
			meta.TypeName(body.Type()), meta.TypeName(ret))
	}
	return &Lambda{typ: funcType, body: body, params: collect.Clone(params)}, nil
}

func (l *Lambda) Kind() Kind           { return KindLambda }
func (l *Lambda) Type() reflect.Type   { return l.typ }
func (l *Lambda) Body() Expr           { return l.body }
func (l *Lambda) Params() []*Parameter { return collect.Clone(l.params) }
func (*Lambda) canonicalExpr()         {}

// ReturnType is the result type of the lambda's signature.
func (l *Lambda) ReturnType() reflect.Type {
	ret, _ := meta.FuncReturn(l.typ)
	return ret
}

// checkDeclarations rejects nil and repeated declarations.
func checkDeclarations(kind Kind, params []*Parameter) error {
	seen := make(map[*Parameter]bool, len(params))
	for i, p := range params {
		if p == nil {
			return invalid(kind, "declaration %d is nil", i)
		}
		if seen[p] {
			return invalid(kind, "variable %s declared twice", displayName(p))
		}
		seen[p] = true
	}
	return nil
}

func displayName(p *Parameter) string {
	if p.name == "" {
		return "<unnamed " + meta.TypeName(p.typ) + ">"
	}
	return p.name
}
