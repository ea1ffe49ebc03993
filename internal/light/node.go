package light

import (
	"reflect"
	"sync/atomic"

	"github.com/weichx/FastExpressionCompiler/internal/expr"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// Node is an element of a light tree. Type is the result type, derived
// when the node is built and stored on it.
//
// Slices returned by node accessors are owned by the node and must not be
// modified.
type Node interface {
	Kind() Kind
	Type() reflect.Type
	lightNode() // Marker method - seals interface to this package
}

// Parameter is a variable. Distinct *Parameter values are distinct
// variables even when their types and names agree.
type Parameter struct {
	typ   reflect.Type
	name  string
	byRef bool

	canonical atomic.Pointer[expr.Parameter]
}

func (p *Parameter) Kind() Kind         { return KindParameter }
func (p *Parameter) Type() reflect.Type { return p.typ }
func (p *Parameter) Name() string       { return p.name }
func (p *Parameter) IsByRef() bool      { return p.byRef }
func (*Parameter) lightNode()           {}

// SignatureType is the type p occupies in a lambda signature: *T for a
// by-reference variable of type T.
func (p *Parameter) SignatureType() reflect.Type {
	if p.byRef {
		return meta.ByRefOf(p.typ)
	}
	return p.typ
}

// Canonical returns the canonical variable for p, creating it on first
// use. Every call returns the same *expr.Parameter, including calls racing
// from different goroutines.
func (p *Parameter) Canonical() *expr.Parameter {
	c, _ := p.lower()
	return c
}

// lower is Canonical that also reports whether this call created the
// canonical variable.
func (p *Parameter) lower() (*expr.Parameter, bool) {
	if c := p.canonical.Load(); c != nil {
		return c, false
	}
	var c *expr.Parameter
	if p.byRef {
		c = expr.NewByRefParameter(p.typ, p.name)
	} else {
		c = expr.NewParameter(p.typ, p.name)
	}
	if p.canonical.CompareAndSwap(nil, c) {
		return c, true
	}
	return p.canonical.Load(), false
}

// Constant is a literal value.
type Constant struct {
	value any
	typ   reflect.Type
}

func (c *Constant) Kind() Kind         { return KindConstant }
func (c *Constant) Type() reflect.Type { return c.typ }
func (c *Constant) Value() any         { return c.value }
func (*Constant) lightNode()           {}

// UnaryExpr is a Convert or Throw.
type UnaryExpr struct {
	op      Op
	operand Node
	typ     reflect.Type
}

func (u *UnaryExpr) Kind() Kind         { return KindUnary }
func (u *UnaryExpr) Type() reflect.Type { return u.typ }
func (u *UnaryExpr) Op() Op             { return u.op }
func (u *UnaryExpr) Operand() Node      { return u.operand }
func (*UnaryExpr) lightNode()           {}

// BinaryExpr is an arithmetic operation. Its type is the type of the left
// operand; operands are not promoted.
type BinaryExpr struct {
	op          Op
	left, right Node
	typ         reflect.Type
}

func (b *BinaryExpr) Kind() Kind         { return KindArithmeticBinary }
func (b *BinaryExpr) Type() reflect.Type { return b.typ }
func (b *BinaryExpr) Op() Op             { return b.op }
func (b *BinaryExpr) Left() Node         { return b.left }
func (b *BinaryExpr) Right() Node        { return b.right }
func (*BinaryExpr) lightNode()           {}

// IndexExpr reads an array element.
type IndexExpr struct {
	array, index Node
	typ          reflect.Type
}

func (x *IndexExpr) Kind() Kind         { return KindArrayIndex }
func (x *IndexExpr) Type() reflect.Type { return x.typ }
func (x *IndexExpr) Array() Node        { return x.array }
func (x *IndexExpr) Index() Node        { return x.index }
func (*IndexExpr) lightNode()           {}

// AssignExpr stores right into left.
type AssignExpr struct {
	left, right Node
	typ         reflect.Type
}

func (a *AssignExpr) Kind() Kind         { return KindAssign }
func (a *AssignExpr) Type() reflect.Type { return a.typ }
func (a *AssignExpr) Left() Node         { return a.left }
func (a *AssignExpr) Right() Node        { return a.right }
func (*AssignExpr) lightNode()           {}

// NewExpr calls a constructor.
type NewExpr struct {
	ctor *meta.Constructor
	args []Node
	typ  reflect.Type
}

func (n *NewExpr) Kind() Kind                     { return KindNew }
func (n *NewExpr) Type() reflect.Type             { return n.typ }
func (n *NewExpr) Constructor() *meta.Constructor { return n.ctor }
func (n *NewExpr) Args() []Node                   { return n.args }
func (*NewExpr) lightNode()                       {}

// NewArrayExpr creates an array from its items.
type NewArrayExpr struct {
	elem  reflect.Type
	typ   reflect.Type
	items []Node
}

func (n *NewArrayExpr) Kind() Kind                { return KindNewArray }
func (n *NewArrayExpr) Type() reflect.Type        { return n.typ }
func (n *NewArrayExpr) ElementType() reflect.Type { return n.elem }
func (n *NewArrayExpr) Items() []Node             { return n.items }
func (*NewArrayExpr) lightNode()                  {}

// CallExpr calls a method. Receiver is nil for static methods.
type CallExpr struct {
	receiver Node
	method   *meta.Method
	args     []Node
	typ      reflect.Type
}

func (c *CallExpr) Kind() Kind           { return KindMethodCall }
func (c *CallExpr) Type() reflect.Type   { return c.typ }
func (c *CallExpr) Receiver() Node       { return c.receiver }
func (c *CallExpr) Method() *meta.Method { return c.method }
func (c *CallExpr) Args() []Node         { return c.args }
func (*CallExpr) lightNode()             {}

// PropertyExpr reads a property. Receiver is nil for static properties.
type PropertyExpr struct {
	receiver Node
	prop     *meta.Property
	typ      reflect.Type
}

func (p *PropertyExpr) Kind() Kind               { return KindPropertyAccess }
func (p *PropertyExpr) Type() reflect.Type       { return p.typ }
func (p *PropertyExpr) Receiver() Node           { return p.receiver }
func (p *PropertyExpr) Property() *meta.Property { return p.prop }
func (*PropertyExpr) lightNode()                 {}

// FieldExpr reads a struct field.
type FieldExpr struct {
	receiver Node
	field    *meta.Field
	typ      reflect.Type
}

func (f *FieldExpr) Kind() Kind         { return KindFieldAccess }
func (f *FieldExpr) Type() reflect.Type { return f.typ }
func (f *FieldExpr) Receiver() Node     { return f.receiver }
func (f *FieldExpr) Field() *meta.Field { return f.field }
func (*FieldExpr) lightNode()           {}

// MemberBinding pairs a member with the value a MemberInitExpr stores in
// it.
type MemberBinding struct {
	member meta.Member
	value  Node
}

func (b *MemberBinding) Member() meta.Member { return b.member }
func (b *MemberBinding) Value() Node         { return b.value }

// MemberInitExpr evaluates base and then applies its bindings.
type MemberInitExpr struct {
	base     Node
	bindings []*MemberBinding
	typ      reflect.Type
}

func (m *MemberInitExpr) Kind() Kind                 { return KindMemberInit }
func (m *MemberInitExpr) Type() reflect.Type         { return m.typ }
func (m *MemberInitExpr) Base() Node                 { return m.base }
func (m *MemberInitExpr) Bindings() []*MemberBinding { return m.bindings }
func (*MemberInitExpr) lightNode()                   {}

// InvokeExpr calls a func-typed value. Its type is the declared result
// type of the callee.
type InvokeExpr struct {
	callee Node
	args   []Node
	typ    reflect.Type
}

func (i *InvokeExpr) Kind() Kind         { return KindInvocation }
func (i *InvokeExpr) Type() reflect.Type { return i.typ }
func (i *InvokeExpr) Callee() Node       { return i.callee }
func (i *InvokeExpr) Args() []Node       { return i.args }
func (*InvokeExpr) lightNode()           {}

// BlockExpr evaluates statements in order within the scope of its
// variables. Its type is the type of the last statement.
type BlockExpr struct {
	variables  []*Parameter
	statements []Node
	typ        reflect.Type
}

func (b *BlockExpr) Kind() Kind              { return KindBlock }
func (b *BlockExpr) Type() reflect.Type      { return b.typ }
func (b *BlockExpr) Variables() []*Parameter { return b.variables }
func (b *BlockExpr) Statements() []Node      { return b.statements }
func (*BlockExpr) lightNode()                {}

// CatchBlock is an exception handler.
type CatchBlock struct {
	test     reflect.Type
	variable *Parameter
	body     Node
}

func (c *CatchBlock) Test() reflect.Type   { return c.test }
func (c *CatchBlock) Variable() *Parameter { return c.variable }
func (c *CatchBlock) Body() Node           { return c.body }

// TryExpr guards body with handlers and an optional finally.
type TryExpr struct {
	body     Node
	finally  Node
	handlers []*CatchBlock
	typ      reflect.Type
}

func (t *TryExpr) Kind() Kind              { return KindTry }
func (t *TryExpr) Type() reflect.Type      { return t.typ }
func (t *TryExpr) Body() Node              { return t.body }
func (t *TryExpr) Finally() Node           { return t.finally }
func (t *TryExpr) Handlers() []*CatchBlock { return t.handlers }
func (*TryExpr) lightNode()                {}

// LambdaExpr is a function literal. Its type is the func type given at
// construction (a TypedLambda) or the one resolved from its parameters and
// body.
type LambdaExpr struct {
	typ    reflect.Type
	body   Node
	params []*Parameter
	typed  bool
}

func (l *LambdaExpr) Kind() Kind {
	if l.typed {
		return KindTypedLambda
	}
	return KindLambda
}

func (l *LambdaExpr) Type() reflect.Type   { return l.typ }
func (l *LambdaExpr) Body() Node           { return l.body }
func (l *LambdaExpr) Params() []*Parameter { return l.params }
func (*LambdaExpr) lightNode()             {}
