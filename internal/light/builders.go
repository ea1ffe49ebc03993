package light

import (
	"reflect"

	"github.com/weichx/FastExpressionCompiler/internal/collect"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// Must returns n, panicking if err is not nil. It is meant for trees whose
// shape is fixed in code.
func Must[T any](n T, err error) T {
	if err != nil {
		panic(err)
	}
	return n
}

// Variable creates a variable of type t. The name is informational. A nil
// t is rejected by the Lambda, Block and Catch constructors that bind it.
func Variable(t reflect.Type, name string) *Parameter {
	return &Parameter{typ: t, name: name}
}

// ByRefVariable creates a variable passed by reference.
func ByRefVariable(t reflect.Type, name string) *Parameter {
	return &Parameter{typ: t, name: name, byRef: true}
}

// Literal creates a constant. A nil t takes the dynamic type of value, or
// object when value is nil too.
func Literal(value any, t reflect.Type) *Constant {
	if t == nil {
		t = meta.ObjectType
		if value != nil {
			t = reflect.TypeOf(value)
		}
	}
	return &Constant{value: value, typ: t}
}

// LiteralOf creates a constant typed as T.
func LiteralOf[T any](value T) *Constant {
	return &Constant{value: value, typ: reflect.TypeFor[T]()}
}

// NewUnary creates a unary node of type target. Only OpConvert and OpThrow
// have a rule.
func NewUnary(op Op, operand Node, target reflect.Type) (*UnaryExpr, error) {
	if !isUnaryOp(op) {
		return nil, unsupportedNodeKind(KindUnary, op)
	}
	if isNil(operand) {
		return nil, malformed(KindUnary, "%s operand is nil", op)
	}
	if target == nil {
		return nil, malformed(KindUnary, "%s target type is nil", op)
	}
	return &UnaryExpr{op: op, operand: operand, typ: target}, nil
}

// Convert converts operand to t.
func Convert(operand Node, t reflect.Type) (*UnaryExpr, error) {
	return NewUnary(OpConvert, operand, t)
}

// Throw raises value. The node produces no value.
func Throw(value Node) (*UnaryExpr, error) {
	return NewUnary(OpThrow, value, meta.VoidType)
}

// ThrowAs raises value from a position that expects a t.
func ThrowAs(value Node, t reflect.Type) (*UnaryExpr, error) {
	return NewUnary(OpThrow, value, t)
}

// NewArithmetic creates a binary node typed as its left operand. Only Add,
// Subtract, Multiply and Divide have a rule.
func NewArithmetic(op Op, left, right Node) (*BinaryExpr, error) {
	if !isArithmeticOp(op) {
		return nil, unsupportedNodeKind(KindArithmeticBinary, op)
	}
	if isNil(left) || isNil(right) {
		return nil, malformed(KindArithmeticBinary, "%s operand is nil", op)
	}
	return &BinaryExpr{op: op, left: left, right: right, typ: left.Type()}, nil
}

// Add, Subtract, Multiply and Divide build arithmetic nodes.
func Add(left, right Node) (*BinaryExpr, error)      { return NewArithmetic(OpAdd, left, right) }
func Subtract(left, right Node) (*BinaryExpr, error) { return NewArithmetic(OpSubtract, left, right) }
func Multiply(left, right Node) (*BinaryExpr, error) { return NewArithmetic(OpMultiply, left, right) }
func Divide(left, right Node) (*BinaryExpr, error)   { return NewArithmetic(OpDivide, left, right) }

// ArrayIndex reads array[index].
func ArrayIndex(array, index Node) (*IndexExpr, error) {
	if isNil(array) || isNil(index) {
		return nil, malformed(KindArrayIndex, "operand is nil")
	}
	elem, ok := meta.ElementTypeOf(array.Type())
	if !ok {
		return nil, malformed(KindArrayIndex, "%s is not an array type", meta.TypeName(array.Type()))
	}
	return &IndexExpr{array: array, index: index, typ: elem}, nil
}

// Assign stores right into left. right is not checked against left.
func Assign(left, right Node) (*AssignExpr, error) {
	if isNil(left) || isNil(right) {
		return nil, malformed(KindAssign, "operand is nil")
	}
	return &AssignExpr{left: left, right: right, typ: left.Type()}, nil
}

// NewObject calls ctor with args.
func NewObject(ctor *meta.Constructor, args ...Node) (*NewExpr, error) {
	if ctor == nil {
		return nil, malformed(KindNew, "constructor is nil")
	}
	if err := checkNodes(KindNew, "argument", args); err != nil {
		return nil, err
	}
	return &NewExpr{ctor: ctor, args: collect.Clone(args), typ: ctor.DeclaringType()}, nil
}

// NewArray creates a []elem holding items.
func NewArray(elem reflect.Type, items ...Node) (*NewArrayExpr, error) {
	if elem == nil {
		return nil, malformed(KindNewArray, "element type is nil")
	}
	if err := checkNodes(KindNewArray, "item", items); err != nil {
		return nil, err
	}
	return &NewArrayExpr{elem: elem, typ: meta.ArrayOf(elem), items: collect.Clone(items)}, nil
}

// Call calls method on receiver. Pass a nil receiver for static methods.
func Call(receiver Node, method *meta.Method, args ...Node) (*CallExpr, error) {
	if method == nil {
		return nil, malformed(KindMethodCall, "method is nil")
	}
	if err := checkNodes(KindMethodCall, "argument", args); err != nil {
		return nil, err
	}
	return &CallExpr{
		receiver: orNil(receiver),
		method:   method,
		args:     collect.Clone(args),
		typ:      meta.ReturnTypeOf(method),
	}, nil
}

// Property reads prop of receiver. Pass a nil receiver for static
// properties.
func Property(receiver Node, prop *meta.Property) (*PropertyExpr, error) {
	if prop == nil {
		return nil, malformed(KindPropertyAccess, "property is nil")
	}
	return &PropertyExpr{receiver: orNil(receiver), prop: prop, typ: meta.ValueTypeOf(prop)}, nil
}

// Field reads field of receiver.
func Field(receiver Node, field *meta.Field) (*FieldExpr, error) {
	if field == nil {
		return nil, malformed(KindFieldAccess, "field is nil")
	}
	return &FieldExpr{receiver: orNil(receiver), field: field, typ: meta.ValueTypeOf(field)}, nil
}

// Bind pairs member with the value a MemberInit stores in it.
func Bind(member meta.Member, value Node) (*MemberBinding, error) {
	if member == nil || isNil(value) {
		return nil, malformed(KindMemberInit, "binding member or value is nil")
	}
	return &MemberBinding{member: member, value: value}, nil
}

// MemberInit evaluates base, a new object or an existing instance, and
// applies bindings to it.
func MemberInit(base Node, bindings ...*MemberBinding) (*MemberInitExpr, error) {
	if isNil(base) {
		return nil, malformed(KindMemberInit, "base is nil")
	}
	for i, b := range bindings {
		if b == nil {
			return nil, malformed(KindMemberInit, "binding %d is nil", i)
		}
	}
	return &MemberInitExpr{base: base, bindings: collect.Clone(bindings), typ: base.Type()}, nil
}

// Invoke calls callee, whose type must be a func type, with args. The
// node's type is the callee's result type.
func Invoke(callee Node, args ...Node) (*InvokeExpr, error) {
	if isNil(callee) {
		return nil, malformed(KindInvocation, "callee is nil")
	}
	ret, ok := meta.FuncReturn(callee.Type())
	if !ok {
		return nil, malformed(KindInvocation, "callee type %s is not invocable", meta.TypeName(callee.Type()))
	}
	return InvokeAs(ret, callee, args...)
}

// InvokeAs calls callee with args and declares the result type.
func InvokeAs(declared reflect.Type, callee Node, args ...Node) (*InvokeExpr, error) {
	if isNil(callee) {
		return nil, malformed(KindInvocation, "callee is nil")
	}
	if declared == nil {
		return nil, malformed(KindInvocation, "declared type is nil")
	}
	if err := checkNodes(KindInvocation, "argument", args); err != nil {
		return nil, err
	}
	return &InvokeExpr{callee: callee, args: collect.Clone(args), typ: declared}, nil
}

// Block sequences statements. It requires at least one statement.
func Block(statements ...Node) (*BlockExpr, error) {
	return BlockWithVariables(nil, statements...)
}

// BlockWithVariables sequences statements in the scope of variables.
func BlockWithVariables(variables []*Parameter, statements ...Node) (*BlockExpr, error) {
	if len(statements) == 0 {
		return nil, malformed(KindBlock, "block has no statements")
	}
	if err := checkNodes(KindBlock, "statement", statements); err != nil {
		return nil, err
	}
	for i, v := range variables {
		if err := checkParam(KindBlock, "variable", i, v); err != nil {
			return nil, err
		}
	}
	return &BlockExpr{
		variables:  collect.Clone(variables),
		statements: collect.Clone(statements),
		typ:        statements[len(statements)-1].Type(),
	}, nil
}

// Catch handles exceptions of type test without binding them.
func Catch(test reflect.Type, body Node) (*CatchBlock, error) {
	if test == nil {
		return nil, malformed(KindTry, "catch test type is nil")
	}
	if isNil(body) {
		return nil, malformed(KindTry, "catch body is nil")
	}
	return &CatchBlock{test: test, body: body}, nil
}

// CatchVariable handles exceptions of the variable's type and binds them
// to it.
func CatchVariable(variable *Parameter, body Node) (*CatchBlock, error) {
	switch {
	case variable == nil:
		return nil, malformed(KindTry, "catch variable is nil")
	case variable.typ == nil:
		return nil, malformed(KindTry, "catch variable %s has no type", variable.name)
	}
	if isNil(body) {
		return nil, malformed(KindTry, "catch body is nil")
	}
	return &CatchBlock{test: variable.Type(), variable: variable, body: body}, nil
}

// TryCatch guards body with handlers.
func TryCatch(body Node, handlers ...*CatchBlock) (*TryExpr, error) {
	return newTry(body, nil, handlers)
}

// TryCatchFinally guards body with handlers and a finally.
func TryCatchFinally(body, finally Node, handlers ...*CatchBlock) (*TryExpr, error) {
	if isNil(finally) {
		return nil, malformed(KindTry, "finally is nil")
	}
	return newTry(body, finally, handlers)
}

// TryFinally runs finally after body.
func TryFinally(body, finally Node) (*TryExpr, error) {
	if isNil(finally) {
		return nil, malformed(KindTry, "finally is nil")
	}
	return newTry(body, finally, nil)
}

func newTry(body, finally Node, handlers []*CatchBlock) (*TryExpr, error) {
	if isNil(body) {
		return nil, malformed(KindTry, "body is nil")
	}
	if finally == nil && len(handlers) == 0 {
		return nil, malformed(KindTry, "try has neither finally nor handlers")
	}
	for i, h := range handlers {
		if h == nil {
			return nil, malformed(KindTry, "handler %d is nil", i)
		}
	}
	return &TryExpr{body: body, finally: finally, handlers: collect.Clone(handlers), typ: body.Type()}, nil
}

// Lambda creates a function literal. With a nil sig the func type is
// resolved from the parameters and the body's type; otherwise sig is used
// as given and the node is a TypedLambda.
func Lambda(sig reflect.Type, body Node, params ...*Parameter) (*LambdaExpr, error) {
	if isNil(body) {
		return nil, malformed(KindLambda, "body is nil")
	}
	for i, p := range params {
		if err := checkParam(KindLambda, "parameter", i, p); err != nil {
			return nil, err
		}
	}
	l := &LambdaExpr{body: body, params: collect.Clone(params)}
	if sig != nil {
		if sig.Kind() != reflect.Func {
			return nil, malformed(KindTypedLambda, "signature %s is not a func type", meta.TypeName(sig))
		}
		l.typ, l.typed = sig, true
		return l, nil
	}
	if body.Type() == nil {
		return nil, malformed(KindLambda, "body has no type")
	}
	paramTypes := collect.Map(params, (*Parameter).SignatureType)
	typ, err := ResolveSignature(paramTypes, body.Type())
	if err != nil {
		return nil, err
	}
	l.typ = typ
	return l, nil
}

func checkParam(kind Kind, what string, i int, p *Parameter) error {
	switch {
	case p == nil:
		return malformed(kind, "%s %d is nil", what, i)
	case p.typ == nil:
		return malformed(kind, "%s %d (%s) has no type", what, i, p.name)
	}
	return nil
}

func checkNodes(kind Kind, what string, nodes []Node) error {
	for i, n := range nodes {
		if isNil(n) {
			return malformed(kind, "%s %d is nil", what, i)
		}
	}
	return nil
}

// isNil reports a nil interface or a nil pointer stored in one.
func isNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// orNil normalizes a typed nil receiver to an untyped one.
func orNil(n Node) Node {
	if isNil(n) {
		return nil
	}
	return n
}
