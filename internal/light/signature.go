package light

import (
	"fmt"
	"reflect"

	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

const (
	// MaxActionParams is the widest signature with no result.
	MaxActionParams = 7

	// MaxFuncParams is the widest signature with a result, not counting
	// the result itself.
	MaxFuncParams = 7
)

// ShapeKind tells value-returning signatures from those returning nothing.
type ShapeKind int

const (
	ShapeAction ShapeKind = iota + 1
	ShapeFunc
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeAction:
		return "Action"
	case ShapeFunc:
		return "Func"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// MaxParams is the arity ceiling of k.
func (k ShapeKind) MaxParams() int {
	if k == ShapeAction {
		return MaxActionParams
	}
	return MaxFuncParams
}

// Shape classifies a signature by result kind and parameter count.
type Shape struct {
	Kind  ShapeKind
	Arity int
}

func (s Shape) String() string {
	return fmt.Sprintf("%s%d", s.Kind, s.Arity)
}

// Instantiate builds the func type of this shape. params must hold Arity
// types; ret is ignored for Action shapes.
func (s Shape) Instantiate(params []reflect.Type, ret reflect.Type) (reflect.Type, error) {
	if len(params) != s.Arity {
		return nil, malformed(KindLambda, "shape %s instantiated with %d parameter types", s, len(params))
	}
	if s.Kind == ShapeAction {
		return meta.ActionOf(params), nil
	}
	if ret == nil || meta.IsVoid(ret) {
		return nil, malformed(KindLambda, "shape %s requires a result type", s)
	}
	return meta.FuncOf(params, ret), nil
}

var (
	actionShapes = shapeTable(ShapeAction, MaxActionParams)
	funcShapes   = shapeTable(ShapeFunc, MaxFuncParams)
)

func shapeTable(kind ShapeKind, ceiling int) []Shape {
	table := make([]Shape, ceiling+1)
	for arity := range table {
		table[arity] = Shape{Kind: kind, Arity: arity}
	}
	return table
}

// ShapeOf selects the shape for arity parameters and result ret: an Action
// shape when ret is void, a Func shape otherwise.
func ShapeOf(arity int, ret reflect.Type) (Shape, error) {
	table := funcShapes
	kind := ShapeFunc
	if ret == nil || meta.IsVoid(ret) {
		table, kind = actionShapes, ShapeAction
	}
	if arity < 0 || arity >= len(table) {
		return Shape{}, unsupportedArity(arity, kind)
	}
	return table[arity], nil
}

// ResolveSignature returns the func type for a lambda taking params and
// producing ret.
func ResolveSignature(params []reflect.Type, ret reflect.Type) (reflect.Type, error) {
	shape, err := ShapeOf(len(params), ret)
	if err != nil {
		return nil, err
	}
	return shape.Instantiate(params, ret)
}
