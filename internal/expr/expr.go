package expr

import (
	"fmt"
	"reflect"

	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// Expr is a node of the canonical tree.
type Expr interface {
	Kind() Kind
	Type() reflect.Type
	canonicalExpr() // Marker method - seals interface to this package
}

// Kind identifies the node type of an Expr.
type Kind int

const (
	KindParameter Kind = iota + 1
	KindConstant
	KindConvert
	KindThrow
	KindAdd
	KindSubtract
	KindMultiply
	KindDivide
	KindIndex
	KindAssign
	KindNew
	KindNewArray
	KindCall
	KindField
	KindProperty
	KindMemberInit
	KindInvoke
	KindBlock
	KindTry
	KindLambda
)

var kindNames = map[Kind]string{
	KindParameter:  "Parameter",
	KindConstant:   "Constant",
	KindConvert:    "Convert",
	KindThrow:      "Throw",
	KindAdd:        "Add",
	KindSubtract:   "Subtract",
	KindMultiply:   "Multiply",
	KindDivide:     "Divide",
	KindIndex:      "Index",
	KindAssign:     "Assign",
	KindNew:        "New",
	KindNewArray:   "NewArray",
	KindCall:       "Call",
	KindField:      "Field",
	KindProperty:   "Property",
	KindMemberInit: "MemberInit",
	KindInvoke:     "Invoke",
	KindBlock:      "Block",
	KindTry:        "Try",
	KindLambda:     "Lambda",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error reports a node that the canonical tree refuses to construct.
type Error struct {
	// Kind is the node kind being constructed.
	Kind Kind

	// Message is a human-readable description.
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Kind, e.Message)
}

func invalid(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// assignable reports whether a value of type from can be stored in a
// location of type to. Void is assignable to nothing.
func assignable(from, to reflect.Type) bool {
	if from == nil || to == nil || meta.IsVoid(from) || meta.IsVoid(to) {
		return false
	}
	return from == to || from.AssignableTo(to)
}

// receiverCompatible reports whether a receiver of type rt can be used for
// a member declared on decl. Value/pointer mismatches are accepted in both
// directions; the evaluator takes the address or dereferences.
func receiverCompatible(rt, decl reflect.Type) bool {
	if rt == nil || decl == nil {
		return false
	}
	if assignable(rt, decl) {
		return true
	}
	if rt.Kind() == reflect.Pointer && rt.Elem() == decl {
		return true
	}
	return decl.Kind() == reflect.Pointer && decl.Elem() == rt
}

// checkArgs validates call arguments against parameter types.
func checkArgs(kind Kind, what string, params []reflect.Type, args []Expr) error {
	if len(params) != len(args) {
		return invalid(kind, "%s expects %d argument(s), got %d", what, len(params), len(args))
	}
	for i, arg := range args {
		if arg == nil {
			return invalid(kind, "%s argument %d is nil", what, i)
		}
		if !assignable(arg.Type(), params[i]) {
			return invalid(kind, "%s argument %d: %s is not assignable to %s",
				what, i, meta.TypeName(arg.Type()), meta.TypeName(params[i]))
		}
	}
	return nil
}
