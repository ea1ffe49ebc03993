package light

import "fmt"

// Kind discriminates the node types.
type Kind int

const (
	KindParameter Kind = iota + 1
	KindConstant
	KindUnary
	KindArithmeticBinary
	KindArrayIndex
	KindAssign
	KindNew
	KindNewArray
	KindMethodCall
	KindPropertyAccess
	KindFieldAccess
	KindMemberInit
	KindInvocation
	KindBlock
	KindTry
	KindLambda
	KindTypedLambda
)

var kindNames = [...]string{
	KindParameter:        "Parameter",
	KindConstant:         "Constant",
	KindUnary:            "Unary",
	KindArithmeticBinary: "ArithmeticBinary",
	KindArrayIndex:       "ArrayIndex",
	KindAssign:           "Assign",
	KindNew:              "New",
	KindNewArray:         "NewArray",
	KindMethodCall:       "MethodCall",
	KindPropertyAccess:   "PropertyAccess",
	KindFieldAccess:      "FieldAccess",
	KindMemberInit:       "MemberInit",
	KindInvocation:       "Invocation",
	KindBlock:            "Block",
	KindTry:              "Try",
	KindLambda:           "Lambda",
	KindTypedLambda:      "TypedLambda",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Op is the operator tag of unary and binary nodes. Only Convert and
// Throw are unary rules and only Add, Subtract, Multiply and Divide are
// binary rules; the remaining tags exist so that callers can name them,
// and are rejected.
type Op int

const (
	OpConvert Op = iota + 1
	OpThrow
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate
	OpNot
	OpModulo
	OpPower
	OpAnd
	OpOr
)

var opNames = [...]string{
	OpConvert:  "Convert",
	OpThrow:    "Throw",
	OpAdd:      "Add",
	OpSubtract: "Subtract",
	OpMultiply: "Multiply",
	OpDivide:   "Divide",
	OpNegate:   "Negate",
	OpNot:      "Not",
	OpModulo:   "Modulo",
	OpPower:    "Power",
	OpAnd:      "And",
	OpOr:       "Or",
}

func (op Op) String() string {
	if op > 0 && int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// ParseOp returns the Op named s, as printed by String.
func ParseOp(s string) (Op, bool) {
	for op, name := range opNames {
		if op > 0 && name == s {
			return Op(op), true
		}
	}
	return 0, false
}

func isUnaryOp(op Op) bool {
	return op == OpConvert || op == OpThrow
}

func isArithmeticOp(op Op) bool {
	switch op {
	case OpAdd, OpSubtract, OpMultiply, OpDivide:
		return true
	default:
		return false
	}
}
