package light

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Error reports a tree that cannot be built or lowered.
//
// Errors include:
//   - Unsupported node kind: an operator with no type rule
//   - Unsupported arity: a lambda signature beyond the shape table
//   - Malformed node: a structural precondition failed
//   - Unsupported conversion: a node with no lowering rule
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the node kind being built or lowered, when known.
	Kind Kind

	// Op is the offending operator for node-kind and conversion errors.
	Op Op

	// Requested and Shape describe an unsupported arity.
	Requested int
	Shape     ShapeKind
}

// ErrorCode categorizes light errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedNodeKind indicates an operator with no type rule.
	ErrCodeUnsupportedNodeKind ErrorCode = "UNSUPPORTED_NODE_KIND"

	// ErrCodeUnsupportedArity indicates a signature wider than the shape table.
	ErrCodeUnsupportedArity ErrorCode = "UNSUPPORTED_ARITY"

	// ErrCodeMalformedNode indicates a failed structural precondition.
	ErrCodeMalformedNode ErrorCode = "MALFORMED_NODE"

	// ErrCodeUnsupportedConversion indicates a node with no lowering rule.
	ErrCodeUnsupportedConversion ErrorCode = "UNSUPPORTED_CONVERSION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind != 0 {
		return fmt.Sprintf("%s: %s (kind=%s)", e.Code, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code ErrorCode) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Code == code
	}
	return false
}

// IsUnsupportedNodeKind reports whether err is an unsupported node kind error.
func IsUnsupportedNodeKind(err error) bool { return hasCode(err, ErrCodeUnsupportedNodeKind) }

// IsUnsupportedArity reports whether err is an unsupported arity error.
func IsUnsupportedArity(err error) bool { return hasCode(err, ErrCodeUnsupportedArity) }

// IsMalformedNode reports whether err is a malformed node error.
func IsMalformedNode(err error) bool { return hasCode(err, ErrCodeMalformedNode) }

// IsUnsupportedConversion reports whether err is an unsupported conversion
// error.
func IsUnsupportedConversion(err error) bool { return hasCode(err, ErrCodeUnsupportedConversion) }

func malformed(kind Kind, format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeMalformedNode,
		Message: fmt.Sprintf(format, args...),
		Kind:    kind,
	}
}

func unsupportedNodeKind(kind Kind, op Op) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedNodeKind,
		Message: fmt.Sprintf("operator %s has no %s rule", op, kind),
		Kind:    kind,
		Op:      op,
	}
}

func unsupportedConversion(kind Kind, op Op) *Error {
	msg := fmt.Sprintf("no lowering rule for %s", kind)
	if op != 0 {
		msg = fmt.Sprintf("no lowering rule for %s %s", op, kind)
	}
	return &Error{
		Code:    ErrCodeUnsupportedConversion,
		Message: msg,
		Kind:    kind,
		Op:      op,
	}
}

func unsupportedArity(requested int, shape ShapeKind) *Error {
	return &Error{
		Code:      ErrCodeUnsupportedArity,
		Message:   fmt.Sprintf("%s shapes support at most %d parameters, got %d", shape, shape.MaxParams(), requested),
		Requested: requested,
		Shape:     shape,
	}
}
