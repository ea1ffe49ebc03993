// Package expr is the canonical executable expression tree.
//
// It is the fully validated form that downstream compilers and evaluators
// consume. Every constructor checks its inputs eagerly (argument counts,
// assignability, operand types, writable targets, lambda signatures) and
// returns an error instead of building an invalid node. That eagerness is
// what makes direct construction expensive, and why trees are usually
// built in the light IR first and lowered here in one pass.
//
// Expr is a sealed interface; only types in this package implement it, so
// consumers can switch exhaustively:
//
//	switch e := e.(type) {
//	case *expr.Parameter:
//	case *expr.Constant:
//	...
//	}
//
// A *Parameter's identity is its pointer. Declarations (Lambda parameters,
// Block variables, Catch variables) and references must be the same
// pointer for CheckScopes, and any binder built on it, to connect them.
package expr
