// Package light is a lightweight intermediate representation for
// expression trees.
//
// Building a tree with package expr validates every node as it is created.
// The nodes here only derive their result type, which is computed once at
// construction and never again. Validation is deferred until the tree is
// lowered with Materialize, which produces one expr node per light node.
//
// Variables are the one shared node: the same *Parameter may appear in a
// lambda's parameter list and in its body. Each *Parameter lowers to a
// single *expr.Parameter, cached on the node and reused by every later
// materialization, so the canonical tree sees one declaration per
// variable:
//
//	x := light.Variable(reflect.TypeFor[int](), "x")
//	sum := light.Must(light.Add(x, x))
//	fn := light.Must(light.Lambda(nil, sum, x)) // func(int) int
//	tree, err := light.Materialize(fn)
//
// Construction errors and lowering errors are *Error values; use the Is*
// helpers to classify them.
package light
