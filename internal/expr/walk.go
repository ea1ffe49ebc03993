package expr

// Children returns the direct sub-expressions of e in evaluation order.
// Declarations (lambda parameters, block variables, catch variables) are
// not children; they are reported by Declarations.
func Children(e Expr) []Expr {
	switch n := e.(type) {
	case *Unary:
		if n.operand == nil {
			return nil
		}
		return []Expr{n.operand}
	case *Binary:
		return []Expr{n.left, n.right}
	case *Index:
		return []Expr{n.array, n.index}
	case *Assign:
		return []Expr{n.left, n.right}
	case *New:
		return n.Args()
	case *NewArray:
		return n.Items()
	case *Call:
		if n.receiver == nil {
			return n.Args()
		}
		return append([]Expr{n.receiver}, n.args...)
	case *Member:
		if n.receiver == nil {
			return nil
		}
		return []Expr{n.receiver}
	case *MemberInit:
		out := make([]Expr, 0, 1+len(n.bindings))
		out = append(out, n.base)
		for _, b := range n.bindings {
			out = append(out, b.value)
		}
		return out
	case *Invoke:
		return append([]Expr{n.callee}, n.args...)
	case *Block:
		return n.Exprs()
	case *Try:
		out := []Expr{n.body}
		for _, h := range n.handlers {
			out = append(out, h.body)
		}
		if n.finally != nil {
			out = append(out, n.finally)
		}
		return out
	case *Lambda:
		return []Expr{n.body}
	default:
		return nil
	}
}

// Declarations returns the variables e introduces into scope.
func Declarations(e Expr) []*Parameter {
	switch n := e.(type) {
	case *Lambda:
		return n.Params()
	case *Block:
		return n.Variables()
	case *Try:
		var out []*Parameter
		for _, h := range n.handlers {
			if h.variable != nil {
				out = append(out, h.variable)
			}
		}
		return out
	default:
		return nil
	}
}

// Walk visits e and its sub-expressions depth-first. Returning false from
// fn skips the children of the node just visited.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, c := range Children(e) {
		Walk(c, fn)
	}
}

// Parameters returns every distinct Parameter declared or referenced in e,
// in order of first occurrence.
func Parameters(e Expr) []*Parameter {
	seen := map[*Parameter]bool{}
	var out []*Parameter
	add := func(p *Parameter) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	Walk(e, func(n Expr) bool {
		for _, d := range Declarations(n) {
			add(d)
		}
		if p, ok := n.(*Parameter); ok {
			add(p)
		}
		return true
	})
	return out
}
