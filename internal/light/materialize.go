package light

import (
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/weichx/FastExpressionCompiler/internal/collect"
	"github.com/weichx/FastExpressionCompiler/internal/expr"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// Stats counts the work done by a Materializer.
type Stats struct {
	// Nodes is the number of light nodes lowered, counting every
	// reference to a variable.
	Nodes int

	// VariablesCreated counts canonical variables created by this
	// Materializer.
	VariablesCreated int

	// VariablesReused counts variable references served from a cache,
	// whether filled by this Materializer or an earlier one.
	VariablesReused int
}

// Materializer lowers light trees into expr trees.
//
// A Materializer is not safe for concurrent use, but distinct
// Materializers may lower trees that share variables concurrently: the
// variable cache on *Parameter is safe for that.
type Materializer struct {
	logger *slog.Logger
	stats  Stats
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*Materializer)

// WithLogger sets the logger for lowering diagnostics. The default
// discards everything.
func WithLogger(logger *slog.Logger) MaterializerOption {
	return func(m *Materializer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMaterializer creates a Materializer.
func NewMaterializer(opts ...MaterializerOption) *Materializer {
	m := &Materializer{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize lowers n with a fresh Materializer.
func Materialize(n Node) (expr.Expr, error) {
	return NewMaterializer().Materialize(n)
}

// Stats returns the counts accumulated over every Materialize call.
func (m *Materializer) Stats() Stats {
	return m.stats
}

// Materialize lowers n and its subtree, children before parents. Each
// *Parameter lowers to its cached canonical variable, so repeated
// references and repeated calls yield the same *expr.Parameter.
//
// Errors from expr constructors are wrapped; use errors.As to reach the
// *expr.Error.
func (m *Materializer) Materialize(n Node) (expr.Expr, error) {
	before := m.stats
	out, err := m.lower(n)
	if err != nil {
		m.logger.Debug("materialization failed", "error", err)
		return nil, err
	}
	m.logger.Debug("materialized",
		"kind", n.Kind(),
		"nodes", m.stats.Nodes-before.Nodes,
		"variables_created", m.stats.VariablesCreated-before.VariablesCreated,
		"variables_reused", m.stats.VariablesReused-before.VariablesReused,
	)
	return out, nil
}

func (m *Materializer) lower(n Node) (expr.Expr, error) {
	if isNil(n) {
		return nil, malformed(0, "nil node")
	}
	m.stats.Nodes++

	switch node := n.(type) {
	case *Parameter:
		p, err := m.variable(node)
		if err != nil {
			return nil, err
		}
		return p, nil
	case *Constant:
		return wrap[*expr.Constant](KindConstant)(expr.NewConstant(node.value, node.typ))
	case *UnaryExpr:
		return m.lowerUnary(node)
	case *BinaryExpr:
		return m.lowerBinary(node)
	case *IndexExpr:
		array, index, err := m.lowerPair(node.array, node.index)
		if err != nil {
			return nil, err
		}
		return wrap[*expr.Index](KindArrayIndex)(expr.ArrayIndex(array, index))
	case *AssignExpr:
		left, right, err := m.lowerPair(node.left, node.right)
		if err != nil {
			return nil, err
		}
		return wrap[*expr.Assign](KindAssign)(expr.NewAssign(left, right))
	case *NewExpr:
		if node.ctor == nil {
			return nil, malformed(KindNew, "constructor is nil")
		}
		args, err := m.lowerAll(node.args)
		if err != nil {
			return nil, err
		}
		return wrap[*expr.New](KindNew)(expr.NewObject(node.ctor, args...))
	case *NewArrayExpr:
		items, err := m.lowerAll(node.items)
		if err != nil {
			return nil, err
		}
		return wrap[*expr.NewArray](KindNewArray)(expr.NewArrayInit(node.elem, items...))
	case *CallExpr:
		return m.lowerCall(node)
	case *PropertyExpr:
		receiver, err := m.lowerOptional(node.receiver)
		if err != nil {
			return nil, err
		}
		return wrap[*expr.Member](KindPropertyAccess)(expr.PropertyAccess(receiver, node.prop))
	case *FieldExpr:
		receiver, err := m.lowerOptional(node.receiver)
		if err != nil {
			return nil, err
		}
		return wrap[*expr.Member](KindFieldAccess)(expr.FieldAccess(receiver, node.field))
	case *MemberInitExpr:
		return m.lowerMemberInit(node)
	case *InvokeExpr:
		return m.lowerInvoke(node)
	case *BlockExpr:
		return m.lowerBlock(node)
	case *TryExpr:
		return m.lowerTry(node)
	case *LambdaExpr:
		return m.lowerLambda(node)
	default:
		return nil, unsupportedConversion(n.Kind(), 0)
	}
}

// wrap adapts an expr constructor result, annotating its error with the
// light kind being lowered.
func wrap[T expr.Expr](kind Kind) func(T, error) (expr.Expr, error) {
	return func(e T, err error) (expr.Expr, error) {
		if err != nil {
			return nil, errors.Wrapf(err, "lowering %s", kind)
		}
		return e, nil
	}
}

func (m *Materializer) variable(p *Parameter) (*expr.Parameter, error) {
	if p.typ == nil {
		return nil, malformed(KindParameter, "variable %q has no type", p.name)
	}
	c, created := p.lower()
	if created {
		m.stats.VariablesCreated++
		m.logger.Debug("variable created", "name", p.name, "type", p.typ)
	} else {
		m.stats.VariablesReused++
	}
	return c, nil
}

func (m *Materializer) variables(ps []*Parameter) ([]*expr.Parameter, error) {
	return collect.MapErr(ps, func(_ int, p *Parameter) (*expr.Parameter, error) {
		if p == nil {
			return nil, malformed(KindParameter, "nil variable")
		}
		m.stats.Nodes++
		return m.variable(p)
	})
}

func (m *Materializer) lowerAll(nodes []Node) ([]expr.Expr, error) {
	return collect.MapErr(nodes, func(_ int, n Node) (expr.Expr, error) {
		return m.lower(n)
	})
}

func (m *Materializer) lowerPair(a, b Node) (expr.Expr, expr.Expr, error) {
	x, err := m.lower(a)
	if err != nil {
		return nil, nil, err
	}
	y, err := m.lower(b)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

// lowerOptional lowers an absent receiver to a nil expr.Expr.
func (m *Materializer) lowerOptional(n Node) (expr.Expr, error) {
	if isNil(n) {
		return nil, nil
	}
	return m.lower(n)
}

func (m *Materializer) lowerUnary(u *UnaryExpr) (expr.Expr, error) {
	if !isUnaryOp(u.op) {
		return nil, unsupportedConversion(KindUnary, u.op)
	}
	operand, err := m.lower(u.operand)
	if err != nil {
		return nil, err
	}
	if u.op == OpConvert {
		return wrap[*expr.Unary](KindUnary)(expr.Convert(operand, u.typ))
	}
	return wrap[*expr.Unary](KindUnary)(expr.Throw(operand, u.typ))
}

func (m *Materializer) lowerBinary(b *BinaryExpr) (expr.Expr, error) {
	var build func(l, r expr.Expr) (*expr.Binary, error)
	switch b.op {
	case OpAdd:
		build = expr.Add
	case OpSubtract:
		build = expr.Subtract
	case OpMultiply:
		build = expr.Multiply
	case OpDivide:
		build = expr.Divide
	default:
		return nil, unsupportedConversion(KindArithmeticBinary, b.op)
	}
	left, right, err := m.lowerPair(b.left, b.right)
	if err != nil {
		return nil, err
	}
	return wrap[*expr.Binary](KindArithmeticBinary)(build(left, right))
}

func (m *Materializer) lowerCall(c *CallExpr) (expr.Expr, error) {
	if c.method == nil {
		return nil, malformed(KindMethodCall, "method is nil")
	}
	receiver, err := m.lowerOptional(c.receiver)
	if err != nil {
		return nil, err
	}
	args, err := m.lowerAll(c.args)
	if err != nil {
		return nil, err
	}
	return wrap[*expr.Call](KindMethodCall)(expr.NewCall(receiver, c.method, args...))
}

func (m *Materializer) lowerMemberInit(mi *MemberInitExpr) (expr.Expr, error) {
	base, err := m.lower(mi.base)
	if err != nil {
		return nil, err
	}
	bindings, err := collect.MapErr(mi.bindings, func(i int, b *MemberBinding) (*expr.MemberBinding, error) {
		if b == nil {
			return nil, malformed(KindMemberInit, "binding %d is nil", i)
		}
		value, err := m.lower(b.value)
		if err != nil {
			return nil, err
		}
		bound, err := expr.Bind(b.member, value)
		if err != nil {
			return nil, errors.Wrapf(err, "lowering %s binding %d", KindMemberInit, i)
		}
		return bound, nil
	})
	if err != nil {
		return nil, err
	}
	return wrap[*expr.MemberInit](KindMemberInit)(expr.NewMemberInit(base, bindings...))
}

func (m *Materializer) lowerInvoke(i *InvokeExpr) (expr.Expr, error) {
	callee, err := m.lower(i.callee)
	if err != nil {
		return nil, err
	}
	args, err := m.lowerAll(i.args)
	if err != nil {
		return nil, err
	}
	out, err := expr.NewInvoke(callee, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "lowering %s", KindInvocation)
	}
	if out.Type() != i.typ {
		return nil, malformed(KindInvocation, "declared type %s disagrees with callee result %s",
			meta.TypeName(i.typ), meta.TypeName(out.Type()))
	}
	return out, nil
}

func (m *Materializer) lowerBlock(b *BlockExpr) (expr.Expr, error) {
	vars, err := m.variables(b.variables)
	if err != nil {
		return nil, err
	}
	statements, err := m.lowerAll(b.statements)
	if err != nil {
		return nil, err
	}
	return wrap[*expr.Block](KindBlock)(expr.NewBlock(vars, statements...))
}

func (m *Materializer) lowerTry(t *TryExpr) (expr.Expr, error) {
	body, err := m.lower(t.body)
	if err != nil {
		return nil, err
	}
	handlers, err := collect.MapErr(t.handlers, func(i int, h *CatchBlock) (*expr.Catch, error) {
		if h == nil {
			return nil, malformed(KindTry, "handler %d is nil", i)
		}
		var variable *expr.Parameter
		if h.variable != nil {
			vars, err := m.variables([]*Parameter{h.variable})
			if err != nil {
				return nil, err
			}
			variable = vars[0]
		}
		hbody, err := m.lower(h.body)
		if err != nil {
			return nil, err
		}
		c, err := expr.NewCatch(h.test, variable, hbody)
		if err != nil {
			return nil, errors.Wrapf(err, "lowering %s handler %d", KindTry, i)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	finally, err := m.lowerOptional(t.finally)
	if err != nil {
		return nil, err
	}
	return wrap[*expr.Try](KindTry)(expr.NewTry(body, finally, handlers...))
}

func (m *Materializer) lowerLambda(l *LambdaExpr) (expr.Expr, error) {
	params, err := m.variables(l.params)
	if err != nil {
		return nil, err
	}
	body, err := m.lower(l.body)
	if err != nil {
		return nil, err
	}
	return wrap[*expr.Lambda](l.Kind())(expr.NewLambda(l.typ, body, params...))
}
