package expr

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// Format renders e as Go-flavored text. The output is deterministic:
// unnamed variables print as $1, $2, ... in order of first occurrence and
// distinct variables sharing a name print as name, name#2, ...
func Format(e Expr) string {
	p := &printer{names: map[*Parameter]string{}, taken: map[string]int{}}
	for _, v := range Parameters(e) {
		p.name(v)
	}
	p.expr(e)
	return p.buf.String()
}

type printer struct {
	buf     strings.Builder
	indent  int
	names   map[*Parameter]string
	taken   map[string]int
	unnamed int
}

func (p *printer) name(v *Parameter) string {
	if n, ok := p.names[v]; ok {
		return n
	}
	var n string
	if v.name == "" {
		p.unnamed++
		n = "$" + strconv.Itoa(p.unnamed)
	} else {
		p.taken[v.name]++
		n = v.name
		if c := p.taken[v.name]; c > 1 {
			n = v.name + "#" + strconv.Itoa(c)
		}
	}
	p.names[v] = n
	return n
}

func (p *printer) write(s string)                    { p.buf.WriteString(s) }
func (p *printer) writef(format string, args ...any) { fmt.Fprintf(&p.buf, format, args...) }

func (p *printer) newline() {
	p.buf.WriteByte('\n')
	p.write(strings.Repeat("\t", p.indent))
}

func (p *printer) list(xs []Expr) {
	for i, x := range xs {
		if i > 0 {
			p.write(", ")
		}
		p.expr(x)
	}
}

func (p *printer) expr(e Expr) {
	switch n := e.(type) {
	case nil:
		p.write("<nil>")
	case *Parameter:
		p.write(p.name(n))
	case *Constant:
		p.constant(n)
	case *Unary:
		p.unary(n)
	case *Binary:
		p.write("(")
		p.expr(n.left)
		p.writef(" %s ", binaryOps[n.kind])
		p.expr(n.right)
		p.write(")")
	case *Index:
		p.expr(n.array)
		p.write("[")
		p.expr(n.index)
		p.write("]")
	case *Assign:
		p.expr(n.left)
		p.write(" = ")
		p.expr(n.right)
	case *New:
		p.write(n.ctor.Name())
		p.write("(")
		p.list(n.args)
		p.write(")")
	case *NewArray:
		p.writef("[]%s{", meta.TypeName(n.elem))
		p.list(n.items)
		p.write("}")
	case *Call:
		if n.receiver != nil {
			p.expr(n.receiver)
			p.write("." + n.method.Name())
		} else {
			p.write(n.method.String())
		}
		p.write("(")
		p.list(n.args)
		p.write(")")
	case *Member:
		switch {
		case n.receiver != nil:
			p.expr(n.receiver)
			p.write("." + n.member.Name())
		case n.member.DeclaringType() != nil:
			p.writef("%s.%s", meta.TypeName(n.member.DeclaringType()), n.member.Name())
		default:
			p.write(n.member.Name())
		}
	case *MemberInit:
		p.expr(n.base)
		p.write("{")
		for i, b := range n.bindings {
			if i > 0 {
				p.write(", ")
			}
			p.write(b.member.Name() + ": ")
			p.expr(b.value)
		}
		p.write("}")
	case *Invoke:
		if _, ok := n.callee.(*Lambda); ok {
			p.write("(")
			p.expr(n.callee)
			p.write(")")
		} else {
			p.expr(n.callee)
		}
		p.write("(")
		p.list(n.args)
		p.write(")")
	case *Block:
		p.block(n)
	case *Try:
		p.write("try ")
		p.braced(n.body)
		for _, h := range n.handlers {
			p.write(" catch ")
			if h.variable != nil {
				p.writef("(%s %s) ", p.name(h.variable), meta.TypeName(h.test))
			} else {
				p.writef("(%s) ", meta.TypeName(h.test))
			}
			p.braced(h.body)
		}
		if n.finally != nil {
			p.write(" finally ")
			p.braced(n.finally)
		}
	case *Lambda:
		p.write("func(")
		for i, v := range n.params {
			if i > 0 {
				p.write(", ")
			}
			p.writef("%s %s", p.name(v), meta.TypeName(v.SignatureType()))
		}
		p.write(")")
		if ret := n.ReturnType(); !meta.IsVoid(ret) {
			p.write(" " + meta.TypeName(ret))
		}
		p.write(" ")
		p.braced(n.body)
	default:
		p.writef("<%T>", e)
	}
}

var binaryOps = map[Kind]string{
	KindAdd:      "+",
	KindSubtract: "-",
	KindMultiply: "*",
	KindDivide:   "/",
}

func (p *printer) unary(n *Unary) {
	if n.kind == KindConvert {
		p.writef("%s(", meta.TypeName(n.typ))
		p.expr(n.operand)
		p.write(")")
		return
	}
	if n.operand == nil {
		p.write("rethrow")
	} else {
		p.write("throw(")
		p.expr(n.operand)
		p.write(")")
	}
	if !meta.IsVoid(n.typ) {
		p.writef(" as %s", meta.TypeName(n.typ))
	}
}

// braced renders e inside braces; a Block supplies its own.
func (p *printer) braced(e Expr) {
	if b, ok := e.(*Block); ok {
		p.block(b)
		return
	}
	p.write("{ ")
	p.expr(e)
	p.write(" }")
}

func (p *printer) block(b *Block) {
	p.write("{")
	p.indent++
	for _, v := range b.variables {
		p.newline()
		p.writef("var %s %s", p.name(v), meta.TypeName(v.typ))
	}
	for _, x := range b.exprs {
		p.newline()
		p.expr(x)
	}
	p.indent--
	p.newline()
	p.write("}")
}

func (p *printer) constant(c *Constant) {
	v := c.value
	if v == nil {
		p.write("nil")
		return
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		lit := strconv.Quote(rv.String())
		if c.typ.Kind() == reflect.String && c.typ.PkgPath() == "" {
			p.write(lit)
			return
		}
		p.writef("%s(%s)", meta.TypeName(c.typ), lit)
	case reflect.Int, reflect.Float64, reflect.Bool:
		if rv.Type() == c.typ && c.typ.PkgPath() == "" {
			p.writef("%v", v)
			return
		}
		p.writef("%s(%v)", meta.TypeName(c.typ), v)
	default:
		p.writef("%s(%v)", meta.TypeName(c.typ), describe(rv))
	}
}

// describe renders a constant value without exposing addresses.
func describe(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Chan, reflect.Map, reflect.UnsafePointer:
		return "<" + rv.Type().String() + ">"
	default:
		return fmt.Sprintf("%v", rv.Interface())
	}
}
