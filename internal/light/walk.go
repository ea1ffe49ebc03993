package light

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// Children returns the direct children of n in lowering order, including
// declared variables: lambda parameters, block variables and catch
// variables.
func Children(n Node) []Node {
	switch node := n.(type) {
	case *UnaryExpr:
		return nonNil(node.operand)
	case *BinaryExpr:
		return nonNil(node.left, node.right)
	case *IndexExpr:
		return nonNil(node.array, node.index)
	case *AssignExpr:
		return nonNil(node.left, node.right)
	case *NewExpr:
		return node.args
	case *NewArrayExpr:
		return node.items
	case *CallExpr:
		return append(nonNil(node.receiver), node.args...)
	case *PropertyExpr:
		return nonNil(node.receiver)
	case *FieldExpr:
		return nonNil(node.receiver)
	case *MemberInitExpr:
		out := nonNil(node.base)
		for _, b := range node.bindings {
			out = append(out, b.value)
		}
		return out
	case *InvokeExpr:
		return append(nonNil(node.callee), node.args...)
	case *BlockExpr:
		out := make([]Node, 0, len(node.variables)+len(node.statements))
		for _, v := range node.variables {
			out = append(out, v)
		}
		return append(out, node.statements...)
	case *TryExpr:
		out := nonNil(node.body)
		for _, h := range node.handlers {
			if h.variable != nil {
				out = append(out, h.variable)
			}
			out = append(out, h.body)
		}
		return append(out, nonNil(node.finally)...)
	case *LambdaExpr:
		out := make([]Node, 0, len(node.params)+1)
		for _, p := range node.params {
			out = append(out, p)
		}
		return append(out, node.body)
	default:
		return nil
	}
}

func nonNil(nodes ...Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if !isNil(n) {
			out = append(out, n)
		}
	}
	return out
}

// Walk visits n and its descendants depth-first, parents first. When fn
// returns false the children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if isNil(n) || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Counts summarizes a tree.
type Counts struct {
	// Nodes counts every node position, so a variable referenced three
	// times counts three times.
	Nodes int

	// Variables counts distinct *Parameter values.
	Variables int
}

// Count walks n and counts its nodes and distinct variables.
func Count(n Node) Counts {
	var c Counts
	seen := map[*Parameter]bool{}
	Walk(n, func(x Node) bool {
		c.Nodes++
		if p, ok := x.(*Parameter); ok && !seen[p] {
			seen[p] = true
			c.Variables++
		}
		return true
	})
	return c
}

// Dump renders n as an indented outline, one node per line with its kind
// and result type.
func Dump(n Node) string {
	var sb strings.Builder
	dump(&sb, n, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n Node, depth int) {
	indent := strings.Repeat("  ", depth)
	if isNil(n) {
		fmt.Fprintf(sb, "%s<nil>\n", indent)
		return
	}
	sb.WriteString(indent)
	sb.WriteString(n.Kind().String())
	if d := detail(n); d != "" {
		sb.WriteString(" " + d)
	}
	fmt.Fprintf(sb, " : %s\n", meta.TypeName(n.Type()))

	if t, ok := n.(*TryExpr); ok {
		dump(sb, t.body, depth+1)
		for _, h := range t.handlers {
			fmt.Fprintf(sb, "%s  catch %s\n", indent, meta.TypeName(h.test))
			if h.variable != nil {
				dump(sb, h.variable, depth+2)
			}
			dump(sb, h.body, depth+2)
		}
		if t.finally != nil {
			fmt.Fprintf(sb, "%s  finally\n", indent)
			dump(sb, t.finally, depth+2)
		}
		return
	}
	for _, c := range Children(n) {
		dump(sb, c, depth+1)
	}
}

func detail(n Node) string {
	switch node := n.(type) {
	case *Parameter:
		name := node.name
		if name == "" {
			name = "_"
		}
		if node.byRef {
			return name + " byref"
		}
		return name
	case *Constant:
		return constantText(node.value)
	case *UnaryExpr:
		return node.op.String()
	case *BinaryExpr:
		return node.op.String()
	case *NewExpr:
		if node.ctor != nil {
			return node.ctor.Name()
		}
	case *CallExpr:
		if node.method != nil {
			return node.method.String()
		}
	case *PropertyExpr:
		if node.prop != nil {
			return node.prop.Name()
		}
	case *FieldExpr:
		if node.field != nil {
			return node.field.Name()
		}
	case *MemberInitExpr:
		names := make([]string, len(node.bindings))
		for i, b := range node.bindings {
			names[i] = b.member.Name()
		}
		return strings.Join(names, ",")
	}
	return ""
}

func constantText(v any) string {
	if v == nil {
		return "nil"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return fmt.Sprintf("%q", v)
	case reflect.Pointer, reflect.Func, reflect.Chan, reflect.Map, reflect.UnsafePointer:
		return "<" + rv.Type().String() + ">"
	default:
		return fmt.Sprintf("%v", v)
	}
}
