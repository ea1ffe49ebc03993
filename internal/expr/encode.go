package expr

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/weichx/FastExpressionCompiler/internal/canonical"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// Encode converts e into a canonical value. Every node becomes an object
// with "kind" and "type" keys. Variables are numbered by first occurrence
// and referenced by that number, so two references to one variable share
// an id while look-alike variables do not.
//
// Constant values encode as JSON where they can. Floats and out-of-range
// unsigned integers encode as strings; values without a stable textual
// form (pointers, funcs, maps, channels) encode only their type.
func Encode(e Expr) canonical.Value {
	enc := &encoder{ids: map[*Parameter]int64{}}
	return enc.expr(e)
}

// Hash returns the domain-separated SHA-256 of e's canonical encoding.
func Hash(e Expr) (string, error) {
	return canonical.Hash(canonical.DomainExpr, Encode(e))
}

type encoder struct {
	ids map[*Parameter]int64
}

func (enc *encoder) id(p *Parameter) canonical.Int {
	if id, ok := enc.ids[p]; ok {
		return canonical.Int(id)
	}
	id := int64(len(enc.ids) + 1)
	enc.ids[p] = id
	return canonical.Int(id)
}

func (enc *encoder) variable(p *Parameter) canonical.Object {
	obj := canonical.Object{
		"kind": canonical.String(KindParameter.String()),
		"type": typeName(p.typ),
		"id":   enc.id(p),
	}
	if p.name != "" {
		obj["name"] = canonical.String(p.name)
	}
	if p.byRef {
		obj["byRef"] = canonical.Bool(true)
	}
	return obj
}

func (enc *encoder) variables(ps []*Parameter) canonical.Array {
	out := make(canonical.Array, len(ps))
	for i, p := range ps {
		out[i] = enc.variable(p)
	}
	return out
}

func (enc *encoder) list(xs []Expr) canonical.Array {
	out := make(canonical.Array, len(xs))
	for i, x := range xs {
		out[i] = enc.expr(x)
	}
	return out
}

func (enc *encoder) optional(e Expr) canonical.Value {
	if e == nil {
		return canonical.Null{}
	}
	return enc.expr(e)
}

func (enc *encoder) expr(e Expr) canonical.Value {
	if e == nil {
		return canonical.Null{}
	}
	if p, ok := e.(*Parameter); ok {
		return enc.variable(p)
	}
	obj := canonical.Object{
		"kind": canonical.String(e.Kind().String()),
		"type": typeName(e.Type()),
	}
	switch n := e.(type) {
	case *Constant:
		obj["value"] = constantValue(n.value)
	case *Unary:
		obj["operand"] = enc.optional(n.operand)
	case *Binary:
		obj["left"] = enc.expr(n.left)
		obj["right"] = enc.expr(n.right)
	case *Index:
		obj["array"] = enc.expr(n.array)
		obj["index"] = enc.expr(n.index)
	case *Assign:
		obj["left"] = enc.expr(n.left)
		obj["right"] = enc.expr(n.right)
	case *New:
		obj["ctor"] = canonical.String(n.ctor.Name())
		obj["args"] = enc.list(n.args)
	case *NewArray:
		obj["items"] = enc.list(n.items)
	case *Call:
		obj["method"] = canonical.String(n.method.String())
		obj["receiver"] = enc.optional(n.receiver)
		obj["args"] = enc.list(n.args)
	case *Member:
		obj["member"] = canonical.String(n.member.Name())
		obj["declaringType"] = typeName(n.member.DeclaringType())
		obj["receiver"] = enc.optional(n.receiver)
	case *MemberInit:
		obj["base"] = enc.expr(n.base)
		bindings := make(canonical.Array, len(n.bindings))
		for i, b := range n.bindings {
			bindings[i] = canonical.Object{
				"member": canonical.String(b.member.Name()),
				"value":  enc.expr(b.value),
			}
		}
		obj["bindings"] = bindings
	case *Invoke:
		obj["callee"] = enc.expr(n.callee)
		obj["args"] = enc.list(n.args)
	case *Block:
		obj["variables"] = enc.variables(n.variables)
		obj["exprs"] = enc.list(n.exprs)
	case *Try:
		obj["body"] = enc.expr(n.body)
		handlers := make(canonical.Array, len(n.handlers))
		for i, h := range n.handlers {
			hobj := canonical.Object{
				"test": typeName(h.test),
				"body": enc.expr(h.body),
			}
			if h.variable != nil {
				hobj["variable"] = enc.variable(h.variable)
			}
			handlers[i] = hobj
		}
		obj["handlers"] = handlers
		obj["finally"] = enc.optional(n.finally)
	case *Lambda:
		obj["params"] = enc.variables(n.params)
		obj["body"] = enc.expr(n.body)
	}
	return obj
}

func typeName(t reflect.Type) canonical.String {
	return canonical.String(meta.TypeName(t))
}

func constantValue(v any) canonical.Value {
	if v == nil {
		return canonical.Null{}
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return canonical.Bool(rv.Bool())
	case reflect.String:
		return canonical.String(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return canonical.Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return canonical.Int(int64(u))
		}
		return canonical.String(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32:
		return canonical.String(strconv.FormatFloat(rv.Float(), 'g', -1, 32))
	case reflect.Float64:
		return canonical.String(strconv.FormatFloat(rv.Float(), 'g', -1, 64))
	case reflect.Slice, reflect.Array:
		out := make(canonical.Array, rv.Len())
		for i := range out {
			out[i] = constantValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Pointer, reflect.Func, reflect.Chan, reflect.Map, reflect.UnsafePointer, reflect.Interface:
		return canonical.Object{"opaque": canonical.String(rv.Type().String())}
	default:
		return canonical.String(fmt.Sprintf("%v", v))
	}
}
