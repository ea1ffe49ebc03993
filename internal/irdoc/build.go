package irdoc

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/iancoleman/strcase"

	"github.com/weichx/FastExpressionCompiler/internal/light"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
)

// builder turns decoded document values into light nodes.
type builder struct {
	reg  *meta.Registry
	vars map[string]*light.Parameter
}

func build(raw map[string]any, reg *meta.Registry) (*Document, error) {
	if reg == nil {
		reg = meta.DefaultRegistry()
	}
	top := normalize(raw)
	if err := onlyKeys("", top, "name", "variables", "root"); err != nil {
		return nil, err
	}

	b := &builder{reg: reg, vars: map[string]*light.Parameter{}}
	doc := &Document{Variables: b.vars}

	if name, ok := top["name"]; ok {
		s, ok := name.(string)
		if !ok {
			return nil, errorf("name", "must be a string")
		}
		doc.Name = s
	}
	if err := b.declare(top["variables"]); err != nil {
		return nil, err
	}
	rootVal, ok := top["root"]
	if !ok {
		return nil, errorf("root", "root is required")
	}
	root, err := b.node("root", rootVal)
	if err != nil {
		return nil, err
	}
	doc.Root = root
	return doc, nil
}

// normalize rewrites the keys of m into snake_case.
func normalize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[strcase.ToSnake(k)] = v
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func onlyKeys(path string, m map[string]any, allowed ...string) error {
	for _, k := range sortedKeys(m) {
		if !slices.Contains(allowed, k) {
			return errorf(join(path, k), "unknown key (expected one of %s)", strings.Join(allowed, ", "))
		}
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func index(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func asMap(path string, v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, errorf(path, "expected a map, got %s", describe(v))
	}
	return normalize(m), nil
}

func asList(path string, v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, errorf(path, "expected a list, got %s", describe(v))
	}
	return l, nil
}

func asString(path string, v any) (string, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errorf(path, "expected a non-empty string, got %s", describe(v))
	}
	return s, nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "nothing"
	case map[string]any:
		return "a map"
	case []any:
		return "a list"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// declare reads the variables section. Each entry is either a type name or
// a map with type and by_ref.
func (b *builder) declare(v any) error {
	if v == nil {
		return nil
	}
	decls, ok := v.(map[string]any)
	if !ok {
		return errorf("variables", "expected a map of name to declaration")
	}
	for _, name := range sortedKeys(decls) {
		path := join("variables", name)
		typeName, byRef := "", false
		switch d := decls[name].(type) {
		case string:
			typeName = d
		case map[string]any:
			m := normalize(d)
			if err := onlyKeys(path, m, "type", "by_ref"); err != nil {
				return err
			}
			s, err := asString(join(path, "type"), m["type"])
			if err != nil {
				return err
			}
			typeName = s
			if r, ok := m["by_ref"]; ok {
				if byRef, ok = r.(bool); !ok {
					return errorf(join(path, "by_ref"), "must be a boolean")
				}
			}
		default:
			return errorf(path, "expected a type name or a declaration map")
		}
		t, err := b.typ(join(path, "type"), typeName)
		if err != nil {
			return err
		}
		if byRef {
			b.vars[name] = light.ByRefVariable(t, name)
		} else {
			b.vars[name] = light.Variable(t, name)
		}
	}
	return nil
}

func (b *builder) typ(path, name string) (reflect.Type, error) {
	t, err := b.reg.Type(name)
	if err != nil {
		return nil, errorf(path, "unknown type %q", name)
	}
	return t, nil
}

func (b *builder) variable(path string, v any) (*light.Parameter, error) {
	name, err := asString(path, v)
	if err != nil {
		return nil, err
	}
	p, ok := b.vars[name]
	if !ok {
		return nil, errorf(path, "undeclared variable %q", name)
	}
	return p, nil
}

func (b *builder) variables(path string, v any) ([]*light.Parameter, error) {
	list, err := asList(path, v)
	if err != nil {
		return nil, err
	}
	out := make([]*light.Parameter, len(list))
	for i, item := range list {
		if out[i], err = b.variable(index(path, i), item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (b *builder) nodes(path string, v any) ([]light.Node, error) {
	list, err := asList(path, v)
	if err != nil {
		return nil, err
	}
	out := make([]light.Node, len(list))
	for i, item := range list {
		if out[i], err = b.node(index(path, i), item); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// pair reads a two-element operand list.
func (b *builder) pair(path string, v any) (light.Node, light.Node, error) {
	operands, err := b.nodes(path, v)
	if err != nil {
		return nil, nil, err
	}
	if len(operands) != 2 {
		return nil, nil, errorf(path, "expected 2 operands, got %d", len(operands))
	}
	return operands[0], operands[1], nil
}

func (b *builder) optionalNode(path string, m map[string]any, key string) (light.Node, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	return b.node(join(path, key), v)
}

func (b *builder) requiredNode(path string, m map[string]any, key string) (light.Node, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, errorf(join(path, key), "%s is required", key)
	}
	return b.node(join(path, key), v)
}

func (b *builder) optionalType(path string, m map[string]any, key string) (reflect.Type, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	name, err := asString(join(path, key), v)
	if err != nil {
		return nil, err
	}
	return b.typ(join(path, key), name)
}

func (b *builder) requiredType(path string, m map[string]any, key string) (reflect.Type, error) {
	t, err := b.optionalType(path, m, key)
	if err == nil && t == nil {
		return nil, errorf(join(path, key), "%s is required", key)
	}
	return t, err
}

// node builds the node described by v, a single-key map.
func (b *builder) node(path string, v any) (light.Node, error) {
	m, ok := v.(map[string]any)
	if !ok || len(m) != 1 {
		return nil, errorf(path, "a node is a map with exactly one key naming its kind")
	}
	var rawKey string
	var body any
	for k, val := range m {
		rawKey, body = k, val
	}
	key := strcase.ToSnake(rawKey)
	path = join(path, key)

	n, err := b.kind(path, key, body)
	if err != nil {
		var docErr *Error
		if errors.As(err, &docErr) {
			return nil, err
		}
		return nil, &Error{Path: path, Message: err.Error(), Err: err}
	}
	return n, nil
}

func (b *builder) kind(path, key string, body any) (light.Node, error) {
	switch key {
	case "var":
		return b.variable(path, body)
	case "const":
		return b.constant(path, body)
	case "convert":
		m, err := b.fields(path, body, "value", "type")
		if err != nil {
			return nil, err
		}
		operand, err := b.requiredNode(path, m, "value")
		if err != nil {
			return nil, err
		}
		t, err := b.requiredType(path, m, "type")
		if err != nil {
			return nil, err
		}
		return light.Convert(operand, t)
	case "throw":
		m, err := b.fields(path, body, "value", "type")
		if err != nil {
			return nil, err
		}
		value, err := b.requiredNode(path, m, "value")
		if err != nil {
			return nil, err
		}
		t, err := b.optionalType(path, m, "type")
		if err != nil {
			return nil, err
		}
		if t == nil {
			return light.Throw(value)
		}
		return light.ThrowAs(value, t)
	case "add", "subtract", "multiply", "divide", "modulo", "power", "and", "or":
		left, right, err := b.pair(path, body)
		if err != nil {
			return nil, err
		}
		op, _ := light.ParseOp(strcase.ToCamel(key))
		return light.NewArithmetic(op, left, right)
	case "index":
		m, err := b.fields(path, body, "array", "index")
		if err != nil {
			return nil, err
		}
		array, err := b.requiredNode(path, m, "array")
		if err != nil {
			return nil, err
		}
		idx, err := b.requiredNode(path, m, "index")
		if err != nil {
			return nil, err
		}
		return light.ArrayIndex(array, idx)
	case "assign":
		left, right, err := b.pair(path, body)
		if err != nil {
			return nil, err
		}
		return light.Assign(left, right)
	case "new":
		return b.newObject(path, body)
	case "new_array":
		m, err := b.fields(path, body, "type", "items")
		if err != nil {
			return nil, err
		}
		elem, err := b.requiredType(path, m, "type")
		if err != nil {
			return nil, err
		}
		items, err := b.nodes(join(path, "items"), m["items"])
		if err != nil {
			return nil, err
		}
		return light.NewArray(elem, items...)
	case "call":
		return b.call(path, body)
	case "property", "field":
		return b.member(path, key, body)
	case "member_init":
		return b.memberInit(path, body)
	case "invoke":
		m, err := b.fields(path, body, "callee", "args", "type")
		if err != nil {
			return nil, err
		}
		callee, err := b.requiredNode(path, m, "callee")
		if err != nil {
			return nil, err
		}
		args, err := b.nodes(join(path, "args"), m["args"])
		if err != nil {
			return nil, err
		}
		t, err := b.optionalType(path, m, "type")
		if err != nil {
			return nil, err
		}
		if t == nil {
			return light.Invoke(callee, args...)
		}
		return light.InvokeAs(t, callee, args...)
	case "block":
		return b.block(path, body)
	case "try":
		return b.try(path, body)
	case "lambda":
		return b.lambda(path, body)
	default:
		return nil, errorf(path, "unknown node kind %q", key)
	}
}

func (b *builder) fields(path string, body any, allowed ...string) (map[string]any, error) {
	m, err := asMap(path, body)
	if err != nil {
		return nil, err
	}
	if err := onlyKeys(path, m, allowed...); err != nil {
		return nil, err
	}
	return m, nil
}

// constant reads either a bare scalar or {value, type}.
func (b *builder) constant(path string, body any) (light.Node, error) {
	m, ok := body.(map[string]any)
	if !ok {
		return light.Literal(body, nil), nil
	}
	m = normalize(m)
	if err := onlyKeys(path, m, "value", "type"); err != nil {
		return nil, err
	}
	t, err := b.optionalType(path, m, "type")
	if err != nil {
		return nil, err
	}
	value := m["value"]
	if t == nil {
		return light.Literal(value, nil), nil
	}
	coerced, err := coerce(value, t)
	if err != nil {
		return nil, errorf(join(path, "value"), "%s", err.Error())
	}
	return light.Literal(coerced, t), nil
}

// coerce converts a decoded scalar to t. Numbers convert between numeric
// kinds; strings and booleans convert only to their own kinds.
func coerce(value any, t reflect.Type) (any, error) {
	if value == nil {
		if !meta.IsNillable(t) {
			return nil, errors.Newf("null is not a valid %s", meta.TypeName(t))
		}
		return nil, nil
	}
	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(t) {
		return value, nil
	}
	switch {
	case meta.IsNumeric(rv.Type()) && meta.IsNumeric(t):
		if !fitsNumeric(rv, t) {
			return nil, errors.Newf("%v does not fit in %s", value, meta.TypeName(t))
		}
		return rv.Convert(t).Interface(), nil
	case rv.Kind() == reflect.String && t.Kind() == reflect.String,
		rv.Kind() == reflect.Bool && t.Kind() == reflect.Bool:
		return rv.Convert(t).Interface(), nil
	}
	return nil, errors.Newf("%v cannot be used as %s", value, meta.TypeName(t))
}

// fitsNumeric reports whether rv converts to t without losing its value.
// Integer targets need an integral in-range source; float targets only
// need range, since YAML and CUE floats are already float64.
func fitsNumeric(rv reflect.Value, t reflect.Type) bool {
	zero := reflect.Zero(t)
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return !zero.OverflowInt(rv.Int())
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return rv.Uint() <= math.MaxInt64 && !zero.OverflowInt(int64(rv.Uint()))
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			return f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !zero.OverflowInt(int64(f))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int() >= 0 && !zero.OverflowUint(uint64(rv.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return !zero.OverflowUint(rv.Uint())
		case reflect.Float32, reflect.Float64:
			f := rv.Float()
			return f == math.Trunc(f) && f >= 0 && f < math.MaxUint64 && !zero.OverflowUint(uint64(f))
		}
	case reflect.Float32, reflect.Float64:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return !zero.OverflowFloat(rv.Float())
		case reflect.Complex64, reflect.Complex128:
			return false
		}
		return true
	case reflect.Complex64, reflect.Complex128:
		switch rv.Kind() {
		case reflect.Complex64, reflect.Complex128:
			return !zero.OverflowComplex(rv.Complex())
		}
	}
	return false
}

func (b *builder) newObject(path string, body any) (light.Node, error) {
	m, err := b.fields(path, body, "ctor", "args")
	if err != nil {
		return nil, err
	}
	name, err := asString(join(path, "ctor"), m["ctor"])
	if err != nil {
		return nil, err
	}
	ctor, err := b.reg.Ctor(name)
	if err != nil {
		return nil, errorf(join(path, "ctor"), "unknown constructor %q", name)
	}
	args, err := b.nodes(join(path, "args"), m["args"])
	if err != nil {
		return nil, err
	}
	return light.NewObject(ctor, args...)
}

func (b *builder) call(path string, body any) (light.Node, error) {
	m, err := b.fields(path, body, "method", "receiver", "args")
	if err != nil {
		return nil, err
	}
	name, err := asString(join(path, "method"), m["method"])
	if err != nil {
		return nil, err
	}
	receiver, err := b.optionalNode(path, m, "receiver")
	if err != nil {
		return nil, err
	}

	var method *meta.Method
	if receiver != nil && !strings.Contains(name, ".") {
		method, err = meta.MethodOf(receiver.Type(), name)
	} else {
		method, err = b.reg.Method(name)
	}
	if err != nil {
		return nil, errorf(join(path, "method"), "unknown method %q", name)
	}

	args, err := b.nodes(join(path, "args"), m["args"])
	if err != nil {
		return nil, err
	}
	return light.Call(receiver, method, args...)
}

func (b *builder) member(path, key string, body any) (light.Node, error) {
	m, err := b.fields(path, body, "name", "receiver")
	if err != nil {
		return nil, err
	}
	name, err := asString(join(path, "name"), m["name"])
	if err != nil {
		return nil, err
	}
	receiver, err := b.optionalNode(path, m, "receiver")
	if err != nil {
		return nil, err
	}

	if key == "field" {
		if receiver == nil {
			return nil, errorf(join(path, "receiver"), "receiver is required")
		}
		f, err := meta.FieldOf(receiver.Type(), name)
		if err != nil {
			return nil, errorf(join(path, "name"), "%s", err.Error())
		}
		return light.Field(receiver, f)
	}

	var prop *meta.Property
	if receiver != nil {
		prop, err = meta.PropertyOf(receiver.Type(), name)
	} else {
		prop, err = b.reg.Property(name)
	}
	if err != nil {
		return nil, errorf(join(path, "name"), "unknown property %q", name)
	}
	return light.Property(receiver, prop)
}

func (b *builder) memberInit(path string, body any) (light.Node, error) {
	m, err := b.fields(path, body, "base", "bindings")
	if err != nil {
		return nil, err
	}
	base, err := b.requiredNode(path, m, "base")
	if err != nil {
		return nil, err
	}
	list, err := asList(join(path, "bindings"), m["bindings"])
	if err != nil {
		return nil, err
	}

	bindings := make([]*light.MemberBinding, len(list))
	for i, item := range list {
		bpath := index(join(path, "bindings"), i)
		bm, err := b.fields(bpath, item, "member", "value")
		if err != nil {
			return nil, err
		}
		name, err := asString(join(bpath, "member"), bm["member"])
		if err != nil {
			return nil, err
		}
		member, err := memberOf(base.Type(), name)
		if err != nil {
			return nil, errorf(join(bpath, "member"), "%s", err.Error())
		}
		value, err := b.requiredNode(bpath, bm, "value")
		if err != nil {
			return nil, err
		}
		if bindings[i], err = light.Bind(member, value); err != nil {
			return nil, err
		}
	}
	return light.MemberInit(base, bindings...)
}

// memberOf finds a field or, failing that, a property named name on t.
func memberOf(t reflect.Type, name string) (meta.Member, error) {
	if f, err := meta.FieldOf(t, name); err == nil {
		return f, nil
	}
	p, err := meta.PropertyOf(t, name)
	if err != nil {
		return nil, errors.Newf("%s has no field or property %q", meta.TypeName(t), name)
	}
	return p, nil
}

// block reads either a statement list or {variables, body}.
func (b *builder) block(path string, body any) (light.Node, error) {
	if list, ok := body.([]any); ok {
		statements, err := b.nodes(path, list)
		if err != nil {
			return nil, err
		}
		return light.Block(statements...)
	}
	m, err := b.fields(path, body, "variables", "body")
	if err != nil {
		return nil, err
	}
	vars, err := b.variables(join(path, "variables"), m["variables"])
	if err != nil {
		return nil, err
	}
	statements, err := b.nodes(join(path, "body"), m["body"])
	if err != nil {
		return nil, err
	}
	return light.BlockWithVariables(vars, statements...)
}

func (b *builder) try(path string, body any) (light.Node, error) {
	m, err := b.fields(path, body, "body", "catch", "finally")
	if err != nil {
		return nil, err
	}
	guarded, err := b.requiredNode(path, m, "body")
	if err != nil {
		return nil, err
	}
	finally, err := b.optionalNode(path, m, "finally")
	if err != nil {
		return nil, err
	}
	list, err := asList(join(path, "catch"), m["catch"])
	if err != nil {
		return nil, err
	}

	handlers := make([]*light.CatchBlock, len(list))
	for i, item := range list {
		hpath := index(join(path, "catch"), i)
		hm, err := b.fields(hpath, item, "type", "var", "body")
		if err != nil {
			return nil, err
		}
		hbody, err := b.requiredNode(hpath, hm, "body")
		if err != nil {
			return nil, err
		}
		if v, ok := hm["var"]; ok {
			p, err := b.variable(join(hpath, "var"), v)
			if err != nil {
				return nil, err
			}
			handlers[i], err = light.CatchVariable(p, hbody)
			if err != nil {
				return nil, err
			}
			continue
		}
		t, err := b.requiredType(hpath, hm, "type")
		if err != nil {
			return nil, err
		}
		if handlers[i], err = light.Catch(t, hbody); err != nil {
			return nil, err
		}
	}

	switch {
	case finally == nil:
		return light.TryCatch(guarded, handlers...)
	case len(handlers) == 0:
		return light.TryFinally(guarded, finally)
	default:
		return light.TryCatchFinally(guarded, finally, handlers...)
	}
}

// lambda reads {params, body} with an optional signature {params, returns}
// that makes it a typed lambda.
func (b *builder) lambda(path string, body any) (light.Node, error) {
	m, err := b.fields(path, body, "params", "body", "signature")
	if err != nil {
		return nil, err
	}
	params, err := b.variables(join(path, "params"), m["params"])
	if err != nil {
		return nil, err
	}
	fnBody, err := b.requiredNode(path, m, "body")
	if err != nil {
		return nil, err
	}

	var sig reflect.Type
	if raw, ok := m["signature"]; ok {
		spath := join(path, "signature")
		sm, err := b.fields(spath, raw, "params", "returns")
		if err != nil {
			return nil, err
		}
		names, err := asList(join(spath, "params"), sm["params"])
		if err != nil {
			return nil, err
		}
		in := make([]reflect.Type, len(names))
		for i, n := range names {
			name, err := asString(index(join(spath, "params"), i), n)
			if err != nil {
				return nil, err
			}
			if in[i], err = b.typ(index(join(spath, "params"), i), name); err != nil {
				return nil, err
			}
		}
		ret, err := b.optionalType(spath, sm, "returns")
		if err != nil {
			return nil, err
		}
		sig = meta.FuncOf(in, ret)
	}
	return light.Lambda(sig, fnBody, params...)
}
