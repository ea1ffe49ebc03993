package irdoc

import (
	"reflect"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weichx/FastExpressionCompiler/internal/expr"
	"github.com/weichx/FastExpressionCompiler/internal/light"
	"github.com/weichx/FastExpressionCompiler/internal/meta"
	"github.com/weichx/FastExpressionCompiler/internal/testutil"
)

func TestLoad_YAMLSharesVariables(t *testing.T) {
	doc, err := Load("testdata/doubler.yaml", nil)
	require.NoError(t, err)

	assert.Equal(t, "doubler", doc.Name)
	assert.Equal(t, "testdata/doubler.yaml", doc.Source)
	assert.Equal(t, []string{"x"}, doc.VariableNames())

	lam, ok := doc.Root.(*light.LambdaExpr)
	require.True(t, ok)
	assert.Equal(t, light.KindLambda, lam.Kind())
	assert.Equal(t, reflect.TypeFor[func(int) int](), lam.Type())

	x := doc.Variables["x"]
	sum := lam.Body().(*light.BinaryExpr)
	assert.Same(t, x, lam.Params()[0])
	assert.Same(t, x, sum.Left())
	assert.Same(t, x, sum.Right())

	out, err := light.Materialize(doc.Root)
	require.NoError(t, err)
	assert.Equal(t, "func(x int) int { (x + x) }", expr.Format(out))
}

func TestLoad_CUE(t *testing.T) {
	doc, err := Load("testdata/greeter.cue", testutil.Registry())
	require.NoError(t, err)

	assert.Equal(t, "greeter", doc.Name)
	assert.Equal(t, []string{"err", "p"}, doc.VariableNames())
	assert.Equal(t, reflect.TypeFor[func(*testutil.Person) string](), doc.Root.Type())

	lam := doc.Root.(*light.LambdaExpr)
	try := lam.Body().(*light.TryExpr)
	require.Len(t, try.Handlers(), 1)
	assert.Same(t, doc.Variables["err"], try.Handlers()[0].Variable())
	require.NotNil(t, try.Finally())

	out, err := light.Materialize(doc.Root)
	require.NoError(t, err)
	assert.NoError(t, expr.CheckScopes(out))
}

func TestLoad_NameDefaultsToFileName(t *testing.T) {
	doc, err := Load("testdata/person_init.yaml", testutil.Registry())
	require.NoError(t, err)

	assert.Equal(t, "person_init", doc.Name)
	assert.True(t, doc.Variables["total"].IsByRef())
	assert.Equal(t, testutil.PersonType, doc.Root.Type())

	block := doc.Root.(*light.BlockExpr)
	require.Len(t, block.Statements(), 2)
	mi := block.Statements()[1].(*light.MemberInitExpr)
	require.Len(t, mi.Bindings(), 2)
	assert.Equal(t, "Name", mi.Bindings()[0].Member().Name())
	assert.Equal(t, "Age", mi.Bindings()[1].Member().Name())

	_, err = light.Materialize(doc.Root)
	require.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/missing.yaml", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read document")
}

func TestParseYAML_Forms(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantKind light.Kind
		wantType reflect.Type
	}{
		{
			name:     "camel case keys",
			doc:      "root:\n  newArray: {type: int, items: [{const: 1}, {const: 2}]}\n",
			wantKind: light.KindNewArray,
			wantType: reflect.TypeFor[[]int](),
		},
		{
			name:     "typed constant",
			doc:      "root:\n  const: {value: 3, type: int64}\n",
			wantKind: light.KindConstant,
			wantType: testutil.Int64Type,
		},
		{
			name:     "integral float as int8",
			doc:      "root:\n  const: {value: 4.0, type: int8}\n",
			wantKind: light.KindConstant,
			wantType: reflect.TypeFor[int8](),
		},
		{
			name:     "float constant",
			doc:      "root: {const: 1.5}\n",
			wantKind: light.KindConstant,
			wantType: testutil.Float64Type,
		},
		{
			name:     "null constant",
			doc:      "root: {const: null}\n",
			wantKind: light.KindConstant,
			wantType: reflect.TypeFor[any](),
		},
		{
			name:     "convert",
			doc:      "root:\n  convert: {value: {const: 2}, type: float64}\n",
			wantKind: light.KindUnary,
			wantType: testutil.Float64Type,
		},
		{
			name:     "throw",
			doc:      "root:\n  throw: {value: {new: {ctor: errors.New, args: [{const: boom}]}}}\n",
			wantKind: light.KindUnary,
			wantType: meta.VoidType,
		},
		{
			name:     "static call",
			doc:      "root:\n  call: {method: strings.ToUpper, args: [{const: a}]}\n",
			wantKind: light.KindMethodCall,
			wantType: testutil.StringType,
		},
		{
			name:     "static property",
			doc:      "root:\n  property: {name: math.Pi}\n",
			wantKind: light.KindPropertyAccess,
			wantType: testutil.Float64Type,
		},
		{
			name: "block shorthand",
			doc: "variables: {s: string}\n" +
				"root:\n  block: [{const: 1}, {var: s}]\n",
			wantKind: light.KindBlock,
			wantType: testutil.StringType,
		},
		{
			name: "index",
			doc: "variables: {xs: \"[]string\", i: int}\n" +
				"root:\n  index: {array: {var: xs}, index: {var: i}}\n",
			wantKind: light.KindArrayIndex,
			wantType: testutil.StringType,
		},
		{
			name: "typed lambda",
			doc: "variables: {x: int}\n" +
				"root:\n  lambda:\n    params: [x]\n    body: {var: x}\n" +
				"    signature: {params: [int], returns: int}\n",
			wantKind: light.KindTypedLambda,
			wantType: reflect.TypeFor[func(int) int](),
		},
		{
			name: "invoke",
			doc: "variables: {x: int}\n" +
				"root:\n  invoke: {callee: {lambda: {params: [x], body: {var: x}}}, args: [{const: 4}]}\n",
			wantKind: light.KindInvocation,
			wantType: testutil.IntType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseYAML([]byte(tt.doc), testutil.Registry())
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, doc.Root.Kind())
			assert.Equal(t, tt.wantType, doc.Root.Type())
		})
	}
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantPath string
		wantMsg  string
	}{
		{
			name:     "missing root",
			doc:      "name: empty\n",
			wantPath: "root",
			wantMsg:  "root is required",
		},
		{
			name:     "unknown top-level key",
			doc:      "root: {const: 1}\nextra: true\n",
			wantPath: "extra",
			wantMsg:  "unknown key",
		},
		{
			name:     "unknown variable type",
			doc:      "variables: {x: Widget}\nroot: {var: x}\n",
			wantPath: "variables.x.type",
			wantMsg:  `unknown type "Widget"`,
		},
		{
			name: "undeclared variable",
			doc: "variables: {x: int}\n" +
				"root:\n  lambda:\n    params: [x]\n    body:\n      add: [{var: x}, {var: y}]\n",
			wantPath: "root.lambda.body.add[1].var",
			wantMsg:  `undeclared variable "y"`,
		},
		{
			name:     "unknown node kind",
			doc:      "root: {loop: []}\n",
			wantPath: "root.loop",
			wantMsg:  `unknown node kind "loop"`,
		},
		{
			name:     "node with two keys",
			doc:      "root: {const: 1, var: x}\n",
			wantPath: "root",
			wantMsg:  "exactly one key",
		},
		{
			name:     "wrong operand count",
			doc:      "root: {add: [{const: 1}]}\n",
			wantPath: "root.add",
			wantMsg:  "expected 2 operands, got 1",
		},
		{
			name:     "unknown constructor",
			doc:      "root: {new: {ctor: NewWidget}}\n",
			wantPath: "root.new.ctor",
			wantMsg:  `unknown constructor "NewWidget"`,
		},
		{
			name:     "uncoercible constant",
			doc:      "root: {const: {value: nope, type: int}}\n",
			wantPath: "root.const.value",
			wantMsg:  "cannot be used as int",
		},
		{
			name:     "fractional constant as int",
			doc:      "root: {const: {value: 3.7, type: int}}\n",
			wantPath: "root.const.value",
			wantMsg:  "3.7 does not fit in int",
		},
		{
			name:     "constant overflows int8",
			doc:      "root: {const: {value: 300, type: int8}}\n",
			wantPath: "root.const.value",
			wantMsg:  "300 does not fit in int8",
		},
		{
			name:     "negative constant as uint",
			doc:      "root: {const: {value: -1, type: uint}}\n",
			wantPath: "root.const.value",
			wantMsg:  "-1 does not fit in uint",
		},
		{
			name:     "field without receiver",
			doc:      "root: {field: {name: X}}\n",
			wantPath: "root.field.receiver",
			wantMsg:  "receiver is required",
		},
		{
			name:     "unknown binding member",
			doc:      "root: {member_init: {base: {new: {ctor: NewPoint, args: [{const: 1}, {const: 2}]}}, bindings: [{member: Z, value: {const: 3}}]}}\n",
			wantPath: "root.member_init.bindings[0].member",
			wantMsg:  `no field or property "Z"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML([]byte(tt.doc), testutil.Registry())
			require.Error(t, err)

			var docErr *Error
			require.True(t, errors.As(err, &docErr), "got %v", err)
			assert.Equal(t, tt.wantPath, docErr.Path)
			assert.Contains(t, docErr.Message, tt.wantMsg)
		})
	}
}

func TestParseYAML_WrapsConstructionErrors(t *testing.T) {
	_, err := ParseYAML([]byte("root: {modulo: [{const: 7}, {const: 2}]}\n"), nil)
	require.Error(t, err)

	var docErr *Error
	require.True(t, errors.As(err, &docErr))
	assert.Equal(t, "root.modulo", docErr.Path)
	assert.True(t, light.IsUnsupportedNodeKind(err))

	_, err = ParseYAML([]byte("root: {index: {array: {const: 1}, index: {const: 0}}}\n"), nil)
	require.Error(t, err)
	assert.True(t, light.IsMalformedNode(err))
}

func TestParseCUE_Errors(t *testing.T) {
	_, err := ParseCUE([]byte("root: {"), "broken.cue", nil)
	require.Error(t, err)

	_, err = ParseCUE([]byte("root: const: int\n"), "open.cue", nil)
	require.Error(t, err, "non-concrete values are rejected")

	_, err = ParseCUE([]byte("[1, 2]\n"), "list.cue", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document must be a struct")
}
