package light

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/weichx/FastExpressionCompiler/internal/meta"
	"github.com/weichx/FastExpressionCompiler/internal/testutil"
)

func greeterTree() *LambdaExpr {
	p := Variable(testutil.PersonType, "p")
	e := Variable(meta.ErrorType, "err")

	greet := Must(Call(p, meta.MustMethod(testutil.PersonType, "Greet"), Literal("hi", nil)))
	handler := Must(CatchVariable(e, Literal("failed", nil)))
	guarded := Must(TryCatchFinally(greet, Must(Call(nil, meta.MustFunc(testutil.Twice), LiteralOf(1))), handler))
	return Must(Lambda(nil, guarded, p))
}

func TestDump_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "dump_greeter", []byte(Dump(greeterTree())))
}

func TestCount(t *testing.T) {
	c := Count(greeterTree())
	// Lambda, p, Try, Call, p, "hi", err, "failed", Call, 1
	assert.Equal(t, Counts{Nodes: 10, Variables: 2}, c)

	assert.Equal(t, Counts{Nodes: 1, Variables: 0}, Count(LiteralOf(1)))
}

func TestWalk_SkipsChildren(t *testing.T) {
	var kinds []Kind
	Walk(greeterTree(), func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return n.Kind() != KindTry
	})
	assert.Equal(t, []Kind{KindLambda, KindParameter, KindTry}, kinds)
}
