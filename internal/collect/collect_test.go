package collect

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMap(t *testing.T) {
	out := Map([]int{1, 2, 3}, strconv.Itoa)
	assert.Equal(t, []string{"1", "2", "3"}, out)
	assert.Equal(t, 3, cap(out))
}

func TestMapEmptyReturnsNil(t *testing.T) {
	assert.Nil(t, Map([]int{}, strconv.Itoa))
	assert.Nil(t, Map[int, string](nil, strconv.Itoa))
}

func TestMapErr(t *testing.T) {
	out, err := MapErr([]string{"1", "2"}, func(_ int, s string) (int, error) {
		return strconv.Atoi(s)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, out)
}

func TestMapErrStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	out, err := MapErr([]int{1, 2, 3}, func(i int, _ int) (int, error) {
		calls++
		if i == 1 {
			return 0, boom
		}
		return i, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, out)
	assert.Equal(t, 2, calls)
}

func TestAppendDoesNotAlias(t *testing.T) {
	src := make([]int, 2, 10)
	src[0], src[1] = 1, 2

	out := Append(src, 3)
	require.Equal(t, []int{1, 2, 3}, out)
	assert.Equal(t, 3, cap(out))

	out[0] = 99
	assert.Equal(t, 1, src[0], "source must not share backing array")
}

func TestAppendNoItems(t *testing.T) {
	src := []int{1}
	out := Append(src)
	assert.Equal(t, src, out)
}

func TestPrepend(t *testing.T) {
	src := []string{"b", "c"}
	out := Prepend("a", src)
	assert.Equal(t, []string{"a", "b", "c"}, out)
	assert.Equal(t, []string{"a"}, Prepend("a", nil))
}

func TestClone(t *testing.T) {
	assert.Nil(t, Clone([]int{}))
	src := []int{1, 2}
	out := Clone(src)
	out[0] = 5
	assert.Equal(t, 1, src[0])
}
