package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"min int64", Int(-9223372036854775808), "-9223372036854775808"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"null", Null{}, "null"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"array of ints", Array{Int(1), Int(2), Int(3)}, "[1,2,3]"},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalSortedKeys(t *testing.T) {
	obj := Object{
		"zebra": Int(1),
		"alpha": Int(2),
		"nested": Object{
			"b": Int(1),
			"a": Int(2),
		},
	}

	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"nested":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00, which sorts before
	// U+E000 in UTF-16 but after it in UTF-8.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalOrdersKeysByNormalizedForm(t *testing.T) {
	// "e" + U+0301 sorts before "f" as written but composes to U+00E9,
	// which sorts after it.
	obj := Object{
		"e\u0301": Int(1),
		"f":       Int(2),
	}

	result, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"f\":2,\"\u00e9\":1}", string(result))
}

func TestMarshalRejectsKeysEqualAfterNormalization(t *testing.T) {
	obj := Object{
		"e\u0301": Int(1),
		"\u00e9":  Int(2),
	}

	_, err := Marshal(obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate object key")
}

func TestMarshalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"html is not escaped", "<a&b>", `"<a&b>"`},
		{"quote and backslash", `a"b\c`, `"a\"b\\c"`},
		{"newline and tab", "a\nb\tc", `"a\nb\tc"`},
		{"control char", "\x01", `"\u0001"`},
		{"line separator is literal", "\u2028", "\"\u2028\""},
		{"nfc normalization", "e\u0301", "\"\u00e9\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Marshal(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalNilValue(t *testing.T) {
	_, err := Marshal(Array{Int(1), nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[1]")
}

func TestHashDomainSeparation(t *testing.T) {
	v := Object{"kind": String("Constant")}

	h1 := MustHash(DomainExpr, v)
	h2 := MustHash("other/v1", v)
	assert.NotEqual(t, h1, h2)
	assert.Len(t, h1, 64)

	data, err := Marshal(v)
	require.NoError(t, err)
	sum := sha256.Sum256(append(append([]byte(DomainExpr), 0x00), data...))
	assert.Equal(t, hex.EncodeToString(sum[:]), h1)
}

func TestHashStable(t *testing.T) {
	a := Object{"x": Int(1), "y": Array{String("p"), Bool(true)}}
	b := Object{"y": Array{String("p"), Bool(true)}, "x": Int(1)}
	assert.Equal(t, MustHash(DomainExpr, a), MustHash(DomainExpr, b))
}
