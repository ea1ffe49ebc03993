package canonical

import (
	"slices"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// Value is a sealed interface over the encodable value kinds.
type Value interface {
	canonicalValue()
}

// Null is the JSON null.
type Null struct{}

// String is a JSON string.
type String string

// Int is a JSON integer. Always int64.
type Int int64

// Bool is a JSON boolean.
type Bool bool

// Array is an ordered list of values.
type Array []Value

// Object maps keys to values. Use SortedKeys for deterministic iteration.
type Object map[string]Value

func (Null) canonicalValue()   {}
func (String) canonicalValue() {}
func (Int) canonicalValue()    {}
func (Bool) canonicalValue()   {}
func (Array) canonicalValue()  {}
func (Object) canonicalValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units) of their
// NFC form, which is the form they are written in.
func (o Object) SortedKeys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := compareUTF16(norm.NFC.String(a), norm.NFC.String(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return keys
}

// compareUTF16 orders strings by UTF-16 code units. Go's native string
// comparison orders by UTF-8 bytes, which differs for code points above
// U+FFFF versus U+E000-U+FFFF.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
