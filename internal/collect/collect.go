// Package collect holds small slice helpers used while building and
// lowering expression trees.
//
// Every helper allocates at most once and never hands back a slice that
// shares a backing array with its input, so IR nodes can keep the result
// without defensive copies.
package collect

// Map applies fn to every element of src.
// Returns nil for an empty src; otherwise the result has exactly len(src)
// elements and capacity.
func Map[T, R any](src []T, fn func(T) R) []R {
	if len(src) == 0 {
		return nil
	}
	out := make([]R, len(src))
	for i, v := range src {
		out[i] = fn(v)
	}
	return out
}

// MapErr is Map for fallible conversions. fn receives the element index so
// it can annotate its error; mapping stops at the first error.
func MapErr[T, R any](src []T, fn func(int, T) (R, error)) ([]R, error) {
	if len(src) == 0 {
		return nil, nil
	}
	out := make([]R, len(src))
	for i, v := range src {
		r, err := fn(i, v)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

// Append returns src followed by items in a freshly allocated slice of
// exact length. When items is empty src is returned as is.
func Append[T any](src []T, items ...T) []T {
	if len(items) == 0 {
		return src
	}
	out := make([]T, len(src)+len(items))
	n := copy(out, src)
	copy(out[n:], items)
	return out
}

// Prepend returns item followed by src in a freshly allocated slice.
func Prepend[T any](item T, src []T) []T {
	out := make([]T, len(src)+1)
	out[0] = item
	copy(out[1:], src)
	return out
}

// Clone copies src, returning nil for an empty slice.
func Clone[T any](src []T) []T {
	if len(src) == 0 {
		return nil
	}
	out := make([]T, len(src))
	copy(out, src)
	return out
}
