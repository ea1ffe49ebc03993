package meta

import (
	stderrors "errors"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrNotRegistered is returned (wrapped) when a registry lookup fails.
var ErrNotRegistered = errors.New("not registered")

// Registry maps names to descriptors so that trees can be described in
// documents. Lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	types   map[string]reflect.Type
	ctors   map[string]*Constructor
	methods map[string]*Method
	props   map[string]*Property
}

// NewRegistry creates a registry preloaded with the builtin type names:
// Go's predeclared types plus object, any, void and error.
func NewRegistry() *Registry {
	r := &Registry{
		types:   make(map[string]reflect.Type),
		ctors:   make(map[string]*Constructor),
		methods: make(map[string]*Method),
		props:   make(map[string]*Property),
	}
	builtins := map[string]reflect.Type{
		"bool":       reflect.TypeFor[bool](),
		"string":     reflect.TypeFor[string](),
		"int":        reflect.TypeFor[int](),
		"int8":       reflect.TypeFor[int8](),
		"int16":      reflect.TypeFor[int16](),
		"int32":      reflect.TypeFor[int32](),
		"int64":      reflect.TypeFor[int64](),
		"uint":       reflect.TypeFor[uint](),
		"uint8":      reflect.TypeFor[uint8](),
		"uint16":     reflect.TypeFor[uint16](),
		"uint32":     reflect.TypeFor[uint32](),
		"uint64":     reflect.TypeFor[uint64](),
		"float32":    reflect.TypeFor[float32](),
		"float64":    reflect.TypeFor[float64](),
		"complex64":  reflect.TypeFor[complex64](),
		"complex128": reflect.TypeFor[complex128](),
		"byte":       reflect.TypeFor[byte](),
		"rune":       reflect.TypeFor[rune](),
		"object":     ObjectType,
		"any":        ObjectType,
		"void":       VoidType,
		"error":      ErrorType,
	}
	for name, t := range builtins {
		r.types[name] = t
	}
	return r
}

// DefaultRegistry returns a registry with the builtin types and a small
// set of standard library functions.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for name, fn := range map[string]any{
		"strings.ToUpper":  strings.ToUpper,
		"strings.ToLower":  strings.ToLower,
		"strings.Repeat":   strings.Repeat,
		"strings.Contains": strings.Contains,
		"strconv.Itoa":     strconv.Itoa,
		"math.Sqrt":        math.Sqrt,
		"math.Max":         math.Max,
		"math.Abs":         math.Abs,
	} {
		m, err := StaticMethod(name, nil, fn)
		if err != nil {
			panic(err)
		}
		r.methods[name] = m
	}

	pi, err := StaticProperty("math.Pi", nil, func() float64 { return math.Pi })
	if err != nil {
		panic(err)
	}
	r.props["math.Pi"] = pi

	newErr, err := NamedCtor("errors.New", stderrors.New)
	if err != nil {
		panic(err)
	}
	r.ctors["errors.New"] = newErr
	return r
}

// RegisterType binds name to t.
func (r *Registry) RegisterType(name string, t reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = t
}

// RegisterCtor binds name to a constructor.
func (r *Registry) RegisterCtor(name string, c *Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[name] = c
}

// RegisterMethod binds name to a method. Instance methods of registered
// types resolve without registration as "Type.Method".
func (r *Registry) RegisterMethod(name string, m *Method) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.methods[name] = m
}

// RegisterProperty binds name to a (typically static) property.
func (r *Registry) RegisterProperty(name string, p *Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.props[name] = p
}

// Type resolves a type name. "[]T" and "*T" compose slice and pointer
// types over any resolvable T.
func (r *Registry) Type(name string) (reflect.Type, error) {
	name = strings.TrimSpace(name)
	switch {
	case strings.HasPrefix(name, "[]"):
		elem, err := r.Type(name[2:])
		if err != nil {
			return nil, err
		}
		return ArrayOf(elem), nil
	case strings.HasPrefix(name, "*"):
		elem, err := r.Type(name[1:])
		if err != nil {
			return nil, err
		}
		return ByRefOf(elem), nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.types[name]; ok {
		return t, nil
	}
	return nil, errors.Wrapf(ErrNotRegistered, "type %q", name)
}

// Ctor resolves a constructor by name.
func (r *Registry) Ctor(name string) (*Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.ctors[name]; ok {
		return c, nil
	}
	return nil, errors.Wrapf(ErrNotRegistered, "constructor %q", name)
}

// Method resolves a registered method, falling back to "Type.Method" on a
// registered type.
func (r *Registry) Method(name string) (*Method, error) {
	r.mu.RLock()
	m, ok := r.methods[name]
	r.mu.RUnlock()
	if ok {
		return m, nil
	}

	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return nil, errors.Wrapf(ErrNotRegistered, "method %q", name)
	}
	t, err := r.Type(name[:i])
	if err != nil {
		return nil, errors.Wrapf(ErrNotRegistered, "method %q", name)
	}
	return MethodOf(t, name[i+1:])
}

// Property resolves a registered property by name.
func (r *Registry) Property(name string) (*Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.props[name]; ok {
		return p, nil
	}
	return nil, errors.Wrapf(ErrNotRegistered, "property %q", name)
}

// TypeNames returns the registered type names in sorted order.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
