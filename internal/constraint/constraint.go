// Package constraint implements the property constraint types and the
// registry that instantiates them by type name.
package constraint

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrInvalidParameter reports a missing or malformed constraint parameter.
	ErrInvalidParameter = errors.New("invalid constraint parameter")
	// ErrViolation reports a value rejected by a constraint.
	ErrViolation = errors.New("constraint violation")
	// ErrUnknownType reports a constraint type with no registered factory.
	ErrUnknownType = errors.New("unknown constraint type")
)

// Constraint evaluates property values.
type Constraint interface {
	Type() string
	Evaluate(value any) error
	Parameters() map[string]any
}

// Factory builds a constraint from its declared parameters. Parameter values
// are strings or []string as written in the model document.
type Factory func(params map[string]any) (Constraint, error)

// Registry maps constraint type names to factories. It is safe for
// concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a new registry holding the built-in types.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.factories[TypeRegex] = NewRegex
	r.factories[TypeLength] = NewLength
	r.factories[TypeMinMax] = NewMinMax
	r.factories[TypeList] = NewList
	r.factories[TypeExpression] = NewExpression
	return r
}

// Register adds a factory. Registering a type twice is an error.
func (r *Registry) Register(typ string, f Factory) error {
	typ = strings.TrimSpace(typ)
	if typ == "" || f == nil {
		return fmt.Errorf("register constraint type %q: empty type or nil factory", typ)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[typ]; ok {
		return fmt.Errorf("register constraint type %s: already registered", typ)
	}
	r.factories[typ] = f
	return nil
}

// Lookup returns the factory for typ.
func (r *Registry) Lookup(typ string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typ]
	return f, ok
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for typ := range r.factories {
		out = append(out, typ)
	}
	sort.Strings(out)
	return out
}

// New instantiates a constraint of type typ.
func (r *Registry) New(typ string, params map[string]any) (Constraint, error) {
	f, ok := r.Lookup(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	c, err := f(params)
	if err != nil {
		return nil, fmt.Errorf("%s constraint: %w", typ, err)
	}
	return c, nil
}

// EvaluateAll evaluates c against value, or against each element when value
// is a slice.
func EvaluateAll(c Constraint, value any) error {
	if c == nil || value == nil {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return c.Evaluate(value)
	}
	for i := range rv.Len() {
		if err := c.Evaluate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}
	}
	return nil
}

func violation(typ, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrViolation, typ, fmt.Sprintf(format, args...))
}

func copyParams(params map[string]any) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if list, ok := v.([]string); ok {
			v = slices.Clone(list)
		}
		out[k] = v
	}
	return out
}
