package compiler

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/jacoelho/dictionary/internal/constraint"
	"github.com/jacoelho/dictionary/internal/datatype"
)

var (
	// ErrValueRequired reports a missing value for a mandatory property.
	ErrValueRequired = errors.New("mandatory property has no value")
	// ErrNotMultiValued reports several values for a single-valued property.
	ErrNotMultiValued = errors.New("property is not multi-valued")
)

// Validate checks value against the property's data type kind, multiplicity
// and constraints. Multi-valued properties accept slices.
func (p *PropertyDefinition) Validate(value any) error {
	name := p.model.Format(p.name)
	values, isList := listValues(value)
	switch {
	case isList && !p.multiValued:
		return fmt.Errorf("property %s: %w", name, ErrNotMultiValued)
	case !isList && value != nil:
		values = []any{value}
	}
	if len(values) == 0 {
		if p.mandatory {
			return fmt.Errorf("property %s: %w", name, ErrValueRequired)
		}
		return nil
	}
	for _, v := range values {
		if p.dataType != nil && p.dataType.kind != datatype.KindUnknown {
			if err := p.dataType.kind.Check(v); err != nil {
				return fmt.Errorf("property %s: %w", name, err)
			}
		}
		for _, def := range p.constraints {
			if err := constraint.EvaluateAll(def.Constraint(), v); err != nil {
				return fmt.Errorf("property %s: constraint %s: %w", name, p.model.Format(def.name), err)
			}
		}
	}
	return nil
}

func listValues(value any) ([]any, bool) {
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
