package constraint

import (
	"errors"
	"slices"
	"testing"
)

func mustNew(t *testing.T, typ string, params map[string]any) Constraint {
	t.Helper()
	c, err := DefaultRegistry().New(typ, params)
	if err != nil {
		t.Fatalf("New(%s, %v) error = %v", typ, params, err)
	}
	return c
}

func TestDefaultRegistryTypes(t *testing.T) {
	got := DefaultRegistry().Types()
	want := []string{TypeExpression, TypeLength, TypeList, TypeMinMax, TypeRegex}
	if !slices.Equal(got, want) {
		t.Fatalf("Types() = %v, want %v", got, want)
	}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	f := func(map[string]any) (Constraint, error) { return &Length{max: 1}, nil }
	if err := r.Register("CUSTOM", f); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register("CUSTOM", f); err == nil {
		t.Fatalf("Register() duplicate should fail")
	}
	if err := r.Register("", f); err == nil {
		t.Fatalf("Register() empty type should fail")
	}
	if _, ok := r.Lookup("CUSTOM"); !ok {
		t.Fatalf("Lookup(CUSTOM) not found")
	}
	if _, err := r.New("REGEX", nil); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("New(REGEX) on empty registry = %v, want ErrUnknownType", err)
	}
}

func TestInvalidParameters(t *testing.T) {
	tests := []struct {
		typ    string
		params map[string]any
	}{
		{TypeRegex, nil},
		{TypeRegex, map[string]any{"expression": "("}},
		{TypeRegex, map[string]any{"expression": "a", "requiresMatch": "maybe"}},
		{TypeRegex, map[string]any{"expression": "a", "colour": "red"}},
		{TypeLength, map[string]any{"minLength": "-1"}},
		{TypeLength, map[string]any{"minLength": "5", "maxLength": "2"}},
		{TypeLength, map[string]any{"maxLength": "x"}},
		{TypeMinMax, map[string]any{}},
		{TypeMinMax, map[string]any{"minValue": "10", "maxValue": "1"}},
		{TypeMinMax, map[string]any{"minValue": []string{"1"}}},
		{TypeList, map[string]any{}},
		{TypeList, map[string]any{"allowedValues": []string{}}},
		{TypeExpression, map[string]any{}},
		{TypeExpression, map[string]any{"expression": "value +"}},
		{TypeExpression, map[string]any{"expression": "'text'"}},
	}
	for _, tt := range tests {
		_, err := DefaultRegistry().New(tt.typ, tt.params)
		if !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("New(%s, %v) = %v, want ErrInvalidParameter", tt.typ, tt.params, err)
		}
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		params map[string]any
		value  any
		ok     bool
	}{
		{"regex match", TypeRegex, map[string]any{"expression": "[a-z]+"}, "abc", true},
		{"regex partial", TypeRegex, map[string]any{"expression": "[a-z]+"}, "abc1", false},
		{"regex inverted", TypeRegex, map[string]any{"expression": ".*secret.*", "requiresMatch": "false"}, "public", true},
		{"regex inverted hit", TypeRegex, map[string]any{"expression": ".*secret.*", "requiresMatch": "false"}, "top secret", false},
		{"length ok", TypeLength, map[string]any{"minLength": "2", "maxLength": "4"}, "héé", true},
		{"length short", TypeLength, map[string]any{"minLength": "2"}, "a", false},
		{"length long", TypeLength, map[string]any{"maxLength": "2"}, "abc", false},
		{"minmax in", TypeMinMax, map[string]any{"minValue": "0", "maxValue": "10"}, 10, true},
		{"minmax string", TypeMinMax, map[string]any{"minValue": "0"}, "3.5", true},
		{"minmax out", TypeMinMax, map[string]any{"maxValue": "10"}, 10.5, false},
		{"minmax text", TypeMinMax, map[string]any{"maxValue": "10"}, "ten", false},
		{"list hit", TypeList, map[string]any{"allowedValues": []string{"a", "b"}}, "b", true},
		{"list miss", TypeList, map[string]any{"allowedValues": []string{"a", "b"}}, "B", false},
		{"list case insensitive", TypeList, map[string]any{"allowedValues": []string{"a", "b"}, "caseSensitive": "false"}, "B", true},
		{"expression ok", TypeExpression, map[string]any{"expression": "value > 3"}, 4, true},
		{"expression rejects", TypeExpression, map[string]any{"expression": "value > 3"}, 2, false},
		{"expression string", TypeExpression, map[string]any{"expression": "value.startsWith('INV-')"}, "INV-7", true},
		{"expression type error", TypeExpression, map[string]any{"expression": "value > 3"}, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mustNew(t, tt.typ, tt.params)
			err := c.Evaluate(tt.value)
			if tt.ok && err != nil {
				t.Fatalf("Evaluate(%v) = %v, want nil", tt.value, err)
			}
			if !tt.ok && !errors.Is(err, ErrViolation) {
				t.Fatalf("Evaluate(%v) = %v, want ErrViolation", tt.value, err)
			}
		})
	}
}

func TestListSorted(t *testing.T) {
	c := mustNew(t, TypeList, map[string]any{"allowedValues": []string{"c", "a", "b"}, "sorted": "true"})
	got := c.(*List).AllowedValues()
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("AllowedValues() = %v", got)
	}
	params := c.Parameters()
	if params["sorted"] != true || params["caseSensitive"] != true {
		t.Fatalf("Parameters() = %v", params)
	}
}

func TestEvaluateAll(t *testing.T) {
	c := mustNew(t, TypeLength, map[string]any{"maxLength": "3"})
	if err := EvaluateAll(c, []string{"a", "abc"}); err != nil {
		t.Fatalf("EvaluateAll() = %v, want nil", err)
	}
	if err := EvaluateAll(c, []any{"a", "abcd"}); !errors.Is(err, ErrViolation) {
		t.Fatalf("EvaluateAll() = %v, want ErrViolation", err)
	}
	if err := EvaluateAll(c, "abcd"); !errors.Is(err, ErrViolation) {
		t.Fatalf("EvaluateAll(scalar) = %v, want ErrViolation", err)
	}
	if err := EvaluateAll(c, nil); err != nil {
		t.Fatalf("EvaluateAll(nil) = %v", err)
	}
}
