package constraint

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/jacoelho/dictionary/internal/datatype"
)

// Built-in constraint type names.
const (
	TypeRegex      = "REGEX"
	TypeLength     = "LENGTH"
	TypeMinMax     = "MINMAX"
	TypeList       = "LIST"
	TypeExpression = "EXPRESSION"
)

// Regex requires values to match, or not match, a regular expression over
// the whole value.
type Regex struct {
	expression    string
	requiresMatch bool
	re            *regexp.Regexp
}

// NewRegex builds a REGEX constraint from expression and requiresMatch.
func NewRegex(params map[string]any) (Constraint, error) {
	if err := checkKnown(params, "expression", "requiresMatch"); err != nil {
		return nil, err
	}
	expr, ok, err := paramString(params, "expression")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: expression is required", ErrInvalidParameter)
	}
	requiresMatch, err := paramBool(params, "requiresMatch", true)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile("^(?:" + expr + ")$")
	if err != nil {
		return nil, fmt.Errorf("%w: expression %q: %v", ErrInvalidParameter, expr, err)
	}
	return &Regex{expression: expr, requiresMatch: requiresMatch, re: re}, nil
}

func (c *Regex) Type() string { return TypeRegex }

func (c *Regex) Parameters() map[string]any {
	return map[string]any{"expression": c.expression, "requiresMatch": c.requiresMatch}
}

func (c *Regex) Evaluate(value any) error {
	s, ok := datatype.ToString(value)
	if !ok {
		return violation(TypeRegex, "value %v is not text", value)
	}
	if c.re.MatchString(s) != c.requiresMatch {
		if c.requiresMatch {
			return violation(TypeRegex, "%q does not match %q", s, c.expression)
		}
		return violation(TypeRegex, "%q must not match %q", s, c.expression)
	}
	return nil
}

// Length bounds the character length of text values.
type Length struct {
	min, max int
}

// NewLength builds a LENGTH constraint from minLength and maxLength.
func NewLength(params map[string]any) (Constraint, error) {
	if err := checkKnown(params, "minLength", "maxLength"); err != nil {
		return nil, err
	}
	minLen, _, err := paramInt(params, "minLength")
	if err != nil {
		return nil, err
	}
	maxLen, ok, err := paramInt(params, "maxLength")
	if err != nil {
		return nil, err
	}
	if !ok {
		maxLen = math.MaxInt
	}
	if minLen < 0 || maxLen < 0 {
		return nil, fmt.Errorf("%w: lengths must not be negative", ErrInvalidParameter)
	}
	if minLen > maxLen {
		return nil, fmt.Errorf("%w: minLength %d exceeds maxLength %d", ErrInvalidParameter, minLen, maxLen)
	}
	return &Length{min: minLen, max: maxLen}, nil
}

func (c *Length) Type() string { return TypeLength }

func (c *Length) Parameters() map[string]any {
	return map[string]any{"minLength": c.min, "maxLength": c.max}
}

func (c *Length) Evaluate(value any) error {
	s, ok := datatype.ToString(value)
	if !ok {
		return violation(TypeLength, "value %v is not text", value)
	}
	n := utf8.RuneCountInString(s)
	if n < c.min || n > c.max {
		return violation(TypeLength, "length %d outside [%d, %d]", n, c.min, c.max)
	}
	return nil
}

// MinMax bounds numeric values inclusively.
type MinMax struct {
	min, max float64
}

// NewMinMax builds a MINMAX constraint; at least one of minValue and
// maxValue is required.
func NewMinMax(params map[string]any) (Constraint, error) {
	if err := checkKnown(params, "minValue", "maxValue"); err != nil {
		return nil, err
	}
	minValue, hasMin, err := paramFloat(params, "minValue")
	if err != nil {
		return nil, err
	}
	maxValue, hasMax, err := paramFloat(params, "maxValue")
	if err != nil {
		return nil, err
	}
	if !hasMin && !hasMax {
		return nil, fmt.Errorf("%w: minValue or maxValue is required", ErrInvalidParameter)
	}
	if !hasMin {
		minValue = math.Inf(-1)
	}
	if !hasMax {
		maxValue = math.Inf(1)
	}
	if minValue > maxValue {
		return nil, fmt.Errorf("%w: minValue %v exceeds maxValue %v", ErrInvalidParameter, minValue, maxValue)
	}
	return &MinMax{min: minValue, max: maxValue}, nil
}

func (c *MinMax) Type() string { return TypeMinMax }

func (c *MinMax) Parameters() map[string]any {
	return map[string]any{"minValue": c.min, "maxValue": c.max}
}

func (c *MinMax) Evaluate(value any) error {
	f, err := datatype.ToFloat(value)
	if err != nil {
		return violation(TypeMinMax, "%v", err)
	}
	if math.IsNaN(f) || f < c.min || f > c.max {
		return violation(TypeMinMax, "%v outside [%v, %v]", f, c.min, c.max)
	}
	return nil
}

// List restricts values to an enumeration.
type List struct {
	allowed       []string
	caseSensitive bool
	sorted        bool
	index         map[string]struct{}
}

// NewList builds a LIST constraint from allowedValues, caseSensitive and
// sorted.
func NewList(params map[string]any) (Constraint, error) {
	if err := checkKnown(params, "allowedValues", "caseSensitive", "sorted"); err != nil {
		return nil, err
	}
	allowed, _, err := paramList(params, "allowedValues")
	if err != nil {
		return nil, err
	}
	if len(allowed) == 0 {
		return nil, fmt.Errorf("%w: allowedValues must not be empty", ErrInvalidParameter)
	}
	caseSensitive, err := paramBool(params, "caseSensitive", true)
	if err != nil {
		return nil, err
	}
	sorted, err := paramBool(params, "sorted", false)
	if err != nil {
		return nil, err
	}
	c := &List{
		allowed:       slices.Clone(allowed),
		caseSensitive: caseSensitive,
		sorted:        sorted,
		index:         make(map[string]struct{}, len(allowed)),
	}
	if sorted {
		slices.Sort(c.allowed)
	}
	for _, v := range c.allowed {
		c.index[c.key(v)] = struct{}{}
	}
	return c, nil
}

func (c *List) key(s string) string {
	if c.caseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func (c *List) Type() string { return TypeList }

// AllowedValues returns the allowed values, sorted when the constraint
// was declared sorted.
func (c *List) AllowedValues() []string {
	return slices.Clone(c.allowed)
}

func (c *List) Parameters() map[string]any {
	return map[string]any{
		"allowedValues": c.AllowedValues(),
		"caseSensitive": c.caseSensitive,
		"sorted":        c.sorted,
	}
}

func (c *List) Evaluate(value any) error {
	s, ok := datatype.ToString(value)
	if !ok {
		return violation(TypeList, "value %v is not text", value)
	}
	if _, ok := c.index[c.key(s)]; !ok {
		return violation(TypeList, "%q is not an allowed value", s)
	}
	return nil
}
