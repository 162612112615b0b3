package constraint

import (
	"fmt"

	"github.com/google/cel-go/cel"
)

// Expression evaluates a CEL boolean expression with the value bound to
// the variable value.
type Expression struct {
	source  string
	program cel.Program
}

// NewExpression compiles the expression parameter once.
func NewExpression(params map[string]any) (Constraint, error) {
	if err := checkKnown(params, "expression"); err != nil {
		return nil, err
	}
	src, ok, err := paramString(params, "expression")
	if err != nil {
		return nil, err
	}
	if !ok || src == "" {
		return nil, fmt.Errorf("%w: expression is required", ErrInvalidParameter)
	}
	env, err := cel.NewEnv(cel.Variable("value", cel.DynType))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: expression %q: %v", ErrInvalidParameter, src, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: expression %q must yield a boolean", ErrInvalidParameter, src)
	}
	prg, err := env.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("%w: expression %q: %v", ErrInvalidParameter, src, err)
	}
	return &Expression{source: src, program: prg}, nil
}

func (c *Expression) Type() string { return TypeExpression }

func (c *Expression) Parameters() map[string]any {
	return map[string]any{"expression": c.source}
}

func (c *Expression) Evaluate(value any) error {
	out, _, err := c.program.Eval(map[string]any{"value": value})
	if err != nil {
		return violation(TypeExpression, "%q: %v", c.source, err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return violation(TypeExpression, "%q did not yield a boolean", c.source)
	}
	if !ok {
		return violation(TypeExpression, "%v rejected by %q", value, c.source)
	}
	return nil
}
