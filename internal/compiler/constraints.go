package compiler

import (
	"fmt"

	dicterrors "github.com/jacoelho/dictionary/errors"
	"github.com/jacoelho/dictionary/internal/constraint"
	"github.com/jacoelho/dictionary/internal/datatype"
)

func (c *compilation) resolveConstraints() error {
	if c.opts.SkipConstraintInitialization {
		return nil
	}
	reg := c.opts.Constraints
	if reg == nil {
		reg = constraint.DefaultRegistry()
	}
	for _, def := range c.constraints {
		if def.IsReference() {
			continue
		}
		factory, ok := reg.Lookup(def.typ)
		if !ok {
			return dicterrors.UnresolvedReference(c.raw.Name, c.format(def.name), "constraint type", def.typ)
		}
		impl, err := factory(def.Parameters())
		if err != nil {
			return dicterrors.InvalidConstraint(c.raw.Name, c.format(def.name), err)
		}
		def.impl = impl
	}
	for _, cls := range c.classes {
		for _, p := range cls.Properties() {
			if p.container != cls {
				continue
			}
			if err := c.checkDefault(p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *compilation) checkDefault(p *PropertyDefinition) error {
	value, ok := p.DefaultValue()
	if !ok {
		return nil
	}
	if p.dataType != nil && p.dataType.kind != datatype.KindUnknown {
		if err := p.dataType.kind.Check(value); err != nil {
			return dicterrors.InvalidModel(c.raw.Name, "default value of %s: %v", c.format(p.name), err)
		}
	}
	for _, def := range p.constraints {
		impl := def.Constraint()
		if impl == nil {
			continue
		}
		if err := impl.Evaluate(value); err != nil {
			return dicterrors.InvalidConstraint(c.raw.Name, c.format(def.name),
				fmt.Errorf("default value of %s: %w", c.format(p.name), err))
		}
	}
	return nil
}
