package compiler

import (
	dicterrors "github.com/jacoelho/dictionary/errors"
	"github.com/jacoelho/dictionary/internal/datatype"
	"github.com/jacoelho/dictionary/internal/qname"
)

func (c *compilation) lookupDataType(q qname.QName) *DataTypeDefinition {
	if dt := c.out.dataTypes[q]; dt != nil {
		return dt
	}
	if isNil(c.query) {
		return nil
	}
	return c.query.DataType(q)
}

func (c *compilation) lookupClass(q qname.QName) *ClassDefinition {
	if cls := c.out.classes[q]; cls != nil {
		return cls
	}
	if isNil(c.query) {
		return nil
	}
	return c.query.Class(q)
}

func (c *compilation) lookupConstraint(q qname.QName) *ConstraintDefinition {
	if def := c.out.constraints[q]; def != nil {
		return def
	}
	if isNil(c.query) {
		return nil
	}
	return c.query.Constraint(q)
}

func (c *compilation) resolveDependencies() error {
	for _, dt := range c.out.DataTypes() {
		kind, ok := datatype.ParseKind(dt.kindName)
		if !ok && !c.opts.SkipConstraintInitialization {
			return dicterrors.UnresolvedReference(c.raw.Name, c.format(dt.name), "data type kind", dt.kindName)
		}
		dt.kind = kind
	}
	for _, cls := range c.classes {
		if err := c.resolveClass(cls); err != nil {
			return err
		}
	}
	for _, def := range c.constraints {
		if err := c.resolveConstraintRef(def); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) resolveClass(cls *ClassDefinition) error {
	owner := c.format(cls.name)
	kind := "type"
	if cls.aspect {
		kind = "aspect"
	}
	if !cls.parentName.IsZero() {
		parent := c.lookupClass(cls.parentName)
		if parent == nil || parent.aspect != cls.aspect {
			return dicterrors.UnresolvedReference(c.raw.Name, owner, kind, c.format(cls.parentName))
		}
		cls.parent = parent
	}
	for _, name := range cls.mandatoryAspectNames {
		aspect := c.lookupClass(name)
		if aspect == nil || !aspect.aspect {
			return dicterrors.UnresolvedReference(c.raw.Name, owner, "aspect", c.format(name))
		}
		cls.declaredAspects = append(cls.declaredAspects, aspect)
	}
	for _, p := range cls.declaredProperties {
		dt := c.lookupDataType(p.dataTypeName)
		if dt == nil {
			return dicterrors.UnresolvedReference(c.raw.Name, c.format(p.name), "data type", c.format(p.dataTypeName))
		}
		p.dataType = dt
	}
	for _, a := range cls.declaredAssociations {
		target := c.lookupClass(a.targetClassName)
		if target == nil {
			return dicterrors.UnresolvedReference(c.raw.Name, c.format(a.name), "class", c.format(a.targetClassName))
		}
		a.targetClass = target
	}
	return nil
}

// resolveConstraintRef follows reference chains to the defining constraint.
func (c *compilation) resolveConstraintRef(def *ConstraintDefinition) error {
	if !def.IsReference() || def.target != nil {
		return nil
	}
	seen := map[*ConstraintDefinition]bool{def: true}
	cur := def
	for cur.IsReference() {
		next := cur.target
		if next == nil {
			next = c.lookupConstraint(cur.ref)
		}
		if next == nil || seen[next] {
			return dicterrors.UnresolvedReference(c.raw.Name, c.format(def.name), "constraint", c.format(def.ref))
		}
		seen[next] = true
		cur = next
	}
	def.target = cur
	return nil
}
