package compiler

import (
	"errors"
	"maps"
	"slices"

	dicterrors "github.com/jacoelho/dictionary/errors"
	"github.com/jacoelho/dictionary/internal/graphcycle"
	"github.com/jacoelho/dictionary/internal/qname"
)

func (c *compilation) resolveInheritance() error {
	keys := make([]qname.QName, 0, len(c.classes))
	for _, cls := range c.classes {
		keys = append(keys, cls.name)
	}
	parent := func(q qname.QName) (qname.QName, bool) {
		cls := c.out.classes[q]
		if cls == nil || cls.parentName.IsZero() {
			return qname.QName{}, false
		}
		return cls.parentName, true
	}
	parentDepth := func(q qname.QName) (int, bool) {
		if p := c.lookupClass(q); p != nil {
			return p.depth, true
		}
		return 0, false
	}
	depths, err := graphcycle.Depths(keys, parent, parentDepth)
	if err != nil {
		var cycle graphcycle.CycleError[qname.QName]
		if errors.As(err, &cycle) {
			path := make([]string, len(cycle.Path))
			for i, q := range cycle.Path {
				path[i] = c.format(q)
			}
			return dicterrors.CyclicReference(c.raw.Name, c.format(cycle.Key), path)
		}
		return err
	}
	for _, bucket := range graphcycle.Buckets(depths, qname.Compare) {
		for _, name := range bucket {
			cls := c.out.classes[name]
			cls.depth = depths[name]
			if err := c.inherit(cls); err != nil {
				return err
			}
		}
	}
	return nil
}

// inherit merges the parent's resolved features with the class's own. The
// parent is always resolved first because buckets ascend by depth.
func (c *compilation) inherit(cls *ClassDefinition) error {
	cls.properties = make(map[qname.QName]*PropertyDefinition)
	cls.associations = make(map[qname.QName]*AssociationDefinition)
	var aspects []*ClassDefinition
	seenAspect := make(map[qname.QName]bool)
	addAspect := func(a *ClassDefinition) {
		if !seenAspect[a.name] {
			seenAspect[a.name] = true
			aspects = append(aspects, a)
		}
	}
	if p := cls.parent; p != nil {
		maps.Copy(cls.properties, p.properties)
		maps.Copy(cls.associations, p.associations)
		for _, a := range p.mandatoryAspects {
			addAspect(a)
		}
	}
	for _, prop := range cls.declaredProperties {
		if _, inherited := cls.properties[prop.name]; inherited {
			return dicterrors.DuplicateDefinition(c.raw.Name, "property", c.format(prop.name))
		}
		cls.properties[prop.name] = prop
	}
	for _, assoc := range cls.declaredAssociations {
		if _, inherited := cls.associations[assoc.name]; inherited {
			return dicterrors.DuplicateDefinition(c.raw.Name, "association", c.format(assoc.name))
		}
		cls.associations[assoc.name] = assoc
	}
	for _, a := range cls.declaredAspects {
		addAspect(a)
	}
	cls.mandatoryAspects = aspects
	for _, ov := range cls.overrides {
		if err := c.applyOverride(cls, ov); err != nil {
			return err
		}
	}
	return nil
}

// applyOverride replaces an inherited property with a copy owned by cls.
// Mandatory flags may be tightened, never relaxed.
func (c *compilation) applyOverride(cls *ClassDefinition, ov *propertyOverride) error {
	var inherited *PropertyDefinition
	if cls.parent != nil {
		inherited = cls.parent.properties[ov.name]
	}
	if inherited == nil {
		return dicterrors.UnresolvedReference(c.raw.Name, c.format(cls.name), "inherited property", c.format(ov.name))
	}
	p := *inherited
	p.container = cls
	p.model = c.model
	p.override = true
	if ov.mandatory != nil {
		if inherited.mandatory && !*ov.mandatory {
			return dicterrors.MandatoryRelaxation(c.raw.Name, c.format(cls.name), c.format(ov.name), "mandatory")
		}
		p.mandatory = *ov.mandatory
	}
	if ov.mandatoryEnforced != nil {
		if inherited.mandatoryEnforced && !*ov.mandatoryEnforced {
			return dicterrors.MandatoryRelaxation(c.raw.Name, c.format(cls.name), c.format(ov.name), "mandatory enforcement")
		}
		p.mandatoryEnforced = *ov.mandatoryEnforced
	}
	if ov.defaultValue != nil {
		p.defaultValue = ov.defaultValue
	}
	p.constraints = mergeConstraints(inherited.constraints, ov.constraints)
	cls.properties[ov.name] = &p
	return nil
}

// mergeConstraints extends inherited with added; an added constraint that
// resolves to the same definition as an inherited one replaces it.
func mergeConstraints(inherited, added []*ConstraintDefinition) []*ConstraintDefinition {
	out := slices.Clone(inherited)
	for _, def := range added {
		idx := slices.IndexFunc(out, func(existing *ConstraintDefinition) bool {
			return existing.Target() == def.Target()
		})
		if idx >= 0 {
			out[idx] = def
			continue
		}
		out = append(out, def)
	}
	return out
}
