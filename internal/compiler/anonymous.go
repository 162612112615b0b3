package compiler

import (
	"maps"
	"slices"

	"github.com/jacoelho/dictionary/internal/qname"
)

// AnonymousType merges typ with aspects: the result carries the union of
// their properties, associations and mandatory aspects. Features of typ win
// over features of the aspects; earlier aspects win over later ones.
func AnonymousType(typ *ClassDefinition, aspects ...*ClassDefinition) *ClassDefinition {
	if typ == nil {
		return nil
	}
	out := *typ
	out.properties = maps.Clone(typ.properties)
	out.associations = maps.Clone(typ.associations)
	out.mandatoryAspects = slices.Clone(typ.mandatoryAspects)
	seen := make(map[qname.QName]bool, len(out.mandatoryAspects))
	for _, a := range out.mandatoryAspects {
		seen[a.name] = true
	}
	addAspect := func(a *ClassDefinition) {
		if !seen[a.name] {
			seen[a.name] = true
			out.mandatoryAspects = append(out.mandatoryAspects, a)
		}
	}
	for _, aspect := range aspects {
		if aspect == nil {
			continue
		}
		for name, p := range aspect.properties {
			if _, ok := out.properties[name]; !ok {
				out.properties[name] = p
			}
		}
		for name, a := range aspect.associations {
			if _, ok := out.associations[name]; !ok {
				out.associations[name] = a
			}
		}
		addAspect(aspect)
		for _, a := range aspect.mandatoryAspects {
			addAspect(a)
		}
	}
	return &out
}
