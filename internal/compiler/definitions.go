package compiler

import (
	"maps"
	"slices"

	"github.com/Masterminds/semver/v3"

	"github.com/jacoelho/dictionary/internal/constraint"
	"github.com/jacoelho/dictionary/internal/datatype"
	"github.com/jacoelho/dictionary/internal/qname"
)

// ModelDefinition describes a compiled model's header.
type ModelDefinition struct {
	name        qname.QName
	prefixed    string
	description string
	author      string
	published   string
	version     *semver.Version
	namespaces  []*NamespaceDefinition
	imports     []*NamespaceDefinition
	resolver    *qname.MapResolver
	checksum    string
}

func (m *ModelDefinition) Name() qname.QName { return m.name }
func (m *ModelDefinition) PrefixedName() string { return m.prefixed }
func (m *ModelDefinition) Description() string { return m.description }
func (m *ModelDefinition) Author() string { return m.author }
func (m *ModelDefinition) Published() string { return m.published }
func (m *ModelDefinition) Version() *semver.Version { return m.version }

// Checksum is the hex SHA-256 of the model's canonical document.
func (m *ModelDefinition) Checksum() string { return m.checksum }

// Namespaces returns the namespaces declared by the model.
func (m *ModelDefinition) Namespaces() []*NamespaceDefinition {
	return slices.Clone(m.namespaces)
}

// Imports returns the namespaces imported by the model.
func (m *ModelDefinition) Imports() []*NamespaceDefinition {
	return slices.Clone(m.imports)
}

// Resolver resolves the prefixes visible inside the model.
func (m *ModelDefinition) Resolver() qname.Resolver { return m.resolver }

// Format renders q with the model's prefixes.
func (m *ModelDefinition) Format(q qname.QName) string {
	return qname.Format(q, m.resolver)
}

// IsNamespaceDeclared reports whether the model declares uri.
func (m *ModelDefinition) IsNamespaceDeclared(uri qname.NamespaceURI) bool {
	for _, ns := range m.namespaces {
		if ns.uri == uri {
			return true
		}
	}
	return false
}

// NamespaceDefinition binds a prefix to a URI inside a model.
type NamespaceDefinition struct {
	uri    qname.NamespaceURI
	prefix string
	model  *ModelDefinition
}

func (n *NamespaceDefinition) URI() qname.NamespaceURI { return n.uri }
func (n *NamespaceDefinition) Prefix() string { return n.prefix }
func (n *NamespaceDefinition) Model() *ModelDefinition { return n.model }

// DataTypeDefinition is a named data type and the kind implementing it.
type DataTypeDefinition struct {
	name                   qname.QName
	title                  string
	description            string
	kindName               string
	kind                   datatype.Kind
	analyserResourceBundle string
	model                  *ModelDefinition
}

func (d *DataTypeDefinition) Name() qname.QName { return d.name }
func (d *DataTypeDefinition) Title() string { return d.title }
func (d *DataTypeDefinition) Description() string { return d.description }
func (d *DataTypeDefinition) Kind() datatype.Kind { return d.kind }
func (d *DataTypeDefinition) KindName() string { return d.kindName }
func (d *DataTypeDefinition) Model() *ModelDefinition { return d.model }

func (d *DataTypeDefinition) AnalyserResourceBundle() string {
	return d.analyserResourceBundle
}

// ClassDefinition is a compiled type or aspect.
type ClassDefinition struct {
	name                     qname.QName
	aspect                   bool
	title                    string
	description              string
	parentName               qname.QName
	parent                   *ClassDefinition
	model                    *ModelDefinition
	archive                  *bool
	includedInSuperTypeQuery *bool
	depth                    int

	declaredProperties   []*PropertyDefinition
	declaredAssociations []*AssociationDefinition
	overrides            []*propertyOverride
	mandatoryAspectNames []qname.QName
	declaredAspects      []*ClassDefinition

	properties       map[qname.QName]*PropertyDefinition
	associations     map[qname.QName]*AssociationDefinition
	mandatoryAspects []*ClassDefinition
}

func (c *ClassDefinition) Name() qname.QName { return c.name }
func (c *ClassDefinition) IsAspect() bool { return c.aspect }
func (c *ClassDefinition) Title() string { return c.title }
func (c *ClassDefinition) Description() string { return c.description }
func (c *ClassDefinition) ParentName() qname.QName { return c.parentName }
func (c *ClassDefinition) Parent() *ClassDefinition { return c.parent }
func (c *ClassDefinition) Model() *ModelDefinition { return c.model }
func (c *ClassDefinition) Depth() int { return c.depth }

// Archive reports whether nodes of the class are archived on delete. An
// unset flag is inherited from the parent.
func (c *ClassDefinition) Archive() bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.archive != nil {
			return *cur.archive
		}
	}
	return false
}

// IncludedInSuperTypeQuery reports whether queries for a super class match
// this class. Unset flags are inherited and default to true.
func (c *ClassDefinition) IncludedInSuperTypeQuery() bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.includedInSuperTypeQuery != nil {
			return *cur.includedInSuperTypeQuery
		}
	}
	return true
}

// Properties returns the resolved properties, inherited and local, with
// overrides applied.
func (c *ClassDefinition) Properties() []*PropertyDefinition {
	return sortedValues(c.properties)
}

// Property returns the resolved property named q.
func (c *ClassDefinition) Property(q qname.QName) *PropertyDefinition {
	return c.properties[q]
}

// DeclaredProperties returns the properties declared by the class itself.
func (c *ClassDefinition) DeclaredProperties() []*PropertyDefinition {
	return slices.Clone(c.declaredProperties)
}

// Associations returns the resolved peer and child associations.
func (c *ClassDefinition) Associations() []*AssociationDefinition {
	return sortedValues(c.associations)
}

// Association returns the resolved association named q.
func (c *ClassDefinition) Association(q qname.QName) *AssociationDefinition {
	return c.associations[q]
}

// DeclaredAssociations returns the associations declared by the class itself.
func (c *ClassDefinition) DeclaredAssociations() []*AssociationDefinition {
	return slices.Clone(c.declaredAssociations)
}

// ChildAssociations returns the resolved child associations.
func (c *ClassDefinition) ChildAssociations() []*AssociationDefinition {
	var out []*AssociationDefinition
	for _, a := range c.Associations() {
		if a.child {
			out = append(out, a)
		}
	}
	return out
}

// MandatoryAspects returns the resolved mandatory aspects, inherited and local.
func (c *ClassDefinition) MandatoryAspects() []*ClassDefinition {
	return slices.Clone(c.mandatoryAspects)
}

// DefaultAspects returns the mandatory aspects and, transitively, their own
// mandatory aspects, ordered by name.
func (c *ClassDefinition) DefaultAspects() []*ClassDefinition {
	seen := make(map[qname.QName]*ClassDefinition)
	var visit func(*ClassDefinition)
	visit = func(cls *ClassDefinition) {
		for _, a := range cls.mandatoryAspects {
			if _, ok := seen[a.name]; ok {
				continue
			}
			seen[a.name] = a
			visit(a)
		}
	}
	visit(c)
	delete(seen, c.name)
	return sortedValues(seen)
}

// IsSubClassOf reports whether c is q or inherits from it.
func (c *ClassDefinition) IsSubClassOf(q qname.QName) bool {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.name == q {
			return true
		}
	}
	return false
}

// PropertyDefinition is a compiled property.
type PropertyDefinition struct {
	name              qname.QName
	container         *ClassDefinition
	model             *ModelDefinition
	title             string
	description       string
	dataTypeName      qname.QName
	dataType          *DataTypeDefinition
	multiValued       bool
	mandatory         bool
	mandatoryEnforced bool
	protected         bool
	defaultValue      *string
	indexed           bool
	atomic            bool
	stored            bool
	tokenised         string
	constraints       []*ConstraintDefinition
	override          bool
}

func (p *PropertyDefinition) Name() qname.QName { return p.name }
func (p *PropertyDefinition) ContainerClass() *ClassDefinition { return p.container }
func (p *PropertyDefinition) Model() *ModelDefinition { return p.model }
func (p *PropertyDefinition) Title() string { return p.title }
func (p *PropertyDefinition) Description() string { return p.description }
func (p *PropertyDefinition) DataTypeName() qname.QName { return p.dataTypeName }
func (p *PropertyDefinition) DataType() *DataTypeDefinition { return p.dataType }
func (p *PropertyDefinition) IsMultiValued() bool { return p.multiValued }
func (p *PropertyDefinition) IsMandatory() bool { return p.mandatory }
func (p *PropertyDefinition) IsMandatoryEnforced() bool { return p.mandatoryEnforced }
func (p *PropertyDefinition) IsProtected() bool { return p.protected }
func (p *PropertyDefinition) IsIndexed() bool { return p.indexed }
func (p *PropertyDefinition) IsIndexedAtomically() bool { return p.atomic }
func (p *PropertyDefinition) IsStoredInIndex() bool { return p.stored }
func (p *PropertyDefinition) IsOverride() bool { return p.override }

// Tokenised returns TRUE, FALSE or BOTH.
func (p *PropertyDefinition) Tokenised() string { return p.tokenised }

// DefaultValue returns the default value and whether one is declared.
func (p *PropertyDefinition) DefaultValue() (string, bool) {
	if p.defaultValue == nil {
		return "", false
	}
	return *p.defaultValue, true
}

// Constraints returns the property's constraints in declaration order.
func (p *PropertyDefinition) Constraints() []*ConstraintDefinition {
	return slices.Clone(p.constraints)
}

// AssociationDefinition is a compiled peer or child association.
type AssociationDefinition struct {
	name                    qname.QName
	model                   *ModelDefinition
	title                   string
	description             string
	protected               bool
	child                   bool
	sourceClass             *ClassDefinition
	sourceRole              string
	sourceMandatory         bool
	sourceMandatoryEnforced bool
	sourceMany              bool
	targetClassName         qname.QName
	targetClass             *ClassDefinition
	targetRole              string
	targetMandatory         bool
	targetMandatoryEnforced bool
	targetMany              bool
	childName               string
	duplicateChildNames     bool
	propagateTimestamps     bool
}

func (a *AssociationDefinition) Name() qname.QName { return a.name }
func (a *AssociationDefinition) Model() *ModelDefinition { return a.model }
func (a *AssociationDefinition) Title() string { return a.title }
func (a *AssociationDefinition) Description() string { return a.description }
func (a *AssociationDefinition) IsProtected() bool { return a.protected }
func (a *AssociationDefinition) IsChild() bool { return a.child }
func (a *AssociationDefinition) SourceClass() *ClassDefinition { return a.sourceClass }
func (a *AssociationDefinition) SourceRole() string { return a.sourceRole }
func (a *AssociationDefinition) IsSourceMandatory() bool { return a.sourceMandatory }
func (a *AssociationDefinition) IsSourceMandatoryEnforced() bool { return a.sourceMandatoryEnforced }
func (a *AssociationDefinition) IsSourceMany() bool { return a.sourceMany }
func (a *AssociationDefinition) TargetClassName() qname.QName { return a.targetClassName }
func (a *AssociationDefinition) TargetClass() *ClassDefinition { return a.targetClass }
func (a *AssociationDefinition) TargetRole() string { return a.targetRole }
func (a *AssociationDefinition) IsTargetMandatory() bool { return a.targetMandatory }
func (a *AssociationDefinition) IsTargetMandatoryEnforced() bool { return a.targetMandatoryEnforced }
func (a *AssociationDefinition) IsTargetMany() bool { return a.targetMany }
func (a *AssociationDefinition) ChildName() string { return a.childName }
func (a *AssociationDefinition) DuplicateChildNamesAllowed() bool { return a.duplicateChildNames }
func (a *AssociationDefinition) PropagateTimestamps() bool { return a.propagateTimestamps }

// ConstraintDefinition is a named constraint. Reference constraints point
// at another definition through Ref and share its implementation.
type ConstraintDefinition struct {
	name        qname.QName
	typ         string
	title       string
	description string
	parameters  map[string]any
	model       *ModelDefinition
	anonymous   bool
	ref         qname.QName
	target      *ConstraintDefinition
	impl        constraint.Constraint
}

func (c *ConstraintDefinition) Name() qname.QName { return c.name }
func (c *ConstraintDefinition) Model() *ModelDefinition { return c.model }
func (c *ConstraintDefinition) IsAnonymous() bool { return c.anonymous }
func (c *ConstraintDefinition) Ref() qname.QName { return c.ref }

// IsReference reports whether the definition refers to another constraint.
func (c *ConstraintDefinition) IsReference() bool { return !c.ref.IsZero() }

// Target returns the referenced definition, or c itself.
func (c *ConstraintDefinition) Target() *ConstraintDefinition {
	if c.target != nil {
		return c.target
	}
	return c
}

func (c *ConstraintDefinition) Type() string { return c.Target().typ }
func (c *ConstraintDefinition) Title() string {
	if c.title == "" && c.target != nil {
		return c.target.title
	}
	return c.title
}

func (c *ConstraintDefinition) Description() string {
	if c.description == "" && c.target != nil {
		return c.target.description
	}
	return c.description
}

// Parameters returns a copy of the declared parameters.
func (c *ConstraintDefinition) Parameters() map[string]any {
	return maps.Clone(c.Target().parameters)
}

// Constraint returns the instantiated implementation, nil when
// initialization was skipped.
func (c *ConstraintDefinition) Constraint() constraint.Constraint {
	if c.impl == nil && c.target != nil {
		return c.target.impl
	}
	return c.impl
}

type named interface {
	Name() qname.QName
}

func sortedValues[V named](m map[qname.QName]V) []V {
	keys := qname.SortedMapKeys(m)
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}
