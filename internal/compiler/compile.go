// Package compiler turns declarative model documents into immutable,
// cross-referenced definitions.
package compiler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"

	dicterrors "github.com/jacoelho/dictionary/errors"
	"github.com/jacoelho/dictionary/internal/constraint"
	"github.com/jacoelho/dictionary/internal/m2"
	"github.com/jacoelho/dictionary/internal/qname"
)

// Options configures a compilation.
type Options struct {
	// Constraints instantiates constraints; nil uses constraint.DefaultRegistry.
	Constraints *constraint.Registry
	// SkipConstraintInitialization leaves constraint implementations and
	// data type kinds unchecked, for tooling that only inspects models.
	SkipConstraintInitialization bool
	Logger                       *slog.Logger
}

type compilation struct {
	raw   *m2.Model
	query ModelQuery
	opts  Options
	log   *slog.Logger

	model       *ModelDefinition
	out         *CompiledModel
	declared    map[qname.NamespaceURI]bool
	anonNS      qname.NamespaceURI
	anonCounts  map[string]int
	classes     []*ClassDefinition
	constraints []*ConstraintDefinition
}

// Compile compiles m. Names that m does not declare are looked up through q,
// which may be nil. Every failure is returned wrapped in a
// *errors.Compilation naming the model.
func Compile(m *m2.Model, q ModelQuery, opts Options) (*CompiledModel, error) {
	if m == nil {
		return nil, dicterrors.Compiled("", dicterrors.InvalidModel("", "model is nil"))
	}
	if err := m.Validate(); err != nil {
		return nil, dicterrors.Compiled(m.Name, dicterrors.InvalidModel(m.Name, "%v", err))
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default().With("component", "compiler")
	}
	c := &compilation{
		raw:        m,
		query:      q,
		opts:       opts,
		log:        log.With("model", m.Name),
		declared:   make(map[qname.NamespaceURI]bool),
		anonCounts: make(map[string]int),
	}
	phases := []struct {
		name string
		run  func() error
	}{
		{"construct", c.construct},
		{"resolve dependencies", c.resolveDependencies},
		{"resolve inheritance", c.resolveInheritance},
		{"resolve constraints", c.resolveConstraints},
	}
	for _, phase := range phases {
		start := time.Now()
		if err := phase.run(); err != nil {
			c.log.Warn("model compilation failed", "phase", phase.name, "error", err)
			return nil, dicterrors.Compiled(m.Name, err)
		}
		c.log.Debug("compile phase done", "phase", phase.name, "duration", time.Since(start))
	}
	return c.out, nil
}

func (c *compilation) format(q qname.QName) string {
	return c.model.Format(q)
}

func (c *compilation) construct() error {
	m := c.raw
	resolver := qname.NewMapResolver()
	c.model = &ModelDefinition{
		prefixed:    m.Name,
		description: m.Description,
		author:      m.Author,
		published:   m.Published,
		resolver:    resolver,
	}
	for _, ns := range m.Namespaces {
		uri := qname.NamespaceURI(ns.URI)
		if err := resolver.Bind(ns.Prefix, uri); err != nil {
			return dicterrors.InvalidModel(m.Name, "namespace %s: %v", ns.URI, err)
		}
		c.declared[uri] = true
		c.model.namespaces = append(c.model.namespaces, &NamespaceDefinition{uri: uri, prefix: ns.Prefix, model: c.model})
	}
	for _, ns := range m.Imports {
		uri := qname.NamespaceURI(ns.URI)
		if c.declared[uri] {
			return dicterrors.InvalidModel(m.Name, "namespace %s is both declared and imported", ns.URI)
		}
		if err := resolver.Bind(ns.Prefix, uri); err != nil {
			return dicterrors.InvalidModel(m.Name, "import %s: %v", ns.URI, err)
		}
		c.model.imports = append(c.model.imports, &NamespaceDefinition{uri: uri, prefix: ns.Prefix, model: c.model})
	}
	name, err := qname.Parse(m.Name, resolver)
	if err != nil {
		return dicterrors.InvalidModel(m.Name, "model name: %v", err)
	}
	c.model.name = name
	if m.Version != "" {
		v, err := semver.NewVersion(string(m.Version))
		if err != nil {
			return dicterrors.InvalidModel(m.Name, "version %q: %v", m.Version, err)
		}
		c.model.version = v
	}
	canonical, err := m2.Canonical(m)
	if err != nil {
		return dicterrors.InvalidModel(m.Name, "%v", err)
	}
	sum := sha256.Sum256(canonical)
	c.model.checksum = hex.EncodeToString(sum[:])
	c.anonNS = c.model.namespaces[0].uri
	c.out = newCompiledModel(c.model)

	for _, dt := range m.DataTypes {
		if err := c.constructDataType(dt); err != nil {
			return err
		}
	}
	for _, con := range m.Constraints {
		if _, err := c.constructConstraint(con, qname.QName{}, qname.QName{}); err != nil {
			return err
		}
	}
	for _, cls := range m.Types {
		if err := c.constructClass(cls, false); err != nil {
			return err
		}
	}
	for _, cls := range m.Aspects {
		if err := c.constructClass(cls, true); err != nil {
			return err
		}
	}
	return nil
}

// declaredName parses the name of a definition owned by the model; it must
// live in a namespace the model declares.
func (c *compilation) declaredName(kind, raw string) (qname.QName, error) {
	q, err := qname.Parse(raw, c.model.resolver)
	if err != nil {
		return qname.QName{}, dicterrors.InvalidModel(c.raw.Name, "%s name %q: %v", kind, raw, err)
	}
	if !c.declared[q.Namespace] {
		return qname.QName{}, dicterrors.InvalidModel(c.raw.Name,
			"%s %s is not in a namespace declared by the model", kind, raw)
	}
	return q, nil
}

// refName parses a reference to a definition that may live in any visible namespace.
func (c *compilation) refName(owner, kind, raw string) (qname.QName, error) {
	q, err := qname.Parse(raw, c.model.resolver)
	if err != nil {
		return qname.QName{}, dicterrors.InvalidModel(c.raw.Name, "%s %q referenced by %s: %v", kind, raw, owner, err)
	}
	return q, nil
}

func (c *compilation) constructDataType(raw m2.DataType) error {
	name, err := c.declaredName("data type", raw.Name)
	if err != nil {
		return err
	}
	if _, exists := c.out.dataTypes[name]; exists {
		return dicterrors.DuplicateDefinition(c.raw.Name, "data type", raw.Name)
	}
	c.out.dataTypes[name] = &DataTypeDefinition{
		name:                   name,
		title:                  raw.Title,
		description:            raw.Description,
		kindName:               raw.Kind,
		analyserResourceBundle: raw.AnalyserResourceBundle,
		model:                  c.model,
	}
	return nil
}

// anonymousName generates {model namespace}class_property_anon_n, skipping
// names already taken in the model.
func (c *compilation) anonymousName(class, property qname.QName) qname.QName {
	key := class.String() + "|" + property.String()
	for {
		n := c.anonCounts[key]
		c.anonCounts[key] = n + 1
		q := qname.New(c.anonNS, fmt.Sprintf("%s_%s_anon_%d", class.Local, property.Local, n))
		if _, taken := c.out.constraints[q]; !taken {
			return q
		}
	}
}

func (c *compilation) constructConstraint(raw m2.Constraint, class, property qname.QName) (*ConstraintDefinition, error) {
	owner := raw.Name
	if owner == "" {
		owner = c.format(property)
	}
	def := &ConstraintDefinition{
		typ:         strings.TrimSpace(raw.Type),
		title:       raw.Title,
		description: raw.Description,
		model:       c.model,
	}
	if raw.Ref != "" {
		if def.typ != "" {
			return nil, dicterrors.InvalidModel(c.raw.Name, "constraint of %s declares both ref and type", owner)
		}
		ref, err := c.refName(owner, "constraint", raw.Ref)
		if err != nil {
			return nil, err
		}
		def.ref = ref
	} else if def.typ == "" {
		return nil, dicterrors.InvalidModel(c.raw.Name, "constraint of %s has no type", owner)
	}
	params, err := constraintParams(raw.Parameters)
	if err != nil {
		return nil, dicterrors.InvalidModel(c.raw.Name, "constraint of %s: %v", owner, err)
	}
	def.parameters = params

	if raw.Name != "" {
		name, err := c.declaredName("constraint", raw.Name)
		if err != nil {
			return nil, err
		}
		def.name = name
	} else {
		def.name = c.anonymousName(class, property)
		def.anonymous = true
	}
	if _, exists := c.out.constraints[def.name]; exists {
		return nil, dicterrors.DuplicateDefinition(c.raw.Name, "constraint", c.format(def.name))
	}
	c.out.constraints[def.name] = def
	c.constraints = append(c.constraints, def)
	return def, nil
}

func constraintParams(raw []m2.Parameter) (map[string]any, error) {
	params := make(map[string]any, len(raw))
	for _, p := range raw {
		if _, dup := params[p.Name]; dup {
			return nil, fmt.Errorf("parameter %s repeated", p.Name)
		}
		switch {
		case p.IsList():
			params[p.Name] = m2.Strings(p.List)
		case p.Value != nil:
			params[p.Name] = p.Value.String()
		}
	}
	return params, nil
}

func (c *compilation) constructClass(raw m2.Class, aspect bool) error {
	kind := "type"
	if aspect {
		kind = "aspect"
	}
	name, err := c.declaredName(kind, raw.Name)
	if err != nil {
		return err
	}
	if _, exists := c.out.classes[name]; exists {
		return dicterrors.DuplicateDefinition(c.raw.Name, "class", raw.Name)
	}
	cls := &ClassDefinition{
		name:                     name,
		aspect:                   aspect,
		title:                    raw.Title,
		description:              raw.Description,
		model:                    c.model,
		archive:                  raw.Archive,
		includedInSuperTypeQuery: raw.IncludedInSuperTypeQuery,
	}
	if raw.Parent != "" {
		if cls.parentName, err = c.refName(raw.Name, "parent", raw.Parent); err != nil {
			return err
		}
	}
	c.out.classes[name] = cls
	c.classes = append(c.classes, cls)

	for _, p := range raw.Properties {
		prop, err := c.constructProperty(cls, p)
		if err != nil {
			return err
		}
		cls.declaredProperties = append(cls.declaredProperties, prop)
	}
	seen := make(map[qname.QName]bool)
	for _, o := range raw.Overrides {
		ov, err := c.constructOverride(cls, o)
		if err != nil {
			return err
		}
		if seen[ov.name] {
			return dicterrors.DuplicateDefinition(c.raw.Name, "property override", o.Name)
		}
		seen[ov.name] = true
		cls.overrides = append(cls.overrides, ov)
	}
	for _, a := range raw.Associations {
		if err := c.constructAssociation(cls, a, nil); err != nil {
			return err
		}
	}
	for _, a := range raw.ChildAssociations {
		if err := c.constructAssociation(cls, a.Association, &a); err != nil {
			return err
		}
	}
	aspects := make(map[qname.QName]bool)
	for _, aspectName := range raw.MandatoryAspects {
		q, err := c.refName(c.format(name), "aspect", aspectName)
		if err != nil {
			return err
		}
		if aspects[q] {
			continue
		}
		aspects[q] = true
		cls.mandatoryAspectNames = append(cls.mandatoryAspectNames, q)
	}
	return nil
}

func (c *compilation) constructProperty(cls *ClassDefinition, raw m2.Property) (*PropertyDefinition, error) {
	name, err := c.declaredName("property", raw.Name)
	if err != nil {
		return nil, err
	}
	if _, exists := c.out.properties[name]; exists {
		return nil, dicterrors.DuplicateDefinition(c.raw.Name, "property", raw.Name)
	}
	if strings.TrimSpace(raw.Type) == "" {
		return nil, dicterrors.InvalidModel(c.raw.Name, "property %s has no data type", raw.Name)
	}
	dataType, err := c.refName(raw.Name, "data type", raw.Type)
	if err != nil {
		return nil, err
	}
	p := &PropertyDefinition{
		name:              name,
		container:         cls,
		model:             c.model,
		title:             raw.Title,
		description:       raw.Description,
		dataTypeName:      dataType,
		multiValued:       raw.MultiValued,
		mandatory:         raw.Mandatory,
		mandatoryEnforced: raw.MandatoryEnforced,
		protected:         raw.Protected,
		indexed:           true,
		atomic:            true,
		tokenised:         TokenisedTrue,
	}
	if raw.Default != nil {
		v := raw.Default.String()
		p.defaultValue = &v
	}
	if raw.Index != nil {
		p.indexed = raw.Index.Enabled
		p.atomic = raw.Index.Atomic
		p.stored = raw.Index.Stored
		tokenised, ok := parseTokenised(raw.Index.Tokenised.String())
		if !ok {
			return nil, dicterrors.InvalidModel(c.raw.Name, "property %s: tokenised %q is not true, false or both",
				raw.Name, raw.Index.Tokenised)
		}
		p.tokenised = tokenised
	}
	c.out.properties[name] = p
	for _, con := range raw.Constraints {
		def, err := c.constructConstraint(con, cls.name, name)
		if err != nil {
			return nil, err
		}
		p.constraints = append(p.constraints, def)
	}
	return p, nil
}

// Tokenised index modes.
const (
	TokenisedTrue  = "TRUE"
	TokenisedFalse = "FALSE"
	TokenisedBoth  = "BOTH"
)

func parseTokenised(s string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", TokenisedTrue:
		return TokenisedTrue, true
	case TokenisedFalse:
		return TokenisedFalse, true
	case TokenisedBoth:
		return TokenisedBoth, true
	default:
		return "", false
	}
}

type propertyOverride struct {
	name              qname.QName
	mandatory         *bool
	mandatoryEnforced *bool
	defaultValue      *string
	constraints       []*ConstraintDefinition
}

func (c *compilation) constructOverride(cls *ClassDefinition, raw m2.PropertyOverride) (*propertyOverride, error) {
	name, err := c.refName(c.format(cls.name), "property", raw.Name)
	if err != nil {
		return nil, err
	}
	ov := &propertyOverride{
		name:              name,
		mandatory:         raw.Mandatory,
		mandatoryEnforced: raw.MandatoryEnforced,
	}
	if raw.Default != nil {
		v := raw.Default.String()
		ov.defaultValue = &v
	}
	for _, con := range raw.Constraints {
		def, err := c.constructConstraint(con, cls.name, name)
		if err != nil {
			return nil, err
		}
		ov.constraints = append(ov.constraints, def)
	}
	return ov, nil
}

func (c *compilation) constructAssociation(cls *ClassDefinition, raw m2.Association, child *m2.ChildAssociation) error {
	name, err := c.declaredName("association", raw.Name)
	if err != nil {
		return err
	}
	if _, exists := c.out.associations[name]; exists {
		return dicterrors.DuplicateDefinition(c.raw.Name, "association", raw.Name)
	}
	if strings.TrimSpace(raw.Target.Class) == "" {
		return dicterrors.InvalidModel(c.raw.Name, "association %s has no target class", raw.Name)
	}
	target, err := c.refName(raw.Name, "class", raw.Target.Class)
	if err != nil {
		return err
	}
	a := &AssociationDefinition{
		name:                    name,
		model:                   c.model,
		title:                   raw.Title,
		description:             raw.Description,
		protected:               raw.Protected,
		sourceClass:             cls,
		sourceRole:              raw.Source.Role,
		sourceMandatory:         raw.Source.Mandatory,
		sourceMandatoryEnforced: raw.Source.MandatoryEnforced,
		sourceMany:              raw.Source.Many,
		targetClassName:         target,
		targetRole:              raw.Target.Role,
		targetMandatory:         raw.Target.Mandatory,
		targetMandatoryEnforced: raw.Target.MandatoryEnforced,
		targetMany:              raw.Target.Many,
		duplicateChildNames:     true,
	}
	if child != nil {
		a.child = true
		a.childName = child.ChildName
		a.propagateTimestamps = child.PropagateTimestamps
		if child.Duplicate != nil {
			a.duplicateChildNames = *child.Duplicate
		}
	}
	c.out.associations[name] = a
	cls.declaredAssociations = append(cls.declaredAssociations, a)
	return nil
}
