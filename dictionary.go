// Package dictionary compiles declarative content models into immutable,
// inheritance-resolved definitions and serves them per tenant.
package dictionary

import (
	"github.com/jacoelho/dictionary/internal/compiler"
	"github.com/jacoelho/dictionary/internal/constraint"
	"github.com/jacoelho/dictionary/internal/m2"
	"github.com/jacoelho/dictionary/internal/qname"
	"github.com/jacoelho/dictionary/internal/registry"
)

type (
	// QName is a namespace URI plus a local name.
	QName = qname.QName
	// NamespaceURI is a namespace identifier.
	NamespaceURI = qname.NamespaceURI

	// Model is an uncompiled model document.
	Model = m2.Model
	// Format identifies a model document encoding.
	Format = m2.Format

	// Parts of a model document.
	Namespace        = m2.Namespace
	DataType         = m2.DataType
	Class            = m2.Class
	Property         = m2.Property
	PropertyOverride = m2.PropertyOverride
	Index            = m2.Index
	ConstraintDecl   = m2.Constraint
	Parameter        = m2.Parameter
	Association      = m2.Association
	ChildAssociation = m2.ChildAssociation
	End              = m2.End
	Scalar           = m2.Scalar

	CompiledModel         = compiler.CompiledModel
	ModelDefinition       = compiler.ModelDefinition
	NamespaceDefinition   = compiler.NamespaceDefinition
	DataTypeDefinition    = compiler.DataTypeDefinition
	ClassDefinition       = compiler.ClassDefinition
	PropertyDefinition    = compiler.PropertyDefinition
	AssociationDefinition = compiler.AssociationDefinition
	ConstraintDefinition  = compiler.ConstraintDefinition

	// Registry is a tenant-scoped set of compiled models.
	Registry = registry.Registry

	// Constraint validates property values.
	Constraint = constraint.Constraint
	// ConstraintFactory builds a constraint from its parameters.
	ConstraintFactory = constraint.Factory
	// ConstraintRegistry maps constraint type names to factories.
	ConstraintRegistry = constraint.Registry
)

// Model document formats.
const (
	FormatXML  = m2.FormatXML
	FormatYAML = m2.FormatYAML
	FormatJSON = m2.FormatJSON
)

// NewQName returns the QName {ns}local.
func NewQName(ns NamespaceURI, local string) QName {
	return qname.New(ns, local)
}

// AnonymousType merges typ with aspects into a single class view.
func AnonymousType(typ *ClassDefinition, aspects ...*ClassDefinition) *ClassDefinition {
	return compiler.AnonymousType(typ, aspects...)
}

// DecodeModel parses a model document.
func DecodeModel(data []byte, format Format) (*Model, error) {
	return m2.DecodeBytes(data, format)
}

// ParseFormat returns the format named s ("xml", "yaml" or "json").
func ParseFormat(s string) (Format, error) {
	return m2.ParseFormat(s)
}

// NewConstraintRegistry returns a constraint registry with no types.
func NewConstraintRegistry() *ConstraintRegistry {
	return constraint.NewRegistry()
}

// DefaultConstraintRegistry returns a registry with the built-in constraint
// types.
func DefaultConstraintRegistry() *ConstraintRegistry {
	return constraint.DefaultRegistry()
}
