package compiler

import (
	"github.com/jacoelho/dictionary/internal/qname"
)

// CompiledModel is the resolved, immutable form of one model. Lookups are
// map based; bulk accessors return fresh slices ordered by name.
type CompiledModel struct {
	model        *ModelDefinition
	dataTypes    map[qname.QName]*DataTypeDefinition
	classes      map[qname.QName]*ClassDefinition
	properties   map[qname.QName]*PropertyDefinition
	associations map[qname.QName]*AssociationDefinition
	constraints  map[qname.QName]*ConstraintDefinition
}

func newCompiledModel(model *ModelDefinition) *CompiledModel {
	return &CompiledModel{
		model:        model,
		dataTypes:    make(map[qname.QName]*DataTypeDefinition),
		classes:      make(map[qname.QName]*ClassDefinition),
		properties:   make(map[qname.QName]*PropertyDefinition),
		associations: make(map[qname.QName]*AssociationDefinition),
		constraints:  make(map[qname.QName]*ConstraintDefinition),
	}
}

// Model returns the model header.
func (m *CompiledModel) Model() *ModelDefinition { return m.model }

// Name returns the model name.
func (m *CompiledModel) Name() qname.QName { return m.model.name }

// Namespaces returns the namespaces declared by the model.
func (m *CompiledModel) Namespaces() []*NamespaceDefinition { return m.model.Namespaces() }

// Imports returns the namespaces imported by the model.
func (m *CompiledModel) Imports() []*NamespaceDefinition { return m.model.Imports() }

func (m *CompiledModel) DataType(q qname.QName) *DataTypeDefinition { return m.dataTypes[q] }

func (m *CompiledModel) Class(q qname.QName) *ClassDefinition { return m.classes[q] }

// Type returns the type named q; aspects are not returned.
func (m *CompiledModel) Type(q qname.QName) *ClassDefinition {
	if c := m.classes[q]; c != nil && !c.aspect {
		return c
	}
	return nil
}

// Aspect returns the aspect named q; types are not returned.
func (m *CompiledModel) Aspect(q qname.QName) *ClassDefinition {
	if c := m.classes[q]; c != nil && c.aspect {
		return c
	}
	return nil
}

// Property returns a property declared by the model.
func (m *CompiledModel) Property(q qname.QName) *PropertyDefinition { return m.properties[q] }

// Association returns an association declared by the model.
func (m *CompiledModel) Association(q qname.QName) *AssociationDefinition { return m.associations[q] }

// Constraint returns a model-level or inline constraint.
func (m *CompiledModel) Constraint(q qname.QName) *ConstraintDefinition { return m.constraints[q] }

func (m *CompiledModel) DataTypes() []*DataTypeDefinition { return sortedValues(m.dataTypes) }

// Classes returns types and aspects.
func (m *CompiledModel) Classes() []*ClassDefinition { return sortedValues(m.classes) }

func (m *CompiledModel) Types() []*ClassDefinition { return m.filterClasses(false) }

func (m *CompiledModel) Aspects() []*ClassDefinition { return m.filterClasses(true) }

func (m *CompiledModel) Properties() []*PropertyDefinition { return sortedValues(m.properties) }

func (m *CompiledModel) Associations() []*AssociationDefinition {
	return sortedValues(m.associations)
}

func (m *CompiledModel) Constraints() []*ConstraintDefinition { return sortedValues(m.constraints) }

func (m *CompiledModel) filterClasses(aspect bool) []*ClassDefinition {
	var out []*ClassDefinition
	for _, c := range sortedValues(m.classes) {
		if c.aspect == aspect {
			out = append(out, c)
		}
	}
	return out
}
