package compiler

import "github.com/jacoelho/dictionary/internal/qname"

// ModelQuery looks up definitions by name. Implementations return nil when
// a name is unknown.
type ModelQuery interface {
	DataType(qname.QName) *DataTypeDefinition
	Class(qname.QName) *ClassDefinition
	Property(qname.QName) *PropertyDefinition
	Association(qname.QName) *AssociationDefinition
	Constraint(qname.QName) *ConstraintDefinition
}

var _ ModelQuery = (*CompiledModel)(nil)

// DelegatingQuery consults Local first and then Parent.
type DelegatingQuery struct {
	Local  ModelQuery
	Parent ModelQuery
}

func (d DelegatingQuery) DataType(q qname.QName) *DataTypeDefinition {
	return chain(d.queries(), func(m ModelQuery) *DataTypeDefinition { return m.DataType(q) })
}

func (d DelegatingQuery) Class(q qname.QName) *ClassDefinition {
	return chain(d.queries(), func(m ModelQuery) *ClassDefinition { return m.Class(q) })
}

func (d DelegatingQuery) Property(q qname.QName) *PropertyDefinition {
	return chain(d.queries(), func(m ModelQuery) *PropertyDefinition { return m.Property(q) })
}

func (d DelegatingQuery) Association(q qname.QName) *AssociationDefinition {
	return chain(d.queries(), func(m ModelQuery) *AssociationDefinition { return m.Association(q) })
}

func (d DelegatingQuery) Constraint(q qname.QName) *ConstraintDefinition {
	return chain(d.queries(), func(m ModelQuery) *ConstraintDefinition { return m.Constraint(q) })
}

func (d DelegatingQuery) queries() ChainQuery {
	return ChainQuery{d.Local, d.Parent}
}

// ChainQuery consults each query in order.
type ChainQuery []ModelQuery

func (c ChainQuery) DataType(q qname.QName) *DataTypeDefinition {
	return chain(c, func(m ModelQuery) *DataTypeDefinition { return m.DataType(q) })
}

func (c ChainQuery) Class(q qname.QName) *ClassDefinition {
	return chain(c, func(m ModelQuery) *ClassDefinition { return m.Class(q) })
}

func (c ChainQuery) Property(q qname.QName) *PropertyDefinition {
	return chain(c, func(m ModelQuery) *PropertyDefinition { return m.Property(q) })
}

func (c ChainQuery) Association(q qname.QName) *AssociationDefinition {
	return chain(c, func(m ModelQuery) *AssociationDefinition { return m.Association(q) })
}

func (c ChainQuery) Constraint(q qname.QName) *ConstraintDefinition {
	return chain(c, func(m ModelQuery) *ConstraintDefinition { return m.Constraint(q) })
}

func chain[T any](queries ChainQuery, get func(ModelQuery) *T) *T {
	for _, m := range queries {
		if isNil(m) {
			continue
		}
		if v := get(m); v != nil {
			return v
		}
	}
	return nil
}

// isNil guards against typed nil pointers stored in the interface.
func isNil(m ModelQuery) bool {
	if m == nil {
		return true
	}
	if cm, ok := m.(*CompiledModel); ok && cm == nil {
		return true
	}
	return false
}
