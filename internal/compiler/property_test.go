package compiler

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	dicterrors "github.com/jacoelho/dictionary/errors"
	"github.com/jacoelho/dictionary/internal/m2"
)

// hierarchyModel builds a model with one type per entry in parents. parents[i]
// names the index of type i's parent; values outside [0, i) make type i a
// root, so the hierarchy is always acyclic.
func hierarchyModel(parents []int) *m2.Model {
	m := &m2.Model{
		Name:       "p:props",
		Namespaces: []m2.Namespace{{URI: "urn:props", Prefix: "p"}},
		Imports:    []m2.Namespace{{URI: "http://www.alfresco.org/model/dictionary/1.0", Prefix: "d"}},
	}
	for i, p := range parents {
		cls := m2.Class{
			Name: fmt.Sprintf("p:t%d", i),
			Properties: []m2.Property{
				{Name: fmt.Sprintf("p:prop%d", i), Type: "d:text", Mandatory: i%2 == 0},
			},
		}
		if p >= 0 && p < i {
			cls.Parent = fmt.Sprintf("p:t%d", p)
		}
		m.Types = append(m.Types, cls)
	}
	return m
}

func TestInheritanceProperties(t *testing.T) {
	q := bootstrapQuery(t)
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("sub classes carry every parent property", prop.ForAll(
		func(parents []int) bool {
			model, err := Compile(hierarchyModel(parents), q, Options{})
			if err != nil {
				return false
			}
			for _, cls := range model.Classes() {
				parent := cls.Parent()
				if parent == nil {
					if cls.Depth() != 0 {
						return false
					}
					continue
				}
				if cls.Depth() != parent.Depth()+1 {
					return false
				}
				for _, p := range parent.Properties() {
					if cls.Property(p.Name()) != p {
						return false
					}
				}
				if len(cls.Properties()) != len(parent.Properties())+len(cls.DeclaredProperties()) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.IntRange(-1, 7)),
	))

	properties.Property("closing a chain into a loop is reported as a cycle", prop.ForAll(
		func(n int) bool {
			parents := make([]int, n)
			for i := range parents {
				parents[i] = i - 1
			}
			m := hierarchyModel(parents)
			m.Types[0].Parent = fmt.Sprintf("p:t%d", n-1)
			_, err := Compile(m, q, Options{})
			return dicterrors.Is(err, dicterrors.ErrCyclicReference)
		},
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}
