package dictionary_test

import (
	"context"
	"fmt"
	"testing/fstest"

	"github.com/jacoelho/dictionary"
)

func ExampleLoad() {
	fsys := fstest.MapFS{
		"example.yaml": &fstest.MapFile{Data: []byte(exampleYAML)},
	}

	m, err := dictionary.Load(fsys, "example.yaml")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	doc := m.Type(dictionary.NewQName("urn:example", "doc"))
	fmt.Println(doc.Name(), doc.ParentName())
	// Output: {urn:example}doc {http://www.alfresco.org/model/system/1.0}base
}

func ExampleService_PutModel() {
	ctx := context.Background()
	bus := dictionary.NewLocalNotifier()
	defer bus.Close()

	svc, err := dictionary.NewService(dictionary.ServiceConfig{
		Store:    dictionary.NewMemoryStore(),
		Notifier: bus,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer svc.Close()

	m, err := dictionary.DecodeModel([]byte(exampleYAML), dictionary.FormatYAML)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	name, err := svc.PutModel(ctx, "acme", m)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println(name)
	// Output: {urn:example}example
}

type evenConstraint struct{}

func (evenConstraint) Type() string               { return "even" }
func (evenConstraint) Parameters() map[string]any { return nil }

func (evenConstraint) Evaluate(v any) error {
	if n, ok := v.(int64); ok && n%2 != 0 {
		return fmt.Errorf("%d is odd", n)
	}
	return nil
}

func ExampleLoadOptions_WithConstraintRegistry() {
	constraints := dictionary.DefaultConstraintRegistry()
	err := constraints.Register("even", func(map[string]any) (dictionary.Constraint, error) {
		return evenConstraint{}, nil
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	set := dictionary.NewModelSet(dictionary.NewLoadOptions().WithConstraintRegistry(constraints))
	err = set.AddModel(&dictionary.Model{
		Name:       "num:numbers",
		Imports:    []dictionary.Namespace{{URI: "http://www.alfresco.org/model/dictionary/1.0", Prefix: "d"}},
		Namespaces: []dictionary.Namespace{{URI: "urn:numbers", Prefix: "num"}},
		Aspects: []dictionary.Class{{
			Name: "num:counted",
			Properties: []dictionary.Property{{
				Name:        "num:count",
				Type:        "d:long",
				Constraints: []dictionary.ConstraintDecl{{Type: "even"}},
			}},
		}},
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	res, err := set.Compile()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	count := res.Model(dictionary.NewQName("urn:numbers", "numbers")).Property(dictionary.NewQName("urn:numbers", "count"))
	c := count.Constraints()[0]
	fmt.Println(c.Type(), c.IsAnonymous())
	fmt.Println(c.Constraint().Evaluate(int64(3)))
	// Output:
	// even true
	// 3 is odd
}
