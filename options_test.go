package dictionary_test

import (
	"testing"
	"testing/fstest"

	"github.com/jacoelho/dictionary"
	dicterrors "github.com/jacoelho/dictionary/errors"
	"github.com/jacoelho/dictionary/internal/constraint"
)

const customConstraintYAML = `name: ex:custom
imports:
  - uri: http://www.alfresco.org/model/dictionary/1.0
    prefix: d
namespaces:
  - uri: urn:example
    prefix: ex
constraints:
  - name: ex:script
    type: JAVASCRIPT
    parameters:
      - name: expression
        value: "[a-z]+"
`

func TestLoadOptionsValidate(t *testing.T) {
	if err := dictionary.NewLoadOptions().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	empty := dictionary.NewLoadOptions().WithConstraintRegistry(constraint.NewRegistry())
	if err := empty.Validate(); err == nil {
		t.Fatal("Validate() err = nil, want empty registry error")
	}
	if err := empty.WithSkipConstraintInitialization(true).Validate(); err != nil {
		t.Fatalf("Validate() with skip error = %v", err)
	}
}

func TestLoadOptionsConstraintInitialization(t *testing.T) {
	fsys := fstest.MapFS{
		"custom.yaml": &fstest.MapFile{Data: []byte(customConstraintYAML)},
	}

	_, err := dictionary.Load(fsys, "custom.yaml")
	if !dicterrors.Is(err, dicterrors.ErrInvalidConstraint) {
		t.Fatalf("Load() error = %v, want %s", err, dicterrors.ErrInvalidConstraint)
	}

	skip := dictionary.NewLoadOptions().WithSkipConstraintInitialization(true)
	if _, err := dictionary.LoadWithOptions(fsys, "custom.yaml", skip); err != nil {
		t.Fatalf("LoadWithOptions(skip) error = %v", err)
	}

	reg := constraint.DefaultRegistry()
	if err := reg.Register("JAVASCRIPT", constraint.NewRegex); err != nil {
		t.Fatal(err)
	}
	custom := dictionary.NewLoadOptions().WithConstraintRegistry(reg)
	m, err := dictionary.LoadWithOptions(fsys, "custom.yaml", custom)
	if err != nil {
		t.Fatalf("LoadWithOptions(custom) error = %v", err)
	}
	if c := m.Constraint(ex("script")); c == nil {
		t.Fatal("Constraint(ex:script) = nil")
	}
}
