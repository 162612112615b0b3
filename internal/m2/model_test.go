package m2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validModel() *Model {
	return &Model{
		Name:       "ex:model",
		Version:    "1.0",
		Imports:    []Namespace{{URI: "http://www.alfresco.org/model/dictionary/1.0", Prefix: "d"}},
		Namespaces: []Namespace{{URI: "http://example.com/model", Prefix: "ex"}},
	}
}

func TestModelValidate(t *testing.T) {
	require.NoError(t, validModel().Validate())

	tests := []struct {
		name   string
		mutate func(*Model)
		want   string
	}{
		{"empty name", func(m *Model) { m.Name = " " }, "name is empty"},
		{"bad version", func(m *Model) { m.Version = "one" }, "version"},
		{"no namespace", func(m *Model) { m.Namespaces = nil }, "declares no namespace"},
		{"empty uri", func(m *Model) { m.Namespaces[0].URI = "" }, "has no uri"},
		{"prefix conflict", func(m *Model) { m.Imports[0].Prefix = "ex" }, "bound to both"},
		{"ref constraint", func(m *Model) { m.Constraints = []Constraint{{Name: "ex:c", Ref: "ex:d"}} }, "cannot be a reference"},
		{"unnamed constraint", func(m *Model) { m.Constraints = []Constraint{{Type: "REGEX"}} }, "without a name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validModel()
			tt.mutate(m)
			err := m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	var nilModel *Model
	require.Error(t, nilModel.Validate())
}

func TestModelURIs(t *testing.T) {
	m := validModel()
	assert.Equal(t, []string{"http://example.com/model"}, m.DeclaredURIs())
	assert.Equal(t, []string{"http://www.alfresco.org/model/dictionary/1.0"}, m.ImportedURIs())
}

func TestScalarUnmarshalJSON(t *testing.T) {
	var s Scalar
	require.NoError(t, s.UnmarshalJSON([]byte(`"abc"`)))
	assert.Equal(t, Scalar("abc"), s)
	require.NoError(t, s.UnmarshalJSON([]byte(`false`)))
	assert.Equal(t, "false", s.String())
	require.Error(t, s.UnmarshalJSON([]byte(`[1]`)))
}
