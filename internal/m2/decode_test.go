package m2

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeXMLMatchesYAML(t *testing.T) {
	fromXML, err := DecodeFile(os.DirFS("testdata"), "content.xml")
	require.NoError(t, err)
	fromYAML, err := DecodeFile(os.DirFS("testdata"), "content.yaml")
	require.NoError(t, err)

	assert.Equal(t, fromYAML, fromXML)
	require.NoError(t, fromXML.Validate())

	base := fromXML.Types[0]
	require.Len(t, base.Properties, 1)
	status := base.Properties[0]
	assert.True(t, status.Mandatory)
	assert.True(t, status.MandatoryEnforced)
	require.NotNil(t, status.Default)
	assert.Equal(t, Scalar("draft"), *status.Default)
	require.Len(t, status.Constraints, 2)
	assert.Equal(t, "ex:status", status.Constraints[0].Ref)
	assert.Equal(t, "LENGTH", status.Constraints[1].Type)

	list := fromXML.Constraints[0].Parameters[0]
	assert.True(t, list.IsList())
	assert.Equal(t, []string{"draft", "published"}, Strings(list.List))
}

func TestEncodeRoundTrip(t *testing.T) {
	m, err := DecodeFile(os.DirFS("testdata"), "content.yaml")
	require.NoError(t, err)

	for _, format := range []Format{FormatXML, FormatYAML, FormatJSON} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, m, format))
			got, err := DecodeBytes(buf.Bytes(), format)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}
}

func TestDecodeJSONScalars(t *testing.T) {
	doc := `{
  "name": "ex:numbers",
  "version": 2.1,
  "namespaces": [{"uri": "http://example.com/n", "prefix": "ex"}],
  "constraints": [{"name": "ex:range", "type": "MINMAX", "parameters": [
    {"name": "minValue", "value": 0},
    {"name": "maxValue", "value": 99.5}
  ]}]
}`
	m, err := DecodeBytes([]byte(doc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, Scalar("2.1"), m.Version)
	assert.Equal(t, Scalar("0"), *m.Constraints[0].Parameters[0].Value)
	assert.Equal(t, Scalar("99.5"), *m.Constraints[0].Parameters[1].Value)
}

func TestDecodeRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		doc    string
	}{
		{
			name:   "unknown field",
			format: FormatYAML,
			doc:    "name: ex:m\ncolour: red\nnamespaces:\n  - uri: http://example.com/m\n    prefix: ex\n",
		},
		{
			name:   "missing namespaces",
			format: FormatYAML,
			doc:    "name: ex:m\n",
		},
		{
			name:   "constraint with ref and type",
			format: FormatYAML,
			doc: `name: ex:m
namespaces:
  - uri: http://example.com/m
    prefix: ex
types:
  - name: ex:t
    properties:
      - name: ex:p
        type: d:text
        constraints:
          - ref: ex:c
            type: REGEX
`,
		},
		{
			name:   "object parameter",
			format: FormatJSON,
			doc:    `{"name":"ex:m","namespaces":[{"uri":"u","prefix":"ex"}],"constraints":[{"name":"ex:c","type":"REGEX","parameters":[{"name":"expression","value":{"a":1}}]}]}`,
		},
		{
			name:   "bad xml boolean",
			format: FormatXML,
			doc:    `<model name="ex:m"><namespaces><namespace uri="u" prefix="ex"/></namespaces><types><type name="ex:t"><archive>maybe</archive></type></types></model>`,
		},
		{
			name:   "malformed xml",
			format: FormatXML,
			doc:    `<model name="ex:m">`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(tt.doc), tt.format)
			require.Error(t, err)
		})
	}
}

func TestDecodeFile(t *testing.T) {
	fsys := fstest.MapFS{
		"models/a.yml":  {Data: []byte("name: ex:a\nnamespaces:\n  - uri: http://example.com/a\n    prefix: ex\n")},
		"models/a.conf": {Data: []byte("x")},
	}
	m, err := DecodeFile(fsys, "models/a.yml")
	require.NoError(t, err)
	assert.Equal(t, "ex:a", m.Name)

	_, err = DecodeFile(fsys, "models/a.conf")
	require.Error(t, err)
	_, err = DecodeFile(fsys, "models/missing.yaml")
	require.Error(t, err)
	_, err = DecodeFile(nil, "models/a.yml")
	require.Error(t, err)
}

func TestCanonicalIsStable(t *testing.T) {
	m, err := DecodeFile(os.DirFS("testdata"), "content.xml")
	require.NoError(t, err)
	first, err := Canonical(m)
	require.NoError(t, err)
	second, err := Canonical(m)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.False(t, strings.Contains(string(first), "\n"))

	_, err = Canonical(nil)
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"xml":  FormatXML,
		"YAML": FormatYAML,
		"yml":  FormatYAML,
		"json": FormatJSON,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("toml")
	require.Error(t, err)

	_, err = FormatFromPath("model")
	require.Error(t, err)
}

func TestCheckDocumentNumbers(t *testing.T) {
	doc := map[string]any{
		"name":       "ex:numbers",
		"version":    2,
		"namespaces": []any{map[string]any{"uri": "urn:numbers", "prefix": "ex"}},
		"constraints": []any{map[string]any{
			"name": "ex:range",
			"type": "MINMAX",
			"parameters": []any{
				map[string]any{"name": "minValue", "value": -9007199254740993},
				map[string]any{"name": "maxValue", "value": 1.5},
			},
		}},
	}
	require.NoError(t, checkDocument(doc))

	doc["version"] = []any{"1"}
	assert.Error(t, checkDocument(doc))
}
