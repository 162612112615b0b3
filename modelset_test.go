package dictionary_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacoelho/dictionary"
	dicterrors "github.com/jacoelho/dictionary/errors"
	"github.com/jacoelho/dictionary/internal/m2"
)

func TestModelSetCompilesInImportOrder(t *testing.T) {
	set := dictionary.NewModelSet()
	require.NoError(t, set.AddFS(exampleFS(), "extension.yaml"))
	require.NoError(t, set.AddFS(exampleFS(), "example.yaml"))
	assert.Equal(t, 2, set.Len())

	res, err := set.Compile()
	require.NoError(t, err)
	require.Len(t, res.Models, 2)
	assert.Equal(t, ex("example"), res.Models[0].Name())
	assert.Equal(t, ext("extension"), res.Models[1].Name())

	memo := res.Registry.Type(ext("memo"))
	require.NotNil(t, memo)
	assert.NotNil(t, memo.Property(ex("title")), "inherited property")
	assert.NotNil(t, res.Model(ext("extension")))
	assert.Nil(t, res.Model(ext("missing")))
	assert.True(t, res.Registry.IsModelRegistered(dictionary.NewQName("http://www.alfresco.org/model/system/1.0", "systemmodel")))
}

func TestModelSetIsolatesFailures(t *testing.T) {
	set := dictionary.NewModelSet()
	require.NoError(t, set.AddFS(exampleFS(), "extension.yaml"))
	require.NoError(t, set.AddBytes("broken.json", []byte(`{"name": "br:broken", "namespaces": [{"uri": "urn:broken", "prefix": "br"}], "types": [{"name": "br:t", "parent": "br:missing"}]}`), dictionary.FormatJSON))
	require.NoError(t, set.AddBytes("example.yaml", []byte(exampleYAML), dictionary.FormatYAML))

	res, err := set.Compile()
	require.Error(t, err)
	require.NotNil(t, res)

	list, ok := dicterrors.AsCompilations(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"br:broken"}, list.Models())
	assert.True(t, dicterrors.Is(err, dicterrors.ErrUnresolvedReference))
	assert.Len(t, res.Models, 2)
}

func TestModelSetImportCycle(t *testing.T) {
	a := &dictionary.Model{
		Name:       "a:a",
		Imports:    []m2.Namespace{{URI: "urn:b", Prefix: "b"}},
		Namespaces: []m2.Namespace{{URI: "urn:a", Prefix: "a"}},
	}
	b := &dictionary.Model{
		Name:       "b:b",
		Imports:    []m2.Namespace{{URI: "urn:a", Prefix: "a"}},
		Namespaces: []m2.Namespace{{URI: "urn:b", Prefix: "b"}},
	}
	set := dictionary.NewModelSet()
	require.NoError(t, set.AddModel(a))
	require.NoError(t, set.AddModel(b))
	require.NoError(t, set.AddBytes("example.yaml", []byte(exampleYAML), dictionary.FormatYAML))

	res, err := set.Compile()
	require.Error(t, err)
	list, ok := dicterrors.AsCompilations(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"a:a", "b:b"}, list.Models())
	assert.True(t, dicterrors.Is(list[0], dicterrors.ErrCyclicReference))
	require.Len(t, res.Models, 1)
}

func TestModelSetDuplicateModel(t *testing.T) {
	set := dictionary.NewModelSet()
	require.NoError(t, set.AddFS(exampleFS(), "example.yaml"))
	require.NoError(t, set.AddFS(exampleFS(), "example.xml"))

	res, err := set.Compile()
	require.Error(t, err)
	assert.Len(t, res.Models, 1)
	assert.True(t, dicterrors.Is(err, dicterrors.ErrDuplicateDefinition))
}

func TestModelSetWithoutBootstrap(t *testing.T) {
	set := dictionary.NewModelSet(dictionary.NewLoadOptions().WithoutBootstrap(true))
	require.NoError(t, set.AddFS(exampleFS(), "example.yaml"))

	_, err := set.Compile()
	require.Error(t, err)
	assert.True(t, dicterrors.Is(err, dicterrors.ErrUnresolvedReference))
}

func TestModelSetRejectsBadSources(t *testing.T) {
	set := dictionary.NewModelSet()
	assert.Error(t, set.AddFS(nil, "x.yaml"))
	assert.Error(t, set.AddFS(exampleFS(), " "))
	assert.Error(t, set.AddBytes("empty", nil, dictionary.FormatYAML))
	assert.Error(t, set.AddModel(nil))
	assert.Zero(t, set.Len())

	var nilSet *dictionary.ModelSet
	_, err := nilSet.Compile()
	assert.Error(t, err)
}

func TestModelSetDecodeFailure(t *testing.T) {
	set := dictionary.NewModelSet()
	require.NoError(t, set.AddBytes("bad.yaml", []byte("name: [\n"), dictionary.FormatYAML))

	res, err := set.Compile()
	require.Error(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "bad.yaml", res.Failures[0].Model)
	assert.True(t, dicterrors.Is(err, dicterrors.ErrInvalidModel))
}
