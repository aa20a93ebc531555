package compile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemagraph/jsonschema/dialect"
	"github.com/schemagraph/jsonschema/internal/graph"
	"github.com/schemagraph/jsonschema/internal/source"
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/numcache"
	"github.com/schemagraph/jsonschema/resolve"
	"github.com/schemagraph/jsonschema/uri"
	"github.com/schemagraph/jsonschema/valuecache"
)

// presenceKeyword is active exactly when its field is present; it
// stands in for keywords this package doesn't need to exercise their own
// compiled state for (e.g. "$ref", which the tests inspect via graph
// edges instead).
type presenceKeyword struct{ field string }

func (k presenceKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := node.(map[string]any)
	if !ok {
		return false, nil
	}
	_, present := obj[k.field]
	return present, nil
}
func (presenceKeyword) Evaluate(keyword.EvaluateContext, any) error { return nil }

// typeKeyword records the declared "type" string, if any.
type typeKeyword struct{ want string }

func (k *typeKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := node.(map[string]any)
	if !ok {
		return false, nil
	}
	t, ok := obj["type"].(string)
	if !ok {
		return false, nil
	}
	k.want = t
	return true, nil
}
func (k *typeKeyword) Evaluate(keyword.EvaluateContext, any) error { return nil }

func testDialect() dialect.Dialect {
	return dialect.Dialect{
		Primary:         "https://example.com/dialect",
		IdentifierField: "$id",
		Keywords: []keyword.Descriptor{
			{
				Kind: "type",
				New:  func() keyword.Keyword { return &typeKeyword{} },
			},
			{
				Kind: "$ref",
				Reference: func(node any) (keyword.Found, bool) {
					obj, ok := node.(map[string]any)
					if !ok {
						return keyword.Found{}, false
					}
					raw, ok := obj["$ref"].(string)
					if !ok {
						return keyword.Found{}, false
					}
					return keyword.Found{Kind: keyword.FoundReference, At: uri.Root, Raw: raw}, true
				},
				New: func() keyword.Keyword { return presenceKeyword{field: "$ref"} },
			},
			{
				Kind: "properties",
				Subschemas: func(node any) []uri.Pointer {
					obj, ok := node.(map[string]any)
					if !ok {
						return nil
					}
					props, ok := obj["properties"].(map[string]any)
					if !ok {
						return nil
					}
					out := make([]uri.Pointer, 0, len(props))
					for name := range props {
						out = append(out, uri.Root.Push("properties").Push(name))
					}
					return out
				},
				New: func() keyword.Keyword { return presenceKeyword{field: "properties"} },
			},
		},
	}
}

func newTestCompiler(t *testing.T, docs resolve.Static) *Compiler {
	t.Helper()
	dialects := dialect.NewRegistry()
	_, err := dialects.Insert(testDialect())
	require.NoError(t, err)
	return New(graph.New(), source.New(valuecache.New()), dialects, numcache.New(), valuecache.New(), docs)
}

func TestCompileSimpleSchema(t *testing.T) {
	c := newTestCompiler(t, resolve.Static{
		"https://example.com/schema.json": map[string]any{"type": "string"},
	})

	keys, err := c.Compile(context.Background(), []uri.URI{uri.MustParse("https://example.com/schema.json")})
	require.NoError(t, err)
	require.Len(t, keys, 1)

	sch := c.Graph.Schema(keys[0])
	require.Len(t, sch.Keywords, 1)
	tk, ok := sch.Keywords[0].(*typeKeyword)
	require.True(t, ok)
	assert.Equal(t, "string", tk.want)
}

func TestCompileWithReference(t *testing.T) {
	c := newTestCompiler(t, resolve.Static{
		"https://example.com/a.json": map[string]any{"$ref": "https://example.com/b.json"},
		"https://example.com/b.json": map[string]any{"type": "integer"},
	})

	keys, err := c.Compile(context.Background(), []uri.URI{uri.MustParse("https://example.com/a.json")})
	require.NoError(t, err)

	a := c.Graph.Schema(keys[0])
	require.Len(t, a.References, 1)

	edge := c.Graph.Edge(a.References[0])
	require.True(t, edge.TargetKnown)

	target := c.Graph.Schema(edge.Target)
	require.Len(t, target.Keywords, 1)
	tk, ok := target.Keywords[0].(*typeKeyword)
	require.True(t, ok)
	assert.Equal(t, "integer", tk.want)
}

func TestCompileEmbeddedSubschema(t *testing.T) {
	c := newTestCompiler(t, resolve.Static{
		"https://example.com/root.json": map[string]any{
			"properties": map[string]any{
				"x": map[string]any{"type": "number"},
			},
		},
	})

	keys, err := c.Compile(context.Background(), []uri.URI{uri.MustParse("https://example.com/root.json")})
	require.NoError(t, err)

	root := c.Graph.Schema(keys[0])
	require.Len(t, root.Embedded, 1)

	child := c.Graph.Schema(root.Embedded[0])
	assert.Equal(t, keys[0], child.EmbeddedIn)
	require.Len(t, child.Keywords, 1)
	tk, ok := child.Keywords[0].(*typeKeyword)
	require.True(t, ok)
	assert.Equal(t, "number", tk.want)
}

func TestCompileRollsBackOnUnresolvedReference(t *testing.T) {
	c := newTestCompiler(t, resolve.Static{
		"https://example.com/a.json": map[string]any{"$ref": "https://example.com/missing.json"},
	})

	_, err := c.Compile(context.Background(), []uri.URI{uri.MustParse("https://example.com/a.json")})
	assert.Error(t, err)
	assert.Equal(t, 0, c.Graph.Len())
}

func TestCompileIsIdempotentAcrossCalls(t *testing.T) {
	c := newTestCompiler(t, resolve.Static{
		"https://example.com/schema.json": map[string]any{"type": "string"},
	})

	first, err := c.Compile(context.Background(), []uri.URI{uri.MustParse("https://example.com/schema.json")})
	require.NoError(t, err)
	second, err := c.Compile(context.Background(), []uri.URI{uri.MustParse("https://example.com/schema.json")})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompileBooleanSchema(t *testing.T) {
	c := newTestCompiler(t, resolve.Static{
		"https://example.com/schema.json": true,
	})

	keys, err := c.Compile(context.Background(), []uri.URI{uri.MustParse("https://example.com/schema.json")})
	require.NoError(t, err)

	sch := c.Graph.Schema(keys[0])
	require.NotNil(t, sch.BoolValue)
	assert.True(t, *sch.BoolValue)
}
