package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindURIAndLookup(t *testing.T) {
	g := New()
	key := g.Allocate(0)
	require.NoError(t, g.BindURI(key, "https://example.com/a"))
	require.NoError(t, g.BindURI(key, "https://example.com/a#/defs/x"))

	got, ok := g.KeyByURI("https://example.com/a#/defs/x")
	require.True(t, ok)
	assert.Equal(t, key, got)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/a#/defs/x"}, g.Schema(key).URIs)
}

func TestBindURIConflict(t *testing.T) {
	g := New()
	a := g.Allocate(0)
	b := g.Allocate(0)
	require.NoError(t, g.BindURI(a, "https://example.com/a"))
	err := g.BindURI(b, "https://example.com/a")
	assert.Error(t, err)
}

func TestAddEdgeAndPatch(t *testing.T) {
	g := New()
	from := g.Allocate(0)
	to := g.Allocate(0)
	require.NoError(t, g.BindURI(to, "https://example.com/b"))

	idx := g.AddEdge(from, EdgeStatic, "$ref", "b", "https://example.com/b")
	require.NoError(t, g.PatchReferences())

	edge := g.Edge(idx)
	assert.Equal(t, to, edge.Target)
	assert.Contains(t, g.Schema(to).ReferencedBy, idx)
}

func TestPatchReferencesUnresolved(t *testing.T) {
	g := New()
	from := g.Allocate(0)
	g.AddEdge(from, EdgeStatic, "$ref", "missing", "https://example.com/missing")

	err := g.PatchReferences()
	assert.Error(t, err)
}

func TestSetEmbeddedInDetectsCycle(t *testing.T) {
	g := New()
	parent := g.Allocate(0)
	child := g.Allocate(0)
	require.NoError(t, g.SetEmbeddedIn(child, parent))

	err := g.SetEmbeddedIn(parent, child)
	assert.Error(t, err)
}

func TestCheckpointRollback(t *testing.T) {
	g := New()
	cp := g.Checkpoint()

	key := g.Allocate(0)
	require.NoError(t, g.BindURI(key, "https://example.com/c"))
	g.AddEdge(key, EdgeStatic, "$ref", "x", "https://example.com/x")

	g.Rollback(cp)

	assert.Equal(t, 0, g.Len())
	_, ok := g.KeyByURI("https://example.com/c")
	assert.False(t, ok)
}
