package valuecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemagraph/jsonschema/jsonvalue"
)

func TestGetOrInsertScalars(t *testing.T) {
	c := New()

	h1, err := c.GetOrInsert("foo")
	require.NoError(t, err)
	h2, err := c.GetOrInsert("foo")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := c.GetOrInsert("bar")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestGetOrInsertNumbersSemanticEquality(t *testing.T) {
	c := New()

	h1, err := c.GetOrInsert(jsonvalue.Number("2"))
	require.NoError(t, err)
	h2, err := c.GetOrInsert(jsonvalue.Number("2.0"))
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "2 and 2.0 are JSON-equal")

	h3, err := c.GetOrInsert(jsonvalue.Number("2.00001"))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestGetOrInsertCompositeStructural(t *testing.T) {
	c := New()

	a := map[string]any{"x": jsonvalue.Number("1"), "y": []any{"a", "b"}}
	b := map[string]any{"y": []any{"a", "b"}, "x": jsonvalue.Number("1.0")}

	h1, err := c.GetOrInsert(a)
	require.NoError(t, err)
	h2, err := c.GetOrInsert(b)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	v, ok := c.Value(h1)
	require.True(t, ok)
	assert.Equal(t, "1", string(v.(map[string]any)["x"].(jsonvalue.Number)))
}

func TestGetOrInsertSingletons(t *testing.T) {
	c := New()

	n1, _ := c.GetOrInsert(nil)
	n2, _ := c.GetOrInsert(nil)
	assert.Equal(t, n1, n2)

	t1, _ := c.GetOrInsert(true)
	f1, _ := c.GetOrInsert(false)
	assert.NotEqual(t, t1, f1)
	assert.NotEqual(t, t1, n1)
}
