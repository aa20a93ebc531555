package numcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrInsertMemoizes(t *testing.T) {
	c := New()

	r1, err := c.GetOrInsert("12.345")
	require.NoError(t, err)
	r2, err := c.GetOrInsert("12.345")
	require.NoError(t, err)

	assert.Same(t, r1, r2)
	assert.Equal(t, 1, c.Len())
}

func TestGetOrInsertError(t *testing.T) {
	_, err := New().GetOrInsert("not-a-number")
	assert.Error(t, err)
}

func TestNewSeeded(t *testing.T) {
	c := NewSeeded([]string{"1", "2", "bad", "3"})
	assert.Equal(t, 3, c.Len())
}
