package anymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type evaluatedProps struct {
	names map[string]bool
}

type evaluatedItems struct {
	indices map[int]bool
}

func TestSetGet(t *testing.T) {
	m := New()

	_, ok := Get[*evaluatedProps](m)
	assert.False(t, ok)

	Set(m, &evaluatedProps{names: map[string]bool{"a": true}})
	got, ok := Get[*evaluatedProps](m)
	assert.True(t, ok)
	assert.True(t, got.names["a"])

	// A distinct type does not collide.
	_, ok = Get[*evaluatedItems](m)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestGetOrInsert(t *testing.T) {
	m := New()
	got := GetOrInsert(m, func() *evaluatedItems { return &evaluatedItems{indices: map[int]bool{}} })
	got.indices[0] = true

	again := GetOrInsert(m, func() *evaluatedItems { return &evaluatedItems{indices: map[int]bool{9: true}} })
	assert.Same(t, got, again)
	assert.True(t, again.indices[0])
}

func TestDelete(t *testing.T) {
	m := New()
	Set(m, &evaluatedProps{})
	Delete[*evaluatedProps](m)
	_, ok := Get[*evaluatedProps](m)
	assert.False(t, ok)
}
