package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemagraph/jsonschema/uri"
	"github.com/schemagraph/jsonschema/valuecache"
)

func TestInsertDocumentIdempotent(t *testing.T) {
	s := New(valuecache.New())
	u := uri.MustParse("https://example.com/a")
	value := map[string]any{"type": "object"}

	k1, err := s.InsertDocument(u, value)
	require.NoError(t, err)

	k2, err := s.InsertDocument(u, map[string]any{"type": "object"})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestInsertDocumentConflict(t *testing.T) {
	s := New(valuecache.New())
	u := uri.MustParse("https://example.com/a")
	_, err := s.InsertDocument(u, map[string]any{"type": "object"})
	require.NoError(t, err)

	_, err = s.InsertDocument(u, map[string]any{"type": "string"})
	assert.Error(t, err)
}

func TestLinkAndResolve(t *testing.T) {
	s := New(valuecache.New())
	docURI := uri.MustParse("https://example.com/b")
	dk, err := s.InsertDocument(docURI, map[string]any{
		"$defs": map[string]any{"x": map[string]any{"type": "integer"}},
	})
	require.NoError(t, err)

	p, err := uri.ParsePointer("/$defs/x")
	require.NoError(t, err)

	linkURI := uri.MustParse("https://example.com/b#/$defs/x")
	sk, err := s.Link(linkURI, dk, p, FragmentPointer)
	require.NoError(t, err)

	got, ok := s.SourceByURI(linkURI)
	require.True(t, ok)
	assert.Equal(t, sk, got.Key)

	doc := s.DocumentOf(sk)
	assert.Equal(t, dk, doc.Key)
}

func TestLinkPathNotFound(t *testing.T) {
	s := New(valuecache.New())
	docURI := uri.MustParse("https://example.com/c")
	dk, err := s.InsertDocument(docURI, map[string]any{"type": "integer"})
	require.NoError(t, err)

	p, err := uri.ParsePointer("/missing")
	require.NoError(t, err)

	_, err = s.Link(uri.MustParse("https://example.com/c#/missing"), dk, p, FragmentPointer)
	assert.Error(t, err)
}

func TestCheckpointRollback(t *testing.T) {
	s := New(valuecache.New())
	cp := s.Checkpoint()

	_, err := s.InsertDocument(uri.MustParse("https://example.com/d"), map[string]any{"type": "string"})
	require.NoError(t, err)

	s.Rollback(cp)

	_, ok := s.docByURI["https://example.com/d"]
	assert.False(t, ok)
}
