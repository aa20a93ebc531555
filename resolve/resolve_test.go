package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticResolve(t *testing.T) {
	s := Static{"https://example.com/a": map[string]any{"type": "string"}}
	v, err := s.Resolve(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"type": "string"}, v)
}

func TestStaticResolveMissing(t *testing.T) {
	s := Static{}
	_, err := s.Resolve(context.Background(), "https://example.com/missing")
	assert.Error(t, err)
}

func TestChainFallsThrough(t *testing.T) {
	first := ResolverFunc(func(_ context.Context, _ string) (any, error) {
		return nil, assert.AnError
	})
	second := Static{"https://example.com/a": "ok"}
	c := Chain{first, second}

	v, err := c.Resolve(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestBySchemeDispatch(t *testing.T) {
	b := NewByScheme()
	b.Register("mem", Static{"mem://a": "value"})

	v, err := b.Resolve(context.Background(), "mem://a")
	require.NoError(t, err)
	assert.Equal(t, "value", v)
}

func TestBySchemeUnknownScheme(t *testing.T) {
	b := NewByScheme()
	_, err := b.Resolve(context.Background(), "ftp://example.com/a")
	assert.Error(t, err)
}
