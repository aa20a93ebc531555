// Package numcache memoizes parsed rationals keyed by their literal text,
// so that repeated numeric literals (minimum/maximum/enum entries across
// many schemas) are parsed once.
//
// Mutation is not safe for concurrent use; the engine confines writes to
// the currently active compile or evaluation context, as specified.
package numcache

import (
	"math/big"

	"github.com/schemagraph/jsonschema/internal/bignum"
)

// Cache maps a literal's text to its parsed rational.
type Cache struct {
	byText map[string]*big.Rat
}

// New creates an empty cache.
func New() *Cache {
	return &Cache{byText: make(map[string]*big.Rat)}
}

// NewSeeded creates a cache pre-populated from an iterator of literals,
// parsing each eagerly. A malformed literal is skipped rather than
// aborting the whole seed, since seed sources are typically literals
// already known-good from a prior successful compile.
func NewSeeded(literals []string) *Cache {
	c := New()
	for _, lit := range literals {
		if _, err := c.GetOrInsert(lit); err != nil {
			continue
		}
	}
	return c
}

// GetOrInsert returns the rational for text, parsing and caching it on
// first use. P4: GetOrInsert(n).String() is stable across repeated calls
// for the same literal n.
func (c *Cache) GetOrInsert(text string) (*big.Rat, error) {
	if r, ok := c.byText[text]; ok {
		return r, nil
	}
	r, err := bignum.Parse(text)
	if err != nil {
		return nil, err
	}
	c.byText[text] = r
	return r, nil
}

// Len reports the number of distinct literals memoized.
func (c *Cache) Len() int {
	return len(c.byText)
}
