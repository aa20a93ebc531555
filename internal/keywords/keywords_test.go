package keywords_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemagraph/jsonschema/dialect"
	"github.com/schemagraph/jsonschema/internal/compile"
	"github.com/schemagraph/jsonschema/internal/evaluate"
	"github.com/schemagraph/jsonschema/internal/graph"
	"github.com/schemagraph/jsonschema/internal/keywords"
	"github.com/schemagraph/jsonschema/internal/source"
	"github.com/schemagraph/jsonschema/jsonvalue"
	"github.com/schemagraph/jsonschema/numcache"
	"github.com/schemagraph/jsonschema/resolve"
	"github.com/schemagraph/jsonschema/uri"
	"github.com/schemagraph/jsonschema/valuecache"
)

// num builds a jsonvalue.Number instance, the wire representation every
// numeric-comparing keyword expects both in a schema document and in the
// instance under evaluation.
func num(s string) jsonvalue.Number { return jsonvalue.Number(s) }

func testDialect() dialect.Dialect {
	return dialect.Dialect{
		Primary:         "https://example.com/dialect",
		IdentifierField: "$id",
		Keywords:        keywords.Descriptors(),
	}
}

// harness compiles docs under a single dialect and evaluates root against
// value, returning the Verbose report and its top-level validity.
type harness struct {
	t *testing.T
	c *compile.Compiler
}

func newHarness(t *testing.T, docs resolve.Static) *harness {
	t.Helper()
	dialects := dialect.NewRegistry()
	_, err := dialects.Insert(testDialect())
	require.NoError(t, err)
	c := compile.New(graph.New(), source.New(valuecache.New()), dialects, numcache.New(), valuecache.New(), docs)
	return &harness{t: t, c: c}
}

func (h *harness) evaluate(root string, value any) (*evaluate.Node, bool) {
	h.t.Helper()
	keys, err := h.c.Compile(context.Background(), []uri.URI{uri.MustParse(root)})
	require.NoError(h.t, err)
	require.Len(h.t, keys, 1)
	ev := evaluate.New(h.c.Graph, h.c.Numbers, h.c.Values, keywords.Descriptors())
	return ev.Evaluate(keys[0], value, evaluate.Verbose)
}

func TestTypeKeyword(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{"type": "integer"},
	})

	_, valid := h.evaluate("https://example.com/s.json", num("3"))
	assert.True(t, valid)

	_, valid = h.evaluate("https://example.com/s.json", num("3.5"))
	assert.False(t, valid)

	_, valid = h.evaluate("https://example.com/s.json", "not a number")
	assert.False(t, valid)
}

func TestEnumKeyword(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{"enum": []any{"red", "green", "blue"}},
	})

	_, valid := h.evaluate("https://example.com/s.json", "green")
	assert.True(t, valid)

	_, valid = h.evaluate("https://example.com/s.json", "purple")
	assert.False(t, valid)
}

func TestNumericBounds(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{
			"minimum":          num("0"),
			"maximum":          num("10"),
			"exclusiveMinimum": num("0"),
			"multipleOf":       num("2"),
		},
	})

	_, valid := h.evaluate("https://example.com/s.json", num("4"))
	assert.True(t, valid)

	_, valid = h.evaluate("https://example.com/s.json", num("0"))
	assert.False(t, valid, "exclusiveMinimum should reject the boundary")

	_, valid = h.evaluate("https://example.com/s.json", num("3"))
	assert.False(t, valid, "3 is not a multiple of 2")

	_, valid = h.evaluate("https://example.com/s.json", num("12"))
	assert.False(t, valid, "12 exceeds maximum")
}

func TestMultipleOfExactRational(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{"multipleOf": num("0.1")},
	})

	// 0.3 is not exactly representable in float64 as a multiple of 0.1,
	// but big.Rat comparison treats it as one.
	_, valid := h.evaluate("https://example.com/s.json", num("0.3"))
	assert.True(t, valid)
}

func TestStringConstraints(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{
			"minLength": num("2"),
			"maxLength": num("5"),
			"pattern":   "^[a-z]+$",
		},
	})

	_, valid := h.evaluate("https://example.com/s.json", "abc")
	assert.True(t, valid)

	_, valid = h.evaluate("https://example.com/s.json", "a")
	assert.False(t, valid)

	_, valid = h.evaluate("https://example.com/s.json", "ABCDEF")
	assert.False(t, valid)
}

func TestArrayKeywords(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{
			"prefixItems": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "integer"},
			},
			"items":       map[string]any{"type": "boolean"},
			"minItems":    num("2"),
			"uniqueItems": true,
		},
	})

	_, valid := h.evaluate("https://example.com/s.json", []any{"x", num("1"), true, false})
	assert.True(t, valid)

	_, valid = h.evaluate("https://example.com/s.json", []any{"x", num("1"), true, true})
	assert.False(t, valid, "uniqueItems should reject the duplicate trailing booleans")

	_, valid = h.evaluate("https://example.com/s.json", []any{"x"})
	assert.False(t, valid, "minItems should reject a single-element array")
}

func TestContainsMinMax(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{
			"contains":    map[string]any{"type": "integer"},
			"minContains": num("2"),
			"maxContains": num("3"),
		},
	})

	_, valid := h.evaluate("https://example.com/s.json", []any{num("1"), "x", num("2")})
	assert.True(t, valid, "two integers among other elements should satisfy minContains=2")

	_, valid = h.evaluate("https://example.com/s.json", []any{num("1"), "x", "y"})
	assert.False(t, valid, "only one matching element is below minContains=2")

	_, valid = h.evaluate("https://example.com/s.json", []any{num("1"), num("2"), num("3"), num("4")})
	assert.False(t, valid, "four matching elements exceed maxContains=3")
}

func TestObjectKeywords(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{
			"properties": map[string]any{
				"name": map[string]any{"type": "string"},
			},
			"patternProperties": map[string]any{
				"^x-": map[string]any{"type": "boolean"},
			},
			"additionalProperties": false,
			"required":             []any{"name"},
			"minProperties":        num("1"),
		},
	})

	_, valid := h.evaluate("https://example.com/s.json", map[string]any{"name": "ok", "x-flag": true})
	assert.True(t, valid)

	_, valid = h.evaluate("https://example.com/s.json", map[string]any{"name": "ok", "extra": "nope"})
	assert.False(t, valid, "additionalProperties:false should reject the unclaimed property")

	_, valid = h.evaluate("https://example.com/s.json", map[string]any{"x-flag": true})
	assert.False(t, valid, "required should reject the missing name property")
}

func TestDependentRequiredAndSchemas(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{
			"dependentRequired": map[string]any{
				"creditCard": []any{"billingAddress"},
			},
			"dependentSchemas": map[string]any{
				"creditCard": map[string]any{
					"properties": map[string]any{
						"creditCard": map[string]any{"minLength": num("16")},
					},
				},
			},
		},
	})

	_, valid := h.evaluate("https://example.com/s.json", map[string]any{
		"creditCard":     "1234567890123456",
		"billingAddress": "221B Baker St",
	})
	assert.True(t, valid)

	_, valid = h.evaluate("https://example.com/s.json", map[string]any{"creditCard": "1234567890123456"})
	assert.False(t, valid, "dependentRequired should reject a missing billingAddress")

	_, valid = h.evaluate("https://example.com/s.json", map[string]any{
		"creditCard":     "123",
		"billingAddress": "221B Baker St",
	})
	assert.False(t, valid, "dependentSchemas should reject a too-short creditCard")
}

func TestComposition(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/allof.json": map[string]any{
			"allOf": []any{
				map[string]any{"minLength": num("2")},
				map[string]any{"maxLength": num("5")},
			},
		},
		"https://example.com/anyof.json": map[string]any{
			"anyOf": []any{
				map[string]any{"type": "string"},
				map[string]any{"type": "integer"},
			},
		},
		"https://example.com/oneof.json": map[string]any{
			"oneOf": []any{
				map[string]any{"multipleOf": num("2")},
				map[string]any{"multipleOf": num("3")},
			},
		},
		"https://example.com/not.json": map[string]any{
			"not": map[string]any{"type": "string"},
		},
		"https://example.com/conditional.json": map[string]any{
			"if":   map[string]any{"properties": map[string]any{"kind": map[string]any{"const": "circle"}}},
			"then": map[string]any{"required": []any{"radius"}},
			"else": map[string]any{"required": []any{"width", "height"}},
		},
	})

	_, valid := h.evaluate("https://example.com/allof.json", "abc")
	assert.True(t, valid)
	_, valid = h.evaluate("https://example.com/allof.json", "a")
	assert.False(t, valid)

	_, valid = h.evaluate("https://example.com/anyof.json", num("3"))
	assert.True(t, valid)
	_, valid = h.evaluate("https://example.com/anyof.json", true)
	assert.False(t, valid)

	_, valid = h.evaluate("https://example.com/oneof.json", num("6"))
	assert.False(t, valid, "6 is a multiple of both 2 and 3, violating oneOf's exactly-one rule")
	_, valid = h.evaluate("https://example.com/oneof.json", num("4"))
	assert.True(t, valid)

	_, valid = h.evaluate("https://example.com/not.json", num("1"))
	assert.True(t, valid)
	_, valid = h.evaluate("https://example.com/not.json", "nope")
	assert.False(t, valid)

	_, valid = h.evaluate("https://example.com/conditional.json", map[string]any{"kind": "circle", "radius": num("1")})
	assert.True(t, valid)
	_, valid = h.evaluate("https://example.com/conditional.json", map[string]any{"kind": "circle"})
	assert.False(t, valid, "the then-branch requires radius")
	_, valid = h.evaluate("https://example.com/conditional.json", map[string]any{"kind": "square", "width": num("1"), "height": num("1")})
	assert.True(t, valid)
}

func TestUnevaluatedPropertiesSeesAdoptedState(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{
			"allOf": []any{
				map[string]any{"properties": map[string]any{"name": map[string]any{"type": "string"}}},
			},
			"properties":            map[string]any{"age": map[string]any{"type": "integer"}},
			"unevaluatedProperties": false,
		},
	})

	_, valid := h.evaluate("https://example.com/s.json", map[string]any{"name": "ok", "age": num("1")})
	assert.True(t, valid, "name is evaluated via allOf's nested properties, which unevaluatedProperties should adopt")

	_, valid = h.evaluate("https://example.com/s.json", map[string]any{"name": "ok", "age": num("1"), "extra": true})
	assert.False(t, valid, "extra is claimed by nothing, so unevaluatedProperties:false should reject it")
}

func TestUnevaluatedItems(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{
			"prefixItems":       []any{map[string]any{"type": "string"}},
			"unevaluatedItems": false,
		},
	})

	_, valid := h.evaluate("https://example.com/s.json", []any{"x"})
	assert.True(t, valid)

	_, valid = h.evaluate("https://example.com/s.json", []any{"x", num("1")})
	assert.False(t, valid, "the second element is not covered by prefixItems")
}

func TestRefAndDynamicRef(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/ref.json": map[string]any{
			"properties": map[string]any{
				"value": map[string]any{"$ref": "#/$defs/positive"},
			},
			"$defs": map[string]any{
				"positive": map[string]any{"exclusiveMinimum": num("0")},
			},
		},
		"https://example.com/dynamic.json": map[string]any{
			"$id":           "https://example.com/dynamic.json",
			"$dynamicAnchor": "item",
			"type":          []any{"object", "string"},
			"properties": map[string]any{
				"list": map[string]any{
					"items": map[string]any{"$dynamicRef": "#item"},
				},
			},
		},
	})

	_, valid := h.evaluate("https://example.com/ref.json", map[string]any{"value": num("5")})
	assert.True(t, valid)
	_, valid = h.evaluate("https://example.com/ref.json", map[string]any{"value": num("-1")})
	assert.False(t, valid)

	_, valid = h.evaluate("https://example.com/dynamic.json", map[string]any{"list": []any{"a", "b"}})
	assert.True(t, valid)
	_, valid = h.evaluate("https://example.com/dynamic.json", map[string]any{"list": []any{"a", num("1")}})
	assert.False(t, valid)
}

func TestFormatIsNonAsserting(t *testing.T) {
	h := newHarness(t, resolve.Static{
		"https://example.com/s.json": map[string]any{"format": "email"},
	})

	node, valid := h.evaluate("https://example.com/s.json", "not-an-email")
	assert.True(t, valid, "format must annotate, never fail, regardless of match")
	require.NotNil(t, node.Annotation)
	assert.Contains(t, fmt.Sprintf("%+v", node.Annotation), "false", "the annotation should record that the format did not match")
}

