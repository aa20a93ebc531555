package evaluate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schemagraph/jsonschema/internal/graph"
	"github.com/schemagraph/jsonschema/jsonvalue"
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/numcache"
	"github.com/schemagraph/jsonschema/uri"
	"github.com/schemagraph/jsonschema/valuecache"
)

// typeKeyword fails unless the instance's kind matches want.
type typeKeyword struct{ want jsonvalue.Kind }

func (typeKeyword) Compile(keyword.CompileContext, any) (bool, error) { return true, nil }

func (k typeKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	if jsonvalue.KindOf(value) != k.want {
		ctx.Fail("type", "wrong type", nil)
	}
	return nil
}

// constKeyword annotates the instance with a fixed value and never fails.
type constKeyword struct{ value any }

func (constKeyword) Compile(keyword.CompileContext, any) (bool, error) { return true, nil }

func (k constKeyword) Evaluate(ctx keyword.EvaluateContext, _ any) error {
	ctx.Annotate(k.value)
	return nil
}

// propertiesKeyword recurses into each named child present on the instance.
type propertiesKeyword struct{ children map[string]keyword.SchemaKey }

func (propertiesKeyword) Compile(keyword.CompileContext, any) (bool, error) { return true, nil }

func (k propertiesKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	for name, childKey := range k.children {
		v, present := obj[name]
		if !present {
			continue
		}
		if _, err := ctx.EvaluateChild(childKey, uri.Root.Push(name), uri.Root.Push("properties").Push(name), v); err != nil {
			return err
		}
	}
	return nil
}

// dynamicAnchorKeyword pushes a dynamic anchor binding for the duration of
// this schema's evaluation, standing in for $dynamicAnchor.
type dynamicAnchorKeyword struct {
	name string
	self keyword.SchemaKey
}

func (dynamicAnchorKeyword) Compile(keyword.CompileContext, any) (bool, error) { return true, nil }

func (k dynamicAnchorKeyword) Evaluate(ctx keyword.EvaluateContext, _ any) error {
	ctx.PushDynamicAnchor(k.name, k.self)
	return nil
}

// dynamicRefKeyword recurses into whatever the dynamic-anchor stack
// currently resolves name to, standing in for $dynamicRef.
type dynamicRefKeyword struct{ name string }

func (dynamicRefKeyword) Compile(keyword.CompileContext, any) (bool, error) { return true, nil }

func (k dynamicRefKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	target, ok := ctx.LookupDynamicAnchor(k.name)
	if !ok {
		ctx.Fail("dynamicRef", "unresolved dynamic anchor", nil)
		return nil
	}
	_, err := ctx.EvaluateChild(target, uri.Root, uri.Root, value)
	return err
}

func newGraph() *graph.Graph { return graph.New() }

func TestEvaluateFlagValid(t *testing.T) {
	g := newGraph()
	root := g.Allocate(0)
	require.NoError(t, g.BindURI(root, "https://example.com/root"))
	g.SetKeywords(root, []keyword.Keyword{typeKeyword{want: jsonvalue.KindString}})

	ev := New(g, numcache.New(), valuecache.New(), nil)
	node, valid := ev.Evaluate(root, "hello", Flag)
	assert.True(t, valid)
	assert.True(t, node.Valid)
	assert.Empty(t, node.Annotations)
	assert.Empty(t, node.Errors)
}

func TestEvaluateFlagInvalid(t *testing.T) {
	g := newGraph()
	root := g.Allocate(0)
	require.NoError(t, g.BindURI(root, "https://example.com/root"))
	g.SetKeywords(root, []keyword.Keyword{typeKeyword{want: jsonvalue.KindString}})

	ev := New(g, numcache.New(), valuecache.New(), nil)
	node, valid := ev.Evaluate(root, 5, Flag)
	assert.False(t, valid)
	assert.False(t, node.Valid)
}

func TestEvaluateVerboseTreeShape(t *testing.T) {
	g := newGraph()
	child := g.Allocate(0)
	require.NoError(t, g.BindURI(child, "https://example.com/root#/properties/age"))
	g.SetKeywords(child, []keyword.Keyword{typeKeyword{want: jsonvalue.KindNumber}})

	root := g.Allocate(0)
	require.NoError(t, g.BindURI(root, "https://example.com/root"))
	g.SetKeywords(root, []keyword.Keyword{propertiesKeyword{children: map[string]keyword.SchemaKey{"age": child}}})

	ev := New(g, numcache.New(), valuecache.New(), nil)
	node, valid := ev.Evaluate(root, map[string]any{"age": jsonvalue.Number("30")}, Verbose)
	require.True(t, valid)
	require.Len(t, node.Annotations, 1)
	assert.Equal(t, "/age", node.Annotations[0].InstanceLocation)
	assert.Equal(t, "/properties/age", node.Annotations[0].KeywordLocation)
	assert.Equal(t, "https://example.com/root#/properties/age", node.Annotations[0].AbsoluteKeywordLocation)
}

func TestEvaluateVerboseReportsFailingChild(t *testing.T) {
	g := newGraph()
	child := g.Allocate(0)
	require.NoError(t, g.BindURI(child, "https://example.com/root#/properties/age"))
	g.SetKeywords(child, []keyword.Keyword{typeKeyword{want: jsonvalue.KindNumber}})

	root := g.Allocate(0)
	require.NoError(t, g.BindURI(root, "https://example.com/root"))
	g.SetKeywords(root, []keyword.Keyword{propertiesKeyword{children: map[string]keyword.SchemaKey{"age": child}}})

	ev := New(g, numcache.New(), valuecache.New(), nil)
	node, valid := ev.Evaluate(root, map[string]any{"age": "not a number"}, Verbose)
	require.False(t, valid)
	require.Len(t, node.Errors, 1)
	assert.Equal(t, "/age", node.Errors[0].InstanceLocation)
	assert.NotEmpty(t, node.Errors[0].Error)
}

func TestEvaluateBasicFlattensToLeaves(t *testing.T) {
	g := newGraph()
	childA := g.Allocate(0)
	require.NoError(t, g.BindURI(childA, "https://example.com/root#/properties/a"))
	g.SetKeywords(childA, []keyword.Keyword{typeKeyword{want: jsonvalue.KindString}})

	childB := g.Allocate(0)
	require.NoError(t, g.BindURI(childB, "https://example.com/root#/properties/b"))
	g.SetKeywords(childB, []keyword.Keyword{typeKeyword{want: jsonvalue.KindNumber}})

	root := g.Allocate(0)
	require.NoError(t, g.BindURI(root, "https://example.com/root"))
	g.SetKeywords(root, []keyword.Keyword{propertiesKeyword{children: map[string]keyword.SchemaKey{
		"a": childA,
		"b": childB,
	}}})

	ev := New(g, numcache.New(), valuecache.New(), nil)
	node, valid := ev.Evaluate(root, map[string]any{"a": "x", "b": "not a number"}, Basic)
	require.False(t, valid)
	require.Len(t, node.Annotations, 1)
	require.Len(t, node.Errors, 1)
	assert.Equal(t, "/b", node.Errors[0].InstanceLocation)
}

func TestEvaluateDetailedCollapsesSingleChild(t *testing.T) {
	g := newGraph()
	child := g.Allocate(0)
	require.NoError(t, g.BindURI(child, "https://example.com/root#/properties/age"))
	g.SetKeywords(child, []keyword.Keyword{typeKeyword{want: jsonvalue.KindNumber}})

	root := g.Allocate(0)
	require.NoError(t, g.BindURI(root, "https://example.com/root"))
	g.SetKeywords(root, []keyword.Keyword{propertiesKeyword{children: map[string]keyword.SchemaKey{"age": child}}})

	ev := New(g, numcache.New(), valuecache.New(), nil)
	node, valid := ev.Evaluate(root, map[string]any{"age": "nope"}, Detailed)
	require.False(t, valid)
	assert.Equal(t, "/age", node.InstanceLocation)
	assert.NotEmpty(t, node.Error)
}

func TestEvaluateFlagShortCircuitsFurtherSiblings(t *testing.T) {
	g := newGraph()
	child := g.Allocate(0)
	require.NoError(t, g.BindURI(child, "https://example.com/root#/properties/age"))
	g.SetKeywords(child, []keyword.Keyword{typeKeyword{want: jsonvalue.KindNumber}})

	root := g.Allocate(0)
	require.NoError(t, g.BindURI(root, "https://example.com/root"))
	g.SetKeywords(root, []keyword.Keyword{
		typeKeyword{want: jsonvalue.KindObject},
		propertiesKeyword{children: map[string]keyword.SchemaKey{"age": child}},
	})

	ev := New(g, numcache.New(), valuecache.New(), nil)
	node, valid := ev.Evaluate(root, 5, Flag)
	assert.False(t, valid)
	assert.False(t, node.Valid)
}

func TestEvaluateBooleanSchema(t *testing.T) {
	g := newGraph()
	trueKey := g.Allocate(0)
	require.NoError(t, g.BindURI(trueKey, "https://example.com/true"))
	t1 := true
	g.Schema(trueKey).BoolValue = &t1

	falseKey := g.Allocate(0)
	require.NoError(t, g.BindURI(falseKey, "https://example.com/false"))
	f1 := false
	g.Schema(falseKey).BoolValue = &f1

	ev := New(g, numcache.New(), valuecache.New(), nil)

	_, valid := ev.Evaluate(trueKey, "anything", Flag)
	assert.True(t, valid)

	node, valid := ev.Evaluate(falseKey, "anything", Verbose)
	assert.False(t, valid)
	assert.NotEmpty(t, node.Error)
}

func TestEvaluateAnnotation(t *testing.T) {
	g := newGraph()
	root := g.Allocate(0)
	require.NoError(t, g.BindURI(root, "https://example.com/root"))
	g.SetKeywords(root, []keyword.Keyword{constKeyword{value: "fixed"}})

	ev := New(g, numcache.New(), valuecache.New(), nil)
	node, valid := ev.Evaluate(root, "anything", Verbose)
	require.True(t, valid)
	assert.Equal(t, "fixed", node.Annotation)
}

func TestEvaluateDynamicAnchorOutermostWins(t *testing.T) {
	g := newGraph()

	innerTarget := g.Allocate(0)
	require.NoError(t, g.BindURI(innerTarget, "https://example.com/inner-target"))
	g.SetKeywords(innerTarget, []keyword.Keyword{typeKeyword{want: jsonvalue.KindString}})

	outerTarget := g.Allocate(0)
	require.NoError(t, g.BindURI(outerTarget, "https://example.com/outer-target"))
	g.SetKeywords(outerTarget, []keyword.Keyword{typeKeyword{want: jsonvalue.KindNumber}})

	inner := g.Allocate(0)
	require.NoError(t, g.BindURI(inner, "https://example.com/inner"))
	g.SetKeywords(inner, []keyword.Keyword{
		dynamicAnchorKeyword{name: "item", self: innerTarget},
		dynamicRefKeyword{name: "item"},
	})

	root := g.Allocate(0)
	require.NoError(t, g.BindURI(root, "https://example.com/root"))
	g.SetKeywords(root, []keyword.Keyword{
		dynamicAnchorKeyword{name: "item", self: outerTarget},
		propertiesKeyword{children: map[string]keyword.SchemaKey{"x": inner}},
	})

	ev := New(g, numcache.New(), valuecache.New(), nil)

	node, valid := ev.Evaluate(root, map[string]any{"x": jsonvalue.Number("1")}, Verbose)
	require.True(t, valid, "outer dynamic anchor (number) should win over the inner string one: %+v", node)
}

func TestEvaluateExhaustiveDescriptorDisablesShortCircuit(t *testing.T) {
	g := newGraph()
	child := g.Allocate(0)
	require.NoError(t, g.BindURI(child, "https://example.com/root#/properties/age"))
	g.SetKeywords(child, []keyword.Keyword{typeKeyword{want: jsonvalue.KindNumber}})

	root := g.Allocate(0)
	require.NoError(t, g.BindURI(root, "https://example.com/root"))
	g.SetKeywords(root, []keyword.Keyword{
		typeKeyword{want: jsonvalue.KindObject},
		propertiesKeyword{children: map[string]keyword.SchemaKey{"age": child}},
	})

	descriptors := []keyword.Descriptor{{Kind: "unevaluatedProperties"}}
	ev := New(g, numcache.New(), valuecache.New(), descriptors)

	node, valid := ev.Evaluate(root, map[string]any{"age": "nope"}, Flag)
	assert.False(t, valid)
	assert.False(t, node.Valid)
}
