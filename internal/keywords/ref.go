package keywords

import (
	"strings"

	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/uri"
)

func stringField(node any, field string) (string, bool) {
	obj, ok := asObject(node)
	if !ok {
		return "", false
	}
	s, ok := obj[field].(string)
	return s, ok
}

// refDescriptor's Reference hook, shared by $ref/$dynamicRef so the
// scanner resolves and schedules both the same way (spec treats an
// unresolvable $dynamicRef target as the same class of error as an
// unresolvable $ref, since the dynamic lookup falls back to it).
func refFound(field string, dynamic bool) func(node any) (keyword.Found, bool) {
	return func(node any) (keyword.Found, bool) {
		raw, ok := stringField(node, field)
		if !ok {
			return keyword.Found{}, false
		}
		return keyword.Found{Kind: keyword.FoundReference, At: uri.Root, Raw: raw, Dynamic: dynamic}, true
	}
}

// refKeyword resolves "$ref" once at compile time, grounded on ref.go's
// resolveRef but delegating the actual resolution work to the graph scan
// that already ran by the time Compile executes.
type refKeyword struct {
	schema keyword.SchemaKey
}

func newRef() keyword.Keyword { return &refKeyword{} }

func (k *refKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	raw, ok := stringField(node, "$ref")
	if !ok {
		return false, nil
	}
	target, err := ctx.BaseURI().Resolve(raw)
	if err != nil {
		return false, err
	}
	key, err := ctx.Schema(target)
	if err != nil {
		return false, err
	}
	k.schema = key
	return true, nil
}

func (k *refKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	if _, err := ctx.EvaluateChild(k.schema, uri.Root, uri.Root, value); err != nil {
		return err
	}
	adoptChildState(ctx, k.schema)
	return nil
}

// dynamicAnchorName extracts the plain anchor name from a $dynamicRef
// value. The grammar restricts "$dynamicRef" to a bare fragment ("#name")
// for the dynamic-scope lookup to apply at all; anything else (a full URI,
// a JSON pointer fragment) is resolved exactly like "$ref" instead.
func dynamicAnchorName(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "#") {
		return "", false
	}
	name := raw[1:]
	if name == "" || strings.HasPrefix(name, "/") {
		return "", false
	}
	return name, true
}

// dynamicRefKeyword resolves "$dynamicRef" against the live dynamic-anchor
// stack at evaluation time (spec §4.7.2), falling back to the statically
// resolved target (the same schema $ref would have bound to) when no
// matching dynamic anchor is on the stack, grounded on ref.go's
// resolveRef/resolveAnchor but adapted to the engine's dynamic-scope
// model instead of a mutable schema tree.
type dynamicRefKeyword struct {
	name       string
	isDynamic  bool
	staticNext keyword.SchemaKey
}

func newDynamicRef() keyword.Keyword { return &dynamicRefKeyword{} }

func (k *dynamicRefKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	raw, ok := stringField(node, "$dynamicRef")
	if !ok {
		return false, nil
	}
	target, err := ctx.BaseURI().Resolve(raw)
	if err != nil {
		return false, err
	}
	key, err := ctx.Schema(target)
	if err != nil {
		return false, err
	}
	k.staticNext = key
	if name, ok := dynamicAnchorName(raw); ok {
		k.name, k.isDynamic = name, true
	}
	return true, nil
}

func (k *dynamicRefKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	target := k.staticNext
	if k.isDynamic {
		if resolved, ok := ctx.LookupDynamicAnchor(k.name); ok {
			target = resolved
		}
	}
	if _, err := ctx.EvaluateChild(target, uri.Root, uri.Root, value); err != nil {
		return err
	}
	adoptChildState(ctx, target)
	return nil
}

// dynamicAnchorKeyword makes this schema discoverable by name on the
// dynamic-anchor stack for the rest of this schema's own evaluation (the
// binding goes into the frame evaluateSchema pushed for it), grounded on
// the spec's $dynamicAnchor semantics (§4.7.2).
type dynamicAnchorKeyword struct {
	name string
}

func newDynamicAnchor() keyword.Keyword { return &dynamicAnchorKeyword{} }

func (k *dynamicAnchorKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	name, ok := stringField(node, "$dynamicAnchor")
	if !ok {
		return false, nil
	}
	k.name = name
	return true, nil
}

func (k *dynamicAnchorKeyword) Evaluate(ctx keyword.EvaluateContext, _ any) error {
	ctx.PushDynamicAnchor(k.name, ctx.Self())
	return nil
}

// anchorKeyword is scan-time only: "$anchor" binds a plain-name URI during
// scanning (via its Descriptor.Anchor hook) and contributes no per-instance
// evaluation behavior of its own.
type anchorKeyword struct{}

func newAnchor() keyword.Keyword { return &anchorKeyword{} }

func (k *anchorKeyword) Compile(_ keyword.CompileContext, _ any) (bool, error) { return false, nil }
func (k *anchorKeyword) Evaluate(_ keyword.EvaluateContext, _ any) error       { return nil }
