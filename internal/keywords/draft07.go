package keywords

import (
	"math/big"

	"github.com/schemagraph/jsonschema/jsonvalue"
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/uri"
)

// Draft-07 keeps a handful of keyword shapes the 2020-12 vocabulary
// replaced outright: "exclusiveMinimum"/"exclusiveMaximum" are booleans
// modifying "minimum"/"maximum" instead of standing alone, "items" may
// be a single schema or a tuple of schemas (paired with
// "additionalItems"), and "dependencies" merges what 2020-12 split into
// "dependentRequired"/"dependentSchemas". These have no teacher file to
// ground on, since the teacher implements 2020-12 only; they follow the
// Draft-07 specification text directly and reuse this package's existing
// state-sharing conventions (evaluatedIndices, adoptChildState).

// draft07MinimumKeyword is "minimum", optionally made exclusive by a
// sibling boolean "exclusiveMinimum".
type draft07MinimumKeyword struct {
	literal   string
	bound     *big.Rat
	exclusive bool
}

func newDraft07Minimum() keyword.Keyword { return &draft07MinimumKeyword{} }

func (k *draft07MinimumKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	lit, bound, ok, err := compileBound(ctx, node, "minimum")
	if !ok || err != nil {
		return ok, err
	}
	k.literal, k.bound = lit, bound
	if obj, ok := asObject(node); ok {
		k.exclusive, _ = obj["exclusiveMinimum"].(bool)
	}
	return true, nil
}

func (k *draft07MinimumKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	n, ok := value.(jsonvalue.Number)
	if !ok {
		return nil
	}
	r, err := ctx.ParseNumber(string(n))
	if err != nil {
		return err
	}
	cmp := r.Cmp(k.bound)
	if cmp < 0 || (k.exclusive && cmp == 0) {
		ctx.Fail("minimum", "value does not satisfy the minimum bound", map[string]any{"minimum": k.literal, "exclusiveMinimum": k.exclusive})
	}
	return nil
}

// draft07MaximumKeyword is "maximum", optionally made exclusive by a
// sibling boolean "exclusiveMaximum".
type draft07MaximumKeyword struct {
	literal   string
	bound     *big.Rat
	exclusive bool
}

func newDraft07Maximum() keyword.Keyword { return &draft07MaximumKeyword{} }

func (k *draft07MaximumKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	lit, bound, ok, err := compileBound(ctx, node, "maximum")
	if !ok || err != nil {
		return ok, err
	}
	k.literal, k.bound = lit, bound
	if obj, ok := asObject(node); ok {
		k.exclusive, _ = obj["exclusiveMaximum"].(bool)
	}
	return true, nil
}

func (k *draft07MaximumKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	n, ok := value.(jsonvalue.Number)
	if !ok {
		return nil
	}
	r, err := ctx.ParseNumber(string(n))
	if err != nil {
		return err
	}
	cmp := r.Cmp(k.bound)
	if cmp > 0 || (k.exclusive && cmp == 0) {
		ctx.Fail("maximum", "value does not satisfy the maximum bound", map[string]any{"maximum": k.literal, "exclusiveMaximum": k.exclusive})
	}
	return nil
}

// draft07ItemsKeyword implements the pre-2020-12 "items" shape: a single
// schema applied to every element, or a tuple of schemas applied
// positionally with "additionalItems" governing whatever's left over.
type draft07ItemsKeyword struct {
	tuple      []keyword.SchemaKey
	single     keyword.SchemaKey
	hasSingle  bool
	additional keyword.SchemaKey
	hasAdd     bool
}

func newDraft07Items() keyword.Keyword { return &draft07ItemsKeyword{} }

func (k *draft07ItemsKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	raw, present := obj["items"]
	if !present {
		return false, nil
	}
	if v, ok := raw.([]any); ok {
		k.tuple = make([]keyword.SchemaKey, len(v))
		for i := range v {
			key, err := ctx.Subschema(uri.Root.Push("items").PushIndex(i))
			if err != nil {
				return false, err
			}
			k.tuple[i] = key
		}
	} else {
		key, err := ctx.Subschema(uri.Root.Push("items"))
		if err != nil {
			return false, err
		}
		k.single, k.hasSingle = key, true
	}
	if _, present := obj["additionalItems"]; present {
		key, err := ctx.Subschema(uri.Root.Push("additionalItems"))
		if err != nil {
			return false, err
		}
		k.additional, k.hasAdd = key, true
	}
	return true, nil
}

func (k *draft07ItemsKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	if k.hasSingle {
		for i, item := range arr {
			valid, err := ctx.EvaluateChild(k.single, uri.Root.PushIndex(i), uri.Root.Push("items"), item)
			if err != nil {
				return err
			}
			if valid {
				markEvaluatedIndex(ctx, i)
			}
		}
		return nil
	}
	for i, item := range arr {
		if i < len(k.tuple) {
			valid, err := ctx.EvaluateChild(k.tuple[i], uri.Root.PushIndex(i), uri.Root.Push("items").PushIndex(i), item)
			if err != nil {
				return err
			}
			if valid {
				markEvaluatedIndex(ctx, i)
			}
			continue
		}
		if !k.hasAdd {
			break
		}
		valid, err := ctx.EvaluateChild(k.additional, uri.Root.PushIndex(i), uri.Root.Push("additionalItems"), item)
		if err != nil {
			return err
		}
		if valid {
			markEvaluatedIndex(ctx, i)
		}
	}
	return nil
}

// draft07DependenciesKeyword is "dependencies": per property name, either
// an array of required sibling properties (dependentRequired's job) or a
// schema the whole object must satisfy (dependentSchemas' job).
type draft07DependenciesKeyword struct {
	required map[string][]string
	schemas  map[string]keyword.SchemaKey
}

func newDraft07Dependencies() keyword.Keyword {
	return &draft07DependenciesKeyword{required: map[string][]string{}, schemas: map[string]keyword.SchemaKey{}}
}

func (k *draft07DependenciesKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	deps, ok := obj["dependencies"].(map[string]any)
	if !ok || len(deps) == 0 {
		return false, nil
	}
	for name, v := range deps {
		switch dep := v.(type) {
		case []any:
			names := make([]string, 0, len(dep))
			for _, n := range dep {
				if s, ok := n.(string); ok {
					names = append(names, s)
				}
			}
			k.required[name] = names
		default:
			key, err := ctx.Subschema(uri.Root.Push("dependencies").Push(name))
			if err != nil {
				return false, err
			}
			k.schemas[name] = key
		}
	}
	return true, nil
}

func (k *draft07DependenciesKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	for name, deps := range k.required {
		if _, present := obj[name]; !present {
			continue
		}
		for _, req := range deps {
			if _, present := obj[req]; !present {
				ctx.Fail("dependencies", "missing a property required by a dependency", map[string]any{"property": name, "requires": req})
			}
		}
	}
	for name, schemaKey := range k.schemas {
		if _, present := obj[name]; !present {
			continue
		}
		valid, err := ctx.EvaluateChild(schemaKey, uri.Root, uri.Root.Push("dependencies").Push(name), value)
		if err != nil {
			return err
		}
		if valid {
			adoptChildState(ctx, schemaKey)
		}
	}
	return nil
}
