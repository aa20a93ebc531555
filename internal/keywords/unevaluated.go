package keywords

import (
	"github.com/schemagraph/jsonschema/anymap"
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/uri"
)

// unevaluatedPropertiesKeyword validates every object property not already
// marked evaluated by properties/patternProperties/additionalProperties
// (or an in-place applicator's adopted marks) against a schema, grounded
// on unevaluatedProperties.go. It must be evaluated after those keywords
// within the same schema object for its State() read to see their marks;
// the compile pass installs keywords in the dialect's descriptor order and
// the evaluator runs them in that order, so a dialect is expected to order unevaluatedProperties last, same as the source
// document's JSON Schema Draft 2020-12 keyword vocabulary table.
type unevaluatedPropertiesKeyword struct {
	schema keyword.SchemaKey
}

func newUnevaluatedProperties() keyword.Keyword { return &unevaluatedPropertiesKeyword{} }

func (k *unevaluatedPropertiesKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	if _, present := obj["unevaluatedProperties"]; !present {
		return false, nil
	}
	key, err := ctx.Subschema(uri.Root.Push("unevaluatedProperties"))
	if err != nil {
		return false, err
	}
	k.schema = key
	return true, nil
}

func (k *unevaluatedPropertiesKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	evaluated, _ := anymap.Get[*evaluatedNames](ctx.State())
	for name, v := range obj {
		if evaluated != nil && evaluated.names[name] {
			continue
		}
		valid, err := ctx.EvaluateChild(k.schema, uri.Root.Push(name), uri.Root.Push("unevaluatedProperties"), v)
		if err != nil {
			return err
		}
		if valid {
			markEvaluatedName(ctx, name)
		}
	}
	return nil
}

// unevaluatedItemsKeyword validates every array element whose index is not
// already marked evaluated by items/prefixItems/contains (or adopted from
// an in-place applicator), grounded on unevaluatedItems.go. Ordering
// applies the same way as unevaluatedPropertiesKeyword.
type unevaluatedItemsKeyword struct {
	schema keyword.SchemaKey
}

func newUnevaluatedItems() keyword.Keyword { return &unevaluatedItemsKeyword{} }

func (k *unevaluatedItemsKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	if _, present := obj["unevaluatedItems"]; !present {
		return false, nil
	}
	key, err := ctx.Subschema(uri.Root.Push("unevaluatedItems"))
	if err != nil {
		return false, err
	}
	k.schema = key
	return true, nil
}

func (k *unevaluatedItemsKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	evaluated, _ := anymap.Get[*evaluatedIndices](ctx.State())
	for i, item := range arr {
		if evaluated != nil && evaluated.indices[i] {
			continue
		}
		valid, err := ctx.EvaluateChild(k.schema, uri.Root.PushIndex(i), uri.Root.Push("unevaluatedItems"), item)
		if err != nil {
			return err
		}
		if valid {
			markEvaluatedIndex(ctx, i)
		}
	}
	return nil
}
