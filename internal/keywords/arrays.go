package keywords

import (
	"github.com/schemagraph/jsonschema/anymap"
	"github.com/schemagraph/jsonschema/jsonvalue"
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/uri"
)

// evaluatedIndices records which array indices a sibling items/prefixItems/
// contains keyword already validated, read back by unevaluatedItems
// (spec §4.7.1), grounded on items.go/prefixItems.go's evaluatedItems map
// parameter.
type evaluatedIndices struct {
	indices map[int]bool
}

func markEvaluatedIndex(ctx keyword.EvaluateContext, i int) {
	state := anymap.GetOrInsert(ctx.State(), func() *evaluatedIndices { return &evaluatedIndices{indices: make(map[int]bool)} })
	state.indices[i] = true
}

// prefixItemsKeyword validates array[i] against the schema at the same
// position, grounded on prefixItems.go.
type prefixItemsKeyword struct {
	schemas []keyword.SchemaKey
}

func newPrefixItems() keyword.Keyword { return &prefixItemsKeyword{} }

func (k *prefixItemsKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	items, ok := obj["prefixItems"].([]any)
	if !ok || len(items) == 0 {
		return false, nil
	}
	schemas := make([]keyword.SchemaKey, len(items))
	for i := range items {
		key, err := ctx.Subschema(uri.Root.Push("prefixItems").PushIndex(i))
		if err != nil {
			return false, err
		}
		schemas[i] = key
	}
	k.schemas = schemas
	return true, nil
}

func (k *prefixItemsKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	for i, childKey := range k.schemas {
		if i >= len(arr) {
			break
		}
		valid, err := ctx.EvaluateChild(childKey, uri.Root.PushIndex(i), uri.Root.Push("prefixItems").PushIndex(i), arr[i])
		if err != nil {
			return err
		}
		if valid {
			markEvaluatedIndex(ctx, i)
		}
	}
	return nil
}

// itemsKeyword validates every array element at or past the prefixItems
// boundary against a single schema, grounded on items.go.
type itemsKeyword struct {
	schema keyword.SchemaKey
	start  int
}

func newItems() keyword.Keyword { return &itemsKeyword{} }

func (k *itemsKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	if _, present := obj["items"]; !present {
		return false, nil
	}
	key, err := ctx.Subschema(uri.Root.Push("items"))
	if err != nil {
		return false, err
	}
	k.schema = key
	if prefix, ok := obj["prefixItems"].([]any); ok {
		k.start = len(prefix)
	}
	return true, nil
}

func (k *itemsKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	for i := k.start; i < len(arr); i++ {
		valid, err := ctx.EvaluateChild(k.schema, uri.Root.PushIndex(i), uri.Root.Push("items"), arr[i])
		if err != nil {
			return err
		}
		if valid {
			markEvaluatedIndex(ctx, i)
		}
	}
	return nil
}

// containsKeyword requires at least one element (subject to minContains/
// maxContains) to validate against "contains".
type containsKeyword struct {
	schema      keyword.SchemaKey
	minContains int
	maxContains int
	hasMax      bool
}

func newContains() keyword.Keyword { return &containsKeyword{minContains: 1} }

func (k *containsKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	if _, present := obj["contains"]; !present {
		return false, nil
	}
	key, err := ctx.Subschema(uri.Root.Push("contains"))
	if err != nil {
		return false, err
	}
	k.schema = key
	if n, ok := intField(obj["minContains"]); ok {
		k.minContains = n
	}
	if n, ok := intField(obj["maxContains"]); ok {
		k.maxContains, k.hasMax = n, true
	}
	return true, nil
}

func (k *containsKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	matched := 0
	for i, item := range arr {
		valid, err := ctx.TryChild(k.schema, uri.Root.PushIndex(i), uri.Root.Push("contains"), item)
		if err != nil {
			return err
		}
		if valid {
			matched++
			markEvaluatedIndex(ctx, i)
		}
	}
	if matched < k.minContains {
		ctx.Fail("contains", "too few matching items for contains", map[string]any{"minContains": k.minContains, "matched": matched})
	}
	if k.hasMax && matched > k.maxContains {
		ctx.Fail("contains", "too many matching items for contains", map[string]any{"maxContains": k.maxContains, "matched": matched})
	}
	return nil
}

// minItemsKeyword, grounded on minItems.go.
type minItemsKeyword struct{ min int }

func newMinItems() keyword.Keyword { return &minItemsKeyword{} }

func (k *minItemsKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	n, ok := intField(obj["minItems"])
	if !ok {
		return false, nil
	}
	k.min = n
	return true, nil
}

func (k *minItemsKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	if len(arr) < k.min {
		ctx.Fail("minItems", "array has fewer items than minItems", map[string]any{"minItems": k.min})
	}
	return nil
}

// maxItemsKeyword, grounded on maxItems.go.
type maxItemsKeyword struct{ max int }

func newMaxItems() keyword.Keyword { return &maxItemsKeyword{} }

func (k *maxItemsKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	n, ok := intField(obj["maxItems"])
	if !ok {
		return false, nil
	}
	k.max = n
	return true, nil
}

func (k *maxItemsKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	if len(arr) > k.max {
		ctx.Fail("maxItems", "array has more items than maxItems", map[string]any{"maxItems": k.max})
	}
	return nil
}

// uniqueItemsKeyword compares elements with jsonvalue.DeepEqual, grounded
// on uniqueItems.go's normalization approach but simplified: the engine's
// decoded value tree is always one of six JSON kinds, so no reflection
// fallback is needed.
type uniqueItemsKeyword struct{ enabled bool }

func newUniqueItems() keyword.Keyword { return &uniqueItemsKeyword{} }

func (k *uniqueItemsKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	enabled, ok := obj["uniqueItems"].(bool)
	if !ok || !enabled {
		return false, nil
	}
	k.enabled = true
	return true, nil
}

func (k *uniqueItemsKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	arr, ok := value.([]any)
	if !ok {
		return nil
	}
	var duplicates []int
	for i := 1; i < len(arr); i++ {
		for j := 0; j < i; j++ {
			if jsonvalue.DeepEqual(arr[i], arr[j]) {
				duplicates = append(duplicates, i)
				break
			}
		}
	}
	if len(duplicates) > 0 {
		ctx.Fail("uniqueItems", "array elements are not unique", map[string]any{"duplicates": duplicates})
	}
	return nil
}
