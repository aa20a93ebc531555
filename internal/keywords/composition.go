package keywords

import (
	"strconv"

	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/uri"
)

// allOfKeyword requires every listed schema to validate, grounded on
// allOf.go. Every branch contributes to this node's validity directly, so
// EvaluateChild's propagation is exactly what's wanted.
type allOfKeyword struct {
	schemas []keyword.SchemaKey
}

func newAllOf() keyword.Keyword { return &allOfKeyword{} }

func (k *allOfKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	items, ok := obj["allOf"].([]any)
	if !ok || len(items) == 0 {
		return false, nil
	}
	schemas := make([]keyword.SchemaKey, len(items))
	for i := range items {
		key, err := ctx.Subschema(uri.Root.Push("allOf").PushIndex(i))
		if err != nil {
			return false, err
		}
		schemas[i] = key
	}
	k.schemas = schemas
	return true, nil
}

func (k *allOfKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	for i, childKey := range k.schemas {
		if _, err := ctx.EvaluateChild(childKey, uri.Root, uri.Root.Push("allOf").PushIndex(i), value); err != nil {
			return err
		}
		adoptChildState(ctx, childKey)
	}
	return nil
}

// anyOfKeyword requires at least one listed schema to validate, grounded on
// anyOf.go. Each branch is tried independently via TryChild so a
// non-matching branch does not by itself fail this node; only the
// aggregate "none matched" check does.
type anyOfKeyword struct {
	schemas []keyword.SchemaKey
}

func newAnyOf() keyword.Keyword { return &anyOfKeyword{} }

func (k *anyOfKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	items, ok := obj["anyOf"].([]any)
	if !ok || len(items) == 0 {
		return false, nil
	}
	schemas := make([]keyword.SchemaKey, len(items))
	for i := range items {
		key, err := ctx.Subschema(uri.Root.Push("anyOf").PushIndex(i))
		if err != nil {
			return false, err
		}
		schemas[i] = key
	}
	k.schemas = schemas
	return true, nil
}

func (k *anyOfKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	matched := false
	for i, childKey := range k.schemas {
		valid, err := ctx.TryChild(childKey, uri.Root, uri.Root.Push("anyOf").PushIndex(i), value)
		if err != nil {
			return err
		}
		if valid {
			matched = true
			adoptChildState(ctx, childKey)
		}
	}
	if !matched {
		ctx.Fail("anyOf", "value does not match any of the anyOf schemas", nil)
	}
	return nil
}

// oneOfKeyword requires exactly one listed schema to validate, grounded on
// oneOf.go.
type oneOfKeyword struct {
	schemas []keyword.SchemaKey
}

func newOneOf() keyword.Keyword { return &oneOfKeyword{} }

func (k *oneOfKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	items, ok := obj["oneOf"].([]any)
	if !ok || len(items) == 0 {
		return false, nil
	}
	schemas := make([]keyword.SchemaKey, len(items))
	for i := range items {
		key, err := ctx.Subschema(uri.Root.Push("oneOf").PushIndex(i))
		if err != nil {
			return false, err
		}
		schemas[i] = key
	}
	k.schemas = schemas
	return true, nil
}

func (k *oneOfKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	var matches []int
	for i, childKey := range k.schemas {
		valid, err := ctx.TryChild(childKey, uri.Root, uri.Root.Push("oneOf").PushIndex(i), value)
		if err != nil {
			return err
		}
		if valid {
			matches = append(matches, i)
		}
	}
	switch len(matches) {
	case 1:
		adoptChildState(ctx, k.schemas[matches[0]])
		return nil
	case 0:
		ctx.Fail("oneOf", "value does not match any of the oneOf schemas", nil)
	default:
		indexes := make([]string, len(matches))
		for i, m := range matches {
			indexes[i] = strconv.Itoa(m)
		}
		ctx.Fail("oneOf", "value matches more than one of the oneOf schemas", map[string]any{"matches": indexes})
	}
	return nil
}

// notKeyword requires the named schema to fail, grounded on not.go.
type notKeyword struct {
	schema keyword.SchemaKey
}

func newNot() keyword.Keyword { return &notKeyword{} }

func (k *notKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	if _, present := obj["not"]; !present {
		return false, nil
	}
	key, err := ctx.Subschema(uri.Root.Push("not"))
	if err != nil {
		return false, err
	}
	k.schema = key
	return true, nil
}

func (k *notKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	valid, err := ctx.TryChild(k.schema, uri.Root, uri.Root.Push("not"), value)
	if err != nil {
		return err
	}
	if valid {
		ctx.Fail("not", "value should not match the not schema", nil)
	}
	return nil
}

// conditionalKeyword implements if/then/else, grounded on conditional.go.
// The if-branch's own pass/fail never appears as a failure of this node by
// itself; it only selects which of then/else (if present) gets applied for
// real, via EvaluateChild.
type conditionalKeyword struct {
	ifSchema   keyword.SchemaKey
	thenSchema keyword.SchemaKey
	elseSchema keyword.SchemaKey
	hasThen    bool
	hasElse    bool
}

func newConditional() keyword.Keyword { return &conditionalKeyword{} }

func (k *conditionalKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	if _, present := obj["if"]; !present {
		return false, nil
	}
	key, err := ctx.Subschema(uri.Root.Push("if"))
	if err != nil {
		return false, err
	}
	k.ifSchema = key
	if _, present := obj["then"]; present {
		key, err := ctx.Subschema(uri.Root.Push("then"))
		if err != nil {
			return false, err
		}
		k.thenSchema, k.hasThen = key, true
	}
	if _, present := obj["else"]; present {
		key, err := ctx.Subschema(uri.Root.Push("else"))
		if err != nil {
			return false, err
		}
		k.elseSchema, k.hasElse = key, true
	}
	return true, nil
}

func (k *conditionalKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	matched, err := ctx.TryChild(k.ifSchema, uri.Root, uri.Root.Push("if"), value)
	if err != nil {
		return err
	}
	if matched {
		if !k.hasThen {
			return nil
		}
		if _, err := ctx.EvaluateChild(k.thenSchema, uri.Root, uri.Root.Push("then"), value); err != nil {
			return err
		}
		adoptChildState(ctx, k.thenSchema)
		return nil
	}
	if !k.hasElse {
		return nil
	}
	if _, err := ctx.EvaluateChild(k.elseSchema, uri.Root, uri.Root.Push("else"), value); err != nil {
		return err
	}
	adoptChildState(ctx, k.elseSchema)
	return nil
}
