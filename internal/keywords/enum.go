package keywords

import "github.com/schemagraph/jsonschema/keyword"

// enumKeyword matches if the instance equals any one of a fixed set of
// values, grounded on enum.go.
type enumKeyword struct {
	values []any
}

func newEnum() keyword.Keyword { return &enumKeyword{} }

func (k *enumKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	values, ok := obj["enum"].([]any)
	if !ok {
		return false, nil
	}
	k.values = values
	return true, nil
}

func (k *enumKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	for _, want := range k.values {
		if deepEqual(want, value) {
			return nil
		}
	}
	ctx.Fail("enum", "value should match one of the values specified by the enum", nil)
	return nil
}
