package keywords

import "github.com/schemagraph/jsonschema/keyword"

// constKeyword matches only one fixed value, grounded on const.go.
type constKeyword struct {
	value any
}

func newConst() keyword.Keyword { return &constKeyword{} }

func (k *constKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	value, present := obj["const"]
	if !present {
		return false, nil
	}
	k.value = value
	return true, nil
}

func (k *constKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	if !deepEqual(k.value, value) {
		ctx.Fail("const", "value does not match the const value", nil)
	}
	return nil
}
