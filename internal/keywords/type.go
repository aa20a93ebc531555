// Package keywords implements the default Draft 2020-12 keyword set
// (spec §4.4): one keyword.Keyword type per JSON Schema keyword, grounded
// on kaptinlin/jsonschema's per-keyword evaluation files but expressed
// against the engine's CompileContext/EvaluateContext contract instead of
// a concrete *Schema walk.
package keywords

import (
	"fmt"
	"strings"

	"github.com/schemagraph/jsonschema/jsonvalue"
	"github.com/schemagraph/jsonschema/keyword"
)

func asObject(node any) (map[string]any, bool) {
	obj, ok := node.(map[string]any)
	return obj, ok
}

// typeKeyword checks the instance's JSON kind against "type", which may
// be a single string or an array of strings. "integer" matches any
// number with a zero fractional part, grounded on type.go's
// number/integer special case.
type typeKeyword struct {
	want []string
}

func newType() keyword.Keyword { return &typeKeyword{} }

func (k *typeKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	switch v := obj["type"].(type) {
	case string:
		k.want = []string{v}
		return true, nil
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		if len(names) == 0 {
			return false, nil
		}
		k.want = names
		return true, nil
	default:
		return false, nil
	}
}

func (k *typeKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	actual := string(jsonvalue.KindOf(value))

	for _, want := range k.want {
		if want == actual {
			return nil
		}
		if want == "integer" && actual == "number" && isWholeNumber(ctx, value) {
			return nil
		}
	}

	ctx.Fail("type", fmt.Sprintf("value is %s but should be %s", actual, strings.Join(k.want, ", ")), map[string]any{
		"expected": k.want,
		"received": actual,
	})
	return nil
}

func isWholeNumber(ctx keyword.EvaluateContext, value any) bool {
	n, ok := value.(jsonvalue.Number)
	if !ok {
		return false
	}
	r, err := ctx.ParseNumber(string(n))
	if err != nil {
		return false
	}
	return r.IsInt()
}
