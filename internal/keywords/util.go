package keywords

import (
	"strconv"

	"github.com/schemagraph/jsonschema/anymap"
	"github.com/schemagraph/jsonschema/jsonvalue"
	"github.com/schemagraph/jsonschema/keyword"
)

func deepEqual(a, b any) bool {
	return jsonvalue.DeepEqual(a, b)
}

// adoptChildState copies a schema's evaluated-names/evaluated-indices marks
// into the calling keyword's own state. In-place applicators (allOf, a
// matching anyOf/oneOf branch, an applied then/else, a triggered
// dependentSchemas branch, $ref) call this after evaluating child, since
// the child validated the same instance value the applicator did: anything
// it marked evaluated counts as evaluated at this level too.
func adoptChildState(ctx keyword.EvaluateContext, child keyword.SchemaKey) {
	childState := ctx.ChildState(child)
	if en, ok := anymap.Get[*evaluatedNames](childState); ok {
		for name := range en.names {
			markEvaluatedName(ctx, name)
		}
	}
	if ei, ok := anymap.Get[*evaluatedIndices](childState); ok {
		for i := range ei.indices {
			markEvaluatedIndex(ctx, i)
		}
	}
}

// intField reads a non-negative size-constraint keyword value (minLength,
// maxItems, and similar), which the grammar requires to be an integer
// literal.
func intField(v any) (int, bool) {
	n, ok := v.(jsonvalue.Number)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(string(n))
	if err != nil {
		return 0, false
	}
	return i, true
}
