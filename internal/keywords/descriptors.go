package keywords

import (
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/uri"
)

func subschemasOf(node any, field string) []uri.Pointer {
	obj, ok := asObject(node)
	if !ok {
		return nil
	}
	switch v := obj[field].(type) {
	case []any:
		out := make([]uri.Pointer, len(v))
		for i := range v {
			out[i] = uri.Root.Push(field).PushIndex(i)
		}
		return out
	case map[string]any:
		switch field {
		case "properties", "patternProperties", "dependentSchemas", "$defs":
			out := make([]uri.Pointer, 0, len(v))
			for name := range v {
				out = append(out, uri.Root.Push(field).Push(name))
			}
			return out
		}
	}
	if _, present := obj[field]; present {
		return []uri.Pointer{uri.Root.Push(field)}
	}
	return nil
}

func anchorFound(field string) func(node any) (keyword.Found, bool) {
	return func(node any) (keyword.Found, bool) {
		name, ok := stringField(node, field)
		if !ok {
			return keyword.Found{}, false
		}
		return keyword.Found{Kind: keyword.FoundAnchor, At: uri.Root, Raw: name}, true
	}
}

// Descriptors assembles the full Draft 2020-12 keyword vocabulary this
// package implements, in the order a dialect should register them: every
// keyword that an "unevaluated*" keyword reads the shared per-schema
// evaluated-names/evaluated-indices state from runs earlier in this list,
// since the evaluator runs a schema's keywords in declaration order.
func Descriptors() []keyword.Descriptor {
	return []keyword.Descriptor{
		{Kind: "$anchor", Anchor: anchorFound("$anchor"), New: newAnchor},
		{Kind: "$dynamicAnchor", Anchor: anchorFound("$dynamicAnchor"), New: newDynamicAnchor},
		// $defs only needs its entries scanned; newAnchor's keyword never activates.
		{Kind: "$defs", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "$defs") }, New: newAnchor},

		{Kind: "type", New: newType},
		{Kind: "enum", New: newEnum},
		{Kind: "const", New: newConst},

		{Kind: "minimum", New: newMinimum},
		{Kind: "maximum", New: newMaximum},
		{Kind: "exclusiveMinimum", New: newExclusiveMinimum},
		{Kind: "exclusiveMaximum", New: newExclusiveMaximum},
		{Kind: "multipleOf", New: newMultipleOf},

		{Kind: "minLength", New: newMinLength},
		{Kind: "maxLength", New: newMaxLength},
		{Kind: "pattern", New: newPattern},
		{Kind: "format", New: newFormat},

		{Kind: "prefixItems", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "prefixItems") }, New: newPrefixItems},
		{Kind: "items", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "items") }, New: newItems},
		{Kind: "contains", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "contains") }, New: newContains},
		{Kind: "minItems", New: newMinItems},
		{Kind: "maxItems", New: newMaxItems},
		{Kind: "uniqueItems", New: newUniqueItems},

		{Kind: "properties", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "properties") }, New: newProperties},
		{Kind: "patternProperties", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "patternProperties") }, New: newPatternProperties},
		{Kind: "additionalProperties", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "additionalProperties") }, New: newAdditionalProperties},
		{Kind: "propertyNames", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "propertyNames") }, New: newPropertyNames},
		{Kind: "required", New: newRequired},
		{Kind: "minProperties", New: newMinProperties},
		{Kind: "maxProperties", New: newMaxProperties},
		{Kind: "dependentRequired", New: newDependentRequired},
		{Kind: "dependentSchemas", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "dependentSchemas") }, New: newDependentSchemas},

		{Kind: "allOf", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "allOf") }, New: newAllOf},
		{Kind: "anyOf", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "anyOf") }, New: newAnyOf},
		{Kind: "oneOf", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "oneOf") }, New: newOneOf},
		{Kind: "not", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "not") }, New: newNot},
		{Kind: "if", Subschemas: conditionalSubschemas, New: newConditional},

		{Kind: "$ref", Reference: refFound("$ref", false), New: newRef},
		{Kind: "$dynamicRef", Reference: refFound("$dynamicRef", true), New: newDynamicRef},

		{Kind: "unevaluatedProperties", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "unevaluatedProperties") }, New: newUnevaluatedProperties},
		{Kind: "unevaluatedItems", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "unevaluatedItems") }, New: newUnevaluatedItems},
	}
}

func conditionalSubschemas(node any) []uri.Pointer {
	var out []uri.Pointer
	for _, field := range []string{"if", "then", "else"} {
		out = append(out, subschemasOf(node, field)...)
	}
	return out
}

func itemsSubschemas07(node any) []uri.Pointer {
	out := subschemasOf(node, "items")
	return append(out, subschemasOf(node, "additionalItems")...)
}

func dependenciesSubschemas07(node any) []uri.Pointer {
	obj, ok := asObject(node)
	if !ok {
		return nil
	}
	deps, ok := obj["dependencies"].(map[string]any)
	if !ok {
		return nil
	}
	var out []uri.Pointer
	for name, v := range deps {
		if _, isArray := v.([]any); isArray {
			continue
		}
		out = append(out, uri.Root.Push("dependencies").Push(name))
	}
	return out
}

// Descriptors07 assembles the Draft-07 keyword vocabulary, sharing every
// keyword whose semantics are unchanged from 2020-12 and substituting
// this package's draft07.go adapters for the keyword shapes that draft
// actually changed: boolean exclusiveMinimum/exclusiveMaximum,
// tuple-or-schema "items" with "additionalItems", and merged
// "dependencies". Draft-07 has no "$dynamicRef"/"$dynamicAnchor",
// "prefixItems", "unevaluatedProperties", or "unevaluatedItems" — none
// of those keywords exist in its vocabulary table.
func Descriptors07() []keyword.Descriptor {
	return []keyword.Descriptor{
		{Kind: "$anchor", Anchor: anchorFound("$anchor"), New: newAnchor},

		{Kind: "type", New: newType},
		{Kind: "enum", New: newEnum},
		{Kind: "const", New: newConst},

		{Kind: "minimum", New: newDraft07Minimum},
		{Kind: "maximum", New: newDraft07Maximum},
		{Kind: "multipleOf", New: newMultipleOf},

		{Kind: "minLength", New: newMinLength},
		{Kind: "maxLength", New: newMaxLength},
		{Kind: "pattern", New: newPattern},
		{Kind: "format", New: newFormat},

		{Kind: "items", Subschemas: itemsSubschemas07, New: newDraft07Items},
		{Kind: "contains", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "contains") }, New: newContains},
		{Kind: "minItems", New: newMinItems},
		{Kind: "maxItems", New: newMaxItems},
		{Kind: "uniqueItems", New: newUniqueItems},

		{Kind: "properties", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "properties") }, New: newProperties},
		{Kind: "patternProperties", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "patternProperties") }, New: newPatternProperties},
		{Kind: "additionalProperties", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "additionalProperties") }, New: newAdditionalProperties},
		{Kind: "propertyNames", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "propertyNames") }, New: newPropertyNames},
		{Kind: "required", New: newRequired},
		{Kind: "minProperties", New: newMinProperties},
		{Kind: "maxProperties", New: newMaxProperties},
		{Kind: "dependencies", Subschemas: dependenciesSubschemas07, New: newDraft07Dependencies},

		{Kind: "allOf", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "allOf") }, New: newAllOf},
		{Kind: "anyOf", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "anyOf") }, New: newAnyOf},
		{Kind: "oneOf", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "oneOf") }, New: newOneOf},
		{Kind: "not", Subschemas: func(n any) []uri.Pointer { return subschemasOf(n, "not") }, New: newNot},

		{Kind: "$ref", Reference: refFound("$ref", false), New: newRef},
	}
}
