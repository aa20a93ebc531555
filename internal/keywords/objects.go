package keywords

import (
	"regexp"

	"github.com/schemagraph/jsonschema/anymap"
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/uri"
)

// evaluatedNames records which object property names a sibling properties/
// patternProperties/additionalProperties keyword already validated, read
// back by unevaluatedProperties, grounded on properties.go/
// additionalProperties.go's evaluatedProps map parameter.
type evaluatedNames struct {
	names map[string]bool
}

func markEvaluatedName(ctx keyword.EvaluateContext, name string) {
	state := anymap.GetOrInsert(ctx.State(), func() *evaluatedNames { return &evaluatedNames{names: make(map[string]bool)} })
	state.names[name] = true
}

// propertiesKeyword validates object[name] against the schema declared for
// that name, grounded on properties.go.
type propertiesKeyword struct {
	children map[string]keyword.SchemaKey
}

func newProperties() keyword.Keyword { return &propertiesKeyword{} }

func (k *propertiesKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	props, ok := obj["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		return false, nil
	}
	children := make(map[string]keyword.SchemaKey, len(props))
	for name := range props {
		key, err := ctx.Subschema(uri.Root.Push("properties").Push(name))
		if err != nil {
			return false, err
		}
		children[name] = key
	}
	k.children = children
	return true, nil
}

func (k *propertiesKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	for name, childKey := range k.children {
		v, present := obj[name]
		if !present {
			continue
		}
		valid, err := ctx.EvaluateChild(childKey, uri.Root.Push(name), uri.Root.Push("properties").Push(name), v)
		if err != nil {
			return err
		}
		if valid {
			markEvaluatedName(ctx, name)
		}
	}
	return nil
}

// patternPropertiesKeyword validates every property whose name matches a
// declared regular expression against that pattern's schema, grounded on
// patternProperties.go.
type patternPropertiesKeyword struct {
	patterns []patternSchema
}

type patternSchema struct {
	raw    string
	re     *regexp.Regexp
	schema keyword.SchemaKey
}

func newPatternProperties() keyword.Keyword { return &patternPropertiesKeyword{} }

func (k *patternPropertiesKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	props, ok := obj["patternProperties"].(map[string]any)
	if !ok || len(props) == 0 {
		return false, nil
	}
	patterns := make([]patternSchema, 0, len(props))
	for raw := range props {
		re, err := regexp.Compile(raw)
		if err != nil {
			return false, err
		}
		key, err := ctx.Subschema(uri.Root.Push("patternProperties").Push(raw))
		if err != nil {
			return false, err
		}
		patterns = append(patterns, patternSchema{raw: raw, re: re, schema: key})
	}
	k.patterns = patterns
	return true, nil
}

func (k *patternPropertiesKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	for _, p := range k.patterns {
		for name, v := range obj {
			if !p.re.MatchString(name) {
				continue
			}
			valid, err := ctx.EvaluateChild(p.schema, uri.Root.Push(name), uri.Root.Push("patternProperties").Push(p.raw), v)
			if err != nil {
				return err
			}
			if valid {
				markEvaluatedName(ctx, name)
			}
		}
	}
	return nil
}

// additionalPropertiesKeyword validates every property not already claimed
// by properties or patternProperties, grounded on additionalProperties.go.
// It decides what is claimed from the sibling properties names and
// patternProperties patterns it snapshots at Compile time, not from the
// shared evaluatedNames state.
type additionalPropertiesKeyword struct {
	schema          keyword.SchemaKey
	declaredNames   map[string]bool
	declaredPattern []*regexp.Regexp
}

func newAdditionalProperties() keyword.Keyword { return &additionalPropertiesKeyword{} }

func (k *additionalPropertiesKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	if _, present := obj["additionalProperties"]; !present {
		return false, nil
	}
	key, err := ctx.Subschema(uri.Root.Push("additionalProperties"))
	if err != nil {
		return false, err
	}
	k.schema = key
	if props, ok := obj["properties"].(map[string]any); ok {
		k.declaredNames = make(map[string]bool, len(props))
		for name := range props {
			k.declaredNames[name] = true
		}
	}
	if pp, ok := obj["patternProperties"].(map[string]any); ok {
		k.declaredPattern = make([]*regexp.Regexp, 0, len(pp))
		for raw := range pp {
			if re, err := regexp.Compile(raw); err == nil {
				k.declaredPattern = append(k.declaredPattern, re)
			}
		}
	}
	return true, nil
}

func (k *additionalPropertiesKeyword) claimed(name string) bool {
	if k.declaredNames[name] {
		return true
	}
	for _, re := range k.declaredPattern {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (k *additionalPropertiesKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	for name, v := range obj {
		if k.claimed(name) {
			continue
		}
		valid, err := ctx.EvaluateChild(k.schema, uri.Root.Push(name), uri.Root.Push("additionalProperties"), v)
		if err != nil {
			return err
		}
		if valid {
			markEvaluatedName(ctx, name)
		}
	}
	return nil
}

// propertyNamesKeyword validates every property name itself (as a string
// instance) against a schema, grounded on propertyNames.go.
type propertyNamesKeyword struct {
	schema keyword.SchemaKey
}

func newPropertyNames() keyword.Keyword { return &propertyNamesKeyword{} }

func (k *propertyNamesKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	if _, present := obj["propertyNames"]; !present {
		return false, nil
	}
	key, err := ctx.Subschema(uri.Root.Push("propertyNames"))
	if err != nil {
		return false, err
	}
	k.schema = key
	return true, nil
}

func (k *propertyNamesKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	for name := range obj {
		if _, err := ctx.EvaluateChild(k.schema, uri.Root.Push(name), uri.Root.Push("propertyNames"), name); err != nil {
			return err
		}
	}
	return nil
}

// requiredKeyword fails if any listed property is absent, grounded on
// required.go.
type requiredKeyword struct {
	names []string
}

func newRequired() keyword.Keyword { return &requiredKeyword{} }

func (k *requiredKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	items, ok := obj["required"].([]any)
	if !ok || len(items) == 0 {
		return false, nil
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			names = append(names, s)
		}
	}
	k.names = names
	return true, nil
}

func (k *requiredKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	var missing []string
	for _, name := range k.names {
		if _, present := obj[name]; !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		ctx.Fail("required", "object is missing required properties", map[string]any{"missing": missing})
	}
	return nil
}

// minPropertiesKeyword, grounded on minProperties.go.
type minPropertiesKeyword struct{ min int }

func newMinProperties() keyword.Keyword { return &minPropertiesKeyword{} }

func (k *minPropertiesKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	n, ok := intField(obj["minProperties"])
	if !ok {
		return false, nil
	}
	k.min = n
	return true, nil
}

func (k *minPropertiesKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	if len(obj) < k.min {
		ctx.Fail("minProperties", "object has fewer properties than minProperties", map[string]any{"minProperties": k.min})
	}
	return nil
}

// maxPropertiesKeyword, grounded on maxProperties.go.
type maxPropertiesKeyword struct{ max int }

func newMaxProperties() keyword.Keyword { return &maxPropertiesKeyword{} }

func (k *maxPropertiesKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	n, ok := intField(obj["maxProperties"])
	if !ok {
		return false, nil
	}
	k.max = n
	return true, nil
}

func (k *maxPropertiesKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	if len(obj) > k.max {
		ctx.Fail("maxProperties", "object has more properties than maxProperties", map[string]any{"maxProperties": k.max})
	}
	return nil
}

// dependentRequiredKeyword requires additional properties once a triggering
// property is present, grounded on dependentRequired.go.
type dependentRequiredKeyword struct {
	deps map[string][]string
}

func newDependentRequired() keyword.Keyword { return &dependentRequiredKeyword{} }

func (k *dependentRequiredKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	raw, ok := obj["dependentRequired"].(map[string]any)
	if !ok || len(raw) == 0 {
		return false, nil
	}
	deps := make(map[string][]string, len(raw))
	for trigger, v := range raw {
		items, ok := v.([]any)
		if !ok {
			continue
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok {
				names = append(names, s)
			}
		}
		deps[trigger] = names
	}
	k.deps = deps
	return true, nil
}

func (k *dependentRequiredKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	missingByTrigger := map[string][]string{}
	for trigger, names := range k.deps {
		if _, present := obj[trigger]; !present {
			continue
		}
		var missing []string
		for _, name := range names {
			if _, present := obj[name]; !present {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			missingByTrigger[trigger] = missing
		}
	}
	if len(missingByTrigger) > 0 {
		ctx.Fail("dependentRequired", "dependent properties are missing", map[string]any{"missing": missingByTrigger})
	}
	return nil
}

// dependentSchemasKeyword validates the whole object against an additional
// schema once a triggering property is present, grounded on
// dependentSchemas.go.
type dependentSchemasKeyword struct {
	schemas map[string]keyword.SchemaKey
}

func newDependentSchemas() keyword.Keyword { return &dependentSchemasKeyword{} }

func (k *dependentSchemasKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	raw, ok := obj["dependentSchemas"].(map[string]any)
	if !ok || len(raw) == 0 {
		return false, nil
	}
	schemas := make(map[string]keyword.SchemaKey, len(raw))
	for trigger := range raw {
		key, err := ctx.Subschema(uri.Root.Push("dependentSchemas").Push(trigger))
		if err != nil {
			return false, err
		}
		schemas[trigger] = key
	}
	k.schemas = schemas
	return true, nil
}

func (k *dependentSchemasKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	obj, ok := asObject(value)
	if !ok {
		return nil
	}
	for trigger, childKey := range k.schemas {
		if _, present := obj[trigger]; !present {
			continue
		}
		if _, err := ctx.EvaluateChild(childKey, uri.Root, uri.Root.Push("dependentSchemas").Push(trigger), value); err != nil {
			return err
		}
		adoptChildState(ctx, childKey)
	}
	return nil
}
