package keywords

import (
	"regexp"
	"unicode/utf8"

	"github.com/schemagraph/jsonschema/keyword"
)

// minLengthKeyword counts runes rather than bytes, grounded on
// minlength.go.
type minLengthKeyword struct{ min int }

func newMinLength() keyword.Keyword { return &minLengthKeyword{} }

func (k *minLengthKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	n, ok := intField(obj["minLength"])
	if !ok {
		return false, nil
	}
	k.min = n
	return true, nil
}

func (k *minLengthKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if utf8.RuneCountInString(s) < k.min {
		ctx.Fail("minLength", "string is shorter than minLength", map[string]any{"minLength": k.min})
	}
	return nil
}

// maxLengthKeyword counts runes rather than bytes, grounded on
// maxlength.go.
type maxLengthKeyword struct{ max int }

func newMaxLength() keyword.Keyword { return &maxLengthKeyword{} }

func (k *maxLengthKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	n, ok := intField(obj["maxLength"])
	if !ok {
		return false, nil
	}
	k.max = n
	return true, nil
}

func (k *maxLengthKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if utf8.RuneCountInString(s) > k.max {
		ctx.Fail("maxLength", "string is longer than maxLength", map[string]any{"maxLength": k.max})
	}
	return nil
}

// patternKeyword compiles its regular expression once at Compile time
// instead of lazily memoizing it on first evaluation, grounded on
// pattern.go's getCompiledPattern cache but moved earlier since the
// engine already has a dedicated compile phase to do it in.
type patternKeyword struct {
	raw string
	re  *regexp.Regexp
}

func newPattern() keyword.Keyword { return &patternKeyword{} }

func (k *patternKeyword) Compile(_ keyword.CompileContext, node any) (bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return false, nil
	}
	raw, ok := obj["pattern"].(string)
	if !ok {
		return false, nil
	}
	re, err := regexp.Compile(raw)
	if err != nil {
		return false, err
	}
	k.raw, k.re = raw, re
	return true, nil
}

func (k *patternKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	s, ok := value.(string)
	if !ok {
		return nil
	}
	if !k.re.MatchString(s) {
		ctx.Fail("pattern", "value does not match the required pattern", map[string]any{"pattern": k.raw})
	}
	return nil
}
