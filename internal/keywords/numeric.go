package keywords

import (
	"math/big"

	"github.com/schemagraph/jsonschema/jsonvalue"
	"github.com/schemagraph/jsonschema/keyword"
)

func compileBound(ctx keyword.CompileContext, node any, field string) (string, *big.Rat, bool, error) {
	obj, ok := asObject(node)
	if !ok {
		return "", nil, false, nil
	}
	n, ok := obj[field].(jsonvalue.Number)
	if !ok {
		return "", nil, false, nil
	}
	r, err := ctx.Numbers().GetOrInsert(string(n))
	if err != nil {
		return "", nil, false, err
	}
	return string(n), r, true, nil
}

// minimumKeyword fails unless the instance is >= minimum, grounded on
// minimum.go but comparing exact rationals instead of float64.
type minimumKeyword struct {
	literal string
	bound   *big.Rat
}

func newMinimum() keyword.Keyword { return &minimumKeyword{} }

func (k *minimumKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	lit, bound, ok, err := compileBound(ctx, node, "minimum")
	k.literal, k.bound = lit, bound
	return ok, err
}

func (k *minimumKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	n, ok := value.(jsonvalue.Number)
	if !ok {
		return nil
	}
	r, err := ctx.ParseNumber(string(n))
	if err != nil {
		return err
	}
	if r.Cmp(k.bound) < 0 {
		ctx.Fail("minimum", "value is less than the minimum", map[string]any{"minimum": k.literal})
	}
	return nil
}

// maximumKeyword fails unless the instance is <= maximum, grounded on
// maximum.go.
type maximumKeyword struct {
	literal string
	bound   *big.Rat
}

func newMaximum() keyword.Keyword { return &maximumKeyword{} }

func (k *maximumKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	lit, bound, ok, err := compileBound(ctx, node, "maximum")
	k.literal, k.bound = lit, bound
	return ok, err
}

func (k *maximumKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	n, ok := value.(jsonvalue.Number)
	if !ok {
		return nil
	}
	r, err := ctx.ParseNumber(string(n))
	if err != nil {
		return err
	}
	if r.Cmp(k.bound) > 0 {
		ctx.Fail("maximum", "value is greater than the maximum", map[string]any{"maximum": k.literal})
	}
	return nil
}

// exclusiveMinimumKeyword fails unless the instance is strictly greater
// than exclusiveMinimum, grounded on exclusiveMinimum.go.
type exclusiveMinimumKeyword struct {
	literal string
	bound   *big.Rat
}

func newExclusiveMinimum() keyword.Keyword { return &exclusiveMinimumKeyword{} }

func (k *exclusiveMinimumKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	lit, bound, ok, err := compileBound(ctx, node, "exclusiveMinimum")
	k.literal, k.bound = lit, bound
	return ok, err
}

func (k *exclusiveMinimumKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	n, ok := value.(jsonvalue.Number)
	if !ok {
		return nil
	}
	r, err := ctx.ParseNumber(string(n))
	if err != nil {
		return err
	}
	if r.Cmp(k.bound) <= 0 {
		ctx.Fail("exclusiveMinimum", "value must be strictly greater than the exclusive minimum", map[string]any{"exclusiveMinimum": k.literal})
	}
	return nil
}

// exclusiveMaximumKeyword fails unless the instance is strictly less than
// exclusiveMaximum, grounded on exclusiveMaximum.go.
type exclusiveMaximumKeyword struct {
	literal string
	bound   *big.Rat
}

func newExclusiveMaximum() keyword.Keyword { return &exclusiveMaximumKeyword{} }

func (k *exclusiveMaximumKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	lit, bound, ok, err := compileBound(ctx, node, "exclusiveMaximum")
	k.literal, k.bound = lit, bound
	return ok, err
}

func (k *exclusiveMaximumKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	n, ok := value.(jsonvalue.Number)
	if !ok {
		return nil
	}
	r, err := ctx.ParseNumber(string(n))
	if err != nil {
		return err
	}
	if r.Cmp(k.bound) >= 0 {
		ctx.Fail("exclusiveMaximum", "value must be strictly less than the exclusive maximum", map[string]any{"exclusiveMaximum": k.literal})
	}
	return nil
}

// multipleOfKeyword checks n/divisor is an integer, computed exactly via
// big.Rat rather than a float64 remainder, grounded on multipleOf.go.
type multipleOfKeyword struct {
	literal string
	divisor *big.Rat
}

func newMultipleOf() keyword.Keyword { return &multipleOfKeyword{} }

func (k *multipleOfKeyword) Compile(ctx keyword.CompileContext, node any) (bool, error) {
	lit, bound, ok, err := compileBound(ctx, node, "multipleOf")
	k.literal, k.divisor = lit, bound
	return ok, err
}

func (k *multipleOfKeyword) Evaluate(ctx keyword.EvaluateContext, value any) error {
	n, ok := value.(jsonvalue.Number)
	if !ok {
		return nil
	}
	r, err := ctx.ParseNumber(string(n))
	if err != nil {
		return err
	}
	if k.divisor.Sign() == 0 {
		return nil
	}
	quotient := new(big.Rat).Quo(r, k.divisor)
	if !quotient.IsInt() {
		ctx.Fail("multipleOf", "value is not a multiple of the given divisor", map[string]any{"multipleOf": k.literal})
	}
	return nil
}
