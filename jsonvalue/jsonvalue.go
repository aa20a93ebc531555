// Package jsonvalue decodes JSON documents into the generic tree shape
// (nil, bool, Number, string, []any, map[string]any) used throughout the
// engine, preserving each number's original literal text rather than
// rounding it through float64.
package jsonvalue

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/schemagraph/jsonschema/internal/bignum"
)

// Number is a JSON number literal kept in its original textual form, the
// same representation kaptinlin/jsonschema's utils.go type-switches on.
type Number = json.Number

// Decode parses data into the engine's generic value tree.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Kind classifies a decoded value for dispatch and error messages.
type Kind string

const (
	KindNull    Kind = "null"
	KindBoolean Kind = "boolean"
	KindNumber  Kind = "number"
	KindString  Kind = "string"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
)

// KindOf reports the JSON Schema type name of a decoded value.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBoolean
	case Number:
		return KindNumber
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindString
	}
}

// DeepEqual reports whether two decoded values are JSON-equal: numbers
// compare by numeric value, not literal text; object key order is
// irrelevant.
func DeepEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case Number:
		bv, ok := b.(Number)
		if !ok {
			return false
		}
		return numbersEqual(av, bv)
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !DeepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			other, exists := bv[k]
			if !exists || !DeepEqual(v, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func numbersEqual(a, b Number) bool {
	if a == b {
		return true
	}
	ar, aerr := bignum.Parse(string(a))
	br, berr := bignum.Parse(string(b))
	if aerr != nil || berr != nil {
		return false
	}
	return ar.Cmp(br) == 0
}
