// Package bignum parses JSON number literals into exact rationals.
//
// Parsing runs a small DFA over the literal so that the integer, fraction,
// and exponent spans are known precisely, letting the resulting big.Rat be
// assembled without ever routing the literal through a float64. This
// matters for keywords like minimum/maximum/const/enum, where two numbers
// that round to the same float64 must still compare correctly as exact
// rationals.
package bignum

import (
	"fmt"
	"math/big"
)

// ParseError reports the byte offset in the literal where parsing failed.
type ParseError struct {
	Value string
	Index int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bignum: invalid number %q at byte %d: %s", e.Value, e.Index, e.Msg)
}

type state int

const (
	stateHead state = iota
	stateNegative
	stateInteger
	stateFraction
	stateE
	stateExponent
	stateError
)

var ten = big.NewInt(10)

// Parse parses a decimal literal "[-]?[0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?"
// into an exact *big.Rat.
func Parse(s string) (*big.Rat, error) {
	if s == "" {
		return nil, &ParseError{Value: s, Index: 0, Msg: "empty literal"}
	}

	st := stateHead
	negative := false
	intStart, intEnd := -1, -1
	fracStart, fracEnd := -1, -1
	expNegative := false
	expStart, expEnd := -1, -1

	fail := func(i int, msg string) (*big.Rat, error) {
		return nil, &ParseError{Value: s, Index: i, Msg: msg}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch st {
		case stateHead:
			switch {
			case c == '-':
				negative = true
				st = stateNegative
			case isDigit(c):
				intStart = i
				st = stateInteger
			default:
				return fail(i, "expected '-' or digit")
			}
		case stateNegative:
			if !isDigit(c) {
				return fail(i, "expected digit after '-'")
			}
			intStart = i
			st = stateInteger
		case stateInteger:
			switch {
			case isDigit(c):
				// stay
			case c == '.':
				intEnd = i
				fracStart = i + 1
				st = stateFraction
			case c == 'e' || c == 'E':
				intEnd = i
				st = stateE
			default:
				return fail(i, "expected digit, '.', 'e' or 'E'")
			}
		case stateFraction:
			switch {
			case isDigit(c):
				// stay
			case c == 'e' || c == 'E':
				if i == fracStart {
					return fail(i, "expected digit in fraction")
				}
				fracEnd = i
				st = stateE
			default:
				return fail(i, "expected digit, 'e' or 'E'")
			}
		case stateE:
			switch {
			case c == '+':
				expStart = i + 1
				st = stateExponent
			case c == '-':
				expNegative = true
				expStart = i + 1
				st = stateExponent
			case isDigit(c):
				expStart = i
				st = stateExponent
			default:
				return fail(i, "expected '+', '-' or digit after exponent marker")
			}
		case stateExponent:
			if !isDigit(c) {
				return fail(i, "expected digit in exponent")
			}
			// stay
		}
	}

	switch st {
	case stateInteger:
		intEnd = len(s)
	case stateFraction:
		if fracStart == len(s) {
			return fail(len(s), "expected digit in fraction")
		}
		fracEnd = len(s)
	case stateExponent:
		if expStart == len(s) {
			return fail(len(s), "expected digit in exponent")
		}
		expEnd = len(s)
	case stateE:
		return fail(len(s), "expected exponent digits")
	case stateHead, stateNegative:
		return fail(len(s), "expected digit")
	default:
		return fail(len(s), "unexpected end of literal")
	}

	result := new(big.Rat)
	if intStart >= 0 && intEnd > intStart {
		intPart := new(big.Int)
		if _, ok := intPart.SetString(s[intStart:intEnd], 10); !ok {
			return fail(intStart, "invalid integer span")
		}
		result.SetInt(intPart)
	}

	if fracStart >= 0 && fracEnd > fracStart {
		fracDigits := s[fracStart:fracEnd]
		fracInt := new(big.Int)
		if _, ok := fracInt.SetString(fracDigits, 10); !ok {
			return fail(fracStart, "invalid fraction span")
		}
		denom := new(big.Int).Exp(ten, big.NewInt(int64(len(fracDigits))), nil)
		frac := new(big.Rat).SetFrac(fracInt, denom)
		result.Add(result, frac)
	}

	if negative {
		result.Neg(result)
	}

	if expStart >= 0 && expEnd > expStart {
		expInt := new(big.Int)
		if _, ok := expInt.SetString(s[expStart:expEnd], 10); !ok {
			return fail(expStart, "invalid exponent span")
		}
		if !expInt.IsInt64() {
			return fail(expStart, "exponent too large")
		}
		scale := new(big.Int).Exp(ten, new(big.Int).Abs(expInt), nil)
		scaleRat := new(big.Rat).SetInt(scale)
		if expNegative {
			result.Quo(result, scaleRat)
		} else {
			result.Mul(result, scaleRat)
		}
	}

	return result, nil
}

// ParseInteger parses a literal the same way Parse does, but fails with
// NotAnInteger unless the fractional part is exactly zero.
func ParseInteger(s string) (*big.Int, error) {
	r, err := Parse(s)
	if err != nil {
		return nil, err
	}
	if !r.IsInt() {
		return nil, &ParseError{Value: s, Index: len(s), Msg: "NotAnInteger"}
	}
	return r.Num(), nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
