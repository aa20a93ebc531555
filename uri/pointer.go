package uri

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonpointer"

	"github.com/schemagraph/jsonschema/jsonvalue"
)

// Pointer is a JSON Pointer (RFC 6901): a sequence of unescaped reference
// tokens. Root is the zero value, the pointer to the whole document.
type Pointer struct {
	tokens []string
}

// Root is the pointer to the document root.
var Root = Pointer{}

// ParsePointer parses a "/"-delimited JSON Pointer. An empty string
// parses to Root.
func ParsePointer(s string) (Pointer, error) {
	if s == "" {
		return Root, nil
	}
	if !strings.HasPrefix(s, "/") {
		return Pointer{}, fmt.Errorf("uri: invalid JSON pointer %q: must start with '/'", s)
	}
	return Pointer{tokens: jsonpointer.Parse(s)}, nil
}

// String renders the pointer back to its "/"-delimited, escaped form.
func (p Pointer) String() string {
	if len(p.tokens) == 0 {
		return ""
	}
	return jsonpointer.Format(p.tokens...)
}

// Tokens returns the pointer's unescaped reference tokens.
func (p Pointer) Tokens() []string {
	return append([]string(nil), p.tokens...)
}

// Push returns a new pointer with tok appended.
func (p Pointer) Push(tok string) Pointer {
	next := make([]string, len(p.tokens)+1)
	copy(next, p.tokens)
	next[len(p.tokens)] = tok
	return Pointer{tokens: next}
}

// PushIndex is Push formatting an array index.
func (p Pointer) PushIndex(i int) Pointer {
	return p.Push(strconv.Itoa(i))
}

// Append returns a new pointer addressing other, relative to p.
func (p Pointer) Append(other Pointer) Pointer {
	next := make([]string, 0, len(p.tokens)+len(other.tokens))
	next = append(next, p.tokens...)
	next = append(next, other.tokens...)
	return Pointer{tokens: next}
}

// Pop returns the pointer without its last token, and that token. Popping
// Root returns Root and "".
func (p Pointer) Pop() (Pointer, string) {
	if len(p.tokens) == 0 {
		return p, ""
	}
	last := p.tokens[len(p.tokens)-1]
	return Pointer{tokens: p.tokens[:len(p.tokens)-1]}, last
}

// IsRoot reports whether p addresses the document root.
func (p Pointer) IsRoot() bool {
	return len(p.tokens) == 0
}

// Resolve walks v following the pointer's tokens, failing if any segment
// does not resolve (object key absent, array index out of range, or a
// scalar encountered with tokens remaining).
func (p Pointer) Resolve(v any) (any, error) {
	cur := v
	for i, tok := range p.tokens {
		switch node := cur.(type) {
		case map[string]any:
			next, ok := node[tok]
			if !ok {
				return nil, fmt.Errorf("uri: pointer %q: key %q not found", p.String(), tok)
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("uri: pointer %q: invalid array index %q", p.String(), tok)
			}
			cur = node[idx]
		default:
			return nil, fmt.Errorf("uri: pointer %q: cannot descend into %s at segment %d", p.String(), jsonvalue.KindOf(cur), i)
		}
	}
	return cur, nil
}
