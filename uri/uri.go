// Package uri implements the abstract URI contract the engine consumes
// (§6.1): absolute-URI refinement, fragment extraction, relative
// resolution, and a fragment-presence-insensitive equality.
package uri

import (
	"fmt"
	"net/url"
	"strings"
)

// URI is an absolute or relative URI reference.
type URI struct {
	u           *url.URL
	hadFragment bool
}

// Parse parses s into a URI without requiring it to be absolute.
func Parse(s string) (URI, error) {
	u, err := url.Parse(s)
	if err != nil {
		return URI{}, fmt.Errorf("uri: parse %q: %w", s, err)
	}
	return URI{u: u, hadFragment: strings.Contains(s, "#")}, nil
}

// MustParse is Parse, panicking on error. Intended for literals known to
// be well-formed (dialect primary URIs, test fixtures).
func MustParse(s string) URI {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// IsAbsolute reports whether the URI has both a scheme and is not a
// fragment-only reference.
func (r URI) IsAbsolute() bool {
	return r.u != nil && r.u.Scheme != ""
}

// Absolute refines r into an absolute URI, failing if it is not one.
func (r URI) Absolute() (URI, error) {
	if !r.IsAbsolute() {
		return URI{}, fmt.Errorf("uri: %q is not an absolute URI", r.String())
	}
	return r, nil
}

// Fragment returns the URI's fragment, or "" if absent or empty.
func (r URI) Fragment() string {
	if r.u == nil {
		return ""
	}
	return r.u.Fragment
}

// HasFragment reports whether the URI carries a "#" at all, distinct from
// an empty fragment; most callers want Fragment() instead.
func (r URI) HasFragment() bool {
	return r.hadFragment
}

// WithoutFragment returns a copy of r with any fragment removed.
func (r URI) WithoutFragment() URI {
	if r.u == nil {
		return r
	}
	cp := *r.u
	cp.Fragment = ""
	cp.RawFragment = ""
	return URI{u: &cp}
}

// WithFragment returns a copy of r with its fragment replaced.
func (r URI) WithFragment(fragment string) URI {
	cp := *r.u
	cp.Fragment = fragment
	cp.RawFragment = ""
	return URI{u: &cp, hadFragment: true}
}

// ResolveReference resolves ref against r as a base URI, per RFC 3986.
func (r URI) ResolveReference(ref URI) URI {
	if r.u == nil {
		return ref
	}
	resolved := r.u.ResolveReference(ref.u)
	return URI{u: resolved, hadFragment: ref.hadFragment || (resolved.Fragment != "")}
}

// Resolve parses ref and resolves it against r.
func (r URI) Resolve(ref string) (URI, error) {
	parsed, err := Parse(ref)
	if err != nil {
		return URI{}, err
	}
	return r.ResolveReference(parsed), nil
}

// String renders the URI back to its textual form.
func (r URI) String() string {
	if r.u == nil {
		return ""
	}
	return r.u.String()
}

// IsZero reports whether r is the zero value.
func (r URI) IsZero() bool {
	return r.u == nil
}

// Equal compares two URIs ignoring the distinction between an absent
// fragment and an empty one, per the engine's URI contract.
func Equal(a, b URI) bool {
	return a.WithoutFragment().String() == b.WithoutFragment().String() && a.Fragment() == b.Fragment()
}
