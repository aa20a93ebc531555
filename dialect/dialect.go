// Package dialect implements the Dialect registry (spec §4.4): the set of
// keyword factories and metaschema URIs that govern how a document is
// scanned and compiled.
package dialect

import (
	"github.com/schemagraph/jsonschema/errs"
	"github.com/schemagraph/jsonschema/jsonvalue"
	"github.com/schemagraph/jsonschema/keyword"
)

// Key is the dense handle to a registered dialect.
type Key int32

// Invalid is the sentinel (-1) for an unresolved Key.
const Invalid Key = -1

// Dialect is {primary URI, secondary URIs, keyword factory list,
// metaschema sources, identifier field name} (spec §3.2).
type Dialect struct {
	Primary         string
	Secondary       []string
	Keywords        []keyword.Descriptor
	MetaschemaURIs  []string
	IdentifierField string
}

// uris returns every URI this dialect is registered under.
func (d Dialect) uris() []string {
	return append([]string{d.Primary}, d.Secondary...)
}

// Identify returns the in-document identifier string for a schema node,
// or "", false if absent.
func (d Dialect) Identify(value any) (string, bool) {
	obj, ok := value.(map[string]any)
	if !ok {
		return "", false
	}
	id, ok := obj[d.IdentifierField]
	if !ok {
		return "", false
	}
	s, ok := id.(string)
	return s, ok
}

// IsRelevantTo reports whether value's $schema field equals one of this
// dialect's URIs.
func (d Dialect) IsRelevantTo(value any) bool {
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}
	declared, ok := obj["$schema"].(string)
	if !ok {
		return false
	}
	for _, u := range d.uris() {
		if u == declared {
			return true
		}
	}
	return false
}

// equal reports whether two dialects describe the same registration,
// used by Insert to make re-registration at an existing URI idempotent.
func (d Dialect) equal(other Dialect) bool {
	if d.Primary != other.Primary || d.IdentifierField != other.IdentifierField {
		return false
	}
	if len(d.Secondary) != len(other.Secondary) || len(d.Keywords) != len(other.Keywords) {
		return false
	}
	for i := range d.Secondary {
		if d.Secondary[i] != other.Secondary[i] {
			return false
		}
	}
	for i := range d.Keywords {
		if d.Keywords[i].Kind != other.Keywords[i].Kind {
			return false
		}
	}
	return jsonvalue.DeepEqual(metaSlice(d.MetaschemaURIs), metaSlice(other.MetaschemaURIs))
}

func metaSlice(s []string) any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// Registry stores dialects in a dense table and indexes them by every
// URI they declare.
type Registry struct {
	dialects []Dialect
	byURI    map[string]Key
	primary  Key
}

// NewRegistry creates an empty registry with no primary dialect set.
func NewRegistry() *Registry {
	return &Registry{byURI: make(map[string]Key), primary: Invalid}
}

// Insert registers d, returning its key. If d is already registered at
// its primary URI with the same secondary URIs, identifier field,
// metaschema URIs and keyword kinds (in order), the existing key is
// returned.
// A distinct dialect claiming an already-used URI is a DuplicateLink.
func (r *Registry) Insert(d Dialect) (Key, error) {
	if existing, ok := r.byURI[d.Primary]; ok {
		if r.dialects[existing].equal(d) {
			return existing, nil
		}
		return Invalid, &errs.DuplicateLink{URI: d.Primary, Existing: existing}
	}
	key := Key(len(r.dialects))
	r.dialects = append(r.dialects, d)
	for _, u := range d.uris() {
		if other, ok := r.byURI[u]; ok && other != key {
			return Invalid, &errs.DuplicateLink{URI: u, Existing: other}
		}
		r.byURI[u] = key
	}
	if r.primary == Invalid {
		r.primary = key
	}
	return key, nil
}

// Get returns the dialect registered under key.
func (r *Registry) Get(key Key) Dialect {
	return r.dialects[key]
}

// KeyByURI looks up a dialect by any of its registered URIs.
func (r *Registry) KeyByURI(u string) (Key, bool) {
	k, ok := r.byURI[u]
	return k, ok
}

// SetPrimary designates key as the dialect used when a schema declares
// no explicit $schema.
func (r *Registry) SetPrimary(key Key) {
	r.primary = key
}

// Primary returns the registry's default dialect. Per invariant I4 this
// always exists once at least one dialect has been inserted.
func (r *Registry) Primary() Key {
	return r.primary
}

// Len reports the number of registered dialects.
func (r *Registry) Len() int {
	return len(r.dialects)
}
