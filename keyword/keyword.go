// Package keyword defines the plugin surface consumed by the Compiler and
// Evaluator (spec §4.6). A concrete JSON Schema keyword (type, properties,
// $ref, ...) is registered with a Dialect as a Descriptor; everything
// outside this package treats it as opaque.
package keyword

import (
	"math/big"

	"github.com/schemagraph/jsonschema/anymap"
	"github.com/schemagraph/jsonschema/numcache"
	"github.com/schemagraph/jsonschema/uri"
	"github.com/schemagraph/jsonschema/valuecache"
)

// SchemaKey is the opaque, dense, copyable handle the Schema graph assigns
// to a compiled schema. It is defined here, rather than in the graph
// package, because it is part of the Keyword contract external keyword
// authors depend on without needing to import the graph's internals.
type SchemaKey int32

// Invalid is the sentinel (-1) for an unresolved SchemaKey.
const Invalid SchemaKey = -1

// FoundKind classifies a scan-time discovery.
type FoundKind uint8

const (
	// FoundReference is an outgoing $ref-like dependency.
	FoundReference FoundKind = iota
	// FoundAnchor is a plain-name alias declared at this node.
	FoundAnchor
)

// Found describes a reference or anchor discovered while scanning a node.
type Found struct {
	Kind FoundKind
	// At is the pointer, relative to the node being scanned, where the
	// discovery was made (usually Root for a keyword naming itself, e.g.
	// "$ref" or "$anchor").
	At uri.Pointer
	// Raw is the textual URI (for a reference) or anchor name (for an
	// anchor), exactly as it appeared in the document.
	Raw string
	// Dynamic marks a $dynamicRef-style reference (anchor discoveries
	// never set it), which
	// the evaluator re-resolves against the dynamic-anchor stack instead
	// of binding once at compile time.
	Dynamic bool
}

// CompileContext is the capability surface available to a Keyword's
// Compile hook (§4.6): the Source store is reachable only indirectly,
// through Schema/Subschema lookups, since a keyword never needs raw
// document bytes once scanning has produced a node.
type CompileContext interface {
	// Self is the key being compiled.
	Self() SchemaKey
	// BaseURI is the effective base URI of the node being compiled.
	BaseURI() uri.URI
	// Schema resolves an absolute URI to a key already present in the
	// sandboxed graph. It only looks the URI up: a URI that no scan has
	// bound yields a SchemaNotFound error.
	Schema(u uri.URI) (SchemaKey, error)
	// Subschema resolves a pointer relative to the node being compiled
	// to the key of the (already scanned) child schema at that pointer.
	Subschema(p uri.Pointer) (SchemaKey, error)
	// Numbers is the engine's number cache, mutable during compile.
	Numbers() *numcache.Cache
	// Values is the engine's value cache, mutable during compile.
	Values() *valuecache.Cache
}

// EvaluateContext is the capability surface available to a Keyword's
// Evaluate hook (§4.6).
type EvaluateContext interface {
	// Self is the key currently being evaluated.
	Self() SchemaKey
	// InstanceLocation is the JSON pointer, within the root instance,
	// of the value currently being evaluated.
	InstanceLocation() uri.Pointer
	// KeywordLocation is the JSON pointer, within the traversed schema
	// (including $ref hops), of the keyword currently executing.
	KeywordLocation() uri.Pointer
	// Numbers is the engine's number cache, mutable during evaluation
	// (new literals can be encountered while parsing instance numbers).
	Numbers() *numcache.Cache
	// Values is the engine's value cache.
	Values() *valuecache.Cache
	// State is the per-schema-node heterogeneous side-channel used by
	// keywords that must observe siblings, e.g. unevaluatedProperties
	// watching properties/patternProperties/additionalProperties.
	State() *anymap.Map
	// ChildState returns the heterogeneous state a schema accumulated
	// while being evaluated earlier in this same call, keyed by its
	// SchemaKey rather than the currently executing one. In-place
	// applicators (allOf, the matching anyOf/oneOf branch, the applied
	// then/else, a triggered dependentSchemas branch, $ref) use this to
	// adopt a child's evaluated-properties/evaluated-indices marks into
	// their own State() after evaluating it, since the child validated
	// the same instance the applicator did.
	ChildState(key SchemaKey) *anymap.Map
	// Annotate records an annotation for this keyword at the current
	// locations.
	Annotate(value any)
	// Fail records a failure for this keyword at the current locations.
	Fail(code, message string, params map[string]any)
	// EvaluateChild evaluates the schema at key against value, located
	// at instanceSegment beneath the current instance location and
	// keywordSegment beneath the current keyword location, and splices
	// the resulting assessment into the report as a child of the
	// current node. It reports whether the child was valid.
	EvaluateChild(key SchemaKey, instanceSegment, keywordSegment uri.Pointer, value any) (valid bool, err error)
	// TryChild evaluates the schema at key against value like
	// EvaluateChild, splicing the result into the report as a child of
	// the current node, but without marking the current node invalid
	// when the child fails. Applicators whose own validity is a function
	// of several such tries (anyOf, oneOf, not, if, contains) use this
	// instead of EvaluateChild so a tolerated or expected non-match does
	// not by itself fail the applicator; the applicator calls Fail
	// itself once it has examined all the results it needs.
	TryChild(key SchemaKey, instanceSegment, keywordSegment uri.Pointer, value any) (valid bool, err error)
	// PushDynamicAnchor registers name as resolving to key in the
	// innermost dynamic-anchor frame, which lasts until the schema
	// currently being evaluated finishes.
	PushDynamicAnchor(name string, key SchemaKey)
	// LookupDynamicAnchor returns the outermost frame's binding for
	// name on the current dynamic-anchor stack, per §4.7.2.
	LookupDynamicAnchor(name string) (SchemaKey, bool)
	// ParseNumber parses literal via the shared number cache.
	ParseNumber(literal string) (*big.Rat, error)
}

// Keyword is the stateful, per-schema-node instance a Descriptor's New
// produces: it holds whatever configuration Compile parses out of the
// node (a minimum's bound, a properties map's child keys, ...).
type Keyword interface {
	// Compile prepares per-schema state from node, returning whether the
	// keyword is active for this schema (false if e.g. its JSON property
	// is simply absent).
	Compile(ctx CompileContext, node any) (bool, error)
	// Evaluate evaluates the instance value against this keyword's
	// compiled state.
	Evaluate(ctx EvaluateContext, value any) error
}

// Descriptor is the dialect-registered plugin description for one
// keyword: the stateless scan-time hooks plus a factory for the stateful
// compile/evaluate instance.
type Descriptor struct {
	// Kind is a stable tag used by tests, dynamic-ref bookkeeping, and
	// report field names.
	Kind string
	// Reference reports a scan-time reference discovery, if node
	// declares one for this keyword.
	Reference func(node any) (Found, bool)
	// Anchor reports a scan-time anchor discovery, if node declares one
	// for this keyword.
	Anchor func(node any) (Found, bool)
	// Subschemas reports the pointers, relative to node, that scan must
	// recurse into for this keyword.
	Subschemas func(node any) []uri.Pointer
	// New creates a fresh, zero-value stateful instance.
	New func() Keyword
}
