// Package graph implements the Schema graph (spec §3.2, §4.5): the keyed
// table of compiled schemas, its URI index, and the reference edges
// between schemas.
package graph

import (
	"fmt"

	"github.com/schemagraph/jsonschema/errs"
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/uri"
)

// SchemaKey is the graph's handle to a compiled schema. It is a type
// alias, not a distinct type, so keyword authors and graph callers share
// exactly one identity for "a schema" (spec's Keyword contract, §4.6,
// hands this value to CompileContext.Schema/Subschema callers directly).
type SchemaKey = keyword.SchemaKey

// Invalid is the sentinel (-1) for an unresolved key.
const Invalid = keyword.Invalid

// SourceKeyRef identifies the Source a schema was compiled from; the
// graph package treats it as opaque data supplied by the caller (the
// source package's SourceKey), avoiding a dependency in either direction.
type SourceKeyRef = int32

// EdgeKind distinguishes a statically bound reference from one that must
// be re-resolved against the dynamic-anchor stack during evaluation.
type EdgeKind uint8

const (
	// EdgeStatic binds to a single Target at compile time.
	EdgeStatic EdgeKind = iota
	// EdgeDynamic retains ResolvedURI and is re-resolved per §4.7.2.
	EdgeDynamic
)

// Edge is a directed reference edge tagged by the keyword that produced
// it.
type Edge struct {
	From        SchemaKey
	Kind        EdgeKind
	KeywordTag  string
	TextualURI  string
	ResolvedURI string
	Target      SchemaKey
	TargetKnown bool
}

// Anchor is a plain-name alias to a schema within a document.
type Anchor struct {
	AbsoluteURI string
	Name        string
	KeywordTag  string
	Pointer     uri.Pointer
}

// Schema is one compiled node (spec §3.2 "Schema (compiled)").
type Schema struct {
	Key      SchemaKey
	URIs     []string
	Keywords []keyword.Keyword

	// BoolValue is non-nil for the two degenerate schemas `true` and
	// `false`, which carry no keywords and always annotate or always
	// fail.
	BoolValue *bool

	SourceKey SourceKeyRef

	// EmbeddedIn is the parent key for schemas embedded inside another
	// schema's document but not independently identified. Invalid if
	// this schema is independently identified (has its own URI set).
	EmbeddedIn SchemaKey
	// Embedded lists child schema keys produced during scan.
	Embedded []SchemaKey

	// References are outgoing edges, in insertion order.
	References []int
	// ReferencedBy are incoming reverse edges, indices into Graph.edges.
	ReferencedBy []int
}

// Checkpoint marks a point in the graph's history that Rollback can
// return to, mirroring the Source store's sandbox mechanism (the same
// append-then-truncate technique is valid here for the same reason:
// compile transactions are exclusive, spec §5).
type Checkpoint struct {
	schemas int
	edges   int
}

// Graph is the engine's Schema graph.
type Graph struct {
	schemas []Schema
	edges   []Edge

	uriIndex map[string]SchemaKey
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{uriIndex: make(map[string]SchemaKey)}
}

// Checkpoint snapshots the graph's current size.
func (g *Graph) Checkpoint() Checkpoint {
	return Checkpoint{schemas: len(g.schemas), edges: len(g.edges)}
}

// Rollback discards every schema and edge inserted after cp, their
// URI-index entries, and the reverse-edge entries they left on earlier
// schemas.
func (g *Graph) Rollback(cp Checkpoint) {
	for _, s := range g.schemas[cp.schemas:] {
		for _, u := range s.URIs {
			delete(g.uriIndex, u)
		}
	}
	g.schemas = g.schemas[:cp.schemas]
	for i := range g.schemas {
		kept := g.schemas[i].ReferencedBy[:0]
		for _, idx := range g.schemas[i].ReferencedBy {
			if idx < cp.edges {
				kept = append(kept, idx)
			}
		}
		g.schemas[i].ReferencedBy = kept
	}
	g.edges = g.edges[:cp.edges]
}

// Allocate reserves a fresh key with an empty compiled schema, to be
// populated by the scanner before the compile pass runs.
func (g *Graph) Allocate(sourceKey SourceKeyRef) SchemaKey {
	key := SchemaKey(len(g.schemas))
	g.schemas = append(g.schemas, Schema{
		Key:        key,
		SourceKey:  sourceKey,
		EmbeddedIn: Invalid,
	})
	return key
}

// BindURI registers u as reaching key. The first URI bound for a key is
// its canonical URI; later calls add secondary, many-to-one aliases.
// Binding a URI already bound to a different key is a conflict.
func (g *Graph) BindURI(key SchemaKey, u string) error {
	if existing, ok := g.uriIndex[u]; ok && existing != key {
		return &errs.DuplicateLink{URI: u, Existing: existing}
	}
	if _, ok := g.uriIndex[u]; ok {
		return nil
	}
	g.uriIndex[u] = key
	g.schemas[key].URIs = append(g.schemas[key].URIs, u)
	return nil
}

// KeyByURI looks up a schema by one of its bound URIs.
func (g *Graph) KeyByURI(u string) (SchemaKey, bool) {
	k, ok := g.uriIndex[u]
	return k, ok
}

// Schema returns the compiled schema identified by key.
func (g *Graph) Schema(key SchemaKey) *Schema {
	return &g.schemas[key]
}

// SetKeywords installs the compiled keyword instances for key, in
// dialect order, once the compile pass has produced them.
func (g *Graph) SetKeywords(key SchemaKey, kws []keyword.Keyword) {
	g.schemas[key].Keywords = kws
}

// SetEmbeddedIn records that key is embedded inside parent, rather than
// being independently identified.
func (g *Graph) SetEmbeddedIn(key, parent SchemaKey) error {
	if g.reaches(parent, key) {
		return &errs.CyclicEmbedding{From: firstURI(&g.schemas[parent]), To: firstURI(&g.schemas[key])}
	}
	g.schemas[key].EmbeddedIn = parent
	g.schemas[parent].Embedded = append(g.schemas[parent].Embedded, key)
	return nil
}

func (g *Graph) reaches(from, to SchemaKey) bool {
	if from == to {
		return true
	}
	cur := from
	for cur != Invalid {
		if cur == to {
			return true
		}
		cur = g.schemas[cur].EmbeddedIn
	}
	return false
}

func firstURI(s *Schema) string {
	if len(s.URIs) == 0 {
		return ""
	}
	return s.URIs[0]
}

// AddEdge appends a reference edge from key, returning its index. The
// target is unresolved (Invalid) until the patch pass (§4.5.4 step 4)
// fills it in via ResolveEdge.
func (g *Graph) AddEdge(from SchemaKey, kind EdgeKind, keywordTag, textualURI, resolvedURI string) int {
	idx := len(g.edges)
	g.edges = append(g.edges, Edge{
		From:        from,
		Kind:        kind,
		KeywordTag:  keywordTag,
		TextualURI:  textualURI,
		ResolvedURI: resolvedURI,
		Target:      Invalid,
	})
	g.schemas[from].References = append(g.schemas[from].References, idx)
	return idx
}

// ResolveEdge sets edge idx's target, per the patch pass, and records
// the reverse edge on the target schema.
func (g *Graph) ResolveEdge(idx int, target SchemaKey) {
	g.edges[idx].Target = target
	g.edges[idx].TargetKnown = true
	g.schemas[target].ReferencedBy = append(g.schemas[target].ReferencedBy, idx)
}

// Edge returns the reference edge at idx.
func (g *Graph) Edge(idx int) Edge {
	return g.edges[idx]
}

// PatchReferences walks every unresolved edge in insertion order and sets
// its target from the URI index, per §4.5.4 step 4. It returns the first
// SchemaNotFound error encountered, if any.
func (g *Graph) PatchReferences() error {
	for idx := range g.edges {
		e := &g.edges[idx]
		if e.TargetKnown {
			continue
		}
		target, ok := g.uriIndex[e.ResolvedURI]
		if !ok {
			return &errs.SchemaNotFound{URI: e.ResolvedURI}
		}
		g.ResolveEdge(idx, target)
	}
	return nil
}

// Len reports the number of compiled schemas currently in the graph.
func (g *Graph) Len() int {
	return len(g.schemas)
}

// EdgeCount reports the number of reference edges currently in the
// graph. The patch pass iterates by index since scanning a fresh target
// can append further edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

func (g *Graph) String() string {
	return fmt.Sprintf("graph{schemas=%d edges=%d}", len(g.schemas), len(g.edges))
}
