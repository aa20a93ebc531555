// Package compile implements the transactional Compiler (spec §4.5):
// resolve, scan, link, and compile a batch of target schemas into the
// Schema graph, succeeding or rolling back as a unit.
package compile

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/schemagraph/jsonschema/dialect"
	"github.com/schemagraph/jsonschema/errs"
	"github.com/schemagraph/jsonschema/internal/graph"
	"github.com/schemagraph/jsonschema/internal/source"
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/numcache"
	"github.com/schemagraph/jsonschema/resolve"
	"github.com/schemagraph/jsonschema/uri"
	"github.com/schemagraph/jsonschema/valuecache"
)

// Compiler owns the engine's live graph, source store and dialect
// registry and runs batches of compile transactions against them. There
// is no separate copy-on-write overlay type: graph.Graph and
// source.Store already support Checkpoint/Rollback by appending and
// truncating in place, which is sufficient since compilation is
// exclusive per the engine's concurrency model (spec §5) — see
// graph.Checkpoint's doc comment.
type Compiler struct {
	Graph    *graph.Graph
	Sources  *source.Store
	Dialects *dialect.Registry
	Numbers  *numcache.Cache
	Values   *valuecache.Cache
	Resolver resolve.Resolver

	group singleflight.Group
}

// New creates a Compiler over the engine's shared state.
func New(g *graph.Graph, s *source.Store, d *dialect.Registry, n *numcache.Cache, v *valuecache.Cache, r resolve.Resolver) *Compiler {
	return &Compiler{Graph: g, Sources: s, Dialects: d, Numbers: n, Values: v, Resolver: r}
}

// Compile resolves, scans, links and compiles targets, returning one key
// per target in order. Either every schema reachable from targets is
// committed, or none is.
func (c *Compiler) Compile(ctx context.Context, targets []uri.URI) ([]keyword.SchemaKey, error) {
	gcp := c.Graph.Checkpoint()
	scp := c.Sources.Checkpoint()

	tx := &transaction{c: c, scanned: make(map[string]keyword.SchemaKey)}

	keys := make([]keyword.SchemaKey, len(targets))
	for i, t := range targets {
		key, err := tx.resolve(ctx, t)
		if err != nil {
			c.Graph.Rollback(gcp)
			c.Sources.Rollback(scp)
			return nil, err
		}
		keys[i] = key
	}

	if err := tx.patchAndCompile(ctx); err != nil {
		c.Graph.Rollback(gcp)
		c.Sources.Rollback(scp)
		return nil, err
	}

	return keys, nil
}

// resolveDocument fetches the document at uriStr through the configured
// Resolver, coalescing concurrent calls for the same URI across
// goroutines sharing this Compiler (SPEC_FULL §4.0, §4.5): this protects
// the Resolver itself, not the single-threaded-per-call evaluation model
// of spec §5.
func (c *Compiler) resolveDocument(ctx context.Context, uriStr string) (any, error) {
	v, err, _ := c.group.Do(uriStr, func() (any, error) {
		return c.Resolver.Resolve(ctx, uriStr)
	})
	return v, err
}

// pendingNode is a scanned node awaiting its compile pass.
type pendingNode struct {
	key         keyword.SchemaKey
	node        any
	baseURI     uri.URI
	docRootURI  uri.URI
	selfPointer uri.Pointer
}

// transaction is the sandbox state for one Compile call: the set of
// canonical URIs already scanned (memoizing cycles and shared targets)
// and the nodes still awaiting their compile pass.
type transaction struct {
	c       *Compiler
	scanned map[string]keyword.SchemaKey
	pending []pendingNode
}

// resolve implements §4.5.2: find or create the Source for u, then scan
// it into a compiled schema key.
func (tx *transaction) resolve(ctx context.Context, u uri.URI) (keyword.SchemaKey, error) {
	canon := u.String()
	if k, ok := tx.scanned[canon]; ok {
		return k, nil
	}
	if k, ok := tx.c.Graph.KeyByURI(canon); ok {
		tx.scanned[canon] = k
		return k, nil
	}

	if src, ok := tx.c.Sources.SourceByURI(u); ok {
		doc := tx.c.Sources.DocumentOf(src.Key)
		node, err := src.Pointer.Resolve(doc.Value)
		if err != nil {
			return keyword.Invalid, &errs.PathNotFound{URI: canon}
		}
		return tx.scanNode(doc.Key, doc.URI, node, doc.URI, src.Pointer, keyword.Invalid)
	}

	base := u.WithoutFragment()
	doc, ok := tx.c.Sources.DocumentByURI(base)
	if !ok {
		val, err := tx.c.resolveDocument(ctx, base.String())
		if err != nil {
			return keyword.Invalid, &errs.FailedToResolve{URI: base.String(), Cause: err}
		}
		dk, insertErr := tx.c.Sources.InsertDocument(base, val)
		if insertErr != nil {
			return keyword.Invalid, insertErr
		}
		doc = tx.c.Sources.Document(dk)
	}

	fragment := u.Fragment()
	switch {
	case fragment == "":
		return tx.scanNode(doc.Key, doc.URI, doc.Value, doc.URI, uri.Root, keyword.Invalid)

	case strings.HasPrefix(fragment, "/"):
		p, err := uri.ParsePointer(fragment)
		if err != nil {
			return keyword.Invalid, &errs.InvalidPointer{URI: canon, Cause: err}
		}
		node, err := p.Resolve(doc.Value)
		if err != nil {
			return keyword.Invalid, &errs.PathNotFound{URI: canon}
		}
		return tx.scanNode(doc.Key, doc.URI, node, doc.URI, p, keyword.Invalid)

	default:
		// Plain-name anchor: the Source for it, if any, is only
		// installed as a side effect of scanning the document that
		// declares it (§4.5.2 step 6). Scan the whole document first,
		// then retry the lookup.
		if _, err := tx.scanNode(doc.Key, doc.URI, doc.Value, doc.URI, uri.Root, keyword.Invalid); err != nil {
			return keyword.Invalid, err
		}
		src, ok := tx.c.Sources.SourceByURI(u)
		if !ok {
			return keyword.Invalid, &errs.UnknownAnchor{URI: canon}
		}
		node, err := src.Pointer.Resolve(doc.Value)
		if err != nil {
			return keyword.Invalid, &errs.PathNotFound{URI: canon}
		}
		return tx.scanNode(doc.Key, doc.URI, node, doc.URI, src.Pointer, keyword.Invalid)
	}
}

// scanNode implements §4.5.3 for one node: determine its effective base
// and canonical URIs, bind and link them, record anchors and reference
// edges its keywords declare, and recurse into its declared subschemas.
// parent is the enclosing schema key when this node was reached via a
// Subschemas path, or keyword.Invalid for a scan entrypoint.
func (tx *transaction) scanNode(docKey source.DocumentKey, docRootURI uri.URI, node any, enclosingBase uri.URI, pointer uri.Pointer, parent keyword.SchemaKey) (keyword.SchemaKey, error) {
	structuralURI := docRootURI.WithFragment(pointer.String())

	if b, isBool := node.(bool); isBool {
		if k, ok := tx.scanned[structuralURI.String()]; ok {
			return k, nil
		}
		key := tx.c.Graph.Allocate(0)
		tx.scanned[structuralURI.String()] = key
		if err := tx.c.Graph.BindURI(key, structuralURI.String()); err != nil {
			return keyword.Invalid, err
		}
		if parent != keyword.Invalid {
			if err := tx.c.Graph.SetEmbeddedIn(key, parent); err != nil {
				return keyword.Invalid, err
			}
		}
		value := b
		tx.c.Graph.Schema(key).BoolValue = &value
		return key, nil
	}

	d := tx.dialectFor(node)
	id, hasID := d.Identify(node)

	newBase := enclosingBase
	primaryURI := structuralURI
	if hasID {
		resolved, err := enclosingBase.Resolve(id)
		if err != nil {
			return keyword.Invalid, &errs.InvalidPointer{URI: id, Cause: err}
		}
		newBase = resolved.WithoutFragment()
		primaryURI = newBase
	}

	if k, ok := tx.scanned[primaryURI.String()]; ok {
		return k, nil
	}
	if k, ok := tx.scanned[structuralURI.String()]; ok {
		return k, nil
	}

	key := tx.c.Graph.Allocate(0)
	tx.scanned[primaryURI.String()] = key
	tx.scanned[structuralURI.String()] = key

	if err := tx.c.Graph.BindURI(key, primaryURI.String()); err != nil {
		return keyword.Invalid, err
	}
	if structuralURI.String() != primaryURI.String() {
		if err := tx.c.Graph.BindURI(key, structuralURI.String()); err != nil {
			return keyword.Invalid, err
		}
	}

	if parent != keyword.Invalid && !hasID {
		if err := tx.c.Graph.SetEmbeddedIn(key, parent); err != nil {
			return keyword.Invalid, err
		}
	}

	kind := source.FragmentPointer
	if pointer.IsRoot() {
		kind = source.FragmentNone
	}
	sk, err := tx.c.Sources.Link(primaryURI, docKey, pointer, kind)
	if err != nil {
		return keyword.Invalid, err
	}
	if structuralURI.String() != primaryURI.String() {
		if _, err := tx.c.Sources.Link(structuralURI, docKey, pointer, kind); err != nil {
			return keyword.Invalid, err
		}
	}
	tx.c.Graph.Schema(key).SourceKey = int32(sk)

	for _, desc := range d.Keywords {
		if desc.Anchor != nil {
			if found, ok := desc.Anchor(node); ok {
				anchorURI := newBase.WithFragment(found.Raw)
				anchorPointer := pointer.Append(found.At)
				if _, err := tx.c.Sources.Link(anchorURI, docKey, anchorPointer, source.FragmentAnchor); err != nil {
					return keyword.Invalid, err
				}
			}
		}
		if desc.Reference != nil {
			if found, ok := desc.Reference(node); ok {
				resolved, err := newBase.Resolve(found.Raw)
				if err != nil {
					return keyword.Invalid, &errs.InvalidPointer{URI: found.Raw, Cause: err}
				}
				edgeKind := graph.EdgeStatic
				if found.Dynamic {
					edgeKind = graph.EdgeDynamic
				}
				tx.c.Graph.AddEdge(key, edgeKind, desc.Kind, found.Raw, resolved.String())
			}
		}
		if desc.Subschemas != nil {
			for _, p := range desc.Subschemas(node) {
				child, err := p.Resolve(node)
				if err != nil {
					continue
				}
				childPointer := pointer.Append(p)
				if _, err := tx.scanNode(docKey, docRootURI, child, newBase, childPointer, key); err != nil {
					return keyword.Invalid, err
				}
			}
		}
	}

	tx.pending = append(tx.pending, pendingNode{
		key:         key,
		node:        node,
		baseURI:     newBase,
		docRootURI:  docRootURI,
		selfPointer: pointer,
	})
	return key, nil
}

// dialectFor selects the dialect governing node: its declared $schema if
// registered, otherwise the registry's primary dialect.
func (tx *transaction) dialectFor(node any) dialect.Dialect {
	if obj, ok := node.(map[string]any); ok {
		if s, ok := obj["$schema"].(string); ok {
			if k, found := tx.c.Dialects.KeyByURI(s); found {
				return tx.c.Dialects.Get(k)
			}
		}
	}
	return tx.c.Dialects.Get(tx.c.Dialects.Primary())
}

// patchAndCompile implements §4.5.4 steps 4-6: resolve every outstanding
// reference edge (scanning new targets as needed, which may itself
// append further edges), then run the compile pass over every scanned
// node.
func (tx *transaction) patchAndCompile(ctx context.Context) error {
	for i := 0; i < tx.c.Graph.EdgeCount(); i++ {
		e := tx.c.Graph.Edge(i)
		if e.TargetKnown {
			continue
		}
		target, err := uri.Parse(e.ResolvedURI)
		if err != nil {
			return &errs.SchemaNotFound{URI: e.ResolvedURI, Cause: err}
		}
		targetKey, err := tx.resolve(ctx, target)
		if err != nil {
			return &errs.SchemaNotFound{URI: e.ResolvedURI, Cause: err}
		}
		tx.c.Graph.ResolveEdge(i, targetKey)
		// Bind the resolved URI too, so compile-time Schema lookups find
		// targets reached through a plain-name anchor.
		if err := tx.c.Graph.BindURI(targetKey, e.ResolvedURI); err != nil {
			return err
		}
	}

	for _, pn := range tx.pending {
		d := tx.dialectFor(pn.node)
		kws := make([]keyword.Keyword, 0, len(d.Keywords))
		for _, desc := range d.Keywords {
			kw := desc.New()
			cctx := &compileContext{tx: tx, self: pn.key, base: pn.baseURI, docRootURI: pn.docRootURI, selfPointer: pn.selfPointer}
			active, err := kw.Compile(cctx, pn.node)
			if err != nil {
				return fmt.Errorf("compile %s: keyword %q: %w", pn.baseURI.String(), desc.Kind, err)
			}
			if active {
				kws = append(kws, kw)
			}
		}
		tx.c.Graph.SetKeywords(pn.key, kws)
	}
	return nil
}

// compileContext implements keyword.CompileContext for one node's
// compile pass.
type compileContext struct {
	tx          *transaction
	self        keyword.SchemaKey
	base        uri.URI
	docRootURI  uri.URI
	selfPointer uri.Pointer
}

func (c *compileContext) Self() keyword.SchemaKey { return c.self }
func (c *compileContext) BaseURI() uri.URI        { return c.base }

func (c *compileContext) Schema(u uri.URI) (keyword.SchemaKey, error) {
	if k, ok := c.tx.c.Graph.KeyByURI(u.String()); ok {
		return k, nil
	}
	return keyword.Invalid, &errs.SchemaNotFound{URI: u.String()}
}

func (c *compileContext) Subschema(p uri.Pointer) (keyword.SchemaKey, error) {
	childPointer := c.selfPointer.Append(p)
	childURI := c.docRootURI.WithFragment(childPointer.String())
	return c.Schema(childURI)
}

func (c *compileContext) Numbers() *numcache.Cache  { return c.tx.c.Numbers }
func (c *compileContext) Values() *valuecache.Cache { return c.tx.c.Values }
