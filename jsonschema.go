package jsonschema

import (
	"context"
	"fmt"

	"github.com/schemagraph/jsonschema/dialect"
	"github.com/schemagraph/jsonschema/internal/compile"
	"github.com/schemagraph/jsonschema/internal/evaluate"
	"github.com/schemagraph/jsonschema/internal/graph"
	"github.com/schemagraph/jsonschema/internal/keywords"
	"github.com/schemagraph/jsonschema/internal/source"
	"github.com/schemagraph/jsonschema/jsonvalue"
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/numcache"
	"github.com/schemagraph/jsonschema/resolve"
	"github.com/schemagraph/jsonschema/uri"
	"github.com/schemagraph/jsonschema/valuecache"
)

// Engine is the public entry point assembling the Source store, Schema
// graph, Dialect registry, Resolver and transactional Compiler into one
// configured object (spec §6.4). Compile and Evaluate are the only two
// operations a caller needs: everything else (scanning, linking,
// dynamic-anchor resolution, the number/value caches) is internal
// machinery an Engine wires together once at construction time.
type Engine struct {
	graph    *graph.Graph
	sources  *source.Store
	dialects *dialect.Registry
	numbers  *numcache.Cache
	values   *valuecache.Cache
	compiler *compile.Compiler

	evaluator *evaluate.Evaluator
}

// Option configures an Engine at construction time, grounded on
// kaptinlin/jsonschema's NewCompiler functional-option constructor
// (compiler.go) generalized to the new engine's assembly.
type Option func(*engineConfig)

type engineConfig struct {
	dialects   []dialect.Dialect
	primary    string
	resolver   resolve.Resolver
	documents  map[string]any
	precompile []string
}

// WithDialects registers one or more dialects with the engine. The first
// dialect registered across all WithDialects calls becomes the registry's
// primary dialect unless WithPrimaryDialect overrides the choice. Without
// this option the engine registers dialect.New202012 alone.
func WithDialects(dialects ...dialect.Dialect) Option {
	return func(c *engineConfig) {
		c.dialects = append(c.dialects, dialects...)
	}
}

// WithPrimaryDialect sets the $schema URI of the dialect the registry
// should treat as primary (used for documents that omit "$schema").
func WithPrimaryDialect(uri string) Option {
	return func(c *engineConfig) { c.primary = uri }
}

// WithResolver installs the Resolver the engine's Compiler uses to fetch
// documents that were not pre-registered with WithSources. Without this
// option the engine uses resolve.NewByScheme, the file/http/https
// resolver kaptinlin's Compiler wires by default, unless WithSources
// supplied documents: then only those documents can be resolved.
func WithResolver(r resolve.Resolver) Option {
	return func(c *engineConfig) { c.resolver = r }
}

// WithSources pre-registers in-memory documents, keyed by their
// fragment-free absolute URI, so Compile never needs network or
// filesystem access to resolve them. Sources and a WithResolver can be
// combined: pre-registered documents are consulted first, falling back
// to the resolver for everything else (spec §4.5.2).
func WithSources(documents map[string]any) Option {
	return func(c *engineConfig) {
		if c.documents == nil {
			c.documents = make(map[string]any, len(documents))
		}
		for k, v := range documents {
			c.documents[k] = v
		}
	}
}

// WithPrecompile compiles the given target URIs eagerly during New,
// instead of lazily on the first Compile call that names them.
func WithPrecompile(targets ...string) Option {
	return func(c *engineConfig) { c.precompile = append(c.precompile, targets...) }
}

// New assembles an Engine from the given options, grounded on
// kaptinlin/jsonschema's NewCompiler(...Option) constructor generalized
// from a single hardcoded Draft 2020-12 compiler into a registry that can
// carry any number of named dialects.
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	dialects := dialect.NewRegistry()
	registered := cfg.dialects
	if len(registered) == 0 {
		registered = []dialect.Dialect{dialect.New202012()}
	}
	var primaryKey dialect.Key
	for i, d := range registered {
		key, err := dialects.Insert(d)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: registering dialect %q: %w", d.Primary, err)
		}
		if i == 0 {
			primaryKey = key
		}
		if cfg.primary != "" && d.Primary == cfg.primary {
			primaryKey = key
		}
	}
	dialects.SetPrimary(primaryKey)

	values := valuecache.New()
	numbers := numcache.New()
	src := source.New(values)
	g := graph.New()

	resolver := cfg.resolver
	if len(cfg.documents) > 0 {
		static := resolve.Static(cfg.documents)
		if resolver != nil {
			resolver = resolve.Chain{static, resolver}
		} else {
			resolver = static
		}
	}
	if resolver == nil {
		resolver = resolve.NewByScheme()
	}

	compiler := compile.New(g, src, dialects, numbers, values, resolver)
	e := &Engine{
		graph:    g,
		sources:  src,
		dialects: dialects,
		numbers:  numbers,
		values:   values,
		compiler: compiler,
	}
	// The Evaluator only consults descriptors to decide whether an
	// "unevaluated*" keyword forces exhaustive evaluation under Flag
	// output (spec §4.7.1); actual keyword dispatch during evaluation
	// reads each schema's own compiled keyword list from the graph. The
	// union of every registered dialect's vocabulary is therefore a safe
	// (if occasionally over-cautious) choice even when dialects differ.
	var allKeywords []keyword.Descriptor
	for _, d := range registered {
		allKeywords = append(allKeywords, d.Keywords...)
	}
	e.evaluator = evaluate.New(g, numbers, values, allKeywords)

	if len(cfg.precompile) > 0 {
		targets := make([]uri.URI, len(cfg.precompile))
		for i, t := range cfg.precompile {
			u, err := uri.Parse(t)
			if err != nil {
				return nil, fmt.Errorf("jsonschema: precompile target %q: %w", t, err)
			}
			targets[i] = u
		}
		if _, err := compiler.Compile(context.Background(), targets); err != nil {
			return nil, fmt.Errorf("jsonschema: precompile: %w", err)
		}
	}

	return e, nil
}

// Compile resolves, scans, links and compiles the given schema URIs,
// returning one opaque key per target (in order) that Evaluate accepts.
// Either every schema reachable from targets is committed to the
// Engine's graph, or none is (spec §4.5.1).
func (e *Engine) Compile(ctx context.Context, uris ...string) ([]keyword.SchemaKey, error) {
	targets := make([]uri.URI, len(uris))
	for i, s := range uris {
		u, err := uri.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("jsonschema: %q: %w", s, err)
		}
		targets[i] = u
	}
	return e.compiler.Compile(ctx, targets)
}

// CompileBytes decodes a raw JSON schema document, registers it under id
// (its effective base URI), and compiles it, returning its key. This is
// the common case of compiling a schema that was never published at a
// real network location, grounded on kaptinlin/jsonschema's
// Compiler.Compile([]byte) convenience entry point.
func (e *Engine) CompileBytes(ctx context.Context, id string, data []byte) (keyword.SchemaKey, error) {
	value, err := jsonvalue.Decode(data)
	if err != nil {
		return keyword.Invalid, fmt.Errorf("jsonschema: decoding %q: %w", id, err)
	}
	u, err := uri.Parse(id)
	if err != nil {
		return keyword.Invalid, fmt.Errorf("jsonschema: %q: %w", id, err)
	}
	if _, err := e.sources.InsertDocument(u, value); err != nil {
		return keyword.Invalid, fmt.Errorf("jsonschema: registering %q: %w", id, err)
	}
	keys, err := e.compiler.Compile(ctx, []uri.URI{u})
	if err != nil {
		return keyword.Invalid, err
	}
	return keys[0], nil
}

// Evaluate runs a previously compiled schema against instance, in the
// requested output form (spec §4.7.1), and wraps the resulting node tree
// in a Report that supports Flag/List conversion and i18n localization.
func (e *Engine) Evaluate(key keyword.SchemaKey, instance any, output evaluate.Output) (*Report, error) {
	node, _ := e.evaluator.Evaluate(key, instance, output)
	return newReport(node), nil
}

// Dialects exposes the engine's dialect registry, for callers that need
// to look up a dialect by URI directly (e.g. a CLI reporting which draft
// a schema declared).
func (e *Engine) Dialects() *dialect.Registry { return e.dialects }

// DefaultDialects is exported so callers assembling their own registry
// (outside of Engine) can still reach the vocabulary internal/keywords
// implements, without reaching into the internal package themselves.
func DefaultDialects() (v2020_12, draft07 []keyword.Descriptor) {
	return keywords.Descriptors(), keywords.Descriptors07()
}
