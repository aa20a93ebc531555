// Package resolve defines the Resolver contract (spec §4.5.2) and supplies
// ambient convenience implementations backed by the filesystem and HTTP.
package resolve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	yaml "github.com/goccy/go-yaml"

	"github.com/schemagraph/jsonschema/jsonvalue"
)

// decodeDocument parses data as YAML when uri names a .yaml/.yml file and
// as JSON otherwise, since schema authors commonly keep YAML sources
// alongside JSON ones (kaptinlin/jsonschema's Compiler accepted both
// through a pluggable codec; here the choice is made by file extension
// instead of a compiler-wide setting). YAML mapping nodes decode to
// map[string]any already, matching jsonvalue's tree shape, though numeric
// literals lose their original text in the process.
func decodeDocument(uri string, data []byte) (any, error) {
	if isYAMLPath(uri) {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return jsonvalue.Decode(data)
}

func isYAMLPath(uri string) bool {
	path := uri
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")
}

// Resolver fetches the raw document at an absolute, fragment-free URI and
// decodes it into a JSON value. Implementations are called at most once
// per distinct URI per compile transaction; the Compiler is responsible
// for deduplicating concurrent calls to the same URI (SPEC_FULL §4.5).
type Resolver interface {
	Resolve(ctx context.Context, uri string) (any, error)
}

// ResolverFunc adapts a function to a Resolver.
type ResolverFunc func(ctx context.Context, uri string) (any, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, uri string) (any, error) {
	return f(ctx, uri)
}

// Chain tries each Resolver in order, returning the first success.
type Chain []Resolver

// Resolve implements Resolver.
func (c Chain) Resolve(ctx context.Context, uri string) (any, error) {
	var lastErr error
	for _, r := range c {
		v, err := r.Resolve(ctx, uri)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("resolve: no resolver configured")
	}
	return nil, lastErr
}

// FileResolver resolves file:// URIs against the local filesystem.
type FileResolver struct{}

// Resolve implements Resolver.
func (FileResolver) Resolve(_ context.Context, uri string) (any, error) {
	path := strings.TrimPrefix(uri, "file://")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decodeDocument(path, data)
}

// HTTPResolver resolves http(s):// URIs, grounded on the default loader
// kaptinlin's Compiler registers for the http/https schemes: a client
// with a fixed timeout, GET only, non-200 treated as failure.
type HTTPResolver struct {
	Client *http.Client
}

// NewHTTPResolver returns an HTTPResolver with a 10-second timeout.
func NewHTTPResolver() *HTTPResolver {
	return &HTTPResolver{Client: &http.Client{Timeout: 10 * time.Second}}
}

// Resolve implements Resolver.
func (r *HTTPResolver) Resolve(ctx context.Context, uri string) (any, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolve: %s: unexpected status %d", uri, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "yaml") {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return decodeDocument(uri, data)
}

// ByScheme dispatches to a registered Resolver keyed by the URI's scheme;
// a URI whose scheme has no registration fails to resolve.
type ByScheme struct {
	resolvers map[string]Resolver
}

// NewByScheme creates a scheme-dispatching Resolver with the default
// file/http/https registrations.
func NewByScheme() *ByScheme {
	return &ByScheme{resolvers: map[string]Resolver{
		"file":  FileResolver{},
		"http":  NewHTTPResolver(),
		"https": NewHTTPResolver(),
	}}
}

// Register installs r for scheme, replacing any existing registration.
func (b *ByScheme) Register(scheme string, r Resolver) {
	b.resolvers[scheme] = r
}

// Resolve implements Resolver.
func (b *ByScheme) Resolve(ctx context.Context, uri string) (any, error) {
	scheme, _, ok := strings.Cut(uri, "://")
	if !ok {
		return nil, fmt.Errorf("resolve: %q has no scheme", uri)
	}
	r, ok := b.resolvers[scheme]
	if !ok {
		return nil, fmt.Errorf("resolve: no resolver registered for scheme %q", scheme)
	}
	return r.Resolve(ctx, uri)
}

// Static serves a fixed set of in-memory documents, keyed by their exact
// fragment-free URI. Useful for tests and for engines configured with
// WithSources (SPEC_FULL §6.4) that never need network access.
type Static map[string]any

// Resolve implements Resolver.
func (s Static) Resolve(_ context.Context, uri string) (any, error) {
	v, ok := s[uri]
	if !ok {
		return nil, fmt.Errorf("resolve: no static document registered for %q", uri)
	}
	return v, nil
}
