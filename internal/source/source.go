// Package source implements the Source store (spec §4.2): documents plus
// pointer-addressable links from a URI into a document.
package source

import (
	"fmt"

	"github.com/schemagraph/jsonschema/errs"
	"github.com/schemagraph/jsonschema/jsonvalue"
	"github.com/schemagraph/jsonschema/uri"
	"github.com/schemagraph/jsonschema/valuecache"
)

// DocumentKey is an opaque handle into the document table.
type DocumentKey int32

// SourceKey is an opaque handle into the source table.
type SourceKey int32

// FragmentKind classifies how a Source's URI selected its pointer.
type FragmentKind uint8

const (
	// FragmentNone is a fragment-free URI, selecting a document's root.
	FragmentNone FragmentKind = iota
	// FragmentPointer is a "/"-led JSON-pointer fragment.
	FragmentPointer
	// FragmentAnchor is a plain-name anchor fragment.
	FragmentAnchor
)

// Document owns one parsed root JSON value, associated with a canonical,
// fragment-free absolute URI. Immutable once inserted.
type Document struct {
	Key   DocumentKey
	URI   uri.URI
	Value any
}

// Source is a named location inside a document.
type Source struct {
	Key      SourceKey
	URI      uri.URI
	Document DocumentKey
	Pointer  uri.Pointer
	Fragment FragmentKind
}

// Checkpoint marks a point in the store's history that Rollback can
// return to. It is the mechanism behind the Compiler's transactional
// sandbox (§4.5.1): since compilation and evaluation are single-threaded
// per spec §5, no observer can see store state appended after a
// checkpoint while the transaction runs; there is no commit step, since
// appends are already in place, and truncating back on Rollback is
// sufficient to restore the pre-transaction view.
type Checkpoint struct {
	documents int
	sources   int
}

// Store is the engine's Source store.
type Store struct {
	values *valuecache.Cache

	documents   []Document
	sources     []Source
	docByURI    map[string]DocumentKey
	sourceByURI map[string]SourceKey
}

// New creates an empty store holding the given value cache. The store
// does not consult it: InsertDocument compares a value re-inserted at an
// existing URI with the stored document through jsonvalue.DeepEqual.
func New(values *valuecache.Cache) *Store {
	return &Store{
		values:      values,
		docByURI:    make(map[string]DocumentKey),
		sourceByURI: make(map[string]SourceKey),
	}
}

// Checkpoint snapshots the store's current size.
func (s *Store) Checkpoint() Checkpoint {
	return Checkpoint{documents: len(s.documents), sources: len(s.sources)}
}

// Rollback discards every document and source inserted after cp.
func (s *Store) Rollback(cp Checkpoint) {
	for _, d := range s.documents[cp.documents:] {
		delete(s.docByURI, d.URI.String())
	}
	for _, src := range s.sources[cp.sources:] {
		delete(s.sourceByURI, src.URI.String())
	}
	s.documents = s.documents[:cp.documents]
	s.sources = s.sources[:cp.sources]
}

// InsertDocument inserts a fresh document at u, which must be
// fragment-free. If u already names a document with an equal value, the
// existing key is returned instead of a conflict.
func (s *Store) InsertDocument(u uri.URI, value any) (DocumentKey, error) {
	if u.Fragment() != "" {
		return 0, fmt.Errorf("source: document uri %q must be fragment-free", u.String())
	}
	key := u.WithoutFragment().String()
	if existing, ok := s.docByURI[key]; ok {
		if jsonvalue.DeepEqual(s.documents[existing].Value, value) {
			return existing, nil
		}
		return 0, &errs.DuplicateLink{URI: u.String(), Existing: existing}
	}
	doc := Document{Key: DocumentKey(len(s.documents)), URI: u.WithoutFragment(), Value: value}
	s.documents = append(s.documents, doc)
	s.docByURI[key] = doc.Key
	return doc.Key, nil
}

// Link records that u selects pointer inside document dk.
func (s *Store) Link(u uri.URI, dk DocumentKey, pointer uri.Pointer, kind FragmentKind) (SourceKey, error) {
	doc := s.documents[dk]
	if kind != FragmentAnchor {
		if _, err := pointer.Resolve(doc.Value); err != nil {
			return 0, &errs.PathNotFound{URI: u.String()}
		}
	}

	key := u.String()
	if existing, ok := s.sourceByURI[key]; ok {
		src := s.sources[existing]
		if src.Document == dk && src.Pointer.String() == pointer.String() {
			return existing, nil
		}
		return 0, &errs.DuplicateLink{URI: u.String(), Existing: existing}
	}

	src := Source{Key: SourceKey(len(s.sources)), URI: u, Document: dk, Pointer: pointer, Fragment: kind}
	s.sources = append(s.sources, src)
	s.sourceByURI[key] = src.Key
	return src.Key, nil
}

// DocumentByURI looks up a previously inserted document by its
// fragment-free URI.
func (s *Store) DocumentByURI(u uri.URI) (Document, bool) {
	key, ok := s.docByURI[u.WithoutFragment().String()]
	if !ok {
		return Document{}, false
	}
	return s.documents[key], true
}

// SourceByURI looks up a previously linked source.
func (s *Store) SourceByURI(u uri.URI) (Source, bool) {
	key, ok := s.sourceByURI[u.String()]
	if !ok {
		return Source{}, false
	}
	return s.sources[key], true
}

// Source returns the source identified by key.
func (s *Store) Source(key SourceKey) Source {
	return s.sources[key]
}

// DocumentOf returns the document a source belongs to.
func (s *Store) DocumentOf(key SourceKey) Document {
	return s.documents[s.sources[key].Document]
}

// Document returns the document identified by key.
func (s *Store) Document(key DocumentKey) Document {
	return s.documents[key]
}
