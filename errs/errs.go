// Package errs defines the engine's error taxonomy (spec §7). Each kind is
// a concrete type carrying the fields needed to pinpoint the offending
// node, and unwraps to a stable sentinel so callers can dispatch with
// errors.Is, the pattern kaptinlin/jsonschema's errors.go groups sentinels
// by concern.
package errs

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is dispatch.
var (
	ErrFailedToResolve = errors.New("failed to resolve source document")
	ErrInvalidPointer  = errors.New("invalid json pointer fragment")
	ErrPathNotFound    = errors.New("json pointer does not resolve in document")
	ErrUnknownAnchor   = errors.New("unknown plain-name anchor")
	ErrSchemaNotFound  = errors.New("reference target not found in graph")
	ErrDuplicateLink   = errors.New("uri already linked to a different source")
	ErrInvalidType     = errors.New("unexpected json value kind")
	ErrNumberParse     = errors.New("invalid number literal")
	ErrCyclicEmbedding = errors.New("cyclic embedded-schema reference")
	ErrSchemaInvalid   = errors.New("schema failed metaschema validation")
)

// FailedToResolve wraps a Resolver error with the offending URI.
type FailedToResolve struct {
	URI   string
	Cause error
}

func (e *FailedToResolve) Error() string {
	return fmt.Sprintf("failed to resolve %q: %v", e.URI, e.Cause)
}
func (e *FailedToResolve) Unwrap() error { return ErrFailedToResolve }

// InvalidPointer reports a malformed JSON-pointer fragment.
type InvalidPointer struct {
	URI   string
	Cause error
}

func (e *InvalidPointer) Error() string {
	return fmt.Sprintf("invalid pointer fragment in %q: %v", e.URI, e.Cause)
}
func (e *InvalidPointer) Unwrap() error { return ErrInvalidPointer }

// PathNotFound reports a JSON pointer that does not resolve in its
// document.
type PathNotFound struct {
	URI string
}

func (e *PathNotFound) Error() string {
	return fmt.Sprintf("path not found: %q", e.URI)
}
func (e *PathNotFound) Unwrap() error { return ErrPathNotFound }

// UnknownAnchor reports a plain-name fragment with no registered anchor.
type UnknownAnchor struct {
	URI string
}

func (e *UnknownAnchor) Error() string {
	return fmt.Sprintf("unknown anchor: %q", e.URI)
}
func (e *UnknownAnchor) Unwrap() error { return ErrUnknownAnchor }

// SchemaNotFound reports a reference edge whose target could not be
// located at patch time.
type SchemaNotFound struct {
	URI   string
	Cause error
}

func (e *SchemaNotFound) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("schema not found: %q: %v", e.URI, e.Cause)
	}
	return fmt.Sprintf("schema not found: %q", e.URI)
}
func (e *SchemaNotFound) Unwrap() error { return ErrSchemaNotFound }

// DuplicateLink reports two distinct schemas claiming the same URI.
type DuplicateLink struct {
	URI      string
	Existing any
}

func (e *DuplicateLink) Error() string {
	return fmt.Sprintf("duplicate link for %q (existing key %v)", e.URI, e.Existing)
}
func (e *DuplicateLink) Unwrap() error { return ErrDuplicateLink }

// InvalidType reports a JSON value of an unexpected kind.
type InvalidType struct {
	Expected string
	Actual   string
	Value    any
}

func (e *InvalidType) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}
func (e *InvalidType) Unwrap() error { return ErrInvalidType }

// NumberParse reports a big-number parse failure.
type NumberParse struct {
	Value string
	Index int
	Cause error
}

func (e *NumberParse) Error() string {
	return fmt.Sprintf("invalid number %q at byte %d: %v", e.Value, e.Index, e.Cause)
}
func (e *NumberParse) Unwrap() error { return ErrNumberParse }

// CyclicEmbedding reports a cycle in the embedded-schema graph, which is
// forbidden (I6), unlike reference cycles.
type CyclicEmbedding struct {
	From, To string
}

func (e *CyclicEmbedding) Error() string {
	return fmt.Sprintf("cyclic embedding: %q embeds %q which embeds back to %q", e.From, e.To, e.From)
}
func (e *CyclicEmbedding) Unwrap() error { return ErrCyclicEmbedding }

// SchemaInvalid wraps a failed metaschema-validation report.
type SchemaInvalid struct {
	URI    string
	Report any
}

func (e *SchemaInvalid) Error() string {
	return fmt.Sprintf("schema %q is invalid against its metaschema", e.URI)
}
func (e *SchemaInvalid) Unwrap() error { return ErrSchemaInvalid }
