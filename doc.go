// Package jsonschema implements a JSON Schema compiler and evaluator: an
// Engine compiles schema documents into a sandboxed graph of keyword
// instances (internal/compile) and evaluates instances against a
// compiled schema (internal/evaluate), supporting Draft 2020-12 and
// Draft-07 out of the box (dialect.New202012, dialect.Draft07) and any
// additional dialect a caller registers.
//
// Credit to https://github.com/santhosh-tekuri/jsonschema for format validators.
package jsonschema
