// Package noml implements the NOML configuration language: TOML extended
// with environment-variable lookups, file inclusion, string
// interpolation, and typed value constructors. This file exposes the
// library's abstract surface over the lexer/parser/resolver/format
// packages; see those packages for the underlying mechanics.
package noml

import (
	"path/filepath"

	"github.com/noml-lang/noml-go/ast"
	"github.com/noml-lang/noml-go/format"
	"github.com/noml-lang/noml-go/parser"
	"github.com/noml-lang/noml-go/resolve"
	"github.com/noml-lang/noml-go/value"
)

// Document is a full-fidelity parse tree, re-exported so callers of this
// package never need to import the ast package directly.
type Document = ast.Document

// Value is the resolved, typed configuration tree.
type Value = value.Value

// ResolveConfig controls the resolver's configurable behaviors (env,
// includes, interpolation, native strictness); see resolve.Config.
type ResolveConfig = resolve.Config

// DefaultResolveConfig returns the resolver defaults a bare Parse call
// uses.
func DefaultResolveConfig() ResolveConfig { return resolve.DefaultConfig() }

// Parse lexes, parses, and fully resolves text under the default
// resolver configuration (base_path ".").
func Parse(text []byte) (*Value, error) {
	doc, err := parser.Parse("<string>", text)
	if err != nil {
		return nil, err
	}
	return resolve.Resolve(doc, resolve.DefaultConfig())
}

// ParseFromFile reads, parses, and fully resolves the file at path,
// using its containing directory as the resolver's base_path so that
// relative `include` directives are resolved the way a human editing
// that file would expect.
func ParseFromFile(path string) (*Value, error) {
	raw, err := resolve.OSLoader.Load(path)
	if err != nil {
		return nil, err
	}
	doc, err := parser.Parse(path, raw)
	if err != nil {
		return nil, err
	}
	cfg := resolve.DefaultConfig()
	cfg.BasePath = filepath.Dir(path)
	return resolve.Resolve(doc, cfg)
}

// Validate lexes and parses text, performing no resolution: it reports
// whether text is syntactically valid NOML.
func Validate(text []byte) error {
	_, err := parser.Parse("<string>", text)
	return err
}

// ParseRaw lexes and parses text into a Document without resolving it;
// the caller drives resolution itself via Resolve.
func ParseRaw(filename string, text []byte) (*Document, error) {
	return parser.Parse(filename, text)
}

// ParsePreserving is an alias for ParseRaw: the parser always retains
// full format metadata, so there is no separate non-preserving mode.
func ParsePreserving(filename string, text []byte) (*Document, error) {
	return parser.Parse(filename, text)
}

// Modify applies fn (a set of format.Set/format.Remove calls) to doc.
func Modify(doc *Document, fn func(*Document) error) error {
	return fn(doc)
}

// Serialize renders doc back to source text, preserving every byte
// outside spans touched by Modify.
func Serialize(doc *Document) []byte {
	return format.Serialize(doc)
}

// Resolve evaluates doc into a Value tree under cfg.
func Resolve(doc *Document, cfg ResolveConfig) (*Value, error) {
	return resolve.Resolve(doc, cfg)
}
