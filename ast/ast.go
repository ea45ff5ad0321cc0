// Package ast declares the full-fidelity abstract syntax tree produced by
// the NOML parser. Every node retains its source Span, and the Document
// root retains the original source buffer, so that an unmodified document
// can always be serialized back into byte-identical text.
package ast

import (
	"strings"

	"github.com/noml-lang/noml-go/token"
)

// Node is implemented by every AST node.
type Node interface {
	Span() token.Span
}

// Item is implemented by every top-level (document-order) statement:
// key-values, table headers, array-of-tables headers, includes, comments,
// and blank lines. The Document body is a flat, source-ordered list of
// Items — comments and blank lines are themselves items rather than
// trivia hidden inside neighboring nodes, matching how the specification
// enumerates them as peers.
type Item interface {
	Node
	itemNode()
}

// KeyPath is an ordered list of key segments, e.g. ["server", "port"] for
// the dotted key "server.port".
type KeyPath []string

// String renders the path using dots, quoting segments that are not bare
// identifiers.
func (p KeyPath) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		if isBareKey(s) {
			parts[i] = s
		} else {
			parts[i] = `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
		}
	}
	return strings.Join(parts, ".")
}

func isBareKey(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '-':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Clone returns a copy of the path.
func (p KeyPath) Clone() KeyPath {
	out := make(KeyPath, len(p))
	copy(out, p)
	return out
}

// Join returns a new path with suffix appended.
func (p KeyPath) Join(suffix KeyPath) KeyPath {
	out := make(KeyPath, 0, len(p)+len(suffix))
	out = append(out, p...)
	out = append(out, suffix...)
	return out
}

// Value is implemented by every value expression node.
type Value interface {
	Node
	valueNode()
}

// Comment is a `#`-to-end-of-line comment, preserved as its own item when
// standalone, or referenced from KeyValue/TableHeader/ArrayTableHeader as a
// same-line trailing comment.
type Comment struct {
	Sp         token.Span // the full physical line, including any indent
	Text       string     // raw text, including the leading '#'
	NewlineRaw string     // terminator that followed this line in source
}

func (c *Comment) Span() token.Span { return c.Sp }
func (c *Comment) itemNode()        {}

// BlankLine records a preserved empty line between items.
type BlankLine struct {
	Sp         token.Span
	NewlineRaw string
}

func (b *BlankLine) Span() token.Span { return b.Sp }
func (b *BlankLine) itemNode()        {}

// KeyValue is a `key = value` item. Scope holds the enclosing table path
// in effect when this item was parsed (set by the most recent TableHeader
// or ArrayTableHeader); AbsPath returns Scope+Key.
//
// Sp spans the full physical line (including leading indentation and any
// trailing comment); this is what the serializer copies verbatim for an
// unmodified item.
type KeyValue struct {
	Sp              token.Span
	NewlineRaw      string
	Scope           KeyPath
	// ScopeIsArray is true when Scope was opened by the most recent
	// `[[a.b]]` header rather than a plain `[a.b]` header, meaning this
	// item belongs to the latest appended array-of-tables element rather
	// than a single shared table.
	ScopeIsArray bool
	Key          KeyPath
	KeySpan      token.Span
	EqualsSpan      token.Span
	LeadingWS       string // raw whitespace between key and '='
	TrailingWS      string // raw whitespace between '=' and value
	Value           Value
	TrailingGap     string // raw whitespace between the value and TrailingComment (or EOL)
	TrailingComment *Comment

	// Modified marks that Value (or the item itself) was changed via the
	// mutation API after parsing; New marks that the item did not exist in
	// the original source at all (appended by a mutation).
	Modified bool
	New      bool
	// Removed tombstones an item deleted via remove(); the serializer
	// skips it and its format entirely.
	Removed bool
}

func (kv *KeyValue) Span() token.Span { return kv.Sp }
func (kv *KeyValue) itemNode()        {}

// AbsPath returns the fully-qualified dotted path of this key-value,
// combining the enclosing table scope with its own local key.
func (kv *KeyValue) AbsPath() KeyPath { return kv.Scope.Join(kv.Key) }

// TableHeader is a `[a.b]` item opening scope for subsequent key-values.
type TableHeader struct {
	Sp              token.Span
	NewlineRaw      string
	Path            KeyPath
	PathSpan        token.Span
	TrailingGap     string
	TrailingComment *Comment
}

func (h *TableHeader) Span() token.Span { return h.Sp }
func (h *TableHeader) itemNode()        {}

// ArrayTableHeader is a `[[a.b]]` item appending a new table to the array
// at Path.
type ArrayTableHeader struct {
	Sp              token.Span
	NewlineRaw      string
	Path            KeyPath
	PathSpan        token.Span
	TrailingGap     string
	TrailingComment *Comment
	// Index is the zero-based position of this header among all headers
	// sharing the same Path, i.e. which array element it appends.
	Index int
}

func (h *ArrayTableHeader) Span() token.Span { return h.Sp }
func (h *ArrayTableHeader) itemNode()        {}

// Include is a top-level `include "path"` item, merging the referenced
// document's top-level items into the enclosing scope at this position.
type Include struct {
	Sp              token.Span
	NewlineRaw      string
	PathLit         *StringLit
	TrailingGap     string
	TrailingComment *Comment
	Scope           KeyPath
	ScopeIsArray    bool
}

func (inc *Include) Span() token.Span { return inc.Sp }
func (inc *Include) itemNode()        {}

// ---------------------------------------------------------------------------
// Value expressions.

// StringLit is a scalar string literal in any of the four NOML quote
// styles. Decoded holds the escape-processed (or verbatim, for literal
// strings) value; Interp holds the parsed ${...} interpolation segments
// when Decoded contains any, nil otherwise.
type StringLit struct {
	Sp      token.Span
	Kind    token.StringKind
	Raw     string // original source text, including quotes
	Decoded string

	Interp []InterpSegment // nil unless the string contains ${...}

	Modified bool
	New      string // replacement logical value when Modified
}

func (s *StringLit) Span() token.Span { return s.Sp }
func (s *StringLit) valueNode()       {}

// InterpSegment is either a literal run of text or a `${path}` reference
// within an interpolated string.
type InterpSegment struct {
	Literal string  // set when Path == nil
	Path    KeyPath // set when this segment is a ${path} reference
}

// IntLit is an integer literal, recording its original base so the
// serializer can preserve `0x7f` vs `127`.
type IntLit struct {
	Sp    token.Span
	Raw   string
	Value int64
	Base  token.IntBase

	Modified bool
	New      int64
}

func (i *IntLit) Span() token.Span { return i.Sp }
func (i *IntLit) valueNode()       {}

// FloatLit is a float literal, including `inf`/`nan` spellings.
type FloatLit struct {
	Sp    token.Span
	Raw   string
	Value float64

	Modified bool
	New      float64
}

func (f *FloatLit) Span() token.Span { return f.Sp }
func (f *FloatLit) valueNode()       {}

// BoolLit is `true` or `false`.
type BoolLit struct {
	Sp    token.Span
	Value bool

	Modified bool
	New      bool
}

func (b *BoolLit) Span() token.Span { return b.Sp }
func (b *BoolLit) valueNode()       {}

// NullLit is the `null` literal.
type NullLit struct {
	Sp token.Span
}

func (n *NullLit) Span() token.Span { return n.Sp }
func (n *NullLit) valueNode()       {}

// ArrayLit is a `[ v, v, ... ]` literal, permitting internal newlines and a
// trailing comma.
type ArrayLit struct {
	Sp       token.Span
	LBrack   token.Span
	RBrack   token.Span
	Elems    []Value
	Trailing bool // trailing comma present

	Modified bool // elements replaced wholesale (e.g. by set() on the array itself)
}

func (a *ArrayLit) Span() token.Span { return a.Sp }
func (a *ArrayLit) valueNode()       {}

// InlineField is one `key = value` pair inside an InlineTable.
type InlineField struct {
	Key        KeyPath
	KeySpan    token.Span
	EqualsSpan token.Span
	Value      Value
}

// InlineTable is a `{ k = v, k = v }` literal, restricted to a single line.
type InlineTable struct {
	Sp     token.Span
	LBrace token.Span
	RBrace token.Span
	Fields []InlineField

	Modified bool
}

func (t *InlineTable) Span() token.Span { return t.Sp }
func (t *InlineTable) valueNode()       {}

// EnvCall is `env("NAME")` or `env("NAME", default)`.
type EnvCall struct {
	Sp      token.Span
	Name    *StringLit
	Default Value // nil if no default given
}

func (e *EnvCall) Span() token.Span { return e.Sp }
func (e *EnvCall) valueNode()       {}

// NativeCall is `@name("arg")`.
type NativeCall struct {
	Sp   token.Span
	At   token.Span
	Name string
	Arg  *StringLit
}

func (n *NativeCall) Span() token.Span { return n.Sp }
func (n *NativeCall) valueNode()       {}

// IncludeExpr is `include "path"` used as a value (the RHS of a
// key-value), as opposed to a top-level Include item.
type IncludeExpr struct {
	Sp      token.Span
	PathLit *StringLit
}

func (e *IncludeExpr) Span() token.Span { return e.Sp }
func (e *IncludeExpr) valueNode()       {}

// ---------------------------------------------------------------------------
// Document.

// Document is the full-fidelity root of a parsed NOML source file: a flat,
// source-ordered list of top-level Items plus enough format metadata
// (dominant line ending, retained source bytes) to reconstruct the
// original text exactly where it was not mutated.
type Document struct {
	Filename string
	Source   []byte // retained verbatim for the life of the document
	File     *token.File
	Items    []Item

	// NewlineStyle is "\n" or "\r\n", whichever dominates the source; new
	// lines inserted by mutation use this style.
	NewlineStyle string
	// HadBOM records whether the source began with a UTF-8 BOM. The BOM is
	// tolerated on input and kept out of Source and every span; the
	// serializer writes it back in front of the output so that a round
	// trip stays byte-identical.
	HadBOM bool
}

// KeyValues returns every KeyValue item in source order, skipping removed
// ones.
func (d *Document) KeyValues() []*KeyValue {
	var out []*KeyValue
	for _, it := range d.Items {
		if kv, ok := it.(*KeyValue); ok && !kv.Removed {
			out = append(out, kv)
		}
	}
	return out
}

// Find returns the KeyValue item whose absolute path equals path, or nil.
func (d *Document) Find(path KeyPath) *KeyValue {
	for _, kv := range d.KeyValues() {
		if pathEqual(kv.AbsPath(), path) {
			return kv
		}
	}
	return nil
}

func pathEqual(a, b KeyPath) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
