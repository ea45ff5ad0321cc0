// Package parser implements a recursive-descent parser that turns NOML
// source text into a full-fidelity ast.Document. The grammar is LL(1): the
// parser looks at most one significant (non-whitespace, non-comment)
// token ahead to decide what production to take.
package parser

import (
	"fmt"
	"strings"

	"github.com/noml-lang/noml-go/ast"
	nomlerrors "github.com/noml-lang/noml-go/errors"
	"github.com/noml-lang/noml-go/lexer"
	"github.com/noml-lang/noml-go/token"
)

// Parse lexes and parses src into a full-fidelity Document. It returns the
// first syntactic or lexical error encountered; there is no error
// recovery.
func Parse(filename string, src []byte) (*ast.Document, error) {
	p := &parser{filename: filename}
	return p.parse(src)
}

type pathKind int

const (
	kindNone pathKind = iota
	kindTable
	kindArrayTable
	kindScalar
)

type parser struct {
	filename string
	src      []byte
	file     *token.File
	toks     []lexer.Token
	pos      int

	kinds     map[string]pathKind
	explicit  map[string]bool // table headers ([x]) explicitly declared at least once
	arrayLens map[string]int  // path -> number of [[x]] entries appended so far

	err *nomlerrors.Error // first error; bailout aborts via panic(bailout{})
}

type bailout struct{}

func (p *parser) parse(src []byte) (doc *ast.Document, outErr error) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); ok {
				outErr = p.err
				return
			}
			panic(r)
		}
	}()

	p.src = src
	hadBOM := false
	if len(src) >= 3 && src[0] == 0xEF && src[1] == 0xBB && src[2] == 0xBF {
		hadBOM = true
		src = src[3:]
		p.src = src
	}
	p.file = token.NewFile(p.filename, len(src))
	p.kinds = map[string]pathKind{}
	p.explicit = map[string]bool{}
	p.arrayLens = map[string]int{}

	lx := lexer.New(p.file, src, func(span token.Span, msg string) {
		p.fail(nomlerrors.Lexf(p.filename, span, "%s", msg))
	})
	for {
		t := lx.Scan()
		p.toks = append(p.toks, t)
		if t.Kind == token.EOF {
			break
		}
	}

	items := p.parseItems()

	doc = &ast.Document{
		Filename:     p.filename,
		Source:       src,
		File:         p.file,
		Items:        items,
		NewlineStyle: dominantNewline(src),
		HadBOM:       hadBOM,
	}
	return doc, nil
}

func dominantNewline(src []byte) string {
	crlf, lf := 0, 0
	for i, b := range src {
		if b == '\n' {
			if i > 0 && src[i-1] == '\r' {
				crlf++
			} else {
				lf++
			}
		}
	}
	if crlf > lf {
		return "\r\n"
	}
	return "\n"
}

func (p *parser) fail(e *nomlerrors.Error) {
	if p.err == nil {
		p.err = e
	}
	panic(bailout{})
}

func (p *parser) failf(span token.Span, format string, args ...interface{}) {
	p.fail(nomlerrors.Parsef(p.filename, span, format, args...))
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// consumeWS consumes a single WS token if present and returns its raw
// text, or "" otherwise.
func (p *parser) consumeWS() string {
	if p.cur().Kind == token.WS {
		t := p.advance()
		return t.Raw
	}
	return ""
}

// skipInsignificant consumes WS, and (if allowNewline) NEWLINE and COMMENT
// tokens, used inside arrays where they carry no structural meaning.
func (p *parser) skipInsignificant(allowNewline bool) {
	for {
		switch p.cur().Kind {
		case token.WS:
			p.advance()
		case token.NEWLINE, token.COMMENT:
			if !allowNewline {
				return
			}
			p.advance()
		default:
			return
		}
	}
}

func (p *parser) expect(k token.Token) lexer.Token {
	if p.cur().Kind != k {
		p.failf(p.cur().Span, "expected %s, found %s", k, p.cur().Kind)
	}
	return p.advance()
}

// ---------------------------------------------------------------------------
// Top-level items.

func (p *parser) parseItems() []ast.Item {
	var items []ast.Item
	scope := ast.KeyPath{}

	for p.cur().Kind != token.EOF {
		lineStart := p.cur().Span.Start
		indent := p.consumeWS()

		switch p.cur().Kind {
		case token.NEWLINE:
			nl := p.advance()
			items = append(items, &ast.BlankLine{
				Sp:         p.file.Span(int(lineStart), int(lineStart)+len(indent)),
				NewlineRaw: nl.Raw,
			})
			continue
		case token.EOF:
			// trailing whitespace with no newline: kept as a final
			// BlankLine without a terminator so it serializes back verbatim.
			items = append(items, &ast.BlankLine{
				Sp: p.file.Span(int(lineStart), int(lineStart)+len(indent)),
			})
			continue
		case token.COMMENT:
			c := p.advance()
			nlRaw := p.consumeLineEnd()
			items = append(items, &ast.Comment{
				Sp:         p.file.Span(int(lineStart), int(c.Span.End)),
				Text:       c.Raw,
				NewlineRaw: nlRaw,
			})
			continue
		case token.DLBRACK:
			items = append(items, p.parseArrayTableHeader(lineStart, scope))
			scope = items[len(items)-1].(*ast.ArrayTableHeader).Path
			continue
		case token.LBRACK:
			items = append(items, p.parseTableHeader(lineStart))
			scope = items[len(items)-1].(*ast.TableHeader).Path
			continue
		}

		if p.cur().Kind == token.BARE && p.cur().Raw == "include" && p.peekIsStringAfterWS() {
			items = append(items, p.parseTopLevelInclude(lineStart, scope))
			continue
		}

		items = append(items, p.parseKeyValue(lineStart, scope))
	}
	return items
}

// peekIsStringAfterWS reports whether, after the current "include" bare
// token and a single run of whitespace, a STRING token follows — the
// signal that distinguishes the `include "path"` statement from a bare
// key literally named "include".
func (p *parser) peekIsStringAfterWS() bool {
	i := p.pos + 1
	if i < len(p.toks) && p.toks[i].Kind == token.WS {
		i++
	}
	return i < len(p.toks) && p.toks[i].Kind == token.STRING
}

// consumeLineEnd consumes the NEWLINE terminating the current line, if
// any, returning its raw bytes ("" at EOF with no trailing newline).
func (p *parser) consumeLineEnd() string {
	if p.cur().Kind == token.NEWLINE {
		return p.advance().Raw
	}
	return ""
}

// parseTrailingComment consumes an optional run of whitespace followed by
// a `#` comment before the end of the line, returning the gap text and the
// comment node (nil if absent).
func (p *parser) parseTrailingComment() (gap string, c *ast.Comment) {
	gap = p.consumeWS()
	if p.cur().Kind == token.COMMENT {
		t := p.advance()
		c = &ast.Comment{Sp: t.Span, Text: t.Raw}
	}
	return gap, c
}

func (p *parser) parseKeyPath() (ast.KeyPath, token.Span) {
	start := p.cur().Span.Start
	var segs ast.KeyPath
	for {
		switch p.cur().Kind {
		case token.BARE:
			segs = append(segs, p.advance().Raw)
		case token.STRING:
			t := p.advance()
			s, err := t.Decoded()
			if err != nil {
				p.failf(t.Span, "invalid key string: %v", err)
			}
			segs = append(segs, s)
		default:
			p.failf(p.cur().Span, "expected key, found %s", p.cur().Kind)
		}
		if p.cur().Kind == token.DOT {
			p.advance()
			continue
		}
		break
	}
	end := p.toks[p.pos-1].Span.End
	return segs, p.file.Span(int(start), int(end))
}

func (p *parser) parseTableHeader(lineStart token.Pos) *ast.TableHeader {
	p.advance() // '['
	path, pathSpan := p.parseKeyPath()
	p.expect(token.RBRACK)
	gap, cg := p.parseTrailingComment()
	end := p.toks[p.pos-1].Span.End
	nl := p.consumeLineEnd()

	abs := path.String()
	p.declareTable(abs, pathSpan, true)

	return &ast.TableHeader{
		Sp:              p.file.Span(int(lineStart), int(end)),
		NewlineRaw:      nl,
		Path:            path,
		PathSpan:        pathSpan,
		TrailingGap:     gap,
		TrailingComment: cg,
	}
}

func (p *parser) parseArrayTableHeader(lineStart token.Pos, scope ast.KeyPath) *ast.ArrayTableHeader {
	p.advance() // '[['
	path, pathSpan := p.parseKeyPath()
	p.expect(token.DRBRACK)
	gap, cg := p.parseTrailingComment()
	end := p.toks[p.pos-1].Span.End
	nl := p.consumeLineEnd()

	abs := path.String()
	switch p.kinds[abs] {
	case kindNone, kindArrayTable:
		p.kinds[abs] = kindArrayTable
	default:
		p.failf(pathSpan, "%q is already declared and is not an array of tables", abs)
	}
	idx := p.arrayLens[abs]
	p.arrayLens[abs] = idx + 1

	return &ast.ArrayTableHeader{
		Sp:              p.file.Span(int(lineStart), int(end)),
		NewlineRaw:      nl,
		Path:            path,
		PathSpan:        pathSpan,
		TrailingGap:     gap,
		TrailingComment: cg,
		Index:           idx,
	}
}

// declareTable registers abs (and, transitively, every ancestor prefix) as
// a table, applying the redeclaration rules from the specification:
// redeclaring an already-explicit header is an error; redeclaring a header
// that was only auto-created by a nested path is allowed exactly once.
func (p *parser) declareTable(abs string, span token.Span, explicitHeader bool) {
	segs := strings.Split(abs, ".")
	for i := 1; i <= len(segs); i++ {
		prefix := strings.Join(segs[:i], ".")
		final := i == len(segs)
		switch p.kinds[prefix] {
		case kindNone:
			p.kinds[prefix] = kindTable
		case kindTable:
			// ok, either auto-created earlier or explicit ancestor
		case kindScalar:
			p.failf(span, "%q is already defined as a value, not a table", prefix)
		case kindArrayTable:
			if !final {
				// targeting through an array-of-tables name as a plain
				// table prefix is not supported.
				p.failf(span, "%q is an array of tables, not a table", prefix)
			}
		}
		if final && explicitHeader {
			if p.explicit[prefix] {
				p.failf(span, "table %q redeclared", prefix)
			}
			p.explicit[prefix] = true
		}
	}
}

func (p *parser) parseTopLevelInclude(lineStart token.Pos, scope ast.KeyPath) *ast.Include {
	p.advance() // "include"
	p.consumeWS()
	lit := p.parseStringLitArg()
	gap, cg := p.parseTrailingComment()
	end := p.toks[p.pos-1].Span.End
	nl := p.consumeLineEnd()
	return &ast.Include{
		Sp:              p.file.Span(int(lineStart), int(end)),
		NewlineRaw:      nl,
		PathLit:         lit,
		TrailingGap:     gap,
		TrailingComment: cg,
		Scope:           scope,
		ScopeIsArray:    len(scope) > 0 && p.kinds[scope.String()] == kindArrayTable,
	}
}

func (p *parser) parseKeyValue(lineStart token.Pos, scope ast.KeyPath) *ast.KeyValue {
	key, keySpan := p.parseKeyPath()
	leadingWS := p.consumeWS()
	eq := p.expect(token.EQUALS)
	trailingWS := p.consumeWS()
	value := p.parseValue()
	gap, cg := p.parseTrailingComment()
	end := p.toks[p.pos-1].Span.End
	nl := p.consumeLineEnd()

	scopeIsArray := len(scope) > 0 && p.kinds[scope.String()] == kindArrayTable
	abs := scope.Join(key)
	if scopeIsArray {
		// Keys under [[a.b]] are unique per appended element, so they are
		// registered under that element rather than under the array path.
		elem := fmt.Sprintf("%s[%d]", scope.String(), p.arrayLens[scope.String()]-1)
		abs = append(ast.KeyPath{elem}, key...)
	}
	p.declareKey(abs, keySpan)

	return &ast.KeyValue{
		Sp:              p.file.Span(int(lineStart), int(end)),
		NewlineRaw:      nl,
		Scope:           scope,
		ScopeIsArray:    scopeIsArray,
		Key:             key,
		KeySpan:         keySpan,
		EqualsSpan:      eq.Span,
		LeadingWS:       leadingWS,
		TrailingWS:      trailingWS,
		Value:           value,
		TrailingGap:     gap,
		TrailingComment: cg,
	}
}

// declareKey registers every intermediate segment of abs (save the last)
// as an auto-created table, and the final segment as a scalar, failing on
// any collision or exact duplicate.
func (p *parser) declareKey(abs ast.KeyPath, span token.Span) {
	if len(abs) == 0 {
		return
	}
	for i := 1; i < len(abs); i++ {
		prefix := strings.Join(abs[:i], ".")
		switch p.kinds[prefix] {
		case kindNone:
			p.kinds[prefix] = kindTable
		case kindTable:
		default:
			p.failf(span, "%q is not a table", prefix)
		}
	}
	full := strings.Join(abs, ".")
	if p.kinds[full] != kindNone {
		p.failf(span, "duplicate key %q", full)
	}
	p.kinds[full] = kindScalar
}

// ---------------------------------------------------------------------------
// Value expressions.

func (p *parser) parseValue() ast.Value {
	t := p.cur()
	switch t.Kind {
	case token.STRING:
		return p.parseStringLitValue()
	case token.INT:
		p.advance()
		return &ast.IntLit{Sp: t.Span, Raw: t.Raw, Value: t.IntValue, Base: t.IntBase}
	case token.FLOAT:
		p.advance()
		return &ast.FloatLit{Sp: t.Span, Raw: t.Raw, Value: t.FloatValue}
	case token.BOOL:
		p.advance()
		return &ast.BoolLit{Sp: t.Span, Value: t.BoolValue}
	case token.NULL:
		p.advance()
		return &ast.NullLit{Sp: t.Span}
	case token.LBRACK:
		return p.parseArrayLit()
	case token.LBRACE:
		return p.parseInlineTable()
	case token.AT:
		return p.parseNativeCall()
	case token.BARE:
		switch t.Raw {
		case "env":
			return p.parseEnvCall()
		case "include":
			return p.parseIncludeExpr()
		}
	}
	p.failf(t.Span, "expected a value, found %s", t.Kind)
	return nil
}

func (p *parser) parseStringLitValue() *ast.StringLit {
	t := p.advance()
	decoded, err := t.Decoded()
	if err != nil {
		p.failf(t.Span, "invalid string literal: %v", err)
	}
	s := &ast.StringLit{Sp: t.Span, Kind: t.StringKind, Raw: t.Raw, Decoded: decoded}
	if t.StringKind == token.BasicString || t.StringKind == token.MultilineBasicString ||
		t.StringKind == token.LiteralString || t.StringKind == token.MultilineLiteralString {
		segs, err := parseInterpolation(decoded)
		if err != nil {
			p.failf(t.Span, "%v", err)
		}
		if len(segs) > 1 || (len(segs) == 1 && segs[0].Path != nil) {
			s.Interp = segs
		}
	}
	return s
}

// parseStringLitArg parses a string literal used as a function argument
// (env name, native call argument, include path): no interpolation
// scanning is performed, matching the specification's scoping of
// interpolation to ordinary string values.
func (p *parser) parseStringLitArg() *ast.StringLit {
	t := p.expect(token.STRING)
	decoded, err := t.Decoded()
	if err != nil {
		p.failf(t.Span, "invalid string literal: %v", err)
	}
	return &ast.StringLit{Sp: t.Span, Kind: t.StringKind, Raw: t.Raw, Decoded: decoded}
}

func (p *parser) parseArrayLit() *ast.ArrayLit {
	lb := p.expect(token.LBRACK)
	p.skipInsignificant(true)
	var elems []ast.Value
	trailing := false
	for p.cur().Kind != token.RBRACK {
		elems = append(elems, p.parseValue())
		p.skipInsignificant(true)
		if p.cur().Kind == token.COMMA {
			p.advance()
			trailing = true
			p.skipInsignificant(true)
			if p.cur().Kind == token.RBRACK {
				break
			}
			trailing = false
			continue
		}
		break
	}
	rb := p.expect(token.RBRACK)
	return &ast.ArrayLit{
		Sp:       p.file.Span(int(lb.Span.Start), int(rb.Span.End)),
		LBrack:   lb.Span,
		RBrack:   rb.Span,
		Elems:    elems,
		Trailing: trailing,
	}
}

func (p *parser) parseInlineTable() *ast.InlineTable {
	lb := p.expect(token.LBRACE)
	p.skipInsignificant(false)
	var fields []ast.InlineField
	seen := map[string]bool{}
	for p.cur().Kind != token.RBRACE {
		key, keySpan := p.parseKeyPath()
		name := key.String()
		if seen[name] {
			p.failf(keySpan, "duplicate key %q", name)
		}
		seen[name] = true
		p.skipInsignificant(false)
		eq := p.expect(token.EQUALS)
		p.skipInsignificant(false)
		val := p.parseValue()
		fields = append(fields, ast.InlineField{Key: key, KeySpan: keySpan, EqualsSpan: eq.Span, Value: val})
		p.skipInsignificant(false)
		if p.cur().Kind == token.COMMA {
			p.advance()
			p.skipInsignificant(false)
			continue
		}
		break
	}
	rb := p.expect(token.RBRACE)
	return &ast.InlineTable{
		Sp:     p.file.Span(int(lb.Span.Start), int(rb.Span.End)),
		LBrace: lb.Span,
		RBrace: rb.Span,
		Fields: fields,
	}
}

func (p *parser) parseEnvCall() *ast.EnvCall {
	start := p.cur().Span.Start
	p.advance() // "env"
	p.skipInsignificant(false)
	p.expect(token.LPAREN)
	p.skipInsignificant(false)
	name := p.parseStringLitArg()
	p.skipInsignificant(false)
	var def ast.Value
	if p.cur().Kind == token.COMMA {
		p.advance()
		p.skipInsignificant(false)
		def = p.parseValue()
		p.skipInsignificant(false)
	}
	rp := p.expect(token.RPAREN)
	return &ast.EnvCall{Sp: p.file.Span(int(start), int(rp.Span.End)), Name: name, Default: def}
}

func (p *parser) parseIncludeExpr() *ast.IncludeExpr {
	start := p.cur().Span.Start
	p.advance() // "include"
	p.skipInsignificant(false)
	lit := p.parseStringLitArg()
	return &ast.IncludeExpr{Sp: p.file.Span(int(start), int(lit.Sp.End)), PathLit: lit}
}

func (p *parser) parseNativeCall() *ast.NativeCall {
	at := p.expect(token.AT)
	nameTok := p.expect(token.BARE)
	p.skipInsignificant(false)
	p.expect(token.LPAREN)
	p.skipInsignificant(false)
	arg := p.parseStringLitArg()
	p.skipInsignificant(false)
	rp := p.expect(token.RPAREN)
	return &ast.NativeCall{
		Sp:   p.file.Span(int(at.Span.Start), int(rp.Span.End)),
		At:   at.Span,
		Name: nameTok.Raw,
		Arg:  arg,
	}
}

// ---------------------------------------------------------------------------
// ${...} interpolation scanning. The resolver substitutes the segments
// recorded in StringLit.Interp; a mutated string (StringLit.Modified) is
// not rescanned.

// parseInterpolation splits a decoded string into literal and ${path}
// segments. "$$" is a literal escaped dollar sign.
func parseInterpolation(s string) ([]ast.InterpSegment, error) {
	var segs []ast.InterpSegment
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, ast.InterpSegment{Literal: lit.String()})
			lit.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '$' {
			lit.WriteByte(c)
			continue
		}
		if i+1 < len(s) && s[i+1] == '$' {
			lit.WriteByte('$')
			i++
			continue
		}
		if i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated interpolation %q", s[i:])
			}
			pathStr := s[i+2 : i+2+end]
			flush()
			segs = append(segs, ast.InterpSegment{Path: splitPath(pathStr)})
			i = i + 2 + end
			continue
		}
		lit.WriteByte(c)
	}
	flush()
	return segs, nil
}

func splitPath(s string) ast.KeyPath {
	parts := strings.Split(strings.TrimSpace(s), ".")
	out := make(ast.KeyPath, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
