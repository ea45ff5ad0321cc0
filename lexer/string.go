package lexer

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/noml-lang/noml-go/token"
)

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
	nanVal = math.NaN()
)

// scanString scans a basic, literal, or multi-line string starting at the
// opening quote rune. It does not decode escapes; that is deferred to
// Token.Decoded.
func (l *Lexer) scanString(start int, quote rune) Token {
	numQuotes, kind := l.countOpeningQuotes(quote)
	for i := 1; i < numQuotes; i++ {
		l.next()
	}
	l.next() // consume final opening quote

	bodyStart := l.offset
	for {
		if l.ch == -1 {
			l.error(start, l.offset, "string literal not terminated")
			return Token{Kind: token.STRING, Span: l.span(start), Raw: string(l.src[start:l.offset]), StringKind: kind}
		}
		if l.ch == quote {
			n := l.countRunQuotes(quote)
			if n >= numQuotes {
				for i := 0; i < numQuotes; i++ {
					l.next()
				}
				break
			}
		}
		if l.ch == '\n' && numQuotes != 3 {
			l.error(start, l.offset, "string literal not terminated")
			return Token{Kind: token.STRING, Span: l.span(start), Raw: string(l.src[start:l.offset]), StringKind: kind}
		}
		if l.ch == '\\' && (kind == token.BasicString || kind == token.MultilineBasicString) {
			l.next()
			l.scanEscape(quote)
			continue
		}
		l.next()
	}
	_ = bodyStart
	return Token{Kind: token.STRING, Span: l.span(start), Raw: string(l.src[start:l.offset]), StringKind: kind}
}

func (l *Lexer) countOpeningQuotes(quote rune) (int, token.StringKind) {
	if l.peekRune() == quote {
		second := l.peekRuneAt(1)
		if second == quote {
			if quote == '"' {
				return 3, token.MultilineBasicString
			}
			return 3, token.MultilineLiteralString
		}
	}
	if quote == '"' {
		return 1, token.BasicString
	}
	return 1, token.LiteralString
}

func (l *Lexer) peekRuneAt(n int) rune {
	off := l.rdOffset
	for i := 0; i < n; i++ {
		if off >= len(l.src) {
			return -1
		}
		_, w := utf8.DecodeRune(l.src[off:])
		off += w
	}
	if off >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRune(l.src[off:])
	return r
}

// countRunQuotes reports how many consecutive quote runes occur starting
// at the current character, without consuming them.
func (l *Lexer) countRunQuotes(quote rune) int {
	n := 0
	off := l.offset
	for off < len(l.src) {
		r, w := utf8.DecodeRune(l.src[off:])
		if r != quote {
			break
		}
		n++
		off += w
	}
	return n
}

func (l *Lexer) scanEscape(quote rune) {
	switch l.ch {
	case '"', '\\', 'n', 'r', 't', 'b', 'f':
		l.next()
		return
	case 'u':
		l.next()
		l.scanHexDigits(4)
		return
	case 'U':
		l.next()
		l.scanHexDigits(8)
		return
	default:
		start := l.offset
		l.error(start, start+1, "unknown escape sequence \\%c", l.ch)
	}
}

func (l *Lexer) scanHexDigits(n int) {
	for i := 0; i < n; i++ {
		if digitVal(l.ch) >= 16 {
			l.error(l.offset, l.offset+1, "invalid hex digit in unicode escape")
			return
		}
		l.next()
	}
}

// decodeStringLiteral resolves the raw textual form of a STRING token
// (including its delimiters) into its logical value.
func decodeStringLiteral(raw string, kind token.StringKind) (string, error) {
	var delim string
	switch kind {
	case token.BasicString, token.LiteralString:
		delim = raw[:1]
	case token.MultilineBasicString, token.MultilineLiteralString:
		delim = raw[:3]
	}
	body := raw[len(delim) : len(raw)-len(delim)]

	if kind == token.MultilineBasicString || kind == token.MultilineLiteralString {
		if strings.HasPrefix(body, "\r\n") {
			body = body[2:]
		} else if strings.HasPrefix(body, "\n") {
			body = body[1:]
		}
	}

	if kind == token.LiteralString || kind == token.MultilineLiteralString {
		return body, nil
	}
	return unescapeBasic(body)
}

func unescapeBasic(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", fmt.Errorf("unterminated escape sequence")
		}
		switch s[i] {
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if i+4 >= len(s) {
				return "", fmt.Errorf("short \\u escape")
			}
			r, err := parseHexRune(s[i+1 : i+5])
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
			i += 4
		case 'U':
			if i+8 >= len(s) {
				return "", fmt.Errorf("short \\U escape")
			}
			r, err := parseHexRune(s[i+1 : i+9])
			if err != nil {
				return "", err
			}
			b.WriteRune(r)
			i += 8
		default:
			return "", fmt.Errorf("unknown escape sequence \\%c", s[i])
		}
	}
	return b.String(), nil
}

func parseHexRune(hex string) (rune, error) {
	var v int64
	for _, c := range hex {
		d := int64(digitVal(c))
		if d >= 16 {
			return 0, fmt.Errorf("invalid hex digit %q", c)
		}
		v = v*16 + d
	}
	return rune(v), nil
}
