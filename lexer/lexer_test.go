package lexer

import (
	"testing"

	"github.com/noml-lang/noml-go/token"
)

func scanAll(src string) []Token {
	f := token.NewFile("test", len(src))
	l := New(f, []byte(src), nil)
	var toks []Token
	for {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func kinds(toks []Token) []token.Token {
	out := make([]token.Token, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestScanPunctuation(t *testing.T) {
	toks := scanAll("[a.b] [[x]] { } = , @ ( )")
	got := kinds(toks)
	want := []token.Token{
		token.LBRACK, token.BARE, token.DOT, token.BARE, token.RBRACK, token.WS,
		token.DLBRACK, token.BARE, token.DRBRACK, token.WS,
		token.LBRACE, token.WS, token.RBRACE, token.WS,
		token.EQUALS, token.WS, token.COMMA, token.WS, token.AT, token.WS,
		token.LPAREN, token.WS, token.RPAREN, token.EOF,
	}
	if !equalKinds(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func equalKinds(a, b []token.Token) bool {
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

func TestScanIntegers(t *testing.T) {
	cases := []struct {
		src  string
		want int64
		base token.IntBase
	}{
		{"0", 0, token.Decimal},
		{"123", 123, token.Decimal},
		{"1_000", 1000, token.Decimal},
		{"0x7f", 0x7f, token.Hex},
		{"0o17", 0o17, token.Octal},
		{"0b101", 0b101, token.Binary},
		{"-42", -42, token.Decimal},
	}
	for _, c := range cases {
		toks := scanAll(c.src)
		if len(toks) < 1 || toks[0].Kind != token.INT {
			t.Fatalf("%q: expected INT, got %v", c.src, toks)
		}
		if toks[0].IntValue != c.want || toks[0].IntBase != c.base {
			t.Errorf("%q: got (%d,%v) want (%d,%v)", c.src, toks[0].IntValue, toks[0].IntBase, c.want, c.base)
		}
	}
}

func TestScanFloats(t *testing.T) {
	cases := []struct {
		src  string
		want float64
	}{
		{"1.5", 1.5},
		{"1e9", 1e9},
		{"-1.5e-3", -1.5e-3},
		{"inf", posInf},
		{"-inf", negInf},
	}
	for _, c := range cases {
		toks := scanAll(c.src)
		if toks[0].Kind != token.FLOAT {
			t.Fatalf("%q: expected FLOAT, got %v", c.src, toks[0].Kind)
		}
		if toks[0].FloatValue != c.want {
			t.Errorf("%q: got %v want %v", c.src, toks[0].FloatValue, c.want)
		}
	}
}

func TestScanStrings(t *testing.T) {
	cases := []struct {
		src  string
		kind token.StringKind
		want string
	}{
		{`"hi"`, token.BasicString, "hi"},
		{`"a\nb"`, token.BasicString, "a\nb"},
		{`'a\nb'`, token.LiteralString, `a\nb`},
		{"\"\"\"\nhi\"\"\"", token.MultilineBasicString, "hi"},
		{`"A"`, token.BasicString, "A"},
	}
	for _, c := range cases {
		toks := scanAll(c.src)
		if toks[0].Kind != token.STRING {
			t.Fatalf("%q: expected STRING, got %v", c.src, toks[0].Kind)
		}
		if toks[0].StringKind != c.kind {
			t.Errorf("%q: kind got %v want %v", c.src, toks[0].StringKind, c.kind)
		}
		got, err := toks[0].Decoded()
		if err != nil {
			t.Fatalf("%q: Decoded: %v", c.src, err)
		}
		if got != c.want {
			t.Errorf("%q: decoded got %q want %q", c.src, got, c.want)
		}
	}
}

func TestScanNewlineSignificant(t *testing.T) {
	toks := scanAll("a\nb")
	if len(toks) < 3 || toks[1].Kind != token.NEWLINE {
		t.Fatalf("expected NEWLINE token between bare words, got %v", kinds(toks))
	}
}

func TestScanBoolAndNull(t *testing.T) {
	toks := scanAll("true false null")
	if toks[0].Kind != token.BOOL || !toks[0].BoolValue {
		t.Fatalf("expected true BOOL, got %v", toks[0])
	}
	if toks[2].Kind != token.BOOL || toks[2].BoolValue {
		t.Fatalf("expected false BOOL, got %v", toks[2])
	}
	if toks[4].Kind != token.NULL {
		t.Fatalf("expected NULL, got %v", toks[4])
	}
}

func TestScanIllegalCharacter(t *testing.T) {
	var span token.Span
	var msg string
	f := token.NewFile("test", 1)
	l := New(f, []byte("$"), func(s token.Span, m string) {
		span = s
		msg = m
	})
	tok := l.Scan()
	if tok.Kind != token.ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %v", tok.Kind)
	}
	if msg == "" || !span.IsValid() {
		t.Fatalf("expected error to be reported with a valid span")
	}
}
