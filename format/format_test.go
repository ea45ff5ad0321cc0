package format

import (
	"testing"

	"github.com/go-quicktest/qt"

	"github.com/noml-lang/noml-go/ast"
	"github.com/noml-lang/noml-go/parser"
	"github.com/noml-lang/noml-go/token"
)

func TestSerializeRoundTripUnmodified(t *testing.T) {
	srcs := []string{
		"a = 1\nb = \"x\"\n",
		"# hdr\n[srv]  # inline\n  port = 8080\n",
		"[[servers]]\nname = \"a\"\n\n[[servers]]\nname = \"b\"\n",
		"url = \"http://${host}:${port}/\"\nhost = \"x\"\nport = 1\n",
	}
	for _, src := range srcs {
		doc, err := parser.Parse("t.noml", []byte(src))
		qt.Assert(t, qt.IsNil(err))
		out := Serialize(doc)
		qt.Assert(t, qt.Equals(string(out), src))
	}
}

func TestSetPreservesSurroundingFormat(t *testing.T) {
	src := "# hdr\n[srv]  # inline\n  port = 8080\n"
	doc, err := parser.Parse("t.noml", []byte(src))
	qt.Assert(t, qt.IsNil(err))

	err = Set(doc, ast.KeyPath{"srv", "port"}, &ast.IntLit{Value: 9090, Base: token.Decimal, Modified: true, New: 9090})
	qt.Assert(t, qt.IsNil(err))

	out := Serialize(doc)
	qt.Assert(t, qt.Equals(string(out), "# hdr\n[srv]  # inline\n  port = 9090\n"))
}

func TestRemoveDropsEntireLine(t *testing.T) {
	src := "a = 1\nb = 2\nc = 3\n"
	doc, err := parser.Parse("t.noml", []byte(src))
	qt.Assert(t, qt.IsNil(err))

	err = Remove(doc, ast.KeyPath{"b"})
	qt.Assert(t, qt.IsNil(err))

	out := Serialize(doc)
	qt.Assert(t, qt.Equals(string(out), "a = 1\nc = 3\n"))
}

func TestSetAppendsNewKeyAtEndOfScope(t *testing.T) {
	src := "[srv]\nhost = \"x\"\n"
	doc, err := parser.Parse("t.noml", []byte(src))
	qt.Assert(t, qt.IsNil(err))

	err = Set(doc, ast.KeyPath{"srv", "port"}, &ast.IntLit{Value: 8080, Base: token.Decimal, Modified: true, New: 8080})
	qt.Assert(t, qt.IsNil(err))

	out := Serialize(doc)
	qt.Assert(t, qt.Equals(string(out), "[srv]\nhost = \"x\"\nport = 8080\n"))
}
