// Package format implements the NOML mutation API and format-preserving
// serializer: Set/Remove change specific value nodes of a
// parse_preserving Document in place, and Serialize walks the document
// back into source text such that every byte outside the mutated spans
// is reproduced exactly.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/noml-lang/noml-go/ast"
	"github.com/noml-lang/noml-go/token"
)

// Serialize reconstructs doc's source text. For any item untouched since
// parsing, the original bytes (plus its own newline) are emitted
// verbatim; modified or newly-inserted items are re-rendered from their
// current field values.
func Serialize(doc *ast.Document) []byte {
	var b strings.Builder
	if doc.HadBOM {
		b.WriteString("\xef\xbb\xbf") // UTF-8 BOM
	}
	for _, it := range doc.Items {
		writeItem(&b, doc, it)
	}
	return []byte(b.String())
}

func writeItem(b *strings.Builder, doc *ast.Document, it ast.Item) {
	switch v := it.(type) {
	case *ast.Comment:
		if !v.Sp.IsValid() {
			b.WriteString(v.Text + v.NewlineRaw)
			return
		}
		writeVerbatim(b, doc, v.Sp)
		b.WriteString(v.NewlineRaw)
	case *ast.BlankLine:
		if !v.Sp.IsValid() {
			b.WriteString(v.NewlineRaw)
			return
		}
		writeVerbatim(b, doc, v.Sp)
		b.WriteString(v.NewlineRaw)
	case *ast.TableHeader:
		if !v.Sp.IsValid() {
			b.WriteString("[" + v.Path.String() + "]")
			writeTrailing(b, v.TrailingGap, v.TrailingComment)
			b.WriteString(doc.NewlineStyle)
			return
		}
		writeVerbatim(b, doc, v.Sp)
		b.WriteString(v.NewlineRaw)
	case *ast.ArrayTableHeader:
		if !v.Sp.IsValid() {
			b.WriteString("[[" + v.Path.String() + "]]")
			writeTrailing(b, v.TrailingGap, v.TrailingComment)
			b.WriteString(doc.NewlineStyle)
			return
		}
		writeVerbatim(b, doc, v.Sp)
		b.WriteString(v.NewlineRaw)
	case *ast.Include:
		if !v.Sp.IsValid() {
			b.WriteString(`include "` + escapeBasic(v.PathLit.Decoded) + `"`)
			writeTrailing(b, v.TrailingGap, v.TrailingComment)
			b.WriteString(doc.NewlineStyle)
			return
		}
		writeVerbatim(b, doc, v.Sp)
		b.WriteString(v.NewlineRaw)
	case *ast.KeyValue:
		writeKeyValue(b, doc, v)
	}
}

func writeVerbatim(b *strings.Builder, doc *ast.Document, sp token.Span) {
	b.Write(sp.Slice(doc.Source))
}

func writeTrailing(b *strings.Builder, gap string, c *ast.Comment) {
	if c == nil {
		return
	}
	b.WriteString(gap)
	b.WriteString(c.Text)
}

func writeKeyValue(b *strings.Builder, doc *ast.Document, kv *ast.KeyValue) {
	if kv.Removed {
		return
	}
	if kv.New || !kv.Sp.IsValid() {
		b.WriteString(kv.Key.String())
		b.WriteString(" = ")
		b.WriteString(renderValue(kv.Value))
		b.WriteString(doc.NewlineStyle)
		return
	}
	if !kv.Modified {
		writeVerbatim(b, doc, kv.Sp)
		b.WriteString(kv.NewlineRaw)
		return
	}

	// Modified in place: reuse every original byte except the value
	// itself, which is re-rendered from its current (possibly replaced)
	// node.
	b.Write(doc.Source[kv.Sp.Start:kv.KeySpan.End])
	b.WriteString(kv.LeadingWS)
	b.Write(doc.Source[kv.EqualsSpan.Start:kv.EqualsSpan.End])
	b.WriteString(kv.TrailingWS)
	b.WriteString(renderValue(kv.Value))
	b.WriteString(kv.TrailingGap)
	if kv.TrailingComment != nil {
		b.WriteString(kv.TrailingComment.Text)
	}
	b.WriteString(kv.NewlineRaw)
}

// renderValue renders a value node from its own fields. It is only ever
// called on a subtree that the mutation API constructed wholesale (a
// Modified KeyValue always replaces its entire RHS expression), so it
// never needs to fall back to copying a sub-span of the original source.
func renderValue(v ast.Value) string {
	switch t := v.(type) {
	case *ast.StringLit:
		text := t.Decoded
		if t.Modified {
			text = t.New
		}
		return quoteString(text, t.Kind)
	case *ast.IntLit:
		n := t.Value
		if t.Modified {
			n = t.New
		}
		return formatInt(n, t.Base)
	case *ast.FloatLit:
		f := t.Value
		if t.Modified {
			f = t.New
		}
		return formatFloat(f)
	case *ast.BoolLit:
		bv := t.Value
		if t.Modified {
			bv = t.New
		}
		if bv {
			return "true"
		}
		return "false"
	case *ast.NullLit:
		return "null"
	case *ast.ArrayLit:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = renderValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ast.InlineTable:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = f.Key.String() + " = " + renderValue(f.Value)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *ast.EnvCall:
		if t.Default != nil {
			return `env("` + escapeBasic(t.Name.Decoded) + `", ` + renderValue(t.Default) + ")"
		}
		return `env("` + escapeBasic(t.Name.Decoded) + `")`
	case *ast.NativeCall:
		return "@" + t.Name + `("` + escapeBasic(t.Arg.Decoded) + `")`
	case *ast.IncludeExpr:
		return `include "` + escapeBasic(t.PathLit.Decoded) + `"`
	default:
		return fmt.Sprintf("%v", v)
	}
}

func quoteString(s string, kind token.StringKind) string {
	switch kind {
	case token.LiteralString:
		return "'" + s + "'"
	case token.MultilineLiteralString:
		return "'''" + s + "'''"
	case token.MultilineBasicString:
		return `"""` + escapeBasic(s) + `"""`
	default:
		return `"` + escapeBasic(s) + `"`
	}
}

var basicEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeBasic(s string) string { return basicEscaper.Replace(s) }

func formatInt(n int64, base token.IntBase) string {
	switch base {
	case token.Hex:
		sign := ""
		u := n
		if u < 0 {
			sign, u = "-", -u
		}
		return sign + "0x" + strconv.FormatInt(u, 16)
	case token.Octal:
		sign := ""
		u := n
		if u < 0 {
			sign, u = "-", -u
		}
		return sign + "0o" + strconv.FormatInt(u, 8)
	case token.Binary:
		sign := ""
		u := n
		if u < 0 {
			sign, u = "-", -u
		}
		return sign + "0b" + strconv.FormatInt(u, 2)
	default:
		return strconv.FormatInt(n, 10)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
