package token

import (
	"fmt"
	"sort"
)

// Position describes a printable source location: a file name, a byte
// offset, and the derived line and column.
//
// A Position is valid if Line > 0.
type Position struct {
	Filename string
	Offset   int // byte offset, starting at 0
	Line     int // line number, starting at 1
	Column   int // column number in bytes, starting at 1
}

// IsValid reports whether the position carries real line information.
func (pos Position) IsValid() bool { return pos.Line > 0 }

// String renders the position as "file:line:col", "line:col", or "-".
func (pos Position) String() string {
	s := pos.Filename
	if pos.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", pos.Line, pos.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Pos is a single byte offset into a source buffer. Pos is relative to a
// Span's File and is primarily used as a building block for Span.
type Pos int

// NoPos is the zero value of Pos, indicating "no position".
const NoPos Pos = -1

// IsValid reports whether p refers to a real offset.
func (p Pos) IsValid() bool { return p >= 0 }

// Span is a half-open byte range [Start, End) in a source buffer, along
// with the line/column of its start, suitable for error reporting and for
// slicing the original bytes during serialization.
type Span struct {
	Start, End Pos
	Line       int // line of Start, 1-based
	Column     int // column of Start in bytes, 1-based
}

// IsValid reports whether the span has non-negative bounds.
func (s Span) IsValid() bool { return s.Start >= 0 && s.End >= s.Start }

// Len returns the number of bytes the span covers.
func (s Span) Len() int { return int(s.End - s.Start) }

// Slice returns the raw bytes of the span in src.
func (s Span) Slice(src []byte) []byte {
	if !s.IsValid() {
		return nil
	}
	return src[s.Start:s.End]
}

// File tracks byte-offset-to-line/column mapping for a single source
// buffer. It is built incrementally by the scanner as it encounters
// newlines, mirroring a classic line-offset table.
type File struct {
	name  string
	size  int
	lines []int // byte offset of the first character of each line; lines[0] == 0
}

// NewFile creates a File for a buffer of the given name and size.
func NewFile(name string, size int) *File {
	return &File{name: name, size: size, lines: []int{0}}
}

// Name returns the file's name.
func (f *File) Name() string { return f.name }

// AddLine registers the offset of a line's first byte (the byte following
// a newline). Offsets must be added in increasing order.
func (f *File) AddLine(offset int) {
	if n := len(f.lines); (n == 0 || f.lines[n-1] < offset) && offset <= f.size {
		f.lines = append(f.lines, offset)
	}
}

// Position resolves a byte offset to a line/column pair.
func (f *File) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > f.size {
		offset = f.size
	}
	i := sort.Search(len(f.lines), func(i int) bool { return f.lines[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return Position{
		Filename: f.name,
		Offset:   offset,
		Line:     i + 1,
		Column:   offset - f.lines[i] + 1,
	}
}

// Span builds a Span for [start,end) with the line/column of start resolved
// against f.
func (f *File) Span(start, end int) Span {
	p := f.Position(start)
	return Span{Start: Pos(start), End: Pos(end), Line: p.Line, Column: p.Column}
}

// PosAt returns the Position for the start of span s.
func (f *File) PosAt(s Span) Position {
	return Position{Filename: f.name, Offset: int(s.Start), Line: s.Line, Column: s.Column}
}
