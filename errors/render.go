package errors

import (
	"fmt"
	"strings"
)

// Render produces the CLI-facing form of err:
//
//	<file>:<line>:<col>: <category>: <message>
//	    <source line>
//	    ^
//
// src is the original source text the error's span indexes into; it may be
// nil, in which case only the first line is rendered.
func Render(src []byte, err error) string {
	e, ok := err.(*Error)
	if !ok {
		return err.Error()
	}
	var b strings.Builder
	b.WriteString(e.Error())
	if src == nil || !e.Span.IsValid() {
		return b.String()
	}
	line := sourceLine(src, int(e.Span.Start))
	if line == "" {
		return b.String()
	}
	b.WriteByte('\n')
	b.WriteString("    ")
	b.WriteString(line)
	b.WriteByte('\n')
	b.WriteString("    ")
	for i := 1; i < e.Span.Column; i++ {
		if i-1 < len(line) && line[i-1] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteByte('^')
	return b.String()
}

// sourceLine returns the full line of src containing byte offset off,
// without its trailing newline.
func sourceLine(src []byte, off int) string {
	if off < 0 || off > len(src) {
		return ""
	}
	start := off
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := off
	for end < len(src) && src[end] != '\n' {
		end++
	}
	line := src[start:end]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	return fmt.Sprintf("%s", line)
}
