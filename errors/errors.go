// Package errors defines the error taxonomy shared by every stage of the
// NOML pipeline: lexing, parsing, and resolution. Every error carries a
// source span so that callers — in particular the CLI — can render a
// caret pointing at the offending text.
package errors

import (
	"fmt"
	"strings"

	"github.com/noml-lang/noml-go/token"
)

// Kind identifies which pipeline stage produced an error.
type Kind int

const (
	// Lex indicates an invalid token was encountered.
	Lex Kind = iota
	// Parse indicates an unexpected token or malformed structure.
	Parse
	// Resolve indicates a failure while evaluating the AST into a Value
	// tree (see ResolveKind for the specific cause).
	Resolve
	// IO indicates a wrapped failure from the resolver's Loader.
	IO
)

func (k Kind) String() string {
	switch k {
	case Lex:
		return "lex"
	case Parse:
		return "parse"
	case Resolve:
		return "resolve"
	case IO:
		return "io"
	default:
		return "error"
	}
}

// ResolveKind distinguishes the cause of a Resolve error, matching the
// ResolveError variants of the specification.
type ResolveKind int

const (
	_ ResolveKind = iota
	MissingEnv
	IncludeCycle
	IncludeIoFailed
	NativeBadForm
	UnknownNative
	InterpolationMissingPath
	TypeConflict
	DuplicateKey
	MaxDepthExceeded
)

func (k ResolveKind) String() string {
	switch k {
	case MissingEnv:
		return "MissingEnv"
	case IncludeCycle:
		return "IncludeCycle"
	case IncludeIoFailed:
		return "IncludeIoFailed"
	case NativeBadForm:
		return "NativeBadForm"
	case UnknownNative:
		return "UnknownNative"
	case InterpolationMissingPath:
		return "InterpolationMissingPath"
	case TypeConflict:
		return "TypeConflict"
	case DuplicateKey:
		return "DuplicateKey"
	case MaxDepthExceeded:
		return "MaxDepthExceeded"
	default:
		return "Unknown"
	}
}

// Error is the single error type produced by the NOML core. Every stage
// (lexer, parser, resolver, loader) wraps its failures in an Error so that
// callers can discriminate on Kind/ResolveKind without type-switching over
// multiple concrete types.
type Error struct {
	Kind        Kind
	ResolveKind ResolveKind // meaningful only when Kind == Resolve
	Filename    string
	Span        token.Span
	Message     string
	// Context carries auxiliary information such as an include chain for
	// IncludeCycle, rendered as part of Error().
	Context []string
	// Err is the underlying cause, if any (e.g. a Loader failure).
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Filename != "" {
		fmt.Fprintf(&b, "%s:", e.Filename)
	}
	if e.Span.IsValid() {
		fmt.Fprintf(&b, "%d:%d: ", e.Span.Line, e.Span.Column)
	}
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for _, c := range e.Context {
		fmt.Fprintf(&b, "\n  %s", c)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind (and, for
// Resolve errors, the same ResolveKind unless target's ResolveKind is
// zero). This lets callers write
// errors.Is(err, &errors.Error{Kind: errors.Resolve, ResolveKind: errors.MissingEnv}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if e.Kind == Resolve && t.ResolveKind != 0 && t.ResolveKind != e.ResolveKind {
		return false
	}
	return true
}

// Lexf creates a Lex error at span with a formatted message.
func Lexf(filename string, span token.Span, format string, args ...interface{}) *Error {
	return &Error{Kind: Lex, Filename: filename, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Parsef creates a Parse error at span with a formatted message.
func Parsef(filename string, span token.Span, format string, args ...interface{}) *Error {
	return &Error{Kind: Parse, Filename: filename, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Resolvef creates a Resolve error of the given ResolveKind.
func Resolvef(kind ResolveKind, filename string, span token.Span, format string, args ...interface{}) *Error {
	return &Error{Kind: Resolve, ResolveKind: kind, Filename: filename, Span: span, Message: fmt.Sprintf(format, args...)}
}

// Wrap reports a failure from the injected Loader capability itself (the
// file did not read, as opposed to reading fine and failing to parse).
// filename and span identify the include site, not the unreadable file.
func Wrap(filename string, span token.Span, cause error) *Error {
	return &Error{Kind: IO, Filename: filename, Span: span, Message: "I/O failure", Err: cause}
}
