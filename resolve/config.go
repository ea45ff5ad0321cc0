// Package resolve evaluates a full-fidelity ast.Document into a resolved
// value.Value tree: materializing tables and arrays, looking up
// env(...) calls, merging included documents, substituting ${path}
// string interpolation, and evaluating @name("arg") native constructors.
package resolve

import (
	"os"

	"github.com/spf13/afero"
)

// Loader abstracts the filesystem so that include resolution can be
// exercised against an in-memory source set in tests, or swapped for a
// different backing store (an embedded bundle, a virtual filesystem)
// without touching the resolver itself.
type Loader interface {
	// Load returns the raw bytes at canonicalPath.
	Load(canonicalPath string) ([]byte, error)
}

// afLoader adapts an afero.Fs to Loader. afero gives the resolver the
// same filesystem indirection the CLI uses for its own file handling, so
// a test can hand the resolver an in-memory tree (afero.NewMemMapFs())
// instead of touching disk.
type afLoader struct{ fs afero.Fs }

// NewFsLoader wraps fs as a Loader.
func NewFsLoader(fs afero.Fs) Loader { return afLoader{fs: fs} }

func (l afLoader) Load(path string) ([]byte, error) {
	return afero.ReadFile(l.fs, path)
}

// OSLoader is the default Loader, backed by the real filesystem.
var OSLoader Loader = afLoader{fs: afero.NewOsFs()}

// Config controls the configurable behaviors of a Resolver, matching the
// specification's list of resolver knobs.
type Config struct {
	// BasePath is the directory that relative `include` paths are
	// resolved against. Defaults to "." when empty.
	BasePath string

	// AllowEnv enables env(...) lookups; when false, every env(...) call
	// fails as if the variable were unset (so a missing default still
	// errors with MissingEnv).
	AllowEnv bool

	// Getenv looks up an environment variable, returning ok=false when
	// unset. Defaults to os.LookupEnv; tests may override it to avoid
	// depending on the real process environment.
	Getenv func(name string) (string, bool)

	// AllowIncludes enables `include "path"` resolution; when false,
	// every include fails with IncludeIoFailed.
	AllowIncludes bool

	// MaxIncludeDepth bounds the include chain length (the root document
	// counts as depth 1). Defaults to 32 when zero.
	MaxIncludeDepth int

	// Interpolation enables ${path} substitution inside string values;
	// when false, interpolation syntax is left as literal text.
	Interpolation bool

	// StrictNative makes an unrecognized @name(...) constructor a hard
	// error (UnknownNative) rather than passing the tag through as an
	// unevaluated value.Native whose Payload is the argument as a String.
	StrictNative bool

	// Loader supplies the bytes for include targets. Defaults to
	// OSLoader when nil.
	Loader Loader
}

// DefaultConfig returns the configuration noml.Parse uses:
// env and includes enabled, interpolation enabled, strict natives, OS
// filesystem loader, include depth capped at 32.
func DefaultConfig() Config {
	return Config{
		BasePath:        ".",
		AllowEnv:        true,
		AllowIncludes:   true,
		MaxIncludeDepth: 32,
		Interpolation:   true,
		StrictNative:    true,
	}
}

func (c Config) normalized() Config {
	if c.BasePath == "" {
		c.BasePath = "."
	}
	if c.MaxIncludeDepth == 0 {
		c.MaxIncludeDepth = 32
	}
	if c.Loader == nil {
		c.Loader = OSLoader
	}
	if c.Getenv == nil {
		c.Getenv = os.LookupEnv
	}
	return c
}
