package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/noml-lang/noml-go/ast"
	nomlerrors "github.com/noml-lang/noml-go/errors"
	"github.com/noml-lang/noml-go/native"
	"github.com/noml-lang/noml-go/parser"
	"github.com/noml-lang/noml-go/token"
	"github.com/noml-lang/noml-go/value"
)

// Resolve evaluates doc into a resolved value.Value tree (always a Table)
// under cfg. It is the sole entry point into this package; everything
// else is resolveState-internal plumbing.
func Resolve(doc *ast.Document, cfg Config) (*value.Value, error) {
	cfg = cfg.normalized()
	rs := &resolveState{
		cfg:         cfg,
		root:        value.NewTableValue(),
		arrayTables: map[string][]*value.TableValue{},
	}
	if doc.Filename != "" {
		rs.includeStack = []string{canonicalize(cfg.BasePath, doc.Filename)}
	}
	if err := rs.processItems(doc.Items, ast.KeyPath{}, doc.Filename); err != nil {
		return nil, err
	}
	return value.NewTable(rs.root), nil
}

// resolveState carries the mutable state threaded through one Resolve
// call, including any includes it transitively pulls in.
type resolveState struct {
	cfg          Config
	root         *value.TableValue
	arrayTables  map[string][]*value.TableValue // abs dotted path -> appended elements, in order
	includeStack []string                       // canonical paths currently being resolved, for cycle detection
}

func canonicalize(basePath, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Clean(filepath.Join(basePath, rel))
}

// processItems walks a document's (or an included document's) item list,
// materializing each into rs.root. prefix is the absolute path this set
// of items is merged under — ast.KeyPath{} for the root document itself,
// or the enclosing Include's own scope for a merged include.
func (rs *resolveState) processItems(items []ast.Item, prefix ast.KeyPath, filename string) error {
	for _, it := range items {
		switch v := it.(type) {
		case *ast.Comment, *ast.BlankLine:
			continue
		case *ast.TableHeader:
			if _, err := rs.ensureTable(prefix.Join(v.Path), v.PathSpan, filename); err != nil {
				return err
			}
		case *ast.ArrayTableHeader:
			if err := rs.appendArrayTable(prefix.Join(v.Path), v.PathSpan, filename); err != nil {
				return err
			}
		case *ast.Include:
			if err := rs.resolveInclude(v, prefix, filename); err != nil {
				return err
			}
		case *ast.KeyValue:
			if v.Removed {
				continue
			}
			if err := rs.resolveKeyValue(v, prefix, filename); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rs *resolveState) resolveKeyValue(kv *ast.KeyValue, prefix ast.KeyPath, filename string) error {
	scopeAbs := prefix.Join(kv.Scope)
	target, err := rs.scopeTarget(scopeAbs, kv.ScopeIsArray, kv.KeySpan, filename)
	if err != nil {
		return err
	}

	// A dotted key on the left of '=' (e.g. `a.b = 1`) creates nested
	// tables under target just like a [a] header would.
	for _, seg := range kv.Key[:len(kv.Key)-1] {
		next, err := rs.descend(target, seg, kv.KeySpan, filename)
		if err != nil {
			return err
		}
		target = next
	}
	leaf := kv.Key[len(kv.Key)-1]

	val, err := rs.resolveValue(kv.Value, target, filename)
	if err != nil {
		return err
	}

	if target.Has(leaf) {
		return nomlerrors.Resolvef(nomlerrors.DuplicateKey, filename, kv.KeySpan, "duplicate key %q", prefix.Join(kv.AbsPath()).String())
	}
	target.Set(leaf, val)
	return nil
}

// descend returns the table stored at seg within parent, creating an
// empty one if absent, and erroring if seg already holds a non-table.
func (rs *resolveState) descend(parent *value.TableValue, seg string, span token.Span, filename string) (*value.TableValue, error) {
	next, ok := parent.Get(seg)
	if !ok {
		nt := value.NewTableValue()
		parent.Set(seg, value.NewTable(nt))
		return nt, nil
	}
	tbl, ok := next.Table()
	if !ok {
		return nil, nomlerrors.Resolvef(nomlerrors.TypeConflict, filename, span, "%q is already defined as a %s, not a table", seg, next.Kind())
	}
	return tbl, nil
}

// ensureTable walks abs from rs.root, creating any missing intermediate
// tables, and returns the table named by abs itself.
func (rs *resolveState) ensureTable(abs ast.KeyPath, span token.Span, filename string) (*value.TableValue, error) {
	cur := rs.root
	for _, seg := range abs {
		next, err := rs.descend(cur, seg, span, filename)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}

// scopeTarget resolves the table that a KeyValue under scopeAbs should be
// inserted into: the shared table at scopeAbs, or — when scopeAbs was
// opened by the most recent [[a.b]] header — the latest appended element
// of the array of tables at scopeAbs.
func (rs *resolveState) scopeTarget(scopeAbs ast.KeyPath, isArray bool, span token.Span, filename string) (*value.TableValue, error) {
	if len(scopeAbs) == 0 {
		return rs.root, nil
	}
	if isArray {
		key := scopeAbs.String()
		elems := rs.arrayTables[key]
		if len(elems) == 0 {
			return nil, nomlerrors.Resolvef(nomlerrors.TypeConflict, filename, span, "%q has no array-of-tables element to attach to", key)
		}
		return elems[len(elems)-1], nil
	}
	return rs.ensureTable(scopeAbs, span, filename)
}

// appendArrayTable appends a fresh empty table to the array of tables
// named by abs, creating the array itself (and any parent tables) if this
// is its first occurrence.
func (rs *resolveState) appendArrayTable(abs ast.KeyPath, span token.Span, filename string) error {
	parentPath := abs[:len(abs)-1]
	name := abs[len(abs)-1]
	parent, err := rs.ensureTable(parentPath, span, filename)
	if err != nil {
		return err
	}
	var elems []*value.Value
	if existing, ok := parent.Get(name); ok {
		a, ok := existing.Array()
		if !ok {
			return nomlerrors.Resolvef(nomlerrors.TypeConflict, filename, span, "%q is already defined as a %s, not an array of tables", abs.String(), existing.Kind())
		}
		elems = a
	}
	nt := value.NewTableValue()
	elems = append(elems, value.NewTable(nt))
	parent.Set(name, value.NewArray(elems))

	key := abs.String()
	rs.arrayTables[key] = append(rs.arrayTables[key], nt)
	return nil
}

// ---------------------------------------------------------------------------
// Value expressions.

// resolveValue evaluates a value expression node. scope is the table this
// value's enclosing key-value is being inserted into, used as the base
// for ${path} interpolation lookups (siblings already resolved at the
// same scope).
func (rs *resolveState) resolveValue(v ast.Value, scope *value.TableValue, filename string) (*value.Value, error) {
	switch val := v.(type) {
	case *ast.StringLit:
		return rs.resolveStringLit(val, scope, filename)
	case *ast.IntLit:
		if val.Modified {
			return value.NewInt(val.New), nil
		}
		return value.NewInt(val.Value), nil
	case *ast.FloatLit:
		if val.Modified {
			return value.NewFloat(val.New), nil
		}
		return value.NewFloat(val.Value), nil
	case *ast.BoolLit:
		if val.Modified {
			return value.NewBool(val.New), nil
		}
		return value.NewBool(val.Value), nil
	case *ast.NullLit:
		return value.NewNull(), nil
	case *ast.ArrayLit:
		elems := make([]*value.Value, 0, len(val.Elems))
		for _, e := range val.Elems {
			rv, err := rs.resolveValue(e, scope, filename)
			if err != nil {
				return nil, err
			}
			elems = append(elems, rv)
		}
		return value.NewArray(elems), nil
	case *ast.InlineTable:
		tbl := value.NewTableValue()
		for _, f := range val.Fields {
			target := tbl
			for _, seg := range f.Key[:len(f.Key)-1] {
				next, err := rs.descend(target, seg, f.KeySpan, filename)
				if err != nil {
					return nil, err
				}
				target = next
			}
			leaf := f.Key[len(f.Key)-1]
			rv, err := rs.resolveValue(f.Value, scope, filename)
			if err != nil {
				return nil, err
			}
			if target.Has(leaf) {
				return nil, nomlerrors.Resolvef(nomlerrors.DuplicateKey, filename, f.KeySpan, "duplicate key %q", f.Key.String())
			}
			target.Set(leaf, rv)
		}
		return value.NewTable(tbl), nil
	case *ast.EnvCall:
		return rs.resolveEnvCall(val, scope, filename)
	case *ast.NativeCall:
		return rs.resolveNativeCall(val, filename)
	case *ast.IncludeExpr:
		return rs.resolveIncludeExprValue(val, filename)
	default:
		return nil, nomlerrors.Resolvef(nomlerrors.TypeConflict, filename, v.Span(), "internal: unresolvable value node %T", v)
	}
}

func (rs *resolveState) resolveStringLit(s *ast.StringLit, scope *value.TableValue, filename string) (*value.Value, error) {
	if s.Modified {
		return value.NewString(s.New), nil
	}
	if len(s.Interp) == 0 || !rs.cfg.Interpolation {
		return value.NewString(s.Decoded), nil
	}
	var b strings.Builder
	for _, seg := range s.Interp {
		if seg.Path == nil {
			b.WriteString(seg.Literal)
			continue
		}
		found, ok := value.NewTable(scope).GetPath(seg.Path)
		if !ok {
			return nil, nomlerrors.Resolvef(nomlerrors.InterpolationMissingPath, filename, s.Sp,
				"interpolation references %q, which is not defined at this scope (forward references are not allowed)", strings.Join(seg.Path, "."))
		}
		text, ok := found.Text()
		if !ok {
			return nil, nomlerrors.Resolvef(nomlerrors.InterpolationMissingPath, filename, s.Sp,
				"%q resolves to a %s value, which cannot be interpolated into a string", strings.Join(seg.Path, "."), found.Kind())
		}
		b.WriteString(text)
	}
	return value.NewString(b.String()), nil
}

func (rs *resolveState) resolveEnvCall(e *ast.EnvCall, scope *value.TableValue, filename string) (*value.Value, error) {
	name := e.Name.Decoded
	if rs.cfg.AllowEnv {
		if val, ok := rs.cfg.Getenv(name); ok {
			return value.NewString(val), nil
		}
	}
	if e.Default != nil {
		return rs.resolveValue(e.Default, scope, filename)
	}
	return nil, nomlerrors.Resolvef(nomlerrors.MissingEnv, filename, e.Sp, "environment variable %q is not set and no default was given", name)
}

func (rs *resolveState) resolveNativeCall(n *ast.NativeCall, filename string) (*value.Value, error) {
	if !native.IsKnown(n.Name) {
		if rs.cfg.StrictNative {
			return nil, nomlerrors.Resolvef(nomlerrors.UnknownNative, filename, n.Sp, "unknown native constructor %q", n.Name)
		}
		return value.NewNative(n.Name, value.NewString(n.Arg.Decoded)), nil
	}
	res, err := native.Eval(n.Name, n.Arg.Decoded)
	if err != nil {
		return nil, nomlerrors.Resolvef(nomlerrors.NativeBadForm, filename, n.Arg.Sp, "@%s: %v", n.Name, err)
	}
	return value.NewNative(res.Name, res.Payload), nil
}

// ---------------------------------------------------------------------------
// Includes.

// loadIncludeDoc parses the document named by lit (relative to cfg.BasePath),
// enforcing cycle detection and the configured max include depth.
func (rs *resolveState) loadIncludeDoc(lit *ast.StringLit, span token.Span, filename string) (doc *ast.Document, canon string, err error) {
	if !rs.cfg.AllowIncludes {
		return nil, "", nomlerrors.Resolvef(nomlerrors.IncludeIoFailed, filename, span, "includes are disabled")
	}
	rel := lit.Decoded
	if lit.Modified {
		rel = lit.New
	}
	canon = canonicalize(rs.cfg.BasePath, rel)

	for i, seen := range rs.includeStack {
		if seen == canon {
			chain := append(append([]string{}, rs.includeStack[i:]...), canon)
			return nil, "", nomlerrors.Resolvef(nomlerrors.IncludeCycle, filename, span, "include cycle detected: %s", strings.Join(chain, " -> "))
		}
	}
	if len(rs.includeStack) >= rs.cfg.MaxIncludeDepth {
		return nil, "", nomlerrors.Resolvef(nomlerrors.MaxDepthExceeded, filename, span, "include depth exceeds maximum of %d", rs.cfg.MaxIncludeDepth)
	}

	raw, err := rs.cfg.Loader.Load(canon)
	if err != nil {
		return nil, "", nomlerrors.Wrap(filename, span, fmt.Errorf("failed to load include %q: %w", rel, err))
	}
	doc, perr := parser.Parse(canon, raw)
	if perr != nil {
		return nil, "", nomlerrors.Resolvef(nomlerrors.IncludeIoFailed, filename, span, "failed to parse include %q: %v", rel, perr)
	}
	return doc, canon, nil
}

// resolveInclude handles a top-level `include "path"` item: the included
// document's own items are merged into the enclosing scope at this
// position, in document order.
func (rs *resolveState) resolveInclude(inc *ast.Include, prefix ast.KeyPath, filename string) error {
	doc, canon, err := rs.loadIncludeDoc(inc.PathLit, inc.Sp, filename)
	if err != nil {
		return err
	}
	scopeAbs := prefix.Join(inc.Scope)
	if inc.ScopeIsArray {
		// Root-scope items of the included document belong to the latest
		// array-of-tables element, just as the include statement does.
		for _, it := range doc.Items {
			switch v := it.(type) {
			case *ast.KeyValue:
				v.ScopeIsArray = v.ScopeIsArray || len(v.Scope) == 0
			case *ast.Include:
				v.ScopeIsArray = v.ScopeIsArray || len(v.Scope) == 0
			}
		}
	}
	rs.includeStack = append(rs.includeStack, canon)
	defer func() { rs.includeStack = rs.includeStack[:len(rs.includeStack)-1] }()
	return rs.processItems(doc.Items, scopeAbs, doc.Filename)
}

// resolveIncludeExprValue handles `include "path"` used as a value
// expression: the included document resolves to its own standalone
// Table value, independent of the enclosing document's tree.
func (rs *resolveState) resolveIncludeExprValue(e *ast.IncludeExpr, filename string) (*value.Value, error) {
	doc, canon, err := rs.loadIncludeDoc(e.PathLit, e.Sp, filename)
	if err != nil {
		return nil, err
	}
	rs.includeStack = append(rs.includeStack, canon)
	defer func() { rs.includeStack = rs.includeStack[:len(rs.includeStack)-1] }()

	sub := &resolveState{cfg: rs.cfg, root: value.NewTableValue(), arrayTables: map[string][]*value.TableValue{}, includeStack: rs.includeStack}
	if err := sub.processItems(doc.Items, ast.KeyPath{}, doc.Filename); err != nil {
		return nil, err
	}
	return value.NewTable(sub.root), nil
}
