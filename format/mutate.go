package format

import (
	"github.com/noml-lang/noml-go/ast"
	nomlerrors "github.com/noml-lang/noml-go/errors"
	"github.com/noml-lang/noml-go/token"
)

// Set replaces the scalar value at path with v. If the key already
// exists, its surrounding format (indent, equals spacing, trailing
// comment) is preserved and only the value text changes; otherwise a new
// key-value is appended at the end of its table scope using a
// conservative default format (single space around '=', the document's
// dominant newline style).
//
// path's scope (every segment but the last) must already exist as a
// table opened by a header somewhere in the document; Set does not
// create new table scopes.
func Set(doc *ast.Document, path ast.KeyPath, v ast.Value) error {
	if kv := doc.Find(path); kv != nil {
		kv.Value = v
		kv.Modified = true
		return nil
	}
	return appendKeyValue(doc, path, v)
}

// Remove tombstones the key-value at path so the serializer omits it
// entirely, and drops the run of standalone comment lines directly above
// it (its leading comment block). Blank lines above it are kept.
func Remove(doc *ast.Document, path ast.KeyPath) error {
	kv := doc.Find(path)
	if kv == nil {
		return nomlerrors.Resolvef(nomlerrors.TypeConflict, doc.Filename, token.Span{}, "no such key %q", path.String())
	}
	kv.Removed = true
	for i, it := range doc.Items {
		if it != ast.Item(kv) {
			continue
		}
		start := i
		for start > 0 {
			if _, ok := doc.Items[start-1].(*ast.Comment); !ok {
				break
			}
			start--
		}
		doc.Items = append(doc.Items[:start], doc.Items[i:]...)
		break
	}
	return nil
}

// appendKeyValue inserts a brand-new key-value for path. For a root-scope
// path it is appended at the very end of the document. For a nested
// scope, it is inserted immediately after the last existing item that
// belongs to that scope (or immediately after the scope's own header, if
// the scope has no items yet); the scope must already have been opened by
// a [a.b] header somewhere earlier in the document.
func appendKeyValue(doc *ast.Document, path ast.KeyPath, v ast.Value) error {
	scope := path[:len(path)-1]
	key := ast.KeyPath{path[len(path)-1]}

	newItem := &ast.KeyValue{
		Scope: scope,
		Key:   key,
		Value: v,
		New:   true,
	}

	if len(scope) == 0 {
		doc.Items = append(doc.Items, newItem)
		return nil
	}

	headerIdx := -1
	lastInScope := -1
	for i, it := range doc.Items {
		switch h := it.(type) {
		case *ast.TableHeader:
			if h.Path.String() == scope.String() {
				headerIdx = i
			}
		case *ast.KeyValue:
			if h.Scope.String() == scope.String() {
				lastInScope = i
			}
		}
	}
	if headerIdx == -1 {
		return nomlerrors.Resolvef(nomlerrors.TypeConflict, doc.Filename, newItem.Span(), "table %q is not open in this document; Set cannot create new table scopes", scope.String())
	}
	insertAt := headerIdx + 1
	if lastInScope > headerIdx {
		insertAt = lastInScope + 1
	}
	doc.Items = append(doc.Items, nil)
	copy(doc.Items[insertAt+1:], doc.Items[insertAt:])
	doc.Items[insertAt] = newItem
	return nil
}
