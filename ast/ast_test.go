package ast

import (
	"testing"

	"github.com/go-quicktest/qt"
)

func TestKeyPathString(t *testing.T) {
	p := KeyPath{"server", "port"}
	qt.Assert(t, qt.Equals(p.String(), "server.port"))

	weird := KeyPath{"a-b", "3x", "c d"}
	qt.Assert(t, qt.Equals(weird.String(), `a-b."3x"."c d"`))
}

func TestKeyPathJoinClone(t *testing.T) {
	base := KeyPath{"a"}
	joined := base.Join(KeyPath{"b", "c"})
	qt.Assert(t, qt.DeepEquals([]string(joined), []string{"a", "b", "c"}))

	clone := joined.Clone()
	clone[0] = "z"
	qt.Assert(t, qt.Equals(joined[0], "a"))
}

func TestDocumentFindAndKeyValues(t *testing.T) {
	doc := &Document{
		Items: []Item{
			&KeyValue{Scope: KeyPath{}, Key: KeyPath{"a"}},
			&KeyValue{Scope: KeyPath{"srv"}, Key: KeyPath{"port"}},
			&Comment{Text: "# x"},
			&KeyValue{Scope: KeyPath{"srv"}, Key: KeyPath{"host"}, Removed: true},
		},
	}
	kvs := doc.KeyValues()
	qt.Assert(t, qt.HasLen(kvs, 2))

	found := doc.Find(KeyPath{"srv", "port"})
	qt.Assert(t, qt.IsNotNil(found))
	qt.Assert(t, qt.Equals(found.Key.String(), "port"))

	qt.Assert(t, qt.IsNil(doc.Find(KeyPath{"srv", "host"})))
}
