// Package value implements the resolved, typed domain that a Document
// evaluates into: a tagged sum of Null, Bool, Integer, Float, String,
// Array, Table, DateTime, and Native, with Tables preserving declaration
// order.
package value

import (
	"fmt"
	"strconv"
	"time"
)

// Kind identifies which variant of the tagged union a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Integer
	Float
	String
	Array
	Table
	DateTime
	Native
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Table:
		return "table"
	case DateTime:
		return "datetime"
	case Native:
		return "native"
	default:
		return "unknown"
	}
}

// NativeValue is the result of a native constructor: a closed-set tag and
// the resolved payload Value it evaluates to (usually Integer, Float, or
// String).
type NativeValue struct {
	Name    string
	Payload *Value
}

// Value is an immutable node in the resolved configuration tree.
type Value struct {
	kind    Kind
	boolV   bool
	intV    int64
	floatV  float64
	strV    string
	arrV    []*Value
	tblV    *TableValue
	timeV   time.Time
	nativeV *NativeValue
}

func NewNull() *Value                  { return &Value{kind: Null} }
func NewBool(b bool) *Value             { return &Value{kind: Bool, boolV: b} }
func NewInt(i int64) *Value             { return &Value{kind: Integer, intV: i} }
func NewFloat(f float64) *Value         { return &Value{kind: Float, floatV: f} }
func NewString(s string) *Value         { return &Value{kind: String, strV: s} }
func NewArray(vs []*Value) *Value       { return &Value{kind: Array, arrV: vs} }
func NewTable(t *TableValue) *Value     { return &Value{kind: Table, tblV: t} }
func NewDateTime(t time.Time) *Value    { return &Value{kind: DateTime, timeV: t} }
func NewNative(name string, p *Value) *Value {
	return &Value{kind: Native, nativeV: &NativeValue{Name: name, Payload: p}}
}

func (v *Value) Kind() Kind { return v.kind }

func (v *Value) Bool() (bool, bool)         { return v.boolV, v.kind == Bool }
func (v *Value) Int() (int64, bool)         { return v.intV, v.kind == Integer }
func (v *Value) Float() (float64, bool)     { return v.floatV, v.kind == Float }
func (v *Value) Str() (string, bool)        { return v.strV, v.kind == String }
func (v *Value) Array() ([]*Value, bool)    { return v.arrV, v.kind == Array }
func (v *Value) Table() (*TableValue, bool) { return v.tblV, v.kind == Table }
func (v *Value) Time() (time.Time, bool)    { return v.timeV, v.kind == DateTime }
func (v *Value) Native() (*NativeValue, bool) {
	return v.nativeV, v.kind == Native
}

// GetPath resolves a dotted path against v, descending through Table
// values. It returns (nil, false) if any segment is missing or v is not a
// table at the point a descent is required.
func (v *Value) GetPath(path []string) (*Value, bool) {
	cur := v
	for _, seg := range path {
		tbl, ok := cur.Table()
		if !ok {
			return nil, false
		}
		next, ok := tbl.Get(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Text renders v in the canonical textual form used for string
// interpolation: strings verbatim, numbers in their default textual form,
// booleans as "true"/"false". Compound values (Array, Table) are not
// interpolatable and return ok=false.
func (v *Value) Text() (string, bool) {
	switch v.kind {
	case Null:
		return "null", true
	case Bool:
		if v.boolV {
			return "true", true
		}
		return "false", true
	case Integer:
		return strconv.FormatInt(v.intV, 10), true
	case Float:
		return strconv.FormatFloat(v.floatV, 'g', -1, 64), true
	case String:
		return v.strV, true
	case DateTime:
		return v.timeV.Format(time.RFC3339), true
	case Native:
		return v.nativeV.Payload.Text()
	default:
		return "", false
	}
}

func (v *Value) String() string {
	s, ok := v.Text()
	if ok {
		return s
	}
	switch v.kind {
	case Array:
		return fmt.Sprintf("%v", v.arrV)
	case Table:
		return fmt.Sprintf("%v", v.tblV)
	default:
		return "<invalid>"
	}
}

// TableValue is an ordered mapping from key strings to Values, preserving
// declaration (insertion) order.
type TableValue struct {
	keys []string
	m    map[string]*Value
}

// NewTableValue creates an empty, ready-to-use table.
func NewTableValue() *TableValue {
	return &TableValue{m: map[string]*Value{}}
}

// Set inserts or overwrites key. The first Set for a key determines its
// position in Keys(); subsequent overwrites keep that position.
func (t *TableValue) Set(key string, v *Value) {
	if _, ok := t.m[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.m[key] = v
}

// Get looks up key.
func (t *TableValue) Get(key string) (*Value, bool) {
	v, ok := t.m[key]
	return v, ok
}

// Has reports whether key is present.
func (t *TableValue) Has(key string) bool {
	_, ok := t.m[key]
	return ok
}

// Keys returns the keys in declaration order. Callers must not mutate the
// returned slice.
func (t *TableValue) Keys() []string { return t.keys }

// Len returns the number of entries.
func (t *TableValue) Len() int { return len(t.keys) }

// Delete removes key, if present, preserving the relative order of the
// remaining keys.
func (t *TableValue) Delete(key string) {
	if _, ok := t.m[key]; !ok {
		return
	}
	delete(t.m, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}
