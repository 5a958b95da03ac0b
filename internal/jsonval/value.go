// Package jsonval implements the recursive JSON value model the rest of the
// toolchain operates on: a tagged sum of null/bool/number/string/array/object
// that preserves object key insertion order through load, merge, and
// serialize, so the canonical serializer's sorted, 4-space-indented output is
// deterministic regardless of how the value was built up.
package jsonval

import "fmt"

// Kind tags the variant a Value currently holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is an immutable-by-convention JSON value. Callers that need to
// mutate a Value in place should Clone it first; Merge and friends always
// return fresh values rather than mutating their inputs, except where noted.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	arr  *Array
	obj  *Object
}

func Null() *Value                 { return &Value{kind: KindNull} }
func Bool(b bool) *Value           { return &Value{kind: KindBool, b: b} }
func Number(n float64) *Value      { return &Value{kind: KindNumber, n: n} }
func String(s string) *Value       { return &Value{kind: KindString, s: s} }
func FromArray(a *Array) *Value    { return &Value{kind: KindArray, arr: a} }
func FromObject(o *Object) *Value  { return &Value{kind: KindObject, obj: o} }

func (v *Value) Kind() Kind { return v.kind }
func (v *Value) IsNull() bool   { return v == nil || v.kind == KindNull }
func (v *Value) IsObject() bool { return v != nil && v.kind == KindObject }
func (v *Value) IsArray() bool  { return v != nil && v.kind == KindArray }

func (v *Value) AsBool() (bool, bool) {
	if v == nil || v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v *Value) AsNumber() (float64, bool) {
	if v == nil || v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

func (v *Value) AsString() (string, bool) {
	if v == nil || v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v *Value) AsObject() (*Object, bool) {
	if v == nil || v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

func (v *Value) AsArray() (*Array, bool) {
	if v == nil || v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// MustObject panics if v is not an object. Reserved for call sites that have
// already checked IsObject, to avoid repeating the ", ok" dance.
func (v *Value) MustObject() *Object {
	o, ok := v.AsObject()
	if !ok {
		panic(fmt.Sprintf("jsonval: value is not an object (kind=%s)", v.Kind()))
	}
	return o
}

// Clone performs a deep copy of v. Scalars are copied by value into a new
// Value.
func (v *Value) Clone() *Value {
	if v == nil {
		return Null()
	}
	switch v.kind {
	case KindArray:
		return FromArray(v.arr.Clone())
	case KindObject:
		return FromObject(v.obj.Clone())
	default:
		cp := *v
		return &cp
	}
}

// Equal reports structural (deep) equality between two values.
func Equal(a, b *Value) bool {
	if a.IsNull() && b.IsNull() {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindArray:
		return a.arr.Equal(b.arr)
	case KindObject:
		return a.obj.Equal(b.obj)
	default:
		return true
	}
}
